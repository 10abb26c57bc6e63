// Package eavbmem provides an in-memory loopback streaming driver.
//
// Frames transmitted on any TX queue of a Bus are delivered to every RX queue of the same Bus,
// subject to each RX queue's stream ID filter.
package eavbmem

import (
	"sync"

	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/core/logging"
	"github.com/usnistgov/avtpstream/eavb"
)

var logger = logging.New("eavbmem")

// Config contains Bus settings.
type Config struct {
	// QueueCapacity is the maximum number of outstanding entries per queue.
	QueueCapacity int `json:"queueCapacity,omitempty" yaml:"queueCapacity,omitempty"`
}

// Bus is an eavb.Driver that loops TX frames back to RX queues.
type Bus struct {
	cfg Config

	mu     sync.RWMutex
	queues map[*eavb.SoftQueue]bool
}

var _ eavb.Driver = (*Bus)(nil)

// New creates a Bus.
func New(cfg Config) *Bus {
	return &Bus{
		cfg:    cfg,
		queues: map[*eavb.SoftQueue]bool{},
	}
}

// Open implements eavb.Driver.
func (bus *Bus) Open(dev eavb.DevName) (eavb.Queue, error) {
	q := eavb.NewSoftQueue(eavb.SoftQueueConfig{
		Dev:      dev,
		Capacity: bus.cfg.QueueCapacity,
		Transmit: bus.transmit,
		OnClose:  bus.remove,
	})

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.queues[q] = !dev.IsTx()
	logger.Debug("queue opened", zap.Stringer("dev", dev), zap.Int("n-queues", len(bus.queues)))
	return q, nil
}

func (bus *Bus) remove(q *eavb.SoftQueue) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.queues, q)
	logger.Debug("queue closed", zap.Stringer("dev", q.Dev()), zap.Int("n-queues", len(bus.queues)))
}

func (bus *Bus) transmit(frame []byte) error {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for q, isRx := range bus.queues {
		if isRx {
			q.Deliver(frame)
		}
	}
	return nil
}

// CountQueues returns the number of open queues.
func (bus *Bus) CountQueues() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.queues)
}
