//go:build linux

package eavbpacket

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/gopacket/afpacket"
	"github.com/vishvananda/netlink"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/eavb"
)

// Driver is an eavb.Driver over AF_PACKET.
type Driver struct {
	cfg    Config
	logger *zap.Logger
	link   netlink.Link
	tp     *afpacket.TPacket

	txMu   sync.Mutex
	mu     sync.RWMutex
	queues map[*eavb.SoftQueue]bool

	closing chan struct{}
	stopped chan struct{}
}

var _ eavb.Driver = (*Driver)(nil)

// New opens an AF_PACKET socket on the interface and starts receiving.
func New(cfg Config) (drv *Driver, e error) {
	cfg.applyDefaults()

	link, e := netlink.LinkByName(cfg.Ifname)
	if e != nil {
		return nil, fmt.Errorf("netlink.LinkByName(%s): %w", cfg.Ifname, e)
	}
	if link.Attrs().Flags&net.FlagUp == 0 {
		return nil, fmt.Errorf("interface %s is down", cfg.Ifname)
	}

	drv = &Driver{
		cfg:     cfg,
		logger:  logger.With(zap.String("ifname", cfg.Ifname)),
		link:    link,
		queues:  map[*eavb.SoftQueue]bool{},
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if cfg.Promisc {
		if e = netlink.SetPromiscOn(link); e != nil {
			return nil, fmt.Errorf("netlink.SetPromiscOn(%s): %w", cfg.Ifname, e)
		}
	}

	if drv.tp, e = afpacket.NewTPacket(afpacket.OptInterface(cfg.Ifname), afpacket.OptPollTimeout(cfg.PollTimeout)); e != nil {
		if cfg.Promisc {
			netlink.SetPromiscOff(link)
		}
		return nil, fmt.Errorf("afpacket.NewTPacket(%s): %w", cfg.Ifname, e)
	}

	go drv.rxLoop()
	drv.logger.Info("driver opened",
		zap.Stringer("hwaddr", link.Attrs().HardwareAddr),
		zap.Int("mtu", link.Attrs().MTU),
	)
	return drv, nil
}

// HardwareAddr returns the interface MAC address.
func (drv *Driver) HardwareAddr() net.HardwareAddr {
	return drv.link.Attrs().HardwareAddr
}

// MTU returns the interface MTU.
func (drv *Driver) MTU() int {
	return drv.link.Attrs().MTU
}

// Open implements eavb.Driver.
func (drv *Driver) Open(dev eavb.DevName) (eavb.Queue, error) {
	select {
	case <-drv.closing:
		return nil, eavb.ErrClosed
	default:
	}

	q := eavb.NewSoftQueue(eavb.SoftQueueConfig{
		Dev:      dev,
		Capacity: drv.cfg.QueueCapacity,
		Transmit: drv.transmit,
		OnClose:  drv.remove,
	})

	drv.mu.Lock()
	defer drv.mu.Unlock()
	drv.queues[q] = !dev.IsTx()
	return q, nil
}

func (drv *Driver) remove(q *eavb.SoftQueue) {
	drv.mu.Lock()
	defer drv.mu.Unlock()
	delete(drv.queues, q)
}

func (drv *Driver) transmit(frame []byte) error {
	drv.txMu.Lock()
	defer drv.txMu.Unlock()
	return drv.tp.WritePacketData(frame)
}

func (drv *Driver) rxLoop() {
	defer close(drv.stopped)
	for {
		select {
		case <-drv.closing:
			return
		default:
		}

		frame, _, e := drv.tp.ZeroCopyReadPacketData()
		switch {
		case errors.Is(e, afpacket.ErrTimeout):
			continue
		case e != nil:
			drv.logger.Warn("socket read error", zap.Error(e))
			continue
		}

		if _, _, e := avtp.ParseFrame(frame); e != nil {
			continue
		}

		drv.mu.RLock()
		for q, isRx := range drv.queues {
			if isRx {
				q.Deliver(frame)
			}
		}
		drv.mu.RUnlock()
	}
}

// Close stops receiving, closes remaining queues, and releases the socket.
func (drv *Driver) Close() error {
	close(drv.closing)
	<-drv.stopped

	drv.mu.RLock()
	var queues []*eavb.SoftQueue
	for q := range drv.queues {
		queues = append(queues, q)
	}
	drv.mu.RUnlock()

	var errs []error
	for _, q := range queues {
		errs = append(errs, q.Close())
	}
	drv.tp.Close()
	if drv.cfg.Promisc {
		errs = append(errs, netlink.SetPromiscOff(drv.link))
	}

	e := multierr.Combine(errs...)
	if e != nil {
		drv.logger.Error("driver closed", zap.Error(e))
	} else {
		drv.logger.Info("driver closed")
	}
	return e
}
