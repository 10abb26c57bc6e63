package pktring

import (
	"context"

	"github.com/pkg/math"
	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/eavb"
)

// Adapter is the transport side of a Ring.
type Adapter interface {
	// SendPrepare registers the slot table before sending.
	SendPrepare(slots []Slot) error

	// Send transmits packets in slots.
	// Returns the number of accepted packets, which may be less than len(slots).
	Send(ctx context.Context, slots []Slot) (accepted int, e error)

	// ReceivePrepare registers the slot table and arms up to count slots for reception.
	// Received packets fill slots in table order starting from index zero and wrapping around.
	ReceivePrepare(slots []Slot, count int) error

	// Receive waits for up to count packets.
	// Returns the number of received packets, after updating Len of filled slots.
	Receive(ctx context.Context, count int) (received int, e error)
}

// SendPrepare passes the slot table to the adapter.
func (ring *Ring) SendPrepare(a Adapter) error {
	return a.SendPrepare(ring.pool.slots)
}

// Flush sends up to MaxBatch occupied slots from the read cursor.
// The read cursor advances by the number of packets accepted by the adapter, which may be short.
func (ring *Ring) Flush(ctx context.Context, a Adapter) error {
	n := math.MinInt(ring.win.Occupied(), MaxBatch)
	if n == 0 {
		return nil
	}

	ring.scratch = ring.scratch[:0]
	for i, r := 0, ring.win.R(); i < n; i++ {
		ring.scratch = append(ring.scratch, ring.pool.slots[(r+i)%ring.win.Size()])
	}

	accepted, e := a.Send(ctx, ring.scratch)
	if e != nil {
		logger.Error("send error", zap.Int("count", n), zap.Error(e))
		return e
	}

	ring.win.AdvanceRead(math.MinInt(accepted, n))
	logger.Debug("flush", zap.Int("count", n), zap.Int("accepted", accepted), zap.Stringer("window", ring.win))
	return nil
}

// ReceivePrepare passes the slot table to the adapter and arms count slots.
func (ring *Ring) ReceivePrepare(a Adapter, count int) error {
	return a.ReceivePrepare(ring.pool.slots, count)
}

// Drain receives up to maxBatch packets at the write cursor and returns the resulting occupied count.
//
// If no slot is free, it returns the occupied count without receiving: the ring has overrun and the
// caller should consume before draining again.
// Transport errors are returned with cursors unchanged; use eavb.IsTransient to recognize cancellation
// and would-block outcomes.
func (ring *Ring) Drain(ctx context.Context, a Adapter, maxBatch int) (occupied int, e error) {
	free := ring.win.Free()
	if free == 0 {
		logger.Debug("drain overrun", zap.Stringer("window", ring.win))
		return ring.win.Occupied(), nil
	}
	n := math.MinInt(math.MinInt(maxBatch, MaxBatch), free)

	received, e := a.Receive(ctx, n)
	if e != nil {
		if eavb.IsTransient(e) {
			logger.Info("drain interrupted", zap.Int("count", n), zap.Error(e))
		} else {
			logger.Error("receive error", zap.Int("count", n), zap.Error(e))
		}
		return ring.win.Occupied(), e
	}

	ring.win.AdvanceWrite(math.MinInt(received, n))
	logger.Debug("drain", zap.Int("count", n), zap.Int("received", received), zap.Stringer("window", ring.win))
	return ring.win.Occupied(), nil
}
