// Package stream orchestrates a packet ring, a transport context, and a packetizer into a streaming session.
//
// A Session streams in one direction, determined by its device.
// Transmit and Receive must be invoked from a single goroutine; Cancel may be invoked from any goroutine.
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/core/logging"
	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/netadapter"
	"github.com/usnistgov/avtpstream/packetizer"
	"github.com/usnistgov/avtpstream/pktring"
)

var logger = logging.New("stream")

// Error conditions.
var (
	ErrDirection = errors.New("operation not supported in session direction")
	ErrStalled   = fmt.Errorf("transport not accepting packets: %w", unix.EAGAIN)
)

// Counters contains Session counters.
type Counters struct {
	Packets     uint64 `json:"packets"`
	Octets      uint64 `json:"octets"`
	Units       uint64 `json:"units"`
	Interrupted uint64 `json:"interrupted"`
	Errors      uint64 `json:"errors"`
}

func (cnt Counters) String() string {
	return fmt.Sprintf("%dpkts %dB %dunits, %dintr %derr", cnt.Packets, cnt.Octets, cnt.Units, cnt.Interrupted, cnt.Errors)
}

// Session is a streaming session in one direction.
type Session struct {
	cfg     Config
	tbl     *netadapter.Table
	id      netadapter.ID
	dev     eavb.DevName
	ring    *pktring.Ring
	adapter pktring.Adapter
	pk      packetizer.Packetizer
	logger  *zap.Logger
	closed  atomic.Bool

	nPackets, nOctets, nUnits, nInterrupted, nErrors atomic.Uint64
}

// Open creates a Session.
// On a TX device, the credit-based shaper is configured; on an RX device, the stream ID filter is configured
// and slots are armed for reception.
func Open(tbl *netadapter.Table, pk packetizer.Packetizer, cfg Config) (s *Session, e error) {
	cfg.applyDefaults()
	s = &Session{
		cfg: cfg,
		tbl: tbl,
		pk:  pk,
	}

	if s.id, e = tbl.Open(cfg.Device); e != nil {
		return nil, e
	}
	s.dev, _ = tbl.Dev(s.id)
	s.logger = logger.With(s.id.ZapField("id"), zap.Stringer("dev", s.dev))
	s.adapter = tbl.Adapter(s.id)

	if s.dev.IsTx() {
		tbl.SetCBSParam(s.id, cfg.CBS)
	} else if !cfg.StreamID.IsZero() {
		tbl.SetStreamID(s.id, cfg.StreamID)
	}

	if s.ring, e = pktring.New(cfg.RingCapacity, cfg.SlotSize); e != nil {
		tbl.Close(s.id)
		return nil, e
	}

	if s.dev.IsTx() {
		e = s.ring.SendPrepare(s.adapter)
	} else {
		e = s.ring.ReceivePrepare(s.adapter, cfg.RxPrime)
	}
	if e != nil {
		s.Close()
		return nil, e
	}

	s.logger.Info("session opened", zap.Int("ring", cfg.RingCapacity), zap.Int("slot", cfg.SlotSize))
	return s, nil
}

// ID returns the transport context ID.
func (s *Session) ID() netadapter.ID {
	return s.id
}

// Dev returns the streaming device.
func (s *Session) Dev() eavb.DevName {
	return s.dev
}

// Ring returns the packet ring.
func (s *Session) Ring() *pktring.Ring {
	return s.ring
}

// Counters returns a snapshot of counters.
func (s *Session) Counters() Counters {
	return Counters{
		Packets:     s.nPackets.Load(),
		Octets:      s.nOctets.Load(),
		Units:       s.nUnits.Load(),
		Interrupted: s.nInterrupted.Load(),
		Errors:      s.nErrors.Load(),
	}
}

func (s *Session) countError(e error) error {
	switch {
	case e == nil:
	case eavb.IsTransient(e):
		s.nInterrupted.Add(1)
	default:
		s.nErrors.Add(1)
	}
	return e
}

// Transmit packetizes media and flushes packets until the packetizer completes the unit or needs more input.
// Returns the number of media octets consumed.
func (s *Session) Transmit(ctx context.Context, media []byte, timestamps []uint32) (processed int, e error) {
	if !s.dev.IsTx() {
		return 0, ErrDirection
	}

	var state pktring.ProduceState
	for {
		if e = s.ring.Produce(s.pk, media, timestamps, &state); e != nil {
			return state.Processed, s.countError(e)
		}
		s.nPackets.Add(uint64(state.Packets))

		before := s.ring.Occupied()
		if e = s.ring.Flush(ctx, s.adapter); e != nil {
			return state.Processed, s.countError(e)
		}

		switch {
		case state.Done() && s.ring.Occupied() == 0:
			s.nOctets.Add(uint64(state.Processed))
			if state.Status == packetizer.StatusComplete {
				s.nUnits.Add(1)
			}
			return state.Processed, nil
		case state.Packets == 0 && s.ring.Occupied() == before:
			s.logger.Warn("transmit stalled", zap.Int("occupied", before))
			return state.Processed, s.countError(ErrStalled)
		}
	}
}

// Receive drains packets and depacketizes them into media until the packetizer completes a unit.
// Packets of other streams are discarded. Transport errors, including cancellation, are returned to the caller.
// Returns the number of media octets produced and timestamps stored.
func (s *Session) Receive(ctx context.Context, media []byte, timestamps []uint32) (produced, nTimestamps int, e error) {
	if s.dev.IsTx() {
		return 0, 0, ErrDirection
	}

	var state pktring.ConsumeState
	for {
		if s.ring.Occupied() > 0 {
			n, e := s.ring.Consume(s.pk, media, timestamps[nTimestamps:], &state)
			nTimestamps += n
			s.nPackets.Add(uint64(state.Packets))
			switch {
			case errors.Is(e, pktring.ErrTryAgain):
			case e != nil:
				return state.Processed, nTimestamps, s.countError(e)
			case state.Status == packetizer.StatusComplete:
				s.nOctets.Add(uint64(state.Processed))
				s.nUnits.Add(1)
				return state.Processed, nTimestamps, nil
			default:
				// skipped packet; keep consuming what is already in the ring
				continue
			}
		}

		count, e := s.tbl.CheckReceive(s.id)
		if e != nil {
			return state.Processed, nTimestamps, s.countError(e)
		}
		count = max(1, min(count, s.cfg.Batch))
		if _, e = s.ring.Drain(ctx, s.adapter, count); e != nil {
			return state.Processed, nTimestamps, s.countError(e)
		}
	}
}

// TransmitCRF sends one clock reference packet.
func (s *Session) TransmitCRF(ctx context.Context, crf packetizer.CRFPacketizer, timestamps []uint64) error {
	if !s.dev.IsTx() {
		return ErrDirection
	}
	if e := s.ring.ProduceCRF(crf, timestamps); e != nil {
		return s.countError(e)
	}
	s.nPackets.Add(1)
	return s.countError(s.ring.Flush(ctx, s.adapter))
}

// ReceiveCRF receives one clock reference packet and returns the number of timestamps extracted.
func (s *Session) ReceiveCRF(ctx context.Context, crf packetizer.CRFPacketizer, timestamps []uint64) (int, error) {
	if s.dev.IsTx() {
		return 0, ErrDirection
	}
	if s.ring.Occupied() == 0 {
		if _, e := s.ring.Drain(ctx, s.adapter, 1); e != nil {
			return 0, s.countError(e)
		}
	}

	count, e := s.ring.ConsumeCRF(crf, timestamps)
	if e != nil {
		return 0, s.countError(e)
	}
	s.nPackets.Add(1)
	return count, nil
}

// Cancel interrupts a blocked Transmit or Receive.
func (s *Session) Cancel() error {
	return s.tbl.Cancel(s.id)
}

// Close releases the transport context and the ring.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	e := multierr.Combine(
		s.tbl.Close(s.id),
		s.ring.Close(),
	)
	s.logger.Info("session closed", zap.Stringer("counters", s.Counters()), zap.Error(e))
	return e
}
