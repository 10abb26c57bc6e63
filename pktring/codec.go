package pktring

import (
	"fmt"

	"github.com/pkg/math"
	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/packetizer"
)

// ProduceState carries progress of packetizing one media buffer across Produce calls.
// Reset it to zero value before starting a new media buffer.
type ProduceState struct {
	// Processed is the number of media octets consumed so far.
	Processed int
	// TimestampIndex is the number of audio timestamps used so far.
	TimestampIndex int
	// Status is the last packetizer status.
	Status packetizer.Status
	// Packets is the number of packets produced by the last call.
	Packets int
}

// Done determines whether the packetizer finished the unit or needs more input.
func (state ProduceState) Done() bool {
	return state.Status != packetizer.StatusContinue
}

// nextTimestamp selects the timestamp of the next packet.
// One timestamp means video: every packet carries it.
// Otherwise each packet takes the next audio timestamp, followed by one placeholder.
func (state *ProduceState) nextTimestamp(timestamps []uint32) (uint32, error) {
	if len(timestamps) == 1 {
		return timestamps[0], nil
	}
	switch i := state.TimestampIndex; {
	case i < len(timestamps):
		state.TimestampIndex++
		return timestamps[i], nil
	case i == len(timestamps):
		state.TimestampIndex++
		return 0, nil
	}
	return 0, ErrTimestamps
}

// Produce packetizes media into slots at the write cursor.
//
// It stops when the packetizer reports a status other than StatusContinue, or the ring is full,
// or MaxBatch packets have been produced in this call.
// A full ring is backpressure, not an error: the caller should flush and call again.
// Slot buffers are zero-filled before packetizing; slot length is at least avtp.FrameSizeMin.
func (ring *Ring) Produce(pk packetizer.Packetizer, media []byte, timestamps []uint32, state *ProduceState) error {
	state.Packets = 0
	limit := math.MinInt(ring.win.Free(), MaxBatch)
	for st := packetizer.StatusContinue; st == packetizer.StatusContinue && state.Packets < limit; {
		ts, e := state.nextTimestamp(timestamps)
		if e != nil {
			logger.Error("produce error", zap.Int("timestamps", len(timestamps)), zap.Error(e))
			return e
		}

		slot := &ring.pool.slots[ring.win.W()]
		clear(slot.Buf)
		size, st2, e := pk.Packetize(slot.Buf, media, &state.Processed, ts)
		if e != nil {
			return fmt.Errorf("%w: %w", ErrCodec, e)
		}
		st, state.Status = st2, st2
		if st == packetizer.StatusNotEnough {
			break
		}

		slot.Len = math.MaxInt(size, avtp.FrameSizeMin)
		ring.win.AdvanceWrite(1)
		state.Packets++
	}

	logger.Debug("produce",
		zap.Int("packets", state.Packets),
		zap.Int("processed", state.Processed),
		zap.Int("media", len(media)),
		zap.Stringer("status", state.Status),
		zap.Stringer("window", ring.win),
	)
	return nil
}

// ConsumeState carries progress of depacketizing into one media buffer across Consume calls.
// Reset it to zero value before starting a new media buffer.
type ConsumeState struct {
	// Processed is the number of media octets produced so far.
	Processed int
	// Status is the last packetizer status.
	Status packetizer.Status
	// Packets is the number of packets consumed by the last call.
	Packets int
}

// Consume depacketizes slots at the read cursor into media.
//
// The read cursor advances past every slot handed to the packetizer, including skipped ones.
// It stops when the packetizer reports StatusComplete or StatusSkip, or the ring is empty.
// Timestamps of depacketized packets are stored into timestamps, up to its length.
// If the packetizer still needs more packets, it returns ErrTryAgain.
func (ring *Ring) Consume(pk packetizer.Packetizer, media []byte, timestamps []uint32, state *ConsumeState) (nTimestamps int, e error) {
	state.Packets = 0
	state.Status = packetizer.StatusContinue
	for !ring.win.Empty() {
		slot := ring.pool.slots[ring.win.R()]
		ts, st, e := pk.Depacketize(media, &state.Processed, slot.Data())
		ring.win.AdvanceRead(1)
		if e != nil {
			logger.Error("depacketize error", zap.Stringer("window", ring.win), zap.Error(e))
			return nTimestamps, fmt.Errorf("%w: %w", ErrCodec, e)
		}

		state.Status = st
		state.Packets++
		if st == packetizer.StatusSkip {
			break
		}
		if nTimestamps < len(timestamps) {
			timestamps[nTimestamps] = ts
			nTimestamps++
		}
		if st == packetizer.StatusComplete {
			break
		}
	}

	logger.Debug("consume",
		zap.Int("packets", state.Packets),
		zap.Int("processed", state.Processed),
		zap.Stringer("status", state.Status),
		zap.Stringer("window", ring.win),
	)
	if state.Status == packetizer.StatusContinue {
		return nTimestamps, ErrTryAgain
	}
	return nTimestamps, nil
}

// ProduceCRF packetizes one clock reference packet at the write cursor.
// It returns ErrOverrun if the ring is full.
func (ring *Ring) ProduceCRF(pk packetizer.CRFPacketizer, timestamps []uint64) error {
	if ring.win.Full() {
		logger.Error("CRF produce overrun", zap.Stringer("window", ring.win))
		return ErrOverrun
	}

	slot := &ring.pool.slots[ring.win.W()]
	clear(slot.Buf)
	size, e := pk.PacketizeCRF(slot.Buf, timestamps)
	if e != nil {
		return fmt.Errorf("%w: %w", ErrCodec, e)
	}
	slot.Len = math.MaxInt(size, avtp.FrameSizeMin)
	ring.win.AdvanceWrite(1)
	return nil
}

// ConsumeCRF depacketizes one clock reference packet at the read cursor.
// It returns the number of timestamps extracted, or zero if the ring is empty.
func (ring *Ring) ConsumeCRF(pk packetizer.CRFPacketizer, timestamps []uint64) (count int, e error) {
	if ring.win.Empty() {
		return 0, nil
	}

	slot := ring.pool.slots[ring.win.R()]
	count, e = pk.DepacketizeCRF(timestamps, slot.Data())
	ring.win.AdvanceRead(1)
	if e != nil {
		return 0, fmt.Errorf("%w: %w", ErrCodec, e)
	}
	return count, nil
}
