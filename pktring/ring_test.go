package pktring_test

import (
	"errors"
	"testing"

	"go4.org/must"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/packetizer"
	"github.com/usnistgov/avtpstream/packetizer/packetizertest"
	"github.com/usnistgov/avtpstream/pktring"
)

func TestAllocate(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 256)
	require.NoError(e)
	defer must.Close(ring)

	assert.Equal(8, ring.Capacity())
	assert.Equal(256, ring.SlotSize())
	assert.Equal(0, ring.Occupied())
	assert.Equal(7, ring.Free())

	slots := ring.Slots()
	require.Len(slots, 8)
	for i, slot := range slots {
		assert.Equal(256, slot.Len)
		assert.Len(slot.Buf, 256)
		assert.Equal(slots[0].IOVA+uint64(256*i), slot.IOVA)
	}

	_, e = pktring.New(1, 256)
	assert.ErrorIs(e, pktring.ErrGeometry)
	_, e = pktring.New(8, avtp.FrameSizeMin-1)
	assert.ErrorIs(e, pktring.ErrGeometry)

	assert.ErrorIs(pktring.ErrAlloc, unix.ENOMEM)
}

func TestClose(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(4, 64)
	require.NoError(e)
	assert.NoError(ring.Close())
	assert.NoError(ring.Close())
}

func TestProduceComplete(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 256)
	require.NoError(e)
	defer must.Close(ring)

	pk := packetizertest.Repeat(packetizertest.Step{Size: 100, Consume: 100, Status: packetizer.StatusComplete})
	var state pktring.ProduceState
	require.NoError(ring.Produce(pk, make([]byte, 1000), []uint32{5}, &state))
	assert.Equal(1, ring.Occupied())
	assert.Equal(1, state.Packets)
	assert.Equal(100, state.Processed)
	assert.Equal(packetizer.StatusComplete, state.Status)
	assert.True(state.Done())
	assert.Equal(100, ring.Slots()[0].Len)

	pk = packetizertest.Repeat(packetizertest.Step{Size: 10, Consume: 10, Status: packetizer.StatusComplete})
	state = pktring.ProduceState{}
	require.NoError(ring.Produce(pk, make([]byte, 1000), []uint32{5}, &state))
	assert.Equal(avtp.FrameSizeMin, ring.Slots()[1].Len)
}

func TestProduceFull(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(4, 128)
	require.NoError(e)
	defer must.Close(ring)

	pk := packetizertest.Repeat(packetizertest.Step{Size: 80, Consume: 10, Status: packetizer.StatusContinue})
	var state pktring.ProduceState
	require.NoError(ring.Produce(pk, make([]byte, 1000), []uint32{1}, &state))
	assert.Equal(3, ring.Occupied())
	assert.Equal(3, state.Packets)
	assert.Equal(30, state.Processed)
	assert.False(state.Done())

	w := ring.Window().W()
	require.NoError(ring.Produce(pk, make([]byte, 1000), []uint32{1}, &state))
	assert.Equal(0, state.Packets)
	assert.Equal(30, state.Processed)
	assert.Equal(w, ring.Window().W())
	assert.Equal(3, pk.Calls)
}

func TestProduceBatchLimit(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(300, 64)
	require.NoError(e)
	defer must.Close(ring)

	pk := packetizertest.Repeat(packetizertest.Step{Size: 64, Consume: 1, Status: packetizer.StatusContinue})
	var state pktring.ProduceState
	require.NoError(ring.Produce(pk, make([]byte, 1000), []uint32{1}, &state))
	assert.Equal(pktring.MaxBatch, state.Packets)
	assert.Equal(pktring.MaxBatch, ring.Occupied())
}

func TestProduceNotEnough(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 256)
	require.NoError(e)
	defer must.Close(ring)

	pk := &packetizertest.Script{Steps: []packetizertest.Step{{Status: packetizer.StatusNotEnough}}}
	var state pktring.ProduceState
	require.NoError(ring.Produce(pk, make([]byte, 3), []uint32{1}, &state))
	assert.Equal(packetizer.StatusNotEnough, state.Status)
	assert.Equal(0, state.Processed)
	assert.Equal(0, state.Packets)
	assert.Equal(0, ring.Occupied())
}

func TestProduceTimestamps(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(16, 64)
	require.NoError(e)
	defer must.Close(ring)

	pk := packetizertest.Repeat(packetizertest.Step{Size: 64, Consume: 1, Status: packetizer.StatusContinue})
	var state pktring.ProduceState
	e = ring.Produce(pk, make([]byte, 100), []uint32{10, 20}, &state)
	assert.ErrorIs(e, pktring.ErrTimestamps)
	assert.ErrorIs(e, unix.EINVAL)
	assert.Equal([]uint32{10, 20, 0}, pk.Timestamps)
	assert.Equal(3, ring.Occupied())

	pk = packetizertest.Repeat(packetizertest.Step{Size: 64, Consume: 1, Status: packetizer.StatusContinue})
	pk.Steps = append([]packetizertest.Step{pk.Steps[0], pk.Steps[0]}, packetizertest.Step{Size: 64, Consume: 1, Status: packetizer.StatusComplete})
	pk.Repeat = false
	state = pktring.ProduceState{}
	require.NoError(ring.Produce(pk, make([]byte, 100), []uint32{7}, &state))
	assert.Equal([]uint32{7, 7, 7}, pk.Timestamps)
	assert.Equal(6, ring.Occupied())
}

func TestProduceZeroFill(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(2, 64)
	require.NoError(e)
	defer must.Close(ring)

	pk := packetizertest.Repeat(packetizertest.Step{Size: 64, Consume: 1, Status: packetizer.StatusComplete})
	sink := packetizertest.Repeat(packetizertest.Step{Status: packetizer.StatusComplete})
	for i := 0; i < 4; i++ {
		var ps pktring.ProduceState
		require.NoError(ring.Produce(pk, make([]byte, 10), []uint32{1}, &ps))
		require.Equal(1, ring.Occupied())
		var cs pktring.ConsumeState
		_, e := ring.Consume(sink, make([]byte, 10), nil, &cs)
		require.NoError(e)
	}
	assert.False(pk.Dirty)
	assert.Equal(4, len(sink.Packets))
	assert.Equal(byte(4), sink.Packets[3][0])
}

func TestProduceCodecError(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 64)
	require.NoError(e)
	defer must.Close(ring)

	failure := errors.New("bad media")
	pk := &packetizertest.Script{Steps: []packetizertest.Step{{Err: failure}}}
	var state pktring.ProduceState
	e = ring.Produce(pk, make([]byte, 10), []uint32{1}, &state)
	assert.ErrorIs(e, pktring.ErrCodec)
	assert.ErrorIs(e, unix.EIO)
	assert.ErrorIs(e, failure)
	assert.Equal(0, ring.Occupied())
}

// fillRing produces n packets.
func fillRing(t *testing.T, ring *pktring.Ring, n int) {
	pk := &packetizertest.Script{}
	for i := 0; i < n; i++ {
		pk.Steps = append(pk.Steps, packetizertest.Step{Size: 64, Consume: 1, Status: packetizer.StatusContinue})
	}
	var state pktring.ProduceState
	if e := ring.Produce(pk, make([]byte, n), []uint32{1}, &state); e != nil {
		t.Fatal(e)
	}
	if state.Packets != n {
		t.Fatalf("fillRing produced %d packets", state.Packets)
	}
}

func TestConsume(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 64)
	require.NoError(e)
	defer must.Close(ring)

	fillRing(t, ring, 4)
	require.Equal(4, ring.Occupied())

	pk := &packetizertest.Script{Steps: []packetizertest.Step{
		{Produce: 2, Timestamp: 1, Status: packetizer.StatusContinue},
		{Produce: 2, Timestamp: 2, Status: packetizer.StatusContinue},
		{Produce: 2, Timestamp: 3, Status: packetizer.StatusComplete},
	}}
	media := make([]byte, 100)
	timestamps := make([]uint32, 2)
	var state pktring.ConsumeState
	nTs, e := ring.Consume(pk, media, timestamps, &state)
	require.NoError(e)
	assert.Equal(2, nTs)
	assert.Equal([]uint32{1, 2}, timestamps)
	assert.Equal(6, state.Processed)
	assert.Equal(3, state.Packets)
	assert.Equal(packetizer.StatusComplete, state.Status)
	assert.Equal(1, ring.Occupied())
}

func TestConsumeTryAgain(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 64)
	require.NoError(e)
	defer must.Close(ring)

	pk := packetizertest.Repeat(packetizertest.Step{Produce: 1, Status: packetizer.StatusContinue})
	var state pktring.ConsumeState
	_, e = ring.Consume(pk, make([]byte, 100), nil, &state)
	assert.ErrorIs(e, pktring.ErrTryAgain)
	assert.ErrorIs(e, unix.EAGAIN)
	assert.Equal(0, state.Packets)

	fillRing(t, ring, 2)
	_, e = ring.Consume(pk, make([]byte, 100), nil, &state)
	assert.ErrorIs(e, pktring.ErrTryAgain)
	assert.Equal(2, state.Packets)
	assert.Equal(2, state.Processed)
	assert.Equal(0, ring.Occupied())
}

func TestConsumeWrap(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(4, 64)
	require.NoError(e)
	defer must.Close(ring)

	fillRing(t, ring, 3)
	pk := packetizertest.Repeat(packetizertest.Step{Produce: 1, Status: packetizer.StatusContinue})
	var state pktring.ConsumeState
	_, e = ring.Consume(pk, make([]byte, 100), nil, &state)
	assert.ErrorIs(e, pktring.ErrTryAgain)
	assert.Equal(3, state.Packets)

	fillRing(t, ring, 3)
	assert.Equal(2, ring.Window().W())
	_, e = ring.Consume(pk, make([]byte, 100), nil, &state)
	assert.ErrorIs(e, pktring.ErrTryAgain)
	assert.Equal(3, state.Packets)
	assert.Equal(6, state.Processed)
	assert.True(ring.Window().Empty())
	assert.Equal(2, ring.Window().R())
}

func TestConsumeSkip(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 64)
	require.NoError(e)
	defer must.Close(ring)

	fillRing(t, ring, 3)
	pk := &packetizertest.Script{Steps: []packetizertest.Step{
		{Status: packetizer.StatusSkip},
	}}
	timestamps := make([]uint32, 4)
	var state pktring.ConsumeState
	nTs, e := ring.Consume(pk, make([]byte, 100), timestamps, &state)
	require.NoError(e)
	assert.Equal(0, nTs)
	assert.Equal(packetizer.StatusSkip, state.Status)
	assert.Equal(2, ring.Occupied())
	assert.Equal(1, ring.Window().R())
}

func TestConsumeCodecError(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(8, 64)
	require.NoError(e)
	defer must.Close(ring)

	fillRing(t, ring, 3)
	pk := &packetizertest.Script{Steps: []packetizertest.Step{
		{Produce: 1, Status: packetizer.StatusContinue},
		{Err: errors.New("corrupt")},
	}}
	var state pktring.ConsumeState
	_, e = ring.Consume(pk, make([]byte, 100), nil, &state)
	assert.ErrorIs(e, pktring.ErrCodec)
	assert.ErrorIs(e, unix.EIO)
	assert.Equal(1, ring.Occupied())
}

func TestCRF(t *testing.T) {
	assert, require := makeAR(t)

	ring, e := pktring.New(2, 64)
	require.NoError(e)
	defer must.Close(ring)

	var crf packetizertest.CRF
	timestamps := make([]uint64, 6)
	count, e := ring.ConsumeCRF(&crf, timestamps)
	assert.NoError(e)
	assert.Equal(0, count)
	assert.Equal(0, crf.Calls)

	require.NoError(ring.ProduceCRF(&crf, []uint64{100, 200, 300}))
	assert.Equal(avtp.FrameSizeMin, ring.Slots()[0].Len)
	e = ring.ProduceCRF(&crf, []uint64{400})
	assert.ErrorIs(e, pktring.ErrOverrun)
	assert.ErrorIs(e, unix.ENOSPC)

	count, e = ring.ConsumeCRF(&crf, timestamps)
	require.NoError(e)
	assert.Equal(3, count)
	assert.Equal([]uint64{100, 200, 300}, timestamps[:3])
	assert.Equal(0, ring.Occupied())

	crf.Err = errors.New("CRF failure")
	e = ring.ProduceCRF(&crf, []uint64{1})
	assert.ErrorIs(e, pktring.ErrCodec)
	assert.Equal(0, ring.Occupied())
}
