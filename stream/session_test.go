package stream_test

import (
	"context"
	"net"
	"testing"
	"time"

	"go4.org/must"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/core/testenv"
	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/eavb/eavbmem"
	"github.com/usnistgov/avtpstream/netadapter"
	"github.com/usnistgov/avtpstream/packetizer/packetizertest"
	"github.com/usnistgov/avtpstream/packetizer/rawavtp"
	"github.com/usnistgov/avtpstream/stream"
)

var makeAR = testenv.MakeAR

func makeCodec(t *testing.T, uid uint16) (*rawavtp.Packetizer, avtp.StreamID) {
	var cfg rawavtp.Config
	cfg.Source.Set("02:00:00:00:00:01")
	cfg.Destination.Set("91:E0:F0:00:FE:01")
	mac, _ := net.ParseMAC("02:00:00:00:00:01")
	cfg.StreamID, _ = avtp.MakeStreamID(mac, uid)
	pk, e := rawavtp.New(cfg)
	if e != nil {
		t.Fatal(e)
	}
	return pk, cfg.StreamID
}

type fixture struct {
	tbl *netadapter.Table
}

func newFixture() *fixture {
	return &fixture{
		tbl: netadapter.New(eavbmem.New(eavbmem.Config{})),
	}
}

func TestLoopback(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	f := newFixture()

	txCodec, sid := makeCodec(t, 1)
	rxCodec, _ := makeCodec(t, 1)

	rx, e := stream.Open(f.tbl, rxCodec, stream.Config{Device: "ravb_rx0", StreamID: sid})
	require.NoError(e)
	defer must.Close(rx)
	assert.Equal(eavb.DevRx0, rx.Dev())

	cbs := eavb.CBSParam{BandwidthFraction: 0x20000000}
	tx, e := stream.Open(f.tbl, txCodec, stream.Config{Device: "ravb_tx0", CBS: cbs})
	require.NoError(e)
	defer must.Close(tx)
	assert.Equal(2, f.tbl.CountOpen())

	media := make([]byte, 3000)
	output := make([]byte, 4000)
	timestamps := make([]uint32, 8)
	for i := 0; i < 30; i++ {
		testenv.RandBytes(media)
		processed, e := tx.Transmit(ctx, media, []uint32{uint32(i)})
		require.NoError(e)
		require.Equal(len(media), processed)
		assert.Equal(0, tx.Ring().Occupied())

		produced, nTs, e := rx.Receive(ctx, output, timestamps)
		require.NoError(e, "unit %d", i)
		require.Equal(len(media), produced)
		assert.Equal(3, nTs)
		assert.Equal(uint32(i), timestamps[0])
		testenv.BytesEqual(assert, media, output[:produced])
	}

	txCnt, rxCnt := tx.Counters(), rx.Counters()
	assert.EqualValues(90, txCnt.Packets)
	assert.EqualValues(30, txCnt.Units)
	assert.EqualValues(90000, txCnt.Octets)
	assert.EqualValues(90, rxCnt.Packets)
	assert.EqualValues(30, rxCnt.Units)
	assert.EqualValues(0, rxCnt.Errors)
	assert.EqualValues(0, rxCodec.Counters().RxGaps)
}

func TestSkipForeign(t *testing.T) {
	assert, require := makeAR(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture()

	rxCodec, _ := makeCodec(t, 1)
	rx, e := stream.Open(f.tbl, rxCodec, stream.Config{Device: "ravb_rx0"})
	require.NoError(e)
	defer must.Close(rx)

	foreignCodec, _ := makeCodec(t, 2)
	foreign, e := stream.Open(f.tbl, foreignCodec, stream.Config{Device: "ravb_tx1"})
	require.NoError(e)
	defer must.Close(foreign)

	ownCodec, _ := makeCodec(t, 1)
	own, e := stream.Open(f.tbl, ownCodec, stream.Config{Device: "ravb_tx0"})
	require.NoError(e)
	defer must.Close(own)

	_, e = foreign.Transmit(ctx, make([]byte, 1500), []uint32{1})
	require.NoError(e)
	_, e = own.Transmit(ctx, make([]byte, 500), []uint32{2})
	require.NoError(e)

	timestamps := make([]uint32, 4)
	produced, nTs, e := rx.Receive(ctx, make([]byte, 2000), timestamps)
	require.NoError(e)
	assert.Equal(500, produced)
	assert.Equal(1, nTs)
	assert.Equal(uint32(2), timestamps[0])
	assert.EqualValues(2, rxCodec.Counters().RxSkipped)
	assert.Equal(0, rx.Ring().Occupied())
}

func TestSkipThenOwnInRing(t *testing.T) {
	assert, require := makeAR(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := newFixture()

	rxCodec, _ := makeCodec(t, 1)
	rx, e := stream.Open(f.tbl, rxCodec, stream.Config{Device: "ravb_rx0"})
	require.NoError(e)
	defer must.Close(rx)

	foreignCodec, _ := makeCodec(t, 2)
	foreign, e := stream.Open(f.tbl, foreignCodec, stream.Config{Device: "ravb_tx1"})
	require.NoError(e)
	defer must.Close(foreign)

	ownCodec, _ := makeCodec(t, 1)
	own, e := stream.Open(f.tbl, ownCodec, stream.Config{Device: "ravb_tx0"})
	require.NoError(e)
	defer must.Close(own)

	_, e = foreign.Transmit(ctx, make([]byte, 100), []uint32{1})
	require.NoError(e)
	own100 := make([]byte, 100)
	testenv.RandBytes(own100)
	_, e = own.Transmit(ctx, own100, []uint32{2})
	require.NoError(e)

	// both frames are drained in one batch, so the own unit waits in the ring behind the foreign one
	media := make([]byte, 200)
	produced, _, e := rx.Receive(ctx, media, make([]uint32, 1))
	require.NoError(e)
	assert.Equal(100, produced)
	testenv.BytesEqual(assert, own100, media[:produced])
	assert.EqualValues(1, rxCodec.Counters().RxSkipped)
	assert.Equal(0, rx.Ring().Occupied())
}

func TestCancel(t *testing.T) {
	assert, require := makeAR(t)
	f := newFixture()

	rxCodec, sid := makeCodec(t, 1)
	rx, e := stream.Open(f.tbl, rxCodec, stream.Config{Device: "ravb_rx5", StreamID: sid})
	require.NoError(e)
	defer must.Close(rx)

	done := make(chan error)
	go func() {
		_, _, e := rx.Receive(context.Background(), make([]byte, 100), nil)
		done <- e
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(rx.Cancel())
	select {
	case e := <-done:
		assert.ErrorIs(e, eavb.ErrInterrupted)
	case <-time.After(5 * time.Second):
		require.FailNow("Receive not interrupted")
	}
	assert.EqualValues(1, rx.Counters().Interrupted)
}

func TestDirection(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	f := newFixture()

	codec, _ := makeCodec(t, 1)
	rx, e := stream.Open(f.tbl, codec, stream.Config{Device: "ravb_rx0"})
	require.NoError(e)
	defer must.Close(rx)
	tx, e := stream.Open(f.tbl, codec, stream.Config{Device: "ravb_tx0"})
	require.NoError(e)
	defer must.Close(tx)

	_, e = rx.Transmit(ctx, nil, nil)
	assert.ErrorIs(e, stream.ErrDirection)
	_, _, e = tx.Receive(ctx, nil, nil)
	assert.ErrorIs(e, stream.ErrDirection)
	assert.ErrorIs(rx.TransmitCRF(ctx, &packetizertest.CRF{}, nil), stream.ErrDirection)
	_, e = tx.ReceiveCRF(ctx, &packetizertest.CRF{}, nil)
	assert.ErrorIs(e, stream.ErrDirection)
}

func TestCRF(t *testing.T) {
	assert, require := makeAR(t)
	ctx := context.Background()
	f := newFixture()

	codec, _ := makeCodec(t, 1)
	rx, e := stream.Open(f.tbl, codec, stream.Config{Device: "ravb_rx0", RingCapacity: 8, SlotSize: 128})
	require.NoError(e)
	defer must.Close(rx)
	tx, e := stream.Open(f.tbl, codec, stream.Config{Device: "ravb_tx0", RingCapacity: 8, SlotSize: 128})
	require.NoError(e)
	defer must.Close(tx)

	var crf packetizertest.CRF
	require.NoError(tx.TransmitCRF(ctx, &crf, []uint64{11, 22, 33}))

	timestamps := make([]uint64, 4)
	count, e := rx.ReceiveCRF(ctx, &crf, timestamps)
	require.NoError(e)
	assert.Equal(3, count)
	assert.Equal([]uint64{11, 22, 33}, timestamps[:3])
}

func TestClose(t *testing.T) {
	assert, require := makeAR(t)
	f := newFixture()

	codec, _ := makeCodec(t, 1)
	s, e := stream.Open(f.tbl, codec, stream.Config{Device: "ravb_tx0"})
	require.NoError(e)
	assert.NoError(s.Close())
	assert.NoError(s.Close())
	assert.Equal(0, f.tbl.CountOpen())

	for i := 0; i < netadapter.MaxContexts; i++ {
		s, e := stream.Open(f.tbl, codec, stream.Config{Device: "ravb_tx0", RingCapacity: 4, SlotSize: 64})
		require.NoError(e)
		defer must.Close(s)
	}
	_, e = stream.Open(f.tbl, codec, stream.Config{Device: "ravb_tx0"})
	assert.ErrorIs(e, netadapter.ErrNoContext)
}
