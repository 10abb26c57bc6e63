package netadapter

import (
	"context"
	"fmt"

	"github.com/pkg/math"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/pktring"
)

// ErrNotPrepared indicates Receive is invoked before ReceivePrepare.
var ErrNotPrepared = fmt.Errorf("receive not prepared: %w", unix.EPERM)

func makeEntry(i int, slot pktring.Slot, n int) eavb.Entry {
	return eavb.Entry{
		SeqNo: uint32(i),
		Vec: [1]eavb.Vec{{
			Base: slot.IOVA,
			Len:  n,
			Buf:  slot.Buf,
		}},
	}
}

func logTransient(logEntry *zap.Logger, msg string, e error) {
	if eavb.IsTransient(e) {
		logEntry.Info(msg, zap.Error(e))
	} else {
		logEntry.Error(msg, zap.Error(e))
	}
}

// SendPrepare validates id.
// Send descriptors are built per batch, so the slot table is not retained.
func (tbl *Table) SendPrepare(id ID, slots []pktring.Slot) error {
	_, e := tbl.get(id)
	return e
}

// Send writes a batch of packets and waits for their transmission.
// Returns the number of packets accepted by the queue.
// Short writes and incomplete transmissions are logged without recovery.
func (tbl *Table) Send(ctx context.Context, id ID, slots []pktring.Slot) (int, error) {
	c, e := tbl.get(id)
	if e != nil {
		return 0, e
	}
	logEntry := logger.With(id.ZapField("id"))

	n := len(slots)
	if n <= 0 || n > EntryMax || n > len(c.entry) {
		logEntry.Error("bad send batch", zap.Int("count", n))
		return 0, ErrBatchSize
	}

	for i, slot := range slots {
		c.entry[i] = makeEntry(i, slot, slot.Len)
	}

	wret, e := c.queue.Write(c.entry[:n])
	if e != nil {
		logEntry.Error("write error", zap.Int("count", n), zap.Error(e))
		return 0, e
	}
	if wret != n {
		logEntry.Error("write is short", zap.Int("count", n), zap.Int("written", wret), zap.Int("completed", tbl.completed(c)))
	}
	if wret == 0 {
		return 0, nil
	}

	rret, e := c.queue.Read(ctx, c.entry[:wret])
	switch {
	case e != nil:
		logTransient(logEntry, "send completion error", e)
	case rret != wret:
		logEntry.Error("read is short", zap.Int("written", wret), zap.Int("read", rret), zap.Int("completed", tbl.completed(c)))
	}
	return wret, nil
}

// ReceivePrepare registers slots for reception and arms up to count of them.
// Entries are armed in slot order, wrapping around the slot table.
// Receive keeps count slots armed ahead of the ring write cursor without checking the read cursor:
// the consumer must keep occupied slots plus count within the slot table, or received frames
// overwrite slots that have not been consumed.
func (tbl *Table) ReceivePrepare(id ID, slots []pktring.Slot, count int) error {
	c, e := tbl.get(id)
	if e != nil {
		return e
	}
	logEntry := logger.With(id.ZapField("id"))

	num := len(slots)
	if num < 2 || num > PacketMax {
		logEntry.Error("bad receive slot table", zap.Int("slots", num))
		return ErrBatchSize
	}

	c.slots = slots
	c.entry = make([]eavb.Entry, num)
	for i, slot := range slots {
		c.entry[i] = makeEntry(i, slot, len(slot.Buf))
	}
	c.entried, c.unentry = 0, 0

	n := math.MaxInt(0, math.MinInt(math.MinInt(count, num-1), EntryMax))
	if n == 0 {
		return nil
	}
	wret, e := c.queue.Write(c.entry[:n])
	if e != nil {
		logEntry.Error("write error", zap.Int("count", n), zap.Error(e))
		return e
	}
	if wret != n {
		logEntry.Error("write is short", zap.Int("count", n), zap.Int("written", wret))
	}
	c.unentry = wret % num
	logEntry.Debug("receive prepared", zap.Int("slots", num), zap.Int("armed", wret))
	return nil
}

// Receive waits for count packets, records their lengths in the slot table, and re-arms as many slots.
// Returns the number of received packets.
func (tbl *Table) Receive(ctx context.Context, id ID, count int) (int, error) {
	c, e := tbl.get(id)
	if e != nil {
		return 0, e
	}
	logEntry := logger.With(id.ZapField("id"))

	if count <= 0 || count > EntryMax {
		logEntry.Error("bad receive batch", zap.Int("count", count))
		return 0, ErrBatchSize
	}
	if c.slots == nil {
		return 0, ErrNotPrepared
	}

	rret, e := c.queue.Read(ctx, c.readEntry[:count])
	if e != nil {
		logTransient(logEntry, "receive error", e)
		return 0, e
	}

	num := len(c.slots)
	for i, ent := range c.readEntry[:rret] {
		idx := int(ent.SeqNo) % num
		if expected := (c.entried + i) % num; idx != expected {
			logEntry.Warn("out of order completion", zap.Int("expected", expected), zap.Int("actual", idx))
		}
		c.slots[idx].Len = ent.Vec[0].Len
	}
	c.entried = (c.entried + rret) % num

	first := math.MinInt(rret, num-c.unentry)
	if _, e := c.queue.Write(c.entry[c.unentry : c.unentry+first]); e != nil {
		logEntry.Error("rearm error", zap.Error(e))
	}
	if rest := rret - first; rest > 0 {
		if _, e := c.queue.Write(c.entry[:rest]); e != nil {
			logEntry.Error("rearm error", zap.Error(e))
		}
	}
	c.unentry = (c.unentry + rret) % num

	logEntry.Debug("receive", zap.Int("count", count), zap.Int("received", rret),
		zap.Int("entried", c.entried), zap.Int("unentry", c.unentry))
	return rret, nil
}

func (tbl *Table) completed(c *adapterCtx) int {
	en, e := c.queue.EntryNum()
	if e != nil {
		return -1
	}
	return en.Completed
}

// CheckReceive returns the number of completed entries waiting to be read.
func (tbl *Table) CheckReceive(id ID) (int, error) {
	c, e := tbl.get(id)
	if e != nil {
		return 0, e
	}

	en, e := c.queue.EntryNum()
	if e != nil {
		return 0, e
	}
	logger.Debug("check receive", id.ZapField("id"),
		zap.Int("accepted", en.Accepted), zap.Int("processed", en.Processed), zap.Int("completed", en.Completed))
	return en.Completed, nil
}

// Cancel wakes up a blocked Send or Receive on the context.
// It may be invoked from another goroutine.
func (tbl *Table) Cancel(id ID) error {
	q, e := tbl.queueOf(id)
	if e != nil {
		return e
	}
	return q.BlockingCancel()
}
