package netadapter

import (
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/core/events"
	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/pktring"
)

const (
	evtOpen  = "open"
	evtClose = "close"
)

// adapterCtx is one transport context.
type adapterCtx struct {
	used  bool
	dev   eavb.DevName
	queue eavb.Queue

	// entry holds send descriptors, or receive descriptors of every registered slot.
	entry []eavb.Entry
	// entried is the index of the next entry expected to complete.
	entried int
	// unentry is the index of the next entry to be armed.
	unentry   int
	readEntry [EntryMax]eavb.Entry
	slots     []pktring.Slot
}

// Table is a transport adapter multiplexer.
type Table struct {
	driver  eavb.Driver
	emitter *events.Emitter

	mu      sync.Mutex
	entries [MaxContexts]adapterCtx
}

// New creates a Table over a driver.
func New(driver eavb.Driver) *Table {
	return &Table{
		driver:  driver,
		emitter: events.NewEmitter(),
	}
}

// OnOpen registers a callback when a transport context is opened.
func (tbl *Table) OnOpen(cb func(id ID, dev eavb.DevName)) io.Closer {
	return tbl.emitter.On(evtOpen, cb)
}

// OnClose registers a callback when a transport context is closed.
func (tbl *Table) OnClose(cb func(id ID)) io.Closer {
	return tbl.emitter.On(evtClose, cb)
}

// get returns the opened context identified by id.
func (tbl *Table) get(id ID) (*adapterCtx, error) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	return tbl.getLocked(id)
}

// getLocked is get with tbl.mu held.
// A context claimed by an Open still in progress has no queue and is not returned.
func (tbl *Table) getLocked(id ID) (*adapterCtx, error) {
	if !id.Valid() || !tbl.entries[id].used || tbl.entries[id].queue == nil {
		return nil, ErrInvalidID
	}
	return &tbl.entries[id], nil
}

// queueOf returns the queue of an opened context, copied under the lock.
func (tbl *Table) queueOf(id ID) (eavb.Queue, error) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	c, e := tbl.getLocked(id)
	if e != nil {
		return nil, e
	}
	return c.queue, nil
}

// CountOpen returns the number of claimed contexts.
func (tbl *Table) CountOpen() (n int) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	for _, c := range tbl.entries {
		if c.used {
			n++
		}
	}
	return n
}

// Open claims the lowest free context and opens the named device on it.
// Unknown device names fall back to eavb.DevTx0.
func (tbl *Table) Open(name string) (id ID, e error) {
	dev, ok := eavb.ParseDevName(name)
	if !ok {
		logger.Error("unknown device name, using default", zap.String("name", name), zap.Stringer("dev", dev))
	}

	id, e = tbl.claim()
	if e != nil {
		logger.Error("open error", zap.String("name", name), zap.Error(e))
		return -1, e
	}
	logEntry := logger.With(id.ZapField("id"), zap.Stringer("dev", dev))

	q, e := tbl.driver.Open(dev)
	if e != nil {
		tbl.release(id)
		logEntry.Error("queue open error", zap.Error(e))
		return -1, e
	}

	if e := q.SetOption(eavb.Option{BlockMode: eavb.BlockWaitAll}); e != nil {
		logEntry.Error("queue option error", zap.Error(e))
	}

	tbl.mu.Lock()
	c := &tbl.entries[id]
	c.dev = dev
	c.entry = make([]eavb.Entry, EntryMax)
	c.entried, c.unentry = 0, 0
	c.queue = q
	tbl.mu.Unlock()

	logEntry.Info("open")
	tbl.emitter.Emit(evtOpen, id, dev)
	return id, nil
}

func (tbl *Table) claim() (ID, error) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	for i := range tbl.entries {
		if c := &tbl.entries[i]; !c.used {
			c.used = true
			return ID(i), nil
		}
	}
	return -1, ErrNoContext
}

func (tbl *Table) release(id ID) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	tbl.entries[id] = adapterCtx{}
}

// Close releases the queue and frees the context.
func (tbl *Table) Close(id ID) error {
	q, e := tbl.queueOf(id)
	if e != nil {
		return e
	}

	e = q.Close()
	if e != nil {
		logger.Error("queue close error", id.ZapField("id"), zap.Error(e))
	} else {
		logger.Info("close", id.ZapField("id"))
	}
	tbl.release(id)
	tbl.emitter.Emit(evtClose, id)
	return e
}

// Dev returns the device opened on a context.
func (tbl *Table) Dev(id ID) (eavb.DevName, error) {
	c, e := tbl.get(id)
	if e != nil {
		return 0, e
	}
	return c.dev, nil
}

// SetOption reapplies the wait-for-all block mode.
func (tbl *Table) SetOption(id ID) error {
	c, e := tbl.get(id)
	if e != nil {
		return e
	}
	return c.queue.SetOption(eavb.Option{BlockMode: eavb.BlockWaitAll})
}

// SetCBSParam configures the credit-based shaper.
// Failures are logged but not returned; streaming may proceed without shaping.
func (tbl *Table) SetCBSParam(id ID, cbs eavb.CBSParam) error {
	c, e := tbl.get(id)
	if e != nil {
		return e
	}

	logEntry := logger.With(id.ZapField("id"), zap.Any("cbs", cbs))
	if e := c.queue.SetTxParam(eavb.TxParam{CBS: cbs}); e != nil {
		logEntry.Error("SetTxParam error", zap.Error(e))
	} else {
		logEntry.Debug("SetTxParam")
	}
	return nil
}

// SetStreamID configures the receive stream filter.
// Failures are logged but not returned.
func (tbl *Table) SetStreamID(id ID, sid avtp.StreamID) error {
	c, e := tbl.get(id)
	if e != nil {
		return e
	}

	logEntry := logger.With(id.ZapField("id"), sid.ZapField("stream"))
	if e := c.queue.SetRxParam(eavb.RxParam{StreamID: sid}); e != nil {
		logEntry.Error("SetRxParam error", zap.Error(e))
	} else {
		logEntry.Debug("SetRxParam")
	}
	return nil
}

// Start is advisory; the queue starts streaming when entries are written.
func (tbl *Table) Start(id ID) error {
	_, e := tbl.get(id)
	return e
}

// Stop is advisory; the queue stops streaming when it is closed.
func (tbl *Table) Stop(id ID) error {
	_, e := tbl.get(id)
	return e
}
