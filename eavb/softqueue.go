package eavb

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/avtp"
)

// DefaultSoftQueueCapacity is the default number of outstanding entries in a SoftQueue.
const DefaultSoftQueueCapacity = 1024

// SoftQueueConfig contains SoftQueue settings.
type SoftQueueConfig struct {
	Dev DevName

	// Capacity is the maximum number of outstanding entries, both armed and completed.
	Capacity int

	// Transmit sends one frame. It is required on a TX queue.
	// It is invoked with the queue lock held and must not call back into the same queue.
	Transmit func(frame []byte) error

	// OnClose is invoked after the queue is closed.
	OnClose func(q *SoftQueue)
}

func (cfg *SoftQueueConfig) applyDefaults() {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultSoftQueueCapacity
	}
}

// SoftQueueCounters contains SoftQueue counters.
type SoftQueueCounters struct {
	Frames   uint64 // frames transmitted or received into a buffer
	Dropped  uint64 // RX frames dropped for lack of an armed buffer
	Filtered uint64 // RX frames rejected by stream ID filter
	TxErrors uint64 // Transmit callback failures
}

// SoftQueue is a Queue implemented in software.
// TX entries complete as soon as Transmit returns.
// RX entries are armed by Write and complete when Deliver copies a matching frame into them, in FIFO order.
type SoftQueue struct {
	cfg    SoftQueueConfig
	logger *zap.Logger

	mu        sync.Mutex
	opt       Option
	txParam   TxParam
	rxParam   RxParam
	pending   []Entry
	completed []Entry
	closed    bool

	notify chan struct{}
	cancel chan struct{}
	done   chan struct{}

	nFrames, nDropped, nFiltered, nTxErrors atomic.Uint64
}

var _ Queue = (*SoftQueue)(nil)

// NewSoftQueue creates a SoftQueue.
func NewSoftQueue(cfg SoftQueueConfig) *SoftQueue {
	cfg.applyDefaults()
	if cfg.Dev.IsTx() && cfg.Transmit == nil {
		panic("SoftQueue on TX device requires Transmit")
	}
	return &SoftQueue{
		cfg:    cfg,
		logger: logger.With(zap.Stringer("dev", cfg.Dev)),
		opt:    Option{BlockMode: BlockWaitAll},
		notify: make(chan struct{}, 1),
		cancel: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Dev implements Queue.
func (q *SoftQueue) Dev() DevName {
	return q.cfg.Dev
}

// SetOption implements Queue.
func (q *SoftQueue) SetOption(opt Option) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.opt = opt
	return nil
}

// SetTxParam implements Queue.
func (q *SoftQueue) SetTxParam(p TxParam) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.txParam = p
	return nil
}

// TxParam returns current TX parameters.
func (q *SoftQueue) TxParam() TxParam {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.txParam
}

// SetRxParam implements Queue.
func (q *SoftQueue) SetRxParam(p RxParam) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rxParam = p
	return nil
}

// RxParam returns current RX parameters.
func (q *SoftQueue) RxParam() RxParam {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.rxParam
}

// Write implements Queue.
func (q *SoftQueue) Write(entries []Entry) (n int, e error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0, ErrClosed
	}

	n = min(len(entries), q.cfg.Capacity-len(q.pending)-len(q.completed))
	if !q.cfg.Dev.IsTx() {
		q.pending = append(q.pending, entries[:n]...)
		return n, nil
	}

	for _, ent := range entries[:n] {
		if e := q.cfg.Transmit(ent.Data()); e != nil {
			q.nTxErrors.Add(1)
			q.logger.Warn("transmit error", zap.Uint32("seq", ent.SeqNo), zap.Error(e))
		} else {
			q.nFrames.Add(1)
		}
		q.completed = append(q.completed, ent)
	}
	if n > 0 {
		q.wake()
	}
	return n, nil
}

// Deliver copies a received frame into the oldest armed buffer.
// Returns false if the frame was filtered or dropped.
func (q *SoftQueue) Deliver(frame []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.cfg.Dev.IsTx() {
		return false
	}

	if filter := q.rxParam.StreamID; !filter.IsZero() {
		if sid, ok := avtp.StreamIDOf(frame); !ok || sid != filter {
			q.nFiltered.Add(1)
			return false
		}
	}

	if len(q.pending) == 0 {
		q.nDropped.Add(1)
		return false
	}

	ent := q.pending[0]
	q.pending = q.pending[1:]
	ent.Vec[0].Len = copy(ent.Vec[0].Buf, frame)
	q.completed = append(q.completed, ent)
	q.nFrames.Add(1)
	q.wake()
	return true
}

func (q *SoftQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Read implements Queue.
func (q *SoftQueue) Read(ctx context.Context, entries []Entry) (n int, e error) {
	if len(entries) == 0 {
		return 0, nil
	}

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return 0, ErrClosed
		}
		avail, mode := len(q.completed), q.opt.BlockMode
		if avail >= len(entries) || (mode != BlockWaitAll && avail > 0) {
			n = copy(entries, q.completed)
			q.completed = q.completed[n:]
			q.mu.Unlock()
			return n, nil
		}
		q.mu.Unlock()

		if mode == BlockNoWait {
			return 0, ErrWouldBlock
		}

		select {
		case <-q.notify:
		case <-q.cancel:
			return 0, ErrInterrupted
		case <-ctx.Done():
			return 0, ErrInterrupted
		case <-q.done:
			return 0, ErrClosed
		}
	}
}

// EntryNum implements Queue.
func (q *SoftQueue) EntryNum() (en EntryNum, e error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return en, ErrClosed
	}
	en.Accepted = len(q.pending)
	en.Completed = len(q.completed)
	return en, nil
}

// BlockingCancel implements Queue.
// If no Read is blocked, the next blocking Read is interrupted instead.
func (q *SoftQueue) BlockingCancel() error {
	select {
	case q.cancel <- struct{}{}:
	default:
	}
	return nil
}

// Counters returns queue counters.
func (q *SoftQueue) Counters() SoftQueueCounters {
	return SoftQueueCounters{
		Frames:   q.nFrames.Load(),
		Dropped:  q.nDropped.Load(),
		Filtered: q.nFiltered.Load(),
		TxErrors: q.nTxErrors.Load(),
	}
}

// Close implements Queue.
func (q *SoftQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.closed = true
	q.pending, q.completed = nil, nil
	close(q.done)
	q.mu.Unlock()

	if q.cfg.OnClose != nil {
		q.cfg.OnClose(q)
	}
	return nil
}
