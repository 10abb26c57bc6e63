// Package eavb defines the contract of the hardware streaming queue driver that moves AVTP frames on the wire.
//
// A Driver opens one Queue per streaming device.
// Buffers are handed to a Queue as Entry batches through Write, and reclaimed after completion through Read.
// On a TX queue, completion means the frame was transmitted; on an RX queue, it means a frame was received into the buffer.
package eavb

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/core/logging"
)

var logger = logging.New("eavb")

// Transient outcomes of blocking calls.
var (
	// ErrInterrupted indicates a blocking call was cancelled.
	ErrInterrupted error = unix.EINTR
	// ErrWouldBlock indicates a non-blocking call found nothing to do.
	ErrWouldBlock error = unix.EAGAIN
)

// ErrClosed indicates the queue has been closed.
var ErrClosed = errors.New("queue closed")

// IsTransient determines whether e is an expected outcome of polling or cancellation.
func IsTransient(e error) bool {
	return errors.Is(e, ErrInterrupted) || errors.Is(e, ErrWouldBlock)
}

// Vec describes one buffer segment.
type Vec struct {
	// Base is the device-visible address of the buffer.
	Base uint64
	// Len is the buffer length: frame length on TX, buffer capacity when armed on RX, frame length on RX completion.
	Len int
	// Buf is the same buffer mapped into process memory.
	Buf []byte
}

// Entry is one queue descriptor.
type Entry struct {
	SeqNo uint32
	Vec   [1]Vec
}

// Data returns the valid portion of the entry buffer.
func (ent Entry) Data() []byte {
	v := ent.Vec[0]
	if v.Len > len(v.Buf) {
		return v.Buf
	}
	return v.Buf[:v.Len]
}

// CBSParam contains credit-based shaper parameters.
type CBSParam struct {
	BandwidthFraction uint32 `json:"bandwidthFraction" yaml:"bandwidthFraction"`
	IdleSlope         uint32 `json:"idleSlope" yaml:"idleSlope"`
	SendSlope         uint32 `json:"sendSlope" yaml:"sendSlope"`
	HiCredit          uint32 `json:"hiCredit" yaml:"hiCredit"`
	LoCredit          uint32 `json:"loCredit" yaml:"loCredit"`
}

// TxParam contains TX queue parameters.
type TxParam struct {
	CBS CBSParam
}

// RxParam contains RX queue parameters.
type RxParam struct {
	// StreamID filters received frames.
	// Zero StreamID accepts every AVTP stream.
	StreamID avtp.StreamID
}

// BlockMode selects how Read waits for completions.
type BlockMode int

// BlockMode values.
const (
	// BlockNoWait returns ErrWouldBlock when nothing has completed.
	BlockNoWait BlockMode = iota
	// BlockWaitAll waits until every requested entry has completed.
	BlockWaitAll
	// BlockWaitAny waits until at least one entry has completed.
	BlockWaitAny
)

func (m BlockMode) String() string {
	switch m {
	case BlockNoWait:
		return "nowait"
	case BlockWaitAll:
		return "waitall"
	case BlockWaitAny:
		return "waitany"
	}
	return "invalid"
}

// Option contains queue options.
type Option struct {
	BlockMode BlockMode
}

// EntryNum reports queue occupancy.
type EntryNum struct {
	// Accepted is the number of entries written but not yet processed.
	Accepted int
	// Processed is the number of entries being processed by hardware.
	Processed int
	// Completed is the number of completed entries waiting to be read.
	Completed int
}

// Queue represents one hardware streaming queue.
type Queue interface {
	// Dev returns the device this queue is opened on.
	Dev() DevName

	SetOption(opt Option) error
	SetTxParam(p TxParam) error
	SetRxParam(p RxParam) error

	// Write hands entries to the queue.
	// Returns the number of accepted entries, which may be less than len(entries) when the queue is full.
	Write(entries []Entry) (int, error)

	// Read dequeues completed entries into entries.
	// Depending on BlockMode, it may block until enough entries complete.
	// A blocked Read returns ErrInterrupted when BlockingCancel is invoked or ctx is cancelled.
	Read(ctx context.Context, entries []Entry) (int, error)

	// EntryNum reports queue occupancy.
	EntryNum() (EntryNum, error)

	// BlockingCancel wakes up a blocked Read.
	// It is safe to invoke concurrently with Read.
	BlockingCancel() error

	// Close releases the queue.
	Close() error
}

// Driver opens queues on streaming devices.
type Driver interface {
	Open(dev DevName) (Queue, error)
}
