// Package netadapter implements the transport adapter multiplexer.
//
// A Table holds a fixed number of transport contexts, each wrapping one eavb.Queue.
// Contexts are identified by ID, which is the table index and is never reused while claimed.
package netadapter

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/core/logging"
)

var logger = logging.New("netadapter")

// Limits.
const (
	// MaxContexts is the number of transport contexts in a Table.
	MaxContexts = 10

	// EntryMax is the maximum number of packets in one send or receive batch.
	EntryMax = 128

	// PacketMax is the maximum number of slots registered for reception.
	PacketMax = 1024
)

// Error conditions.
var (
	ErrNoContext = fmt.Errorf("no free transport context: %w", unix.EBUSY)
	ErrInvalidID = fmt.Errorf("transport context not claimed: %w", unix.EPERM)
	ErrBatchSize = fmt.Errorf("invalid batch size: %w", unix.EPERM)
)

// ID identifies a transport context.
type ID int

// Valid determines whether id is within table bounds.
func (id ID) Valid() bool {
	return id >= 0 && id < MaxContexts
}

// ZapField returns a zap.Field for logging.
func (id ID) ZapField(key string) zap.Field {
	if !id.Valid() {
		return zap.String(key, "invalid")
	}
	return zap.Int(key, int(id))
}
