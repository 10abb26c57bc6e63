// Package pktring implements the packet ring controller.
//
// A Ring is a circular buffer of fixed-size packet slots in one memory region.
// Media is packetized into slots at the write cursor and flushed to a transport from the read cursor,
// or received from a transport at the write cursor and depacketized from the read cursor.
// A Ring is not thread-safe: one goroutine performs all producer-side calls, one goroutine performs all consumer-side calls.
package pktring

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/core/logging"
)

var logger = logging.New("pktring")

// MaxBatch is the maximum number of packets handled by one produce, flush, or drain call.
const MaxBatch = 128

// Error conditions.
// Each wraps an errno value to indicate its class.
var (
	ErrAlloc      = fmt.Errorf("packet slot pool allocation failed: %w", unix.ENOMEM)
	ErrGeometry   = fmt.Errorf("invalid ring geometry: %w", unix.EINVAL)
	ErrCodec      = fmt.Errorf("packetizer error: %w", unix.EIO)
	ErrTimestamps = fmt.Errorf("not enough timestamps: %w", unix.EINVAL)
	ErrOverrun    = fmt.Errorf("ring overrun: %w", unix.ENOSPC)
	ErrTryAgain   = fmt.Errorf("unit incomplete, try again: %w", unix.EAGAIN)
)
