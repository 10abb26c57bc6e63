package stream

import (
	"github.com/pkg/math"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/pktring"
)

// Config defaults and limits.
const (
	DefaultRingCapacity = 64
	DefaultSlotSize     = 1522
	DefaultBatch        = pktring.MaxBatch
)

// Config contains Session settings.
type Config struct {
	// Device is the streaming device name, such as "ravb_tx0" or "ravb_rx0".
	Device string `json:"device" yaml:"device"`

	// RingCapacity is the number of packet slots.
	RingCapacity int `json:"ringCapacity,omitempty" yaml:"ringCapacity,omitempty"`

	// SlotSize is the buffer size of each packet slot.
	SlotSize int `json:"slotSize,omitempty" yaml:"slotSize,omitempty"`

	// Batch is the maximum number of packets per flush or drain.
	Batch int `json:"batch,omitempty" yaml:"batch,omitempty"`

	// RxPrime is the number of slots armed for reception ahead of the write cursor.
	// Default and maximum is half of RingCapacity, so that armed slots never overlap
	// unconsumed slots while Receive drains only an empty ring.
	RxPrime int `json:"rxPrime,omitempty" yaml:"rxPrime,omitempty"`

	// CBS configures the credit-based shaper of a TX device.
	CBS eavb.CBSParam `json:"cbs,omitempty" yaml:"cbs,omitempty"`

	// StreamID filters received frames on an RX device.
	StreamID avtp.StreamID `json:"streamID,omitempty" yaml:"streamID,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = DefaultRingCapacity
	}
	cfg.RingCapacity = math.MaxInt(cfg.RingCapacity, 2)
	if cfg.SlotSize <= 0 {
		cfg.SlotSize = DefaultSlotSize
	}
	cfg.SlotSize = math.MaxInt(cfg.SlotSize, avtp.FrameSizeMin)
	if cfg.Batch <= 0 {
		cfg.Batch = DefaultBatch
	}
	cfg.Batch = math.MinInt(cfg.Batch, pktring.MaxBatch)
	if half := cfg.RingCapacity / 2; cfg.RxPrime <= 0 || cfg.RxPrime > half {
		cfg.RxPrime = half
	}
}
