package pktring

import (
	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/avtp"
)

// Ring is a packet ring.
type Ring struct {
	pool     *pool
	win      Window
	slotSize int
	scratch  []Slot
}

// New allocates a Ring of slotCount slots, each slotSize octets.
// Both cursors start at zero and every slot length is preset to slotSize.
func New(slotCount, slotSize int) (*Ring, error) {
	if slotCount < 2 || slotSize < avtp.FrameSizeMin {
		return nil, ErrGeometry
	}

	p, e := newPool(slotCount, slotSize)
	if e != nil {
		logger.Error("pool allocation error", zap.Int("count", slotCount), zap.Int("size", slotSize), zap.Error(e))
		return nil, e
	}

	logger.Debug("ring allocated", zap.Int("count", slotCount), zap.Int("size", slotSize), zap.Bool("mlock", p.locked))
	return &Ring{
		pool:     p,
		win:      NewWindow(slotCount),
		slotSize: slotSize,
		scratch:  make([]Slot, 0, MaxBatch),
	}, nil
}

// Close releases the memory region.
// It is safe to call Close more than once.
func (ring *Ring) Close() error {
	return ring.pool.close()
}

// Capacity returns the number of slots.
// At most Capacity()-1 slots can be occupied.
func (ring *Ring) Capacity() int {
	return ring.win.Size()
}

// SlotSize returns the buffer size of each slot.
func (ring *Ring) SlotSize() int {
	return ring.slotSize
}

// Occupied returns the number of occupied slots.
func (ring *Ring) Occupied() int {
	return ring.win.Occupied()
}

// Free returns the number of writable slots.
func (ring *Ring) Free() int {
	return ring.win.Free()
}

// Window returns a copy of the cursors.
func (ring *Ring) Window() Window {
	return ring.win
}

// Slots returns the slot table.
// Transport adapters may update Len of slots they receive into.
func (ring *Ring) Slots() []Slot {
	return ring.pool.slots
}
