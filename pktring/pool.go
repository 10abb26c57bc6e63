package pktring

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Slot describes one packet buffer.
type Slot struct {
	// Len is the packet length.
	Len int
	// IOVA is the device-visible address of Buf.
	IOVA uint64
	// Buf is the slot buffer with fixed capacity.
	Buf []byte
}

// Data returns the packet in the slot.
func (s Slot) Data() []byte {
	return s.Buf[:min(s.Len, len(s.Buf))]
}

// pool is a contiguous memory region carved into equal slots.
type pool struct {
	mem    []byte
	locked bool
	slots  []Slot
}

func newPool(count, size int) (*pool, error) {
	mem, e := unix.Mmap(-1, 0, count*size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if e != nil {
		return nil, fmt.Errorf("%w: %w", ErrAlloc, e)
	}

	p := &pool{
		mem:   mem,
		slots: make([]Slot, count),
	}
	if e := unix.Mlock(mem); e != nil {
		logger.Debug("mlock failed, pool is pageable", zap.Int("bytes", len(mem)), zap.Error(e))
	} else {
		p.locked = true
	}

	base := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(mem))))
	for i := range p.slots {
		off := i * size
		p.slots[i] = Slot{
			Len:  size,
			IOVA: base + uint64(off),
			Buf:  mem[off : off+size : off+size],
		}
	}
	return p, nil
}

func (p *pool) close() error {
	if p.mem == nil {
		return nil
	}
	if p.locked {
		unix.Munlock(p.mem)
	}
	e := unix.Munmap(p.mem)
	p.mem, p.slots = nil, nil
	return e
}
