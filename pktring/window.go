package pktring

import (
	"fmt"
)

// Window tracks write and read cursors of a circular buffer with one slot sacrificed.
// Write cursor equal to read cursor means empty, so at most Size()-1 slots are occupied.
type Window struct {
	size, w, r int
}

// NewWindow creates an empty Window.
func NewWindow(size int) Window {
	if size < 2 {
		panic(fmt.Sprintf("Window size %d too small", size))
	}
	return Window{size: size}
}

// Size returns the number of slots.
func (win Window) Size() int {
	return win.size
}

// W returns the write cursor.
func (win Window) W() int {
	return win.w
}

// R returns the read cursor.
func (win Window) R() int {
	return win.r
}

// Occupied returns the number of slots between read and write cursors.
func (win Window) Occupied() int {
	return (win.w - win.r + win.size) % win.size
}

// Free returns the number of slots that can be written.
func (win Window) Free() int {
	return win.size - 1 - win.Occupied()
}

// Empty determines whether no slot is occupied.
func (win Window) Empty() bool {
	return win.w == win.r
}

// Full determines whether no slot can be written.
func (win Window) Full() bool {
	return (win.w+1)%win.size == win.r
}

// AdvanceWrite moves the write cursor by n slots.
// It panics if n exceeds Free().
func (win *Window) AdvanceWrite(n int) {
	if n < 0 || n > win.Free() {
		panic(fmt.Sprintf("Window.AdvanceWrite(%d) %s", n, win))
	}
	win.w = (win.w + n) % win.size
}

// AdvanceRead moves the read cursor by n slots.
// It panics if n exceeds Occupied().
func (win *Window) AdvanceRead(n int) {
	if n < 0 || n > win.Occupied() {
		panic(fmt.Sprintf("Window.AdvanceRead(%d) %s", n, win))
	}
	win.r = (win.r + n) % win.size
}

func (win Window) String() string {
	return fmt.Sprintf("w=%d r=%d size=%d", win.w, win.r, win.size)
}
