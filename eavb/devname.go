package eavb

import (
	"fmt"
	"strings"
)

// DevName identifies a streaming device.
type DevName int

// DevName values.
const (
	DevRx0 DevName = iota
	DevRx1
	DevRx2
	DevRx3
	DevRx4
	DevRx5
	DevRx6
	DevRx7
	DevRx8
	DevRx9
	DevRx10
	DevRx11
	DevRx12
	DevRx13
	DevRx14
	DevRx15
	DevTx0
	DevTx1
)

// devNames is ordered so that longer names are tried first in prefix matching.
var devNames = []struct {
	key   string
	value DevName
}{
	{"ravb_rx15", DevRx15},
	{"ravb_rx14", DevRx14},
	{"ravb_rx13", DevRx13},
	{"ravb_rx12", DevRx12},
	{"ravb_rx11", DevRx11},
	{"ravb_rx10", DevRx10},
	{"ravb_rx9", DevRx9},
	{"ravb_rx8", DevRx8},
	{"ravb_rx7", DevRx7},
	{"ravb_rx6", DevRx6},
	{"ravb_rx5", DevRx5},
	{"ravb_rx4", DevRx4},
	{"ravb_rx3", DevRx3},
	{"ravb_rx2", DevRx2},
	{"ravb_rx1", DevRx1},
	{"ravb_rx0", DevRx0},
	{"ravb_tx1", DevTx1},
	{"ravb_tx0", DevTx0},
}

// ParseDevName resolves a device name.
// A name matches a table key if it starts with that key.
func ParseDevName(name string) (dev DevName, ok bool) {
	for _, entry := range devNames {
		if strings.HasPrefix(name, entry.key) {
			return entry.value, true
		}
	}
	return DevTx0, false
}

// IsTx determines whether dev is a TX device.
func (dev DevName) IsTx() bool {
	return dev == DevTx0 || dev == DevTx1
}

// Valid determines whether dev is a known device.
func (dev DevName) Valid() bool {
	return dev >= DevRx0 && dev <= DevTx1
}

func (dev DevName) String() string {
	switch {
	case dev.IsTx():
		return fmt.Sprintf("ravb_tx%d", dev-DevTx0)
	case dev.Valid():
		return fmt.Sprintf("ravb_rx%d", dev-DevRx0)
	}
	return fmt.Sprintf("DevName(%d)", int(dev))
}
