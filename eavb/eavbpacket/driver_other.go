//go:build !linux

package eavbpacket

import (
	"errors"
	"net"

	"github.com/usnistgov/avtpstream/eavb"
)

// ErrUnsupported indicates AF_PACKET is unavailable on this platform.
var ErrUnsupported = errors.New("AF_PACKET driver requires Linux")

// Driver is unavailable on this platform.
type Driver struct{}

var _ eavb.Driver = (*Driver)(nil)

// New returns ErrUnsupported.
func New(cfg Config) (*Driver, error) {
	return nil, ErrUnsupported
}

// HardwareAddr returns nil.
func (drv *Driver) HardwareAddr() net.HardwareAddr {
	return nil
}

// Open returns ErrUnsupported.
func (drv *Driver) Open(dev eavb.DevName) (eavb.Queue, error) {
	return nil, ErrUnsupported
}

// Close does nothing.
func (drv *Driver) Close() error {
	return nil
}
