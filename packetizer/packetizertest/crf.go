package packetizertest

import (
	"encoding/binary"

	"github.com/usnistgov/avtpstream/packetizer"
)

// CRF is a packetizer.CRFPacketizer that stores timestamps as big endian integers.
type CRF struct {
	// Err, if set, is returned by every call.
	Err error

	Calls int
}

var _ packetizer.CRFPacketizer = (*CRF)(nil)

// PacketizeCRF implements packetizer.CRFPacketizer.
func (c *CRF) PacketizeCRF(pkt []byte, timestamps []uint64) (size int, e error) {
	c.Calls++
	if c.Err != nil {
		return 0, c.Err
	}

	pkt[0] = byte(len(timestamps))
	size = 1
	for _, ts := range timestamps {
		binary.BigEndian.PutUint64(pkt[size:], ts)
		size += 8
	}
	return size, nil
}

// DepacketizeCRF implements packetizer.CRFPacketizer.
func (c *CRF) DepacketizeCRF(timestamps []uint64, pkt []byte) (count int, e error) {
	c.Calls++
	if c.Err != nil {
		return 0, c.Err
	}

	count = min(int(pkt[0]), len(timestamps))
	for i := range timestamps[:count] {
		timestamps[i] = binary.BigEndian.Uint64(pkt[1+8*i:])
	}
	return count, nil
}
