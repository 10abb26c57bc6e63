// Package avtp contains IEEE 1722 AVTP definitions shared by packetizers and transport drivers.
package avtp

import (
	"github.com/google/gopacket/layers"

	"github.com/usnistgov/avtpstream/core/logging"
)

var logger = logging.New("avtp")

// EtherType is the AVTP EtherType.
const EtherType layers.EthernetType = 0x22F0

// FrameSizeMin is the minimum Ethernet frame size excluding FCS.
// Every outgoing packet slot reports at least this length.
const FrameSizeMin = 60

// Subtype values.
const (
	SubtypeAAF uint8 = 0x02
	SubtypeCVF uint8 = 0x03
	SubtypeCRF uint8 = 0x04
	SubtypeVSF uint8 = 0x6F
)

// Stream header layout, relative to the start of the AVTP PDU.
const (
	StreamHeaderLen = 24

	offSubtype    = 0
	offFlags      = 1
	offSeqNum     = 2
	offTU         = 3
	offStreamID   = 4
	offTimestamp  = 12
	offFormat     = 16
	offDataLength = 20
	offFormat2    = 22

	flagSV = 0x80
	flagMR = 0x08
	flagTV = 0x01
)

// VLAN limits.
const (
	MinVLAN = 0x001
	MaxVLAN = 0xFFE
)
