package avtp

import (
	"encoding/binary"
	"errors"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/core/macaddr"
)

// Error conditions.
var (
	ErrNotAVTP    = errors.New("not an AVTP frame")
	ErrTruncated  = errors.New("AVTP frame truncated")
	ErrBufferSize = errors.New("buffer too small for AVTP headers")
)

// Locator identifies the Ethernet endpoints of a stream.
type Locator struct {
	// Source is the local MAC address.
	// This must be a 48-bit unicast address.
	Source macaddr.Flag `json:"source" yaml:"source"`

	// Destination is the remote MAC address, typically a multicast address allocated by MAAP.
	Destination macaddr.Flag `json:"destination" yaml:"destination"`

	// VLAN is the VLAN identifier.
	// Zero indicates the absence of a VLAN header.
	VLAN int `json:"vlan,omitempty" yaml:"vlan,omitempty"`

	// Priority is the 802.1Q priority code point, used only if VLAN is set.
	Priority uint8 `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Validate checks Locator fields.
func (loc Locator) Validate() error {
	if !macaddr.IsUnicast(loc.Source.HardwareAddr) {
		return macaddr.ErrUnicast
	}
	if !macaddr.IsUnicast(loc.Destination.HardwareAddr) && !macaddr.IsMulticast(loc.Destination.HardwareAddr) {
		return macaddr.ErrAddr
	}
	if loc.VLAN != 0 && (loc.VLAN < MinVLAN || loc.VLAN > MaxVLAN) {
		return errors.New("invalid VLAN")
	}
	if loc.Priority > 7 {
		return errors.New("invalid priority")
	}
	return nil
}

// EthernetHeader serializes the Ethernet and optional 802.1Q headers that precede the AVTP PDU.
func (loc Locator) EthernetHeader() ([]byte, error) {
	if e := loc.Validate(); e != nil {
		return nil, e
	}

	eth := layers.Ethernet{
		SrcMAC:       loc.Source.HardwareAddr,
		DstMAC:       loc.Destination.HardwareAddr,
		EthernetType: EtherType,
	}
	headers := []gopacket.SerializableLayer{&eth}
	if loc.VLAN > 0 {
		eth.EthernetType = layers.EthernetTypeDot1Q
		headers = append(headers, &layers.Dot1Q{
			Priority:       loc.Priority,
			VLANIdentifier: uint16(loc.VLAN),
			Type:           EtherType,
		})
	}

	// layers.Ethernet pads short frames to 60 octets; a placeholder payload keeps the headers exact.
	placeholder := make(gopacket.Payload, FrameSizeMin)
	buf := gopacket.NewSerializeBuffer()
	if e := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, append(headers, placeholder)...); e != nil {
		return nil, e
	}
	b := buf.Bytes()
	return append([]byte(nil), b[:len(b)-len(placeholder)]...), nil
}

// FrameInfo contains link layer fields of a received frame.
type FrameInfo struct {
	Source      net.HardwareAddr
	Destination net.HardwareAddr
	VLAN        int
	Priority    uint8
}

// ParseFrame decodes the Ethernet and optional 802.1Q headers and returns the AVTP PDU.
func ParseFrame(frame []byte) (info FrameInfo, pdu []byte, e error) {
	var eth layers.Ethernet
	if e = eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); e != nil {
		return info, nil, e
	}
	info.Source, info.Destination = eth.SrcMAC, eth.DstMAC
	typ, payload := eth.EthernetType, eth.Payload

	if typ == layers.EthernetTypeDot1Q {
		var dot1q layers.Dot1Q
		if e = dot1q.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); e != nil {
			return info, nil, e
		}
		info.VLAN, info.Priority = int(dot1q.VLANIdentifier), dot1q.Priority
		typ, payload = dot1q.Type, dot1q.Payload
	}

	if typ != EtherType {
		return info, nil, ErrNotAVTP
	}
	if len(payload) < 1 {
		return info, nil, ErrTruncated
	}
	return info, payload, nil
}

// StreamIDOf extracts the stream ID of a frame.
// ok is false if the frame is not an AVTP stream PDU.
func StreamIDOf(frame []byte) (sid StreamID, ok bool) {
	_, pdu, e := ParseFrame(frame)
	if e != nil || len(pdu) < offTimestamp || pdu[offFlags]&flagSV == 0 {
		if e != nil && !errors.Is(e, ErrNotAVTP) {
			logger.Debug("frame parse error", zap.Error(e))
		}
		return sid, false
	}
	copy(sid[:], pdu[offStreamID:offTimestamp])
	return sid, true
}

// StreamHeader is the common stream PDU header.
type StreamHeader struct {
	Subtype      uint8
	SeqNum       uint8
	StreamID     StreamID
	Timestamp    uint32
	TimestampOK  bool
	MediaRestart bool
	// FormatInfo carries the 32-bit format specific field following the timestamp.
	FormatInfo uint32
	DataLength uint16
	// FormatInfo2 carries the 16-bit format specific field following stream_data_length.
	FormatInfo2 uint16
}

// Encode writes the header into pdu[:StreamHeaderLen].
func (h StreamHeader) Encode(pdu []byte) error {
	if len(pdu) < StreamHeaderLen {
		return ErrBufferSize
	}
	pdu[offSubtype] = h.Subtype
	flags := byte(flagSV)
	if h.MediaRestart {
		flags |= flagMR
	}
	if h.TimestampOK {
		flags |= flagTV
	}
	pdu[offFlags] = flags
	pdu[offSeqNum] = h.SeqNum
	pdu[offTU] = 0
	copy(pdu[offStreamID:], h.StreamID[:])
	binary.BigEndian.PutUint32(pdu[offTimestamp:], h.Timestamp)
	binary.BigEndian.PutUint32(pdu[offFormat:], h.FormatInfo)
	binary.BigEndian.PutUint16(pdu[offDataLength:], h.DataLength)
	binary.BigEndian.PutUint16(pdu[offFormat2:], h.FormatInfo2)
	return nil
}

// Decode reads the header from pdu.
func (h *StreamHeader) Decode(pdu []byte) error {
	if len(pdu) < StreamHeaderLen {
		return ErrTruncated
	}
	flags := pdu[offFlags]
	if flags&flagSV == 0 {
		return ErrNotAVTP
	}
	h.Subtype = pdu[offSubtype]
	h.MediaRestart = flags&flagMR != 0
	h.TimestampOK = flags&flagTV != 0
	h.SeqNum = pdu[offSeqNum]
	copy(h.StreamID[:], pdu[offStreamID:offTimestamp])
	h.Timestamp = binary.BigEndian.Uint32(pdu[offTimestamp:])
	h.FormatInfo = binary.BigEndian.Uint32(pdu[offFormat:])
	h.DataLength = binary.BigEndian.Uint16(pdu[offDataLength:])
	h.FormatInfo2 = binary.BigEndian.Uint16(pdu[offFormat2:])
	return nil
}
