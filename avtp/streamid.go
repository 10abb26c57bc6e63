package avtp

import (
	"encoding"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/core/macaddr"
)

// ErrStreamID indicates a malformed stream ID string.
var ErrStreamID = errors.New("invalid stream ID")

// StreamID identifies a logical stream.
// It is the 6-octet source MAC address followed by a 16-bit unique ID, high octet first.
type StreamID [8]byte

var (
	_ encoding.TextMarshaler   = StreamID{}
	_ encoding.TextUnmarshaler = (*StreamID)(nil)
)

// MakeStreamID constructs StreamID from source MAC address and unique ID.
func MakeStreamID(mac net.HardwareAddr, uid uint16) (sid StreamID, e error) {
	if !macaddr.IsValid(mac) {
		return sid, macaddr.ErrAddr
	}
	copy(sid[:6], mac)
	sid[6] = byte(uid >> 8)
	sid[7] = byte(uid)
	return sid, nil
}

// MAC returns the source MAC address portion.
func (sid StreamID) MAC() net.HardwareAddr {
	return net.HardwareAddr(append([]byte(nil), sid[:6]...))
}

// UniqueID returns the unique ID portion.
func (sid StreamID) UniqueID() uint16 {
	return binary.BigEndian.Uint16(sid[6:])
}

// IsZero determines whether StreamID is unset.
func (sid StreamID) IsZero() bool {
	return sid == StreamID{}
}

// String returns colon-separated hexadecimal octets.
func (sid StreamID) String() string {
	parts := make([]string, len(sid))
	for i, b := range sid {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, ":")
}

// MarshalText implements encoding.TextMarshaler.
func (sid StreamID) MarshalText() (text []byte, e error) {
	return []byte(sid.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Accepted forms are eight colon-separated octets, or "MAC/uid" where uid is a decimal or 0x-prefixed number.
func (sid *StreamID) UnmarshalText(text []byte) error {
	s := string(text)
	if mac, uid, ok := strings.Cut(s, "/"); ok {
		hw, e := net.ParseMAC(mac)
		if e != nil {
			return fmt.Errorf("%w: %v", ErrStreamID, e)
		}
		var n uint16
		if _, e := fmt.Sscan(uid, &n); e != nil {
			return fmt.Errorf("%w: uid %v", ErrStreamID, e)
		}
		v, e := MakeStreamID(hw, n)
		if e != nil {
			return fmt.Errorf("%w: %v", ErrStreamID, e)
		}
		*sid = v
		return nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != len(sid) {
		return ErrStreamID
	}
	var v StreamID
	for i, part := range parts {
		b, e := hex.DecodeString(part)
		if e != nil || len(b) != 1 {
			return ErrStreamID
		}
		v[i] = b[0]
	}
	*sid = v
	return nil
}

// ZapField returns a zap.Field for logging.
func (sid StreamID) ZapField(key string) zap.Field {
	return zap.Stringer(key, sid)
}
