// Package packetizer defines the codec capability that converts media buffers to AVTP packets and back.
package packetizer

import (
	"errors"
	"strings"
)

// Status is the outcome of one packetize or depacketize step.
type Status int

// Status values.
const (
	// StatusContinue indicates the unit of work is not finished; call again.
	StatusContinue Status = iota
	// StatusNotEnough indicates the input is too short to form one packet.
	StatusNotEnough
	// StatusComplete indicates the unit of work, such as a media frame, is finished.
	StatusComplete
	// StatusSkip indicates the packet does not belong to this stream and has been discarded.
	StatusSkip
)

func (st Status) String() string {
	switch st {
	case StatusContinue:
		return "continue"
	case StatusNotEnough:
		return "not-enough"
	case StatusComplete:
		return "complete"
	case StatusSkip:
		return "skip"
	}
	return "invalid"
}

// Packetizer is a stateful media codec.
type Packetizer interface {
	// Packetize writes one packet into pkt from media[*consumed:].
	// pkt is zero-filled by the caller. consumed is advanced by the number of media octets taken.
	// Returns the packet size, which may be smaller than the minimum frame size.
	Packetize(pkt []byte, media []byte, consumed *int, timestamp uint32) (size int, st Status, e error)

	// Depacketize appends the payload of pkt into media[*produced:], advancing produced.
	// Returns the presentation timestamp carried by the packet.
	Depacketize(media []byte, produced *int, pkt []byte) (timestamp uint32, st Status, e error)
}

// CRFPacketizer is a clock reference format codec.
type CRFPacketizer interface {
	// PacketizeCRF writes one CRF packet carrying timestamps.
	PacketizeCRF(pkt []byte, timestamps []uint64) (size int, e error)

	// DepacketizeCRF extracts timestamps from one CRF packet.
	DepacketizeCRF(timestamps []uint64, pkt []byte) (count int, e error)
}

// Kind identifies a packetizer variant.
type Kind int

// Kind values.
const (
	KindRaw Kind = iota
	KindAudioPCM
	KindVideoH264
	KindCRF
)

var kindNames = map[Kind]string{
	KindRaw:       "raw",
	KindAudioPCM:  "audio-pcm",
	KindVideoH264: "video-h264",
	KindCRF:       "crf",
}

// IsVideo determines whether the kind supplies one timestamp per media unit.
func (k Kind) IsVideo() bool {
	return k == KindVideoH264
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "invalid"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() (text []byte, e error) {
	if _, ok := kindNames[k]; !ok {
		return nil, errors.New("invalid packetizer kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return errors.New("unknown packetizer kind")
}
