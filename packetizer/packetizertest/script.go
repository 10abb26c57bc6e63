// Package packetizertest provides scripted packetizers for tests.
package packetizertest

import (
	"github.com/usnistgov/avtpstream/packetizer"
)

// Step is one scripted outcome.
type Step struct {
	// Size is the packet size returned by Packetize.
	Size int
	// Consume is the number of media octets taken by Packetize.
	Consume int
	// Produce is the number of packet octets copied into media by Depacketize.
	Produce int
	// Timestamp is returned by Depacketize.
	Timestamp uint32

	Status packetizer.Status
	Err    error
}

// Script is a packetizer.Packetizer that replays Steps in order.
// After the last step, it keeps returning the last step if Repeat is set, or StatusNotEnough otherwise.
type Script struct {
	Steps  []Step
	Repeat bool

	// Calls counts Packetize and Depacketize invocations.
	Calls int
	// Timestamps records timestamps passed to Packetize.
	Timestamps []uint32
	// Packets records copies of packets passed to Depacketize.
	Packets [][]byte
	// Dirty records whether a packet buffer passed to Packetize was not zero-filled.
	Dirty bool
}

var _ packetizer.Packetizer = (*Script)(nil)

// Repeat returns a Script that always returns the same step.
func Repeat(step Step) *Script {
	return &Script{Steps: []Step{step}, Repeat: true}
}

func (s *Script) next() Step {
	i := s.Calls
	s.Calls++
	switch {
	case i < len(s.Steps):
		return s.Steps[i]
	case s.Repeat && len(s.Steps) > 0:
		return s.Steps[len(s.Steps)-1]
	}
	return Step{Status: packetizer.StatusNotEnough}
}

// Packetize implements packetizer.Packetizer.
// The packet is filled with the call number.
func (s *Script) Packetize(pkt []byte, media []byte, consumed *int, timestamp uint32) (size int, st packetizer.Status, e error) {
	for _, b := range pkt {
		if b != 0 {
			s.Dirty = true
			break
		}
	}

	step := s.next()
	s.Timestamps = append(s.Timestamps, timestamp)
	if step.Err != nil {
		return 0, step.Status, step.Err
	}

	*consumed += min(step.Consume, len(media)-*consumed)
	size = min(step.Size, len(pkt))
	for i := range pkt[:size] {
		pkt[i] = byte(s.Calls)
	}
	return size, step.Status, nil
}

// Depacketize implements packetizer.Packetizer.
// The first Produce octets of the packet are appended to media.
func (s *Script) Depacketize(media []byte, produced *int, pkt []byte) (timestamp uint32, st packetizer.Status, e error) {
	s.Packets = append(s.Packets, append([]byte{}, pkt...))

	step := s.next()
	if step.Err != nil {
		return 0, step.Status, step.Err
	}

	*produced += copy(media[*produced:], pkt[:min(step.Produce, len(pkt))])
	return step.Timestamp, step.Status, nil
}
