// Package rawavtp implements a packetizer that carries opaque payload in AVTP vendor specific stream PDUs.
//
// Each media buffer passed to Packetize is one unit; the last packet of a unit carries an end-of-unit flag.
package rawavtp

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/core/logging"
	"github.com/usnistgov/avtpstream/packetizer"
)

var logger = logging.New("rawavtp")

const (
	// DefaultPayloadSize is the default maximum payload per packet.
	DefaultPayloadSize = 1024

	// flagEndOfUnit in FormatInfo2 marks the last packet of a unit.
	flagEndOfUnit = 0x0001
)

// ErrMediaSize indicates the media buffer cannot hold the received payload.
var ErrMediaSize = errors.New("media buffer too small")

// Config contains Packetizer settings.
type Config struct {
	avtp.Locator `yaml:",inline"`

	// StreamID identifies the stream.
	// On receive, packets of other streams are skipped.
	StreamID avtp.StreamID `json:"streamID" yaml:"streamID"`

	// PayloadSize is the maximum payload per packet.
	PayloadSize int `json:"payloadSize,omitempty" yaml:"payloadSize,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.PayloadSize <= 0 {
		cfg.PayloadSize = DefaultPayloadSize
	}
}

// Counters contains Packetizer counters.
type Counters struct {
	TxPackets uint64
	RxPackets uint64
	// RxSkipped counts packets of other streams or formats.
	RxSkipped uint64
	// RxGaps counts sequence number discontinuities.
	RxGaps uint64
}

func (cnt Counters) String() string {
	return fmt.Sprintf("tx %dpkts, rx %dpkts %dskip %dgap", cnt.TxPackets, cnt.RxPackets, cnt.RxSkipped, cnt.RxGaps)
}

// Packetizer is a packetizer.Packetizer for opaque payload.
// It is not thread-safe; use one instance per stream direction.
type Packetizer struct {
	cfg    Config
	header []byte
	cnt    Counters

	txSeq   uint8
	rxSeq   uint8
	rxFirst bool
}

var _ packetizer.Packetizer = (*Packetizer)(nil)

// New creates a Packetizer.
func New(cfg Config) (*Packetizer, error) {
	cfg.applyDefaults()
	header, e := cfg.Locator.EthernetHeader()
	if e != nil {
		return nil, e
	}
	if cfg.StreamID.IsZero() {
		return nil, avtp.ErrStreamID
	}

	return &Packetizer{
		cfg:     cfg,
		header:  header,
		rxFirst: true,
	}, nil
}

// HeaderLen returns the total header length preceding the payload.
func (p *Packetizer) HeaderLen() int {
	return len(p.header) + avtp.StreamHeaderLen
}

// Counters returns counters.
func (p *Packetizer) Counters() Counters {
	return p.cnt
}

// Packetize implements packetizer.Packetizer.
func (p *Packetizer) Packetize(pkt []byte, media []byte, consumed *int, timestamp uint32) (size int, st packetizer.Status, e error) {
	remain := len(media) - *consumed
	if remain <= 0 {
		return 0, packetizer.StatusNotEnough, nil
	}
	room := len(pkt) - p.HeaderLen()
	if room <= 0 {
		return 0, packetizer.StatusContinue, avtp.ErrBufferSize
	}

	n := min(remain, room, p.cfg.PayloadSize)
	h := avtp.StreamHeader{
		Subtype:     avtp.SubtypeVSF,
		SeqNum:      p.txSeq,
		StreamID:    p.cfg.StreamID,
		Timestamp:   timestamp,
		TimestampOK: true,
		DataLength:  uint16(n),
	}
	st = packetizer.StatusContinue
	if n == remain {
		h.FormatInfo2 |= flagEndOfUnit
		st = packetizer.StatusComplete
	}

	copy(pkt, p.header)
	pdu := pkt[len(p.header):]
	if e = h.Encode(pdu); e != nil {
		return 0, st, e
	}
	copy(pdu[avtp.StreamHeaderLen:], media[*consumed:*consumed+n])

	*consumed += n
	p.txSeq++
	p.cnt.TxPackets++
	return p.HeaderLen() + n, st, nil
}

// Depacketize implements packetizer.Packetizer.
func (p *Packetizer) Depacketize(media []byte, produced *int, pkt []byte) (timestamp uint32, st packetizer.Status, e error) {
	_, pdu, e := avtp.ParseFrame(pkt)
	if e != nil {
		if errors.Is(e, avtp.ErrNotAVTP) {
			p.cnt.RxSkipped++
			return 0, packetizer.StatusSkip, nil
		}
		return 0, packetizer.StatusContinue, e
	}

	var h avtp.StreamHeader
	if e = h.Decode(pdu); e != nil {
		if errors.Is(e, avtp.ErrNotAVTP) {
			p.cnt.RxSkipped++
			return 0, packetizer.StatusSkip, nil
		}
		return 0, packetizer.StatusContinue, e
	}
	if h.Subtype != avtp.SubtypeVSF || h.StreamID != p.cfg.StreamID {
		p.cnt.RxSkipped++
		return 0, packetizer.StatusSkip, nil
	}

	n := int(h.DataLength)
	if avtp.StreamHeaderLen+n > len(pdu) {
		return 0, packetizer.StatusContinue, avtp.ErrTruncated
	}
	if *produced+n > len(media) {
		return 0, packetizer.StatusContinue, ErrMediaSize
	}

	if !p.rxFirst && h.SeqNum != p.rxSeq {
		p.cnt.RxGaps++
		logger.Debug("sequence gap",
			h.StreamID.ZapField("stream"),
			zap.Uint8("expected", p.rxSeq),
			zap.Uint8("actual", h.SeqNum),
		)
	}
	p.rxFirst, p.rxSeq = false, h.SeqNum+1

	*produced += copy(media[*produced:], pdu[avtp.StreamHeaderLen:avtp.StreamHeaderLen+n])
	p.cnt.RxPackets++
	if h.FormatInfo2&flagEndOfUnit != 0 {
		return h.Timestamp, packetizer.StatusComplete, nil
	}
	return h.Timestamp, packetizer.StatusContinue, nil
}
