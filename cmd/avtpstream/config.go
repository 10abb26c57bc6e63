package main

import (
	"errors"
	"net"
	"time"

	"github.com/usnistgov/avtpstream/avtp"
	"github.com/usnistgov/avtpstream/core/macaddr"
	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/eavb/eavbmem"
	"github.com/usnistgov/avtpstream/eavb/eavbpacket"
	"github.com/usnistgov/avtpstream/packetizer/rawavtp"
	"github.com/usnistgov/avtpstream/stream"
)

// Driver kinds.
const (
	DriverMem      = "mem"
	DriverAFPacket = "afpacket"
)

// defaultDestination is the first address of the MAAP dynamic allocation pool.
var defaultDestination = net.HardwareAddr{0x91, 0xE0, 0xF0, 0x00, 0x00, 0x00}

// Config is the YAML configuration document.
type Config struct {
	// Driver selects the streaming driver: "mem" or "afpacket".
	Driver string `yaml:"driver"`

	Mem      eavbmem.Config    `yaml:"mem"`
	AFPacket eavbpacket.Config `yaml:"afpacket"`

	// Codec configures the raw AVTP packetizer.
	Codec rawavtp.Config `yaml:"codec"`

	TX stream.Config `yaml:"tx"`
	RX stream.Config `yaml:"rx"`

	// UnitSize is the size of each media unit.
	UnitSize int `yaml:"unitSize"`

	// Interval is the delay between transmitted units.
	Interval time.Duration `yaml:"interval"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Driver == "" {
		cfg.Driver = DriverMem
	}
	if cfg.TX.Device == "" {
		cfg.TX.Device = eavb.DevTx0.String()
	}
	if cfg.RX.Device == "" {
		cfg.RX.Device = eavb.DevRx0.String()
	}
	if cfg.Codec.Destination.Empty() {
		cfg.Codec.Destination.HardwareAddr = defaultDestination
	}
	if cfg.UnitSize <= 0 {
		cfg.UnitSize = 4096
	}
}

type driver interface {
	eavb.Driver
	Close() error
}

type memDriver struct {
	*eavbmem.Bus
}

func (memDriver) Close() error {
	return nil
}

// openDriver opens the configured driver and fills codec addresses that depend on it.
func openDriver() (drv driver, e error) {
	var hwaddr net.HardwareAddr
	switch cfg.Driver {
	case DriverMem:
		drv, hwaddr = memDriver{eavbmem.New(cfg.Mem)}, macaddr.MakeRandom(false)
	case DriverAFPacket:
		pdrv, e := eavbpacket.New(cfg.AFPacket)
		if e != nil {
			return nil, e
		}
		drv, hwaddr = pdrv, pdrv.HardwareAddr()
	default:
		return nil, errors.New("unknown driver")
	}

	if cfg.Codec.Source.Empty() {
		cfg.Codec.Source.HardwareAddr = hwaddr
	}
	if cfg.Codec.StreamID.IsZero() {
		if cfg.Codec.StreamID, e = avtp.MakeStreamID(cfg.Codec.Source.HardwareAddr, 1); e != nil {
			drv.Close()
			return nil, e
		}
	}
	if cfg.RX.StreamID.IsZero() {
		cfg.RX.StreamID = cfg.Codec.StreamID
	}
	return drv, nil
}
