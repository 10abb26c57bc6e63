// Package eavbpacket provides a streaming driver over an AF_PACKET socket.
//
// All queues of a Driver share one socket bound to a network interface.
// TX queues write frames to the socket; a receive goroutine delivers AVTP frames to RX queues.
// The driver is available on Linux only.
package eavbpacket

import (
	"time"

	"github.com/usnistgov/avtpstream/core/logging"
)

var logger = logging.New("eavbpacket")

// DefaultPollTimeout is the default receive poll timeout.
const DefaultPollTimeout = 100 * time.Millisecond

// Config contains Driver settings.
type Config struct {
	// Ifname is the network interface name.
	Ifname string `json:"ifname" yaml:"ifname"`

	// Promisc enables promiscuous mode while the driver is open.
	Promisc bool `json:"promisc,omitempty" yaml:"promisc,omitempty"`

	// QueueCapacity is the maximum number of outstanding entries per queue.
	QueueCapacity int `json:"queueCapacity,omitempty" yaml:"queueCapacity,omitempty"`

	// PollTimeout bounds each socket poll, which determines how quickly Close takes effect.
	PollTimeout time.Duration `json:"pollTimeout,omitempty" yaml:"pollTimeout,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
}

