package main

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/usnistgov/avtpstream/stream"
)

// sessionCollector implements prometheus.Collector, reading session counters on each scrape.
type sessionCollector struct {
	mu       sync.Mutex
	sessions map[string]*stream.Session

	packets     *prometheus.Desc
	octets      *prometheus.Desc
	units       *prometheus.Desc
	interrupted *prometheus.Desc
	errors      *prometheus.Desc
}

func newSessionCollector() *sessionCollector {
	labels := []string{"direction", "device"}
	return &sessionCollector{
		sessions: map[string]*stream.Session{},
		packets: prometheus.NewDesc("avtpstream_packets_total",
			"Total AVTP packets produced or consumed.", labels, nil),
		octets: prometheus.NewDesc("avtpstream_media_octets_total",
			"Total media octets of completed units.", labels, nil),
		units: prometheus.NewDesc("avtpstream_units_total",
			"Total completed media units.", labels, nil),
		interrupted: prometheus.NewDesc("avtpstream_interrupted_total",
			"Total cancelled or would-block transport calls.", labels, nil),
		errors: prometheus.NewDesc("avtpstream_errors_total",
			"Total transport and codec errors.", labels, nil),
	}
}

var collector = newSessionCollector()

func init() {
	registry.MustRegister(collector)
}

func (c *sessionCollector) add(direction string, s *stream.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[direction] = s
}

func (c *sessionCollector) remove(direction string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, direction)
}

// Describe implements prometheus.Collector.
func (c *sessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packets
	ch <- c.octets
	ch <- c.units
	ch <- c.interrupted
	ch <- c.errors
}

// Collect implements prometheus.Collector.
func (c *sessionCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for direction, s := range c.sessions {
		cnt := s.Counters()
		dev := s.Dev().String()
		counter := func(desc *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), direction, dev)
		}
		counter(c.packets, cnt.Packets)
		counter(c.octets, cnt.Octets)
		counter(c.units, cnt.Units)
		counter(c.interrupted, cnt.Interrupted)
		counter(c.errors, cnt.Errors)
	}
}
