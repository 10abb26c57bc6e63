package main

import (
	"context"
	"crypto/rand"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/usnistgov/avtpstream/eavb"
	"github.com/usnistgov/avtpstream/netadapter"
	"github.com/usnistgov/avtpstream/packetizer/rawavtp"
	"github.com/usnistgov/avtpstream/stream"
)

const (
	dirTX = "tx"
	dirRX = "rx"
)

// endpoint holds the driver, table, and sessions of one command.
type endpoint struct {
	drv      driver
	tbl      *netadapter.Table
	sessions map[string]*stream.Session
}

func openEndpoint() (ep *endpoint, e error) {
	ep = &endpoint{sessions: map[string]*stream.Session{}}
	if ep.drv, e = openDriver(); e != nil {
		return nil, e
	}
	ep.tbl = netadapter.New(ep.drv)
	ep.tbl.OnOpen(func(id netadapter.ID, dev eavb.DevName) {
		logger.Debug("transport context opened", id.ZapField("id"), zap.Stringer("dev", dev))
	})
	return ep, nil
}

// open opens a session in the specified direction with its own packetizer.
func (ep *endpoint) open(direction string) (*stream.Session, *rawavtp.Packetizer, error) {
	pk, e := rawavtp.New(cfg.Codec)
	if e != nil {
		return nil, nil, e
	}

	sc := cfg.TX
	if direction == dirRX {
		sc = cfg.RX
	}
	s, e := stream.Open(ep.tbl, pk, sc)
	if e != nil {
		return nil, nil, e
	}
	ep.sessions[direction] = s
	collector.add(direction, s)
	return s, pk, nil
}

func (ep *endpoint) Close() error {
	errs := []error{}
	for direction, s := range ep.sessions {
		collector.remove(direction)
		logger.Info("session counters", zap.String("direction", direction), zap.Stringer("counters", s.Counters()))
		errs = append(errs, s.Close())
	}
	errs = append(errs, ep.drv.Close())
	return multierr.Combine(errs...)
}

// presentationTime returns the lower 32 bits of the current time in nanoseconds.
func presentationTime() uint32 {
	return uint32(time.Now().UnixNano())
}

func makeUnit() []byte {
	unit := make([]byte, cfg.UnitSize)
	rand.Read(unit)
	return unit
}

// contextWithInterrupt returns a context cancelled by SIGINT or SIGTERM.
func contextWithInterrupt() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case sig := <-interrupt:
			logger.Info("interrupted", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
