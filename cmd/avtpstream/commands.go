package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/usnistgov/avtpstream/eavb"
)

func init() {
	defineCommand(&cli.Command{
		Name:  "devices",
		Usage: "List streaming device names.",
		Action: func(c *cli.Context) error {
			for dev := eavb.DevRx0; dev <= eavb.DevTx1; dev++ {
				direction := dirRX
				if dev.IsTx() {
					direction = dirTX
				}
				fmt.Fprintf(os.Stdout, "%s\t%s\n", dev, direction)
			}
			return nil
		},
	})
}

func init() {
	var units int
	defineCommand(&cli.Command{
		Name:  "loopback",
		Usage: "Transmit random units and verify them on the receive side.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "units",
				Usage:       "Number of `units` to transmit.",
				Value:       100,
				Destination: &units,
			},
		},
		Action: func(c *cli.Context) error {
			ep, e := openEndpoint()
			if e != nil {
				return e
			}
			defer ep.Close()

			rx, _, e := ep.open(dirRX)
			if e != nil {
				return e
			}
			tx, _, e := ep.open(dirTX)
			if e != nil {
				return e
			}

			ctx, cancel := contextWithInterrupt()
			defer cancel()
			sent := make(chan []byte)
			acked := make(chan struct{})
			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				defer close(sent)
				for i := 0; i < units; i++ {
					unit := makeUnit()
					if _, e := tx.Transmit(ctx, unit, []uint32{presentationTime()}); e != nil {
						return e
					}
					select {
					case sent <- unit:
					case <-ctx.Done():
						return ctx.Err()
					}
					select {
					case <-acked:
					case <-ctx.Done():
						return ctx.Err()
					}
					time.Sleep(cfg.Interval)
				}
				return nil
			})

			g.Go(func() error {
				media := make([]byte, cfg.UnitSize)
				timestamps := make([]uint32, 1)
				for expected := range sent {
					produced, _, e := rx.Receive(ctx, media, timestamps)
					if e != nil {
						return e
					}
					if !bytes.Equal(expected, media[:produced]) {
						return errors.New("received unit differs from transmitted unit")
					}
					acked <- struct{}{}
				}
				return nil
			})

			if e := g.Wait(); e != nil {
				return e
			}
			logger.Info("loopback complete", zap.Int("units", units))
			return nil
		},
	})
}

func init() {
	var units int
	defineCommand(&cli.Command{
		Name:  "send",
		Usage: "Transmit random units until interrupted.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "units",
				Usage:       "Number of `units` to transmit, zero for unlimited.",
				Destination: &units,
			},
		},
		Action: func(c *cli.Context) error {
			ep, e := openEndpoint()
			if e != nil {
				return e
			}
			defer ep.Close()

			tx, _, e := ep.open(dirTX)
			if e != nil {
				return e
			}

			ctx, cancel := contextWithInterrupt()
			defer cancel()
			for i := 0; units == 0 || i < units; i++ {
				if _, e := tx.Transmit(ctx, makeUnit(), []uint32{presentationTime()}); e != nil {
					if eavb.IsTransient(e) && ctx.Err() != nil {
						return nil
					}
					return e
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(cfg.Interval):
				}
			}
			return nil
		},
	})
}

func init() {
	defineCommand(&cli.Command{
		Name:  "recv",
		Usage: "Receive units until interrupted.",
		Action: func(c *cli.Context) error {
			ep, e := openEndpoint()
			if e != nil {
				return e
			}
			defer ep.Close()

			rx, pk, e := ep.open(dirRX)
			if e != nil {
				return e
			}

			ctx, cancel := contextWithInterrupt()
			defer cancel()
			media := make([]byte, cfg.UnitSize)
			timestamps := make([]uint32, 1)
			for {
				produced, _, e := rx.Receive(ctx, media, timestamps)
				switch {
				case e == nil:
					logger.Debug("unit received", zap.Int("size", produced), zap.Uint32("timestamp", timestamps[0]))
				case eavb.IsTransient(e) && ctx.Err() != nil:
					logger.Info("codec counters", zap.Stringer("counters", pk.Counters()))
					return nil
				default:
					return e
				}
			}
		},
	})
}
