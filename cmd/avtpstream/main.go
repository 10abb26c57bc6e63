// Command avtpstream streams opaque media over AVTP.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/usnistgov/avtpstream/core/logging"
	"github.com/usnistgov/avtpstream/core/version"
	"github.com/usnistgov/avtpstream/core/yamlflag"
)

var logger = logging.New("main")

var (
	cfg       Config
	interrupt = make(chan os.Signal, 1)
	registry  = prometheus.NewRegistry()
)

var app = &cli.App{
	Version: version.V.String(),
	Usage:   "Stream opaque media over AVTP.",
	Flags: []cli.Flag{
		&cli.GenericFlag{
			Name:  "config",
			Usage: "YAML `document` or @filename containing driver, codec, and session settings.",
			Value: yamlflag.New(&cfg),
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "Prometheus metrics listen `address`, such as 127.0.0.1:9101.",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "Log `level` of every package (V, D, I, W, E, F, N).",
		},
	},
	Before: func(c *cli.Context) error {
		if lvl := c.String("log"); lvl != "" {
			logging.SetAllLevels(lvl)
		}
		cfg.applyDefaults()
		signal.Notify(interrupt, unix.SIGINT, unix.SIGTERM)

		if listen := c.String("metrics"); listen != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			go func() {
				logger.Info("metrics server starting", zap.String("listen", listen))
				if e := http.ListenAndServe(listen, mux); e != nil {
					logger.Error("metrics server error", zap.Error(e))
				}
			}()
		}
		return nil
	},
}

func defineCommand(command *cli.Command) {
	app.Commands = append(app.Commands, command)
}

func main() {
	logger.Debug("avtpstream starting", zap.Any("version", version.V), zap.Int("uid", os.Getuid()))

	sort.Sort(cli.CommandsByName(app.Commands))
	if e := app.Run(os.Args); e != nil {
		logger.Fatal("exit", zap.Error(e))
	}
}
