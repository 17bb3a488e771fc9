// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ianlewis/go-dictserv/internal/config"
	"github.com/ianlewis/go-dictserv/internal/logger"
	"github.com/ianlewis/go-dictserv/server"
)

const shutdownTimeout = 5 * time.Second

func listenFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "listen on `ADDRESS`",
			Aliases: []string{"a"},
		},
		&cli.DurationFlag{
			Name:  "read-timeout",
			Usage: "close sessions idle for `DURATION` (0 waits forever)",
		},
		&cli.IntFlag{
			Name:  "buffer-size",
			Usage: "read at most `SIZE` bytes per request",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve Prometheus metrics on `ADDRESS`",
		},
	}
}

func serveCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "with-echo",
			Usage: "also run the echo server",
		},
		&cli.StringFlag{
			Name:  "echo-addr",
			Usage: "listen for echo clients on `ADDRESS`",
		},
	}, listenFlags()...)

	return &cli.Command{
		Name:         "serve",
		Usage:        "serve dictionary lookups",
		ArgsUsage:    " ",
		Flags:        append(flags, corpusFlags()...),
		OnUsageError: onUsageError,
		Action:       runServe,
	}
}

func echoCommand() *cli.Command {
	return &cli.Command{
		Name:         "echo",
		Usage:        "run the echo server",
		ArgsUsage:    " ",
		Flags:        listenFlags(),
		OnUsageError: onUsageError,
		Action:       runEcho,
	}
}

// applyListenFlags overrides a server section of the config with the listen
// flags.
func applyListenFlags(c *cli.Context, addr *string, readTimeout *time.Duration, bufferSize *int) {
	if c.IsSet("addr") {
		*addr = c.String("addr")
	}
	if c.IsSet("read-timeout") {
		*readTimeout = c.Duration("read-timeout")
	}
	if c.IsSet("buffer-size") {
		*bufferSize = c.Int("buffer-size")
	}
}

// listener is a server and the listener it will serve.
type listener struct {
	srv *server.Server
	ln  net.Listener
}

// setup loads and validates the config, with apply overriding it first, and
// installs the logger.
func setup(c *cli.Context, apply func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.Join(ErrFlagParse, err)
	}
	return cfg, logger.Setup(c.App.ErrWriter, cfg.Logging.Level, cfg.Logging.Format), nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func runServe(c *cli.Context) error {
	cfg, l, err := setup(c, func(cfg *config.Config) {
		applyListenFlags(c, &cfg.Server.Address, &cfg.Server.ReadTimeout, &cfg.Server.BufferSize)
		if c.IsSet("echo-addr") {
			cfg.Echo.Address = c.String("echo-addr")
		}
	})
	if err != nil {
		return err
	}

	dict, err := openDictionary(&cfg.Corpus)
	if err != nil {
		return err
	}
	l.Info("dictionary loaded", "entries", dict.Len(), "skipped", dict.Skipped())

	reg := newRegistry()
	m := server.NewMetrics(reg)

	var servers []listener
	defer func() {
		for _, s := range servers {
			_ = s.ln.Close()
		}
	}()

	ln, err := server.Listen(cfg.Server.Address)
	if err != nil {
		return err
	}
	servers = append(servers, listener{
		srv: server.New(server.NewLookupHandler(dict, &server.LookupOptions{
			BufferSize: cfg.Server.BufferSize,
			Metrics:    m,
		}), &server.Options{
			Name:        "lookup",
			ReadTimeout: cfg.Server.ReadTimeout,
			Logger:      l,
			Metrics:     m,
		}),
		ln: ln,
	})

	if c.Bool("with-echo") || c.IsSet("echo-addr") {
		ln, err := server.Listen(cfg.Echo.Address)
		if err != nil {
			return err
		}
		servers = append(servers, listener{
			srv: newEchoServer(cfg, l, m),
			ln:  ln,
		})
	}

	return run(c.Context, l, servers, cfg.Metrics.Address, reg)
}

func newEchoServer(cfg *config.Config, l *slog.Logger, m *server.Metrics) *server.Server {
	return server.New(server.NewEchoHandler(cfg.Echo.BufferSize), &server.Options{
		Name:        "echo",
		ReadTimeout: cfg.Echo.ReadTimeout,
		Logger:      l,
		Metrics:     m,
	})
}

func runEcho(c *cli.Context) error {
	cfg, l, err := setup(c, func(cfg *config.Config) {
		applyListenFlags(c, &cfg.Echo.Address, &cfg.Echo.ReadTimeout, &cfg.Echo.BufferSize)
	})
	if err != nil {
		return err
	}

	reg := newRegistry()
	m := server.NewMetrics(reg)

	ln, err := server.Listen(cfg.Echo.Address)
	if err != nil {
		return err
	}
	return run(c.Context, l, []listener{{srv: newEchoServer(cfg, l, m), ln: ln}}, cfg.Metrics.Address, reg)
}

// run serves until SIGINT or SIGTERM is received or a server fails, then
// shuts every server down.
func run(ctx context.Context, l *slog.Logger, servers []listener, metricsAddr string, g prometheus.Gatherer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	var metricsLn net.Listener
	if metricsAddr != "" {
		var err error
		metricsLn, err = server.Listen(metricsAddr)
		if err != nil {
			return err
		}
		metricsSrv = server.NewMetricsServer(metricsAddr, g)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		eg.Go(func() error {
			if err := s.srv.Serve(s.ln); !errors.Is(err, server.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	if metricsSrv != nil {
		eg.Go(func() error {
			l.Info("metrics server started", "addr", metricsLn.Addr().String())
			if err := metricsSrv.Serve(metricsLn); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	eg.Go(func() error {
		<-ctx.Done()
		l.Info("shutting down")

		var errs []error
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			errs = append(errs, metricsSrv.Shutdown(shutdownCtx))
		}
		for _, s := range servers {
			errs = append(errs, s.srv.Close())
		}
		return errors.Join(errs...)
	})

	return eg.Wait()
}
