// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires the daemon's components together: load configuration,
// configure logging/metrics/tracing, bind the RPC acceptor and the HTTP
// status surface, and run the alert-ingestion adapter, all sharing one
// history.Registry. It does not construct an engine.Engine itself -- the
// embedded BitTorrent engine is this daemon's one external collaborator
// (spec.md §1), so the concrete implementation is the integrator's to
// supply to Run.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/andres-erbsen/clock"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/uber/torrentd/alerts"
	"github.com/uber/torrentd/config"
	"github.com/uber/torrentd/engine"
	"github.com/uber/torrentd/history"
	"github.com/uber/torrentd/httpapi"
	"github.com/uber/torrentd/lib/tracing"
	"github.com/uber/torrentd/metrics"
	"github.com/uber/torrentd/rpc"
	"github.com/uber/torrentd/utils/closers"
	"github.com/uber/torrentd/utils/configutil"
	"github.com/uber/torrentd/utils/httputil"
	"github.com/uber/torrentd/utils/log"
	"github.com/uber/torrentd/utils/shutdown"
)

// Flags defines torrentd's CLI flags.
type Flags struct {
	ConfigFile string
	Cluster    string
}

// ParseFlags parses torrentd CLI flags.
func ParseFlags() *Flags {
	var f Flags
	flag.StringVar(&f.ConfigFile, "config", "", "configuration file path")
	flag.StringVar(&f.Cluster, "cluster", "", "cluster name, tagged onto emitted metrics")
	flag.Parse()
	return &f
}

type options struct {
	config *config.Config
	logger *zap.Logger
}

// Option defines an optional Run parameter.
type Option func(*options)

// WithConfig ignores the config flag and uses cfg directly.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.config = &cfg }
}

// WithLogger ignores logging config and uses l directly.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run loads configuration, wires every component described by SPEC_FULL.md
// §2 around eng, and blocks until ctx is canceled or a fatal startup error
// occurs. The caller owns eng's lifecycle beyond what Run's alert adapter
// consumes from it.
func Run(ctx context.Context, flags *Flags, eng engine.Engine, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := loadConfig(flags, &o)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog := setupLogging(cfg, &o)
	defer zlog.Sync()
	sugared := zlog.Sugar()

	stats, statsCloser, err := metrics.New(cfg.Metrics, flags.Cluster)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer closers.Close(statsCloser)
	go metrics.EmitVersion(stats)

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	h := shutdown.New(ctx)
	registerSignalHandler(h)
	defer h.Shutdown()

	registry := history.New(clock.New(), sugared)

	adapter := alerts.New(eng, registry, sugared)
	go func() {
		if err := adapter.Run(h.Context()); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("alert adapter stopped: %s", err)
		}
	}()

	if err := runRPCServer(h, cfg, eng, sugared); err != nil {
		return fmt.Errorf("start rpc server: %w", err)
	}

	if cfg.HTTPAddr != "" {
		runHTTPServer(h, cfg, registry, adapter, stats, sugared)
	}

	<-h.Context().Done()
	return nil
}

func loadConfig(flags *Flags, o *options) (config.Config, error) {
	if o.config != nil {
		return *o.config, nil
	}
	var cfg config.Config
	if flags.ConfigFile != "" {
		if err := configutil.Load(flags.ConfigFile, &cfg); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func setupLogging(cfg config.Config, o *options) *zap.Logger {
	if o.logger != nil {
		log.SetGlobalLogger(o.logger.Sugar())
		return o.logger
	}
	return log.ConfigureLogger(cfg.ZapLogging).Desugar()
}

func registerSignalHandler(h *shutdown.Handler) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("Received shutdown signal")
		h.Shutdown()
	}()
}

func runRPCServer(h *shutdown.Handler, cfg config.Config, eng engine.Engine, sugared *zap.SugaredLogger) error {
	tlsConfig, err := httputil.BuildServer(cfg.RPC.TLSPEMFile)
	if err != nil {
		return fmt.Errorf("load rpc tls identity: %w", err)
	}

	dispatcher := rpc.NewDispatcher(sugared)
	rpc.RegisterHandlers(dispatcher, eng)

	server, err := rpc.NewServer(cfg.RPC.ServerConfig, tlsConfig, dispatcher, sugared)
	if err != nil {
		return err
	}

	go func() {
		if err := server.Serve(h.Context()); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("rpc server stopped: %s", err)
		}
	}()
	log.Infof("RPC server listening on %s", server.Addr())
	return nil
}

func runHTTPServer(h *shutdown.Handler, cfg config.Config, registry *history.Registry, adapter *alerts.Adapter, stats tally.Scope, sugared *zap.SugaredLogger) {
	httpServer := httpapi.New(registry, adapter, stats, sugared)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpServer}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http status server stopped: %s", err)
		}
	}()
	log.Infof("HTTP status surface listening on %s", cfg.HTTPAddr)

	h.AddCleanup(func() error { return srv.Shutdown(context.Background()) })
}
