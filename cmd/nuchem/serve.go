// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/nuchem/pkg/logging"
	"github.com/AleutianAI/nuchem/services/checker"
	"github.com/AleutianAI/nuchem/services/checker/config"
	"github.com/AleutianAI/nuchem/services/checker/observability"
	"github.com/AleutianAI/nuchem/services/checker/parser"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the checker HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root.configPath, debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable gin debug mode and request logging")
	return cmd
}

// runServe starts the server and blocks until SIGINT or SIGTERM.
//
// Description:
//
//	Loads the config, installs the logger and tracer, builds the cached
//	grammar client and serves the checker routes. When a config file is
//	given, changes to its logging level are applied without a restart.
//
// Outputs:
//
//	error - Non-nil if startup failed or the listener stopped unexpectedly.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level, _ := cfg.SlogLevel()

	logger := logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.Logging.Format == "json",
		Service: cfg.Tracing.ServiceName,
		Output:  os.Stdout,
	})
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingOptions{
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	svc := checker.NewService(checker.DefaultServiceConfig(), newParser(cfg, metrics, logger.Slog()),
		checker.WithMetrics(metrics),
		checker.WithLogger(logger.Slog()))

	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	routerOpts := checker.RouterOptions{
		ServiceName: cfg.Tracing.ServiceName,
		AccessLog:   debug,
	}
	if cfg.Metrics.Enabled {
		routerOpts.MetricsPath = cfg.Metrics.Path
		routerOpts.Gatherer = registry
	}
	router := checker.NewRouter(checker.NewHandlers(svc), routerOpts)

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, config.DefaultDebounce, func(next config.Config) {
				if lvl, err := next.SlogLevel(); err == nil && lvl != logger.Level() {
					logger.SetLevel(lvl)
					slog.Info("Log level changed", "level", lvl.String())
				}
			})
			if err != nil {
				slog.Warn("Config watching disabled", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting Nu-Chem checker", "address", server.Addr, "version", checker.ServiceVersion,
			"parser_url", cfg.Parser.URL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down Nu-Chem checker")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// newParser builds the grammar client, cached when parser.cache_size > 0.
func newParser(cfg config.Config, metrics *observability.Metrics, logger *slog.Logger) parser.Parser {
	opts := []parser.HTTPOption{
		parser.WithTimeout(cfg.Parser.Timeout),
		parser.WithLogger(logger),
	}
	if cfg.Parser.RateLimit > 0 {
		opts = append(opts, parser.WithRateLimit(cfg.Parser.RateLimit, cfg.Parser.Burst))
	}
	var p parser.Parser = parser.NewHTTPParser(cfg.Parser.URL, opts...)
	if cfg.Parser.CacheSize <= 0 {
		return p
	}
	return parser.NewCachedParser(p,
		parser.WithMaxEntries(cfg.Parser.CacheSize),
		parser.WithTTL(cfg.Parser.CacheTTL),
		parser.WithFlightTimeout(cfg.Parser.Timeout),
		parser.WithLookupObserver(func(domain parser.Domain, hit bool) {
			if metrics != nil {
				metrics.RecordCacheLookup(string(domain), hit)
			}
		}))
}
