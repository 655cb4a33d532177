// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerName is the instrumentation scope used by the checker service.
const TracerName = "github.com/AleutianAI/nuchem/services/checker"

// Exporter names accepted by TracingOptions.Exporter.
const (
	ExporterNone   = "none"
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// TracingOptions selects and configures the span exporter.
type TracingOptions struct {
	// Exporter is one of "none", "otlp" or "stdout". Empty means "none".
	Exporter string

	// Endpoint is the OTLP collector address (host:port).
	Endpoint string

	// ServiceName is reported as service.name.
	ServiceName string

	// Writer receives stdout spans. Nil means os.Stdout.
	Writer io.Writer
}

// InitTracer installs the global tracer provider and propagator.
//
// # Description
//
// With the "none" exporter only the propagator is installed and the global
// provider stays a no-op. Otherwise spans are batched to the selected
// exporter and always sampled.
//
// # Inputs
//
//   - ctx: Context for exporter setup.
//   - opts: Exporter selection.
//
// # Outputs
//
//   - func(context.Context): Flushes and shuts the exporter down. Never nil.
//   - error: Non-nil for an unknown exporter or a failed connection setup.
func InitTracer(ctx context.Context, opts TracingOptions) (func(context.Context), error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	var exporter sdktrace.SpanExporter
	switch opts.Exporter {
	case "", ExporterNone:
		return func(context.Context) {}, nil

	case ExporterOTLP:
		conn, err := grpc.NewClient(opts.Endpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("connecting to OTLP collector %q: %w", opts.Endpoint, err)
		}
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
		exporter = exp

	case ExporterStdout:
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		exporter = exp

	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "nuchem-checker"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("creating trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
	}, nil
}

// Tracer returns the checker's tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
