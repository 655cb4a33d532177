// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checker is the HTTP service around the chemistry and nuclear
// equivalence engines.
//
// # Description
//
// The service parses both sides of a request through the grammar service,
// augments the trees and runs the domain checker. Handlers expose this over
// gin; RegisterRoutes lists the endpoints.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AleutianAI/nuchem/services/checker/chemistry"
	"github.com/AleutianAI/nuchem/services/checker/nuclear"
	"github.com/AleutianAI/nuchem/services/checker/observability"
	"github.com/AleutianAI/nuchem/services/checker/parser"
	"github.com/AleutianAI/nuchem/services/checker/response"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ServiceVersion is the checker service version.
const ServiceVersion = "1.0.0"

// ServiceConfig configures the Service.
type ServiceConfig struct {
	// ParseTimeout bounds the grammar service calls of one request.
	// Zero means no bound beyond the request context.
	ParseTimeout time.Duration
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ParseTimeout: 15 * time.Second,
	}
}

// Service parses, augments and checks expressions.
//
// Thread Safety:
//
//	Safe for concurrent use. The checkers are stateless and the parser is
//	required to be safe for concurrent use.
type Service struct {
	config    ServiceConfig
	parser    parser.Parser
	chemistry *chemistry.Checker
	nuclear   *nuclear.Checker
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics records check and parse metrics into m.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger handed to the domain checkers.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a service backed by p.
//
// # Inputs
//
//   - cfg: Service configuration.
//   - p: The expression parser. Must not be nil.
//   - opts: Optional metrics and logger. Without WithMetrics the service
//     records into a private registry.
//
// # Outputs
//
//   - *Service: Ready to use.
func NewService(cfg ServiceConfig, p parser.Parser, opts ...ServiceOption) *Service {
	s := &Service{
		config: cfg,
		parser: p,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	s.chemistry = chemistry.NewChecker(s.logger)
	s.nuclear = nuclear.NewChecker(s.logger)
	return s
}

// Metrics returns the metrics the service records into.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// ParseDomain maps a route or CLI name onto a parser domain.
// "chem" and "chemistry" select chemistry; "nuclear" selects nuclear.
func ParseDomain(name string) (parser.Domain, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chem", "chemistry":
		return parser.DomainChemistry, nil
	case "nuclear":
		return parser.DomainNuclear, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
}

// Check compares the test expression against the target expression.
//
// # Description
//
// Both expressions are parsed concurrently. Each tree is augmented and the
// domain checker compares them. Syntax errors in either expression are not
// Go errors: they come back in the response through ContainsError.
//
// # Inputs
//
//   - ctx: Context for cancellation and tracing.
//   - domain: Chemistry or nuclear.
//   - test: The submitted expression.
//   - target: The expected expression.
//   - opts: Check policy.
//
// # Outputs
//
//   - response.Response: The comparison result.
//   - error: ErrEmptyExpression, ErrUnknownDomain or ErrParserUnavailable.
func (s *Service) Check(ctx context.Context, domain parser.Domain, test, target string, opts response.Options) (response.Response, error) {
	if strings.TrimSpace(test) == "" || strings.TrimSpace(target) == "" {
		return response.Response{}, ErrEmptyExpression
	}
	if domain != parser.DomainChemistry && domain != parser.DomainNuclear {
		return response.Response{}, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}

	ctx, span := observability.Tracer().Start(ctx, string(domain)+".check",
		trace.WithAttributes(
			attribute.String("nuchem.domain", string(domain)),
			attribute.Bool("nuchem.allow_permutations", opts.AllowPermutations),
			attribute.Bool("nuchem.allow_scaling", opts.AllowScalingCoefficients),
		))
	defer span.End()

	label := string(domain)
	s.metrics.CheckStarted(label)
	defer s.metrics.CheckEnded(label)

	parseCtx, cancel := s.parseContext(ctx)
	defer cancel()

	var resp response.Response
	var err error
	if domain == parser.DomainChemistry {
		var testTree, targetTree chemistry.Node
		testTree, targetTree, err = parseBoth(parseCtx, test, target, s.parser.ParseChemistry)
		if err == nil {
			resp = s.timed(ctx, label, func() response.Response {
				return s.chemistry.Check(chemistry.Augment(testTree), chemistry.Augment(targetTree), opts)
			})
		}
	} else {
		var testTree, targetTree nuclear.Node
		testTree, targetTree, err = parseBoth(parseCtx, test, target, s.parser.ParseNuclear)
		if err == nil {
			resp = s.timed(ctx, label, func() response.Response {
				return s.nuclear.Check(nuclear.Augment(testTree), nuclear.Augment(targetTree), opts)
			})
		}
	}
	if err != nil {
		s.metrics.RecordParseError(label)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return response.Response{}, fmt.Errorf("%w: %w", ErrParserUnavailable, err)
	}

	span.SetAttributes(
		attribute.Bool("nuchem.is_equal", resp.IsEqual),
		attribute.Bool("nuchem.contains_error", resp.ContainsError),
	)
	return resp, nil
}

// Parse parses and augments one expression.
//
// # Outputs
//
//   - ParseResponse: The augmented tree in the {"result": ...} envelope.
//   - error: ErrEmptyExpression, ErrUnknownDomain or ErrParserUnavailable.
func (s *Service) Parse(ctx context.Context, domain parser.Domain, text string) (ParseResponse, error) {
	if strings.TrimSpace(text) == "" {
		return ParseResponse{}, ErrEmptyExpression
	}

	ctx, span := observability.Tracer().Start(ctx, string(domain)+".parse",
		trace.WithAttributes(attribute.String("nuchem.domain", string(domain))))
	defer span.End()

	ctx, cancel := s.parseContext(ctx)
	defer cancel()

	var result any
	var err error
	switch domain {
	case parser.DomainChemistry:
		var tree chemistry.Node
		if tree, err = s.parser.ParseChemistry(ctx, text); err == nil {
			result = chemistry.Augment(tree)
		}
	case parser.DomainNuclear:
		var tree nuclear.Node
		if tree, err = s.parser.ParseNuclear(ctx, text); err == nil {
			result = nuclear.Augment(tree)
		}
	default:
		return ParseResponse{}, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	if err != nil {
		s.metrics.RecordParseError(string(domain))
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return ParseResponse{}, fmt.Errorf("%w: %w", ErrParserUnavailable, err)
	}
	return ParseResponse{Result: result}, nil
}

func (s *Service) parseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.ParseTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.ParseTimeout)
}

// timed runs an augment and check step under its own span and records its
// duration and outcome.
func (s *Service) timed(ctx context.Context, domain string, run func() response.Response) response.Response {
	_, span := observability.Tracer().Start(ctx, domain+".compare")
	defer span.End()

	start := time.Now()
	resp := run()
	s.metrics.RecordCheck(domain, time.Since(start).Seconds(),
		observability.ClassifyOutcome(resp.ContainsError, resp.TypeMismatch, resp.IsEqual))
	return resp
}

// parseBoth parses test and target concurrently. The first failure cancels
// the other call.
func parseBoth[T any](ctx context.Context, test, target string, parse func(context.Context, string) (T, error)) (T, T, error) {
	var testTree, targetTree T
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		testTree, err = parse(gctx, test)
		return err
	})
	g.Go(func() error {
		var err error
		targetTree, err = parse(gctx, target)
		return err
	})
	if err := g.Wait(); err != nil {
		var zero T
		return zero, zero, err
	}
	return testTree, targetTree, nil
}
