// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/nuchem/services/checker/chemistry"
	"github.com/AleutianAI/nuchem/services/checker/nuclear"
)

// DefaultTimeout bounds a single call to the grammar service.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 512

// HTTPParser calls the grammar service.
//
// # Description
//
// Each parse POSTs {"expression": text} to <baseURL>/chemistry or
// <baseURL>/nuclear. The service answers with a JSON array of
// {"result": tree} envelopes; the first one is decoded. Trace context is
// propagated on the outgoing request.
//
// # Thread Safety
//
// HTTPParser is safe for concurrent use.
type HTTPParser struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// HTTPOption configures an HTTPParser.
type HTTPOption func(*HTTPParser)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPParser) {
		if d > 0 {
			p.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst. A
// non-positive rps leaves the client unlimited.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(p *HTTPParser) {
		if rps <= 0 {
			p.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for transport failures.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(p *HTTPParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewHTTPParser creates a client for the grammar service at baseURL.
//
// # Inputs
//
//   - baseURL: Service root, e.g. "http://localhost:3000". A trailing slash
//     is ignored.
//   - opts: Optional settings.
//
// # Example
//
//	p := parser.NewHTTPParser("http://localhost:3000", parser.WithTimeout(5*time.Second))
//	tree, err := p.ParseChemistry(ctx, "2H2 + O2 -> 2H2O")
func NewHTTPParser(baseURL string, opts ...HTTPOption) *HTTPParser {
	p := &HTTPParser{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "grammar_client")
	return p
}

// ParseChemistry implements Parser.
func (p *HTTPParser) ParseChemistry(ctx context.Context, expression string) (chemistry.Node, error) {
	raw, err := p.fetch(ctx, DomainChemistry, expression)
	if err != nil {
		return nil, err
	}
	var ast chemistry.AST
	if err := json.Unmarshal(raw, &ast); err != nil {
		return nil, errors.Wrap(err, "decoding chemistry parse result")
	}
	if ast.Result == nil {
		return nil, errors.WithStack(ErrEmptyResult)
	}
	return ast.Result, nil
}

// ParseNuclear implements Parser.
func (p *HTTPParser) ParseNuclear(ctx context.Context, expression string) (nuclear.Node, error) {
	raw, err := p.fetch(ctx, DomainNuclear, expression)
	if err != nil {
		return nil, err
	}
	var ast nuclear.AST
	if err := json.Unmarshal(raw, &ast); err != nil {
		return nil, errors.Wrap(err, "decoding nuclear parse result")
	}
	if ast.Result == nil {
		return nil, errors.WithStack(ErrEmptyResult)
	}
	return ast.Result, nil
}

type parseRequest struct {
	Expression string `json:"expression"`
}

// fetch posts the expression and returns the first result envelope.
func (p *HTTPParser) fetch(ctx context.Context, domain Domain, expression string) (json.RawMessage, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "waiting for grammar service rate limit")
		}
	}

	body, err := json.Marshal(parseRequest{Expression: expression})
	if err != nil {
		return nil, errors.Wrap(err, "encoding parse request")
	}

	url := p.baseURL + "/" + string(domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "creating parse request")
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("Grammar service request failed", "domain", domain, "error", err)
		return nil, transportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		p.logger.Warn("Grammar service returned error status",
			"domain", domain,
			"status", resp.StatusCode)
		return nil, errors.Wrapf(ErrUnavailable, "POST %s returned %d: %s", url, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var results []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, errors.Wrap(err, "decoding grammar service response")
	}
	if len(results) == 0 {
		return nil, errors.WithStack(ErrEmptyResult)
	}
	return results[0], nil
}

// transportError wraps a failed round trip so both ErrUnavailable and the
// cause stay in the chain. A client timeout is reported as
// context.DeadlineExceeded.
func transportError(url string, err error) error {
	var netErr net.Error
	if !errors.Is(err, context.DeadlineExceeded) && errors.As(err, &netErr) && netErr.Timeout() {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%w: POST %s: %w", ErrUnavailable, url, err)
}
