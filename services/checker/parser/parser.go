// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser turns mhchem expression text into ASTs by calling the
// grammar service.
//
// # Description
//
// The checker never parses notation itself. A Parser hands back the raw
// (unaugmented) tree the grammar service produced; callers run Augment
// before Check. HTTPParser talks to the service over HTTP and CachedParser
// memoises any Parser.
//
// # Thread Safety
//
// Both implementations are safe for concurrent use. Returned trees are
// shared between callers and must not be modified; Augment builds a new
// tree and leaves its input untouched.
package parser

import (
	"context"
	"errors"

	"github.com/AleutianAI/nuchem/services/checker/chemistry"
	"github.com/AleutianAI/nuchem/services/checker/nuclear"
)

// Domain selects the grammar used to parse an expression.
type Domain string

const (
	DomainChemistry Domain = "chemistry"
	DomainNuclear   Domain = "nuclear"
)

var (
	// ErrUnavailable indicates the grammar service could not be reached or
	// answered with a non-success status.
	ErrUnavailable = errors.New("grammar service unavailable")

	// ErrEmptyResult indicates the grammar service answered without a tree.
	ErrEmptyResult = errors.New("grammar service returned no result")
)

// Parser parses expression text into raw ASTs.
//
// A syntax error in the expression is not a Go error: it comes back as an
// *ErrorNode tree so Check can report it. The error return is reserved for
// transport and decoding failures.
type Parser interface {
	ParseChemistry(ctx context.Context, expression string) (chemistry.Node, error)
	ParseNuclear(ctx context.Context, expression string) (nuclear.Node, error)
}
