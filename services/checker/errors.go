// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import "errors"

// Sentinel errors for the checker service.
var (
	// ErrParserUnavailable indicates the grammar service could not produce a
	// tree for an expression.
	ErrParserUnavailable = errors.New("parser unavailable")

	// ErrEmptyExpression indicates a test or target expression was blank.
	ErrEmptyExpression = errors.New("expression is empty")

	// ErrUnknownDomain indicates a domain other than chemistry or nuclear.
	ErrUnknownDomain = errors.New("unknown domain")
)
