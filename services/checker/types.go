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

import "github.com/AleutianAI/nuchem/services/checker/response"

// CheckRequest is the body of POST /chem/check and POST /nuclear/check.
type CheckRequest struct {
	// Target is the expected answer in mhchem notation.
	Target string `json:"target" binding:"notblank"`

	// Test is the submitted answer in mhchem notation.
	Test string `json:"test" binding:"notblank"`

	// Description is free text logged with the request. When present it
	// must be a JSON string.
	Description any `json:"description"`

	// QuestionID identifies the question for logging only.
	QuestionID any `json:"questionID"`

	// Options overrides the default check policy. Nil means all false.
	Options *response.Options `json:"options"`
}

// ParseRequest is the body of POST /chem/parse and POST /nuclear/parse.
type ParseRequest struct {
	// Test is the expression to parse.
	Test string `json:"test" binding:"notblank"`

	// Description is free text logged with the request.
	Description any `json:"description"`
}

// ParseResponse wraps an augmented tree in the grammar service envelope.
type ParseResponse struct {
	Result any `json:"result"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Param    string `json:"param"`
	Msg      string `json:"msg"`
	Location string `json:"location"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
