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

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/AleutianAI/nuchem/services/checker/parser"
	"github.com/AleutianAI/nuchem/services/checker/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
)

// Banner is the body of GET /.
const Banner = "The Nu-Chem Checker"

// Validation messages returned in ErrorResponse.Errors.
const (
	MsgTargetRequired     = "Target mhChem expression is required."
	MsgTestRequired       = "mhChem expression is required."
	MsgDescriptionString  = "When provided the description must be a string."
	validationLocation    = "body"
	errCodeInvalidRequest = "INVALID_REQUEST"
)

var registerValidatorsOnce sync.Once

// registerValidators installs the notblank tag on gin's validator engine.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			slog.Error("Failed to register notblank validator", "error", err)
		}
	})
}

// Handlers contains the HTTP handlers for the checker service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	registerValidators()
	return &Handlers{svc: svc}
}

// HandleIndex handles GET /.
func (h *Handlers) HandleIndex(c *gin.Context) {
	c.String(http.StatusOK, Banner)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleChemistryCheck handles POST /chem/check.
//
// Description:
//
//	Compares the test expression against the target expression with the
//	chemistry checker.
//
// Request Body:
//
//	CheckRequest
//
// Response:
//
//	201 Created: response.Response
//	400 Bad Request: Validation error
//	502 Bad Gateway: Grammar service unavailable
func (h *Handlers) HandleChemistryCheck(c *gin.Context) {
	h.handleCheck(c, parser.DomainChemistry, "HandleChemistryCheck")
}

// HandleNuclearCheck handles POST /nuclear/check.
//
// Description:
//
//	Compares the test expression against the target expression with the
//	nuclear checker.
//
// Request Body:
//
//	CheckRequest
//
// Response:
//
//	201 Created: response.Response
//	400 Bad Request: Validation error
//	502 Bad Gateway: Grammar service unavailable
func (h *Handlers) HandleNuclearCheck(c *gin.Context) {
	h.handleCheck(c, parser.DomainNuclear, "HandleNuclearCheck")
}

// HandleChemistryParse handles POST /chem/parse.
//
// Response:
//
//	201 Created: ParseResponse with the augmented tree
//	400 Bad Request: Validation error
func (h *Handlers) HandleChemistryParse(c *gin.Context) {
	h.handleParse(c, parser.DomainChemistry, "HandleChemistryParse")
}

// HandleNuclearParse handles POST /nuclear/parse.
//
// Response:
//
//	201 Created: ParseResponse with the augmented tree
//	400 Bad Request: Validation error
func (h *Handlers) HandleNuclearParse(c *gin.Context) {
	h.handleParse(c, parser.DomainNuclear, "HandleNuclearParse")
}

func (h *Handlers) handleCheck(c *gin.Context, domain parser.Domain, name string) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", name)
	metrics := h.svc.Metrics()

	var req CheckRequest
	if !bindRequest(c, logger, &req, req.descriptionOf) {
		metrics.RecordRequest(string(domain), "check", false)
		return
	}

	logger.Info("Check request",
		"question_id", req.QuestionID,
		"target", req.Target,
		"test", req.Test)

	var opts response.Options
	if req.Options != nil {
		opts = *req.Options
	}

	resp, err := h.svc.Check(c.Request.Context(), domain, req.Test, req.Target, opts)
	if err != nil {
		metrics.RecordRequest(string(domain), "check", false)
		writeServiceError(c, logger, err)
		return
	}

	logger.Info("Check response",
		"question_id", req.QuestionID,
		"is_equal", resp.IsEqual,
		"response", resp)

	metrics.RecordRequest(string(domain), "check", true)
	c.JSON(http.StatusCreated, resp)
}

func (h *Handlers) handleParse(c *gin.Context, domain parser.Domain, name string) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", name)
	metrics := h.svc.Metrics()

	var req ParseRequest
	if !bindRequest(c, logger, &req, req.descriptionOf) {
		metrics.RecordRequest(string(domain), "parse", false)
		return
	}

	result, err := h.svc.Parse(c.Request.Context(), domain, req.Test)
	if err != nil {
		metrics.RecordRequest(string(domain), "parse", false)
		writeServiceError(c, logger, err)
		return
	}

	logger.Info("Parsed request",
		"description", req.Description,
		"result", result)

	metrics.RecordRequest(string(domain), "parse", true)
	c.JSON(http.StatusCreated, result)
}

func (r *CheckRequest) descriptionOf() any { return r.Description }
func (r *ParseRequest) descriptionOf() any { return r.Description }

// bindRequest decodes and validates the body into req.
//
// Description:
//
//	Field errors from the validator and a non-string description are
//	collected into one 400 response. A body that is not valid JSON for the
//	request type is rejected without field detail.
//
// Outputs:
//
//	bool - True if req is valid. When false a response has been written.
func bindRequest(c *gin.Context, logger *slog.Logger, req any, description func() any) bool {
	var fieldErrs []ValidationError
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid request body",
				Code:    errCodeInvalidRequest,
				Details: err.Error(),
			})
			return false
		}
		for _, fe := range verrs {
			fieldErrs = append(fieldErrs, validationError(fe))
		}
	}
	if d := description(); d != nil {
		if _, ok := d.(string); !ok {
			fieldErrs = append(fieldErrs, ValidationError{
				Param:    "description",
				Msg:      MsgDescriptionString,
				Location: validationLocation,
			})
		}
	}
	if len(fieldErrs) == 0 {
		return true
	}

	logger.Warn("Request failed validation", "errors", len(fieldErrs))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:  "Request failed validation",
		Code:   errCodeInvalidRequest,
		Errors: fieldErrs,
	})
	return false
}

func validationError(fe validator.FieldError) ValidationError {
	switch fe.StructField() {
	case "Target":
		return ValidationError{Param: "target", Msg: MsgTargetRequired, Location: validationLocation}
	case "Test":
		return ValidationError{Param: "test", Msg: MsgTestRequired, Location: validationLocation}
	default:
		return ValidationError{Param: fe.Field(), Msg: fe.Error(), Location: validationLocation}
	}
}

// writeServiceError maps a Service error onto a status and error code.
func writeServiceError(c *gin.Context, logger *slog.Logger, err error) {
	statusCode := http.StatusInternalServerError
	errCode := "CHECK_FAILED"

	if errors.Is(err, ErrEmptyExpression) {
		statusCode = http.StatusBadRequest
		errCode = "EMPTY_EXPRESSION"
	} else if errors.Is(err, ErrUnknownDomain) {
		statusCode = http.StatusNotFound
		errCode = "UNKNOWN_DOMAIN"
	} else if errors.Is(err, context.DeadlineExceeded) {
		statusCode = http.StatusGatewayTimeout
		errCode = "PARSER_TIMEOUT"
	} else if errors.Is(err, ErrParserUnavailable) {
		statusCode = http.StatusBadGateway
		errCode = "PARSER_UNAVAILABLE"
	}

	logger.Error("Request failed", "error", err, "status", statusCode)
	c.JSON(statusCode, ErrorResponse{
		Error: err.Error(),
		Code:  errCode,
	})
}

// getOrCreateRequestID returns the caller's X-Request-ID or a new one, and
// echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}

// recoverPanic logs a panic and writes the generic 500 body.
func recoverPanic(c *gin.Context, recovered any) {
	slog.Error("Request panicked", "panic", recovered, "path", c.Request.URL.Path)
	c.String(http.StatusInternalServerError, "Something went wrong")
	c.Abort()
}
