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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RegisterRoutes registers all checker routes with the router.
//
// Description:
//
//	Registers the banner, health and domain endpoints with the given Gin
//	router group. The router group should already have any required
//	middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically the engine root)
//	handlers - The handlers instance
//
// Chemistry Endpoints:
//
//	POST /chem/check - Compare two chemistry expressions
//	POST /chem/parse - Parse and augment a chemistry expression
//
// Nuclear Endpoints:
//
//	POST /nuclear/check - Compare two nuclear expressions
//	POST /nuclear/parse - Parse and augment a nuclear expression
//
// Health Endpoints:
//
//	GET  / - Service banner
//	GET  /health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.GET("/", handlers.HandleIndex)
	rg.GET("/health", handlers.HandleHealth)

	chem := rg.Group("/chem")
	{
		chem.POST("/check", handlers.HandleChemistryCheck)
		chem.POST("/parse", handlers.HandleChemistryParse)
	}

	nuc := rg.Group("/nuclear")
	{
		nuc.POST("/check", handlers.HandleNuclearCheck)
		nuc.POST("/parse", handlers.HandleNuclearParse)
	}
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// ServiceName is the otelgin server name. Empty disables tracing
	// middleware.
	ServiceName string

	// MetricsPath serves Gatherer when both are set.
	MetricsPath string
	Gatherer    prometheus.Gatherer

	// AccessLog adds gin's request logger.
	AccessLog bool
}

// NewRouter builds the gin engine: panic recovery, tracing middleware, the
// optional metrics endpoint and the checker routes.
func NewRouter(handlers *Handlers, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(recoverPanic))
	if opts.AccessLog {
		router.Use(gin.Logger())
	}
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	if opts.MetricsPath != "" && opts.Gatherer != nil {
		router.GET(opts.MetricsPath, gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	RegisterRoutes(&router.RouterGroup, handlers)
	return router
}
