// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging builds the slog logger used by the nuchem binaries.
//
// # Description
//
// The logger writes JSON or text to one destination and carries a
// service attribute on every record. Its level lives in a slog.LevelVar
// so a running server can change it without rebuilding handlers:
//
//	logger := logging.New(logging.Config{Level: slog.LevelInfo, JSON: true, Service: "nuchem"})
//	slog.SetDefault(logger.Slog())
//	logger.SetLevel(slog.LevelDebug)
//
// # Thread Safety
//
// Logger is safe for concurrent use.
//
// # Security Considerations
//
// Expressions and question IDs are logged as received. Callers must not
// log credentials.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config configures New.
type Config struct {
	// Level is the initial minimum level.
	Level slog.Level

	// JSON selects the JSON handler. False uses the text handler.
	JSON bool

	// Service is added to every record as "service". Empty omits it.
	Service string

	// Output receives records. Nil means os.Stderr.
	Output io.Writer
}

// Logger is a slog.Logger with an adjustable level.
type Logger struct {
	slog  *slog.Logger
	level *slog.LevelVar
}

// New creates a Logger from config.
func New(config Config) *Logger {
	level := new(slog.LevelVar)
	level.Set(config.Level)

	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	return &Logger{slog: slog.New(handler), level: level}
}

// Slog returns the underlying *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// SetLevel changes the minimum level of this logger and every logger
// derived from it.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}
