// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, JSON: true, Service: "nuchem", Output: &buf})

	logger.Slog().Info("Check request", "question_id", "q1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Check request", record["msg"])
	assert.Equal(t, "nuchem", record["service"])
	assert.Equal(t, "q1", record["question_id"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	logger.Slog().Warn("Config watcher error")

	assert.True(t, strings.Contains(buf.String(), "level=WARN"), buf.String())
	assert.NotContains(t, buf.String(), "service=")
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	child := logger.Slog().With("handler", "HandleChemistryCheck")

	child.Info("dropped")
	assert.Empty(t, buf.String())

	logger.SetLevel(slog.LevelDebug)
	child.Debug("kept")

	assert.Equal(t, slog.LevelDebug, logger.Level())
	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}
