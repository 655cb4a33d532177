// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last file event before
// reloading.
const DefaultDebounce = 250 * time.Millisecond

// ChangeHandler receives a freshly loaded and validated configuration.
type ChangeHandler func(Config)

// Watch reloads the configuration at path whenever it changes.
//
// # Description
//
// The parent directory is watched rather than the file itself so editors
// that replace the file by rename are still seen. Events are debounced.
// A reload that fails to read, parse or validate is logged and the handler
// is not called; the previous configuration stays in effect.
//
// Watch blocks until ctx is cancelled.
//
// # Inputs
//
//   - ctx: Stops the watcher when cancelled.
//   - path: The config file.
//   - debounce: Quiet period before reloading. Zero uses DefaultDebounce.
//   - onChange: Called with each successfully reloaded configuration.
//
// # Outputs
//
//   - error: Non-nil if the watcher could not be started.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange ChangeHandler) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	logger := slog.With("component", "config_watcher", "path", abs)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("Ignoring invalid config change", "error", err)
				continue
			}
			logger.Info("Config reloaded")
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", "error", err)
		}
	}
}
