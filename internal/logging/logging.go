// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logging builds the dashboard's structured logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileLayout is the time layout of log file names.
const FileLayout = "2006-01-02_15-04-05"

// FileName returns the name of the log file for a session started at t.
func FileName(t time.Time) string {
	return t.Format(FileLayout) + "_jaal.log"
}

// New returns a logger writing JSON to stderr and, when dir is not empty,
// to a log file in dir named for the current time. The path of the log
// file is returned. Debug messages are included when verbose is true.
func New(dir string, verbose bool) (*zap.Logger, string, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.Sampling = nil

	var path string
	if dir != "" {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return nil, "", fmt.Errorf("logging: %w", err)
		}
		path = filepath.Join(dir, FileName(time.Now()))
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, "", fmt.Errorf("logging: %w", err)
	}
	return log, path, nil
}
