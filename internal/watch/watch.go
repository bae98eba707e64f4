// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch reloads data files when they change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDelay is the default debounce delay.
const DefaultDelay = 500 * time.Millisecond

// Watch calls reload after any of the files at paths is written, created
// or renamed, waiting until no change has been seen for delay. It blocks
// until ctx is cancelled. Errors returned by reload are logged.
func Watch(ctx context.Context, paths []string, delay time.Duration, log *zap.Logger, reload func() error) error {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	// Watch the directories since editors often replace files.
	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		p, err = filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		files[p] = true
		dir := filepath.Dir(p)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		err = w.Add(dir)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		log.Debug("watching", zap.String("dir", dir))
	}

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !files[name] {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Info("data file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(delay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("file watcher error", zap.Error(err))
		case <-timer.C:
			err := reload()
			if err != nil {
				log.Error("reload failed", zap.Error(err))
				continue
			}
			log.Info("reloaded data")
		}
	}
}
