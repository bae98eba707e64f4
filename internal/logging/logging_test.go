// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC))
	assert.Equal(t, "2021-03-04_05-06-07_jaal.log", got)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	log, path, err := New(dir, false)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "_jaal.log"))

	log.Info("parsed T-Boxes")
	log.Debug("not written")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "parsed T-Boxes", entry["msg"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewNoFile(t *testing.T) {
	log, path, err := New("", true)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, log.Core().Enabled(-1))
}
