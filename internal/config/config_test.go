// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	cfg, err := Load("testdata/jaal.yaml")
	require.NoError(t, err)

	want := &Config{
		Server: Server{
			Host:        "0.0.0.0",
			Port:        9000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Data: Data{
			Ontology: "pizza.owl",
			IRI:      "http://example.org/pizza.owl",
			ABox:     true,
		},
		Log: Log{Dir: "/tmp/jaal"},
		Dashboard: Dashboard{
			Directed:      true,
			CategoryLimit: 20,
			HistoryLength: 10,
			VisOptions: map[string]any{
				"height":  "800px",
				"physics": map[string]any{"enabled": false},
			},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestOverlayEnv(t *testing.T) {
	env := map[string]string{
		"JAAL_PORT":         "8080",
		"JAAL_ABOX":         "true",
		"JAAL_CORS_ORIGINS": "http://a.example, http://b.example",
		"JAAL_EDGES":        "edges.csv",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.overlayEnv(lookup))
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.True(t, cfg.Data.ABox)
	assert.Equal(t, "edges.csv", cfg.Data.Edges)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
	assert.NoError(t, cfg.Validate())

	env["JAAL_PORT"] = "eighty"
	assert.Error(t, Default().overlayEnv(lookup))
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name   string
		modify func(*Config)
	}{
		{name: "port", modify: func(c *Config) { c.Server.Port = 0 }},
		{name: "host", modify: func(c *Config) { c.Server.Host = "" }},
		{name: "category limit", modify: func(c *Config) { c.Dashboard.CategoryLimit = 21 }},
		{name: "nodes without edges", modify: func(c *Config) { c.Data.Nodes = "nodes.csv" }},
	} {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestDecodeUnknownField(t *testing.T) {
	err := Default().decode(strings.NewReader("server:\n  hots: localhost\n"))
	assert.Error(t, err)
}
