// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides the dashboard configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the dashboard configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Data      Data      `yaml:"data"`
	Log       Log       `yaml:"log"`
	Dashboard Dashboard `yaml:"dashboard"`
}

// Server is the HTTP server configuration.
type Server struct {
	Host        string   `yaml:"host" validate:"required"`
	Port        int      `yaml:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `yaml:"cors_origins" validate:"dive,required"`
}

// Addr returns the listen address of the server.
func (s Server) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// Data is the data source configuration. When Ontology is empty the
// Edges table is used, and when that is empty the example ontology is
// used.
type Data struct {
	Ontology string `yaml:"ontology"`
	IRI      string `yaml:"iri" validate:"omitempty,uri"`
	// Edges and Nodes are CSV or XLSX table paths.
	Edges string `yaml:"edges"`
	Nodes string `yaml:"nodes" validate:"excluded_without=Edges"`
	// Sheet is the worksheet read from XLSX tables.
	Sheet string `yaml:"sheet"`
	// ABox includes individuals in the graph.
	ABox  bool `yaml:"abox"`
	Watch bool `yaml:"watch"`
}

// Log is the logging configuration.
type Log struct {
	// Dir is the directory holding the log file. No log file
	// is written when Dir is empty.
	Dir     string `yaml:"dir"`
	Verbose bool   `yaml:"verbose"`
}

// Dashboard is the dashboard behavior configuration.
type Dashboard struct {
	Directed      bool           `yaml:"directed"`
	CategoryLimit int            `yaml:"category_limit" validate:"min=1,max=20"`
	HistoryLength int            `yaml:"history_length" validate:"min=1"`
	VisOptions    map[string]any `yaml:"vis_options"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Host: "127.0.0.1",
			Port: 8050,
		},
		Log: Log{Dir: "."},
		Dashboard: Dashboard{
			CategoryLimit: 20,
			HistoryLength: 5,
		},
	}
}

// Load returns the default configuration overlaid with the YAML file at
// path, if path is not empty, and then with JAAL_* environment variables.
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		err = cfg.decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	err := cfg.overlayEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// overlayEnv applies JAAL_* environment variables to the configuration.
func (c *Config) overlayEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"JAAL_HOST":     &c.Server.Host,
		"JAAL_ONTOLOGY": &c.Data.Ontology,
		"JAAL_IRI":      &c.Data.IRI,
		"JAAL_EDGES":    &c.Data.Edges,
		"JAAL_NODES":    &c.Data.Nodes,
		"JAAL_SHEET":    &c.Data.Sheet,
		"JAAL_LOG_DIR":  &c.Log.Dir,
	}
	for k, p := range str {
		if v, ok := lookup(k); ok {
			*p = v
		}
	}

	integer := map[string]*int{
		"JAAL_PORT":           &c.Server.Port,
		"JAAL_CATEGORY_LIMIT": &c.Dashboard.CategoryLimit,
		"JAAL_HISTORY_LENGTH": &c.Dashboard.HistoryLength,
	}
	for k, p := range integer {
		if v, ok := lookup(k); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("config: invalid %s: %w", k, err)
			}
			*p = n
		}
	}

	boolean := map[string]*bool{
		"JAAL_ABOX":     &c.Data.ABox,
		"JAAL_WATCH":    &c.Data.Watch,
		"JAAL_VERBOSE":  &c.Log.Verbose,
		"JAAL_DIRECTED": &c.Dashboard.Directed,
	}
	for k, p := range boolean {
		if v, ok := lookup(k); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: invalid %s: %w", k, err)
			}
			*p = b
		}
	}

	if v, ok := lookup("JAAL_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
