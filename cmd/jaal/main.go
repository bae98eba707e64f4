// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The jaal command serves an interactive dashboard for exploring OWL
// ontologies and graph tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kortschak/jaal/internal/config"
	"github.com/kortschak/jaal/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jaal",
	Short: "Interactive ontology graph dashboard",
	Long: `jaal renders the classes, properties and individuals of an OWL ontology,
or a pair of edge and node tables, as an interactive network.

Without a data source the example pizza ontology is used.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Log.Verbose = verbose
		}
		applyDataFlags(cmd.Flags())
		err = cfg.Validate()
		if err != nil {
			return err
		}
		// Only dashboard sessions are recorded in a log file.
		logDir := cfg.Log.Dir
		if cmd.Name() != "serve" {
			logDir = ""
		}
		var path string
		logger, path, err = logging.New(logDir, cfg.Log.Verbose)
		if err != nil {
			return err
		}
		if path != "" {
			logger.Debug("logging to file", zap.String("path", path))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	addDataFlags(rootCmd)
	rootCmd.AddCommand(serveCmd, exportCmd, queryCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
