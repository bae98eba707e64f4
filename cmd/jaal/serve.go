// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kortschak/jaal/internal/dashboard"
	"github.com/kortschak/jaal/internal/server"
	"github.com/kortschak/jaal/internal/watch"
)

var serveFlags struct {
	host     string
	port     int
	directed bool
	watch    bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("host") {
			cfg.Server.Host = serveFlags.host
		}
		if f.Changed("port") {
			cfg.Server.Port = serveFlags.port
		}
		if f.Changed("directed") {
			cfg.Dashboard.Directed = serveFlags.directed
		}
		if f.Changed("watch") {
			cfg.Data.Watch = serveFlags.watch
		}
		err := cfg.Validate()
		if err != nil {
			return err
		}

		edges, nodes, o, err := loadData(logger)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		dash, err := dashboard.New(edges, nodes, o, logger,
			dashboard.WithMetrics(dashboard.NewMetrics(reg)),
			dashboard.WithCategoryLimit(cfg.Dashboard.CategoryLimit),
		)
		if err != nil {
			return err
		}
		srv := server.New(dash, server.Options{
			Addr:          cfg.Server.Addr(),
			Directed:      cfg.Dashboard.Directed,
			VisOptions:    cfg.Dashboard.VisOptions,
			CORSOrigins:   cfg.Server.CORSOrigins,
			HistoryLength: cfg.Dashboard.HistoryLength,
		}, logger, reg)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return srv.ListenAndServe(ctx)
		})
		if paths := dataPaths(); cfg.Data.Watch && len(paths) != 0 {
			g.Go(func() error {
				return watch.Watch(ctx, paths, watch.DefaultDelay, logger, func() error {
					edges, nodes, o, err := loadData(logger)
					if err != nil {
						return err
					}
					return dash.Reload(edges, nodes, o)
				})
			})
		}
		return g.Wait()
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.host, "host", "127.0.0.1", "listen host")
	f.IntVar(&serveFlags.port, "port", 8050, "listen port")
	f.BoolVar(&serveFlags.directed, "directed", false, "render directed edges")
	f.BoolVar(&serveFlags.watch, "watch", false, "reload data files when they change")
}
