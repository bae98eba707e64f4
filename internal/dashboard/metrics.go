// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dashboard

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the dashboard's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	Queries  *prometheus.CounterVec
	Searches prometheus.Counter
	Reloads  prometheus.Counter
}

// NewMetrics returns dashboard metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "jaal",
				Name:      "queries_total",
				Help:      "Total number of SPARQL queries evaluated.",
			},
			[]string{"status"},
		),
		Searches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jaal",
				Name:      "searches_total",
				Help:      "Total number of graph searches.",
			},
		),
		Reloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "jaal",
				Name:      "reloads_total",
				Help:      "Total number of data reloads.",
			},
		),
	}
	reg.MustRegister(m.Queries, m.Searches, m.Reloads)
	return m
}

func (m *Metrics) query(status string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(status).Inc()
}

func (m *Metrics) search() {
	if m == nil {
		return
	}
	m.Searches.Inc()
}

func (m *Metrics) reload() {
	if m == nil {
		return
	}
	m.Reloads.Inc()
}
