// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dashboard holds the state of an interactive ontology graph
// dashboard session.
package dashboard

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/sparql"
	"github.com/kortschak/jaal/table"
	"github.com/kortschak/jaal/vis"
)

// InvalidQuery is the result text reported for queries that cannot be
// evaluated.
const InvalidQuery = "Not a valid SPARQL query."

// DefaultCategoryLimit is the maximum number of distinct values a string
// column may hold to be offered as a color feature.
const DefaultCategoryLimit = 20

var (
	// ErrNoOntology is returned when a query is evaluated without an
	// ontology.
	ErrNoOntology = errors.New("dashboard: no ontology")

	// ErrUnknownFeature is returned when a style is requested for a
	// feature that is not offered.
	ErrUnknownFeature = errors.New("dashboard: feature not available")
)

// Dashboard is a dashboard session. It is safe for concurrent use.
type Dashboard struct {
	mu sync.Mutex

	log     *zap.Logger
	metrics *Metrics
	rnd     *rand.Rand
	limit   int

	edges, nodes *table.Table
	onto         *jaal.Ontology

	// base holds the styled full graph. data is base
	// restricted by filter and search.
	base    *vis.Data
	data    *vis.Data
	scaling vis.Scaling
	filter  map[string]bool
	search  string

	features   Features
	nodeColors map[string]string
	edgeColors map[string]string

	history []Entry
}

// Features holds the features offered for coloring and sizing.
type Features struct {
	NodeColor []string `json:"node_color"`
	EdgeColor []string `json:"edge_color"`
	NodeSize  []string `json:"node_size"`
	EdgeSize  []string `json:"edge_size"`
}

// Entry is a query history entry.
type Entry struct {
	ID    uuid.UUID `json:"id"`
	Seq   int       `json:"seq"`
	Query string    `json:"query"`
	Time  time.Time `json:"time"`
}

// String returns the entry formatted as "seq: query".
func (e Entry) String() string {
	return strconv.Itoa(e.Seq) + ": " + e.Query
}

// Option is a dashboard configuration option.
type Option func(*Dashboard)

// WithRand sets the random source used to choose colors.
func WithRand(rnd *rand.Rand) Option {
	return func(d *Dashboard) { d.rnd = rnd }
}

// WithMetrics sets the metrics the dashboard reports to.
func WithMetrics(m *Metrics) Option {
	return func(d *Dashboard) { d.metrics = m }
}

// WithCategoryLimit sets the maximum number of distinct values of a
// string column offered as a color feature.
func WithCategoryLimit(n int) Option {
	return func(d *Dashboard) { d.limit = n }
}

// New returns a new dashboard for the given edge and node tables and
// ontology. nodes and o may be nil. The first feature offered for each of
// node and edge coloring and sizing is applied.
func New(edges, nodes *table.Table, o *jaal.Ontology, log *zap.Logger, opts ...Option) (*Dashboard, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dashboard{log: log, limit: DefaultCategoryLimit}
	for _, opt := range opts {
		opt(d)
	}
	err := d.load(edges, nodes, o)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Reload replaces the data of the dashboard. The query history is kept.
func (d *Dashboard) Reload(edges, nodes *table.Table, o *jaal.Ontology) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.load(edges, nodes, o)
	if err != nil {
		return err
	}
	d.metrics.reload()
	d.log.Info("reloaded data", zap.Int("nodes", len(d.base.Nodes)), zap.Int("edges", len(d.base.Edges)))
	return nil
}

func (d *Dashboard) load(edges, nodes *table.Table, o *jaal.Ontology) error {
	data, scaling, err := vis.Parse(edges, nodes, d.log)
	if err != nil {
		return err
	}
	d.edges, d.nodes, d.onto = edges, nodes, o
	d.scaling = scaling
	d.features = Features{
		NodeColor: vis.CategoricalFeatures(nodes, d.limit, vis.NodeExclusions),
		EdgeColor: vis.CategoricalFeatures(edges, d.limit, vis.EdgeExclusions),
		NodeSize:  vis.NumericalFeatures(nodes),
		EdgeSize:  vis.NumericalFeatures(edges),
	}
	d.nodeColors, d.edgeColors = nil, nil

	// Apply the first real feature of each kind.
	err = d.colorNodes(data, initial(d.features.NodeColor))
	if err != nil {
		d.log.Warn("initial node coloring failed", zap.Error(err))
	}
	err = d.colorEdges(data, initial(d.features.EdgeColor))
	if err != nil {
		d.log.Warn("initial edge coloring failed", zap.Error(err))
	}
	vis.SizeNodes(data, initial(d.features.NodeSize), d.scaling)
	vis.SizeEdges(data, initial(d.features.EdgeSize))

	d.base = data
	d.filter, d.search = nil, ""
	d.data = d.view()
	return nil
}

// view returns a copy of the base graph holding only the nodes kept by
// the query filter, with nodes not matching the search hidden.
func (d *Dashboard) view() *vis.Data {
	data := d.base.Clone()
	if d.filter != nil {
		kept := data.Nodes[:0]
		for _, n := range data.Nodes {
			if d.filter[n.ID] {
				kept = append(kept, n)
			}
		}
		data.Nodes = kept
	}
	if d.search != "" {
		vis.Search(data, d.search)
	}
	return data
}

func initial(features []string) string {
	if len(features) > 1 {
		return features[1]
	}
	return vis.None
}

// Data returns a copy of the current graph data.
func (d *Dashboard) Data() *vis.Data {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data.Clone()
}

// Tables returns the edge and node tables the dashboard was created with.
// The node table may be nil.
func (d *Dashboard) Tables() (edges, nodes *table.Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.edges, d.nodes
}

// Ontology returns the ontology of the dashboard. It may be nil.
func (d *Dashboard) Ontology() *jaal.Ontology {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.onto
}

// Scaling returns the value ranges of the numeric node and edge columns.
func (d *Dashboard) Scaling() vis.Scaling {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scaling
}

// Features returns the features offered for coloring and sizing.
func (d *Dashboard) Features() Features {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.features
}

// Search hides the nodes of the current graph that do not match text and
// returns the result.
func (d *Dashboard) Search(text string) *vis.Data {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.search = text
	d.data = d.view()
	d.metrics.search()
	d.log.Debug("search", zap.String("text", text))
	return d.data.Clone()
}

// Evaluate evaluates the SPARQL query against the ontology. When the
// results are all integers, such as counts, the graph is reset to the full
// data set. Otherwise only nodes named by a result are kept. Any search is
// cleared. The returned text holds the result names, one per line, or
// InvalidQuery if the query could not be evaluated, in which case the
// graph is reset.
func (d *Dashboard) Evaluate(query string) (*vis.Data, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.exec(query)
	if err != nil {
		d.metrics.query("invalid")
		d.log.Warn("invalid query", zap.String("query", query), zap.Error(err))
		d.filter, d.search = nil, ""
		d.data = d.view()
		return d.data.Clone(), InvalidQuery
	}
	d.metrics.query("ok")

	terms := res.Flatten()
	var text strings.Builder
	names := make(map[string]bool)
	counts := true
	for _, t := range terms {
		name := d.termName(t)
		text.WriteString(name)
		text.WriteByte('\n')
		names[name] = true
		if !isInteger(t) {
			counts = false
		}
	}

	d.filter, d.search = nil, ""
	if !counts {
		d.filter = names
	}
	d.data = d.view()

	d.history = append(d.history, Entry{
		ID:    uuid.New(),
		Seq:   len(d.history) + 1,
		Query: query,
		Time:  time.Now(),
	})
	d.log.Info("evaluated query", zap.String("query", query), zap.Int("results", len(terms)), zap.Int("nodes", len(d.data.Nodes)))
	return d.data.Clone(), text.String()
}

func (d *Dashboard) exec(query string) (*sparql.Results, error) {
	if d.onto == nil {
		return nil, ErrNoOntology
	}
	prefixes := map[string]string{"": d.onto.IRI() + "#"}
	return sparql.Exec(d.onto.Graph(), query, prefixes)
}

// termName returns the display name of a query result term.
func (d *Dashboard) termName(t rdf.Term) string {
	text, _, kind, err := t.Parts()
	if err != nil {
		return t.Value
	}
	switch kind {
	case rdf.IRI:
		return d.onto.EntityName(t)
	case rdf.Blank:
		return "_:" + text
	default:
		return text
	}
}

// isInteger returns whether t is an integer literal.
func isInteger(t rdf.Term) bool {
	_, qual, kind, err := t.Parts()
	if err != nil || kind != rdf.Literal {
		return false
	}
	switch jaal.DatatypeName(strings.Trim(strings.TrimPrefix(qual, "^^"), "<>")) {
	case "integer", "negativeInteger", "nonPositiveInteger":
		return true
	}
	return false
}

// History returns the last n query history entries formatted one per line
// as "seq: query".
func (d *Dashboard) History(n int) string {
	var buf strings.Builder
	for _, e := range d.HistoryEntries(n) {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

// HistoryEntries returns the last n query history entries.
func (d *Dashboard) HistoryEntries(n int) []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.history
	if n >= 0 && len(h) > n {
		h = h[len(h)-n:]
	}
	return append([]Entry(nil), h...)
}

// ClearHistory clears the query history and restarts its numbering.
func (d *Dashboard) ClearHistory() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = nil
}

// ColorNodes colors the nodes of the graph by the named feature. The
// feature must be one of those offered by Features.
func (d *Dashboard) ColorNodes(feature string) (*vis.Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := offered(d.features.NodeColor, feature)
	if err != nil {
		return nil, err
	}
	err = d.colorNodes(d.base, feature)
	if err != nil {
		return nil, err
	}
	d.data = d.view()
	return d.data.Clone(), nil
}

func (d *Dashboard) colorNodes(data *vis.Data, feature string) error {
	m, err := vis.ColorNodes(data, feature, d.rnd)
	if err != nil {
		return err
	}
	d.nodeColors = m
	return nil
}

// ColorEdges colors the edges of the graph by the named feature. The
// feature must be one of those offered by Features.
func (d *Dashboard) ColorEdges(feature string) (*vis.Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := offered(d.features.EdgeColor, feature)
	if err != nil {
		return nil, err
	}
	err = d.colorEdges(d.base, feature)
	if err != nil {
		return nil, err
	}
	d.data = d.view()
	return d.data.Clone(), nil
}

func (d *Dashboard) colorEdges(data *vis.Data, feature string) error {
	m, err := vis.ColorEdges(data, feature, d.rnd)
	if err != nil {
		return err
	}
	d.edgeColors = m
	return nil
}

// SizeNodes sizes the nodes of the graph by the named feature. The
// feature must be one of those offered by Features.
func (d *Dashboard) SizeNodes(feature string) (*vis.Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := offered(d.features.NodeSize, feature)
	if err != nil {
		return nil, err
	}
	vis.SizeNodes(d.base, feature, d.scaling)
	d.data = d.view()
	return d.data.Clone(), nil
}

// SizeEdges sizes the edges of the graph by the named feature. The
// feature must be one of those offered by Features.
func (d *Dashboard) SizeEdges(feature string) (*vis.Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := offered(d.features.EdgeSize, feature)
	if err != nil {
		return nil, err
	}
	vis.SizeEdges(d.base, feature)
	d.data = d.view()
	return d.data.Clone(), nil
}

func offered(features []string, f string) error {
	if !slices.Contains(features, f) {
		return fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	return nil
}

// Legend returns the color legend of the current graph.
func (d *Dashboard) Legend() []vis.LegendSection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return vis.Legend(d.nodeColors, d.edgeColors)
}
