// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/kortschak/jaal"
	"github.com/kortschak/jaal/dataset"
	"github.com/kortschak/jaal/internal/dashboard"
	"github.com/kortschak/jaal/table"
	"github.com/kortschak/jaal/vis"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T, opts Options) *Server {
	t.Helper()
	e, err := dataset.LoadOntology()
	require.NoError(t, err)
	o := e.Ontology()
	edges, nodes := jaal.Tables(o, true, nil)
	log := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	d, err := dashboard.New(edges.Table(), nodes.Table(), o, log, dashboard.WithMetrics(dashboard.NewMetrics(reg)))
	require.NoError(t, err)
	return New(d, opts, log, reg)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body)
	return v
}

type graph struct {
	Nodes []map[string]any `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

type queryResult struct {
	Graph   graph  `json:"graph"`
	Result  string `json:"result"`
	History string `json:"history"`
}

func TestIndex(t *testing.T) {
	h := newServer(t, Options{}).Handler()

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<title>Jaal - onto-got</title>")

	w = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"status": "healthy"}, decode[map[string]string](t, w))
}

func TestGraph(t *testing.T) {
	h := newServer(t, Options{Directed: true, VisOptions: map[string]any{"height": "800px"}}).Handler()

	w := do(t, h, http.MethodGet, "/api/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	g := decode[graph](t, w)
	assert.NotEmpty(t, g.Nodes)
	assert.NotEmpty(t, g.Edges)

	w = do(t, h, http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, w.Code)
	opts := decode[map[string]any](t, w)
	assert.Equal(t, "800px", opts["height"])
	assert.Equal(t, map[string]any{"to": true}, opts["edges"].(map[string]any)["arrows"])

	w = do(t, h, http.MethodGet, "/api/features", "")
	require.Equal(t, http.StatusOK, w.Code)
	f := decode[dashboard.Features](t, w)
	assert.Equal(t, []string{vis.None, "importance"}, f.NodeSize)

	w = do(t, h, http.MethodGet, "/api/legend", "")
	require.Equal(t, http.StatusOK, w.Code)
	legend := decode[[]vis.LegendSection](t, w)
	require.Len(t, legend, 2)
	assert.Equal(t, "Node legends", legend[0].Title)
}

func TestSearch(t *testing.T) {
	h := newServer(t, Options{}).Handler()

	w := do(t, h, http.MethodPost, "/api/search", `{"text":"topping"}`)
	require.Equal(t, http.StatusOK, w.Code)
	for _, n := range decode[graph](t, w).Nodes {
		if strings.Contains(n["label"].(string), "topping") {
			assert.Equal(t, false, n["hidden"], "node %v hidden", n["id"])
		}
	}

	w = do(t, h, http.MethodPost, "/api/search", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuery(t *testing.T) {
	h := newServer(t, Options{HistoryLength: 2}).Handler()

	body := func(q string) string {
		b, err := json.Marshal(queryRequest{Query: q})
		require.NoError(t, err)
		return string(b)
	}

	queries := []string{
		`SELECT ?c WHERE { ?c rdfs:subClassOf :pizza_topping }`,
		`SELECT (COUNT(?c) AS ?n) WHERE { ?c a owl:Class }`,
		`SELECT ?c WHERE { ?c rdfs:subClassOf :pizza_base }`,
	}
	var resp queryResult
	for _, q := range queries {
		w := do(t, h, http.MethodPost, "/api/query", body(q))
		require.Equal(t, http.StatusOK, w.Code)
		resp = decode[queryResult](t, w)
	}
	assert.Equal(t, "thin_and_crispy_base\ndeep_pan_base\n", resp.Result)
	assert.Len(t, resp.Graph.Nodes, 2)
	assert.Equal(t, "2: "+queries[1]+"\n3: "+queries[2]+"\n", resp.History)

	w := do(t, h, http.MethodPost, "/api/query", body(`SELECT nonsense`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dashboard.InvalidQuery, decode[queryResult](t, w).Result)

	w = do(t, h, http.MethodPost, "/api/query", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodGet, "/api/history?n=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Text    string            `json:"text"`
		Entries []dashboard.Entry `json:"entries"`
	}](t, w)
	assert.Equal(t, "3: "+queries[2]+"\n", hist.Text)
	require.Len(t, hist.Entries, 1)
	assert.Equal(t, 3, hist.Entries[0].Seq)

	w = do(t, h, http.MethodGet, "/api/history?n=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/api/history", "")
	assert.Equal(t, "", decode[map[string]any](t, w)["text"])
}

func TestStyle(t *testing.T) {
	h := newServer(t, Options{}).Handler()

	w := do(t, h, http.MethodPost, "/api/color/nodes", `{"feature":"None"}`)
	require.Equal(t, http.StatusOK, w.Code)
	for _, n := range decode[graph](t, w).Nodes {
		assert.Equal(t, vis.DefaultColor, n["color"])
	}

	w = do(t, h, http.MethodPost, "/api/color/edges", `{"feature":"not_a_feature"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorResponse](t, w).Error, "feature not available")

	w = do(t, h, http.MethodPost, "/api/size/nodes", `{"feature":"T/A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/color/faces", `{"feature":"None"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/api/color/nodes", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/size/nodes", `{"feature":"importance"}`)
	require.Equal(t, http.StatusOK, w.Code)
	sizes := make(map[string]float64)
	for _, n := range decode[graph](t, w).Nodes {
		sizes[n["id"].(string)] = n["size"].(float64)
	}
	assert.Equal(t, float64(vis.DefaultNodeSize)+20, sizes["pizza_topping"])
	assert.Equal(t, float64(vis.DefaultNodeSize), sizes["company"])

	w = do(t, h, http.MethodPost, "/api/size/edges", `{"feature":"None"}`)
	require.Equal(t, http.StatusOK, w.Code)
	for _, e := range decode[graph](t, w).Edges {
		assert.Equal(t, float64(vis.DefaultEdgeSize), e["width"])
	}
}

func TestTables(t *testing.T) {
	h := newServer(t, Options{}).Handler()

	w := do(t, h, http.MethodGet, "/api/tables/edges.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "from,to,id,weight,label,dashes\n"))

	w = do(t, h, http.MethodGet, "/api/tables/nodes.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	nodes, err := table.ReadCSV(w.Body)
	require.NoError(t, err)
	assert.True(t, nodes.Has("importance"))

	w = do(t, h, http.MethodGet, "/api/tables/vertices.csv", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/tables.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	edges, err := table.ReadXLSX(bytes.NewReader(w.Body.Bytes()), "edges")
	require.NoError(t, err)
	assert.Greater(t, edges.Len(), 0)
}

func TestMetrics(t *testing.T) {
	h := newServer(t, Options{}).Handler()

	do(t, h, http.MethodGet, "/api/graph", "")
	do(t, h, http.MethodPost, "/api/search", `{"text":"pizza"}`)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `jaal_http_requests_total{method="GET",route="/api/graph",status="200"} 1`)
	assert.Contains(t, body, "jaal_searches_total 1")
}

func TestCORS(t *testing.T) {
	h := newServer(t, Options{CORSOrigins: []string{"http://example.org"}}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	req.Header.Set("Origin", "http://example.org")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "http://example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	req.Header.Set("Origin", "http://example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s := newServer(t, Options{Addr: addr})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/health")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
