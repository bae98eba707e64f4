// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kortschak/jaal/internal/dashboard"
	"github.com/kortschak/jaal/table"
	"github.com/kortschak/jaal/vis"
)

//go:embed static/index.html
var static embed.FS

var page = template.Must(template.ParseFS(static, "static/index.html"))

type searchRequest struct {
	Text string `json:"text" validate:"max=1024"`
}

type queryRequest struct {
	Query string `json:"query" validate:"required,max=65536"`
}

type featureRequest struct {
	Feature string `json:"feature" validate:"required"`
}

type queryResponse struct {
	Graph   *vis.Data `json:"graph"`
	Result  string    `json:"result"`
	History string    `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	title := "Jaal"
	if o := s.dash.Ontology(); o != nil {
		title += " - " + o.Name()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := page.Execute(w, struct{ Title string }{title})
	if err != nil {
		s.log.Error("failed to render page", zap.Error(err))
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.dash.Data())
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, vis.Options(s.opts.Directed, s.opts.VisOptions))
}

func (s *Server) features(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.dash.Features())
}

func (s *Server) legend(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.dash.Legend())
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respond(w, http.StatusOK, s.dash.Search(req.Text))
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}
	data, result := s.dash.Evaluate(req.Query)
	s.respond(w, http.StatusOK, queryResponse{
		Graph:   data,
		Result:  result,
		History: s.dash.History(s.opts.HistoryLength),
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	n := s.opts.HistoryLength
	if v := r.URL.Query().Get("n"); v != "" {
		var err error
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 {
			s.error(w, http.StatusBadRequest, fmt.Errorf("invalid history length %q", v))
			return
		}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"text":    s.dash.History(n),
		"entries": s.dash.HistoryEntries(n),
	})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	s.dash.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) color(w http.ResponseWriter, r *http.Request) {
	s.style(w, r, s.dash.ColorNodes, s.dash.ColorEdges)
}

func (s *Server) size(w http.ResponseWriter, r *http.Request) {
	s.style(w, r, s.dash.SizeNodes, s.dash.SizeEdges)
}

// style applies the requested feature with the node or edge styling
// function named by the target URL parameter.
func (s *Server) style(w http.ResponseWriter, r *http.Request, nodes, edges func(string) (*vis.Data, error)) {
	var req featureRequest
	if !s.decode(w, r, &req) {
		return
	}
	var apply func(string) (*vis.Data, error)
	switch target := chi.URLParam(r, "target"); target {
	case "nodes":
		apply = nodes
	case "edges":
		apply = edges
	default:
		s.error(w, http.StatusNotFound, fmt.Errorf("unknown target %q", target))
		return
	}
	data, err := apply(req.Feature)
	switch {
	case errors.Is(err, dashboard.ErrUnknownFeature):
		s.error(w, http.StatusBadRequest, err)
	case err != nil:
		s.error(w, http.StatusUnprocessableEntity, err)
	default:
		s.respond(w, http.StatusOK, data)
	}
}

func (s *Server) tableCSV(w http.ResponseWriter, r *http.Request) {
	edges, nodes := s.dash.Tables()
	var t *table.Table
	switch name := chi.URLParam(r, "name"); name {
	case "edges":
		t = edges
	case "nodes":
		t = nodes
	default:
		s.error(w, http.StatusNotFound, fmt.Errorf("unknown table %q", name))
		return
	}
	if t == nil {
		s.error(w, http.StatusNotFound, errors.New("no node table"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	err := t.WriteCSV(w)
	if err != nil {
		s.log.Error("failed to write table", zap.Error(err))
	}
}

func (s *Server) tablesXLSX(w http.ResponseWriter, r *http.Request) {
	edges, nodes := s.dash.Tables()
	sheets := []table.Sheet{{Name: "edges", Table: edges}}
	if nodes != nil {
		sheets = append(sheets, table.Sheet{Name: "nodes", Table: nodes})
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="jaal.xlsx"`)
	err := table.WriteXLSX(w, sheets...)
	if err != nil {
		s.log.Error("failed to write workbook", zap.Error(err))
	}
}

// decode decodes and validates the JSON request body into v. It writes an
// error response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		s.error(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	err = s.validate.Struct(v)
	if err != nil {
		s.error(w, http.StatusBadRequest, fmt.Errorf("validation error: %w", err))
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) error(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, errorResponse{Error: err.Error()})
}
