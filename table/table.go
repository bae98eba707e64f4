// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package table provides simple typed tables for node and edge data.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNoColumn is returned when a named column does not exist.
	ErrNoColumn = errors.New("table: no such column")

	// ErrRowLength is returned when a row does not match the table's columns.
	ErrRowLength = errors.New("table: row length mismatch")

	// ErrKind is returned when a value does not match its column kind.
	ErrKind = errors.New("table: value kind mismatch")
)

// Kind is the kind of values held in a column.
type Kind int

const (
	String Kind = iota // string values
	Number             // float64 values
	Bool               // bool values
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a named and typed table column.
type Column struct {
	Name string
	Kind Kind
}

// Row is a table row. Values are string, float64 or bool according to
// the kind of their column, or nil when missing.
type Row []any

// Table is a column oriented table of rows.
type Table struct {
	Columns []Column
	Rows    []Row
}

// New returns a new empty table with the given columns.
func New(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Add adds a row holding values to the table. Integer values are held as
// float64.
func (t *Table) Add(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrRowLength, len(values), len(t.Columns))
	}
	row := make(Row, len(values))
	for i, v := range values {
		v, err := normalize(v, t.Columns[i].Kind)
		if err != nil {
			return fmt.Errorf("column %s: %w", t.Columns[i].Name, err)
		}
		row[i] = v
	}
	t.Rows = append(t.Rows, row)
	return nil
}

func normalize(v any, k Kind) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Number:
		switch v := v.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %T in %s column", ErrKind, v, k)
}

// Index returns the index of the named column, or -1 if it does not exist.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has returns whether the table has the named column.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i := t.Index(name)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Values returns the values of the named column in row order.
func (t *Table) Values(name string) []any {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	v := make([]any, len(t.Rows))
	for j, r := range t.Rows {
		v[j] = r[i]
	}
	return v
}

// Value returns the value of the named column in the given row.
func (t *Table) Value(row int, name string) any {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	return t.Rows[row][i]
}

// Unique returns the distinct non-nil values of the named column in
// order of first appearance.
func (t *Table) Unique(name string) []any {
	var u []any
	seen := make(map[any]bool)
	for _, v := range t.Values(name) {
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		u = append(u, v)
	}
	return u
}

// Min returns the minimum value of the named Number column. It returns
// false if the column does not exist, is not numeric or has no values.
func (t *Table) Min(name string) (float64, bool) {
	return t.reduce(name, math.Min)
}

// Max returns the maximum value of the named Number column. It returns
// false if the column does not exist, is not numeric or has no values.
func (t *Table) Max(name string) (float64, bool) {
	return t.reduce(name, math.Max)
}

func (t *Table) reduce(name string, fn func(a, b float64) float64) (float64, bool) {
	c, ok := t.Column(name)
	if !ok || c.Kind != Number {
		return 0, false
	}
	var (
		r     float64
		found bool
	)
	for _, v := range t.Values(name) {
		f, ok := v.(float64)
		if !ok || math.IsNaN(f) {
			continue
		}
		if !found {
			r = f
			found = true
			continue
		}
		r = fn(r, f)
	}
	return r, found
}

// Select returns a new table holding only the named columns in the order
// given.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	s := &Table{Columns: make([]Column, len(names))}
	for i, n := range names {
		j := t.Index(n)
		if j < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoColumn, n)
		}
		idx[i] = j
		s.Columns[i] = t.Columns[j]
	}
	for _, r := range t.Rows {
		row := make(Row, len(idx))
		for i, j := range idx {
			row[i] = r[j]
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = append(Row(nil), r...)
	}
	return c
}

// Format returns the text form of a table value.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// infer returns the kind of column able to hold all the text values.
// Empty values do not constrain the kind. Non-finite numbers such as
// NaN and Inf are held as text.
func infer(values []string) Kind {
	isNumber, isBool, present := true, true, false
	for _, v := range values {
		if v == "" {
			continue
		}
		present = true
		if f, err := strconv.ParseFloat(v, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			isNumber = false
		}
		if _, ok := parseBool(v); !ok {
			isBool = false
		}
	}
	switch {
	case !present:
		return String
	case isNumber:
		return Number
	case isBool:
		return Bool
	default:
		return String
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// parse returns a table built from a header and text records, inferring
// the column kinds.
func parse(header []string, records [][]string) (*Table, error) {
	t := &Table{Columns: make([]Column, len(header))}
	cols := make([][]string, len(header))
	for _, r := range records {
		for i := range header {
			var v string
			if i < len(r) {
				v = r[i]
			}
			cols[i] = append(cols[i], v)
		}
	}
	for i, h := range header {
		t.Columns[i] = Column{Name: h, Kind: infer(cols[i])}
	}
	t.Rows = make([]Row, len(records))
	for j := range records {
		row := make(Row, len(header))
		for i, c := range t.Columns {
			v := cols[i][j]
			if v == "" {
				continue
			}
			switch c.Kind {
			case String:
				row[i] = v
			case Number:
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("table: row %d column %s: %w", j, c.Name, err)
				}
				row[i] = f
			case Bool:
				row[i], _ = parseBool(v)
			}
		}
		t.Rows[j] = row
	}
	return t, nil
}

// header returns the column names of the table.
func (t *Table) header() []string {
	h := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		h[i] = c.Name
	}
	return h
}
