// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparql

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"
)

var (
	// ErrSyntax is returned for malformed queries.
	ErrSyntax = errors.New("sparql: syntax error")

	// ErrUnsupported is returned for valid SPARQL that is
	// outside the supported subset.
	ErrUnsupported = errors.New("sparql: unsupported")
)

// Graph is the statement source a query is evaluated against.
type Graph interface {
	// OrderedStatements returns all statements in insertion order.
	OrderedStatements() []*rdf.Statement
	// StatementsWith returns the statements with the given
	// predicate in insertion order.
	StatementsWith(predicate string) []*rdf.Statement
}

// Results holds the solutions of a query.
type Results struct {
	// Vars is the list of result variables.
	Vars []string
	// Rows holds the solutions. Unbound
	// values are zero rdf.Terms.
	Rows [][]rdf.Term
}

// Flatten returns all the bound values of the results in row order.
func (r *Results) Flatten() []rdf.Term {
	var terms []rdf.Term
	for _, row := range r.Rows {
		for _, t := range row {
			if t.Value != "" {
				terms = append(terms, t)
			}
		}
	}
	return terms
}

// Exec parses and evaluates the query against g.
func Exec(g Graph, query string, prefixes map[string]string) (*Results, error) {
	q, err := Parse(query, prefixes)
	if err != nil {
		return nil, err
	}
	return q.Eval(g)
}

// Eval evaluates the query against g.
func (q *Query) Eval(g Graph) (*Results, error) {
	var hasCount, hasVar bool
	for _, p := range q.Projection {
		if p.Count != nil {
			hasCount = true
		} else {
			hasVar = true
		}
	}
	if hasCount && hasVar {
		return nil, fmt.Errorf("%w: mixing aggregates and variables without GROUP BY", ErrUnsupported)
	}

	solutions := []binding{{}}
	for _, p := range q.Patterns {
		solutions = match(g, p, solutions)
		if len(solutions) == 0 {
			break
		}
	}

	if len(q.Filters) != 0 {
		kept := solutions[:0]
		for _, b := range solutions {
			if q.accept(b) {
				kept = append(kept, b)
			}
		}
		solutions = kept
	}

	if hasCount {
		return q.count(solutions), nil
	}

	if len(q.Order) != 0 {
		sort.SliceStable(solutions, func(i, j int) bool {
			return q.less(solutions[i], solutions[j])
		})
	}

	vars := q.vars()
	res := &Results{Vars: vars}
	seen := make(map[string]bool)
	for _, b := range solutions {
		row := make([]rdf.Term, len(vars))
		for i, v := range vars {
			row[i] = b[v]
		}
		if q.Distinct {
			k := key(row)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		res.Rows = append(res.Rows, row)
	}
	res.Rows = q.slice(res.Rows)
	return res, nil
}

// vars returns the projected variables, or all named pattern variables
// in order of appearance for SELECT *.
func (q *Query) vars() []string {
	if !q.Star {
		vars := make([]string, len(q.Projection))
		for i, p := range q.Projection {
			vars[i] = p.Var
		}
		return vars
	}
	var vars []string
	seen := make(map[string]bool)
	for _, p := range q.Patterns {
		for _, n := range []Node{p.S, p.P, p.O} {
			if n.Var == "" || strings.HasPrefix(n.Var, "_:") || seen[n.Var] {
				continue
			}
			seen[n.Var] = true
			vars = append(vars, n.Var)
		}
	}
	return vars
}

func (q *Query) accept(b binding) bool {
	for _, f := range q.Filters {
		ok, err := ebvOf(f, b)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (q *Query) count(solutions []binding) *Results {
	res := &Results{Vars: q.vars(), Rows: [][]rdf.Term{make([]rdf.Term, len(q.Projection))}}
	for i, p := range q.Projection {
		var n int
		seen := make(map[string]bool)
		for _, b := range solutions {
			var k string
			switch {
			case p.Count.Var != "":
				t, ok := b[p.Count.Var]
				if !ok {
					continue
				}
				k = t.Value
			case p.Count.Distinct:
				k = bindingKey(b)
			}
			if p.Count.Distinct {
				if seen[k] {
					continue
				}
				seen[k] = true
			}
			n++
		}
		res.Rows[0][i] = rdf.Term{Value: `"` + strconv.Itoa(n) + `"^^<` + xsd + `integer>`}
	}
	res.Rows = q.slice(res.Rows)
	return res
}

func (q *Query) slice(rows [][]rdf.Term) [][]rdf.Term {
	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			return nil
		}
		rows = rows[q.Offset:]
	}
	if q.Limit >= 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	return rows
}

// less orders solutions by the query's ORDER BY conditions. Errors and
// unbound values sort first.
func (q *Query) less(a, b binding) bool {
	for _, k := range q.Order {
		va, erra := k.Expr.eval(a)
		vb, errb := k.Expr.eval(b)
		c := order(va, erra, vb, errb)
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

// order returns a total ordering of values: errors, then blank nodes,
// then IRIs, then literals.
func order(a value, erra error, b value, errb error) int {
	switch {
	case erra != nil && errb != nil:
		return 0
	case erra != nil:
		return -1
	case errb != nil:
		return 1
	}
	if c, err := compare(a, b); err == nil {
		return c
	}
	rank := func(v value) int {
		switch v.kind {
		case rdf.Blank:
			return 0
		case rdf.IRI:
			return 1
		default:
			return 2
		}
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		return ra - rb
	}
	if c := strings.Compare(a.dt+"@"+a.lang, b.dt+"@"+b.lang); c != 0 {
		return c
	}
	return strings.Compare(a.text, b.text)
}

// match extends each solution with the bindings of the statements of g
// that match p.
func match(g Graph, p Pattern, solutions []binding) []binding {
	var out []binding
	for _, b := range solutions {
		pred := resolveNode(p.P, b)
		var candidates []*rdf.Statement
		if pred != "" {
			candidates = g.StatementsWith(pred)
		} else {
			candidates = g.OrderedStatements()
		}
		subj := resolveNode(p.S, b)
		obj := resolveNode(p.O, b)
		for _, s := range candidates {
			if subj != "" && s.Subject.Value != subj {
				continue
			}
			if obj != "" && !sameTerm(s.Object.Value, obj) {
				continue
			}
			ext, ok := extend(b, p.S, s.Subject)
			if !ok {
				continue
			}
			ext, ok = extend(ext, p.P, s.Predicate)
			if !ok {
				continue
			}
			ext, ok = extend(ext, p.O, s.Object)
			if !ok {
				continue
			}
			out = append(out, ext)
		}
	}
	return out
}

// resolveNode returns the term text of n under b, or the empty string if
// n is an unbound variable.
func resolveNode(n Node, b binding) string {
	if n.Var == "" {
		return n.Term
	}
	if t, ok := b[n.Var]; ok {
		return t.Value
	}
	return ""
}

// extend returns b extended with n bound to t. It returns false if n is
// already bound to a different term.
func extend(b binding, n Node, t rdf.Term) (binding, bool) {
	if n.Var == "" {
		return b, true
	}
	if old, ok := b[n.Var]; ok {
		return b, sameTerm(old.Value, t.Value)
	}
	ext := make(binding, len(b)+1)
	for k, v := range b {
		ext[k] = v
	}
	ext[n.Var] = t
	return ext, true
}

// sameTerm returns whether the N-Triples texts a and b denote the same
// RDF term. Simple literals and xsd:string literals are the same term.
func sameTerm(a, b string) bool {
	if a == b {
		return true
	}
	if !strings.HasPrefix(a, `"`) || !strings.HasPrefix(b, `"`) {
		return false
	}
	va, erra := termValue(a)
	vb, errb := termValue(b)
	return erra == nil && errb == nil && va == vb
}

func key(row []rdf.Term) string {
	var buf strings.Builder
	for _, t := range row {
		buf.WriteString(t.Value)
		buf.WriteByte(0)
	}
	return buf.String()
}

func bindingKey(b binding) string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	var buf strings.Builder
	for _, k := range names {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(b[k].Value)
		buf.WriteByte(0)
	}
	return buf.String()
}
