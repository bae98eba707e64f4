// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

// Query is a collection of terms reached by walking an ontology graph.
// Terms are held in the order they were reached, with the terms reached
// in a single step ordered by statement insertion.
type Query struct {
	g *Graph

	terms []rdf.Term
}

// Query returns a query of the receiver starting from the given terms.
// Queries may not be mixed between distinct graphs.
func (g *Graph) Query(from ...rdf.Term) Query {
	return Query{g: g, terms: from}
}

// Via returns a statement filter that accepts statements with the given
// predicate, for example "<http://www.w3.org/2000/01/rdf-schema#subClassOf>".
func Via(predicate string) func(*rdf.Statement) bool {
	return func(s *rdf.Statement) bool { return s.Predicate.Value == predicate }
}

// Out returns a query holding the objects of statements satisfying fn
// whose subjects are held by q. For each term of q, the objects are in
// the order their first satisfying statement was added to the graph.
func (q Query) Out(fn func(s *rdf.Statement) bool) Query {
	return q.step(fn, true)
}

// In returns a query holding the subjects of statements satisfying fn
// whose objects are held by q. For each term of q, the subjects are in
// the order their first satisfying statement was added to the graph.
func (q Query) In(fn func(s *rdf.Statement) bool) Query {
	return q.step(fn, false)
}

func (q Query) step(fn func(s *rdf.Statement) bool, out bool) Query {
	type reached struct {
		term rdf.Term
		seq  int64
	}
	r := Query{g: q.g}
	for _, t := range q.terms {
		var (
			it    graph.Nodes
			lines func(n graph.Node) graph.Lines
		)
		if out {
			it = q.g.From(t.ID())
			lines = func(n graph.Node) graph.Lines { return q.g.Lines(t.ID(), n.ID()) }
		} else {
			it = q.g.To(t.ID())
			lines = func(n graph.Node) graph.Lines { return q.g.Lines(n.ID(), t.ID()) }
		}
		var next []reached
		for it.Next() {
			n := it.Node()
			l := lines(n)
			first := int64(-1)
			for l.Next() {
				s, ok := l.Line().(*rdf.Statement)
				if !ok || !fn(s) {
					continue
				}
				if seq := q.g.seq[s]; first < 0 || seq < first {
					first = seq
				}
			}
			if first >= 0 {
				next = append(next, reached{term: n.(rdf.Term), seq: first})
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i].seq < next[j].seq })
		for _, n := range next {
			r.terms = append(r.terms, n.term)
		}
	}
	return r
}

// And returns a query holding the terms of q that are also in p.
func (q Query) And(p Query) Query {
	in := q.members(p)
	return q.filter(func(t rdf.Term) bool { return in[t.UID] })
}

// Or returns a query holding the unique terms of q followed by the
// unique terms of p that are not in q.
func (q Query) Or(p Query) Query {
	q.members(p)
	r := Query{g: q.g, terms: append(q.terms[:len(q.terms):len(q.terms)], p.terms...)}
	return r.Unique()
}

// Not returns a query holding the terms of q that are not in p.
func (q Query) Not(p Query) Query {
	in := q.members(p)
	return q.filter(func(t rdf.Term) bool { return !in[t.UID] })
}

// Unique returns a query that holds only the first instance of each
// term in q.
func (q Query) Unique() Query {
	seen := make(map[int64]bool)
	return q.filter(func(t rdf.Term) bool {
		if seen[t.UID] {
			return false
		}
		seen[t.UID] = true
		return true
	})
}

// Named returns a query holding only the IRI terms of q, excluding
// owl:Thing.
func (q Query) Named() Query {
	return q.filter(func(t rdf.Term) bool { return isIRI(t) && t.Value != owlThing })
}

// Result returns the terms held by the query.
func (q Query) Result() []rdf.Term {
	return q.terms
}

// Names returns the local names of the terms held by the query.
func (q Query) Names() []string {
	names := make([]string, len(q.terms))
	for i, t := range q.terms {
		names[i] = LocalName(t.Value)
	}
	return names
}

func (q Query) filter(keep func(rdf.Term) bool) Query {
	r := Query{g: q.g}
	for _, t := range q.terms {
		if keep(t) {
			r.terms = append(r.terms, t)
		}
	}
	return r
}

// members returns the set of term UIDs held by p.
func (q Query) members(p Query) map[int64]bool {
	if q.g != p.g {
		panic("jaal: binary query operation parameters from distinct graphs")
	}
	in := make(map[int64]bool, len(p.terms))
	for _, t := range p.terms {
		in[t.UID] = true
	}
	return in
}
