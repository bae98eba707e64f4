// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Copyright ©2014 The Gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/formats/rdf"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/set/uid"
	"gonum.org/v1/gonum/graph/traverse"
)

// Graph implements an RDF graph holding an OWL ontology. Nodes are
// subject and object terms and lines are the statements connecting them.
type Graph struct {
	nodes map[int64]graph.Node
	from  map[int64]map[int64]map[int64]graph.Line
	to    map[int64]map[int64]map[int64]graph.Line
	pred  map[int64]map[*rdf.Statement]bool

	termIDs map[string]int64
	ids     *uid.Set

	// seq records the order statements were added
	// so that listings are deterministic.
	seq  map[*rdf.Statement]int64
	next int64
}

// NewGraph returns a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[int64]graph.Node),
		from:  make(map[int64]map[int64]map[int64]graph.Line),
		to:    make(map[int64]map[int64]map[int64]graph.Line),
		pred:  make(map[int64]map[*rdf.Statement]bool),

		termIDs: make(map[string]int64),
		ids:     uid.NewSet(),

		seq: make(map[*rdf.Statement]int64),
	}
}

// addNode adds n to the graph. It panics if the added node ID matches an
// existing node ID.
func (g *Graph) addNode(n graph.Node) {
	if _, exists := g.nodes[n.ID()]; exists {
		panic(fmt.Sprintf("jaal: node ID collision: %d", n.ID()))
	}
	g.nodes[n.ID()] = n
	g.ids.Use(n.ID())
}

// AddStatement adds s to the graph. It panics if rdf.Term UIDs in the
// statement are not consistent with existing terms in the graph. Statements
// must not be altered while being held by the graph. If the UID fields of
// the terms in s are zero, they will be set to values consistent with the
// rest of the graph on return, mutating the parameter, otherwise the UIDs
// must match terms that already exist in the graph. The statement must be a
// valid RDF statement otherwise AddStatement will panic. Adding a statement
// that is already held by the graph is a no-op.
func (g *Graph) AddStatement(s *rdf.Statement) {
	_, _, kind, err := s.Predicate.Parts()
	if err != nil {
		panic(fmt.Errorf("jaal: error extracting predicate: %w", err))
	}
	if kind != rdf.IRI {
		panic(fmt.Errorf("jaal: predicate is not an IRI: %s", s.Predicate.Value))
	}

	_, _, kind, err = s.Subject.Parts()
	if err != nil {
		panic(fmt.Errorf("jaal: error extracting subject: %w", err))
	}
	switch kind {
	case rdf.IRI, rdf.Blank:
	default:
		panic(fmt.Errorf("jaal: subject is not an IRI or blank node: %s", s.Subject.Value))
	}

	_, _, kind, err = s.Object.Parts()
	if err != nil {
		panic(fmt.Errorf("jaal: error extracting object: %w", err))
	}
	if kind == rdf.Invalid {
		panic(fmt.Errorf("jaal: object is not a valid term: %s", s.Object.Value))
	}

	if g.hasStatement(s) {
		return
	}

	g.addTerm(&s.Subject)
	g.addTerm(&s.Predicate)
	g.addTerm(&s.Object)
	statements, ok := g.pred[s.Predicate.UID]
	if !ok {
		statements = make(map[*rdf.Statement]bool)
		g.pred[s.Predicate.UID] = statements
	}
	statements[s] = true
	g.seq[s] = g.next
	g.next++
	g.setLine(s)
}

// hasStatement returns whether a statement with the same subject, predicate
// and object as s is already held by the graph.
func (g *Graph) hasStatement(s *rdf.Statement) bool {
	sid, ok := g.termIDs[s.Subject.Value]
	if !ok {
		return false
	}
	pid, ok := g.termIDs[s.Predicate.Value]
	if !ok {
		return false
	}
	oid, ok := g.termIDs[s.Object.Value]
	if !ok {
		return false
	}
	_, ok = g.from[sid][oid][pid]
	return ok
}

// addTerm adds t to the graph. It panics if the added node ID matches an existing node ID.
func (g *Graph) addTerm(t *rdf.Term) {
	if t.UID == 0 {
		id, ok := g.termIDs[t.Value]
		if ok {
			t.UID = id
			return
		}
		id = g.ids.NewID()
		g.ids.Use(id)
		t.UID = id
		g.termIDs[t.Value] = id
		return
	}

	id, ok := g.termIDs[t.Value]
	if !ok {
		g.termIDs[t.Value] = t.UID
	} else if id != t.UID {
		panic(fmt.Sprintf("jaal: term ID collision: term:%s new ID:%d old ID:%d", t.Value, t.UID, id))
	}
}

// Len returns the number of statements held by the graph.
func (g *Graph) Len() int {
	return len(g.seq)
}

// version returns a value that changes whenever a statement is added to
// or removed from the graph.
func (g *Graph) version() [2]int64 {
	return [2]int64{g.next, int64(len(g.seq))}
}

// OrderedStatements returns all the statements held by the graph in the
// order they were added.
func (g *Graph) OrderedStatements() []*rdf.Statement {
	statements := make([]*rdf.Statement, 0, len(g.seq))
	for s := range g.seq {
		statements = append(statements, s)
	}
	g.sortStatements(statements)
	return statements
}

// StatementsWith returns the statements with the given predicate in the
// order they were added to the graph. The predicate must be given in
// N-Triples form, for example "<http://www.w3.org/2000/01/rdf-schema#subClassOf>".
func (g *Graph) StatementsWith(predicate string) []*rdf.Statement {
	id, ok := g.termIDs[predicate]
	if !ok {
		return nil
	}
	statements := make([]*rdf.Statement, 0, len(g.pred[id]))
	for s := range g.pred[id] {
		statements = append(statements, s)
	}
	g.sortStatements(statements)
	return statements
}

// Objects returns the objects of statements with the given subject and
// predicate in the order they were added.
func (g *Graph) Objects(subject, predicate string) []rdf.Term {
	sid, ok := g.termIDs[subject]
	if !ok {
		return nil
	}
	var statements []*rdf.Statement
	for _, lines := range g.from[sid] {
		for _, l := range lines {
			s := l.(*rdf.Statement)
			if s.Predicate.Value == predicate {
				statements = append(statements, s)
			}
		}
	}
	g.sortStatements(statements)
	terms := make([]rdf.Term, len(statements))
	for i, s := range statements {
		terms[i] = s.Object
	}
	return terms
}

// Subjects returns the subjects of statements with the given predicate and
// object in the order they were added.
func (g *Graph) Subjects(predicate, object string) []rdf.Term {
	oid, ok := g.termIDs[object]
	if !ok {
		return nil
	}
	var statements []*rdf.Statement
	for _, lines := range g.to[oid] {
		for _, l := range lines {
			s := l.(*rdf.Statement)
			if s.Predicate.Value == predicate {
				statements = append(statements, s)
			}
		}
	}
	g.sortStatements(statements)
	terms := make([]rdf.Term, len(statements))
	for i, s := range statements {
		terms[i] = s.Subject
	}
	return terms
}

// Outgoing returns all statements with the given subject in the order they
// were added.
func (g *Graph) Outgoing(subject string) []*rdf.Statement {
	sid, ok := g.termIDs[subject]
	if !ok {
		return nil
	}
	var statements []*rdf.Statement
	for _, lines := range g.from[sid] {
		for _, l := range lines {
			statements = append(statements, l.(*rdf.Statement))
		}
	}
	g.sortStatements(statements)
	return statements
}

func (g *Graph) sortStatements(s []*rdf.Statement) {
	sort.Slice(s, func(i, j int) bool { return g.seq[s[i]] < g.seq[s[j]] })
}

// ClosestCommonAncestor returns the class that is the closest common
// ancestor of a and b in the sub-class hierarchy if it exists in g.
func (g *Graph) ClosestCommonAncestor(a, b rdf.Term) (r rdf.Term, ok bool) {
	if a == b {
		return a, true
	}

	seen := make(map[int64]bool)
	var bf traverse.BreadthFirst
	bf.Traverse = isNamedSubClassOf
	bf.Walk(g, a, func(n graph.Node, d int) bool {
		seen[n.ID()] = true
		return false
	})
	bf.Reset()
	bf.Walk(g, b, func(n graph.Node, d int) bool {
		if seen[n.ID()] {
			r = n.(rdf.Term)
			ok = true
			return true
		}
		return false
	})
	return r, ok
}

// DescendantsOf returns all of the sub-class descendants of the given term.
func (g *Graph) DescendantsOf(t rdf.Term) []Descendant {
	var desc []Descendant
	var bf traverse.BreadthFirst
	bf.Traverse = isNamedSubClassOf
	bf.Walk(reverse{g}, t, func(n graph.Node, d int) bool {
		if n.ID() != t.ID() {
			desc = append(desc, Descendant{Term: n.(rdf.Term), Depth: d})
		}
		return false
	})
	return desc
}

// isNamedSubClassOf is a traverse edge filter. It accepts statements where
//
//	<iri> -- <rdfs:subClassOf> -> <iri>
//
// excluding anonymous class expressions held in blank nodes.
func isNamedSubClassOf(e graph.Edge) bool {
	return ConnectedByAny(e, func(s *rdf.Statement) bool {
		return s.Predicate.Value == subClassOf && isIRI(s.Subject) && isIRI(s.Object)
	})
}

func isIRI(t rdf.Term) bool {
	return len(t.Value) > 1 && t.Value[0] == '<'
}

// reverse implements the traverse.Graph reversing the direction of edges.
type reverse struct {
	*Graph
}

func (g reverse) From(id int64) graph.Nodes      { return g.Graph.To(id) }
func (g reverse) Edge(uid, vid int64) graph.Edge { return g.Graph.Edge(vid, uid) }

// Descendant represents a descendancy relationship.
type Descendant struct {
	Term  rdf.Term
	Depth int
}

// Edge returns the edge from u to v if such an edge exists and nil otherwise.
// The node v must be directly reachable from u as defined by the From method.
// The returned graph.Edge is a multi.Edge if an edge exists.
func (g *Graph) Edge(uid, vid int64) graph.Edge {
	l := g.Lines(uid, vid)
	if l.Len() == 0 {
		return nil
	}
	return multi.Edge{F: g.Node(uid), T: g.Node(vid), Lines: l}
}

// From returns all nodes in g that can be reached directly from n.
//
// The returned graph.Nodes is only valid until the next mutation of
// the receiver.
func (g *Graph) From(id int64) graph.Nodes {
	if len(g.from[id]) == 0 {
		return graph.Empty
	}
	return iterator.NewNodesByLines(g.nodes, g.from[id])
}

// HasEdgeBetween returns whether an edge exists between nodes x and y without
// considering direction.
func (g *Graph) HasEdgeBetween(xid, yid int64) bool {
	if _, ok := g.from[xid][yid]; ok {
		return true
	}
	_, ok := g.from[yid][xid]
	return ok
}

// HasEdgeFromTo returns whether an edge exists in the graph from u to v.
func (g *Graph) HasEdgeFromTo(uid, vid int64) bool {
	_, ok := g.from[uid][vid]
	return ok
}

// IsDescendantOf returns whether the query q is a sub-class descendant of a
// and how many levels separate them if it is. If q is not a descendant of a,
// depth will be negative.
func (g *Graph) IsDescendantOf(a, q rdf.Term) (yes bool, depth int) {
	depth = -1
	var bf traverse.BreadthFirst
	bf.Traverse = isNamedSubClassOf
	bf.Walk(g, q, func(n graph.Node, d int) bool {
		if n.ID() == a.ID() {
			yes = true
			depth = d
			return true
		}
		return false
	})
	return yes, depth
}

// Lines returns the lines from u to v if such any such lines exists and nil otherwise.
// The node v must be directly reachable from u as defined by the From method.
func (g *Graph) Lines(uid, vid int64) graph.Lines {
	edge := g.from[uid][vid]
	if len(edge) == 0 {
		return graph.Empty
	}
	var lines []graph.Line
	for _, l := range edge {
		lines = append(lines, l)
	}
	return iterator.NewOrderedLines(lines)
}

// Node returns the node with the given ID if it exists in the graph,
// and nil otherwise.
func (g *Graph) Node(id int64) graph.Node {
	return g.nodes[id]
}

// TermFor returns the rdf.Term for the given text. The text must be
// an exact match for the rdf.Term's Value field.
func (g *Graph) TermFor(text string) (term rdf.Term, ok bool) {
	id, ok := g.termIDs[text]
	if !ok {
		return
	}
	n, ok := g.nodes[id]
	if !ok {
		var s map[*rdf.Statement]bool
		s, ok = g.pred[id]
		if !ok {
			return
		}
		for k := range s {
			return k.Predicate, true
		}
	}
	return n.(rdf.Term), true
}

// Nodes returns all the nodes in the graph.
//
// The returned graph.Nodes is only valid until the next mutation of
// the receiver.
func (g *Graph) Nodes() graph.Nodes {
	if len(g.nodes) == 0 {
		return graph.Empty
	}
	return iterator.NewNodes(g.nodes)
}

// removeLine removes the line with the given end point and line IDs from
// the graph, leaving the terminal nodes. If the line does not exist it is
// a no-op.
func (g *Graph) removeLine(fid, tid, id int64) {
	if _, ok := g.nodes[fid]; !ok {
		return
	}
	if _, ok := g.nodes[tid]; !ok {
		return
	}

	delete(g.from[fid][tid], id)
	if len(g.from[fid][tid]) == 0 {
		delete(g.from[fid], tid)
	}
	delete(g.to[tid][fid], id)
	if len(g.to[tid][fid]) == 0 {
		delete(g.to[tid], fid)
	}
}

// removeNode removes the node with the given ID from the graph, as well as
// any edges attached to it. If the node is not in the graph it is a no-op.
func (g *Graph) removeNode(id int64) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)

	for from := range g.from[id] {
		delete(g.to[from], id)
	}
	delete(g.from, id)

	for to := range g.to[id] {
		delete(g.from[to], id)
	}
	delete(g.to, id)

	g.ids.Release(id)
}

// RemoveStatement removes s from the graph, leaving the terminal nodes if they
// are part of another statement. If the statement does not exist in g it is a no-op.
func (g *Graph) RemoveStatement(s *rdf.Statement) {
	if !g.pred[s.Predicate.UID][s] {
		return
	}

	// Remove the connection.
	g.removeLine(s.Subject.UID, s.Object.UID, s.Predicate.UID)
	delete(g.seq, s)
	statements := g.pred[s.Predicate.UID]
	delete(statements, s)
	if len(statements) == 0 {
		delete(g.pred, s.Predicate.UID)
		if _, isNode := g.nodes[s.Predicate.UID]; !isNode {
			g.ids.Release(s.Predicate.UID)
			delete(g.termIDs, s.Predicate.Value)
		}
	}

	// Remove any orphan terms.
	if g.From(s.Subject.UID).Len() == 0 && g.To(s.Subject.UID).Len() == 0 {
		g.removeNode(s.Subject.UID)
		delete(g.termIDs, s.Subject.Value)
	}
	if g.From(s.Object.UID).Len() == 0 && g.To(s.Object.UID).Len() == 0 {
		g.removeNode(s.Object.UID)
		delete(g.termIDs, s.Object.Value)
	}
}

// RemoveTerm removes t and any statements referencing t from the graph. If
// the term is a predicate, all statements with the predicate are removed. If
// the term does not exist it is a no-op.
func (g *Graph) RemoveTerm(t rdf.Term) {
	// Remove any predicates.
	if statements, ok := g.pred[t.UID]; ok {
		for s := range statements {
			g.RemoveStatement(s)
		}
	}

	// Quick return.
	_, nok := g.nodes[t.UID]
	_, fok := g.from[t.UID]
	_, tok := g.to[t.UID]
	if !nok && !fok && !tok {
		return
	}

	// Remove any statements that impinge on the term.
	var impinging []*rdf.Statement
	for _, lines := range g.from[t.UID] {
		for _, l := range lines {
			impinging = append(impinging, l.(*rdf.Statement))
		}
	}
	for _, lines := range g.to[t.UID] {
		for _, l := range lines {
			impinging = append(impinging, l.(*rdf.Statement))
		}
	}
	for _, s := range impinging {
		g.RemoveStatement(s)
	}

	// Remove the node.
	g.removeNode(t.UID)
	delete(g.termIDs, t.Value)
}

// Roots returns all the named classes of the graph that have no named
// super-class, ordered by first appearance.
func (g *Graph) Roots() []rdf.Term {
	var roots []rdf.Term
	seen := make(map[int64]bool)
	for _, s := range g.StatementsWith(rdfType) {
		if s.Object.Value != owlClass || !isIRI(s.Subject) || seen[s.Subject.UID] {
			continue
		}
		seen[s.Subject.UID] = true
		if s.Subject.Value == owlThing {
			continue
		}
		if len(g.Query(s.Subject).Out(Via(subClassOf)).Named().Result()) == 0 {
			roots = append(roots, s.Subject)
		}
	}
	return roots
}

// setLine adds l, a line from one node to another. If the nodes do not exist,
// they are added, and are set to the nodes of the line otherwise.
func (g *Graph) setLine(l graph.Line) {
	var (
		from = l.From()
		fid  = from.ID()
		to   = l.To()
		tid  = to.ID()
		lid  = l.ID()
	)

	if _, ok := g.nodes[fid]; !ok {
		g.addNode(from)
	} else {
		g.nodes[fid] = from
	}
	if _, ok := g.nodes[tid]; !ok {
		g.addNode(to)
	} else {
		g.nodes[tid] = to
	}

	switch {
	case g.from[fid] == nil:
		g.from[fid] = map[int64]map[int64]graph.Line{tid: {lid: l}}
	case g.from[fid][tid] == nil:
		g.from[fid][tid] = map[int64]graph.Line{lid: l}
	default:
		g.from[fid][tid][lid] = l
	}
	switch {
	case g.to[tid] == nil:
		g.to[tid] = map[int64]map[int64]graph.Line{fid: {lid: l}}
	case g.to[tid][fid] == nil:
		g.to[tid][fid] = map[int64]graph.Line{lid: l}
	default:
		g.to[tid][fid][lid] = l
	}

	g.ids.Use(lid)
}

// To returns all nodes in g that can reach directly to n.
//
// The returned graph.Nodes is only valid until the next mutation of
// the receiver.
func (g *Graph) To(id int64) graph.Nodes {
	if len(g.to[id]) == 0 {
		return graph.Empty
	}
	return iterator.NewNodesByLines(g.nodes, g.to[id])
}

// ConnectedByAny is a helper function to for simplifying graph traversal
// conditions.
func ConnectedByAny(e graph.Edge, with func(*rdf.Statement) bool) bool {
	it, ok := e.(multi.Edge)
	if !ok {
		return false
	}
	for it.Next() {
		s, ok := it.Line().(*rdf.Statement)
		if !ok {
			continue
		}
		ok = with(s)
		if ok {
			return true
		}
	}
	return false
}
