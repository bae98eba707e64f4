// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/graph/formats/rdf"
)

// Ontology provides read access to the OWL constructs held in a Graph.
type Ontology struct {
	iri string
	g   *Graph

	mu      sync.Mutex
	ids     map[string]string
	version [2]int64
}

// NewOntology returns an Ontology view of g. If iri is empty, the IRI is
// taken from the first owl:Ontology declaration in g.
func NewOntology(iri string, g *Graph) *Ontology {
	if iri == "" {
		for _, s := range g.StatementsWith(rdfType) {
			if s.Object.Value == owlOntology && isIRI(s.Subject) {
				iri = strings.Trim(s.Subject.Value, "<>")
				break
			}
		}
	}
	return &Ontology{iri: strings.TrimSuffix(iri, "#"), g: g}
}

// IRI returns the IRI of the ontology.
func (o *Ontology) IRI() string { return o.iri }

// Name returns the short name of the ontology, the last path element of
// its IRI without any extension.
func (o *Ontology) Name() string {
	name := o.iri
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// Graph returns the underlying RDF graph.
func (o *Ontology) Graph() *Graph { return o.g }

// Entity is a named ontology resource. Name is unique among the
// entities of an ontology.
type Entity struct {
	Term rdf.Term
	Name string
}

func (o *Ontology) entity(t rdf.Term) Entity {
	return Entity{Term: t, Name: o.EntityName(t)}
}

// EntityName returns the name of the entity identified by the IRI term t.
// This is the local name of the IRI unless an IRI appearing earlier in
// the ontology has the same local name, in which case a numeric suffix
// starting at _2 is added. Vocabulary terms and terms not held by the
// ontology are given their local name.
func (o *Ontology) EntityName(t rdf.Term) string {
	if name, ok := o.names()[t.Value]; ok {
		return name
	}
	return LocalName(t.Value)
}

// names returns the entity names of the ontology's IRI terms, rebuilding
// them when the graph has changed.
func (o *Ontology) names() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.g.version()
	if o.ids != nil && o.version == v {
		return o.ids
	}

	self := IRITerm(o.iri)
	var iris []string
	seen := make(map[string]bool)
	taken := make(map[string]bool)
	for _, s := range o.g.OrderedStatements() {
		for _, t := range [...]rdf.Term{s.Subject, s.Predicate, s.Object} {
			if !isIRI(t) || seen[t.Value] || t.Value == self || isVocabulary(t.Value) {
				continue
			}
			seen[t.Value] = true
			iris = append(iris, t.Value)
			taken[LocalName(t.Value)] = true
		}
	}
	ids := make(map[string]string, len(iris))
	claimed := make(map[string]bool)
	for _, iri := range iris {
		name := LocalName(iri)
		if !claimed[name] {
			claimed[name] = true
			ids[iri] = name
			continue
		}
		for n := 2; ; n++ {
			alt := name + "_" + strconv.Itoa(n)
			if !taken[alt] {
				taken[alt] = true
				ids[iri] = alt
				break
			}
		}
	}
	o.ids, o.version = ids, v
	return ids
}

// Property is an object or data property with its domain and range.
// Domain and range are deduplicated and held in declaration order.
type Property struct {
	Entity
	Domain []Entity
	Range  []Entity
}

// Literal is a literal property value.
type Literal struct {
	// Text is the lexical form of the literal.
	Text string
	// Datatype is the datatype IRI, empty for
	// language tagged strings.
	Datatype string
	// Lang is the language tag, if any.
	Lang string
}

// PropertyValue is a property assertion on an individual. Exactly one of
// Object and Literal is non-nil.
type PropertyValue struct {
	Property Entity
	Object   *Entity
	Literal  *Literal
}

// Classes returns the named classes of the ontology in declaration order.
// owl:Thing is not included.
func (o *Ontology) Classes() []Entity {
	var classes []Entity
	seen := make(map[string]bool)
	for _, s := range o.g.StatementsWith(rdfType) {
		switch s.Object.Value {
		case owlClass, rdfsClass:
		default:
			continue
		}
		if !isIRI(s.Subject) || s.Subject.Value == owlThing || seen[s.Subject.Value] {
			continue
		}
		seen[s.Subject.Value] = true
		classes = append(classes, o.entity(s.Subject))
	}
	return classes
}

// isClass returns whether t is declared as a class.
func (o *Ontology) isClass(t rdf.Term) bool {
	for _, c := range o.g.Objects(t.Value, rdfType) {
		if c.Value == owlClass || c.Value == rdfsClass {
			return true
		}
	}
	return false
}

// Subclasses returns the direct named subclasses of c.
func (o *Ontology) Subclasses(c Entity) []Entity {
	var sub []Entity
	seen := make(map[string]bool)
	for _, t := range o.g.Subjects(subClassOf, c.Term.Value) {
		if !isIRI(t) || seen[t.Value] {
			continue
		}
		seen[t.Value] = true
		sub = append(sub, o.entity(t))
	}
	return sub
}

// ObjectProperties returns the object properties of the ontology.
func (o *Ontology) ObjectProperties() []Property {
	return o.properties(owlObjectProp)
}

// DataProperties returns the data properties of the ontology. The range
// of a data property holds datatypes.
func (o *Ontology) DataProperties() []Property {
	return o.properties(owlDataProp)
}

func (o *Ontology) properties(kind string) []Property {
	var props []Property
	for _, t := range o.g.Subjects(rdfType, kind) {
		if !isIRI(t) {
			continue
		}
		props = append(props, Property{
			Entity: o.entity(t),
			Domain: o.named(t.Value, rdfsDomain),
			Range:  o.named(t.Value, rdfsRange),
		})
	}
	return props
}

// named returns the unique named objects of statements from subject with
// the given predicate.
func (o *Ontology) named(subject, predicate string) []Entity {
	var e []Entity
	seen := make(map[string]bool)
	for _, t := range o.g.Objects(subject, predicate) {
		if !isIRI(t) || seen[t.Value] {
			continue
		}
		seen[t.Value] = true
		e = append(e, o.entity(t))
	}
	return e
}

// Search returns the individuals that are asserted to be of type c or of
// any of the subclasses of c.
func (o *Ontology) Search(c Entity) []Entity {
	if t, ok := o.g.TermFor(c.Term.Value); ok {
		c.Term = t
	}
	classes := []rdf.Term{c.Term}
	for _, d := range o.g.DescendantsOf(c.Term) {
		classes = append(classes, d.Term)
	}
	var found []Entity
	seen := make(map[string]bool)
	for _, class := range classes {
		for _, t := range o.g.Subjects(rdfType, class.Value) {
			if !isIRI(t) || seen[t.Value] || o.isClass(t) {
				continue
			}
			seen[t.Value] = true
			found = append(found, o.entity(t))
		}
	}
	return found
}

// Individuals returns all named individuals of the ontology, those
// asserted to have a named class as their type.
func (o *Ontology) Individuals() []Entity {
	var found []Entity
	seen := make(map[string]bool)
	for _, c := range o.Classes() {
		for _, e := range o.Search(c) {
			if !seen[e.Term.Value] {
				seen[e.Term.Value] = true
				found = append(found, e)
			}
		}
	}
	return found
}

// Types returns the named classes asserted as types of ind. The first
// element is the primary class of the individual.
func (o *Ontology) Types(ind Entity) []Entity {
	var types []Entity
	for _, t := range o.g.Objects(ind.Term.Value, rdfType) {
		if !isIRI(t) || t.Value == owlIndividual || !o.isClass(t) {
			continue
		}
		types = append(types, o.entity(t))
	}
	return types
}

// PropertyValues returns the object and data property assertions made on
// ind in the order they were added. Only predicates declared as object or
// data properties are considered.
func (o *Ontology) PropertyValues(ind Entity) []PropertyValue {
	var values []PropertyValue
	for _, s := range o.g.Outgoing(ind.Term.Value) {
		switch {
		case o.isA(s.Predicate, owlObjectProp):
			if !isIRI(s.Object) {
				continue
			}
			obj := o.entity(s.Object)
			values = append(values, PropertyValue{Property: o.entity(s.Predicate), Object: &obj})
		case o.isA(s.Predicate, owlDataProp):
			lit, ok := literal(s.Object)
			if !ok {
				continue
			}
			values = append(values, PropertyValue{Property: o.entity(s.Predicate), Literal: &lit})
		}
	}
	return values
}

func (o *Ontology) isA(t rdf.Term, kind string) bool {
	for _, c := range o.g.Objects(t.Value, rdfType) {
		if c.Value == kind {
			return true
		}
	}
	return false
}

// literal returns the Literal held by t.
func literal(t rdf.Term) (Literal, bool) {
	text, qual, kind, err := t.Parts()
	if err != nil || kind != rdf.Literal {
		return Literal{}, false
	}
	var l Literal
	l.Text = text
	switch {
	case strings.HasPrefix(qual, "@"):
		l.Lang = qual[1:]
	case qual != "":
		l.Datatype = strings.Trim(strings.TrimPrefix(qual, "^^"), "<>")
	default:
		l.Datatype = XSD + "string"
	}
	return l, true
}

// String returns the lexical form of the literal.
func (l Literal) String() string { return l.Text }
