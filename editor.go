// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"

	"github.com/kortschak/jaal/internal/owl"
)

// Editor builds an OWL ontology from tabular class axioms, property
// definitions and instance rows.
type Editor struct {
	iri string
	g   *Graph

	blank int
}

// NewEditor returns a new Editor for an empty ontology with the given IRI.
func NewEditor(iri string) *Editor {
	e := &Editor{iri: strings.TrimSuffix(iri, "#"), g: NewGraph()}
	e.add(IRITerm(e.iri), rdfType, owlOntology)
	return e
}

// Ontology returns the ontology being edited.
func (e *Editor) Ontology() *Ontology {
	return &Ontology{iri: e.iri, g: e.g}
}

// IRI returns the IRI of the named entity in the ontology's namespace.
// Names that are already absolute IRIs are returned unaltered.
func (e *Editor) IRI(name string) string {
	if strings.Contains(name, "://") {
		return name
	}
	return e.iri + "#" + name
}

func (e *Editor) term(name string) string {
	return IRITerm(e.IRI(name))
}

func (e *Editor) add(subj, pred, obj string) {
	e.g.AddStatement(&rdf.Statement{
		Subject:   rdf.Term{Value: subj},
		Predicate: rdf.Term{Value: pred},
		Object:    rdf.Term{Value: obj},
	})
}

func (e *Editor) newBlank() string {
	e.blank++
	return "_:r" + strconv.Itoa(e.blank)
}

// AddClass declares a class with the given name. If parent is not empty
// the class is made a sub-class of parent, which is also declared.
func (e *Editor) AddClass(name, parent string) {
	c := e.term(name)
	e.add(c, rdfType, owlClass)
	if parent != "" {
		p := e.term(parent)
		e.add(p, rdfType, owlClass)
		e.add(c, subClassOf, p)
	}
}

// Restriction kinds accepted in class axiom rows.
const (
	Some    = "some"
	Only    = "only"
	Value   = "value"
	Exactly = "exactly"
	Min     = "min"
	Max     = "max"
)

// AddAxioms adds class axioms to the ontology. Each row holds
//
//	class, superclass, property, restriction, object, cardinality, equivalent
//
// where all fields but class may be empty or absent. An empty superclass
// makes the class a root class. When property is given, the class is made
// a sub-class of, or equivalent to when equivalent is true, the anonymous
// restriction on property with the given restriction kind and object.
func (e *Editor) AddAxioms(rows [][]string) error {
	for i, row := range rows {
		row = pad(row, 7)
		class := row[0]
		if class == "" {
			return fmt.Errorf("%w: axiom %d", ErrMissingName, i)
		}
		e.AddClass(class, row[1])
		prop := row[2]
		if prop == "" {
			continue
		}
		r, err := e.restriction(prop, row[3], row[4], row[5])
		if err != nil {
			return fmt.Errorf("axiom %d: %w", i, err)
		}
		rel := subClassOf
		if eq, _ := strconv.ParseBool(row[6]); eq {
			rel = "<" + OWL + "equivalentClass>"
		}
		e.add(e.term(class), rel, r)
	}
	return nil
}

// restriction adds an anonymous owl:Restriction and returns its blank node.
func (e *Editor) restriction(prop, kind, obj, card string) (string, error) {
	if obj == "" {
		return "", fmt.Errorf("%w: restriction on %s has no object", ErrInvalidAxiom, prop)
	}
	p := e.term(prop)
	isData := e.g.hasType(p, owlDataProp)
	if !isData {
		e.add(p, rdfType, owlObjectProp)
	}
	r := e.newBlank()
	e.add(r, rdfType, "<"+OWL+"Restriction>")
	e.add(r, "<"+OWL+"onProperty>", p)

	var o string
	switch {
	case isData && kind == Value:
		o = literalTerm(obj, XSD+"string")
	case isData:
		o = IRITerm(DatatypeIRI(obj))
	case kind == Value:
		o = e.term(obj)
		e.add(o, rdfType, owlIndividual)
	default:
		o = e.term(obj)
		e.add(o, rdfType, owlClass)
	}

	switch kind {
	case Some:
		e.add(r, "<"+OWL+"someValuesFrom>", o)
	case Only:
		e.add(r, "<"+OWL+"allValuesFrom>", o)
	case Value:
		e.add(r, "<"+OWL+"hasValue>", o)
	case Exactly, Min, Max:
		n, err := strconv.ParseUint(card, 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: invalid cardinality %q for %s", ErrInvalidAxiom, card, prop)
		}
		pred := map[string]string{
			Exactly: "qualifiedCardinality",
			Min:     "minQualifiedCardinality",
			Max:     "maxQualifiedCardinality",
		}[kind]
		e.add(r, "<"+OWL+pred+">", literalTerm(strconv.FormatUint(n, 10), XSD+"nonNegativeInteger"))
		if isData {
			e.add(r, "<"+OWL+"onDataRange>", o)
		} else {
			e.add(r, "<"+OWL+"onClass>", o)
		}
	default:
		return "", fmt.Errorf("%w: unknown restriction %q", ErrInvalidAxiom, kind)
	}
	return r, nil
}

// Names is a list of entity names. In JSON it may be given either as a
// single string or as an array of strings.
type Names []string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (n *Names) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = nil
		return nil
	case len(data) != 0 && data[0] == '"':
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*n = Names{s}
		return nil
	}
	var s []string
	err := json.Unmarshal(data, &s)
	*n = s
	return err
}

// PropertyDef is a property definition.
type PropertyDef struct {
	Prop       string `json:"prop"`
	Domain     Names  `json:"domain"`
	Range      Names  `json:"range"`
	Functional bool   `json:"functional"`
	Inverse    string `json:"inverse_prop"`
}

// Properties holds object and data property definitions.
type Properties struct {
	Object []PropertyDef `json:"op"`
	Data   []PropertyDef `json:"dp"`
}

// LoadProperties reads JSON encoded property definitions from r.
func LoadProperties(r io.Reader) (Properties, error) {
	var p Properties
	err := json.NewDecoder(r).Decode(&p)
	if err != nil {
		return p, fmt.Errorf("jaal: decoding properties: %w", err)
	}
	return p, nil
}

// AddObjectProperties adds the object properties defined in defs. Domain
// and range classes are declared if they do not already exist.
func (e *Editor) AddObjectProperties(defs []PropertyDef) error {
	for i, d := range defs {
		if d.Prop == "" {
			return fmt.Errorf("%w: object property %d", ErrMissingName, i)
		}
		p := e.term(d.Prop)
		e.add(p, rdfType, owlObjectProp)
		if d.Functional {
			e.add(p, rdfType, "<"+OWL+"FunctionalProperty>")
		}
		for _, c := range d.Domain {
			e.AddClass(c, "")
			e.add(p, rdfsDomain, e.term(c))
		}
		for _, c := range d.Range {
			e.AddClass(c, "")
			e.add(p, rdfsRange, e.term(c))
		}
		if d.Inverse != "" {
			inv := e.term(d.Inverse)
			e.add(inv, rdfType, owlObjectProp)
			e.add(p, "<"+OWL+"inverseOf>", inv)
		}
	}
	return nil
}

// AddDataProperties adds the data properties defined in defs. Ranges are
// datatype names such as "float" or "integer", or datatype IRIs.
func (e *Editor) AddDataProperties(defs []PropertyDef) error {
	for i, d := range defs {
		if d.Prop == "" {
			return fmt.Errorf("%w: data property %d", ErrMissingName, i)
		}
		if d.Inverse != "" {
			return fmt.Errorf("%w: data property %s cannot have an inverse", ErrInvalidAxiom, d.Prop)
		}
		p := e.term(d.Prop)
		e.add(p, rdfType, owlDataProp)
		if d.Functional {
			e.add(p, rdfType, "<"+OWL+"FunctionalProperty>")
		}
		for _, c := range d.Domain {
			e.AddClass(c, "")
			e.add(p, rdfsDomain, e.term(c))
		}
		for _, t := range d.Range {
			e.add(p, rdfsRange, IRITerm(DatatypeIRI(t)))
		}
	}
	return nil
}

// AddInstances adds individuals to the ontology. Each row holds
//
//	instance, class, property, value, datatype
//
// An empty class makes the individual an instance of owl:Thing. When
// property is given, an empty datatype makes value the name of an
// individual related by an object property, otherwise value is a literal
// of the named datatype. Undeclared classes and properties are declared.
func (e *Editor) AddInstances(rows [][]string) error {
	for i, row := range rows {
		row = pad(row, 5)
		name, class, prop, value, dt := row[0], row[1], row[2], row[3], row[4]
		if name == "" {
			return fmt.Errorf("%w: instance %d", ErrMissingName, i)
		}
		ind := e.term(name)
		e.add(ind, rdfType, owlIndividual)
		if class == "" {
			e.add(ind, rdfType, owlThing)
		} else {
			e.AddClass(class, "")
			e.add(ind, rdfType, e.term(class))
		}
		if prop == "" {
			continue
		}
		if value == "" {
			return fmt.Errorf("%w: instance %s has property %s without value", ErrInvalidAxiom, name, prop)
		}
		p := e.term(prop)
		if dt == "" {
			if e.g.hasType(p, owlDataProp) {
				return fmt.Errorf("%w: %s is a data property but no datatype given", ErrInvalidAxiom, prop)
			}
			e.add(p, rdfType, owlObjectProp)
			v := e.term(value)
			e.add(v, rdfType, owlIndividual)
			e.add(ind, p, v)
			continue
		}
		if e.g.hasType(p, owlObjectProp) {
			return fmt.Errorf("%w: %s is an object property but datatype %s given", ErrInvalidAxiom, prop, dt)
		}
		iri := DatatypeIRI(dt)
		lex, err := lexical(value, iri)
		if err != nil {
			return fmt.Errorf("instance %s: %w", name, err)
		}
		e.add(p, rdfType, owlDataProp)
		e.add(ind, p, literalTerm(lex, iri))
	}
	return nil
}

// LoadAxiomsCSV reads class axioms from CSV data in r and adds them to
// the ontology. A header row starting with "class" is skipped.
func (e *Editor) LoadAxiomsCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("jaal: reading axioms: %w", err)
	}
	if len(rows) != 0 && len(rows[0]) != 0 && strings.EqualFold(rows[0][0], "class") {
		rows = rows[1:]
	}
	for i, row := range rows {
		for j, f := range row {
			// Empty cells are written as None by some tools.
			if f == "None" || f == "nan" {
				rows[i][j] = ""
			}
		}
	}
	return e.AddAxioms(rows)
}

// Remove removes the named entity and every statement referring to it.
// Removing a property removes all of its assertions. Removing an entity
// that does not exist is a no-op.
func (e *Editor) Remove(name string) {
	t, ok := e.g.TermFor(e.term(name))
	if !ok {
		return
	}
	e.g.RemoveTerm(t)
}

// RemoveSubClass removes the axiom making class a sub-class of parent.
func (e *Editor) RemoveSubClass(class, parent string) {
	for _, s := range e.g.Outgoing(e.term(class)) {
		if s.Predicate.Value == subClassOf && s.Object.Value == e.term(parent) {
			e.g.RemoveStatement(s)
		}
	}
}

// Save writes the ontology to w in the named format, "ntriples" or
// "turtle", in the order statements were added.
func (e *Editor) Save(w io.Writer, format string) error {
	return e.g.Encode(w, format)
}

// hasType returns whether the subject is asserted to have type kind.
func (g *Graph) hasType(subject, kind string) bool {
	for _, t := range g.Objects(subject, rdfType) {
		if t.Value == kind {
			return true
		}
	}
	return false
}

// lexical returns value after checking it is a valid lexical form for the
// datatype.
func lexical(value, datatype string) (string, error) {
	var err error
	switch DatatypeName(datatype) {
	case "float":
		_, err = strconv.ParseFloat(value, 64)
	case "integer":
		_, err = strconv.ParseInt(value, 10, 64)
	case "boolean":
		_, err = strconv.ParseBool(value)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a valid %s", ErrInvalidLiteral, value, DatatypeName(datatype))
	}
	return value, nil
}

// literalTerm returns the N-Triples text of a typed literal.
func literalTerm(text, datatype string) string {
	return owl.Literal(text, datatype, "")
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	p := make([]string, n)
	copy(p, row)
	return p
}
