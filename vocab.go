// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import "strings"

// Namespaces used by OWL ontologies.
const (
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
)

// Terms of the OWL vocabulary in N-Triples form, matching rdf.Term values.
const (
	rdfType       = "<" + RDF + "type>"
	subClassOf    = "<" + RDFS + "subClassOf>"
	rdfsDomain    = "<" + RDFS + "domain>"
	rdfsRange     = "<" + RDFS + "range>"
	owlOntology   = "<" + OWL + "Ontology>"
	owlClass      = "<" + OWL + "Class>"
	owlThing      = "<" + OWL + "Thing>"
	owlObjectProp = "<" + OWL + "ObjectProperty>"
	owlDataProp   = "<" + OWL + "DatatypeProperty>"
	owlIndividual = "<" + OWL + "NamedIndividual>"
	rdfsClass     = "<" + RDFS + "Class>"
)

// IRITerm returns the N-Triples text for the IRI.
func IRITerm(iri string) string {
	return "<" + iri + ">"
}

// isVocabulary returns whether the IRI term is in the RDF, RDFS, OWL or
// XSD namespace.
func isVocabulary(term string) bool {
	iri := strings.TrimPrefix(term, "<")
	for _, ns := range [...]string{RDF, RDFS, OWL, XSD} {
		if strings.HasPrefix(iri, ns) {
			return true
		}
	}
	return false
}

// LocalName returns the local part of an IRI or IRI term, the text after
// the last '#' or, failing that, the last '/'.
func LocalName(iri string) string {
	iri = strings.TrimSuffix(strings.TrimPrefix(iri, "<"), ">")
	if i := strings.LastIndexByte(iri, '#'); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	if i := strings.LastIndexByte(iri, '/'); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}

// xsdNames maps XSD datatypes to the node names used for data property
// ranges. Datatypes not listed here use their local name.
var xsdNames = map[string]string{
	XSD + "float":              "float",
	XSD + "double":             "float",
	XSD + "decimal":            "float",
	XSD + "integer":            "integer",
	XSD + "int":                "integer",
	XSD + "long":               "integer",
	XSD + "short":              "integer",
	XSD + "nonNegativeInteger": "integer",
	XSD + "positiveInteger":    "integer",
	XSD + "string":             "string",
	RDF + "langString":         "string",
	XSD + "boolean":            "boolean",
	XSD + "dateTime":           "dateTime",
	XSD + "date":               "date",
}

// DatatypeName returns the short name of an XSD datatype IRI.
func DatatypeName(iri string) string {
	iri = strings.TrimSuffix(strings.TrimPrefix(iri, "<"), ">")
	if n, ok := xsdNames[iri]; ok {
		return n
	}
	return LocalName(iri)
}

// DatatypeIRI returns the XSD datatype IRI for a short datatype name such
// as "float" or "integer". Names already holding an IRI are returned
// unaltered.
func DatatypeIRI(name string) string {
	switch name {
	case "float", "double", "decimal", "integer", "int", "long", "string", "boolean", "date", "dateTime":
		if name == "int" {
			name = "integer"
		}
		return XSD + name
	case "str", "":
		return XSD + "string"
	case "bool":
		return XSD + "boolean"
	}
	if strings.Contains(name, ":") {
		return name
	}
	return XSD + name
}
