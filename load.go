// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jaal

import (
	"errors"
	"fmt"
	"io"

	"github.com/kortschak/jaal/internal/owl"
)

// ReadGraph returns a new Graph holding the statements read from r in the
// named format, "ntriples", "turtle" or "rdfxml".
func ReadGraph(r io.Reader, format string) (*Graph, error) {
	f, err := owl.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return readGraph(r, f)
}

func readGraph(r io.Reader, f owl.Format) (*Graph, error) {
	dec, err := owl.NewDecoder(r, f)
	if err != nil {
		return nil, err
	}
	g := NewGraph()
	for {
		s, err := dec.Unmarshal()
		if err != nil {
			if err != io.EOF {
				return nil, fmt.Errorf("jaal: error during decoding: %w", err)
			}
			break
		}
		g.AddStatement(s)
	}
	return g, nil
}

// Load returns the ontology held in the file at path. The format of the
// file is determined by its extension and the file may be gzip compressed.
// If iri is empty, the ontology IRI is taken from the file.
func Load(path, iri string) (*Ontology, error) {
	r, f, err := owl.Open(path)
	if err != nil {
		if errors.Is(err, owl.ErrUnknownFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
		}
		return nil, err
	}
	defer r.Close()
	g, err := readGraph(r, f)
	if err != nil {
		return nil, err
	}
	return NewOntology(iri, g), nil
}

// Encode writes the statements of g to w in the named format, "ntriples"
// or "turtle", in the order they were added.
func (g *Graph) Encode(w io.Writer, format string) error {
	f, err := owl.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	enc, err := owl.NewEncoder(w, f)
	if err != nil {
		return err
	}
	for _, s := range g.OrderedStatements() {
		err = enc.Encode(s)
		if err != nil {
			return err
		}
	}
	return enc.Close()
}
