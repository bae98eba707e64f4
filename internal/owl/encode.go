// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owl

import (
	"fmt"
	"io"
	"strings"

	krdf "github.com/knakk/rdf"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

// Encoder writes statements in N-Triples or Turtle format.
type Encoder struct {
	w   io.Writer
	enc *krdf.TripleEncoder
}

// NewEncoder returns an Encoder writing statements to w in the given
// format. RDF/XML output is not supported.
func NewEncoder(w io.Writer, f Format) (*Encoder, error) {
	switch f {
	case NTriples:
		return &Encoder{w: w}, nil
	case Turtle:
		return &Encoder{enc: krdf.NewTripleEncoder(w, krdf.Turtle)}, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %v", ErrUnknownFormat, f)
	}
}

// Encode writes s.
func (e *Encoder) Encode(s *rdf.Statement) error {
	if e.enc == nil {
		_, err := fmt.Fprintln(e.w, s)
		return err
	}
	t, err := triple(s)
	if err != nil {
		return err
	}
	return e.enc.Encode(t)
}

// Close flushes any buffered output.
func (e *Encoder) Close() error {
	if e.enc == nil {
		return nil
	}
	return e.enc.Close()
}

func triple(s *rdf.Statement) (krdf.Triple, error) {
	subj, err := term(s.Subject)
	if err != nil {
		return krdf.Triple{}, err
	}
	pred, err := term(s.Predicate)
	if err != nil {
		return krdf.Triple{}, err
	}
	obj, err := term(s.Object)
	if err != nil {
		return krdf.Triple{}, err
	}
	sub, ok := subj.(krdf.Subject)
	if !ok {
		return krdf.Triple{}, fmt.Errorf("owl: invalid subject %s", s.Subject.Value)
	}
	p, ok := pred.(krdf.IRI)
	if !ok {
		return krdf.Triple{}, fmt.Errorf("owl: invalid predicate %s", s.Predicate.Value)
	}
	return krdf.Triple{Subj: sub, Pred: p, Obj: obj.(krdf.Object)}, nil
}

func term(t rdf.Term) (krdf.Term, error) {
	text, qual, kind, err := t.Parts()
	if err != nil {
		return nil, err
	}
	switch kind {
	case rdf.IRI:
		return krdf.NewIRI(text)
	case rdf.Blank:
		return krdf.NewBlank(strings.TrimPrefix(text, "_:"))
	case rdf.Literal:
		switch {
		case strings.HasPrefix(qual, "@"):
			return krdf.NewLangLiteral(text, qual[1:])
		case qual != "":
			dt, err := krdf.NewIRI(strings.Trim(strings.TrimPrefix(qual, "^^"), "<>"))
			if err != nil {
				return nil, err
			}
			return krdf.NewTypedLiteral(text, dt), nil
		default:
			return krdf.NewLiteral(text)
		}
	}
	return nil, fmt.Errorf("owl: invalid term %s", t.Value)
}
