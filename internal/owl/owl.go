// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package owl provides decoding and encoding of OWL ontology files as
// RDF statements.
package owl

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	krdf "github.com/knakk/rdf"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

// Format is an ontology serialization format.
type Format int

const (
	NTriples Format = iota
	Turtle
	RDFXML
)

func (f Format) String() string {
	switch f {
	case NTriples:
		return "ntriples"
	case Turtle:
		return "turtle"
	case RDFXML:
		return "rdfxml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ErrUnknownFormat is returned when a format cannot be determined.
var ErrUnknownFormat = errors.New("owl: unknown format")

// FormatFor returns the format of the named file from its extension. A
// trailing .gz extension is ignored.
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, ".gz")))
	switch ext {
	case ".nt", ".ntriples":
		return NTriples, nil
	case ".ttl", ".turtle":
		return Turtle, nil
	case ".owl", ".rdf", ".xml":
		return RDFXML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// ParseFormat returns the format with the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "nt", "ntriples", "n-triples":
		return NTriples, nil
	case "ttl", "turtle":
		return Turtle, nil
	case "owl", "rdf", "xml", "rdfxml", "rdf/xml":
		return RDFXML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Open opens the named ontology file and returns a reader of its contents
// and its format. Gzip compressed files are decompressed transparently.
func Open(path string) (io.ReadCloser, Format, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	br := bufio.NewReader(f)
	magic, _ := br.Peek(2)
	if !bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return readCloser{Reader: br, close: f.Close}, format, nil
	}
	r, err := gzip.NewReader(br)
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return readCloser{Reader: r, close: func() error {
		r.Close()
		return f.Close()
	}}, format, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

// Decoder is an ontology statement decoder.
type Decoder struct {
	nt  *rdf.Decoder
	dec krdf.TripleDecoder
}

// NewDecoder returns a Decoder reading statements in the given format
// from r. N-Triples are decoded directly, Turtle and RDF/XML are decoded
// and converted to N-Triples form.
func NewDecoder(r io.Reader, f Format) (*Decoder, error) {
	switch f {
	case NTriples:
		return &Decoder{nt: rdf.NewDecoder(r)}, nil
	case Turtle:
		return &Decoder{dec: krdf.NewTripleDecoder(r, krdf.Turtle)}, nil
	case RDFXML:
		return &Decoder{dec: krdf.NewTripleDecoder(r, krdf.RDFXML)}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// Unmarshal returns the next statement from the input. At the end of the
// input it returns io.EOF. Term UIDs of returned statements are zero.
func (d *Decoder) Unmarshal() (*rdf.Statement, error) {
	if d.nt != nil {
		return d.nt.Unmarshal()
	}
	t, err := d.dec.Decode()
	if err != nil {
		return nil, err
	}
	var s rdf.Statement
	s.Subject.Value, err = Term(t.Subj)
	if err != nil {
		return nil, err
	}
	s.Predicate.Value, err = Term(t.Pred)
	if err != nil {
		return nil, err
	}
	s.Object.Value, err = Term(t.Obj)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Term returns the N-Triples text for t.
func Term(t krdf.Term) (string, error) {
	switch t.Type() {
	case krdf.TermIRI, krdf.TermBlank:
		return t.Serialize(krdf.NTriples), nil
	case krdf.TermLiteral:
		l, ok := t.(krdf.Literal)
		if !ok {
			return "", fmt.Errorf("owl: unexpected literal type %T", t)
		}
		return Literal(l.String(), l.DataType.String(), l.Lang()), nil
	default:
		return "", fmt.Errorf("owl: invalid term %v", t)
	}
}

// XSDString is the IRI of the xsd:string datatype.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// Literal returns the N-Triples text of a literal. A non-empty lang takes
// precedence over datatype. The xsd:string datatype is left implicit.
func Literal(text, datatype, lang string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, r := range text {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	switch {
	case lang != "":
		buf.WriteString("@" + lang)
	case datatype != "" && datatype != XSDString:
		buf.WriteString("^^<" + datatype + ">")
	}
	return buf.String()
}
