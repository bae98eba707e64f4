// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package owl

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/formats/rdf"
)

const rdfXML = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#">
  <owl:Ontology rdf:about="http://example.org/shop"/>
  <owl:Class rdf:about="http://example.org/shop#book">
    <rdfs:label xml:lang="en">Book</rdfs:label>
  </owl:Class>
</rdf:RDF>
`

const turtle = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
<http://example.org/shop> a owl:Ontology .
<http://example.org/shop#dune> <http://example.org/shop#pages> "412"^^xsd:integer .
<http://example.org/shop#dune> <http://example.org/shop#title> "Dune" .
`

func decodeAll(t *testing.T, r io.Reader, f Format) []string {
	t.Helper()
	dec, err := NewDecoder(r, f)
	require.NoError(t, err)
	var got []string
	for {
		s, err := dec.Unmarshal()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, s.String())
	}
	return got
}

func TestDecode(t *testing.T) {
	assert.Equal(t, []string{
		"<http://example.org/shop> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Ontology> .",
		"<http://example.org/shop#book> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .",
		`<http://example.org/shop#book> <http://www.w3.org/2000/01/rdf-schema#label> "Book"@en .`,
	}, decodeAll(t, strings.NewReader(rdfXML), RDFXML))

	assert.Equal(t, []string{
		"<http://example.org/shop> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Ontology> .",
		`<http://example.org/shop#dune> <http://example.org/shop#pages> "412"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
		`<http://example.org/shop#dune> <http://example.org/shop#title> "Dune" .`,
	}, decodeAll(t, strings.NewReader(turtle), Turtle))
}

func TestEncodeNTriples(t *testing.T) {
	s := &rdf.Statement{
		Subject:   rdf.Term{Value: "_:b0"},
		Predicate: rdf.Term{Value: "<http://example.org/shop#title>"},
		Object:    rdf.Term{Value: Literal("say \"hi\"\n", "", "en")},
	}
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, NTriples)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(s))
	require.NoError(t, enc.Close())
	assert.Equal(t, `_:b0 <http://example.org/shop#title> "say \"hi\"\n"@en .`+"\n", buf.String())

	_, err = NewEncoder(&buf, RDFXML)
	assert.True(t, errors.Is(err, ErrUnknownFormat), "unexpected error: %v", err)
}

func TestEncodeTurtle(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, Turtle)
	require.NoError(t, err)
	for _, s := range []*rdf.Statement{
		{
			Subject:   rdf.Term{Value: "<http://example.org/shop#dune>"},
			Predicate: rdf.Term{Value: "<http://example.org/shop#pages>"},
			Object:    rdf.Term{Value: Literal("412", "http://www.w3.org/2001/XMLSchema#integer", "")},
		},
		{
			Subject:   rdf.Term{Value: "_:r1"},
			Predicate: rdf.Term{Value: "<http://www.w3.org/2002/07/owl#onClass>"},
			Object:    rdf.Term{Value: "<http://example.org/shop#author>"},
		},
	} {
		require.NoError(t, enc.Encode(s))
	}
	require.NoError(t, enc.Close())

	got := decodeAll(t, &buf, Turtle)
	require.Len(t, got, 2)
	assert.Equal(t, `<http://example.org/shop#dune> <http://example.org/shop#pages> "412"^^<http://www.w3.org/2001/XMLSchema#integer> .`, got[0])
	assert.True(t, strings.HasSuffix(got[1], "<http://www.w3.org/2002/07/owl#onClass> <http://example.org/shop#author> ."), "unexpected statement: %s", got[1])

	err = enc.Encode(&rdf.Statement{
		Subject:   rdf.Term{Value: `"literal"`},
		Predicate: rdf.Term{Value: "<http://example.org/shop#p>"},
		Object:    rdf.Term{Value: "<http://example.org/shop#o>"},
	})
	assert.Error(t, err)
}

func TestLiteral(t *testing.T) {
	for _, test := range []struct {
		text, datatype, lang string
		want                 string
	}{
		{"Dune", "", "", `"Dune"`},
		{"Dune", XSDString, "", `"Dune"`},
		{"Dune", "", "en", `"Dune"@en`},
		{"412", "http://www.w3.org/2001/XMLSchema#integer", "", `"412"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"a\\b\tc", "", "", `"a\\b\tc"`},
	} {
		assert.Equal(t, test.want, Literal(test.text, test.datatype, test.lang))
	}
}

func TestFormat(t *testing.T) {
	for _, test := range []struct {
		path string
		want Format
	}{
		{"pizza.owl", RDFXML},
		{"pizza.OWL.gz", RDFXML},
		{"go.nt.gz", NTriples},
		{"shop.ttl", Turtle},
	} {
		f, err := FormatFor(test.path)
		require.NoError(t, err, "unexpected error for %s", test.path)
		assert.Equal(t, test.want, f, "unexpected format for %s", test.path)
	}
	_, err := FormatFor("shop.jsonld")
	assert.True(t, errors.Is(err, ErrUnknownFormat), "unexpected error: %v", err)

	f, err := ParseFormat("N-Triples")
	require.NoError(t, err)
	assert.Equal(t, "ntriples", f.String())
	_, err = ParseFormat("n3")
	assert.True(t, errors.Is(err, ErrUnknownFormat), "unexpected error: %v", err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "shop.ttl")
	require.NoError(t, os.WriteFile(plain, []byte(turtle), 0o644))

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(rdfXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	compressed := filepath.Join(dir, "shop.owl.gz")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0o644))

	for _, test := range []struct {
		path   string
		format Format
		n      int
	}{
		{plain, Turtle, 3},
		{compressed, RDFXML, 3},
	} {
		r, f, err := Open(test.path)
		require.NoError(t, err)
		assert.Equal(t, test.format, f)
		assert.Len(t, decodeAll(t, r, f), test.n)
		assert.NoError(t, r.Close())
	}

	_, _, err = Open(filepath.Join(dir, "missing.ttl"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "unexpected error: %v", err)
}
