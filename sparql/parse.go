// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kortschak/jaal/internal/owl"
)

// Namespaces predeclared for all queries.
var predeclared = map[string]string{
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"owl":  "http://www.w3.org/2002/07/owl#",
	"xsd":  "http://www.w3.org/2001/XMLSchema#",
}

const rdfType = "<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>"

// Query is a parsed SPARQL SELECT query.
type Query struct {
	Base     string
	Prefixes map[string]string

	Distinct bool
	// Star is true for SELECT *.
	Star       bool
	Projection []Projection

	Patterns []Pattern
	Filters  []Expr

	Order []OrderKey
	// Limit and Offset are negative when not given.
	Limit  int
	Offset int
}

// Projection is a selected variable or aggregate.
type Projection struct {
	// Var is the name of the result variable.
	Var string
	// Count is non-nil for COUNT aggregates.
	Count *Count
}

// Count is a COUNT aggregate.
type Count struct {
	Distinct bool
	// Var is the counted variable, empty for COUNT(*).
	Var string
}

// Node is a term or variable in a triple pattern.
type Node struct {
	// Var is the variable name if the node is a variable.
	Var string
	// Term is the N-Triples text of a constant term.
	Term string
}

func (n Node) String() string {
	if n.Var != "" {
		return "?" + n.Var
	}
	return n.Term
}

// Pattern is a triple pattern.
type Pattern struct {
	S, P, O Node
}

// OrderKey is an ORDER BY condition.
type OrderKey struct {
	Expr Expr
	Desc bool
}

// Parse parses a SPARQL SELECT query. The prefixes rdf, rdfs, owl and xsd
// are predeclared and prefixes may be used to declare others, including
// the empty prefix. Declarations in the query take precedence.
func Parse(query string, prefixes map[string]string) (*Query, error) {
	toks, err := lex(query)
	if err != nil {
		return nil, err
	}
	p := parser{
		toks: toks,
		q: &Query{
			Prefixes: make(map[string]string),
			Limit:    -1,
			Offset:   -1,
		},
	}
	for k, v := range predeclared {
		p.q.Prefixes[k] = v
	}
	for k, v := range prefixes {
		p.q.Prefixes[k] = v
	}
	err = p.parse()
	if err != nil {
		return nil, err
	}
	return p.q, nil
}

type parser struct {
	toks []token
	pos  int
	q    *Query
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrSyntax, fmt.Sprintf(format, args...), t)
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokKeyword && t.text == kw
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return p.errorf(t, "expected %q", s)
	}
	return nil
}

func (p *parser) expectKeyword(kw string) error {
	t := p.next()
	if t.kind != tokKeyword || t.text != kw {
		return p.errorf(t, "expected %s", kw)
	}
	return nil
}

func (p *parser) parse() error {
	err := p.prologue()
	if err != nil {
		return err
	}
	t := p.peek()
	if t.kind != tokKeyword {
		return p.errorf(t, "expected query form")
	}
	switch t.text {
	case "SELECT":
	case "ASK", "CONSTRUCT", "DESCRIBE":
		return fmt.Errorf("%w: %s queries", ErrUnsupported, t.text)
	default:
		return p.errorf(t, "expected query form")
	}
	p.next()
	err = p.selectClause()
	if err != nil {
		return err
	}
	if p.isKeyword("FROM") {
		return fmt.Errorf("%w: FROM clauses", ErrUnsupported)
	}
	if p.isKeyword("WHERE") {
		p.next()
	}
	err = p.groupGraphPattern()
	if err != nil {
		return err
	}
	err = p.modifiers()
	if err != nil {
		return err
	}
	if t := p.peek(); t.kind != tokEOF {
		return p.errorf(t, "unexpected trailing input")
	}
	return nil
}

func (p *parser) prologue() error {
	for {
		switch {
		case p.isKeyword("BASE"):
			p.next()
			t := p.next()
			if t.kind != tokIRI {
				return p.errorf(t, "expected base IRI")
			}
			p.q.Base = t.text
		case p.isKeyword("PREFIX"):
			p.next()
			t := p.next()
			if t.kind != tokPName || !strings.HasSuffix(t.text, ":") {
				return p.errorf(t, "expected prefix name")
			}
			prefix := strings.TrimSuffix(t.text, ":")
			t = p.next()
			if t.kind != tokIRI {
				return p.errorf(t, "expected namespace IRI")
			}
			p.q.Prefixes[prefix] = p.resolve(t.text)
		default:
			return nil
		}
	}
}

func (p *parser) selectClause() error {
	switch {
	case p.isKeyword("DISTINCT"):
		p.next()
		p.q.Distinct = true
	case p.isKeyword("REDUCED"):
		p.next()
	}
	if p.isPunct("*") {
		p.next()
		p.q.Star = true
		return nil
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokVar:
			p.next()
			p.q.Projection = append(p.q.Projection, Projection{Var: t.text})
		case t.kind == tokPunct && t.text == "(":
			p.next()
			proj, err := p.aggregate()
			if err != nil {
				return err
			}
			p.q.Projection = append(p.q.Projection, proj)
		default:
			if len(p.q.Projection) == 0 {
				return p.errorf(t, "expected projection")
			}
			return nil
		}
	}
}

// aggregate parses (COUNT([DISTINCT] *|?v) AS ?c) after the opening
// parenthesis.
func (p *parser) aggregate() (Projection, error) {
	t := p.next()
	if t.kind != tokKeyword {
		return Projection{}, p.errorf(t, "expected aggregate")
	}
	if t.text != "COUNT" {
		return Projection{}, fmt.Errorf("%w: %s projection", ErrUnsupported, t.text)
	}
	err := p.expectPunct("(")
	if err != nil {
		return Projection{}, err
	}
	var c Count
	if p.isKeyword("DISTINCT") {
		p.next()
		c.Distinct = true
	}
	t = p.next()
	switch {
	case t.kind == tokPunct && t.text == "*":
	case t.kind == tokVar:
		c.Var = t.text
	default:
		return Projection{}, p.errorf(t, "expected * or variable")
	}
	err = p.expectPunct(")")
	if err != nil {
		return Projection{}, err
	}
	err = p.expectKeyword("AS")
	if err != nil {
		return Projection{}, err
	}
	t = p.next()
	if t.kind != tokVar {
		return Projection{}, p.errorf(t, "expected variable")
	}
	err = p.expectPunct(")")
	if err != nil {
		return Projection{}, err
	}
	return Projection{Var: t.text, Count: &c}, nil
}

func (p *parser) groupGraphPattern() error {
	err := p.expectPunct("{")
	if err != nil {
		return err
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokPunct && t.text == "}":
			p.next()
			return nil
		case t.kind == tokPunct && t.text == ".":
			p.next()
		case t.kind == tokKeyword && t.text == "FILTER":
			p.next()
			e, err := p.constraint()
			if err != nil {
				return err
			}
			p.q.Filters = append(p.q.Filters, e)
		case t.kind == tokKeyword && (t.text == "OPTIONAL" || t.text == "UNION" || t.text == "MINUS" ||
			t.text == "GRAPH" || t.text == "BIND" || t.text == "VALUES" || t.text == "SERVICE"):
			return fmt.Errorf("%w: %s", ErrUnsupported, t.text)
		case t.kind == tokPunct && t.text == "{":
			return fmt.Errorf("%w: nested group patterns", ErrUnsupported)
		case t.kind == tokEOF:
			return p.errorf(t, "unterminated group pattern")
		default:
			err := p.triplesSameSubject()
			if err != nil {
				return err
			}
		}
	}
}

func (p *parser) triplesSameSubject() error {
	s, err := p.node(false)
	if err != nil {
		return err
	}
	for {
		pred, err := p.verb()
		if err != nil {
			return err
		}
		for {
			o, err := p.node(true)
			if err != nil {
				return err
			}
			p.q.Patterns = append(p.q.Patterns, Pattern{S: s, P: pred, O: o})
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		if !p.isPunct(";") {
			return nil
		}
		for p.isPunct(";") {
			p.next()
		}
		if p.isPunct(".") || p.isPunct("}") {
			return nil
		}
	}
}

func (p *parser) verb() (Node, error) {
	t := p.peek()
	if t.kind == tokKeyword && t.text == "a" {
		p.next()
		return Node{Term: rdfType}, nil
	}
	n, err := p.node(false)
	if err != nil {
		return Node{}, err
	}
	if n.Var == "" && !strings.HasPrefix(n.Term, "<") {
		return Node{}, p.errorf(t, "predicate must be an IRI or variable")
	}
	return n, nil
}

// node parses a variable or term. Literals are only accepted when
// literal is true.
func (p *parser) node(literal bool) (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.next()
		return Node{Var: t.text}, nil
	case tokBlank:
		p.next()
		// Blank nodes in patterns act as undistinguished variables.
		return Node{Var: "_:" + t.text}, nil
	case tokIRI, tokPName:
		term, err := p.iriTerm()
		if err != nil {
			return Node{}, err
		}
		return Node{Term: term}, nil
	case tokPunct:
		if t.text == "[" {
			return Node{}, fmt.Errorf("%w: anonymous blank nodes", ErrUnsupported)
		}
	}
	if !literal {
		return Node{}, p.errorf(t, "expected subject or predicate")
	}
	term, err := p.literal()
	if err != nil {
		return Node{}, err
	}
	return Node{Term: term}, nil
}

// iriTerm parses an IRI or prefixed name and returns its N-Triples text.
func (p *parser) iriTerm() (string, error) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return "<" + p.resolve(t.text) + ">", nil
	case tokPName:
		i := strings.IndexByte(t.text, ':')
		ns, ok := p.q.Prefixes[t.text[:i]]
		if !ok {
			return "", p.errorf(t, "undeclared prefix %q", t.text[:i])
		}
		return "<" + ns + t.text[i+1:] + ">", nil
	}
	return "", p.errorf(t, "expected IRI")
}

// literal parses a literal and returns its N-Triples text.
func (p *parser) literal() (string, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		switch p.peek().kind {
		case tokLangTag:
			return owl.Literal(t.text, "", p.next().text), nil
		case tokDatatype:
			p.next()
			dt, err := p.iriTerm()
			if err != nil {
				return "", err
			}
			return owl.Literal(t.text, strings.Trim(dt, "<>"), ""), nil
		}
		return owl.Literal(t.text, "", ""), nil
	case tokNumber:
		return numberLiteral(t.text), nil
	case tokKeyword:
		switch t.text {
		case "TRUE", "FALSE":
			return owl.Literal(strings.ToLower(t.text), xsd+"boolean", ""), nil
		}
	}
	return "", p.errorf(t, "expected term")
}

const xsd = "http://www.w3.org/2001/XMLSchema#"

func numberLiteral(text string) string {
	switch {
	case strings.ContainsAny(text, "eE"):
		return owl.Literal(text, xsd+"double", "")
	case strings.Contains(text, "."):
		return owl.Literal(text, xsd+"decimal", "")
	}
	return owl.Literal(text, xsd+"integer", "")
}

// resolve resolves iri against the query base.
func (p *parser) resolve(iri string) string {
	if p.q.Base == "" {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	base, err := url.Parse(p.q.Base)
	if err != nil {
		return iri
	}
	return base.ResolveReference(ref).String()
}

func (p *parser) modifiers() error {
	if p.isKeyword("GROUP") || p.isKeyword("HAVING") {
		return fmt.Errorf("%w: %s", ErrUnsupported, p.peek().text)
	}
	if p.isKeyword("ORDER") {
		p.next()
		err := p.expectKeyword("BY")
		if err != nil {
			return err
		}
		err = p.orderConditions()
		if err != nil {
			return err
		}
	}
	for i := 0; i < 2; i++ {
		switch {
		case p.isKeyword("LIMIT"):
			p.next()
			n, err := p.integer()
			if err != nil {
				return err
			}
			p.q.Limit = n
		case p.isKeyword("OFFSET"):
			p.next()
			n, err := p.integer()
			if err != nil {
				return err
			}
			p.q.Offset = n
		}
	}
	return nil
}

func (p *parser) orderConditions() error {
	for {
		var key OrderKey
		switch {
		case p.isKeyword("ASC"), p.isKeyword("DESC"):
			key.Desc = p.next().text == "DESC"
			var err error
			key.Expr, err = p.brackettedExpr()
			if err != nil {
				return err
			}
		case p.peek().kind == tokVar:
			key.Expr = varExpr(p.next().text)
		case p.isPunct("("):
			var err error
			key.Expr, err = p.brackettedExpr()
			if err != nil {
				return err
			}
		default:
			if len(p.q.Order) == 0 {
				return p.errorf(p.peek(), "expected order condition")
			}
			return nil
		}
		p.q.Order = append(p.q.Order, key)
	}
}

func (p *parser) integer() (int, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, p.errorf(t, "expected integer")
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 0 {
		return 0, p.errorf(t, "expected non-negative integer")
	}
	return n, nil
}
