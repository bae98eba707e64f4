// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/graph/formats/rdf"
)

// Expr is a filter or ordering expression.
type Expr interface {
	eval(b binding) (value, error)
}

// binding holds the terms bound to variables in a solution.
type binding map[string]rdf.Term

// errType is the SPARQL type error. Filters evaluating to an error
// reject the solution.
var errType = errors.New("sparql: type error")

// value is the result of evaluating an expression.
type value struct {
	kind rdf.Kind
	text string
	// dt is the datatype IRI of a literal without a
	// language tag.
	dt   string
	lang string
}

func boolValue(b bool) value {
	return value{kind: rdf.Literal, text: strconv.FormatBool(b), dt: xsd + "boolean"}
}

func stringValue(s string) value {
	return value{kind: rdf.Literal, text: s, dt: xsd + "string"}
}

// termValue returns the value of an N-Triples term.
func termValue(t string) (value, error) {
	text, qual, kind, err := rdf.Term{Value: t}.Parts()
	if err != nil {
		return value{}, err
	}
	v := value{kind: kind, text: text}
	if kind != rdf.Literal {
		return v, nil
	}
	switch {
	case strings.HasPrefix(qual, "@"):
		v.lang = strings.ToLower(qual[1:])
	case qual != "":
		v.dt = strings.Trim(strings.TrimPrefix(qual, "^^"), "<>")
	default:
		v.dt = xsd + "string"
	}
	return v, nil
}

var numericTypes = map[string]bool{
	xsd + "integer":            true,
	xsd + "decimal":            true,
	xsd + "float":              true,
	xsd + "double":             true,
	xsd + "int":                true,
	xsd + "long":               true,
	xsd + "short":              true,
	xsd + "byte":               true,
	xsd + "nonNegativeInteger": true,
	xsd + "positiveInteger":    true,
	xsd + "negativeInteger":    true,
	xsd + "nonPositiveInteger": true,
	xsd + "unsignedInt":        true,
	xsd + "unsignedLong":       true,
}

// number returns the numeric value of v if it is a numeric literal.
func (v value) number() (float64, bool) {
	if v.kind != rdf.Literal || !numericTypes[v.dt] {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	return f, err == nil
}

func (v value) isString() bool {
	return v.kind == rdf.Literal && (v.lang != "" || v.dt == xsd+"string")
}

// ebv returns the effective boolean value of v.
func (v value) ebv() (bool, error) {
	if v.kind != rdf.Literal {
		return false, errType
	}
	switch {
	case v.dt == xsd+"boolean":
		return v.text == "true" || v.text == "1", nil
	case v.isString():
		return v.text != "", nil
	}
	if f, ok := v.number(); ok {
		return f != 0, nil
	}
	return false, errType
}

type varExpr string

func (e varExpr) eval(b binding) (value, error) {
	t, ok := b[string(e)]
	if !ok {
		return value{}, fmt.Errorf("%w: unbound variable ?%s", errType, string(e))
	}
	return termValue(t.Value)
}

type constExpr struct {
	v value
}

func (e constExpr) eval(binding) (value, error) { return e.v, nil }

type notExpr struct {
	x Expr
}

func (e notExpr) eval(b binding) (value, error) {
	v, err := e.x.eval(b)
	if err != nil {
		return value{}, err
	}
	ok, err := v.ebv()
	if err != nil {
		return value{}, err
	}
	return boolValue(!ok), nil
}

type negExpr struct {
	x Expr
}

func (e negExpr) eval(b binding) (value, error) {
	v, err := e.x.eval(b)
	if err != nil {
		return value{}, err
	}
	f, ok := v.number()
	if !ok {
		return value{}, errType
	}
	return value{kind: rdf.Literal, text: strconv.FormatFloat(-f, 'g', -1, 64), dt: xsd + "double"}, nil
}

type logicalExpr struct {
	op   string
	x, y Expr
}

// eval implements the SPARQL three-valued logic for || and &&.
func (e logicalExpr) eval(b binding) (value, error) {
	l, lerr := ebvOf(e.x, b)
	r, rerr := ebvOf(e.y, b)
	switch e.op {
	case "||":
		if (lerr == nil && l) || (rerr == nil && r) {
			return boolValue(true), nil
		}
	case "&&":
		if (lerr == nil && !l) || (rerr == nil && !r) {
			return boolValue(false), nil
		}
	}
	if lerr != nil {
		return value{}, lerr
	}
	if rerr != nil {
		return value{}, rerr
	}
	return boolValue(e.op == "&&"), nil
}

func ebvOf(e Expr, b binding) (bool, error) {
	v, err := e.eval(b)
	if err != nil {
		return false, err
	}
	return v.ebv()
}

type compareExpr struct {
	op   string
	x, y Expr
}

func (e compareExpr) eval(b binding) (value, error) {
	l, err := e.x.eval(b)
	if err != nil {
		return value{}, err
	}
	r, err := e.y.eval(b)
	if err != nil {
		return value{}, err
	}
	c, err := compare(l, r)
	if err != nil {
		if errors.Is(err, errIncomparable) {
			switch e.op {
			case "=":
				return boolValue(false), nil
			case "!=":
				return boolValue(true), nil
			}
		}
		return value{}, err
	}
	switch e.op {
	case "=":
		return boolValue(c == 0), nil
	case "!=":
		return boolValue(c != 0), nil
	case "<":
		return boolValue(c < 0), nil
	case "<=":
		return boolValue(c <= 0), nil
	case ">":
		return boolValue(c > 0), nil
	case ">=":
		return boolValue(c >= 0), nil
	}
	return value{}, fmt.Errorf("sparql: invalid operator %q", e.op)
}

var errIncomparable = fmt.Errorf("%w: incomparable values", errType)

// compare returns the ordering of a and b.
func compare(a, b value) (int, error) {
	if fa, ok := a.number(); ok {
		fb, ok := b.number()
		if !ok {
			return 0, errIncomparable
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}
	if a.kind != b.kind {
		return 0, errIncomparable
	}
	if a.kind == rdf.Literal && (a.dt != b.dt || a.lang != b.lang) {
		return 0, errIncomparable
	}
	return strings.Compare(a.text, b.text), nil
}

type callExpr struct {
	name string
	args []Expr

	// re is the compiled pattern for REGEX calls
	// with a constant pattern.
	re *regexp.Regexp
}

// builtins maps function names to their arity range.
var builtins = map[string][2]int{
	"REGEX":     {2, 3},
	"STR":       {1, 1},
	"LANG":      {1, 1},
	"DATATYPE":  {1, 1},
	"CONTAINS":  {2, 2},
	"STRSTARTS": {2, 2},
	"STRENDS":   {2, 2},
	"STRLEN":    {1, 1},
	"LCASE":     {1, 1},
	"UCASE":     {1, 1},
	"BOUND":     {1, 1},
	"ISIRI":     {1, 1},
	"ISURI":     {1, 1},
	"ISLITERAL": {1, 1},
	"ISBLANK":   {1, 1},
	"ISNUMERIC": {1, 1},
}

func (e *callExpr) eval(b binding) (value, error) {
	if e.name == "BOUND" {
		_, ok := b[string(e.args[0].(varExpr))]
		return boolValue(ok), nil
	}
	args := make([]value, len(e.args))
	for i, a := range e.args {
		var err error
		args[i], err = a.eval(b)
		if err != nil {
			return value{}, err
		}
	}
	switch e.name {
	case "STR":
		if args[0].kind == rdf.Blank {
			return value{}, errType
		}
		return stringValue(args[0].text), nil
	case "LANG":
		if args[0].kind != rdf.Literal {
			return value{}, errType
		}
		return stringValue(args[0].lang), nil
	case "DATATYPE":
		if args[0].kind != rdf.Literal {
			return value{}, errType
		}
		dt := args[0].dt
		if args[0].lang != "" {
			dt = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
		}
		return value{kind: rdf.IRI, text: dt}, nil
	case "ISIRI", "ISURI":
		return boolValue(args[0].kind == rdf.IRI), nil
	case "ISLITERAL":
		return boolValue(args[0].kind == rdf.Literal), nil
	case "ISBLANK":
		return boolValue(args[0].kind == rdf.Blank), nil
	case "ISNUMERIC":
		_, ok := args[0].number()
		return boolValue(ok), nil
	}

	for _, a := range args {
		if !a.isString() {
			return value{}, errType
		}
	}
	s := args[0].text
	switch e.name {
	case "STRLEN":
		return value{kind: rdf.Literal, text: strconv.Itoa(len([]rune(s))), dt: xsd + "integer"}, nil
	case "LCASE":
		v := args[0]
		v.text = strings.ToLower(s)
		return v, nil
	case "UCASE":
		v := args[0]
		v.text = strings.ToUpper(s)
		return v, nil
	case "CONTAINS":
		return boolValue(strings.Contains(s, args[1].text)), nil
	case "STRSTARTS":
		return boolValue(strings.HasPrefix(s, args[1].text)), nil
	case "STRENDS":
		return boolValue(strings.HasSuffix(s, args[1].text)), nil
	case "REGEX":
		re := e.re
		if re == nil {
			var flags string
			if len(args) == 3 {
				flags = args[2].text
			}
			var err error
			re, err = compileRegex(args[1].text, flags)
			if err != nil {
				return value{}, err
			}
		}
		return boolValue(re.MatchString(s)), nil
	}
	return value{}, fmt.Errorf("%w: function %s", ErrUnsupported, e.name)
}

// compileRegex compiles an XPath style pattern with the given flags.
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var goFlags string
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			goFlags += string(f)
		case 'x':
			pattern = strings.Join(strings.Fields(pattern), "")
		default:
			return nil, fmt.Errorf("%w: invalid regex flag %q", ErrSyntax, f)
		}
	}
	if goFlags != "" {
		pattern = "(?" + goFlags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return re, nil
}

// constraint parses a FILTER constraint.
func (p *parser) constraint() (Expr, error) {
	if p.isPunct("(") {
		return p.brackettedExpr()
	}
	t := p.peek()
	if t.kind == tokKeyword {
		if _, ok := builtins[t.text]; ok {
			return p.primary()
		}
	}
	return nil, p.errorf(t, "expected filter constraint")
}

func (p *parser) brackettedExpr() (Expr, error) {
	err := p.expectPunct("(")
	if err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, p.expectPunct(")")
}

func (p *parser) expr() (Expr, error) {
	x, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		p.next()
		y, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		x = logicalExpr{op: "||", x: x, y: y}
	}
	return x, nil
}

func (p *parser) andExpr() (Expr, error) {
	x, err := p.relExpr()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		p.next()
		y, err := p.relExpr()
		if err != nil {
			return nil, err
		}
		x = logicalExpr{op: "&&", x: x, y: y}
	}
	return x, nil
}

func (p *parser) relExpr() (Expr, error) {
	x, err := p.unaryExpr()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind != tokPunct {
		return x, nil
	}
	switch t.text {
	case "=", "!=", "<", "<=", ">", ">=":
		p.next()
		y, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return compareExpr{op: t.text, x: x, y: y}, nil
	}
	return x, nil
}

func (p *parser) unaryExpr() (Expr, error) {
	switch {
	case p.isPunct("!"):
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return notExpr{x: x}, nil
	case p.isPunct("-"):
		p.next()
		x, err := p.unaryExpr()
		if err != nil {
			return nil, err
		}
		return negExpr{x: x}, nil
	case p.isPunct("+"):
		p.next()
		return p.unaryExpr()
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokPunct:
		if t.text == "(" {
			return p.brackettedExpr()
		}
	case tokVar:
		p.next()
		return varExpr(t.text), nil
	case tokIRI, tokPName:
		term, err := p.iriTerm()
		if err != nil {
			return nil, err
		}
		v, err := termValue(term)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return constExpr{v: v}, nil
	case tokString, tokNumber:
		return p.constLiteral()
	case tokKeyword:
		switch t.text {
		case "TRUE", "FALSE":
			return p.constLiteral()
		}
		if _, ok := builtins[t.text]; ok {
			return p.call()
		}
		return nil, fmt.Errorf("%w: function %s", ErrUnsupported, t.text)
	}
	return nil, p.errorf(t, "expected expression")
}

func (p *parser) constLiteral() (Expr, error) {
	term, err := p.literal()
	if err != nil {
		return nil, err
	}
	v, err := termValue(term)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return constExpr{v: v}, nil
}

func (p *parser) call() (Expr, error) {
	name := p.next()
	err := p.expectPunct("(")
	if err != nil {
		return nil, err
	}
	e := &callExpr{name: name.text}
	if !p.isPunct(")") {
		for {
			a, err := p.expr()
			if err != nil {
				return nil, err
			}
			e.args = append(e.args, a)
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
	}
	err = p.expectPunct(")")
	if err != nil {
		return nil, err
	}
	arity := builtins[e.name]
	if len(e.args) < arity[0] || len(e.args) > arity[1] {
		return nil, p.errorf(name, "wrong number of arguments to %s", e.name)
	}
	if e.name == "BOUND" {
		if _, ok := e.args[0].(varExpr); !ok {
			return nil, p.errorf(name, "BOUND requires a variable")
		}
	}
	if e.name == "REGEX" {
		pat, ok := e.args[1].(constExpr)
		var flags string
		if len(e.args) == 3 {
			f, fok := e.args[2].(constExpr)
			ok = ok && fok
			flags = f.v.text
		}
		if ok {
			e.re, err = compileRegex(pat.v.text, flags)
			if err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}
