// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokBlank
	tokString
	tokNumber
	tokKeyword
	tokPunct
	tokLangTag
	tokDatatype // ^^
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokVar:
		return "variable"
	case tokBlank:
		return "blank node"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokKeyword:
		return "keyword"
	case tokPunct:
		return "punctuation"
	case tokLangTag:
		return "language tag"
	case tokDatatype:
		return "^^"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

type token struct {
	kind tokenKind
	// text is the token text. For strings it is the unescaped
	// content, for keywords it is upper case, for variables
	// it excludes the sigil.
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%s %q at %d", t.kind, t.text, t.pos)
}

// lex returns the tokens of the query.
func lex(q string) ([]token, error) {
	l := lexer{src: q}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: at %d: %s", ErrSyntax, l.pos, fmt.Sprintf(format, args...))
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *lexer) skip() {
	for l.pos < len(l.src) {
		r, w := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case unicode.IsSpace(r):
			l.pos += w
		case r == '#':
			i := strings.IndexByte(l.src[l.pos:], '\n')
			if i < 0 {
				l.pos = len(l.src)
			} else {
				l.pos += i + 1
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skip()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	r := l.peek()
	switch {
	case r == '<':
		if iri, ok := l.iri(); ok {
			return token{kind: tokIRI, text: iri, pos: start}, nil
		}
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokPunct, text: "<=", pos: start}, nil
		}
		return token{kind: tokPunct, text: "<", pos: start}, nil
	case r == '>':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokPunct, text: ">=", pos: start}, nil
		}
		return token{kind: tokPunct, text: ">", pos: start}, nil
	case r == '!':
		l.pos++
		if l.peek() == '=' {
			l.pos++
			return token{kind: tokPunct, text: "!=", pos: start}, nil
		}
		return token{kind: tokPunct, text: "!", pos: start}, nil
	case r == '&' || r == '|':
		if strings.HasPrefix(l.src[l.pos:], "&&") || strings.HasPrefix(l.src[l.pos:], "||") {
			l.pos += 2
			return token{kind: tokPunct, text: l.src[start:l.pos], pos: start}, nil
		}
		return token{}, l.errorf("unexpected %q", r)
	case r == '^':
		if strings.HasPrefix(l.src[l.pos:], "^^") {
			l.pos += 2
			return token{kind: tokDatatype, text: "^^", pos: start}, nil
		}
		return token{}, l.errorf("unexpected %q", r)
	case strings.ContainsRune("{}()[].;,*=+-/", r):
		if (r == '+' || r == '-' || r == '.') && l.pos+1 < len(l.src) && isDigit(rune(l.src[l.pos+1])) {
			return l.number()
		}
		l.pos++
		return token{kind: tokPunct, text: string(r), pos: start}, nil
	case r == '?' || r == '$':
		l.pos++
		name := l.name()
		if name == "" {
			return token{}, l.errorf("empty variable name")
		}
		return token{kind: tokVar, text: name, pos: start}, nil
	case r == '"' || r == '\'':
		return l.string()
	case r == '@':
		l.pos++
		tag := l.langTag()
		if tag == "" {
			return token{}, l.errorf("empty language tag")
		}
		return token{kind: tokLangTag, text: tag, pos: start}, nil
	case isDigit(r):
		return l.number()
	case r == '_' && strings.HasPrefix(l.src[l.pos:], "_:"):
		l.pos += 2
		name := l.name()
		if name == "" {
			return token{}, l.errorf("empty blank node label")
		}
		return token{kind: tokBlank, text: name, pos: start}, nil
	case r == ':' || isNameStart(r):
		prefix := l.name()
		if l.peek() != ':' {
			if prefix == "a" {
				return token{kind: tokKeyword, text: "a", pos: start}, nil
			}
			return token{kind: tokKeyword, text: strings.ToUpper(prefix), pos: start}, nil
		}
		l.pos++
		local := l.local()
		return token{kind: tokPName, text: prefix + ":" + local, pos: start}, nil
	}
	return token{}, l.errorf("unexpected %q", r)
}

// iri scans an IRI reference if one starts at the current position.
func (l *lexer) iri() (string, bool) {
	for i, r := range l.src[l.pos+1:] {
		switch {
		case r == '>':
			iri := l.src[l.pos+1 : l.pos+1+i]
			l.pos += i + 2
			return iri, true
		case r <= ' ' || strings.ContainsRune("<\"{}|^`\\", r):
			return "", false
		}
	}
	return "", false
}

func (l *lexer) name() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, w := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isNameChar(r) {
			break
		}
		l.pos += w
	}
	return l.src[start:l.pos]
}

// local scans the local part of a prefixed name. A trailing '.' is not
// part of the name.
func (l *lexer) local() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, w := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isNameChar(r) && r != '.' && r != ':' {
			break
		}
		l.pos += w
	}
	for l.pos > start && l.src[l.pos-1] == '.' {
		l.pos--
	}
	return l.src[start:l.pos]
}

func (l *lexer) langTag() string {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if !(c == '-' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			break
		}
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) number() (token, error) {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	digits := func() {
		for l.pos < len(l.src) && isDigit(rune(l.src[l.pos])) {
			l.pos++
		}
	}
	digits()
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(rune(l.src[l.pos+1])) {
		l.pos++
		digits()
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos >= len(l.src) || !isDigit(rune(l.src[l.pos])) {
			return token{}, l.errorf("invalid exponent")
		}
		digits()
	}
	return token{kind: tokNumber, text: l.src[start:l.pos], pos: start}, nil
}

func (l *lexer) string() (token, error) {
	start := l.pos
	quote := l.src[l.pos]
	long := strings.Repeat(string(quote), 3)
	if strings.HasPrefix(l.src[l.pos:], long) {
		end := strings.Index(l.src[l.pos+3:], long)
		if end < 0 {
			return token{}, l.errorf("unterminated string")
		}
		text := l.src[l.pos+3 : l.pos+3+end]
		l.pos += end + 6
		s, err := unescape(text)
		if err != nil {
			return token{}, l.errorf("%v", err)
		}
		return token{kind: tokString, text: s, pos: start}, nil
	}
	l.pos++
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '\n', '\r':
			return token{}, l.errorf("newline in string")
		case quote:
			text := l.src[start+1 : l.pos]
			l.pos++
			s, err := unescape(text)
			if err != nil {
				return token{}, l.errorf("%v", err)
			}
			return token{kind: tokString, text: s, pos: start}, nil
		}
		l.pos++
	}
	return token{}, l.errorf("unterminated string")
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			buf.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("invalid escape at end of string")
		}
		switch s[i] {
		case 't':
			buf.WriteByte('\t')
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case '"', '\'', '\\':
			buf.WriteByte(s[i])
		default:
			return "", fmt.Errorf("invalid escape %q", s[i-1:i+1])
		}
	}
	return buf.String(), nil
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
