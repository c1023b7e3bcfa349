package script

import (
	"fmt"
	"strings"

	"valyxo/errors"
)

// tokenType classifies expression tokens
type tokenType int

const (
	tokenEOF tokenType = iota
	tokenInt
	tokenFloat
	tokenString
	tokenIdent
	tokenKeyword // and, or, not, True, False, None, import
	tokenOp      // operators and punctuation
)

type token struct {
	typ  tokenType
	text string
}

var keywords = map[string]bool{
	"and":    true,
	"or":     true,
	"not":    true,
	"True":   true,
	"False":  true,
	"None":   true,
	"import": true,
}

// multi-character operators, longest first
var multiOps = []string{"**", "//", "==", "!=", "<=", ">="}

// lexer turns an expression string into a token stream. Every evaluation
// re-lexes from scratch; expressions are short and nothing is cached.
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) errorf(format string, args ...interface{}) error {
	return errors.NewSyntaxError("EXPR_SYNTAX", fmt.Sprintf(format, args...)).
		WithContext(l.src).
		WithHint("check parentheses, brackets and quotes")
}

// tokens lexes the whole input
func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.typ == tokenEOF {
			return out, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{typ: tokenEOF}, nil
	}

	c := l.src[l.pos]

	switch {
	case c >= '0' && c <= '9' || c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.lexNumber()
	case c == '"' || c == '\'':
		return l.lexString(c)
	case isIdentStart(c):
		return l.lexIdent(), nil
	}

	for _, op := range multiOps {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			return token{typ: tokenOp, text: op}, nil
		}
	}

	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '(', ')', '[', ']', ',':
		l.pos++
		return token{typ: tokenOp, text: string(c)}, nil
	}

	return token{}, l.errorf("unexpected character %q", c)
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	seenDot := false
	seenExp := false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isDigit(c) {
			l.pos++
			continue
		}
		if c == '.' && !seenDot && !seenExp {
			seenDot = true
			l.pos++
			continue
		}
		if (c == 'e' || c == 'E') && !seenExp && l.pos > start {
			// exponent, optionally signed
			next := l.pos + 1
			if next < len(l.src) && (l.src[next] == '+' || l.src[next] == '-') {
				next++
			}
			if next < len(l.src) && isDigit(l.src[next]) {
				seenExp = true
				l.pos = next
				continue
			}
		}
		break
	}
	text := l.src[start:l.pos]
	if seenDot || seenExp {
		return token{typ: tokenFloat, text: text}, nil
	}
	return token{typ: tokenInt, text: text}, nil
}

func (l *lexer) lexString(quote byte) (token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == quote {
			l.pos++
			return token{typ: tokenString, text: sb.String()}, nil
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			switch l.src[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case quote:
				sb.WriteByte(quote)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(l.src[l.pos])
			}
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, l.errorf("unterminated string literal")
}

func (l *lexer) lexIdent() token {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if keywords[text] {
		return token{typ: tokenKeyword, text: text}
	}
	return token{typ: tokenIdent, text: text}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
