package script

import (
	"fmt"
	"strconv"

	"valyxo/errors"
)

// Expression tree nodes. The parser accepts call and import syntax so the
// security walk in eval.go can reject them with a targeted message, the
// same split the historical runtime used.

type exprNode interface{ exprNode() }

type literalNode struct{ value Value }

type identNode struct{ name string }

type listNode struct{ elems []exprNode }

type unaryNode struct {
	op      string
	operand exprNode
}

type binaryNode struct {
	op          string
	left, right exprNode
}

// boolOpNode covers and/or chains with short-circuit evaluation
type boolOpNode struct {
	op     string
	values []exprNode
}

// compareNode covers chained comparisons: a < b < c holds only if every
// adjacent pair holds
type compareNode struct {
	left        exprNode
	ops         []string
	comparators []exprNode
}

// callNode is parsed but never evaluated; the guard walk rejects it
type callNode struct {
	name string
	args []exprNode
}

// importNode is parsed but never evaluated; the guard walk rejects it
type importNode struct{}

func (literalNode) exprNode() {}
func (identNode) exprNode()   {}
func (listNode) exprNode()    {}
func (unaryNode) exprNode()   {}
func (binaryNode) exprNode()  {}
func (boolOpNode) exprNode()  {}
func (compareNode) exprNode() {}
func (callNode) exprNode()    {}
func (importNode) exprNode()  {}

// exprParser is a precedence-climbing parser over the token stream
type exprParser struct {
	src    string
	tokens []token
	pos    int
}

// parseExpression parses a full expression string into a tree
func parseExpression(src string) (exprNode, error) {
	tokens, err := newLexer(src).tokens()
	if err != nil {
		return nil, err
	}
	p := &exprParser{src: src, tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokenEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return node, nil
}

func (p *exprParser) errorf(format string, args ...interface{}) error {
	return errors.NewSyntaxError("EXPR_SYNTAX", fmt.Sprintf(format, args...)).
		WithContext(p.src).
		WithHint("check parentheses, brackets and quotes")
}

func (p *exprParser) peek() token {
	return p.tokens[p.pos]
}

func (p *exprParser) advance() token {
	tok := p.tokens[p.pos]
	if tok.typ != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) acceptOp(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.typ != tokenOp {
		return "", false
	}
	for _, op := range ops {
		if tok.text == op {
			p.advance()
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) acceptKeyword(word string) bool {
	tok := p.peek()
	if tok.typ == tokenKeyword && tok.text == word {
		p.advance()
		return true
	}
	return false
}

func (p *exprParser) parseOr() (exprNode, error) {
	node, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	values := []exprNode{node}
	for p.acceptKeyword("or") {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		values = append(values, next)
	}
	if len(values) == 1 {
		return node, nil
	}
	return boolOpNode{op: "or", values: values}, nil
}

func (p *exprParser) parseAnd() (exprNode, error) {
	node, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	values := []exprNode{node}
	for p.acceptKeyword("and") {
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		values = append(values, next)
	}
	if len(values) == 1 {
		return node, nil
	}
	return boolOpNode{op: "and", values: values}, nil
}

func (p *exprParser) parseNot() (exprNode, error) {
	if p.acceptKeyword("not") {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: "not", operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = []string{"==", "!=", "<=", ">=", "<", ">"}

func (p *exprParser) parseComparison() (exprNode, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	var ops []string
	var comparators []exprNode
	for {
		op, ok := p.acceptOp(comparisonOps...)
		if !ok {
			break
		}
		right, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return compareNode{left: left, ops: ops, comparators: comparators}, nil
}

func (p *exprParser) parseArith() (exprNode, error) {
	node, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return node, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		node = binaryNode{op: op, left: node, right: right}
	}
}

func (p *exprParser) parseTerm() (exprNode, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.acceptOp("*", "//", "/", "%")
		if !ok {
			return node, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node = binaryNode{op: op, left: node, right: right}
	}
}

// parseUnary handles prefix +/-. Power binds tighter than unary minus, so
// -2 ** 2 parses as -(2 ** 2).
func (p *exprParser) parseUnary() (exprNode, error) {
	if op, ok := p.acceptOp("-", "+"); ok {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (exprNode, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.acceptOp("**"); ok {
		// right-associative; the exponent may carry its own unary sign
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: "**", left: base, right: exp}, nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (exprNode, error) {
	tok := p.peek()

	switch tok.typ {
	case tokenInt:
		p.advance()
		i, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			// out of int64 range, fall back to float
			f, ferr := strconv.ParseFloat(tok.text, 64)
			if ferr != nil {
				return nil, p.errorf("invalid number %q", tok.text)
			}
			return literalNode{value: FloatValue(f)}, nil
		}
		return literalNode{value: IntValue(i)}, nil

	case tokenFloat:
		p.advance()
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", tok.text)
		}
		return literalNode{value: FloatValue(f)}, nil

	case tokenString:
		p.advance()
		return literalNode{value: StringValue(tok.text)}, nil

	case tokenKeyword:
		switch tok.text {
		case "True":
			p.advance()
			return literalNode{value: BoolValue(true)}, nil
		case "False":
			p.advance()
			return literalNode{value: BoolValue(false)}, nil
		case "None":
			p.advance()
			return literalNode{value: Null()}, nil
		case "import":
			p.advance()
			return importNode{}, nil
		}
		return nil, p.errorf("unexpected keyword %q", tok.text)

	case tokenIdent:
		p.advance()
		if _, ok := p.acceptOp("("); ok {
			return p.parseCallArgs(tok.text)
		}
		return identNode{name: tok.text}, nil

	case tokenOp:
		switch tok.text {
		case "(":
			p.advance()
			inner, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if _, ok := p.acceptOp(")"); !ok {
				return nil, p.errorf("missing closing parenthesis")
			}
			return inner, nil
		case "[":
			p.advance()
			return p.parseList()
		}
	}

	return nil, p.errorf("unexpected %q", tok.text)
}

// parseCallArgs finishes a call expression after the opening parenthesis.
// The node survives only until the guard walk sees it.
func (p *exprParser) parseCallArgs(name string) (exprNode, error) {
	call := callNode{name: name}
	if _, ok := p.acceptOp(")"); ok {
		return call, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)
		if _, ok := p.acceptOp(","); ok {
			continue
		}
		if _, ok := p.acceptOp(")"); ok {
			return call, nil
		}
		return nil, p.errorf("missing closing parenthesis in call")
	}
}

func (p *exprParser) parseList() (exprNode, error) {
	list := listNode{}
	if _, ok := p.acceptOp("]"); ok {
		return list, nil
	}
	for {
		elem, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		list.elems = append(list.elems, elem)
		if _, ok := p.acceptOp(","); ok {
			continue
		}
		if _, ok := p.acceptOp("]"); ok {
			return list, nil
		}
		return nil, p.errorf("missing closing bracket in list")
	}
}
