package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"valyxo/errors"
)

// blockKind tags an open block descriptor
type blockKind int

const (
	blockFor blockKind = iota
	blockWhile
	blockIf
	blockFunc
)

func (k blockKind) String() string {
	switch k {
	case blockFor:
		return "for"
	case blockWhile:
		return "while"
	case blockIf:
		return "if"
	case blockFunc:
		return "func"
	default:
		return "block"
	}
}

// Node is one element of a block body: either a plain statement line or a
// finished nested block. Bodies are built once while lines are fed and
// interpreted directly, so nested blocks never get re-parsed from text at
// run time.
type Node struct {
	Line  string
	Block *Block
}

// Block is the transient descriptor for an open for/while/if/func
// construct. It lives on the nesting stack between its header line and its
// closing brace; loop and conditional blocks are destroyed once executed,
// function blocks move into the function table.
type Block struct {
	kind blockKind
	line int // header line number, for error reporting

	// for
	loopVar    string
	start, end int64

	// while / if
	cond string

	// func
	name   string
	params []string

	body    []Node
	elseArm []Node
	inElse  bool
	hasElse bool
}

func (b *Block) append(n Node) {
	if b.inElse {
		b.elseArm = append(b.elseArm, n)
	} else {
		b.body = append(b.body, n)
	}
}

var (
	forHeaderRe   = regexp.MustCompile(`^for\s+(\w+)\s+in\s+(-?\d+)\s+to\s+(-?\d+)\s*\{$`)
	whileHeaderRe = regexp.MustCompile(`^while\s+\[(.*)\]\s*\{$`)
	ifHeaderRe    = regexp.MustCompile(`^if\s+\[(.*)\]\s+then\s*\{$`)
	funcHeaderRe  = regexp.MustCompile(`^func\s+(\w+)\s*\((.*?)\)\s*\{$`)
	elseHeaderRe  = regexp.MustCompile(`^else\s*\{$`)
)

// feed routes one trimmed source line: closing braces pop the stack,
// block headers push, body lines attach to the innermost open block and
// everything else goes straight to the command executor.
func (r *Runtime) feed(line string) error {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if elseHeaderRe.MatchString(line) {
		return r.handleElse()
	}

	// any other line ends the grace period of a just-closed if block
	if r.pending != nil {
		if err := r.flushPending(); err != nil {
			return err
		}
	}

	if line == "}" {
		return r.closeBlock()
	}

	if strings.HasSuffix(line, "{") {
		return r.openBlock(line)
	}

	if len(r.stack) > 0 {
		r.top().append(Node{Line: line})
		return nil
	}

	return r.executeCommand(line)
}

func (r *Runtime) top() *Block {
	return r.stack[len(r.stack)-1]
}

func (r *Runtime) openBlock(line string) error {
	var block *Block

	switch {
	case strings.HasPrefix(line, "for "):
		m := forHeaderRe.FindStringSubmatch(line)
		if m == nil {
			return r.badHeader(line, "use: for <var> in <start> to <end> {")
		}
		start, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return r.badHeader(line, "loop bounds must be integer literals")
		}
		end, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return r.badHeader(line, "loop bounds must be integer literals")
		}
		block = &Block{kind: blockFor, loopVar: m[1], start: start, end: end}

	case strings.HasPrefix(line, "while "):
		m := whileHeaderRe.FindStringSubmatch(line)
		if m == nil {
			return r.badHeader(line, "use: while [<condition>] {")
		}
		block = &Block{kind: blockWhile, cond: strings.TrimSpace(m[1])}

	case strings.HasPrefix(line, "if "):
		m := ifHeaderRe.FindStringSubmatch(line)
		if m == nil {
			return r.badHeader(line, "use: if [<condition>] then {")
		}
		block = &Block{kind: blockIf, cond: strings.TrimSpace(m[1])}

	case strings.HasPrefix(line, "func "):
		m := funcHeaderRe.FindStringSubmatch(line)
		if m == nil {
			return r.badHeader(line, "use: func <name>(<params>) {")
		}
		var params []string
		if rawParams := strings.TrimSpace(m[2]); rawParams != "" {
			for _, p := range strings.Split(rawParams, ",") {
				params = append(params, strings.TrimSpace(p))
			}
		}
		block = &Block{kind: blockFunc, name: m[1], params: params}

	default:
		return r.badHeader(line, "block headers are for, while, if ... then and func")
	}

	block.line = r.line
	r.stack = append(r.stack, block)
	return nil
}

func (r *Runtime) badHeader(line, hint string) error {
	return errors.NewSyntaxError("BAD_BLOCK_HEADER", "invalid block header").
		WithLine(r.line).
		WithContext(line).
		WithHint(hint)
}

// closeBlock pops the innermost descriptor. A closed if is held back for
// one line so a following `else {` can attach its alternate branch; every
// other kind is delivered immediately.
func (r *Runtime) closeBlock() error {
	if len(r.stack) == 0 {
		return errors.NewSyntaxError("UNEXPECTED_BRACE", "unexpected closing brace '}'").
			WithLine(r.line).
			WithHint("check that all blocks are properly opened")
	}

	block := r.top()
	r.stack = r.stack[:len(r.stack)-1]

	if block.kind == blockIf && !block.hasElse {
		r.pending = block
		return nil
	}
	block.inElse = false
	return r.deliver(block)
}

// handleElse attaches an else branch in either historical layout: right
// after the if block's closing brace, or as a mid-block divider before it.
func (r *Runtime) handleElse() error {
	if r.pending != nil {
		block := r.pending
		r.pending = nil
		block.hasElse = true
		block.inElse = true
		r.stack = append(r.stack, block)
		return nil
	}
	if len(r.stack) > 0 {
		top := r.top()
		if top.kind == blockIf && !top.hasElse {
			top.hasElse = true
			top.inElse = true
			return nil
		}
	}
	return errors.NewSyntaxError("UNEXPECTED_ELSE", "else without a matching if block").
		WithLine(r.line).
		WithHint("use: if [<condition>] then { ... } else { ... }")
}

func (r *Runtime) flushPending() error {
	block := r.pending
	r.pending = nil
	return r.deliver(block)
}

// deliver hands a finished block to its parent body, or executes it when
// the stack is empty
func (r *Runtime) deliver(block *Block) error {
	if len(r.stack) > 0 {
		r.top().append(Node{Block: block})
		return nil
	}
	return r.executeBlock(block)
}

// Open reports whether any block is still buffering input. The shell uses
// this to switch to the continuation prompt.
func (r *Runtime) Open() bool {
	return len(r.stack) > 0 || r.pending != nil
}

// Finish flushes a held if block and errors if any block never closed.
// Interactive sessions may keep blocks open between lines, but forcing
// execution with a dangling block is a syntax error.
func (r *Runtime) Finish() error {
	if r.pending != nil {
		if err := r.flushPending(); err != nil {
			return err
		}
	}
	if len(r.stack) > 0 {
		block := r.top()
		return errors.NewSyntaxError("UNCLOSED_BLOCK",
			fmt.Sprintf("%s block opened on line %d was never closed", block.kind, block.line)).
			WithLine(block.line).
			WithHint("add the missing closing brace '}'")
	}
	return nil
}
