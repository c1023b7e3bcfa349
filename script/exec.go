package script

import (
	"fmt"
	"regexp"
	"strings"

	"valyxo/errors"
)

var (
	setRe      = regexp.MustCompile(`^set\s+(\S+)\s*=\s*(.*)$`)
	printRe    = regexp.MustCompile(`^print\s+(.*)$`)
	inlineIfRe = regexp.MustCompile(`^if\s+\[(.*?)\]\s+then\s+\[(.*?)\](?:\s+else\s+\[(.*?)\])?$`)
	callRe     = regexp.MustCompile(`^(\w+)\s*\((.*)\)$`)
	importRe   = regexp.MustCompile(`^import\s+"([^"]+)"$`)
	identRe    = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// executeBlock runs a finished block descriptor against the environment
func (r *Runtime) executeBlock(block *Block) error {
	switch block.kind {
	case blockFor:
		return r.executeFor(block)
	case blockWhile:
		return r.executeWhile(block)
	case blockIf:
		return r.executeIf(block)
	case blockFunc:
		r.registerFunction(block)
		return nil
	}
	return errors.NewSystemError("BAD_BLOCK", fmt.Sprintf("unknown block kind %d", block.kind))
}

// tick counts one loop iteration against the shared ceiling. The counter
// is monotonic for the life of the runtime; only a fresh runtime resets it.
func (r *Runtime) tick(context string) error {
	r.iterations++
	if r.iterations > r.maxIterations {
		return errors.NewLimitError("ITERATION_LIMIT",
			"loop iteration limit exceeded - possible infinite loop").
			WithLine(r.line).
			WithContext(context).
			WithHint(fmt.Sprintf("maximum iterations: %d", r.maxIterations))
	}
	return nil
}

func (r *Runtime) checkStop() error {
	if r.stop != nil && r.stop() {
		return errors.NewUserError("STOPPED", "script execution stopped")
	}
	return nil
}

func (r *Runtime) executeFor(block *Block) error {
	if block.start > block.end {
		return errors.NewSyntaxError("BAD_LOOP_RANGE", "invalid loop range").
			WithLine(block.line).
			WithHint(fmt.Sprintf("loop start (%d) cannot be greater than end (%d)", block.start, block.end))
	}

	for i := block.start; i <= block.end; i++ {
		if err := r.checkStop(); err != nil {
			return err
		}
		if err := r.tick(fmt.Sprintf("for %s in %d to %d", block.loopVar, block.start, block.end)); err != nil {
			return err
		}
		r.env.Set(block.loopVar, IntValue(i))
		if err := r.runNodes(block.body); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) executeWhile(block *Block) error {
	for {
		if err := r.checkStop(); err != nil {
			return err
		}
		if err := r.tick(fmt.Sprintf("while [%s]", block.cond)); err != nil {
			return err
		}

		cond, err := Evaluate(block.cond, r.env)
		if err != nil {
			// a condition that cannot be evaluated stops the loop
			// instead of crashing the session
			return nil
		}
		if !cond.Truthy() {
			return nil
		}

		if err := r.runNodes(block.body); err != nil {
			return err
		}
	}
}

func (r *Runtime) executeIf(block *Block) error {
	cond, err := Evaluate(block.cond, r.env)
	if err != nil {
		// swallowed so a bad condition cannot take down the shell
		return nil
	}
	if cond.Truthy() {
		return r.runNodes(block.body)
	}
	if block.hasElse {
		return r.runNodes(block.elseArm)
	}
	return nil
}

// registerFunction stores the definition verbatim, silently overwriting
// any prior definition of the same name
func (r *Runtime) registerFunction(block *Block) {
	r.funcs[block.name] = &Function{
		Name:   block.name,
		Params: block.params,
		Body:   block.body,
	}
}

// runNodes executes a block body in order: plain lines through the command
// executor, nested blocks through their executors
func (r *Runtime) runNodes(nodes []Node) error {
	for _, node := range nodes {
		if err := r.checkStop(); err != nil {
			return err
		}
		if node.Block != nil {
			if err := r.executeBlock(node.Block); err != nil {
				return err
			}
			continue
		}
		if err := r.executeCommand(node.Line); err != nil {
			return err
		}
	}
	return nil
}

// executeCommand dispatches a single non-block statement by shape
func (r *Runtime) executeCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	switch {
	case strings.HasPrefix(line, "set "):
		return r.executeSet(line)
	case line == "print" || strings.HasPrefix(line, "print "):
		return r.executePrint(line)
	case strings.HasPrefix(line, "if "):
		return r.executeInlineIf(line)
	case strings.HasPrefix(line, "import "):
		return r.executeImport(line)
	case line == "vars":
		return r.executeVars()
	}

	if m := callRe.FindStringSubmatch(line); m != nil {
		return r.executeFunctionCall(m[1], m[2], line)
	}

	return errors.NewSyntaxError("UNKNOWN_COMMAND", fmt.Sprintf("unknown command: '%s'", line)).
		WithLine(r.line).
		WithContext(line).
		WithHint("commands are set, print, if, import, vars and function calls")
}

func (r *Runtime) executeSet(line string) error {
	m := setRe.FindStringSubmatch(line)
	if m == nil {
		return errors.NewSyntaxError("BAD_SET", "invalid set syntax").
			WithLine(r.line).
			WithContext(line).
			WithHint("use: set <variable> = <value>")
	}
	name, expr := m[1], strings.TrimSpace(m[2])

	if !identRe.MatchString(name) {
		return errors.NewSyntaxError("BAD_IDENTIFIER", fmt.Sprintf("invalid variable name: '%s'", name)).
			WithLine(r.line).
			WithContext(line).
			WithHint("variable names start with a letter or underscore and contain only letters, digits and underscores")
	}

	value, err := Evaluate(expr, r.env)
	if err != nil {
		if scriptErr, ok := errors.AsScriptError(err); ok {
			scriptErr.WithLine(r.line)
		}
		return err
	}
	r.env.Set(name, value)
	return nil
}

// executePrint prints each comma-separated item: evaluated if possible,
// the variable of that name if one exists, the literal text otherwise.
// Multiple items join with a single space on one line.
func (r *Runtime) executePrint(line string) error {
	m := printRe.FindStringSubmatch(line)
	if m == nil {
		// bare "print" emits an empty line
		fmt.Fprintln(r.out)
		return nil
	}

	items := splitTopLevel(strings.TrimSpace(m[1]), ',')
	var outputs []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if value, err := Evaluate(item, r.env); err == nil {
			outputs = append(outputs, value.String())
			continue
		}
		if value, ok := r.env.Get(item); ok {
			outputs = append(outputs, value.String())
			continue
		}
		outputs = append(outputs, item)
	}
	fmt.Fprintln(r.out, strings.Join(outputs, " "))
	return nil
}

// executeInlineIf handles the bracketed single-statement form:
// if [cond] then [cmd] else [cmd]
func (r *Runtime) executeInlineIf(line string) error {
	m := inlineIfRe.FindStringSubmatch(line)
	if m == nil {
		return errors.NewSyntaxError("BAD_INLINE_IF", "invalid inline if syntax").
			WithLine(r.line).
			WithContext(line).
			WithHint("use: if [<condition>] then [<command>] else [<command>]")
	}
	cond, thenCmd, elseCmd := m[1], m[2], m[3]

	result, err := Evaluate(cond, r.env)
	if err != nil {
		// evaluation failures are swallowed here, matching block if
		return nil
	}
	if result.Truthy() {
		return r.executeCommand(thenCmd)
	}
	if elseCmd != "" {
		return r.executeCommand(elseCmd)
	}
	return nil
}

func (r *Runtime) executeImport(line string) error {
	m := importRe.FindStringSubmatch(line)
	if m == nil {
		return errors.NewSyntaxError("BAD_IMPORT", "invalid import syntax").
			WithLine(r.line).
			WithContext(line).
			WithHint(`use: import "filename.vx"`)
	}
	if r.loader == nil {
		return errors.NewSystemError("IMPORT_UNAVAILABLE", "imports are not available here")
	}

	src, err := r.loader(m[1])
	if err != nil {
		return errors.NewSystemError("IMPORT_FAILED", fmt.Sprintf("import failed: %s", m[1])).
			Wrap(err).
			WithLine(r.line)
	}

	savedLine := r.line
	defer func() { r.line = savedLine }()
	for num, importedLine := range strings.Split(src, "\n") {
		r.line = num + 1
		if err := r.feed(strings.TrimSpace(importedLine)); err != nil {
			return err
		}
	}
	return r.Finish()
}

func (r *Runtime) executeVars() error {
	for _, name := range r.env.Names() {
		value, _ := r.env.Get(name)
		fmt.Fprintf(r.out, "%s = %s\n", name, value)
	}
	return nil
}

// executeFunctionCall invokes a registered function. Arguments bind
// positionally, zipped to the shorter of params/args; the caller's
// environment is snapshotted before the call and restored afterwards, so
// the only observable effect of a call is what it prints.
func (r *Runtime) executeFunctionCall(name, rawArgs, line string) error {
	fn, ok := r.funcs[name]
	if !ok {
		return errors.NewSyntaxError("UNKNOWN_FUNCTION", fmt.Sprintf("unknown function: '%s'", name)).
			WithLine(r.line).
			WithContext(line).
			WithHint(fmt.Sprintf("define it first: func %s(...) { ... }", name))
	}

	if r.depth >= MaxCallDepth {
		return errors.NewLimitError("CALL_DEPTH_LIMIT",
			"function call depth exceeded - possible unbounded recursion").
			WithLine(r.line).
			WithContext(line).
			WithHint(fmt.Sprintf("maximum call depth: %d", MaxCallDepth))
	}
	r.depth++
	defer func() { r.depth-- }()

	var args []Value
	if rawArgs = strings.TrimSpace(rawArgs); rawArgs != "" {
		for _, rawArg := range splitTopLevel(rawArgs, ',') {
			rawArg = strings.TrimSpace(rawArg)
			if value, err := Evaluate(rawArg, r.env); err == nil {
				args = append(args, value)
			} else {
				// bare words act as implicit string literals
				args = append(args, StringValue(rawArg))
			}
		}
	}

	snapshot := r.env.Snapshot()
	defer r.env.Restore(snapshot)

	for i, param := range fn.Params {
		if i >= len(args) {
			break
		}
		r.env.Set(param, args[i])
	}

	return r.runNodes(fn.Body)
}

// splitTopLevel splits on sep while respecting string quotes, parentheses
// and brackets, so print "a, b" stays one item
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	var depth int
	var quote byte
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
