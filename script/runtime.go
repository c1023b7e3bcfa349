// Package script implements the ValyxoScript runtime: a line-oriented
// interpreter with a block nesting stack, a restricted expression
// evaluator and a hard iteration ceiling.
//
// One Runtime owns one variable environment and one function table and is
// not safe for concurrent use; callers that run scripts in parallel give
// each script its own Runtime.
package script

import (
	"io"
	"os"
	"strings"

	"valyxo/errors"
)

// DefaultMaxIterations is the default ceiling on total loop iterations per
// runtime instance.
const DefaultMaxIterations = 10000

// MaxCallDepth caps nested function calls. Recursion past this depth fails
// with a limit error instead of exhausting the Go stack, which would kill
// the whole process rather than the one script.
const MaxCallDepth = 100

// Function is a registered script function: parameter names plus the
// unexecuted body captured when its func block closed.
type Function struct {
	Name   string
	Params []string
	Body   []Node
}

// VarBinding is one entry of a Vars snapshot
type VarBinding struct {
	Name  string
	Value Value
}

// Runtime is one ValyxoScript interpreter instance
type Runtime struct {
	env   *Env
	funcs map[string]*Function

	stack   []*Block
	pending *Block // just-closed if block that may still take an else

	iterations    int
	maxIterations int
	depth         int

	line   int
	out    io.Writer
	stop   func() bool
	loader func(name string) (string, error)
}

// Option configures a Runtime
type Option func(*Runtime)

// WithOutput directs print output somewhere other than stdout
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) { r.out = w }
}

// WithMaxIterations overrides the iteration ceiling
func WithMaxIterations(n int) Option {
	return func(r *Runtime) { r.maxIterations = n }
}

// WithImportLoader supplies the source loader backing the import
// statement. Without one, import is an error.
func WithImportLoader(loader func(name string) (string, error)) Option {
	return func(r *Runtime) { r.loader = loader }
}

// WithStopCheck installs a cooperative stop flag, polled between
// statements and loop iterations
func WithStopCheck(stop func() bool) Option {
	return func(r *Runtime) { r.stop = stop }
}

// New creates a fresh runtime with an empty environment, an empty function
// table and a zeroed iteration counter
func New(opts ...Option) *Runtime {
	r := &Runtime{
		env:           NewEnv(),
		funcs:         make(map[string]*Function),
		maxIterations: DefaultMaxIterations,
		out:           os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FeedLine consumes one line of interactive input. Lines belonging to an
// open block are buffered; everything else executes immediately.
func (r *Runtime) FeedLine(line string) error {
	r.line++
	return r.feed(strings.TrimSpace(line))
}

// RunProgram executes a complete script. The first error aborts the rest
// of the program, and a block left open at the end is a syntax error.
func (r *Runtime) RunProgram(src string) error {
	savedLine := r.line
	defer func() { r.line = savedLine }()

	for num, line := range strings.Split(src, "\n") {
		r.line = num + 1
		if err := r.feed(strings.TrimSpace(line)); err != nil {
			return decorateLine(err, num+1, line)
		}
	}
	return r.Finish()
}

func decorateLine(err error, line int, text string) error {
	if scriptErr, ok := errors.AsScriptError(err); ok {
		if scriptErr.Line == 0 {
			scriptErr.WithLine(line)
		}
		if scriptErr.Context == "" {
			scriptErr.WithContext(strings.TrimSpace(text))
		}
	}
	return err
}

// Vars returns the environment contents in insertion order
func (r *Runtime) Vars() []VarBinding {
	names := r.env.Names()
	out := make([]VarBinding, 0, len(names))
	for _, name := range names {
		value, _ := r.env.Get(name)
		out = append(out, VarBinding{Name: name, Value: value})
	}
	return out
}

// Lookup returns a single variable
func (r *Runtime) Lookup(name string) (Value, bool) {
	return r.env.Get(name)
}

// Functions returns the names of all registered functions
func (r *Runtime) Functions() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

// Iterations returns the total loop iterations consumed so far
func (r *Runtime) Iterations() int {
	return r.iterations
}

// SetStop replaces the cooperative stop check after construction; the
// jobmanager wires a per-job flag here
func (r *Runtime) SetStop(stop func() bool) {
	r.stop = stop
}
