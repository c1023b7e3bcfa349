package script

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valyxo/errors"
)

func newTestRuntime(opts ...Option) (*Runtime, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	return New(opts...), &out
}

func runScript(t *testing.T, src string, opts ...Option) (*Runtime, string) {
	t.Helper()
	rt, out := newTestRuntime(opts...)
	require.NoError(t, rt.RunProgram(src))
	return rt, out.String()
}

func TestRuntime_SetAndPrint(t *testing.T) {
	t.Run("set then print", func(t *testing.T) {
		_, out := runScript(t, "set x = 42\nprint x")
		assert.Equal(t, "42\n", out)
	})

	t.Run("print falls back to literal text", func(t *testing.T) {
		_, out := runScript(t, "print hello world")
		assert.Equal(t, "hello world\n", out)
	})

	t.Run("print joins multiple items with a single space", func(t *testing.T) {
		_, out := runScript(t, "set x = 1\nset y = 2\nprint x, y, done")
		assert.Equal(t, "1 2 done\n", out)
	})

	t.Run("commas inside strings do not split print items", func(t *testing.T) {
		_, out := runScript(t, `print "a, b"`)
		assert.Equal(t, "a, b\n", out)
	})

	t.Run("invalid identifier is fatal with a hint", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("set 9lives = 1")
		require.Error(t, err)
		scriptErr, ok := errors.AsScriptError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrorTypeSyntax, scriptErr.Type)
		assert.Contains(t, scriptErr.Hint, "letter or underscore")
	})

	t.Run("set surfaces evaluation errors", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("set x = y + 1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'y'")
	})

	t.Run("unknown command errors with a hint", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("frobnicate the things")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown command")
	})

	t.Run("vars lists variables in insertion order", func(t *testing.T) {
		_, out := runScript(t, "set b = 2\nset a = 1\nset b = 3\nvars")
		assert.Equal(t, "b = 3\na = 1\n", out)
	})
}

func TestRuntime_ForLoop(t *testing.T) {
	t.Run("closed-form sum", func(t *testing.T) {
		rt, _ := runScript(t, strings.Join([]string{
			"set sum = 0",
			"for i in 1 to 3 {",
			"set sum = sum + i",
			"}",
		}, "\n"))
		sum, ok := rt.Lookup("sum")
		require.True(t, ok)
		assert.Equal(t, IntValue(6), sum)
	})

	t.Run("bounds are inclusive and the loop variable persists", func(t *testing.T) {
		rt, _ := runScript(t, "for i in 5 to 7 {\nprint i\n}")
		i, ok := rt.Lookup("i")
		require.True(t, ok)
		assert.Equal(t, IntValue(7), i)
	})

	t.Run("start greater than end is a range error", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("for i in 5 to 1 {\nprint i\n}")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid loop range")
	})
}

func TestRuntime_WhileLoop(t *testing.T) {
	t.Run("counts up and terminates", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			"set i = 1",
			"while [i <= 3] {",
			"print i",
			"set i = i + 1",
			"}",
		}, "\n"))
		assert.Equal(t, "1\n2\n3\n", out)
	})

	t.Run("condition evaluation failure stops the loop quietly", func(t *testing.T) {
		rt, out := newTestRuntime()
		err := rt.RunProgram("while [missing_var > 0] {\nprint never\n}")
		require.NoError(t, err)
		assert.Empty(t, out.String())
	})
}

func TestRuntime_IterationCeiling(t *testing.T) {
	t.Run("infinite while trips the limit after exactly N iterations", func(t *testing.T) {
		rt, _ := newTestRuntime(WithMaxIterations(10))
		require.NoError(t, rt.RunProgram("set n = 0"))

		err := rt.RunProgram("while [True] {\nset n = n + 1\n}")
		require.Error(t, err)
		assert.True(t, errors.IsLimitError(err), "ceiling violations must surface as limit errors")

		n, ok := rt.Lookup("n")
		require.True(t, ok)
		assert.Equal(t, IntValue(10), n, "body must run exactly 10 times, never fewer, never more")
	})

	t.Run("counter is shared across loops and never resets", func(t *testing.T) {
		rt, _ := newTestRuntime(WithMaxIterations(10))
		require.NoError(t, rt.RunProgram("for i in 1 to 6 {\nprint i\n}"))

		err := rt.RunProgram("for i in 1 to 6 {\nprint i\n}")
		require.Error(t, err)
		assert.True(t, errors.IsLimitError(err))
		assert.Equal(t, 11, rt.Iterations())
	})

	t.Run("a fresh runtime starts from zero", func(t *testing.T) {
		rt, _ := newTestRuntime(WithMaxIterations(10))
		require.NoError(t, rt.RunProgram("for i in 1 to 10 {\nset x = i\n}"))
		rt2, _ := newTestRuntime(WithMaxIterations(10))
		require.NoError(t, rt2.RunProgram("for i in 1 to 10 {\nset x = i\n}"))
	})
}

func TestRuntime_NestedBlocks(t *testing.T) {
	t.Run("for inside for", func(t *testing.T) {
		rt, _ := runScript(t, strings.Join([]string{
			"set total = 0",
			"for i in 1 to 3 {",
			"for j in 1 to 3 {",
			"set total = total + i * j",
			"}",
			"}",
		}, "\n"))
		total, ok := rt.Lookup("total")
		require.True(t, ok)
		assert.Equal(t, IntValue(36), total)
	})

	t.Run("while inside for", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			"for i in 1 to 2 {",
			"set j = 0",
			"while [j < 2] {",
			"print i, j",
			"set j = j + 1",
			"}",
			"}",
		}, "\n"))
		assert.Equal(t, "1 0\n1 1\n2 0\n2 1\n", out)
	})

	t.Run("if inside while", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			"set i = 0",
			"while [i < 4] {",
			"if [i % 2 == 0] then {",
			"print i",
			"}",
			"set i = i + 1",
			"}",
		}, "\n"))
		assert.Equal(t, "0\n2\n", out)
	})
}

func TestRuntime_IfElse(t *testing.T) {
	t.Run("else after the closing brace", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			"set x = 1",
			"if [x > 5] then {",
			"print big",
			"}",
			"else {",
			"print small",
			"}",
		}, "\n"))
		assert.Equal(t, "small\n", out)
	})

	t.Run("else as a mid-block divider", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			"set x = 10",
			"if [x > 5] then {",
			"print big",
			"else {",
			"print small",
			"}",
		}, "\n"))
		assert.Equal(t, "big\n", out)
	})

	t.Run("condition failure swallows the whole statement", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			"if [nope > 1] then {",
			"print then_arm",
			"}",
			"else {",
			"print else_arm",
			"}",
		}, "\n"))
		assert.Empty(t, out)
	})

	t.Run("inline if runs exactly one arm", func(t *testing.T) {
		_, out := runScript(t, "set x = 3\nif [x > 1] then [print yes] else [print no]")
		assert.Equal(t, "yes\n", out)

		_, out = runScript(t, "set x = 0\nif [x > 1] then [print yes] else [print no]")
		assert.Equal(t, "no\n", out)
	})

	t.Run("else without an if is a syntax error", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("else {\nprint nope\n}")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "else without a matching if")
	})
}

func TestRuntime_Functions(t *testing.T) {
	t.Run("definition and call with post-call restore", func(t *testing.T) {
		rt, out := newTestRuntime()
		require.NoError(t, rt.RunProgram(strings.Join([]string{
			`func greet(name) {`,
			`print "Hello " + name`,
			`}`,
			`greet("Test")`,
		}, "\n")))
		assert.Equal(t, "Hello Test\n", out.String())

		_, bound := rt.Lookup("name")
		assert.False(t, bound, "parameter binding must not survive the call")
	})

	t.Run("bare word arguments act as string literals", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			`func shout(word) {`,
			`print word`,
			`}`,
			`shout(banana)`,
		}, "\n"))
		assert.Equal(t, "banana\n", out)
	})

	t.Run("extra arguments are ignored, missing ones stay unbound", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			`func pair(a, b) {`,
			`print a`,
			`}`,
			`pair(1, 2, 3)`,
			`pair(9)`,
		}, "\n"))
		assert.Equal(t, "1\n9\n", out)
	})

	t.Run("redefinition silently replaces the body", func(t *testing.T) {
		_, out := runScript(t, strings.Join([]string{
			`func f() {`,
			`print old`,
			`}`,
			`func f() {`,
			`print new`,
			`}`,
			`f()`,
		}, "\n"))
		assert.Equal(t, "new\n", out)
	})

	t.Run("calling an unknown function is an error", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("nothere(1)")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown function")
	})

	t.Run("calls have no variable side effects outside prints", func(t *testing.T) {
		rt, _ := runScript(t, strings.Join([]string{
			`set x = 1`,
			`func mutate() {`,
			`set x = 99`,
			`set fresh = 5`,
			`}`,
			`mutate()`,
		}, "\n"))
		x, _ := rt.Lookup("x")
		assert.Equal(t, IntValue(1), x)
		_, bound := rt.Lookup("fresh")
		assert.False(t, bound)
	})

	t.Run("unbounded recursion trips the call depth limit", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram(strings.Join([]string{
			`func f() {`,
			`f()`,
			`}`,
			`f()`,
		}, "\n"))
		require.Error(t, err)
		assert.True(t, errors.IsLimitError(err))
		assert.Contains(t, err.Error(), "call depth")
	})

	t.Run("bounded recursion works and the depth resets between calls", func(t *testing.T) {
		rt, out := newTestRuntime()
		require.NoError(t, rt.RunProgram(strings.Join([]string{
			`set n = 3`,
			`func countdown() {`,
			`set n = n - 1`,
			`if [n > 0] then [countdown()]`,
			`print n`,
			`}`,
			`countdown()`,
			`countdown()`,
		}, "\n")))
		assert.Equal(t, "0\n1\n2\n0\n1\n2\n", out.String())
	})
}

func TestRuntime_BlockParsing(t *testing.T) {
	t.Run("unexpected closing brace with an empty stack", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.FeedLine("}")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected closing brace")
	})

	t.Run("unrecognized block header is a syntax error", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.FeedLine("loop forever {")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid block header")
	})

	t.Run("blank and comment lines are no-ops", func(t *testing.T) {
		rt, out := newTestRuntime()
		require.NoError(t, rt.RunProgram("\n# just a comment\n   \nprint ok"))
		assert.Equal(t, "ok\n", out.String())
	})

	t.Run("open block survives interactive feeding until closed", func(t *testing.T) {
		rt, out := newTestRuntime()
		require.NoError(t, rt.FeedLine("for i in 1 to 2 {"))
		assert.True(t, rt.Open())
		require.NoError(t, rt.FeedLine("print i"))
		require.NoError(t, rt.FeedLine("}"))
		assert.False(t, rt.Open())
		assert.Equal(t, "1\n2\n", out.String())
	})

	t.Run("forcing the end with a dangling block is an error", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram("while [True] {\nprint x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "never closed")
	})
}

func TestRuntime_Import(t *testing.T) {
	t.Run("import runs the loaded file through the same runtime", func(t *testing.T) {
		loader := func(name string) (string, error) {
			require.Equal(t, "lib.vx", name)
			return "set shared = 7\nprint imported", nil
		}
		rt, out := newTestRuntime(WithImportLoader(loader))
		require.NoError(t, rt.RunProgram(`import "lib.vx"`+"\nprint shared"))
		assert.Equal(t, "imported\n7\n", out.String())
		shared, ok := rt.Lookup("shared")
		require.True(t, ok)
		assert.Equal(t, IntValue(7), shared)
	})

	t.Run("import without a loader is an error", func(t *testing.T) {
		rt, _ := newTestRuntime()
		err := rt.RunProgram(`import "lib.vx"`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not available")
	})
}

func TestRuntime_StopFlag(t *testing.T) {
	stopped := false
	rt, _ := newTestRuntime(WithStopCheck(func() bool { return stopped }))
	require.NoError(t, rt.RunProgram("set i = 0"))

	stopped = true
	err := rt.RunProgram("while [True] {\nset i = i + 1\n}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped")

	i, _ := rt.Lookup("i")
	assert.Equal(t, IntValue(0), i, "stop flag must halt before the first iteration runs")
}
