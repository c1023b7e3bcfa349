package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valyxo/errors"
)

func evalIn(t *testing.T, expr string, env *Env) Value {
	t.Helper()
	v, err := Evaluate(expr, env)
	require.NoError(t, err, "expression %q should evaluate", expr)
	return v
}

func TestEvaluate_Arithmetic(t *testing.T) {
	env := NewEnv()

	t.Run("integer arithmetic with standard precedence", func(t *testing.T) {
		assert.Equal(t, IntValue(5), evalIn(t, "2 + 3", env))
		assert.Equal(t, IntValue(6), evalIn(t, "10 - 4", env))
		assert.Equal(t, IntValue(6), evalIn(t, "2 * 3", env))
		assert.Equal(t, IntValue(8), evalIn(t, "2 ** 3", env))
		assert.Equal(t, IntValue(14), evalIn(t, "2 + 3 * 4", env))
		assert.Equal(t, IntValue(20), evalIn(t, "(2 + 3) * 4", env))
	})

	t.Run("true division always yields a float", func(t *testing.T) {
		assert.Equal(t, FloatValue(3), evalIn(t, "9 / 3", env))
		assert.Equal(t, FloatValue(2.5), evalIn(t, "5 / 2", env))
	})

	t.Run("floor division and modulo", func(t *testing.T) {
		assert.Equal(t, IntValue(3), evalIn(t, "7 // 2", env))
		assert.Equal(t, IntValue(-4), evalIn(t, "-7 // 2", env))
		assert.Equal(t, IntValue(1), evalIn(t, "7 % 2", env))
		assert.Equal(t, IntValue(1), evalIn(t, "-7 % 2", env))
	})

	t.Run("power is right-associative and binds tighter than unary minus", func(t *testing.T) {
		assert.Equal(t, IntValue(512), evalIn(t, "2 ** 3 ** 2", env))
		assert.Equal(t, IntValue(-4), evalIn(t, "-2 ** 2", env))
	})

	t.Run("mixed int and float promotes to float", func(t *testing.T) {
		assert.Equal(t, FloatValue(3.5), evalIn(t, "1 + 2.5", env))
	})

	t.Run("division by zero", func(t *testing.T) {
		for _, expr := range []string{"1 / 0", "1 // 0", "1 % 0"} {
			_, err := Evaluate(expr, env)
			require.Error(t, err)
			assert.True(t, errors.IsEvaluationError(err), "%q should be an evaluation error", expr)
			assert.Contains(t, err.Error(), "division by zero")
		}
	})
}

func TestEvaluate_StringsAndLiterals(t *testing.T) {
	env := NewEnv()

	t.Run("string concatenation", func(t *testing.T) {
		assert.Equal(t, StringValue("Hello World"), evalIn(t, `"Hello " + "World"`, env))
		assert.Equal(t, StringValue("ab"), evalIn(t, `'a' + 'b'`, env))
	})

	t.Run("boolean and null literals", func(t *testing.T) {
		assert.Equal(t, BoolValue(true), evalIn(t, "True", env))
		assert.Equal(t, BoolValue(false), evalIn(t, "False", env))
		assert.Equal(t, Null(), evalIn(t, "None", env))
	})

	t.Run("list literals", func(t *testing.T) {
		v := evalIn(t, "[1, 2, 3]", env)
		require.Equal(t, KindList, v.Kind)
		assert.Len(t, v.List, 3)
		assert.Equal(t, "[1, 2, 3]", v.String())
	})

	t.Run("adding string and number is an error", func(t *testing.T) {
		_, err := Evaluate(`"a" + 1`, env)
		require.Error(t, err)
		assert.True(t, errors.IsEvaluationError(err))
	})
}

func TestEvaluate_Variables(t *testing.T) {
	env := NewEnv()
	env.Set("x", IntValue(42))
	env.Set("name", StringValue("Valyxo"))

	t.Run("identifier resolves against the environment", func(t *testing.T) {
		assert.Equal(t, IntValue(42), evalIn(t, "x", env))
		assert.Equal(t, IntValue(43), evalIn(t, "x + 1", env))
	})

	t.Run("undefined identifier names the variable", func(t *testing.T) {
		_, err := Evaluate("y + 1", env)
		require.Error(t, err)
		scriptErr, ok := errors.AsScriptError(err)
		require.True(t, ok)
		assert.Contains(t, scriptErr.Message, "'y'")
		assert.Contains(t, scriptErr.Hint, "set y")
	})
}

func TestEvaluate_Comparisons(t *testing.T) {
	env := NewEnv()
	env.Set("i", IntValue(2))

	t.Run("simple comparisons", func(t *testing.T) {
		assert.Equal(t, BoolValue(true), evalIn(t, "1 < 2", env))
		assert.Equal(t, BoolValue(false), evalIn(t, "2 < 1", env))
		assert.Equal(t, BoolValue(true), evalIn(t, "i <= 2", env))
		assert.Equal(t, BoolValue(true), evalIn(t, "i != 3", env))
		assert.Equal(t, BoolValue(true), evalIn(t, `"abc" < "abd"`, env))
	})

	t.Run("chained comparison holds only when every link holds", func(t *testing.T) {
		assert.Equal(t, BoolValue(true), evalIn(t, "1 < i < 3", env))
		assert.Equal(t, BoolValue(false), evalIn(t, "1 < i < 2", env))
		assert.Equal(t, BoolValue(true), evalIn(t, "1 <= i <= 2 <= 3", env))
	})

	t.Run("numeric equality crosses int and float", func(t *testing.T) {
		assert.Equal(t, BoolValue(true), evalIn(t, "1 == 1.0", env))
	})
}

func TestEvaluate_BooleanOperators(t *testing.T) {
	env := NewEnv()
	env.Set("zero", IntValue(0))

	t.Run("and and or short-circuit to the deciding operand", func(t *testing.T) {
		assert.Equal(t, IntValue(0), evalIn(t, "zero and 5", env))
		assert.Equal(t, IntValue(5), evalIn(t, "1 and 5", env))
		assert.Equal(t, IntValue(1), evalIn(t, "1 or 5", env))
		assert.Equal(t, IntValue(5), evalIn(t, "zero or 5", env))
	})

	t.Run("short-circuit skips evaluation of the right side", func(t *testing.T) {
		// undefined_var would error if evaluated
		assert.Equal(t, IntValue(0), evalIn(t, "zero and undefined_var", env))
		assert.Equal(t, IntValue(7), evalIn(t, "7 or undefined_var", env))
	})

	t.Run("not", func(t *testing.T) {
		assert.Equal(t, BoolValue(true), evalIn(t, "not zero", env))
		assert.Equal(t, BoolValue(false), evalIn(t, "not 1", env))
	})
}

func TestEvaluate_SecurityGuard(t *testing.T) {
	env := NewEnv()
	env.Set("x", IntValue(1))

	t.Run("call expressions are rejected", func(t *testing.T) {
		_, err := Evaluate("foo(1, 2)", env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function calls not allowed")
	})

	t.Run("nested calls are rejected even when short-circuit would skip them", func(t *testing.T) {
		_, err := Evaluate("1 or foo()", env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function calls not allowed")

		_, err = Evaluate("[1, bar(2)]", env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "function calls not allowed")
	})

	t.Run("imports are rejected", func(t *testing.T) {
		_, err := Evaluate(`import`, env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "imports not allowed")
	})

	t.Run("no implicit builtins are resolvable", func(t *testing.T) {
		_, err := Evaluate("len", env)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown variable")
	})
}

func TestEvaluate_SyntaxErrors(t *testing.T) {
	env := NewEnv()

	for _, expr := range []string{"1 +", "(1 + 2", `"unterminated`, "1 @ 2", "[1, 2"} {
		_, err := Evaluate(expr, env)
		require.Error(t, err, "expression %q should fail to parse", expr)
		scriptErr, ok := errors.AsScriptError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrorTypeSyntax, scriptErr.Type)
	}
}

func TestValue_Formatting(t *testing.T) {
	assert.Equal(t, "42", IntValue(42).String())
	assert.Equal(t, "3.0", FloatValue(3).String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
	assert.Equal(t, "True", BoolValue(true).String())
	assert.Equal(t, "None", Null().String())
	assert.Equal(t, "[1, 'a']", ListValue([]Value{IntValue(1), StringValue("a")}).String())
}
