package script

import (
	"fmt"
	"math"

	"valyxo/errors"
)

// Evaluate parses and evaluates a restricted expression against the given
// environment. There is no caching: each call re-parses the source. The
// tree is walked by the security guard before any part of it runs, so a
// call or import nested anywhere inside the expression is rejected even if
// evaluation would short-circuit around it.
func Evaluate(src string, env *Env) (Value, error) {
	tree, err := parseExpression(src)
	if err != nil {
		return Null(), err
	}
	if err := guardTree(tree); err != nil {
		if scriptErr, ok := errors.AsScriptError(err); ok {
			scriptErr.WithContext(src)
		}
		return Null(), err
	}
	v, err := evalNode(tree, env)
	if err != nil {
		if scriptErr, ok := errors.AsScriptError(err); ok && scriptErr.Context == "" {
			scriptErr.WithContext(src)
		}
		return Null(), err
	}
	return v, nil
}

// guardTree walks the whole tree and rejects disallowed constructs before
// evaluation begins
func guardTree(node exprNode) error {
	switch n := node.(type) {
	case callNode:
		return errors.NewEvaluationError("CALL_IN_EXPRESSION",
			"function calls not allowed in expressions").
			WithHint("use function definition syntax: func name(params) { ... }")
	case importNode:
		return errors.NewEvaluationError("IMPORT_IN_EXPRESSION",
			"imports not allowed in expressions").
			WithHint("use the import statement on its own line")
	case listNode:
		for _, elem := range n.elems {
			if err := guardTree(elem); err != nil {
				return err
			}
		}
	case unaryNode:
		return guardTree(n.operand)
	case binaryNode:
		if err := guardTree(n.left); err != nil {
			return err
		}
		return guardTree(n.right)
	case boolOpNode:
		for _, v := range n.values {
			if err := guardTree(v); err != nil {
				return err
			}
		}
	case compareNode:
		if err := guardTree(n.left); err != nil {
			return err
		}
		for _, c := range n.comparators {
			if err := guardTree(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func evalNode(node exprNode, env *Env) (Value, error) {
	switch n := node.(type) {
	case literalNode:
		return n.value, nil

	case identNode:
		v, ok := env.Get(n.name)
		if !ok {
			return Null(), errors.NewEvaluationError("UNKNOWN_VARIABLE",
				fmt.Sprintf("unknown variable: '%s'", n.name)).
				WithHint(fmt.Sprintf("did you mean to set '%s' first? Use: set %s = value", n.name, n.name))
		}
		return v, nil

	case listNode:
		items := make([]Value, 0, len(n.elems))
		for _, elem := range n.elems {
			v, err := evalNode(elem, env)
			if err != nil {
				return Null(), err
			}
			items = append(items, v)
		}
		return ListValue(items), nil

	case unaryNode:
		return evalUnary(n, env)

	case binaryNode:
		return evalBinary(n, env)

	case boolOpNode:
		return evalBoolOp(n, env)

	case compareNode:
		return evalCompare(n, env)
	}

	return Null(), errors.NewEvaluationError("UNSUPPORTED_EXPRESSION", "unsupported expression")
}

func evalUnary(n unaryNode, env *Env) (Value, error) {
	v, err := evalNode(n.operand, env)
	if err != nil {
		return Null(), err
	}
	switch n.op {
	case "not":
		return BoolValue(!v.Truthy()), nil
	case "-":
		switch {
		case v.Kind == KindInt || v.Kind == KindBool:
			return IntValue(-v.asInt()), nil
		case v.Kind == KindFloat:
			return FloatValue(-v.Float), nil
		}
	case "+":
		if v.isNumeric() {
			return v, nil
		}
	}
	return Null(), errors.NewEvaluationError("BAD_OPERAND",
		fmt.Sprintf("unary %s not defined for %s", n.op, v.Kind))
}

func evalBinary(n binaryNode, env *Env) (Value, error) {
	left, err := evalNode(n.left, env)
	if err != nil {
		return Null(), err
	}
	right, err := evalNode(n.right, env)
	if err != nil {
		return Null(), err
	}

	switch n.op {
	case "+":
		if left.Kind == KindString && right.Kind == KindString {
			return StringValue(left.Str + right.Str), nil
		}
		if left.Kind == KindList && right.Kind == KindList {
			joined := make([]Value, 0, len(left.List)+len(right.List))
			joined = append(joined, left.List...)
			joined = append(joined, right.List...)
			return ListValue(joined), nil
		}
		if left.isNumeric() && right.isNumeric() {
			if bothInts(left, right) {
				return IntValue(left.asInt() + right.asInt()), nil
			}
			return FloatValue(left.asFloat() + right.asFloat()), nil
		}

	case "-":
		if left.isNumeric() && right.isNumeric() {
			if bothInts(left, right) {
				return IntValue(left.asInt() - right.asInt()), nil
			}
			return FloatValue(left.asFloat() - right.asFloat()), nil
		}

	case "*":
		if left.isNumeric() && right.isNumeric() {
			if bothInts(left, right) {
				return IntValue(left.asInt() * right.asInt()), nil
			}
			return FloatValue(left.asFloat() * right.asFloat()), nil
		}

	case "/":
		if left.isNumeric() && right.isNumeric() {
			if right.asFloat() == 0 {
				return Null(), divisionByZero()
			}
			// true division always yields a float
			return FloatValue(left.asFloat() / right.asFloat()), nil
		}

	case "//":
		if left.isNumeric() && right.isNumeric() {
			if right.asFloat() == 0 {
				return Null(), divisionByZero()
			}
			if bothInts(left, right) {
				return IntValue(floorDivInt(left.asInt(), right.asInt())), nil
			}
			return FloatValue(math.Floor(left.asFloat() / right.asFloat())), nil
		}

	case "%":
		if left.isNumeric() && right.isNumeric() {
			if right.asFloat() == 0 {
				return Null(), divisionByZero()
			}
			if bothInts(left, right) {
				return IntValue(floorModInt(left.asInt(), right.asInt())), nil
			}
			return FloatValue(floorModFloat(left.asFloat(), right.asFloat())), nil
		}

	case "**":
		if left.isNumeric() && right.isNumeric() {
			if bothInts(left, right) && right.asInt() >= 0 {
				return IntValue(intPow(left.asInt(), right.asInt())), nil
			}
			return FloatValue(math.Pow(left.asFloat(), right.asFloat())), nil
		}
	}

	return Null(), errors.NewEvaluationError("BAD_OPERANDS",
		fmt.Sprintf("operator %s not defined for %s and %s", n.op, left.Kind, right.Kind))
}

func evalBoolOp(n boolOpNode, env *Env) (Value, error) {
	// short-circuit, returning the deciding operand value
	var last Value
	for _, operand := range n.values {
		v, err := evalNode(operand, env)
		if err != nil {
			return Null(), err
		}
		last = v
		if n.op == "and" && !v.Truthy() {
			return v, nil
		}
		if n.op == "or" && v.Truthy() {
			return v, nil
		}
	}
	return last, nil
}

func evalCompare(n compareNode, env *Env) (Value, error) {
	// chained comparison: every adjacent pair must hold, left to right,
	// stopping at the first failure
	left, err := evalNode(n.left, env)
	if err != nil {
		return Null(), err
	}
	for i, op := range n.ops {
		right, err := evalNode(n.comparators[i], env)
		if err != nil {
			return Null(), err
		}
		ok, err := compareValues(op, left, right)
		if err != nil {
			return Null(), err
		}
		if !ok {
			return BoolValue(false), nil
		}
		left = right
	}
	return BoolValue(true), nil
}

func compareValues(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return valuesEqual(a, b), nil
	case "!=":
		return !valuesEqual(a, b), nil
	case "<":
		return valuesLess(a, b)
	case ">":
		return valuesLess(b, a)
	case "<=":
		gt, err := valuesLess(b, a)
		return !gt, err
	case ">=":
		lt, err := valuesLess(a, b)
		return !lt, err
	}
	return false, errors.NewEvaluationError("BAD_COMPARISON", fmt.Sprintf("unknown comparison %s", op))
}

func divisionByZero() error {
	return errors.NewEvaluationError("DIVISION_BY_ZERO", "division by zero").
		WithHint("check your division operation")
}

// floorDivInt rounds toward negative infinity, matching the historical
// runtime's // semantics
func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorModInt takes the sign of the divisor
func floorModInt(a, b int64) int64 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floorModFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
