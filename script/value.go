package script

import (
	"fmt"
	"strconv"
	"strings"

	"valyxo/errors"
)

// Kind identifies the dynamic type of a Value
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindList
)

// String returns the name of the kind as scripts see it
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is the tagged union over every type a script variable can hold.
// Exactly one payload field is meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	List  []Value
}

// Null returns the null value
func Null() Value {
	return Value{Kind: KindNull}
}

// IntValue wraps an integer
func IntValue(i int64) Value {
	return Value{Kind: KindInt, Int: i}
}

// FloatValue wraps a float
func FloatValue(f float64) Value {
	return Value{Kind: KindFloat, Float: f}
}

// StringValue wraps a string
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// BoolValue wraps a boolean
func BoolValue(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// ListValue wraps a list
func ListValue(items []Value) Value {
	return Value{Kind: KindList, List: items}
}

// Truthy reports whether the value counts as true in a condition.
// Zero, empty and null are false; everything else is true.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindBool:
		return v.Bool
	case KindList:
		return len(v.List) > 0
	default:
		return false
	}
}

// String renders the value the way print displays it
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "None"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return formatFloat(v.Float)
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindList:
		var parts []string
		for _, item := range v.List {
			parts = append(parts, item.repr())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<?>"
	}
}

// repr renders the value for display inside list literals, where strings
// keep their quotes
func (v Value) repr() string {
	if v.Kind == KindString {
		return "'" + v.Str + "'"
	}
	return v.String()
}

// Floats always show a decimal point or exponent so integers and floats
// stay visually distinct.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// isNumeric reports whether the value participates in arithmetic.
// Booleans count as 1/0, matching the historical runtime.
func (v Value) isNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindBool
}

// asInt returns the integer payload of a numeric value
func (v Value) asInt() int64 {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return int64(v.Float)
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// asFloat returns the floating-point payload of a numeric value
func (v Value) asFloat() float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindFloat:
		return v.Float
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// bothInts reports whether both operands are integer-like, in which case
// arithmetic stays in the integer domain
func bothInts(a, b Value) bool {
	intLike := func(v Value) bool { return v.Kind == KindInt || v.Kind == KindBool }
	return intLike(a) && intLike(b)
}

// valuesEqual implements ==. Numeric values compare across int/float/bool;
// other kinds compare only against themselves.
func valuesEqual(a, b Value) bool {
	if a.isNumeric() && b.isNumeric() {
		if bothInts(a, b) {
			return a.asInt() == b.asInt()
		}
		return a.asFloat() == b.asFloat()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindString:
		return a.Str == b.Str
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !valuesEqual(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// valuesLess implements <. Ordering is defined for numbers and for
// string pairs; anything else is an evaluation error.
func valuesLess(a, b Value) (bool, error) {
	if a.isNumeric() && b.isNumeric() {
		if bothInts(a, b) {
			return a.asInt() < b.asInt(), nil
		}
		return a.asFloat() < b.asFloat(), nil
	}
	if a.Kind == KindString && b.Kind == KindString {
		return a.Str < b.Str, nil
	}
	return false, errors.NewEvaluationError("BAD_COMPARISON",
		fmt.Sprintf("cannot order %s and %s", a.Kind, b.Kind))
}
