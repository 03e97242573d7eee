package eval

import (
	"math"
	"strconv"
	"strings"

	"nickandperla.net/lox/internal/ast"
)

// Type is the runtime type of a Value.
type Type int

const (
	None Type = iota
	Number
	Bool
	String
	Tuple
	NativeFunction
	UserFunction
)

func (t Type) String() string {
	switch t {
	case None:
		return "NONE"
	case Number:
		return "NUMBER"
	case Bool:
		return "BOOL"
	case String:
		return "STRING"
	case Tuple:
		return "TUPLE"
	case NativeFunction:
		return "NATIVE_FUNCTION"
	case UserFunction:
		return "FUNCTION"
	}
	return "UNKNOWN"
}

// NativeFunc implements a builtin. args is always the normalized argument
// tuple and call is the call site, for error positions.
type NativeFunc func(e *Evaluator, args []Value, call ast.NodeID) (Value, error)

// Native is a function implemented in Go.
type Native struct {
	Name  string
	Arity int // -1 accepts any number of arguments
	Fn    NativeFunc
}

// Function is a function defined in lox.
type Function struct {
	Name   string
	Params []string
	Body   ast.NodeID // Stmt(Braced)
}

// Value is a runtime value. Node records the syntax that produced it and is
// only used to position errors.
type Value struct {
	Ident  string
	Type   Type
	Num    float64
	Bool   bool
	Str    string
	Items  []Value
	Native *Native
	Fn     *Function
	Node   ast.NodeID
}

// Empty returns the none value.
func Empty(node ast.NodeID) Value {
	return Value{Type: None, Node: node}
}

// NumberValue returns a number.
func NumberValue(f float64, node ast.NodeID) Value {
	return Value{Type: Number, Num: f, Node: node}
}

// BoolValue returns a boolean.
func BoolValue(b bool, node ast.NodeID) Value {
	return Value{Type: Bool, Bool: b, Node: node}
}

// StringValue returns a string.
func StringValue(s string, node ast.NodeID) Value {
	return Value{Type: String, Str: s, Node: node}
}

// TupleValue returns a tuple of items.
func TupleValue(items []Value, node ast.NodeID) Value {
	return Value{Type: Tuple, Items: items, Node: node}
}

// ToTuple wraps a non-tuple value in a one element tuple.
func (v Value) ToTuple() Value {
	if v.Type == Tuple {
		return v
	}
	return TupleValue([]Value{v}, v.Node)
}

// IsCallable reports whether v can be called.
func (v Value) IsCallable() bool {
	return v.Type == NativeFunction || v.Type == UserFunction
}

// String renders v the way print shows it.
func (v Value) String() string {
	switch v.Type {
	case Number:
		return formatNumber(v.Num)
	case Bool:
		return strconv.FormatBool(v.Bool)
	case String:
		return v.Str
	case Tuple:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case NativeFunction:
		return "<native fn " + v.Native.Name + ">"
	case UserFunction:
		return "<fn " + v.Fn.Name + ">"
	}
	return ""
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
