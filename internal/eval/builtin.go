package eval

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"nickandperla.net/lox/internal/ast"
)

// Binding is a name bound in the base scope at startup.
type Binding struct {
	Name  string
	Value Value
}

// StandardLibrary returns the builtin bindings, in declaration order.
func StandardLibrary() []Binding {
	return []Binding{
		{"PI", NumberValue(math.Pi, ast.None)},
		{"print", nativeValue("print", -1, builtinPrint)},
		{"str", nativeValue("str", -1, builtinStr)},
		{"len", nativeValue("len", -1, builtinLen)},
		{"clock", nativeValue("clock", 0, builtinClock)},
	}
}

func nativeValue(name string, arity int, fn NativeFunc) Value {
	return Value{
		Ident:  name,
		Type:   NativeFunction,
		Native: &Native{Name: name, Arity: arity, Fn: fn},
		Node:   ast.None,
	}
}

// joined renders an argument list the way the tuple it came from prints.
func joined(args []Value, call ast.NodeID) string {
	if len(args) == 1 {
		return args[0].String()
	}
	return TupleValue(args, call).String()
}

func builtinPrint(e *Evaluator, args []Value, call ast.NodeID) (Value, error) {
	if _, err := fmt.Fprintln(e.out, joined(args, call)); err != nil {
		return Value{}, e.errorAt(call, "print: %v", err)
	}
	return Empty(call), nil
}

func builtinStr(e *Evaluator, args []Value, call ast.NodeID) (Value, error) {
	return StringValue(joined(args, call), call), nil
}

// builtinLen counts the runes of a single string argument. A tuple reaches a
// native as its items, so any other argument count is the tuple's length.
func builtinLen(e *Evaluator, args []Value, call ast.NodeID) (Value, error) {
	if len(args) != 1 {
		return NumberValue(float64(len(args)), call), nil
	}
	if v := args[0]; v.Type != String {
		return Value{}, e.errorFor(v, call, "Expected STRING or TUPLE type for argument, found %s", v.Type)
	}
	return NumberValue(float64(utf8.RuneCountInString(args[0].Str)), call), nil
}

func builtinClock(e *Evaluator, args []Value, call ast.NodeID) (Value, error) {
	return NumberValue(float64(time.Now().UnixNano())/1e9, call), nil
}
