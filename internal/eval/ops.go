package eval

import (
	"math"

	"nickandperla.net/lox/internal/ast"
	"nickandperla.net/lox/internal/token"
)

// binary applies op to evaluated operands. Type errors are positioned at the
// offending operand.
func (e *Evaluator) binary(id ast.NodeID, op token.Kind, left, right Value) (Value, error) {
	switch op {
	case token.PLUS:
		return e.add(id, left, right)
	case token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return e.arithmetic(id, op, left, right)
	case token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL:
		return e.compare(id, op, left, right)
	case token.EQUAL_EQUAL:
		return e.equal(id, left, right)
	case token.BANG_EQUAL:
		v, err := e.equal(id, left, right)
		if err != nil {
			return Value{}, err
		}
		v.Bool = !v.Bool
		return v, nil
	case token.AND, token.OR:
		return e.logical(id, op, left, right)
	}
	return Value{}, e.internal(id, "unknown binary operator %s", op)
}

func (e *Evaluator) add(id ast.NodeID, left, right Value) (Value, error) {
	switch left.Type {
	case Number:
		if right.Type != Number {
			return Value{}, e.errorFor(right, id, "Expected NUMBER type for right operand")
		}
		return NumberValue(left.Num+right.Num, id), nil
	case String:
		if right.Type != String {
			return Value{}, e.errorFor(right, id, "Expected STRING type for right operand")
		}
		return StringValue(left.Str+right.Str, id), nil
	}
	return Value{}, e.errorFor(left, id, "Expected NUMBER or STRING type for left operand")
}

func (e *Evaluator) numbers(id ast.NodeID, left, right Value) error {
	if left.Type != Number {
		return e.errorFor(left, id, "Expected NUMBER type for left operand")
	}
	if right.Type != Number {
		return e.errorFor(right, id, "Expected NUMBER type for right operand")
	}
	return nil
}

// arithmetic follows IEEE-754: division by zero gives inf or nan.
func (e *Evaluator) arithmetic(id ast.NodeID, op token.Kind, left, right Value) (Value, error) {
	if err := e.numbers(id, left, right); err != nil {
		return Value{}, err
	}
	var f float64
	switch op {
	case token.MINUS:
		f = left.Num - right.Num
	case token.STAR:
		f = left.Num * right.Num
	case token.SLASH:
		f = left.Num / right.Num
	case token.PERCENT:
		f = math.Mod(left.Num, right.Num)
	}
	return NumberValue(f, id), nil
}

func (e *Evaluator) compare(id ast.NodeID, op token.Kind, left, right Value) (Value, error) {
	if err := e.numbers(id, left, right); err != nil {
		return Value{}, err
	}
	var b bool
	switch op {
	case token.GREATER:
		b = left.Num > right.Num
	case token.GREATER_EQUAL:
		b = left.Num >= right.Num
	case token.LESS:
		b = left.Num < right.Num
	case token.LESS_EQUAL:
		b = left.Num <= right.Num
	}
	return BoolValue(b, id), nil
}

// equal compares values of the same type. Comparing across types is an error.
func (e *Evaluator) equal(id ast.NodeID, left, right Value) (Value, error) {
	switch left.Type {
	case Number, String, Bool:
	default:
		return Value{}, e.errorFor(left, id, "Expected NUMBER or STRING or BOOL type for left operand")
	}
	if right.Type != left.Type {
		return Value{}, e.errorFor(right, id, "Expected %s type for right operand", left.Type)
	}
	var b bool
	switch left.Type {
	case Number:
		b = left.Num == right.Num
	case String:
		b = left.Str == right.Str
	case Bool:
		b = left.Bool == right.Bool
	}
	return BoolValue(b, id), nil
}

// logical evaluates and/or. Both operands are already evaluated.
func (e *Evaluator) logical(id ast.NodeID, op token.Kind, left, right Value) (Value, error) {
	if left.Type != Bool {
		return Value{}, e.errorFor(left, id, "Expected BOOL type for left operand")
	}
	if right.Type != Bool {
		return Value{}, e.errorFor(right, id, "Expected BOOL type for right operand")
	}
	if op == token.AND {
		return BoolValue(left.Bool && right.Bool, id), nil
	}
	return BoolValue(left.Bool || right.Bool, id), nil
}

// negate applies a prefix operator. '-' negates numbers and booleans, '!'
// only booleans.
func (e *Evaluator) negate(id ast.NodeID, op token.Kind, v Value) (Value, error) {
	switch {
	case v.Type == Number && op == token.MINUS:
		return NumberValue(-v.Num, id), nil
	case v.Type == Bool:
		return BoolValue(!v.Bool, id), nil
	case op == token.BANG:
		return Value{}, e.errorFor(v, id, "Expected BOOL type for operand of '!'")
	}
	return Value{}, e.errorFor(v, id, "Expected NUMBER or BOOL type for operand of '-'")
}
