// Package vm implements the chunked bytecode representation, the heap
// object model, and the stack-based dispatcher that executes compiled
// Lox programs.
package vm

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType is the tag of a runtime Value.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is a uniform tagged runtime value, deliberately a small struct
// rather than an interface so it is passed by copy with no heap
// allocation for the common Nil/Bool/Number cases.
type Value struct {
	Type   ValueType
	boolean bool
	number  float64
	obj     Object
}

func Nil() Value             { return Value{Type: ValNil} }
func Bool(b bool) Value      { return Value{Type: ValBool, boolean: b} }
func Number(n float64) Value { return Value{Type: ValNumber, number: n} }
func ObjValue(o Object) Value { return Value{Type: ValObj, obj: o} }

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) AsBool() bool      { return v.boolean }
func (v Value) AsNumber() float64 { return v.number }
func (v Value) AsObj() Object     { return v.obj }

// IsFalsey reports whether v is one of Lox's two falsey values: nil
// and the boolean false. Every other value is truthy.
func (v Value) IsFalsey() bool {
	return v.Type == ValNil || (v.Type == ValBool && !v.boolean)
}

// Equal implements Lox value equality. Cross-variant comparisons are
// always false. Object references compare by identity; interning
// guarantees that content-equal strings share an identity.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.boolean == b.boolean
	case ValNumber:
		return a.number == b.number
	case ValObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// Print renders v the way the language's print statement does.
func Print(v Value) string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.number)
	case ValObj:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func (v Value) String() string { return fmt.Sprintf("Value(%s)", Print(v)) }
