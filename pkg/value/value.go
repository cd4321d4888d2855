// Package value implements Spore's tagged value representation together
// with the object manager (arena-with-handles plus mark-and-sweep
// collector) that backs its heap variants, and the handful of data types -
// Symbol, Instruction, Module - that are defined in terms of Value and
// therefore cannot live above it without an import cycle.
//
// These pieces are kept in one package deliberately: the value encoding
// determines how handles get swept, compiled instructions embed Values
// that the collector must trace, and the Module that backs global lookups
// is itself just a map keyed by interned id to Value. Splitting them across
// packages would either force an import cycle or scatter one coherent
// subsystem across artificial boundaries.
package value

import (
	"math"

	"github.com/wmedrano/spore/pkg/intern"
)

// Tag discriminates the variant a Value holds.
type Tag uint8

const (
	TagVoid Tag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagSymbol
	TagKey
	TagList
	TagNativeFunction
	TagBytecodeFunction
)

func (t Tag) String() string {
	switch t {
	case TagVoid:
		return "void"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagSymbol:
		return "symbol"
	case TagKey:
		return "key"
	case TagList:
		return "list"
	case TagNativeFunction:
		return "native-function"
	case TagBytecodeFunction:
		return "bytecode-function"
	default:
		return "unknown"
	}
}

// Symbol is the interned form of a symbol atom: a quote count (0..3) plus
// the interned id of its name. It is small enough to live inline in a
// Value; the byte-string itself lives forever in the Interner.
type Symbol struct {
	Quotes uint8
	ID     intern.ID
}

// StripOneQuote returns the symbol with one fewer quote, per the
// strip-one-quote evaluation law. Panics if Quotes is already 0; callers
// must only call this on a Value whose Tag is TagSymbol with Quotes>0.
func (s Symbol) StripOneQuote() Symbol {
	if s.Quotes == 0 {
		panic("value: StripOneQuote on an unquoted symbol")
	}
	return Symbol{Quotes: s.Quotes - 1, ID: s.ID}
}

// Value is Spore's fixed-shape tagged value. Primitive variants (Void,
// Bool, Int, Float, Symbol, Key) are fully inline and copying a Value is
// always trivial; heap-backed variants (String, List, BytecodeFunction)
// carry a Handle into a Manager instead of an owning pointer so the
// collector is free to relocate and recycle storage.
type Value struct {
	tag    Tag
	i      int64  // Int payload, and bit pattern for Float via math.Float64bits
	handle Handle // String / List / BytecodeFunction payload
	sym    Symbol // Symbol payload
	key    intern.ID
	native *NativeFunction // borrowed, static-lifetime pointer
}

// Void is the single Void value.
var Void = Value{tag: TagVoid}

// Bool constructs a Bool value.
func Bool(b bool) Value {
	v := Value{tag: TagBool}
	if b {
		v.i = 1
	}
	return v
}

// Int constructs an Int value.
func Int(i int64) Value { return Value{tag: TagInt, i: i} }

// Float constructs a Float value.
func Float(f float64) Value {
	return Value{tag: TagFloat, i: int64(math.Float64bits(f))}
}

// String constructs a String value from a handle into a Manager's string
// arena. Callers obtain the handle via Manager.NewString.
func String(h Handle) Value { return Value{tag: TagString, handle: h} }

// List constructs a List value from a handle into a Manager's list arena.
func List(h Handle) Value { return Value{tag: TagList, handle: h} }

// BytecodeFunction constructs a BytecodeFunction value from a handle into
// a Manager's bytecode-function arena.
func BytecodeFunction(h Handle) Value { return Value{tag: TagBytecodeFunction, handle: h} }

// SymbolValue constructs a Symbol value.
func SymbolValue(sym Symbol) Value { return Value{tag: TagSymbol, sym: sym} }

// KeyValue constructs a Key value from an interned id.
func KeyValue(id intern.ID) Value { return Value{tag: TagKey, key: id} }

// NativeFunctionValue constructs a NativeFunction value from a borrowed,
// static-lifetime pointer to a host function record.
func NativeFunctionValue(fn *NativeFunction) Value {
	return Value{tag: TagNativeFunction, native: fn}
}

// Tag reports the variant this Value holds.
func (v Value) Tag() Tag { return v.tag }

// IsBool reports whether v holds a Bool.
func (v Value) IsBool() bool { return v.tag == TagBool }

// AsBool returns v's boolean payload. Only meaningful when Tag()==TagBool.
func (v Value) AsBool() bool { return v.i != 0 }

// AsInt returns v's integer payload. Only meaningful when Tag()==TagInt.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns v's float payload. Only meaningful when Tag()==TagFloat.
func (v Value) AsFloat() float64 { return math.Float64frombits(uint64(v.i)) }

// AsHandle returns v's handle payload. Only meaningful for heap-backed
// tags (String, List, BytecodeFunction).
func (v Value) AsHandle() Handle { return v.handle }

// AsSymbol returns v's symbol payload. Only meaningful when Tag()==TagSymbol.
func (v Value) AsSymbol() Symbol { return v.sym }

// AsKey returns v's interned-id payload. Only meaningful when Tag()==TagKey.
func (v Value) AsKey() intern.ID { return v.key }

// AsNativeFunction returns v's native-function pointer. Only meaningful
// when Tag()==TagNativeFunction.
func (v Value) AsNativeFunction() *NativeFunction { return v.native }

// Truthy implements Spore's truthiness rule: everything is truthy except
// Void and Bool(false).
func (v Value) Truthy() bool {
	switch v.tag {
	case TagVoid:
		return false
	case TagBool:
		return v.i != 0
	default:
		return true
	}
}

// Equal reports bitwise/structural equality for the primitive tags that
// support it directly (heap tags compare by handle identity, not by deep
// content - two distinct lists with equal elements are not Equal).
func (v Value) Equal(other Value) bool {
	if v.tag != other.tag {
		return false
	}
	switch v.tag {
	case TagVoid:
		return true
	case TagBool, TagInt:
		return v.i == other.i
	case TagFloat:
		return v.i == other.i
	case TagString, TagList, TagBytecodeFunction:
		return v.handle == other.handle
	case TagSymbol:
		return v.sym == other.sym
	case TagKey:
		return v.key == other.key
	case TagNativeFunction:
		return v.native == other.native
	default:
		return false
	}
}
