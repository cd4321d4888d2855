package vm

import "github.com/wmedrano/spore/pkg/value"

// Number is the host-facing union of Spore's two numeric tags: spec.md
// 6's to_host<Number> ("sum of int/float").
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

// AsFloat64 returns n's value widened to float64 regardless of which
// variant it holds.
func (n Number) AsFloat64() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// ToHost converts val to host type T, per spec.md 6's to_host<T>. Any T
// not handled below is treated as the Void conversion: it returns T's zero
// value when val is Void and wrong-type otherwise.
// Slices returned for String/List borrow into the object manager and are
// invalidated by the next run_gc.
func ToHost[T any](v *VM, val value.Value) (T, error) {
	var zero T
	switch any(zero).(type) {
	case bool:
		if val.Tag() != value.TagBool {
			return zero, wrongType("bool", val)
		}
		return any(val.AsBool()).(T), nil

	case int64:
		if val.Tag() != value.TagInt {
			return zero, wrongType("int", val)
		}
		return any(val.AsInt()).(T), nil

	case float64:
		if val.Tag() != value.TagFloat {
			return zero, wrongType("float", val)
		}
		return any(val.AsFloat()).(T), nil

	case Number:
		switch val.Tag() {
		case value.TagInt:
			return any(Number{Int: val.AsInt()}).(T), nil
		case value.TagFloat:
			return any(Number{IsFloat: true, Float: val.AsFloat()}).(T), nil
		default:
			return zero, wrongType("number", val)
		}

	case []byte:
		if val.Tag() != value.TagString {
			return zero, wrongType("string", val)
		}
		obj, ok := v.mgr.GetString(val)
		if !ok {
			return zero, value.NewError(value.KindObjectNotFound, "string handle is stale")
		}
		return any(obj.Bytes).(T), nil

	case []value.Value:
		if val.Tag() != value.TagList {
			return zero, wrongType("list", val)
		}
		obj, ok := v.mgr.GetList(val)
		if !ok {
			return zero, value.NewError(value.KindObjectNotFound, "list handle is stale")
		}
		return any(obj.Items).(T), nil

	case value.Symbol:
		if val.Tag() != value.TagSymbol {
			return zero, wrongType("symbol", val)
		}
		return any(val.AsSymbol()).(T), nil

	case *value.NativeFunction:
		if val.Tag() != value.TagNativeFunction {
			return zero, wrongType("native-function", val)
		}
		return any(val.AsNativeFunction()).(T), nil

	case value.BytecodeFunctionObject:
		if val.Tag() != value.TagBytecodeFunction {
			return zero, wrongType("bytecode-function", val)
		}
		obj, ok := v.mgr.GetBytecodeFunction(val)
		if !ok {
			return zero, value.NewError(value.KindObjectNotFound, "bytecode function handle is stale")
		}
		return any(*obj).(T), nil

	default:
		if val.Tag() != value.TagVoid {
			return zero, wrongType("void", val)
		}
		return zero, nil
	}
}

// FromHost converts a host value t to a Spore Value, the inverse of
// ToHost (spec.md 6's from_host<T>). Strings and lists are copied into
// the object manager; a value.Symbol already carries its interned id and
// is wrapped as is. Unsupported host types convert to Void.
func FromHost(v *VM, t any) value.Value {
	switch x := t.(type) {
	case nil:
		return value.Void
	case bool:
		return value.Bool(x)
	case int64:
		return value.Int(x)
	case int:
		return value.Int(int64(x))
	case float64:
		return value.Float(x)
	case Number:
		if x.IsFloat {
			return value.Float(x.Float)
		}
		return value.Int(x.Int)
	case string:
		return v.mgr.NewString([]byte(x))
	case []byte:
		return v.mgr.NewString(append([]byte(nil), x...))
	case []value.Value:
		return v.mgr.NewList(append([]value.Value(nil), x...))
	case value.Symbol:
		return value.SymbolValue(x)
	case value.Value:
		return x
	default:
		return value.Void
	}
}

func wrongType(want string, got value.Value) *value.Error {
	return value.NewError(value.KindWrongType, "expected %s, got %s", want, got.Tag())
}
