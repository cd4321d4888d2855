package vm

import (
	"fmt"

	"github.com/wmedrano/spore/pkg/reader"
	"github.com/wmedrano/spore/pkg/value"
)

// registerBuiltins defines the required global bindings from spec.md 6.
// %define is the only one the compiler ever emits a Deref for directly
// (compileDefine); the rest are ordinary library functions a program calls
// like any other.
func (v *VM) registerBuiltins() {
	v.define("%define", defineBuiltin)
	v.define("do", doBuiltin)
	v.define("list", listBuiltin)
	v.define("+", addBuiltin)
	v.define("-", subBuiltin)
	v.define("<", ltBuiltin)
	v.define(">", gtBuiltin)
	v.define("str-len", strLenBuiltin)
	v.define("print", printBuiltin)
	v.define("apply", applyBuiltin)
	v.define("function-bytecode", functionBytecodeBuiltin)

	// str->sexps and str->sexp need the raw interner to build a reader.New,
	// which the narrow Caller interface doesn't expose - registered as
	// closures over the concrete VM instead of package-level functions.
	v.module.Define(v.interner.Intern("str->sexps"), value.NativeFunctionValue(&value.NativeFunction{
		Name: "str->sexps",
		Fn: func(c value.Caller, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return value.Void, value.NewError(value.KindBadArg, "str->sexps expects 1 argument, got %d", len(args))
			}
			bytes, err := ToHost[[]byte](v, args[0])
			if err != nil {
				return value.Void, err
			}
			r := reader.New(string(bytes), v.mgr, v.interner)
			var forms []value.Value
			for {
				expr, ok, err := r.Next()
				if err != nil {
					return value.Void, err
				}
				if !ok {
					break
				}
				forms = append(forms, expr)
			}
			return v.mgr.NewList(forms), nil
		},
	}))
	v.module.Define(v.interner.Intern("str->sexp"), value.NativeFunctionValue(&value.NativeFunction{
		Name: "str->sexp",
		Fn: func(c value.Caller, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return value.Void, value.NewError(value.KindBadArg, "str->sexp expects 1 argument, got %d", len(args))
			}
			bytes, err := ToHost[[]byte](v, args[0])
			if err != nil {
				return value.Void, err
			}
			r := reader.New(string(bytes), v.mgr, v.interner)
			expr, ok, err := r.Next()
			if err != nil {
				return value.Void, err
			}
			if !ok {
				return value.Void, value.NewError(value.KindBadArg, "str->sexp: input contains no expression")
			}
			return expr, nil
		},
	}))
}

// define registers fn unconditionally (Module.Define, not Register): the
// VM's own construction-time builtins never collide with each other. A
// later host RegisterValue/RegisterFunction of the same name is still
// refused with value-already-defined.
func (v *VM) define(name string, fn func(c value.Caller, args []value.Value) (value.Value, error)) {
	v.module.Define(v.interner.Intern(name), value.NativeFunctionValue(&value.NativeFunction{Name: name, Fn: fn}))
}

// defineBuiltin implements %define: (%define 'name value) binds name to
// value in the global module unconditionally, per spec.md 9's resolution
// that %define upserts rather than refuses a rebind.
func defineBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Void, value.NewError(value.KindBadDefine, "%%define expects 2 arguments, got %d", len(args))
	}
	nameVal := args[0]
	if nameVal.Tag() != value.TagSymbol || nameVal.AsSymbol().Quotes != 0 {
		return value.Void, value.NewError(value.KindBadDefine, "%%define's first argument must be an unquoted symbol")
	}
	c.Module().Define(nameVal.AsSymbol().ID, args[1])
	return args[1], nil
}

// doBuiltin implements do: evaluates to its last argument, or Void if given
// none. Its operands are already evaluated by the time Eval calls it, so
// this is pure sequencing-by-evaluation-order, not special-formed control
// flow.
func doBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Void, nil
	}
	return args[len(args)-1], nil
}

// listBuiltin implements list: bundles its arguments into a new List
// object.
func listBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	return c.Manager().NewList(args), nil
}

// toNumber converts val to a Number, reporting wrong-type for any other
// tag.
func toNumber(val value.Value) (Number, error) {
	switch val.Tag() {
	case value.TagInt:
		return Number{Int: val.AsInt()}, nil
	case value.TagFloat:
		return Number{IsFloat: true, Float: val.AsFloat()}, nil
	default:
		return Number{}, value.NewError(value.KindWrongType, "expected a number, got %s", val.Tag())
	}
}

// addBuiltin implements +: sums its arguments, promoting the whole result
// to Float the moment any argument is a Float, per spec.md 6's int/float
// promotion rule.
func addBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(0), nil
	}
	isFloat := false
	var fsum float64
	var isum int64
	for _, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return value.Void, err
		}
		if n.IsFloat {
			isFloat = true
		}
		fsum += n.AsFloat64()
		if !n.IsFloat {
			isum += n.Int
		}
	}
	if isFloat {
		return value.Float(fsum), nil
	}
	return value.Int(isum), nil
}

// subBuiltin implements -: with one argument, negates it; with more,
// subtracts the rest from the first, left to right. Requires at least one
// argument (a bare (-) is wrong-arity).
func subBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Void, value.NewError(value.KindWrongArity, "- expects at least 1 argument, got 0")
	}
	first, err := toNumber(args[0])
	if err != nil {
		return value.Void, err
	}
	if len(args) == 1 {
		if first.IsFloat {
			return value.Float(-first.Float), nil
		}
		return value.Int(-first.Int), nil
	}

	isFloat := first.IsFloat
	fsum := first.AsFloat64()
	isum := first.Int
	for _, a := range args[1:] {
		n, err := toNumber(a)
		if err != nil {
			return value.Void, err
		}
		if n.IsFloat {
			isFloat = true
		}
		fsum -= n.AsFloat64()
		isum -= n.Int
	}
	if isFloat {
		return value.Float(fsum), nil
	}
	return value.Int(isum), nil
}

// ltBuiltin implements <: reports whether its arguments are strictly
// increasing.
func ltBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	return chainedCompare(args, func(a, b float64) bool { return a < b })
}

// gtBuiltin implements >: reports whether its arguments are strictly
// decreasing.
func gtBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	return chainedCompare(args, func(a, b float64) bool { return a > b })
}

func chainedCompare(args []value.Value, ok func(a, b float64) bool) (value.Value, error) {
	// Zero or one argument is vacuously true; a single argument still must
	// be a number.
	if len(args) < 2 {
		if len(args) == 1 {
			if _, err := toNumber(args[0]); err != nil {
				return value.Void, err
			}
		}
		return value.Bool(true), nil
	}
	nums := make([]float64, len(args))
	for i, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return value.Void, err
		}
		nums[i] = n.AsFloat64()
	}
	for i := 0; i < len(nums)-1; i++ {
		if !ok(nums[i], nums[i+1]) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

// strLenBuiltin implements str-len: the byte length of a string.
func strLenBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Void, value.NewError(value.KindBadArg, "str-len expects 1 argument, got %d", len(args))
	}
	if args[0].Tag() != value.TagString {
		return value.Void, value.NewError(value.KindWrongType, "str-len expects a string, got %s", args[0].Tag())
	}
	obj, ok := c.Manager().GetString(args[0])
	if !ok {
		return value.Void, value.NewError(value.KindObjectNotFound, "string handle is stale")
	}
	return value.Int(int64(len(obj.Bytes))), nil
}

// printBuiltin implements print: writes the reader-compatible rendering of
// each argument, space-separated, followed by a newline, and returns Void.
func printBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	for i, a := range args {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(c.FormatValue(a))
	}
	fmt.Println()
	return value.Void, nil
}

// applyBuiltin implements apply: (apply fn args-list) calls fn with the
// elements of args-list, exactly as if fn had been called directly.
func applyBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Void, value.NewError(value.KindBadArg, "apply expects 2 arguments (fn args), got %d", len(args))
	}
	if args[1].Tag() != value.TagList {
		return value.Void, value.NewError(value.KindWrongType, "apply's second argument must be a list, got %s", args[1].Tag())
	}
	list, ok := c.Manager().GetList(args[1])
	if !ok {
		return value.Void, value.NewError(value.KindObjectNotFound, "list handle is stale")
	}
	return c.Apply(args[0], list.Items)
}

// functionBytecodeBuiltin implements function-bytecode: disassembles a
// BytecodeFunction into a List of [opcode-symbol operand?] Lists, for
// introspection from Spore code.
func functionBytecodeBuiltin(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Void, value.NewError(value.KindBadArg, "function-bytecode expects 1 argument, got %d", len(args))
	}
	if args[0].Tag() != value.TagBytecodeFunction {
		return value.Void, value.NewError(value.KindWrongType, "function-bytecode expects a bytecode function, got %s", args[0].Tag())
	}
	obj, ok := c.Manager().GetBytecodeFunction(args[0])
	if !ok {
		return value.Void, value.NewError(value.KindObjectNotFound, "bytecode function handle is stale")
	}

	rows := make([]value.Value, len(obj.Instructions))
	for i, instr := range obj.Instructions {
		opSym := value.SymbolValue(value.Symbol{ID: c.InternID(instr.Op.String())})
		var row []value.Value
		switch instr.Op {
		case value.OpPush:
			row = []value.Value{opSym, instr.Operand}
		case value.OpEval, value.OpGetLocal:
			row = []value.Value{opSym, value.Int(int64(instr.N))}
		case value.OpDeref:
			name, _ := c.ResolveID(instr.Sym.ID)
			row = []value.Value{opSym, value.SymbolValue(value.Symbol{ID: c.InternID(name)})}
		case value.OpJumpIf, value.OpJump:
			row = []value.Value{opSym, value.Int(int64(instr.Delta))}
		default:
			row = []value.Value{opSym}
		}
		rows[i] = c.Manager().NewList(row)
	}
	return c.Manager().NewList(rows), nil
}
