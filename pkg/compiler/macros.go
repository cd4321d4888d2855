package compiler

import "github.com/wmedrano/spore/pkg/value"

// Macros returns the three built-in macros spec.md 4.5 requires: def,
// defun, and when. The VM registers these in its global module as
// IsMacro-flagged NativeFunctions at startup, the same way it registers
// any other native function - macros are not a distinct mechanism, just an
// ordinary function invoked by the expander instead of the interpreter.
func Macros() []*value.NativeFunction {
	return []*value.NativeFunction{
		{Name: "def", IsMacro: true, Fn: defMacro},
		{Name: "defun", IsMacro: true, Fn: defunMacro},
		{Name: "when", IsMacro: true, Fn: whenMacro},
	}
}

func symbolHead(c value.Caller, name string) value.Value {
	return value.SymbolValue(value.Symbol{Quotes: 0, ID: c.InternID(name)})
}

// defMacro implements (def name value) -> (%define 'name value).
func defMacro(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Void, value.NewError(value.KindBadArg, "def expects 2 arguments (name value), got %d", len(args))
	}
	nameSym := args[0]
	if nameSym.Tag() != value.TagSymbol {
		return value.Void, value.NewError(value.KindBadArg, "def expects a symbol name")
	}
	quoted := value.SymbolValue(value.Symbol{Quotes: nameSym.AsSymbol().Quotes + 1, ID: nameSym.AsSymbol().ID})
	return c.Manager().NewList([]value.Value{
		symbolHead(c, "%define"),
		quoted,
		args[1],
	}), nil
}

// defunMacro implements
// (defun name (params...) body...) -> (%define 'name (function (params...) body...)).
func defunMacro(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return value.Void, value.NewError(value.KindBadArg, "defun expects at least (name params), got %d", len(args))
	}
	nameSym := args[0]
	if nameSym.Tag() != value.TagSymbol {
		return value.Void, value.NewError(value.KindBadArg, "defun expects a symbol name")
	}
	paramsAndBody := args[1:]
	functionForm := append([]value.Value{symbolHead(c, "function")}, paramsAndBody...)
	quoted := value.SymbolValue(value.Symbol{Quotes: nameSym.AsSymbol().Quotes + 1, ID: nameSym.AsSymbol().ID})
	return c.Manager().NewList([]value.Value{
		symbolHead(c, "%define"),
		quoted,
		c.Manager().NewList(functionForm),
	}), nil
}

// whenMacro implements (when pred body...) -> (if pred (do body...)).
func whenMacro(c value.Caller, args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Void, value.NewError(value.KindBadArg, "when expects at least a predicate")
	}
	doForm := append([]value.Value{symbolHead(c, "do")}, args[1:]...)
	return c.Manager().NewList([]value.Value{
		symbolHead(c, "if"),
		args[0],
		c.Manager().NewList(doForm),
	}), nil
}
