// Package compiler implements the macro expander and the bytecode
// compiler: the two stages that turn a reader-produced value.Value
// expression into a flat value.Instruction sequence.
package compiler

import "github.com/wmedrano/spore/pkg/value"

// Expand rewrites v to a fixed point under macro expansion. A list whose
// head is an interned symbol bound, in the caller's module, to a
// NativeFunction with IsMacro set is replaced by the result of invoking
// that function with the list's unevaluated tail as arguments; the result
// is expanded again before being substituted in. Everything else recurses
// into subexpressions, reallocating a new list only when something inside
// it actually changed.
func Expand(c value.Caller, v value.Value) (value.Value, error) {
	expanded, _, err := expandNode(c, v)
	return expanded, err
}

func expandNode(c value.Caller, v value.Value) (value.Value, bool, error) {
	if v.Tag() != value.TagList {
		return v, false, nil
	}
	list, ok := c.Manager().GetList(v)
	if !ok {
		return value.Void, false, value.NewError(value.KindObjectNotFound, "stale list handle during macro expansion")
	}
	if len(list.Items) == 0 {
		return v, false, nil
	}

	if head := list.Items[0]; head.Tag() == value.TagSymbol && head.AsSymbol().Quotes == 0 {
		if fnVal, ok := c.Module().Get(head.AsSymbol().ID); ok && fnVal.Tag() == value.TagNativeFunction {
			if nf := fnVal.AsNativeFunction(); nf.IsMacro {
				args := list.Items[1:]
				produced, err := nf.Fn(c, args)
				if err != nil {
					return value.Void, false, err
				}
				reexpanded, _, err := expandNode(c, produced)
				if err != nil {
					return value.Void, false, err
				}
				return reexpanded, true, nil
			}
		}
	}

	newItems := make([]value.Value, len(list.Items))
	changed := false
	for i, item := range list.Items {
		expandedItem, itemChanged, err := expandNode(c, item)
		if err != nil {
			return value.Void, false, err
		}
		newItems[i] = expandedItem
		changed = changed || itemChanged
	}
	if !changed {
		return v, false, nil
	}
	return c.Manager().NewList(newItems), true, nil
}
