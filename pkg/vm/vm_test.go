package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wmedrano/spore/pkg/value"
)

func TestEvaluateLiteral(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("12")
	require.NoError(t, err)
	require.Equal(t, value.TagInt, res.Tag())
	require.Equal(t, int64(12), res.AsInt())
}

func TestEvaluateDefAndLookup(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(def x 12) x")
	require.NoError(t, err)
	require.Equal(t, int64(12), res.AsInt())
}

func TestEvaluateIfChoosesBranchByLastForm(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(if true (do 1 2 3 4) (do 5 6))")
	require.NoError(t, err)
	require.Equal(t, int64(4), res.AsInt())
}

func TestEvaluateIfFalsyBranch(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(if false (do 1 2 3 4) (do 5 6))")
	require.NoError(t, err)
	require.Equal(t, int64(6), res.AsInt())
}

func TestEvaluateRecursiveFibonacci(t *testing.T) {
	v := New(Options{})
	src := `
(defun fib (n)
  (if (< n 2)
      (return n))
  (+ (fib (- n 1)) (fib (- n 2))))
(fib 10)
`
	res, err := v.Evaluate(src)
	require.NoError(t, err)
	require.Equal(t, value.TagInt, res.Tag())
	require.Equal(t, int64(55), res.AsInt())
}

func TestEvaluateAddPromotesToFloat(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(+ 1 2.0 3)")
	require.NoError(t, err)
	require.Equal(t, value.TagFloat, res.Tag())
	require.Equal(t, 6.0, res.AsFloat())
}

func TestEvaluateSubtractChained(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(- 1 2 3)")
	require.NoError(t, err)
	require.Equal(t, int64(-4), res.AsInt())
}

func TestEvaluateCompareWithZeroOrOneArgIsVacuouslyTrue(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(< )")
	require.NoError(t, err)
	require.Equal(t, value.TagBool, res.Tag())
	require.True(t, res.AsBool())

	res, err = v.Evaluate("(> 5)")
	require.NoError(t, err)
	require.Equal(t, value.TagBool, res.Tag())
	require.True(t, res.AsBool())
}

func TestEvaluateCompareWithOneNonNumberArgIsWrongType(t *testing.T) {
	v := New(Options{})
	_, err := v.Evaluate(`(< "nope")`)
	require.Error(t, err)
	serr, ok := err.(*value.Error)
	require.True(t, ok)
	require.Equal(t, value.KindWrongType, serr.Kind)
}

func TestEvaluateSubtractWithNoArgsIsWrongArity(t *testing.T) {
	v := New(Options{})
	_, err := v.Evaluate("(-)")
	require.Error(t, err)
	serr, ok := err.(*value.Error)
	require.True(t, ok)
	require.Equal(t, value.KindWrongArity, serr.Kind)
}

func TestEvaluateStrSexpRoundTrips(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate(`(print (str->sexp "(+ 1 2)"))`)
	require.NoError(t, err)
	require.Equal(t, value.TagVoid, res.Tag())

	res, err = v.Evaluate(`(str->sexp "(+ 1 2)")`)
	require.NoError(t, err)
	require.Equal(t, "(+ 1 2)", v.FormatValue(res))
}

func TestEvaluateApplyCallsNativeFunction(t *testing.T) {
	v := New(Options{})
	res, err := v.Evaluate("(apply + (list 1 2 3))")
	require.NoError(t, err)
	require.Equal(t, int64(6), res.AsInt())
}

func TestEvaluateApplyOnNonCallableIsWrongType(t *testing.T) {
	v := New(Options{})
	_, err := v.Evaluate("(apply 1 (list))")
	require.Error(t, err)
	serr, ok := err.(*value.Error)
	require.True(t, ok)
	require.Equal(t, value.KindWrongType, serr.Kind)
}

func TestEvaluateUndefinedSymbolIsSymbolNotFound(t *testing.T) {
	v := New(Options{})
	_, err := v.Evaluate("undefined-name")
	require.Error(t, err)
	serr, ok := err.(*value.Error)
	require.True(t, ok)
	require.Equal(t, value.KindSymbolNotFound, serr.Kind)
}

func TestGCSweepsUnreachableStringAfterRedefine(t *testing.T) {
	v := New(Options{})
	_, err := v.Evaluate(`(def s "hello")`)
	require.NoError(t, err)
	_, err = v.Evaluate(`(def s "world")`)
	require.NoError(t, err)
	beforeGC := v.Stats()

	v.RunGC(nil)

	_, err = v.Evaluate(`(def t "again")`)
	require.NoError(t, err)
	afterReuse := v.Stats()

	require.Equal(t, beforeGC.Strings, afterReuse.Strings)
}

func TestRegisterValueRefusesDuplicate(t *testing.T) {
	v := New(Options{})
	require.NoError(t, v.RegisterValue("host-const", value.Int(1)))
	err := v.RegisterValue("host-const", value.Int(2))
	require.Error(t, err)
	serr, ok := err.(*value.Error)
	require.True(t, ok)
	require.Equal(t, value.KindValueAlreadyDefined, serr.Kind)
}

func TestRegisterFunctionIsCallableFromSource(t *testing.T) {
	v := New(Options{})
	err := v.RegisterFunction("host-double", func(c value.Caller, args []value.Value) (value.Value, error) {
		n, err := ToHost[int64](v, args[0])
		if err != nil {
			return value.Void, err
		}
		return value.Int(n * 2), nil
	})
	require.NoError(t, err)

	res, err := v.Evaluate("(host-double 21)")
	require.NoError(t, err)
	require.Equal(t, int64(42), res.AsInt())
}

func TestFunctionBytecodeDisassemblesIfBranchDeltas(t *testing.T) {
	v := New(Options{})
	_, err := v.Evaluate(`(defun choose (p) (if p (do 1 2 3 4) (do 5 6)))`)
	require.NoError(t, err)

	res, err := v.Evaluate(`(function-bytecode choose)`)
	require.NoError(t, err)
	require.Equal(t, value.TagList, res.Tag())

	list, ok := v.mgr.GetList(res)
	require.True(t, ok)
	require.NotEmpty(t, list.Items)

	// get-local, jump-if, else(4), jump, then(6)
	require.Len(t, list.Items, 13)
	require.Equal(t, "(jump-if 5)", v.FormatValue(list.Items[1]))
	require.Equal(t, "(jump 6)", v.FormatValue(list.Items[6]))
}
