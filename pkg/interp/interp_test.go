package interp

import (
	"testing"

	"github.com/wmedrano/spore/pkg/intern"
	"github.com/wmedrano/spore/pkg/value"
)

// testCaller is a minimal value.Caller good enough to drive the
// interpreter loop in isolation, without pulling in the vm package.
type testCaller struct {
	in     *intern.Interner
	mgr    *value.Manager
	module *value.Module
	stack  *Stack
}

func newTestCaller() *testCaller {
	return &testCaller{
		in:     intern.New(),
		mgr:    value.NewManager(),
		module: value.NewModule(""),
		stack:  NewStack(256),
	}
}

func (c *testCaller) Manager() *value.Manager               { return c.mgr }
func (c *testCaller) Module() *value.Module                 { return c.module }
func (c *testCaller) InternID(name string) intern.ID        { return c.in.Intern(name) }
func (c *testCaller) ResolveID(id intern.ID) (string, bool) { return c.in.Resolve(id) }
func (c *testCaller) FormatValue(v value.Value) string      { return "" }
func (c *testCaller) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	if err := c.stack.Push(fn); err != nil {
		return value.Void, err
	}
	if err := c.stack.PushMany(args); err != nil {
		return value.Void, err
	}
	if err := c.stack.Call(c, c.mgr, uint32(1+len(args))); err != nil {
		return value.Void, err
	}
	return c.stack.Pop()
}

func (c *testCaller) defineAdd() intern.ID {
	id := c.in.Intern("+")
	nf := &value.NativeFunction{Name: "+", Fn: func(caller value.Caller, args []value.Value) (value.Value, error) {
		var sum int64
		for _, a := range args {
			sum += a.AsInt()
		}
		return value.Int(sum), nil
	}}
	c.module.Define(id, value.NativeFunctionValue(nf))
	return id
}

func TestRunPushReturnsLiteral(t *testing.T) {
	c := newTestCaller()
	result, err := Run(c, c.stack, c.mgr, c.module, []value.Instruction{value.Push(value.Int(42))})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.Tag() != value.TagInt || result.AsInt() != 42 {
		t.Fatalf("got %v", result)
	}
}

func TestRunReturnsVoidForEmptyInstructions(t *testing.T) {
	c := newTestCaller()
	result, err := Run(c, c.stack, c.mgr, c.module, nil)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.Tag() != value.TagVoid {
		t.Fatalf("got %v", result)
	}
}

func TestRunDerefMissingSymbolErrors(t *testing.T) {
	c := newTestCaller()
	sym := value.Symbol{ID: c.in.Intern("undefined-name")}
	_, err := Run(c, c.stack, c.mgr, c.module, []value.Instruction{value.Deref(sym)})
	requireKind(t, err, value.KindSymbolNotFound)
}

func TestRunDerefFindsGlobal(t *testing.T) {
	c := newTestCaller()
	id := c.in.Intern("x")
	c.module.Define(id, value.Int(7))
	result, err := Run(c, c.stack, c.mgr, c.module, []value.Instruction{value.Deref(value.Symbol{ID: id})})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.AsInt() != 7 {
		t.Fatalf("got %v", result)
	}
}

func TestRunNativeCallUnifiedConvention(t *testing.T) {
	c := newTestCaller()
	addID := c.defineAdd()
	instrs := []value.Instruction{
		value.Deref(value.Symbol{ID: addID}),
		value.Push(value.Int(2)),
		value.Push(value.Int(3)),
		value.Eval(3),
	}
	result, err := Run(c, c.stack, c.mgr, c.module, instrs)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.AsInt() != 5 {
		t.Fatalf("got %v", result)
	}
	if c.stack.Len() != 0 {
		t.Fatalf("expected value stack to be empty after Ret, got %d", c.stack.Len())
	}
}

func TestRunBytecodeCallWithLocals(t *testing.T) {
	c := newTestCaller()
	// fn(x, y) = x  -- selects the first local, ignoring the second.
	fn := c.mgr.NewBytecodeFunction(value.BytecodeFunctionObject{
		Name:         "first",
		Instructions: []value.Instruction{value.GetLocal(0), value.Ret()},
		ArgCount:     2,
	})
	instrs := []value.Instruction{
		value.Push(fn),
		value.Push(value.Int(10)),
		value.Push(value.Int(20)),
		value.Eval(3),
	}
	result, err := Run(c, c.stack, c.mgr, c.module, instrs)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.AsInt() != 10 {
		t.Fatalf("got %v", result)
	}
}

func TestRunWrongArityErrors(t *testing.T) {
	c := newTestCaller()
	fn := c.mgr.NewBytecodeFunction(value.BytecodeFunctionObject{ArgCount: 2})
	instrs := []value.Instruction{value.Push(fn), value.Push(value.Int(1)), value.Eval(2)}
	_, err := Run(c, c.stack, c.mgr, c.module, instrs)
	requireKind(t, err, value.KindWrongArity)
}

func TestRunCallingNonFunctionErrors(t *testing.T) {
	c := newTestCaller()
	instrs := []value.Instruction{value.Push(value.Int(1)), value.Eval(1)}
	_, err := Run(c, c.stack, c.mgr, c.module, instrs)
	requireKind(t, err, value.KindExpectedFunction)
}

func TestRunJumpIfTakesThenBranchWhenTruthy(t *testing.T) {
	c := newTestCaller()
	// if true then 4 else 6, matching the JumpIf/Jump back-patch shape the
	// compiler produces: pred, jump-if, else, jump, then.
	instrs := []value.Instruction{
		value.Push(value.Bool(true)), // 0
		value.JumpIf(2),              // 1: skip else(1)+jump(1) -> land on then at index 4
		value.Push(value.Int(6)),     // 2 (else)
		value.Jump(1),                // 3: skip then(1)
		value.Push(value.Int(4)),     // 4 (then)
	}
	result, err := Run(c, c.stack, c.mgr, c.module, instrs)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.AsInt() != 4 {
		t.Fatalf("got %v", result)
	}
}

func TestRunJumpIfFallsThroughToElseWhenFalsy(t *testing.T) {
	c := newTestCaller()
	instrs := []value.Instruction{
		value.Push(value.Bool(false)),
		value.JumpIf(2),
		value.Push(value.Int(6)),
		value.Jump(1),
		value.Push(value.Int(4)),
	}
	result, err := Run(c, c.stack, c.mgr, c.module, instrs)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.AsInt() != 6 {
		t.Fatalf("got %v", result)
	}
}

func TestRunRecursiveBytecodeCall(t *testing.T) {
	c := newTestCaller()
	addID := c.defineAdd()
	ltID := c.in.Intern("<")
	ltNF := &value.NativeFunction{Name: "<", Fn: func(caller value.Caller, args []value.Value) (value.Value, error) {
		return value.Bool(args[0].AsInt() < args[1].AsInt()), nil
	}}
	c.module.Define(ltID, value.NativeFunctionValue(ltNF))

	subOneID := c.in.Intern("sub1")
	c.module.Define(subOneID, value.NativeFunctionValue(&value.NativeFunction{Name: "sub1", Fn: func(caller value.Caller, args []value.Value) (value.Value, error) {
		return value.Int(args[0].AsInt() - 1), nil
	}}))
	subTwoID := c.in.Intern("sub2")
	c.module.Define(subTwoID, value.NativeFunctionValue(&value.NativeFunction{Name: "sub2", Fn: func(caller value.Caller, args []value.Value) (value.Value, error) {
		return value.Int(args[0].AsInt() - 2), nil
	}}))

	// fib(n) = if (< n 2) n else (+ (fib (sub1 n)) (fib (sub2 n))).
	// fib is Deref'd from the module, so it may reference itself even
	// though the function object is only bound to the name after it is
	// built - the lookup happens lazily at call time, well after Define.
	fibID := c.in.Intern("fib")
	body := []value.Instruction{
		value.Deref(value.Symbol{ID: ltID}),
		value.GetLocal(0),
		value.Push(value.Int(2)),
		value.Eval(3),
		value.JumpIf(13), // index 4 -> skip the 12-instruction else block and the Jump right after it
		// else: recurse
		value.Deref(value.Symbol{ID: addID}),
		value.Deref(value.Symbol{ID: fibID}),
		value.Deref(value.Symbol{ID: subOneID}),
		value.GetLocal(0),
		value.Eval(2),
		value.Eval(2),
		value.Deref(value.Symbol{ID: fibID}),
		value.Deref(value.Symbol{ID: subTwoID}),
		value.GetLocal(0),
		value.Eval(2),
		value.Eval(2),
		value.Eval(3),
		value.Jump(1), // index 17 -> skip the 1-instruction then block
		// then: base case
		value.GetLocal(0),
	}
	fib := c.mgr.NewBytecodeFunction(value.BytecodeFunctionObject{Name: "fib", Instructions: body, ArgCount: 1})
	c.module.Define(fibID, fib)

	instrs := []value.Instruction{
		value.Deref(value.Symbol{ID: fibID}),
		value.Push(value.Int(10)),
		value.Eval(2),
	}
	result, err := Run(c, c.stack, c.mgr, c.module, instrs)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if result.AsInt() != 55 {
		t.Fatalf("got %v", result)
	}
}

func requireKind(t *testing.T, err error, kind value.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %v, got nil", kind)
	}
	serr, ok := err.(*value.Error)
	if !ok {
		t.Fatalf("expected *value.Error, got %T", err)
	}
	if serr.Kind != kind {
		t.Fatalf("got kind %v, want %v", serr.Kind, kind)
	}
}
