package compiler

import (
	"github.com/wmedrano/spore/pkg/intern"
	"github.com/wmedrano/spore/pkg/value"
)

// specialForms are the interned ids of the four structural forms the
// compiler recognizes directly; they are compiled in from spec.md 4.6 and
// cannot be rebound to ordinary functions the way def/defun/when (which
// are merely macros) can.
type specialForms struct {
	define   intern.ID
	function intern.ID
	if_      intern.ID
	return_  intern.ID
}

// Compiler lowers one macro-expanded expression into a flat instruction
// sequence.
type Compiler struct {
	interner *intern.Interner
	mgr      *value.Manager
	forms    specialForms
}

// New returns a Compiler using interner to resolve the fixed set of
// special-form names once, and mgr to allocate the BytecodeFunction
// objects that `function` forms compile into.
func New(interner *intern.Interner, mgr *value.Manager) *Compiler {
	return &Compiler{
		interner: interner,
		mgr:      mgr,
		forms: specialForms{
			define:   interner.Intern("%define"),
			function: interner.Intern("function"),
			if_:      interner.Intern("if"),
			return_:  interner.Intern("return"),
		},
	}
}

// scope is the compiler's mutable state for a single function body (or the
// top level, which is just a function with no parameters). Locals never
// leak across a `function` boundary: compiling a nested function starts a
// brand new scope with only that function's own parameters.
type scope struct {
	instructions []value.Instruction
	locals       []intern.ID // index == local slot
	defineName   string      // name of the %define currently in progress, if any
}

func (s *scope) emit(instr value.Instruction) int {
	s.instructions = append(s.instructions, instr)
	return len(s.instructions) - 1
}

// Compile lowers one expanded expression into an instruction sequence
// appended to a fresh top-level scope.
func (c *Compiler) Compile(expr value.Value) ([]value.Instruction, error) {
	s := &scope{}
	if err := c.compileExpr(s, expr); err != nil {
		return nil, err
	}
	return s.instructions, nil
}

func (c *Compiler) compileExpr(s *scope, v value.Value) error {
	switch v.Tag() {
	case value.TagSymbol:
		return c.compileSymbol(s, v.AsSymbol())
	case value.TagList:
		return c.compileList(s, v)
	default:
		s.emit(value.Push(v))
		return nil
	}
}

func (c *Compiler) compileSymbol(s *scope, sym value.Symbol) error {
	if sym.Quotes > 0 {
		s.emit(value.Push(value.SymbolValue(sym.StripOneQuote())))
		return nil
	}
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i] == sym.ID {
			s.emit(value.GetLocal(uint32(i)))
			return nil
		}
	}
	s.emit(value.Deref(sym))
	return nil
}

func (c *Compiler) compileList(s *scope, v value.Value) error {
	list, ok := c.mgr.GetList(v)
	if !ok {
		return value.NewError(value.KindObjectNotFound, "stale list handle during compilation")
	}
	if len(list.Items) == 0 {
		return value.NewError(value.KindUnexpectedEmptyExpression, "cannot compile an empty expression")
	}

	if head := list.Items[0]; head.Tag() == value.TagSymbol && head.AsSymbol().Quotes == 0 {
		switch head.AsSymbol().ID {
		case c.forms.function:
			return c.compileFunction(s, list.Items[1:])
		case c.forms.define:
			return c.compileDefine(s, list.Items[1:])
		case c.forms.if_:
			return c.compileIf(s, list.Items[1:])
		case c.forms.return_:
			return c.compileReturn(s, list.Items[1:])
		}
	}

	for _, item := range list.Items {
		if err := c.compileExpr(s, item); err != nil {
			return err
		}
	}
	s.emit(value.Eval(uint32(len(list.Items))))
	return nil
}

// compileFunction handles (function (params...) body...). It starts a
// fresh scope so the inner body's locals are exactly its own parameters -
// nothing from the enclosing scope is visible, matching spec.md's "no
// closures" design note.
func (c *Compiler) compileFunction(s *scope, rest []value.Value) error {
	if len(rest) < 1 {
		return value.NewError(value.KindBadFunction, "function requires a parameter list")
	}
	paramsVal := rest[0]
	if paramsVal.Tag() != value.TagList {
		return value.NewError(value.KindBadFunction, "function's parameter list must be a list")
	}
	paramsList, ok := c.mgr.GetList(paramsVal)
	if !ok {
		return value.NewError(value.KindObjectNotFound, "stale parameter list handle")
	}
	params := make([]intern.ID, 0, len(paramsList.Items))
	for _, p := range paramsList.Items {
		if p.Tag() != value.TagSymbol || p.AsSymbol().Quotes != 0 {
			return value.NewError(value.KindBadFunction, "function parameters must be unquoted symbols")
		}
		params = append(params, p.AsSymbol().ID)
	}

	inner := &scope{locals: params, defineName: s.defineName}
	for _, bodyExpr := range rest[1:] {
		if err := c.compileExpr(inner, bodyExpr); err != nil {
			return err
		}
	}

	fnVal := c.mgr.NewBytecodeFunction(value.BytecodeFunctionObject{
		Name:         s.defineName,
		Instructions: inner.instructions,
		ArgCount:     len(params),
	})
	s.emit(value.Push(fnVal))
	return nil
}

// compileDefine handles (%define name-sym expr): it compiles to a call to
// the %define native function, emitting Deref/Push/<expr>/Eval 3 exactly
// as spec.md 4.6 prescribes, and sets the define-context used to name any
// `function` compiled while compiling expr.
func (c *Compiler) compileDefine(s *scope, rest []value.Value) error {
	if len(rest) != 2 {
		return value.NewError(value.KindBadDefine, "%%define requires exactly 2 arguments, got %d", len(rest))
	}
	nameVal := rest[0]
	if nameVal.Tag() != value.TagSymbol {
		return value.NewError(value.KindBadDefine, "%%define's first argument must be a symbol")
	}
	sym := nameVal.AsSymbol()
	if sym.Quotes > 1 {
		return value.NewError(value.KindBadDefine, "%%define's name must not be quoted more than once")
	}

	savedDefine := s.defineName
	if name, ok := c.interner.Resolve(sym.ID); ok {
		s.defineName = name
	}

	s.emit(value.Deref(value.Symbol{Quotes: 0, ID: c.forms.define}))
	s.emit(value.Push(value.SymbolValue(value.Symbol{Quotes: 0, ID: sym.ID})))
	if err := c.compileExpr(s, rest[1]); err != nil {
		s.defineName = savedDefine
		return err
	}
	s.emit(value.Eval(3))
	s.defineName = savedDefine
	return nil
}

// compileIf handles (if pred then else?), back-patching the JumpIf/Jump
// placeholders once both branches' lengths are known.
func (c *Compiler) compileIf(s *scope, rest []value.Value) error {
	if len(rest) < 2 || len(rest) > 3 {
		return value.NewError(value.KindBadIf, "if requires (pred then [else]), got %d arguments", len(rest))
	}

	if err := c.compileExpr(s, rest[0]); err != nil {
		return err
	}
	jumpIfIdx := s.emit(value.JumpIf(0))

	if len(rest) == 3 {
		if err := c.compileExpr(s, rest[2]); err != nil {
			return err
		}
	} else {
		s.emit(value.Push(value.Void))
	}
	jumpIdx := s.emit(value.Jump(0))
	s.instructions[jumpIfIdx].Delta = int32(jumpIdx - jumpIfIdx)

	thenStart := len(s.instructions)
	if err := c.compileExpr(s, rest[1]); err != nil {
		return err
	}
	s.instructions[jumpIdx].Delta = int32(len(s.instructions) - thenStart)
	return nil
}

// compileReturn handles (return [expr]).
func (c *Compiler) compileReturn(s *scope, rest []value.Value) error {
	switch len(rest) {
	case 0:
		s.emit(value.Push(value.Void))
	case 1:
		if err := c.compileExpr(s, rest[0]); err != nil {
			return err
		}
	default:
		return value.NewError(value.KindBadArg, "return takes at most 1 argument, got %d", len(rest))
	}
	s.emit(value.Ret())
	return nil
}
