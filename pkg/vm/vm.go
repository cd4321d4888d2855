// Package vm implements Spore's embeddable virtual machine.
//
// The VM is the outermost stage in the evaluation pipeline:
//
//	Source Code -> Reader -> Expression Value -> Macro Expander -> Compiler -> Bytecode -> Interpreter -> Result
//
// It owns the interner, object manager, global module, and value stack,
// and wires a small set of required built-ins (arithmetic, list/string
// primitives, `apply`, `function-bytecode` introspection) plus the three
// surface macros (`def`, `defun`, `when`) into the global module at
// construction time. `if`, `return`, and `function` are not module entries
// at all - the compiler recognizes them structurally, per spec.md 4.6.
// `%define` is recognized structurally too, but compiles to a call of the
// `%define` native function bound in the module.
//
// A VM is reusable: Evaluate resets the value stack before each top-level
// form, but the global module and object manager persist across calls.
package vm

import (
	"log"
	"os"

	"github.com/wmedrano/spore/pkg/compiler"
	"github.com/wmedrano/spore/pkg/intern"
	"github.com/wmedrano/spore/pkg/interp"
	"github.com/wmedrano/spore/pkg/reader"
	"github.com/wmedrano/spore/pkg/value"
)

// Options configures a VM at construction time.
type Options struct {
	// Log enables single-line diagnostics for wrong-type and
	// symbol-not-found errors, per spec.md 7.
	Log bool
	// StackCapacity bounds the value stack's size; 0 defaults to 4096.
	StackCapacity int
	// Arena is the allocation-accounting seam described in SPEC_FULL.md
	// 10.3; nil defaults to value.NoopArena{}.
	Arena value.Arena
}

// VM owns the interner, object manager, global module, and value stack
// for one independent evaluation context. It implements value.Caller so
// that native functions and the macro expander can call back into it.
type VM struct {
	interner *intern.Interner
	mgr      *value.Manager
	module   *value.Module
	stack    *interp.Stack
	compiler *compiler.Compiler
	logger   *log.Logger
}

// New returns a VM with all required built-ins and macros registered.
func New(opts Options) *VM {
	if opts.StackCapacity == 0 {
		opts.StackCapacity = 4096
	}
	if opts.Arena == nil {
		opts.Arena = value.NoopArena{}
	}

	v := &VM{
		interner: intern.New(),
		mgr:      value.NewManagerWithArena(opts.Arena),
		module:   value.NewModule(""),
		stack:    interp.NewStackWithArena(opts.StackCapacity, opts.Arena),
	}
	v.compiler = compiler.New(v.interner, v.mgr)
	if opts.Log {
		v.logger = log.New(os.Stderr, "spore: ", 0)
	}

	v.registerBuiltins()
	for _, m := range compiler.Macros() {
		v.module.Define(v.interner.Intern(m.Name), value.NativeFunctionValue(m))
	}
	return v
}

// Manager implements value.Caller.
func (v *VM) Manager() *value.Manager { return v.mgr }

// Module implements value.Caller.
func (v *VM) Module() *value.Module { return v.module }

// InternID implements value.Caller.
func (v *VM) InternID(name string) intern.ID { return v.interner.Intern(name) }

// ResolveID implements value.Caller.
func (v *VM) ResolveID(id intern.ID) (string, bool) { return v.interner.Resolve(id) }

// Apply invokes fn (native or bytecode) with args and returns its result,
// running a bytecode callee to completion rather than merely enqueuing
// its frame, since a native function using Apply (e.g. `apply`) always
// wants the final value synchronously.
func (v *VM) Apply(fn value.Value, args []value.Value) (value.Value, error) {
	switch fn.Tag() {
	case value.TagNativeFunction:
		if err := v.stack.Push(fn); err != nil {
			return value.Void, err
		}
		if err := v.stack.PushMany(args); err != nil {
			return value.Void, err
		}
		if err := v.stack.Call(v, v.mgr, uint32(1+len(args))); err != nil {
			return value.Void, err
		}
		return v.stack.Pop()

	case value.TagBytecodeFunction:
		baseDepth := v.stack.FrameDepth()
		if err := v.stack.Push(fn); err != nil {
			return value.Void, err
		}
		if err := v.stack.PushMany(args); err != nil {
			return value.Void, err
		}
		if err := v.stack.Call(v, v.mgr, uint32(1+len(args))); err != nil {
			return value.Void, err
		}
		return interp.RunFrame(v, v.stack, v.mgr, v.module, baseDepth)

	default:
		return value.Void, value.NewError(value.KindWrongType, "apply requires a callable value, got %s", fn.Tag())
	}
}

// Evaluate reads, macro-expands, compiles, and runs every top-level form
// in source, returning the value produced by the last one (Void if
// source contains none), per spec.md 4.8.
func (v *VM) Evaluate(source string) (value.Value, error) {
	r := reader.New(source, v.mgr, v.interner)
	result := value.Void
	for {
		expr, ok, err := r.Next()
		if err != nil {
			return value.Void, err
		}
		if !ok {
			break
		}

		expanded, err := compiler.Expand(v, expr)
		if err != nil {
			return value.Void, err
		}
		instrs, err := v.compiler.Compile(expanded)
		if err != nil {
			return value.Void, err
		}

		v.stack.Reset()
		res, err := interp.Run(v, v.stack, v.mgr, v.module, instrs)
		if err != nil {
			v.logError(err)
			return value.Void, err
		}
		result = res
	}
	return result, nil
}

// CompileForms reads and macro-expands every top-level form in source and
// compiles each independently, returning one instruction sequence per form
// without running any of them. Used by the `disasm` CLI subcommand so that
// disassembly reflects exactly how Evaluate would compile the same source,
// including def/defun/when expansion.
func (v *VM) CompileForms(source string) ([][]value.Instruction, error) {
	r := reader.New(source, v.mgr, v.interner)
	var forms [][]value.Instruction
	for {
		expr, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		expanded, err := compiler.Expand(v, expr)
		if err != nil {
			return nil, err
		}
		instrs, err := v.compiler.Compile(expanded)
		if err != nil {
			return nil, err
		}
		forms = append(forms, instrs)
	}
	return forms, nil
}

// RunGC performs one stop-the-world mark-and-sweep collection, rooting
// extraRoots in addition to the module, the current value stack, and
// every suspended frame's executing function.
func (v *VM) RunGC(extraRoots []value.Value) {
	v.mgr.RunGC(value.Roots{
		External:       extraRoots,
		Stack:          v.stack.Values(),
		FrameFunctions: v.stack.FrameFunctionHandles(),
		Module:         v.module.Values(),
	})
}

// RegisterValue binds name to val in the global module, refusing if name
// is already bound (spec.md 6, Module::register_value).
func (v *VM) RegisterValue(name string, val value.Value) error {
	return v.module.Register(v.interner.Intern(name), val)
}

// RegisterFunction binds a host-implemented function under name, refusing
// if name is already bound (spec.md 6, Module::register_function).
func (v *VM) RegisterFunction(name string, fn func(c value.Caller, args []value.Value) (value.Value, error)) error {
	return v.RegisterValue(name, value.NativeFunctionValue(&value.NativeFunction{Name: name, Fn: fn}))
}

// Stats reports the object manager's current arena sizes.
func (v *VM) Stats() value.Stats { return v.mgr.Stats() }

func (v *VM) logError(err error) {
	if v.logger == nil {
		return
	}
	serr, ok := err.(*value.Error)
	if !ok {
		return
	}
	switch serr.Kind {
	case value.KindWrongType:
		v.logger.Printf("wrong-type: %s", serr.Message)
	case value.KindSymbolNotFound:
		v.logger.Printf("symbol-not-found: %s", serr.Message)
	}
}
