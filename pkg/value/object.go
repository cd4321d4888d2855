package value

import "github.com/wmedrano/spore/pkg/intern"

// StringObject is an owned byte slice backing a TagString Value.
type StringObject struct {
	Bytes []byte
}

// ListObject is an owned sequence of Values backing a TagList Value.
type ListObject struct {
	Items []Value
}

// BytecodeFunctionObject is a compiled function body: a name (for
// disassembly and stack traces), its instruction sequence, and the number
// of arguments it expects.
type BytecodeFunctionObject struct {
	Name         string
	Instructions []Instruction
	ArgCount     int
}

// NativeFunction is a host-implemented function. It is never stored in the
// object manager: it is treated as a borrowed, static-lifetime pointer,
// since the host is expected to keep function records alive for the VM's
// entire life (typically as package-level tables).
//
// Fn receives the VM (through the narrow Caller interface, to avoid an
// import cycle between this package and the package that implements the
// interpreter loop) and the callee's arguments: a copy of the argument
// slots on the interpreter's stack, or, for a macro, the unevaluated tail
// of the form. IsMacro marks functions invoked by the macro
// expander over unevaluated arguments instead of by the interpreter over
// evaluated ones.
type NativeFunction struct {
	Name    string
	IsMacro bool
	Fn      func(c Caller, args []Value) (Value, error)
}

// Caller is the narrow capability surface a NativeFunction implementation
// needs: access to the heap, the interner, the global module, the ability
// to re-enter evaluation (for functions like apply), and logging. The
// concrete implementation lives in the vm package; this interface exists
// here, instead of there, purely to break the import cycle that would
// otherwise result from NativeFunction.Fn needing to name the VM type.
type Caller interface {
	Manager() *Manager
	Module() *Module
	InternID(name string) intern.ID
	ResolveID(id intern.ID) (string, bool)
	// Apply invokes fn (native or bytecode) with args, exactly as the
	// interpreter's Eval instruction would, and returns its result. Native
	// functions like apply use this to call back into the VM.
	Apply(fn Value, args []Value) (Value, error)
	// FormatValue renders v the way the reader's grammar would parse it
	// back (used by print and by string conversions).
	FormatValue(v Value) string
}
