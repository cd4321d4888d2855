// Package interp implements the stack-based interpreter: the Stack (value
// buffer plus call frames) and the instruction-dispatch loop that runs
// compiled bytecode against it.
package interp

import "github.com/wmedrano/spore/pkg/value"

// Frame is one entry in the call stack. StackStart marks the base of this
// call's locals: the address of the first argument slot, immediately above
// the callee slot. FuncHandle is the handle of the BytecodeFunction
// object this frame is executing, so the collector can root it while the
// call is suspended; it is value.InvalidHandle for the top-level entry
// frame and for the synthetic frames pushed around a native call.
type Frame struct {
	Instructions    []value.Instruction
	StackStart      uint32
	NextInstruction uint32
	FuncHandle      value.Handle
}

// Stack is a pre-allocated value buffer plus a growable frame vector, per
// spec.md 4.3.
type Stack struct {
	values   []value.Value
	capacity int
	frames   []Frame
	arena    value.Arena
}

// NewStack returns an empty Stack whose value buffer holds at most
// capacity items before further pushes report stack-overflow, backed by a
// NoopArena.
func NewStack(capacity int) *Stack {
	return NewStackWithArena(capacity, value.NoopArena{})
}

// NewStackWithArena is like NewStack but reports its frame-vector growth
// to arena, for hosts that want to observe or cap frame allocation.
func NewStackWithArena(capacity int, arena value.Arena) *Stack {
	return &Stack{values: make([]value.Value, 0, capacity), capacity: capacity, arena: arena}
}

// Push appends v to the value buffer, or reports stack-overflow if the
// buffer is already at capacity.
func (s *Stack) Push(v value.Value) error {
	if len(s.values) >= s.capacity {
		return value.NewError(value.KindStackOverflow, "value stack exceeded capacity %d", s.capacity)
	}
	s.values = append(s.values, v)
	return nil
}

// PushMany pushes each of vs in order.
func (s *Stack) PushMany(vs []value.Value) error {
	for _, v := range vs {
		if err := s.Push(v); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes and returns the top of the value buffer, or reports
// stack-frame-underflow if it is empty.
func (s *Stack) Pop() (value.Value, error) {
	if len(s.values) == 0 {
		return value.Void, value.NewError(value.KindStackFrameUnderflow, "pop from an empty value stack")
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Top returns the top of the value buffer without removing it.
func (s *Stack) Top() (value.Value, bool) {
	if len(s.values) == 0 {
		return value.Void, false
	}
	return s.values[len(s.values)-1], true
}

// Len reports how many values are currently on the value buffer.
func (s *Stack) Len() int { return len(s.values) }

// Values returns the live portion of the value buffer, for use as GC
// roots. Callers must not retain the slice across a subsequent Push/Pop.
func (s *Stack) Values() []value.Value { return s.values }

// Local returns the slice of the value buffer at or above stackStart: the
// current frame's locals (callee excluded, since stackStart addresses the
// first argument slot for a called frame).
func (s *Stack) Local(stackStart uint32) []value.Value {
	return s.values[stackStart:]
}

// PushFrame pushes f onto the frame vector.
func (s *Stack) PushFrame(f Frame) {
	s.arena.Alloc(1)
	s.frames = append(s.frames, f)
}

// PopFrame pops the current frame and returns its result: the value at
// the top of the value buffer if one exists at or above the frame's
// stack_start, else Void. The value buffer is truncated to stack_start
// before returning.
func (s *Stack) PopFrame() (value.Value, error) {
	if len(s.frames) == 0 {
		return value.Void, value.NewError(value.KindStackFrameUnderflow, "pop frame from an empty frame stack")
	}
	s.arena.Free(1)
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]

	result := value.Void
	if uint32(len(s.values)) > f.StackStart {
		result = s.values[len(s.values)-1]
	}
	s.values = s.values[:f.StackStart]
	return result, nil
}

// CurrentFrame returns a pointer to the top frame, or false if the frame
// vector is empty. The pointer is valid only until the next PushFrame.
func (s *Stack) CurrentFrame() (*Frame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return &s.frames[len(s.frames)-1], true
}

// FrameDepth reports how many frames are currently pushed.
func (s *Stack) FrameDepth() int { return len(s.frames) }

// FrameFunctionHandles returns, for each currently-suspended frame, the
// handle of the BytecodeFunction it is executing (value.InvalidHandle for
// entry/native-call frames), for use as GC roots.
func (s *Stack) FrameFunctionHandles() []value.Handle {
	handles := make([]value.Handle, len(s.frames))
	for i, f := range s.frames {
		handles[i] = f.FuncHandle
	}
	return handles
}

// Reset clears both the value buffer and the frame vector, as VM.Evaluate
// does before each top-level form.
func (s *Stack) Reset() {
	s.values = s.values[:0]
	s.frames = s.frames[:0]
}

// Call implements the Eval instruction's callee dispatch: the top n items
// of the value buffer are callee+args. A NativeFunction is invoked
// synchronously through a synthetic frame; a BytecodeFunction instead
// pushes a real frame for the interpreter loop to run next.
func (s *Stack) Call(caller value.Caller, mgr *value.Manager, n uint32) error {
	if n == 0 {
		return value.NewError(value.KindStackFrameUnderflow, "eval with no callee slot")
	}
	if int(n) > len(s.values) {
		return value.NewError(value.KindStackFrameUnderflow, "eval: value stack underflow")
	}
	base := len(s.values) - int(n)
	argBase := uint32(base + 1)
	callee := s.values[base]

	switch callee.Tag() {
	case value.TagNativeFunction:
		nf := callee.AsNativeFunction()
		args := append([]value.Value(nil), s.values[argBase:]...)
		s.PushFrame(Frame{StackStart: argBase, FuncHandle: value.InvalidHandle})
		result, err := nf.Fn(caller, args)
		s.frames = s.frames[:len(s.frames)-1]
		s.arena.Free(1)
		if err != nil {
			if serr, ok := err.(*value.Error); ok {
				return serr.WithFrame("<native " + nf.Name + ">")
			}
			return err
		}
		s.values = s.values[:base]
		return s.Push(result)

	case value.TagBytecodeFunction:
		obj, ok := mgr.GetBytecodeFunction(callee)
		if !ok {
			return value.NewError(value.KindObjectNotFound, "bytecode function handle is stale")
		}
		argCount := int(n) - 1
		if obj.ArgCount != argCount {
			return value.NewError(value.KindWrongArity, "expected %d arguments, got %d", obj.ArgCount, argCount)
		}
		s.PushFrame(Frame{
			Instructions: obj.Instructions,
			StackStart:   argBase,
			FuncHandle:   callee.AsHandle(),
		})
		return nil

	default:
		return value.NewError(value.KindExpectedFunction, "cannot call a value of type %s", callee.Tag())
	}
}
