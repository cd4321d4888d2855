package interp

import "github.com/wmedrano/spore/pkg/value"

// Run pushes a fresh entry frame for instructions onto stack and drives
// the dispatch loop until that frame (and every frame it transitively
// calls) has returned, per spec.md 4.7. It returns the value produced by
// the outermost Ret.
func Run(caller value.Caller, stack *Stack, mgr *value.Manager, module *value.Module, instructions []value.Instruction) (value.Value, error) {
	baseDepth := stack.FrameDepth()
	stack.PushFrame(Frame{
		Instructions: instructions,
		StackStart:   uint32(stack.Len()),
		FuncHandle:   value.InvalidHandle,
	})
	return RunFrame(caller, stack, mgr, module, baseDepth)
}

// RunFrame drives the dispatch loop until the frame vector's depth
// returns to baseDepth, assuming at least one frame above that depth has
// already been pushed (typically by Stack.Call dispatching to a
// BytecodeFunction). A host-level Apply uses this to run a freshly-called
// bytecode function to completion rather than merely enqueuing its frame.
func RunFrame(caller value.Caller, stack *Stack, mgr *value.Manager, module *value.Module, baseDepth int) (value.Value, error) {
	result := value.Void
	for stack.FrameDepth() > baseDepth {
		frame, ok := stack.CurrentFrame()
		if !ok {
			break
		}

		var instr value.Instruction
		if int(frame.NextInstruction) >= len(frame.Instructions) {
			instr = value.Ret()
		} else {
			instr = frame.Instructions[frame.NextInstruction]
			frame.NextInstruction++
		}

		switch instr.Op {
		case value.OpPush:
			if err := stack.Push(instr.Operand); err != nil {
				return value.Void, err
			}

		case value.OpGetLocal:
			locals := stack.Local(frame.StackStart)
			if int(instr.N) >= len(locals) {
				return value.Void, value.NewError(value.KindObjectNotFound, "local index %d out of range (%d locals)", instr.N, len(locals))
			}
			if err := stack.Push(locals[instr.N]); err != nil {
				return value.Void, err
			}

		case value.OpDeref:
			v, ok := module.Get(instr.Sym.ID)
			if !ok {
				name, _ := caller.ResolveID(instr.Sym.ID)
				return value.Void, value.NewError(value.KindSymbolNotFound, "symbol not found: %s", name)
			}
			if err := stack.Push(v); err != nil {
				return value.Void, err
			}

		case value.OpJumpIf:
			v, err := stack.Pop()
			if err != nil {
				return value.Void, err
			}
			if v.Truthy() {
				frame.NextInstruction = uint32(int32(frame.NextInstruction) + instr.Delta)
			}

		case value.OpJump:
			frame.NextInstruction = uint32(int32(frame.NextInstruction) + instr.Delta)

		case value.OpEval:
			if err := stack.Call(caller, mgr, instr.N); err != nil {
				return value.Void, err
			}

		case value.OpRet:
			res, err := stack.PopFrame()
			if err != nil {
				return value.Void, err
			}
			result = res
			if stack.FrameDepth() > baseDepth {
				// The returning frame was entered through Eval, so its
				// callee still sits just below the truncated locals; the
				// result replaces it, exactly as a native call's does.
				if _, err := stack.Pop(); err != nil {
					return value.Void, err
				}
				if err := stack.Push(res); err != nil {
					return value.Void, err
				}
			}
		}
	}
	return result, nil
}
