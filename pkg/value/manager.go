package value

// color tracks, per slot, which GC generation last proved the slot
// reachable. A slot is live either because it was marked during the most
// recent sweep's reachable color, or because it is brand new and hasn't
// had a chance to be marked yet (which is exactly "unreachable" per
// spec.md 4.2 until the next run_gc proves otherwise).
type color uint8

const (
	colorTombstone color = iota
	colorA
	colorB
)

// arena is one of the Manager's three independent per-kind heaps: a dense
// vector of objects, parallel vectors of generation and color, and a
// freelist of tombstoned slots available for reuse. It is generic purely
// to avoid writing the same put/get/free bookkeeping three times (for
// StringObject, ListObject, BytecodeFunctionObject) - every kind sweeps
// independently, exactly as spec.md 4.2 describes.
type arena[T any] struct {
	objects     []T
	generations []uint8
	colors      []color
	freelist    []uint32
}

func newArena[T any]() *arena[T] {
	return &arena[T]{}
}

// put stores v, reusing a tombstoned slot from the freelist if one is
// available, and returns a handle to it. A reused slot keeps its
// already-advanced generation; a fresh slot starts at generation 0. Either
// way the slot's color is set to notReachable, the color the very next
// run_gc treats as unreachable once it has flipped, so the slot must be
// marked by that run_gc call to survive its sweep.
func (a *arena[T]) put(v T, notReachable color) Handle {
	if n := len(a.freelist); n > 0 {
		idx := a.freelist[n-1]
		a.freelist = a.freelist[:n-1]
		a.objects[idx] = v
		a.colors[idx] = notReachable
		return Handle{Index: idx, Generation: a.generations[idx]}
	}
	idx := uint32(len(a.objects))
	a.objects = append(a.objects, v)
	a.generations = append(a.generations, 0)
	a.colors = append(a.colors, notReachable)
	return Handle{Index: idx, Generation: 0}
}

// get returns a pointer to the object h addresses, iff h's generation
// matches the slot's current generation and the slot is not tombstoned.
func (a *arena[T]) get(h Handle) (*T, bool) {
	if !h.IsValid() || int(h.Index) >= len(a.objects) {
		return nil, false
	}
	if a.generations[h.Index] != h.Generation {
		return nil, false
	}
	if a.colors[h.Index] == colorTombstone {
		return nil, false
	}
	return &a.objects[h.Index], true
}

// mark sets h's slot color to reachable and reports whether this call
// changed the color (false means the slot was already marked this GC
// cycle, or the handle is stale and nothing happened). Callers use the
// return value to decide whether to recurse into the object's children -
// that's what keeps cyclic or repeated references from being traced twice.
func (a *arena[T]) mark(h Handle, reachable color) bool {
	if !h.IsValid() || int(h.Index) >= len(a.objects) {
		return false // stale handle: no-op, not an error
	}
	if a.generations[h.Index] != h.Generation {
		return false
	}
	if a.colors[h.Index] == colorTombstone {
		return false
	}
	if a.colors[h.Index] == reachable {
		return false
	}
	a.colors[h.Index] = reachable
	return true
}

// sweep destroys every slot whose color is neither the current reachable
// color nor already tombstoned, bumping its generation (mod 256) and
// returning its index to the freelist. destroy(obj) lets the caller release
// any resources the object itself doesn't own via Go's GC (there are none
// here, since Go's runtime already reclaims the owned []byte/[]Value/etc,
// but the hook keeps the shape spec.md 4.2 describes explicit).
func (a *arena[T]) sweep(reachable color, destroy func(*T)) {
	var zero T
	for idx := range a.objects {
		if a.colors[idx] == colorTombstone || a.colors[idx] == reachable {
			continue
		}
		if destroy != nil {
			destroy(&a.objects[idx])
		}
		a.objects[idx] = zero
		a.colors[idx] = colorTombstone
		a.generations[idx]++ // wraps mod 256 via uint8 overflow
		a.freelist = append(a.freelist, uint32(idx))
	}
}

// Arena is the pluggable allocation-accounting seam that stands in for
// spec.md 5's "single allocator supplied at init". Go does not expose a
// pluggable heap allocator the way a systems language would, so this
// narrows the contract to allocation/free counting hooks a host can
// observe or cap; the objects themselves are always backed by Go's
// runtime heap regardless of which Arena is supplied.
type Arena interface {
	Alloc(n int)
	Free(n int)
}

// NoopArena is the default Arena: it does not count or limit anything.
type NoopArena struct{}

// Alloc implements Arena.
func (NoopArena) Alloc(n int) {}

// Free implements Arena.
func (NoopArena) Free(n int) {}

// Manager is the object manager: three independent arenas (string, list,
// bytecode-function) plus the two-color mark-and-sweep collector that
// sweeps them. Every heap-backed Value variant (String, List,
// BytecodeFunction) is a Handle into exactly one of these arenas.
type Manager struct {
	strings   *arena[StringObject]
	lists     *arena[ListObject]
	functions *arena[BytecodeFunctionObject]

	reachable color // the color that currently means "proven live"
	arena     Arena
}

// NewManager returns an empty Manager backed by a NoopArena.
func NewManager() *Manager {
	return NewManagerWithArena(NoopArena{})
}

// NewManagerWithArena returns an empty Manager whose allocations and frees
// are reported to a. Used by tests that want to observe or cap the
// object manager's allocation traffic.
func NewManagerWithArena(a Arena) *Manager {
	return &Manager{
		strings:   newArena[StringObject](),
		lists:     newArena[ListObject](),
		functions: newArena[BytecodeFunctionObject](),
		reachable: colorA,
		arena:     a,
	}
}

func (m *Manager) notReachable() color {
	if m.reachable == colorA {
		return colorB
	}
	return colorA
}

// NewString allocates a String object and returns a Value referencing it.
// New objects take the current reachable color: RunGC flips the color
// before marking, so an object that is not marked is swept.
func (m *Manager) NewString(bytes []byte) Value {
	m.arena.Alloc(1)
	return String(m.strings.put(StringObject{Bytes: bytes}, m.reachable))
}

// NewList allocates a List object and returns a Value referencing it.
func (m *Manager) NewList(items []Value) Value {
	m.arena.Alloc(1)
	return List(m.lists.put(ListObject{Items: items}, m.reachable))
}

// NewBytecodeFunction allocates a BytecodeFunction object and returns a
// Value referencing it.
func (m *Manager) NewBytecodeFunction(obj BytecodeFunctionObject) Value {
	m.arena.Alloc(1)
	return BytecodeFunction(m.functions.put(obj, m.reachable))
}

// GetString resolves a String Value's handle, or reports object-not-found.
func (m *Manager) GetString(v Value) (*StringObject, bool) {
	return m.strings.get(v.AsHandle())
}

// GetList resolves a List Value's handle, or reports object-not-found.
func (m *Manager) GetList(v Value) (*ListObject, bool) {
	return m.lists.get(v.AsHandle())
}

// GetBytecodeFunction resolves a BytecodeFunction Value's handle, or
// reports object-not-found.
func (m *Manager) GetBytecodeFunction(v Value) (*BytecodeFunctionObject, bool) {
	return m.functions.get(v.AsHandle())
}

// markValue marks v's slot (if it has one) reachable and, the first time a
// given slot is marked in this cycle, recurses into its children: a list's
// elements, or a bytecode function's Push-instruction operands. Any other
// tag is a no-op (primitives have no heap footprint; NativeFunction is a
// borrowed static pointer the collector never owns).
func (m *Manager) markValue(v Value) {
	switch v.Tag() {
	case TagString:
		m.strings.mark(v.AsHandle(), m.reachable)
	case TagList:
		if m.lists.mark(v.AsHandle(), m.reachable) {
			if obj, ok := m.lists.get(v.AsHandle()); ok {
				for _, item := range obj.Items {
					m.markValue(item)
				}
			}
		}
	case TagBytecodeFunction:
		if m.functions.mark(v.AsHandle(), m.reachable) {
			if obj, ok := m.functions.get(v.AsHandle()); ok {
				for _, instr := range obj.Instructions {
					if instr.Op == OpPush {
						m.markValue(instr.Operand)
					}
				}
			}
		}
	}
}

// Roots bundles every root source run_gc accepts, matching spec.md 4.2's
// run_gc(external_roots, stack_values, frame_instructions, module_values).
// FrameFunctions lists, for each currently-suspended call frame, the handle
// of the BytecodeFunction object it is executing (InvalidHandle for
// synthetic native-call frames or the outermost entry frame), so that a
// function reachable only through an in-flight call survives.
type Roots struct {
	External       []Value
	Stack          []Value
	FrameFunctions []Handle
	Module         []Value
}

// RunGC performs one stop-the-world mark-and-sweep collection: flip the
// reachable color, mark every value transitively reachable from roots,
// then sweep every arena of anything left in the old reachable color.
func (m *Manager) RunGC(roots Roots) {
	m.reachable = m.notReachable()

	for _, v := range roots.External {
		m.markValue(v)
	}
	for _, v := range roots.Stack {
		m.markValue(v)
	}
	for _, h := range roots.FrameFunctions {
		if h.IsValid() {
			m.markValue(BytecodeFunction(h))
		}
	}
	for _, v := range roots.Module {
		m.markValue(v)
	}

	freed := 0
	m.strings.sweep(m.reachable, func(*StringObject) { freed++ })
	m.lists.sweep(m.reachable, func(*ListObject) { freed++ })
	m.functions.sweep(m.reachable, func(*BytecodeFunctionObject) { freed++ })
	m.arena.Free(freed)
}

// Stats reports the live+tombstoned slot counts per kind, useful for tests
// and host-side diagnostics.
type Stats struct {
	Strings, Lists, Functions int
}

// Stats returns the current arena sizes (including tombstoned slots still
// occupying an index).
func (m *Manager) Stats() Stats {
	return Stats{
		Strings:   len(m.strings.objects),
		Lists:     len(m.lists.objects),
		Functions: len(m.functions.objects),
	}
}
