package value

import (
	"golang.org/x/exp/maps"

	"github.com/wmedrano/spore/pkg/intern"
)

// Module is a name-to-value mapping registered with a VM. A VM owns
// exactly one Module, named "", the global module that Deref and the
// macro expander's macro lookup both read from.
type Module struct {
	name   string
	values map[intern.ID]Value
}

// NewModule returns an empty Module with the given name.
func NewModule(name string) *Module {
	return &Module{name: name, values: make(map[intern.ID]Value)}
}

// Name returns the module's name ("" for the VM's global module).
func (m *Module) Name() string { return m.name }

// Get returns the value bound to id, if any.
func (m *Module) Get(id intern.ID) (Value, bool) {
	v, ok := m.values[id]
	return v, ok
}

// Define binds id to v unconditionally, overwriting any existing binding.
// This is the primitive %define compiles to, and the Open Question in
// spec.md 9 resolves %define as exactly this upsert behavior so that `def`
// can be re-evaluated at a REPL without error.
func (m *Module) Define(id intern.ID, v Value) {
	m.values[id] = v
}

// Register binds id to v, refusing if id is already bound. This is the
// host-side API (Module::register_value / register_function in spec.md
// section 6) - distinct from Define, which backs the language-level `def`.
func (m *Module) Register(id intern.ID, v Value) error {
	if _, exists := m.values[id]; exists {
		return NewError(KindValueAlreadyDefined, "value already defined")
	}
	m.values[id] = v
	return nil
}

// Values returns a snapshot of every bound value, used as GC roots and by
// introspection tooling. Order is unspecified.
func (m *Module) Values() []Value {
	return maps.Values(m.values)
}

// Len reports how many names are bound.
func (m *Module) Len() int {
	return len(m.values)
}
