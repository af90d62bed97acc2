package value

// Environment is a lexical scope: a variable-binding object plus an
// optional outer-environment link. A closure captures the environment
// current at the point of its creation; the global environment's variable
// object doubles as the global `this`.
type Environment struct {
	Vars  *Object
	Outer *Environment
}

// NewEnvironment creates a fresh scope, optionally chained to outer (nil
// for the global environment).
func NewEnvironment(outer *Environment) *Environment {
	return &Environment{Vars: NewVanilla(nil), Outer: outer}
}

// Get walks the chain outward from e, returning the first binding found.
func (e *Environment) Get(name string) (Value, bool) {
	for cur := e; cur != nil; cur = cur.Outer {
		if d, ok := cur.Vars.GetOwn(name); ok {
			return d.Value, true
		}
	}
	return Undef, false
}

// Has reports whether name is bound anywhere in the chain.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set stores to the innermost existing binding of name; if no environment
// in the chain already binds name, a new binding is created in e itself --
// matching the hoisting-friendly behavior SETVAR documents, even though the
// compiler already reserves slots for every declared var.
func (e *Environment) Set(name string, v Value) {
	for cur := e; cur != nil; cur = cur.Outer {
		if d, ok := cur.Vars.GetOwn(name); ok {
			d.Value = v
			return
		}
	}
	e.Declare(name, v)
}

// Declare binds name to v in e specifically, overwriting any existing own
// binding. Used to pre-initialize var slots and parameters on call entry.
func (e *Environment) Declare(name string, v Value) {
	e.Vars.DefineOwn(name, &PropertyDescriptor{Value: v, Writable: true, Enumerable: true, Configurable: false})
}

// Delete removes an own binding from e (not the chain), reporting success.
func (e *Environment) Delete(name string) bool {
	return e.Vars.DeleteOwn(name)
}
