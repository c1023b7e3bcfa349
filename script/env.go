package script

// Env is the variable environment for one interpreter instance: a mapping
// from identifier to value that remembers insertion order so the vars
// command lists variables in the order they first appeared.
type Env struct {
	names  []string
	values map[string]Value
}

// NewEnv creates an empty environment
func NewEnv() *Env {
	return &Env{values: make(map[string]Value)}
}

// Get looks up a variable
func (e *Env) Get(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Set stores a variable. Last write wins; first write fixes the
// iteration position.
func (e *Env) Set(name string, v Value) {
	if _, exists := e.values[name]; !exists {
		e.names = append(e.names, name)
	}
	e.values[name] = v
}

// Len returns the number of variables
func (e *Env) Len() int {
	return len(e.values)
}

// Names returns the variable names in insertion order
func (e *Env) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Snapshot returns an independent copy of the environment. Function calls
// snapshot before binding parameters and restore afterwards, so a call
// leaves no variable side effects behind.
func (e *Env) Snapshot() *Env {
	clone := &Env{
		names:  make([]string, len(e.names)),
		values: make(map[string]Value, len(e.values)),
	}
	copy(clone.names, e.names)
	for k, v := range e.values {
		clone.values[k] = v
	}
	return clone
}

// Restore replaces the environment's contents with those of the snapshot
func (e *Env) Restore(snapshot *Env) {
	e.names = snapshot.names
	e.values = snapshot.values
}
