package usecases

import "sync"

// ScriptRegistry guards one-time registration of the shared map scripts.
// A renderer uses one registry per rendered page.
type ScriptRegistry struct {
	once sync.Once
}

// NewScriptRegistry returns an empty registry.
func NewScriptRegistry() *ScriptRegistry {
	return &ScriptRegistry{}
}

// EnsureRegistered runs register the first time it is called and never
// again. Concurrent callers wait for the first registration to finish.
// It reports whether this call performed the registration.
func (r *ScriptRegistry) EnsureRegistered(register func()) bool {
	registered := false
	r.once.Do(func() {
		registered = true
		register()
	})
	return registered
}
