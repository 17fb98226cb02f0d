package pipeline

import (
	"fmt"
	"sync"
)

// Env is the pipeline-run-scoped variable store. A variable is written
// once by the step that publishes it and read by later steps in the same
// run; redefinition is a bug in the workflow and is rejected.
type Env struct {
	mu   sync.RWMutex
	vars map[string]string
}

func NewEnv() *Env {
	return &Env{vars: make(map[string]string)}
}

func (e *Env) Set(name, value string) error {
	if name == "" {
		return fmt.Errorf("env variable name must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if prev, exists := e.vars[name]; exists {
		return fmt.Errorf("env variable %s already set to %q", name, prev)
	}
	e.vars[name] = value
	return nil
}

func (e *Env) Lookup(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}
