package plugins

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory constructs a capability from resolved option values.
type Factory func(Options) (Capability, error)

// Builtin describes a compiled-in plugin.
type Builtin struct {
	Name        string
	Description string
	// Options declares option names and their defaults.
	Options Options
	New     Factory
}

// Registry maintains known builtin plugins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: map[string]Builtin{}}
}

// DefaultRegistry returns a registry holding every builtin shipped with the binary.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.MustRegister(TestcardBuiltin())
	return reg
}

// Register installs a builtin. Returns an error if the name already exists.
func (r *Registry) Register(b Builtin) error {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return fmt.Errorf("plugin: name is required")
	}
	if b.New == nil {
		return fmt.Errorf("plugin: factory is required for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builtins[name]; exists {
		return fmt.Errorf("plugin: %s already registered", name)
	}
	b.Name = name
	b.Options = b.Options.Clone()
	r.builtins[name] = b
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(b Builtin) {
	if err := r.Register(b); err != nil {
		panic(err)
	}
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[strings.TrimSpace(name)]
	return b, ok
}

// Names returns a sorted list of registered builtin names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.builtins))
	for name := range r.builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
