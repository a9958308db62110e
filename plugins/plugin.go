// Package plugins resolves a named frame-producing plugin to a concrete
// render capability. Plugins are either compiled-in builtins registered in a
// Registry or Go source scripts interpreted with yaegi.
//
// A Spec is the only thing that crosses a worker boundary: every worker opens
// its own Capability from the same Spec, so no plugin state is shared between
// workers.
package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/framereel/internal/frames"
)

// Capability is what the render engine needs from a plugin.
type Capability interface {
	// Frames enumerates every frame the plugin can produce, in display order.
	Frames() (frames.Set, error)
	// Render writes the image for frame to path, replacing any existing file.
	Render(path string, frame frames.ID) error
}

// Options holds named plugin option values.
type Options map[string]string

// Clone returns an independent copy.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Keys returns the option names sorted.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge resolves values over declared defaults. Names missing from declared
// are rejected so that typos surface before rendering starts.
func Merge(declared, values Options) (Options, error) {
	out := declared.Clone()
	if out == nil {
		out = Options{}
	}
	for _, name := range values.Keys() {
		key := strings.TrimSpace(name)
		if _, ok := declared[key]; !ok {
			return nil, fmt.Errorf("plugin: unknown option %q (declared: %s)", key, strings.Join(declared.Keys(), ", "))
		}
		out[key] = values[name]
	}
	return out, nil
}

// Spec is a serializable plugin description: which plugin and with which
// option values.
type Spec struct {
	// Name is a registry name or the script's base name.
	Name string `yaml:"name" json:"name"`
	// Path is set for script plugins.
	Path    string  `yaml:"path,omitempty" json:"path,omitempty"`
	Options Options `yaml:"options,omitempty" json:"options,omitempty"`
}

// IsScript reports whether s names a Go source file.
func (s Spec) IsScript() bool { return strings.TrimSpace(s.Path) != "" }

// Label is a human-readable name for logs.
func (s Spec) Label() string {
	if s.IsScript() {
		return s.Path
	}
	return s.Name
}

// WithOptions returns a copy of s carrying opts.
func (s Spec) WithOptions(opts Options) Spec {
	s.Options = opts.Clone()
	return s
}
