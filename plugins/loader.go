package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoPlugin is returned when neither a plugin name nor a plugin file was given.
var ErrNoPlugin = errors.New("plugin: no plugin specified")

// NotFoundError reports a plugin name that matched no builtin and no script.
type NotFoundError struct {
	Name string
	Dir  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plugin: %q is neither a builtin nor a script in %s", e.Name, e.Dir)
}

// InvalidError reports a script that does not satisfy the plugin contract.
type InvalidError struct {
	Path   string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("plugin: %s: %s", e.Path, e.Reason)
}

// Loader turns names into Specs and Specs into capabilities.
type Loader struct {
	registry *Registry
	dir      string
}

// NewLoader returns a loader backed by reg that searches dir for scripts.
func NewLoader(reg *Registry, dir string) *Loader {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Loader{registry: reg, dir: strings.TrimSpace(dir)}
}

// Dir returns the script search directory.
func (l *Loader) Dir() string { return l.dir }

// Registry exposes the builtin registry.
func (l *Loader) Registry() *Registry { return l.registry }

// Resolve picks the plugin to run. An explicit file wins over a name; names
// are matched against builtins first and then against <dir>/<name>[.go].
func (l *Loader) Resolve(name, file string) (Spec, error) {
	if file = strings.TrimSpace(file); file != "" {
		if err := checkScript(file); err != nil {
			return Spec{}, err
		}
		return Spec{Name: scriptName(file), Path: file}, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Spec{}, ErrNoPlugin
	}
	if _, ok := l.registry.Lookup(name); ok {
		return Spec{Name: name}, nil
	}
	for _, candidate := range []string{name, name + ".go"} {
		path := filepath.Join(l.dir, candidate)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if err := checkScript(path); err != nil {
			return Spec{}, err
		}
		return Spec{Name: scriptName(path), Path: path}, nil
	}
	return Spec{}, &NotFoundError{Name: name, Dir: l.dir}
}

// Declared returns the option names and defaults the plugin declares.
func (l *Loader) Declared(spec Spec) (Options, error) {
	if spec.IsScript() {
		return scriptOptions(spec.Path)
	}
	b, ok := l.registry.Lookup(spec.Name)
	if !ok {
		return nil, &NotFoundError{Name: spec.Name, Dir: l.dir}
	}
	return b.Options.Clone(), nil
}

// Open constructs a fresh, independent capability for spec. Each call yields
// a new instance; script plugins get a new interpreter every time.
func (l *Loader) Open(spec Spec) (Capability, error) {
	declared, err := l.Declared(spec)
	if err != nil {
		return nil, err
	}
	opts, err := Merge(declared, spec.Options)
	if err != nil {
		return nil, err
	}
	if spec.IsScript() {
		return openScript(spec.Path, opts)
	}
	b, _ := l.registry.Lookup(spec.Name)
	capability, err := b.New(opts)
	if err != nil {
		return nil, fmt.Errorf("plugin: open %s: %w", spec.Name, err)
	}
	return capability, nil
}

func checkScript(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &InvalidError{Path: path, Reason: "file does not exist"}
		}
		return fmt.Errorf("plugin: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return &InvalidError{Path: path, Reason: "is a directory"}
	}
	_, err = inspectScript(path)
	return err
}

func scriptName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
