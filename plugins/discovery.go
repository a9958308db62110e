package plugins

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidate is one file found while scanning the plugins directory.
type Candidate struct {
	Name  string
	Path  string
	Valid bool
	// Reason explains why an invalid candidate was rejected.
	Reason string
}

type scriptInfo struct {
	hasInit    bool
	hasOptions bool
}

// Discover scans dir for Go source plugins. Files that fail the contract are
// returned with Valid unset so callers can report them. A missing directory
// yields no candidates.
func Discover(dir string) ([]Candidate, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var out []Candidate
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		candidate := Candidate{Name: scriptName(path), Path: path, Valid: true}
		if _, err := inspectScript(path); err != nil {
			candidate.Valid = false
			candidate.Reason = err.Error()
			if invalid, ok := err.(*InvalidError); ok {
				candidate.Reason = invalid.Reason
			}
		}
		out = append(out, candidate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// inspectScript checks the plugin contract statically, without interpreting
// the file: top-level Frames() and Render(path, frame) must be declared.
func inspectScript(path string) (scriptInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return scriptInfo{}, &InvalidError{Path: path, Reason: fmt.Sprintf("parse: %v", err)}
	}
	var info scriptInfo
	var hasFrames, hasRender bool
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}
		switch fn.Name.Name {
		case framesFuncName:
			if paramCount(fn.Type.Params) != 0 {
				return info, &InvalidError{Path: path, Reason: "Frames must take no arguments"}
			}
			hasFrames = true
		case renderFuncName:
			if paramCount(fn.Type.Params) != 2 {
				return info, &InvalidError{Path: path, Reason: "Render must take (path string, frame T)"}
			}
			hasRender = true
		case initFuncName:
			info.hasInit = true
		case optionsFuncName:
			info.hasOptions = true
		}
	}
	switch {
	case !hasFrames && !hasRender:
		return info, &InvalidError{Path: path, Reason: "does not declare Frames or Render"}
	case !hasFrames:
		return info, &InvalidError{Path: path, Reason: "does not declare Frames"}
	case !hasRender:
		return info, &InvalidError{Path: path, Reason: "does not declare Render"}
	}
	return info, nil
}

func paramCount(fields *ast.FieldList) int {
	if fields == nil {
		return 0
	}
	n := 0
	for _, field := range fields.List {
		if len(field.Names) == 0 {
			n++
			continue
		}
		n += len(field.Names)
	}
	return n
}
