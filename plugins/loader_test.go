package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrecedence(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "countdown.go", countdownSource)
	writeScript(t, dir, TestcardName+".go", labelSource)
	other := writeScript(t, t.TempDir(), "labels.go", labelSource)
	loader := NewLoader(DefaultRegistry(), dir)

	spec, err := loader.Resolve("countdown", other)
	if err != nil {
		t.Fatalf("resolve with file: %v", err)
	}
	if spec.Path != other || spec.Name != "labels" {
		t.Fatalf("expected explicit file to win, got %+v", spec)
	}
	spec, err = loader.Resolve(TestcardName, "")
	if err != nil {
		t.Fatalf("resolve builtin: %v", err)
	}
	if spec.IsScript() {
		t.Fatalf("expected builtin to shadow script, got %+v", spec)
	}
	spec, err = loader.Resolve("countdown", "")
	if err != nil {
		t.Fatalf("resolve script: %v", err)
	}
	if spec.Path != filepath.Join(dir, "countdown.go") {
		t.Fatalf("unexpected script path %s", spec.Path)
	}
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(DefaultRegistry(), dir)
	if _, err := loader.Resolve("", ""); !errors.Is(err, ErrNoPlugin) {
		t.Fatalf("expected ErrNoPlugin, got %v", err)
	}
	var notFound *NotFoundError
	if _, err := loader.Resolve("ghost", ""); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	var invalid *InvalidError
	if _, err := loader.Resolve("", filepath.Join(dir, "missing.go")); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError, got %v", err)
	}
	bad := filepath.Join(dir, "bad.go")
	if err := os.WriteFile(bad, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loader.Resolve("bad", ""); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidError for contract violation, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	declared := Options{"width": "320", "height": "180"}
	merged, err := Merge(declared, Options{"width": "64"})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged["width"] != "64" || merged["height"] != "180" {
		t.Fatalf("unexpected merge %v", merged)
	}
	if declared["width"] != "320" {
		t.Fatalf("merge mutated declared defaults")
	}
	if _, err := Merge(declared, Options{"depth": "1"}); err == nil {
		t.Fatalf("expected unknown option error")
	}
}
