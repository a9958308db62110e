package plugins

import (
	"testing"
)

func TestDiscoverReportsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "countdown.go", countdownSource)
	writeScript(t, dir, "labels.go", labelSource)
	writeScript(t, dir, "half.go", "package main\n\nfunc Frames() []int { return nil }\n")
	writeScript(t, dir, "garbage.go", "this is not go")
	writeScript(t, dir, "notes.txt", "ignored")

	found, err := Discover(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(found) != 4 {
		t.Fatalf("expected 4 candidates, got %d: %+v", len(found), found)
	}
	byName := map[string]Candidate{}
	for _, c := range found {
		byName[c.Name] = c
	}
	for _, name := range []string{"countdown", "labels"} {
		if !byName[name].Valid {
			t.Fatalf("expected %s to be valid: %+v", name, byName[name])
		}
	}
	if c := byName["half"]; c.Valid || c.Reason != "does not declare Render" {
		t.Fatalf("unexpected half candidate %+v", c)
	}
	if c := byName["garbage"]; c.Valid || c.Reason == "" {
		t.Fatalf("unexpected garbage candidate %+v", c)
	}
	if found[0].Name != "countdown" {
		t.Fatalf("expected sorted candidates, got %s first", found[0].Name)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	found, err := Discover(t.TempDir() + "/nope")
	if err != nil || len(found) != 0 {
		t.Fatalf("expected nothing for missing dir, got %v, %v", found, err)
	}
}

func TestInspectRenderArity(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "arity.go", "package main\n\nfunc Frames() []int { return nil }\nfunc Render(frame int) {}\n")
	if _, err := inspectScript(path); err == nil {
		t.Fatalf("expected single-argument Render to be rejected")
	}
}
