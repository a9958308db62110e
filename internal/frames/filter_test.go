package frames

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFilterPolicies(t *testing.T) {
	dir := t.TempDir()
	all := Range(0, 5)
	namer := NewNamer(dir, all, "png")
	for _, id := range Ints(1, 3) {
		path, _ := namer.Path(id)
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("write existing frame: %v", err)
		}
	}

	t.Run("normal", func(t *testing.T) {
		_, _, err := Filter(all, namer.NameFunc(), PolicyNormal)
		var exists *OutputExistsError
		if !errors.As(err, &exists) {
			t.Fatalf("expected OutputExistsError, got %v", err)
		}
		if filepath.Base(exists.Path) != "1.png" {
			t.Fatalf("expected first existing file to be reported, got %s", exists.Path)
		}
	})

	t.Run("skip-existing", func(t *testing.T) {
		scheduled, skipped, err := Filter(all, namer.NameFunc(), PolicySkipExisting)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if !reflect.DeepEqual(scheduled, Ints(0, 2, 4)) {
			t.Fatalf("unexpected scheduled set %v", scheduled.Strings())
		}
		if !reflect.DeepEqual(skipped, Ints(1, 3)) {
			t.Fatalf("unexpected skipped set %v", skipped.Strings())
		}
		for _, id := range scheduled {
			path, _ := namer.Path(id)
			if _, err := os.Stat(path); err == nil {
				t.Fatalf("scheduled frame %s already has output %s", id, path)
			}
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		scheduled, skipped, err := Filter(all, namer.NameFunc(), PolicyOverwrite)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		if !reflect.DeepEqual(scheduled, all) || len(skipped) != 0 {
			t.Fatalf("overwrite must schedule everything, got %v / %v", scheduled.Strings(), skipped.Strings())
		}
	})
}

func TestFilterDoesNotCheckContent(t *testing.T) {
	dir := t.TempDir()
	all := Range(0, 2)
	namer := NewNamer(dir, all, ".png")
	path, _ := namer.Path(Int(0))
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write empty frame: %v", err)
	}
	scheduled, _, err := Filter(all, namer.NameFunc(), PolicySkipExisting)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !reflect.DeepEqual(scheduled, Ints(1)) {
		t.Fatalf("an empty existing file still counts as rendered, got %v", scheduled.Strings())
	}
}

func TestPolicyFor(t *testing.T) {
	if _, err := PolicyFor(true, true); err == nil {
		t.Fatalf("expected conflict error")
	}
	p, err := PolicyFor(true, false)
	if err != nil || p != PolicySkipExisting {
		t.Fatalf("expected skip-existing, got %v (%v)", p, err)
	}
	p, err = PolicyFor(false, true)
	if err != nil || p != PolicyOverwrite {
		t.Fatalf("expected overwrite, got %v (%v)", p, err)
	}
}
