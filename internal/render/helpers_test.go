package render

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/plugins"
)

// fakePlugin counts instances and render calls across every worker.
type fakePlugin struct {
	frames  frames.Set
	opens   atomic.Int32
	renders atomic.Int32
	closes  atomic.Int32
	// hook runs before the file is written; a non-nil error fails the frame.
	hook func(path string, frame frames.ID) error
	// openErr fails every Open after the first n successful ones when set.
	openErr   error
	openLimit int32
	// openPanic, when set, is raised instead of returning openErr.
	openPanic any
	// framesPanic, when set, is raised by Frames.
	framesPanic any
}

type fakeInstance struct {
	owner *fakePlugin
}

func (f *fakePlugin) loader(t *testing.T) *plugins.Loader {
	t.Helper()
	reg := plugins.NewRegistry()
	err := reg.Register(plugins.Builtin{
		Name: "fake",
		New: func(plugins.Options) (plugins.Capability, error) {
			n := f.opens.Add(1)
			if f.openPanic != nil && n > f.openLimit {
				panic(f.openPanic)
			}
			if f.openErr != nil && n > f.openLimit {
				return nil, f.openErr
			}
			return &fakeInstance{owner: f}, nil
		},
	})
	if err != nil {
		t.Fatalf("register fake plugin: %v", err)
	}
	return plugins.NewLoader(reg, "")
}

func (i *fakeInstance) Frames() (frames.Set, error) {
	if i.owner.framesPanic != nil {
		panic(i.owner.framesPanic)
	}
	return i.owner.frames.Clone(), nil
}

func (i *fakeInstance) Render(path string, frame frames.ID) error {
	i.owner.renders.Add(1)
	if i.owner.hook != nil {
		if err := i.owner.hook(path, frame); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(frame.String()), 0o644)
}

func (i *fakeInstance) Close() error {
	i.owner.closes.Add(1)
	return nil
}

func fakeSpec() plugins.Spec { return plugins.Spec{Name: "fake"} }

func planAll(t *testing.T, dir string, set frames.Set, size int) []frames.Chunk {
	t.Helper()
	namer := frames.NewNamer(dir, set, ".png")
	chunks, err := frames.Plan(set, namer.NameFunc(), size)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return chunks
}

// sequentialIDs returns a goroutine-safe deterministic id source.
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
