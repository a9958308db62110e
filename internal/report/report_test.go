package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/internal/render"
)

func TestRenderPlainListsFailures(t *testing.T) {
	s := Summary{
		Rendered: 8,
		Skipped:  1,
		Failed: []render.Failure{
			{Frame: frames.Int(3), Err: &render.RenderTaskError{Frame: frames.Int(3), Err: errors.New("boom"), Stack: []byte("goroutine 1\nmain.go:10")}},
			{Frame: frames.Label("outro"), Err: errors.New("disk full")},
		},
		Elapsed: 1500 * time.Millisecond,
		Verbose: true,
	}
	out := Render(s, true)
	for _, want := range []string{
		"Render finished with failures",
		"rendered 8",
		"skipped 1",
		"failed 2",
		"failed frames: 3, outro",
		"disk full",
		"    main.go:10",
		"elapsed 1.5s",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSuccess(t *testing.T) {
	out := Render(Summary{Rendered: 3, Video: "out/video.mp4"}, true)
	if !strings.HasPrefix(out, "Render complete") || !strings.Contains(out, "video: out/video.mp4") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "failed frames") {
		t.Fatalf("success summary should not list failures")
	}
	if out := Render(Summary{Interrupted: true}, true); !strings.HasPrefix(out, "Render interrupted") {
		t.Fatalf("unexpected interrupted summary:\n%s", out)
	}
}

func TestFromResultCarriesInterruption(t *testing.T) {
	s := FromResult(render.Result{Rendered: 2, Interrupted: true})
	if !s.Interrupted || s.Rendered != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if out := Render(Summary{Rendered: 1, Aborted: true}, true); !strings.HasPrefix(out, "Render aborted") {
		t.Fatalf("unexpected aborted summary:\n%s", out)
	}
}
