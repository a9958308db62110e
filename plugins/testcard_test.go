package plugins

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/kingrea/framereel/internal/frames"
)

func TestTestcardRendersPNG(t *testing.T) {
	loader := NewLoader(DefaultRegistry(), "")
	capability, err := loader.Open(Spec{Name: TestcardName, Options: Options{"frames": "5", "width": "28", "height": "12"}})
	if err != nil {
		t.Fatalf("open testcard: %v", err)
	}
	set, err := capability.Frames()
	if err != nil {
		t.Fatalf("frames: %v", err)
	}
	if set.Len() != 5 {
		t.Fatalf("expected 5 frames, got %d", set.Len())
	}
	out := filepath.Join(t.TempDir(), "3.png")
	if err := capability.Render(out, frames.Int(3)); err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 28 || b.Dy() != 12 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestTestcardRejectsBadOptions(t *testing.T) {
	loader := NewLoader(DefaultRegistry(), "")
	if _, err := loader.Open(Spec{Name: TestcardName, Options: Options{"width": "-4"}}); err == nil {
		t.Fatalf("expected invalid width to fail")
	}
}
