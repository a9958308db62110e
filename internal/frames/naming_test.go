package frames

import (
	"path/filepath"
	"testing"
)

func TestNameFormatWidth(t *testing.T) {
	cases := []struct {
		count int
		ext   string
		want  string
	}{
		{0, "png", "%01d.png"},
		{1, ".png", "%01d.png"},
		{10, ".jpg", "%01d.jpg"},
		{11, "jpg", "%02d.jpg"},
		{100, "png", "%02d.png"},
		{101, "png", "%03d.png"},
		{5, "", "%01d.png"},
	}
	for _, tc := range cases {
		if got := NameFormat(tc.count, tc.ext); got != tc.want {
			t.Fatalf("NameFormat(%d, %q) = %q, want %q", tc.count, tc.ext, got, tc.want)
		}
	}
}

func TestSanitizeExtension(t *testing.T) {
	if SanitizeExtension("mp4") != ".mp4" || SanitizeExtension(".mp4") != ".mp4" {
		t.Fatalf("extension not sanitized")
	}
}

func TestNamerUsesOrdinalNotID(t *testing.T) {
	set := Set{Label("intro"), Float(2.5), Label("end")}
	namer := NewNamer("out", Set{Int(7), Int(3), Int(100)}, "png")
	path, ok := namer.Path(Int(100))
	if !ok || path != filepath.Join("out", "2.png") {
		t.Fatalf("unexpected path %q", path)
	}
	if _, ok := namer.Path(Int(4)); ok {
		t.Fatalf("frames outside the selection must not be named")
	}
	labels := NewNamer("out", set, "png")
	if p, _ := labels.Path(Label("end")); p != filepath.Join("out", "2.png") {
		t.Fatalf("unexpected path for label id: %s", p)
	}
	if labels.Pattern() != filepath.Join("out", "%01d.png") {
		t.Fatalf("unexpected pattern %s", labels.Pattern())
	}
}
