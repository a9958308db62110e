package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kingrea/framereel/internal/assembly"
)

func sampleRequest() assembly.EncodeRequest {
	return assembly.EncodeRequest{
		InputPattern: "out/%02d.png",
		FPS:          24,
		Codec:        "libx264",
		OutputPath:   "out/video.mp4",
		Metadata:     assembly.Metadata{Author: "Ada", Comment: "first cut"},
	}
}

func TestBuild(t *testing.T) {
	got := strings.Join(Build("", sampleRequest(), false), " ")
	want := "ffmpeg -hide_banner -nostdin -y -loglevel error -framerate 24 -i out/%02d.png " +
		"-vf fps=24:round=up -c:v libx264 -pix_fmt yuv420p -metadata artist=Ada -metadata comment=first cut out/video.mp4"
	if got != want {
		t.Fatalf("unexpected args:\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildVerboseAndCodec(t *testing.T) {
	req := sampleRequest()
	req.Codec = "libvpx-vp9"
	req.Metadata = assembly.Metadata{}
	args := Build("/opt/ffmpeg", req, true)
	joined := strings.Join(args, " ")
	if args[0] != "/opt/ffmpeg" {
		t.Fatalf("expected custom binary first, got %s", args[0])
	}
	if !strings.Contains(joined, "-loglevel info -stats") {
		t.Fatalf("expected verbose logging flags: %s", joined)
	}
	if strings.Contains(joined, "-pix_fmt") || strings.Contains(joined, "-metadata") {
		t.Fatalf("unexpected flags for vp9 without metadata: %s", joined)
	}
	if args[len(args)-1] != req.OutputPath {
		t.Fatalf("expected output path last, got %s", args[len(args)-1])
	}
}

func TestCheckAvailableMissing(t *testing.T) {
	if _, err := CheckAvailable(filepath.Join(t.TempDir(), "no-such-ffmpeg")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteReportsStderrTail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "fake-ffmpeg")
	script := "#!/bin/sh\necho \"Unknown encoder 'nope'\" >&2\nexit 1\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write stand-in: %v", err)
	}
	err := Execute(context.Background(), sampleRequest(), Options{Binary: bin})
	var encErr *EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if !strings.Contains(encErr.Tail(), "Unknown encoder 'nope'") {
		t.Fatalf("expected stderr in error, got %q", encErr.Tail())
	}
}

func TestEncodeErrorTailIsBounded(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("line\n")
	}
	b.WriteString("last\n")
	tail := (&EncodeError{Stderr: b.String()}).Tail()
	if n := len(strings.Split(tail, "\n")); n != stderrTailLines {
		t.Fatalf("expected %d lines, got %d", stderrTailLines, n)
	}
	if !strings.HasSuffix(tail, "last") {
		t.Fatalf("expected tail to end with the final line, got %q", tail)
	}
}
