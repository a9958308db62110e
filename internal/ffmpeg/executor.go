package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kingrea/framereel/internal/assembly"
)

// ErrNotFound is returned when the encoder binary is not on PATH.
var ErrNotFound = errors.New("ffmpeg not found on PATH")

// stderrTailLines bounds how much encoder output an EncodeError carries.
const stderrTailLines = 20

// EncodeError reports a failed encoder run. Frame files are left in place so
// that assembly can be retried on its own.
type EncodeError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg: encode failed: %v", e.Err)
	if tail := e.Tail(); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Tail returns the last lines of the captured stderr.
func (e *EncodeError) Tail() string {
	lines := strings.Split(strings.TrimRight(e.Stderr, "\n"), "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Options configures Execute.
type Options struct {
	// Binary overrides DefaultBinary.
	Binary string
	// Verbose raises ffmpeg's log level and tees its stderr to Stream.
	Verbose bool
	Stream  io.Writer
}

// CheckAvailable returns the resolved path of binary.
func CheckAvailable(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, binary)
	}
	return path, nil
}

// Execute runs the encoder for req and waits for it to exit.
func Execute(ctx context.Context, req assembly.EncodeRequest, opts Options) error {
	args := Build(opts.Binary, req, opts.Verbose)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if opts.Verbose && opts.Stream != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, opts.Stream)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if err := cmd.Run(); err != nil {
		return &EncodeError{Args: args, Stderr: stderrBuf.String(), Err: err}
	}
	return nil
}
