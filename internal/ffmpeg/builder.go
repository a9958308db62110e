package ffmpeg

import (
	"strconv"

	"github.com/kingrea/framereel/internal/assembly"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "ffmpeg"

// Build constructs the complete argument slice, binary first.
func Build(binary string, req assembly.EncodeRequest, verbose bool) []string {
	if binary == "" {
		binary = DefaultBinary
	}
	fps := strconv.Itoa(req.FPS)
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, binary, "-hide_banner", "-nostdin", "-y")
	if verbose {
		args = append(args, "-loglevel", "info", "-stats")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input ---
	args = append(args, "-framerate", fps, "-i", req.InputPattern)

	// --- Video ---
	args = append(args, "-vf", "fps="+fps+":round=up", "-c:v", req.Codec)
	if req.Codec == "libx264" {
		args = append(args, "-pix_fmt", "yuv420p")
	}

	// --- Global metadata ---
	for _, tag := range req.Metadata.Tags() {
		args = append(args, "-metadata", tag.Key+"="+tag.Value)
	}

	return append(args, req.OutputPath)
}
