// Package config resolves run settings from built-in defaults, the
// environment, an optional YAML file and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/kingrea/framereel/internal/assembly"
	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/plugins"
)

// PluginsDirEnv names the environment variable holding the plugin search directory.
const PluginsDirEnv = "FRAMEREEL_PLUGINS_DIR"

// Progress styles.
const (
	ProgressBar = "bar"
	ProgressTUI = "tui"
)

// Config holds every setting of a run. Config file keys equal the long flag
// names, plus "plugin" for the plugin name and "options" for plugin options.
type Config struct {
	Plugin     string
	PluginFile string
	PluginsDir string
	ConfigFile string

	OutputDir      string
	FrameExtension string

	Snapshot    string
	MinFrame    string
	MaxFrame    string
	FramesEvery int

	Parallel           bool
	Workers            int
	ChunkSize          int
	MaxChunksPerWorker int
	Overwrite          bool
	SkipExisting       bool

	DisableProgressBar bool
	ProgressStyle      string
	Verbose            bool
	LogFile            string

	OnlyRenderMovie bool
	FrameNameFormat string

	MovieName string
	Extension string
	FPS       int
	Codec     string
	Author    string
	Title     string
	Comment   string
	FFmpeg    string

	// Options are plugin option values; command-line values win over the file.
	Options plugins.Options
}

// Default returns the built-in defaults with the environment applied.
func Default() Config {
	cfg := Config{
		PluginsDir:     ".",
		OutputDir:      ".",
		FrameExtension: "png",
		FramesEvery:    1,
		Workers:        runtime.NumCPU(),
		ChunkSize:      1,
		ProgressStyle:  ProgressBar,
		MovieName:      "video",
		Extension:      "mp4",
		FPS:            assembly.DefaultFPS,
		FFmpeg:         "ffmpeg",
	}
	if dir := strings.TrimSpace(os.Getenv(PluginsDirEnv)); dir != "" {
		cfg.PluginsDir = dir
	}
	return cfg
}

// Selection returns the frame selection filters.
func (c Config) Selection() frames.Selection {
	return frames.Selection{Snapshot: c.Snapshot, Min: c.MinFrame, Max: c.MaxFrame, Every: c.FramesEvery}
}

// Policy returns the existence policy implied by overwrite and skip-existing.
func (c Config) Policy() (frames.Policy, error) {
	return frames.PolicyFor(c.SkipExisting, c.Overwrite)
}

// EffectiveWorkers is the worker count handed to the pool. Runs that are not
// parallel use a single in-process worker.
func (c Config) EffectiveWorkers() int {
	if !c.Parallel {
		return 1
	}
	return c.Workers
}

// AssemblyOptions returns the video settings.
func (c Config) AssemblyOptions() assembly.Options {
	return assembly.Options{
		OutputDir: c.OutputDir,
		MovieName: c.MovieName,
		Extension: c.Extension,
		Codec:     c.Codec,
		FPS:       c.FPS,
		Metadata:  assembly.Metadata{Author: c.Author, Title: c.Title, Comment: c.Comment},
	}
}

// ExplicitPattern reports whether assembly runs on a user-supplied pattern,
// skipping the plugin entirely.
func (c Config) ExplicitPattern() bool {
	return c.OnlyRenderMovie && strings.TrimSpace(c.FrameNameFormat) != ""
}

// Warnings lists settings that are valid but probably unintended.
func (c Config) Warnings() []string {
	var out []string
	if c.Parallel && c.Workers > runtime.NumCPU() {
		out = append(out, fmt.Sprintf("requested %d workers but only %d CPUs are available", c.Workers, runtime.NumCPU()))
	}
	if !c.Parallel && c.MaxChunksPerWorker > 0 {
		out = append(out, "max-chunks-per-worker also applies to sequential runs")
	}
	return out
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if c.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("chunk-size must be >= 1, got %d", c.ChunkSize))
	}
	if c.MaxChunksPerWorker < 0 {
		errs = append(errs, fmt.Errorf("max-chunks-per-worker must be >= 0, got %d", c.MaxChunksPerWorker))
	}
	if c.FramesEvery < 1 {
		errs = append(errs, fmt.Errorf("frames-every must be >= 1, got %d", c.FramesEvery))
	}
	if c.FPS < 1 {
		errs = append(errs, fmt.Errorf("fps must be >= 1, got %d", c.FPS))
	}
	if c.Overwrite && c.SkipExisting {
		errs = append(errs, errors.New("overwrite and skip-existing are mutually exclusive"))
	}
	if strings.TrimSpace(c.FrameNameFormat) != "" && !c.OnlyRenderMovie {
		errs = append(errs, errors.New("frame-name-format requires only-render-movie"))
	}
	if !c.ExplicitPattern() && strings.TrimSpace(c.Plugin) == "" && strings.TrimSpace(c.PluginFile) == "" {
		errs = append(errs, plugins.ErrNoPlugin)
	}
	switch c.ProgressStyle {
	case ProgressBar, ProgressTUI:
	default:
		errs = append(errs, fmt.Errorf("progress-style must be %q or %q, got %q", ProgressBar, ProgressTUI, c.ProgressStyle))
	}
	if strings.TrimSpace(c.MovieName) == "" {
		errs = append(errs, errors.New("movie-name is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
