package config

// Flags are grouped into source, selection, execution, assembly and display.
// Long names double as YAML keys in the config file.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kingrea/framereel/plugins"
)

// Flags binds a Config to a flag set and remembers the plugin options given
// with -O so they can be layered over the config file.
type Flags struct {
	cfg     *Config
	set     *pflag.FlagSet
	options keyValueFlag
}

// BindFlags registers every run flag on fs, writing into cfg. cfg should hold
// Default() values so they show in help text.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *Flags {
	f := &Flags{cfg: cfg, set: fs, options: keyValueFlag{}}
	defineSourceFlags(fs, cfg)
	defineSelectionFlags(fs, cfg)
	defineExecutionFlags(fs, cfg)
	defineAssemblyFlags(fs, cfg)
	defineDisplayFlags(fs, cfg)
	fs.VarP(&f.options, "option", "O", "plugin option `name=value` (repeatable)")
	return f
}

func defineSourceFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ConfigFile, "config", "c", cfg.ConfigFile, "YAML config file `path`")
	fs.StringVarP(&cfg.PluginFile, "plugin-file", "m", cfg.PluginFile, "Go source plugin `path` (overrides the plugin name)")
	fs.StringVar(&cfg.PluginsDir, "plugins-dir", cfg.PluginsDir, "directory searched for plugin scripts (env "+PluginsDirEnv+")")
	fs.StringVarP(&cfg.OutputDir, "outdir", "o", cfg.OutputDir, "output directory for frames and video")
	fs.StringVar(&cfg.FrameExtension, "frame-extension", cfg.FrameExtension, "image extension of rendered frames")
}

func defineSelectionFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "render only this frame")
	fs.StringVar(&cfg.MinFrame, "min-frame", cfg.MinFrame, "do not render frames before this one")
	fs.StringVar(&cfg.MaxFrame, "max-frame", cfg.MaxFrame, "do not render frames after this one")
	fs.IntVar(&cfg.FramesEvery, "frames-every", cfg.FramesEvery, "render one frame every `N`")
}

func defineExecutionFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Parallel, "parallel", cfg.Parallel, "render frames on a pool of workers")
	fs.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "number of parallel workers")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "frames handed to a worker at a time")
	fs.IntVar(&cfg.MaxChunksPerWorker, "max-chunks-per-worker", cfg.MaxChunksPerWorker, "chunks a worker processes before its plugin instance is replaced (0 = never)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "overwrite frames that already exist")
	fs.BoolVar(&cfg.SkipExisting, "skip-existing", cfg.SkipExisting, "do not render frames that already exist (contents are not checked)")
}

func defineAssemblyFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.OnlyRenderMovie, "only-render-movie", cfg.OnlyRenderMovie, "skip frame generation and only assemble the video")
	fs.StringVar(&cfg.FrameNameFormat, "frame-name-format", cfg.FrameNameFormat, "printf-style frame names to assemble, e.g. %04d.png (requires --only-render-movie)")
	fs.StringVar(&cfg.MovieName, "movie-name", cfg.MovieName, "video file name without extension")
	fs.StringVar(&cfg.Extension, "extension", cfg.Extension, "video container extension")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "frames per second")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "video codec (default: derived from the extension)")
	fs.StringVar(&cfg.Author, "author", cfg.Author, "author metadata")
	fs.StringVar(&cfg.Title, "title", cfg.Title, "title metadata")
	fs.StringVar(&cfg.Comment, "comment", cfg.Comment, "comment metadata")
	fs.StringVar(&cfg.FFmpeg, "ffmpeg", cfg.FFmpeg, "ffmpeg binary")
}

func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DisableProgressBar, "disable-progress-bar", cfg.DisableProgressBar, "do not display progress")
	fs.StringVar(&cfg.ProgressStyle, "progress-style", cfg.ProgressStyle, "progress display: bar or tui")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug output")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also append logs to this file")
}

// Options returns the plugin options given on the command line.
func (f *Flags) Options() plugins.Options {
	return plugins.Options(f.options).Clone()
}

// Resolve layers the config file under the flags the user set explicitly,
// merges plugin options and validates the result.
func (f *Flags) Resolve() (Config, error) {
	if path := strings.TrimSpace(f.cfg.ConfigFile); path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := f.applyFile(file); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg := *f.cfg
	merged := cfg.Options.Clone()
	if merged == nil {
		merged = plugins.Options{}
	}
	for k, v := range f.options {
		merged[k] = v
	}
	cfg.Options = merged
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFile sets every flag the file names unless the user set it already.
func (f *Flags) applyFile(file fileConfig) error {
	keys := make([]string, 0, len(file.values))
	for key := range file.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key == "plugin" {
			if strings.TrimSpace(f.cfg.Plugin) == "" {
				f.cfg.Plugin = strings.TrimSpace(file.values[key])
			}
			continue
		}
		flag := f.set.Lookup(key)
		if flag == nil || key == "config" || key == "option" {
			return fmt.Errorf("unknown setting %q", key)
		}
		if flag.Changed {
			continue
		}
		if err := f.set.Set(key, file.values[key]); err != nil {
			return fmt.Errorf("setting %q: %w", key, err)
		}
	}
	if len(file.options) > 0 {
		if f.cfg.Options == nil {
			f.cfg.Options = plugins.Options{}
		}
		for k, v := range file.options {
			f.cfg.Options[k] = v
		}
	}
	return nil
}

// keyValueFlag collects repeated name=value pairs.
type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	var pairs []string
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (kv *keyValueFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return fmt.Errorf("option name is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = parts[1]
	return nil
}

func (kv *keyValueFlag) Type() string { return "name=value" }
