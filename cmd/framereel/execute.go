package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/kingrea/framereel/internal/assembly"
	"github.com/kingrea/framereel/internal/config"
	"github.com/kingrea/framereel/internal/ffmpeg"
	"github.com/kingrea/framereel/internal/logging"
	"github.com/kingrea/framereel/internal/progress"
	"github.com/kingrea/framereel/internal/render"
	"github.com/kingrea/framereel/internal/report"
	"github.com/kingrea/framereel/internal/tui"
	"github.com/kingrea/framereel/plugins"
)

// execute runs a resolved configuration end to end and returns the exit code.
func (a *app) execute(ctx context.Context, cfg config.Config) int {
	log, err := logging.New(logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile, Console: a.stderr})
	if err != nil {
		return a.fail(err)
	}
	defer log.Close()
	for _, warning := range cfg.Warnings() {
		log.Warn(warning)
	}

	if cfg.ExplicitPattern() {
		log.Info("assembling existing frames", slog.String("pattern", cfg.FrameNameFormat))
		video, err := a.assemble(ctx, log.Logger, cfg, cfg.FrameNameFormat)
		if err != nil {
			return a.fail(err)
		}
		a.printSummary(report.Summary{Video: video})
		return exitOK
	}

	if !cfg.OnlyRenderMovie && cfg.Snapshot == "" {
		// Fail before rendering anything the encoder could not use.
		if _, err := assembly.CodecFor(cfg.Codec, cfg.Extension); err != nil {
			return a.fail(render.NewConfigurationError(err))
		}
	}

	loader := plugins.NewLoader(plugins.DefaultRegistry(), cfg.PluginsDir)
	spec, err := resolvePlugin(loader, cfg)
	if err != nil {
		return a.fail(err)
	}
	log.Debug("resolved plugin", slog.String("plugin", spec.Label()), slog.Any("options", spec.Options))
	policy, err := cfg.Policy()
	if err != nil {
		return a.fail(render.NewConfigurationError(err))
	}

	sink := a.progressSink(cfg)
	sup, err := render.NewSupervisor(loader, render.WithSink(sink), render.WithLogger(log.Logger))
	if err != nil {
		return a.fail(err)
	}
	result, runErr := sup.Render(ctx, render.Request{
		Plugin:             spec,
		OutputDir:          cfg.OutputDir,
		FrameExtension:     cfg.FrameExtension,
		Selection:          cfg.Selection(),
		Policy:             policy,
		ChunkSize:          cfg.ChunkSize,
		Workers:            cfg.EffectiveWorkers(),
		MaxChunksPerWorker: cfg.MaxChunksPerWorker,
		NamesOnly:          cfg.OnlyRenderMovie,
	})
	if err := sink.Close(); err != nil {
		log.Debug("progress display", slog.Any("err", err))
	}

	summary := report.FromResult(result)
	summary.Verbose = cfg.Verbose
	if runErr != nil {
		summary.Interrupted = summary.Interrupted || errors.Is(runErr, context.Canceled)
		summary.Aborted = !summary.Interrupted
		if summary.Interrupted || len(result.Outcomes) > 0 {
			a.printSummary(summary)
		}
		return a.fail(runErr)
	}

	code := exitOK
	switch {
	case result.State == render.StatePartialFailure:
		log.Warn("skipping assembly because frames failed; rerun with --skip-existing after fixing them",
			slog.Int("failed", len(result.Failed)))
		code = exitPartial
	case result.Snapshot:
		log.Info("snapshot rendered, skipping assembly", slog.String("frame", result.Frames.Strings()[0]))
	case result.Frames.Len() == 0:
		log.Warn("no frames selected, nothing to assemble")
	default:
		video, err := a.assemble(ctx, log.Logger, cfg, result.NameFormat)
		if err != nil {
			if !cfg.OnlyRenderMovie {
				a.printSummary(summary)
			}
			return a.fail(err)
		}
		summary.Video = video
	}
	a.printSummary(summary)
	return code
}

func resolvePlugin(loader *plugins.Loader, cfg config.Config) (plugins.Spec, error) {
	spec, err := loader.Resolve(cfg.Plugin, cfg.PluginFile)
	if err != nil {
		return plugins.Spec{}, render.NewConfigurationError(err)
	}
	spec = spec.WithOptions(cfg.Options)
	declared, err := loader.Declared(spec)
	if err != nil {
		return plugins.Spec{}, render.NewConfigurationError(err)
	}
	if _, err := plugins.Merge(declared, spec.Options); err != nil {
		return plugins.Spec{}, render.NewConfigurationError(err)
	}
	return spec, nil
}

// assemble plans and runs the encoder for frames named by nameFormat and
// returns the video path.
func (a *app) assemble(ctx context.Context, log *slog.Logger, cfg config.Config, nameFormat string) (string, error) {
	if info, err := os.Stat(cfg.OutputDir); err != nil || !info.IsDir() {
		return "", render.NewConfigurationError(fmt.Errorf("output directory %s does not exist", cfg.OutputDir))
	}
	req, err := assembly.Plan(nameFormat, cfg.AssemblyOptions())
	if err != nil {
		var unsupported *assembly.UnsupportedExtensionError
		if errors.As(err, &unsupported) {
			return "", render.NewConfigurationError(err)
		}
		return "", &AssemblyError{Err: err}
	}
	binary, err := ffmpeg.CheckAvailable(cfg.FFmpeg)
	if err != nil {
		return "", &AssemblyError{Err: err}
	}
	log.Info("encoding video",
		slog.String("input", req.InputPattern),
		slog.String("output", req.OutputPath),
		slog.String("codec", req.Codec),
		slog.Int("fps", req.FPS),
	)
	log.Debug("ffmpeg", slog.String("binary", binary))
	if err := ffmpeg.Execute(ctx, req, ffmpeg.Options{Binary: binary, Verbose: cfg.Verbose, Stream: a.stderr}); err != nil {
		return "", &AssemblyError{Err: err}
	}
	return req.OutputPath, nil
}

func (a *app) progressSink(cfg config.Config) progress.Sink {
	if cfg.DisableProgressBar {
		return progress.Nop{}
	}
	if cfg.ProgressStyle == config.ProgressTUI && isTerminal(a.stderr) {
		return tui.NewSink(a.stderr, "Rendering")
	}
	return progress.NewBar(a.stderr, "Rendering")
}

func (a *app) printSummary(s report.Summary) {
	_ = report.Write(a.stdout, s, !logging.ColorEnabled(a.stdout))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
