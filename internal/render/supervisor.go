package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/internal/progress"
	"github.com/kingrea/framereel/plugins"
)

// Request describes one render run.
type Request struct {
	Plugin         plugins.Spec
	OutputDir      string
	FrameExtension string
	Selection      frames.Selection
	Policy         frames.Policy
	ChunkSize      int
	Workers        int
	// MaxChunksPerWorker of zero never replaces a worker.
	MaxChunksPerWorker int
	// NamesOnly selects and names frames without rendering any of them. It is
	// used when assembling a video from frames a previous run produced.
	NamesOnly bool
}

// Result aggregates a run.
type Result struct {
	RunID string
	State State
	// History lists every state the run passed through.
	History []State
	// Frames is the selected set in display order, before existence filtering.
	Frames     frames.Set
	Snapshot   bool
	NameFormat string
	Pattern    string
	Scheduled  int
	Outcomes   []Outcome
	Rendered   int
	Skipped    int
	Failed     []Failure
	Elapsed    time.Duration

	// Interrupted is set when the context ended the run before every chunk
	// was dispatched. State then only describes the outcomes collected.
	Interrupted bool
}

// Supervisor drives select, filter, plan and execute for a plugin.
type Supervisor struct {
	opener Opener
	sink   progress.Sink
	log    *slog.Logger
	clock  func() time.Time
	newID  func() string
}

// Option customizes a Supervisor.
type Option func(*Supervisor)

// WithSink routes progress updates to sink.
func WithSink(sink progress.Sink) Option {
	return func(s *Supervisor) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets the supervisor's logger. The pool inherits it.
func WithLogger(log *slog.Logger) Option {
	return func(s *Supervisor) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Supervisor) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDs injects the source of run and worker identities.
func WithIDs(next func() string) Option {
	return func(s *Supervisor) {
		if next != nil {
			s.newID = next
		}
	}
}

// NewSupervisor returns a supervisor that opens plugins through opener.
func NewSupervisor(opener Opener, opts ...Option) (*Supervisor, error) {
	if opener == nil {
		return nil, fmt.Errorf("render: supervisor requires a plugin opener")
	}
	s := &Supervisor{
		opener: opener,
		sink:   progress.Nop{},
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Render runs the request to completion. Configuration problems are returned
// as *ConfigurationError before anything is rendered. Failed frames never stop
// the run; they are listed in Result.Failed and the run ends in
// StatePartialFailure. If ctx is cancelled the partial result is returned
// together with ctx's error.
func (s *Supervisor) Render(ctx context.Context, req Request) (Result, error) {
	start := s.clock()
	m := newMachine()
	result := Result{RunID: s.newID(), State: StateInit, Snapshot: req.Selection.IsSnapshot()}
	finish := func() Result {
		result.State = m.current
		result.History = m.History()
		result.Elapsed = s.clock().Sub(start)
		return result
	}
	log := s.log.With(slog.String("run", result.RunID))

	if req.ChunkSize < 1 {
		return finish(), configurationError(fmt.Errorf("chunk size must be at least 1, got %d", req.ChunkSize))
	}

	m.must(StateSelecting)
	selected, err := s.selectFrames(req)
	if err != nil {
		return finish(), err
	}
	namer := frames.NewNamer(req.OutputDir, selected, req.FrameExtension)
	result.Frames = selected
	result.NameFormat = namer.Format()
	result.Pattern = namer.Pattern()
	log.Info("selected frames", slog.Int("count", selected.Len()), slog.String("name_format", result.NameFormat))

	if req.NamesOnly {
		m.must(StateAggregated)
		m.must(StateSuccess)
		return finish(), nil
	}

	m.must(StateFiltering)
	scheduled, skipped, err := frames.Filter(selected, namer.NameFunc(), req.Policy)
	if err != nil {
		return finish(), configurationError(err)
	}
	for _, id := range skipped {
		path, _ := namer.Path(id)
		result.Outcomes = append(result.Outcomes, Outcome{Frame: id, Output: path, Status: StatusSkipped})
	}
	if len(skipped) > 0 {
		log.Info("skipping existing frames", slog.Int("count", len(skipped)))
	}

	m.must(StatePlanning)
	chunks, err := frames.Plan(scheduled, namer.NameFunc(), req.ChunkSize)
	if err != nil {
		return finish(), configurationError(err)
	}
	result.Scheduled = frames.TaskCount(chunks)
	log.Debug("planned chunks", slog.Int("chunks", len(chunks)), slog.Int("tasks", result.Scheduled))

	m.must(StateExecuting)
	var runErr error
	if len(chunks) > 0 {
		if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
			return finish(), fmt.Errorf("render: create output dir: %w", err)
		}
		var outcomes []Outcome
		outcomes, runErr = s.execute(ctx, req, chunks, log)
		result.Outcomes = append(result.Outcomes, outcomes...)
		result.Interrupted = errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	}

	m.must(StateAggregated)
	result.Rendered, result.Skipped, result.Failed = Tally(result.Outcomes, selected)
	for _, failure := range result.Failed {
		log.Error("frame failed", slog.String("frame", failure.Frame.String()), slog.Any("err", failure.Err))
	}
	if len(result.Failed) > 0 {
		m.must(StatePartialFailure)
	} else {
		m.must(StateSuccess)
	}
	result = finish()
	log.Info("render finished",
		slog.String("state", string(result.State)),
		slog.Int("rendered", result.Rendered),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("elapsed", result.Elapsed),
	)
	return result, runErr
}

func (s *Supervisor) selectFrames(req Request) (frames.Set, error) {
	var capability plugins.Capability
	err := protect(func() (err error) {
		capability, err = s.opener.Open(req.Plugin)
		return err
	})
	if err != nil {
		return nil, configurationError(err)
	}
	if closer, ok := capability.(io.Closer); ok {
		defer closer.Close()
	}
	var all frames.Set
	err = protect(func() (err error) {
		all, err = capability.Frames()
		return err
	})
	if err != nil {
		return nil, &ConfigurationError{Kind: "InvalidPlugin", Err: fmt.Errorf("enumerate frames: %w", err)}
	}
	if len(all) == 0 {
		s.log.Warn("plugin enumerated no frames", slog.String("plugin", req.Plugin.Label()))
	}
	selected, err := frames.Select(all, req.Selection)
	if err != nil {
		return nil, configurationError(err)
	}
	return selected, nil
}

func (s *Supervisor) execute(ctx context.Context, req Request, chunks []frames.Chunk, log *slog.Logger) ([]Outcome, error) {
	pool, err := NewPool(s.opener, req.Plugin,
		WithWorkers(req.Workers),
		WithMaxChunksPerWorker(req.MaxChunksPerWorker),
		WithProgress(s.sink),
		WithPoolLogger(log),
		withIDs(s.newID),
	)
	if err != nil {
		return nil, configurationError(err)
	}
	return pool.Run(ctx, chunks)
}
