package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/internal/progress"
	"github.com/kingrea/framereel/plugins"
)

// Opener constructs an independent plugin instance from its description.
type Opener interface {
	Open(plugins.Spec) (plugins.Capability, error)
}

// Pool executes chunks on a bounded set of workers. Each worker owns its own
// plugin instance, opened from the pool's Spec.
type Pool struct {
	opener    Opener
	spec      plugins.Spec
	workers   int
	maxChunks int
	sink      progress.Sink
	log       *slog.Logger
	newID     func() string
}

// PoolOption customizes a Pool.
type PoolOption func(*Pool)

// WithWorkers sets the number of parallel workers. Values below 2 run every
// chunk sequentially on the calling goroutine.
func WithWorkers(n int) PoolOption {
	return func(p *Pool) { p.workers = n }
}

// WithMaxChunksPerWorker replaces a worker's plugin instance after it has
// processed m chunks. Zero disables replacement.
func WithMaxChunksPerWorker(m int) PoolOption {
	return func(p *Pool) { p.maxChunks = m }
}

// WithProgress routes completion counts to sink.
func WithProgress(sink progress.Sink) PoolOption {
	return func(p *Pool) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(log *slog.Logger) PoolOption {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// withIDs injects a deterministic identity source (tests).
func withIDs(next func() string) PoolOption {
	return func(p *Pool) {
		if next != nil {
			p.newID = next
		}
	}
}

// NewPool wires a pool to the plugin described by spec.
func NewPool(opener Opener, spec plugins.Spec, opts ...PoolOption) (*Pool, error) {
	if opener == nil {
		return nil, fmt.Errorf("render: pool requires a plugin opener")
	}
	p := &Pool{
		opener:  opener,
		spec:    spec,
		workers: 1,
		sink:    progress.Nop{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 0 {
		return nil, fmt.Errorf("render: workers must not be negative, got %d", p.workers)
	}
	if p.maxChunks < 0 {
		return nil, fmt.Errorf("render: max chunks per worker must not be negative, got %d", p.maxChunks)
	}
	return p, nil
}

type chunkResult struct {
	outcomes []Outcome
}

// Run executes every chunk exactly once. When ctx is cancelled, or a worker
// cannot open its plugin, no further chunks are dispatched; chunks already
// running finish and their outcomes are returned with the error.
func (p *Pool) Run(ctx context.Context, chunks []frames.Chunk) ([]Outcome, error) {
	total := frames.TaskCount(chunks)
	p.sink.Update(0, total)
	if len(chunks) == 0 {
		return nil, nil
	}
	if p.workers < 2 {
		return p.runSerial(ctx, chunks, total)
	}
	return p.runParallel(ctx, chunks, total)
}

func (p *Pool) runSerial(ctx context.Context, chunks []frames.Chunk, total int) ([]Outcome, error) {
	w := p.newWorker()
	defer w.retire()
	outcomes := make([]Outcome, 0, total)
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		result, err := w.run(chunk)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, result...)
		p.sink.Update(len(outcomes), total)
	}
	return outcomes, nil
}

func (p *Pool) runParallel(ctx context.Context, chunks []frames.Chunk, total int) ([]Outcome, error) {
	n := p.workers
	if n > len(chunks) {
		n = len(chunks)
	}
	p.log.Debug("starting worker pool", slog.Int("workers", n), slog.Int("chunks", len(chunks)), slog.Int("max_chunks_per_worker", p.maxChunks))

	// Buffered to the chunk count so workers never wait on aggregation.
	results := make(chan chunkResult, len(chunks))
	collected := make(chan []Outcome, 1)
	go func() {
		outcomes := make([]Outcome, 0, total)
		for result := range results {
			outcomes = append(outcomes, result.outcomes...)
			p.sink.Update(len(outcomes), total)
		}
		collected <- outcomes
	}()

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan frames.Chunk)
	g.Go(func() error {
		defer close(queue)
		for _, chunk := range chunks {
			if gctx.Err() != nil {
				return nil
			}
			select {
			case queue <- chunk:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for i := 0; i < n; i++ {
		g.Go(func() error {
			w := p.newWorker()
			defer w.retire()
			for chunk := range queue {
				outcomes, err := w.run(chunk)
				if err != nil {
					return err
				}
				results <- chunkResult{outcomes: outcomes}
			}
			return nil
		})
	}
	err := g.Wait()
	close(results)
	outcomes := <-collected
	if err != nil {
		return outcomes, err
	}
	if err := ctx.Err(); err != nil && len(outcomes) < total {
		return outcomes, err
	}
	return outcomes, nil
}
