package render

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/plugins"
)

// lease binds one worker identity to one plugin instance for at most
// maxChunks chunks.
type lease struct {
	id         string
	chunks     int
	capability plugins.Capability
}

// worker executes chunks sequentially, replacing its lease when it expires.
// A worker is only ever used from one goroutine.
type worker struct {
	pool  *Pool
	lease *lease
}

func (p *Pool) newWorker() *worker {
	return &worker{pool: p}
}

func (w *worker) acquire() error {
	if w.lease != nil {
		return nil
	}
	id := w.pool.newID()
	var capability plugins.Capability
	err := protect(func() (err error) {
		capability, err = w.pool.opener.Open(w.pool.spec)
		return err
	})
	if err != nil {
		return &SetupError{Worker: id, Err: err}
	}
	w.lease = &lease{id: id, capability: capability}
	w.pool.log.Debug("worker started", slog.String("worker", id), slog.String("plugin", w.pool.spec.Label()))
	return nil
}

// retire drops the current plugin instance, closing it when it holds resources.
func (w *worker) retire() {
	if w.lease == nil {
		return
	}
	if closer, ok := w.lease.capability.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			w.pool.log.Warn("worker close failed", slog.String("worker", w.lease.id), slog.Any("err", err))
		}
	}
	w.pool.log.Debug("worker retired", slog.String("worker", w.lease.id), slog.Int("chunks", w.lease.chunks))
	w.lease = nil
}

// run renders every task in chunk. Task failures become outcomes; only a
// plugin setup failure is returned as an error.
func (w *worker) run(chunk frames.Chunk) ([]Outcome, error) {
	if err := w.acquire(); err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, 0, len(chunk.Tasks))
	for _, task := range chunk.Tasks {
		out := w.renderTask(task)
		out.Chunk = chunk.Index
		outcomes = append(outcomes, out)
	}
	w.lease.chunks++
	if max := w.pool.maxChunks; max > 0 && w.lease.chunks >= max {
		w.retire()
	}
	return outcomes, nil
}

func (w *worker) renderTask(task frames.Task) (out Outcome) {
	out = Outcome{Frame: task.Frame, Output: task.Output, Worker: w.lease.id}
	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = &RenderTaskError{Frame: task.Frame, Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()
	if err := w.lease.capability.Render(task.Output, task.Frame); err != nil {
		out.Status = StatusFailed
		out.Err = &RenderTaskError{Frame: task.Frame, Err: err}
		return out
	}
	out.Status = StatusRendered
	return out
}
