package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/internal/progress"
)

func TestPoolSerialRendersEverything(t *testing.T) {
	dir := t.TempDir()
	plugin := &fakePlugin{}
	set := frames.Range(0, 5)
	var sink progress.Recorder
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(1), WithProgress(&sink))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	outcomes, err := pool.Run(context.Background(), planAll(t, dir, set, 2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != StatusRendered {
			t.Fatalf("unexpected outcome %+v", o)
		}
		if _, err := os.Stat(o.Output); err != nil {
			t.Fatalf("missing output: %v", err)
		}
	}
	if plugin.opens.Load() != 1 {
		t.Fatalf("expected a single plugin instance, got %d", plugin.opens.Load())
	}
	if plugin.closes.Load() != 1 {
		t.Fatalf("expected instance to be closed, got %d", plugin.closes.Load())
	}
	updates := sink.Updates()
	want := [][2]int{{0, 5}, {2, 5}, {4, 5}, {5, 5}}
	if fmt.Sprint(updates) != fmt.Sprint(want) {
		t.Fatalf("unexpected progress %v", updates)
	}
}

func TestPoolReplacesWorkersAfterMaxChunks(t *testing.T) {
	for _, workers := range []int{1, 3} {
		workers := workers
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := t.TempDir()
			plugin := &fakePlugin{}
			set := frames.Range(0, 20)
			pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(workers), WithMaxChunksPerWorker(2))
			if err != nil {
				t.Fatalf("new pool: %v", err)
			}
			outcomes, err := pool.Run(context.Background(), planAll(t, dir, set, 1))
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			chunksByWorker := map[string]map[int]bool{}
			seen := map[frames.ID]int{}
			for _, o := range outcomes {
				if chunksByWorker[o.Worker] == nil {
					chunksByWorker[o.Worker] = map[int]bool{}
				}
				chunksByWorker[o.Worker][o.Chunk] = true
				seen[o.Frame]++
			}
			for id, chunks := range chunksByWorker {
				if len(chunks) > 2 {
					t.Fatalf("worker %s processed %d chunks", id, len(chunks))
				}
			}
			if len(seen) != 20 {
				t.Fatalf("expected 20 distinct frames, got %d", len(seen))
			}
			for id, n := range seen {
				if n != 1 {
					t.Fatalf("frame %s rendered %d times", id, n)
				}
			}
			if int(plugin.opens.Load()) != len(chunksByWorker) {
				t.Fatalf("expected one instance per worker identity, got %d opens for %d workers", plugin.opens.Load(), len(chunksByWorker))
			}
			if plugin.opens.Load() != plugin.closes.Load() {
				t.Fatalf("expected every instance to be closed: %d opens, %d closes", plugin.opens.Load(), plugin.closes.Load())
			}
		})
	}
}

func TestPoolSpreadsChunksAcrossIdleWorkers(t *testing.T) {
	dir := t.TempDir()
	var arrived sync.WaitGroup
	arrived.Add(3)
	ready := make(chan struct{})
	go func() {
		arrived.Wait()
		close(ready)
	}()
	plugin := &fakePlugin{hook: func(_ string, frame frames.ID) error {
		// First task of every chunk waits until all three chunks are running.
		if frame.Value().(int64)%2 != 0 {
			return nil
		}
		arrived.Done()
		select {
		case <-ready:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("chunks were not spread across workers")
		}
	}}
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(3))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	outcomes, err := pool.Run(context.Background(), planAll(t, dir, frames.Range(0, 6), 2))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	workerByChunk := map[int]string{}
	for _, o := range outcomes {
		if o.Status != StatusRendered {
			t.Fatalf("unexpected outcome %+v", o)
		}
		if prev, ok := workerByChunk[o.Chunk]; ok && prev != o.Worker {
			t.Fatalf("chunk %d split across workers", o.Chunk)
		}
		workerByChunk[o.Chunk] = o.Worker
	}
	distinct := map[string]bool{}
	for _, w := range workerByChunk {
		distinct[w] = true
	}
	if len(workerByChunk) != 3 || len(distinct) != 3 {
		t.Fatalf("expected 3 chunks on 3 workers, got %v", workerByChunk)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	dir := t.TempDir()
	plugin := &fakePlugin{hook: func(_ string, frame frames.ID) error {
		if frame == frames.Int(2) {
			panic("boom")
		}
		return nil
	}}
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(2))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	outcomes, err := pool.Run(context.Background(), planAll(t, dir, frames.Range(0, 4), 4))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes) != 4 {
		t.Fatalf("expected the chunk to continue after a panic, got %d outcomes", len(outcomes))
	}
	var taskErr *RenderTaskError
	for _, o := range outcomes {
		if o.Frame != frames.Int(2) {
			if o.Status != StatusRendered {
				t.Fatalf("unexpected outcome %+v", o)
			}
			continue
		}
		if o.Status != StatusFailed || !errors.As(o.Err, &taskErr) || len(taskErr.Stack) == 0 {
			t.Fatalf("expected recovered failure with stack, got %+v", o)
		}
	}
}

func TestPoolStopsDispatchOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	plugin := &fakePlugin{hook: func(_ string, frame frames.ID) error {
		if frame == frames.Int(0) {
			cancel()
		}
		return nil
	}}
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(2))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	outcomes, err := pool.Run(ctx, planAll(t, dir, frames.Range(0, 50), 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(outcomes) == 0 || len(outcomes) >= 50 {
		t.Fatalf("expected a partial set of outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Status != StatusRendered {
			t.Fatalf("in-flight chunk did not finish: %+v", o)
		}
	}
}

func TestPoolSetupFailureStopsDispatch(t *testing.T) {
	dir := t.TempDir()
	plugin := &fakePlugin{openErr: errors.New("no gpu"), openLimit: 0}
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(2))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	outcomes, err := pool.Run(context.Background(), planAll(t, dir, frames.Range(0, 8), 1))
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
}

func TestPoolSetupPanicBecomesSetupError(t *testing.T) {
	dir := t.TempDir()
	plugin := &fakePlugin{openPanic: "init exploded", openLimit: 1}
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(3))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	_, err = pool.Run(context.Background(), planAll(t, dir, frames.Range(0, 12), 1))
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	var panicked *PanicError
	if !errors.As(err, &panicked) || len(panicked.Stack) == 0 {
		t.Fatalf("expected panic with stack, got %v", err)
	}
}

func TestPoolRejectsNegativeSettings(t *testing.T) {
	plugin := &fakePlugin{}
	if _, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(-1)); err == nil {
		t.Fatalf("expected negative workers to fail")
	}
	if _, err := NewPool(plugin.loader(t), fakeSpec(), WithMaxChunksPerWorker(-1)); err == nil {
		t.Fatalf("expected negative max chunks to fail")
	}
}

func TestPoolProgressIsMonotonic(t *testing.T) {
	dir := t.TempDir()
	plugin := &fakePlugin{}
	var sink progress.Recorder
	pool, err := NewPool(plugin.loader(t), fakeSpec(), WithWorkers(4), WithProgress(&sink))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	if _, err := pool.Run(context.Background(), planAll(t, dir, frames.Range(0, 37), 3)); err != nil {
		t.Fatalf("run: %v", err)
	}
	last := -1
	updates := sink.Updates()
	for _, u := range updates {
		if u[0] < last || u[1] != 37 {
			t.Fatalf("non-monotonic progress %v", updates)
		}
		last = u[0]
	}
	if last != 37 {
		t.Fatalf("expected final count 37, got %d", last)
	}
}
