// Package progress reports how many render tasks have completed.
package progress

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Sink receives completion counts. done never decreases across calls and
// total is fixed for the lifetime of a run.
type Sink interface {
	Update(done, total int)
	Close() error
}

// Nop discards every update.
type Nop struct{}

func (Nop) Update(int, int) {}
func (Nop) Close() error    { return nil }

// Bar draws a terminal progress bar.
type Bar struct {
	mu          sync.Mutex
	w           io.Writer
	description string
	bar         *progressbar.ProgressBar
	done        int
}

// NewBar returns a bar sink writing to w. The bar is created on the first
// update, once the total is known.
func NewBar(w io.Writer, description string) *Bar {
	return &Bar{w: w, description: description}
}

func (b *Bar) Update(done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		b.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription(b.description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(0),
			progressbar.OptionClearOnFinish(),
		)
	}
	if done <= b.done {
		return
	}
	_ = b.bar.Add(done - b.done)
	b.done = done
}

func (b *Bar) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return nil
	}
	return b.bar.Finish()
}

// Recorder keeps every update in memory.
type Recorder struct {
	mu      sync.Mutex
	updates [][2]int
	closed  bool
}

func (r *Recorder) Update(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, [2]int{done, total})
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Updates returns the (done, total) pairs seen so far.
func (r *Recorder) Updates() [][2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][2]int, len(r.updates))
	copy(out, r.updates)
	return out
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
