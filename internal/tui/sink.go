package tui

import (
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Sink feeds completion counts to an inline bubbletea program. It satisfies
// progress.Sink.
type Sink struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
	err     error
	clock   func() time.Time
}

// NewSink starts the program writing to out. Keyboard input is not read so
// interrupts reach the process as usual.
func NewSink(out io.Writer, title string) *Sink {
	s := &Sink{done: make(chan struct{}), clock: time.Now}
	s.program = tea.NewProgram(newModel(title, s.clock()),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	go func() {
		defer close(s.done)
		_, s.err = s.program.Run()
	}()
	return s
}

// Update hands the counts to the program's event loop; drawing happens there.
func (s *Sink) Update(done, total int) {
	s.program.Send(progressMsg{done: done, total: total, at: s.clock()})
}

// Close stops the program after drawing the final state.
func (s *Sink) Close() error {
	s.once.Do(func() {
		s.program.Send(finishMsg{})
		<-s.done
	})
	return s.err
}
