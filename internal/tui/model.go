// Package tui renders render-run progress as an inline bubbletea view.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 40

type progressMsg struct {
	done  int
	total int
	at    time.Time
}

type finishMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// model is the bubbletea model behind Sink.
type model struct {
	title    string
	bar      progress.Model
	done     int
	total    int
	started  time.Time
	last     time.Time
	finished bool
}

func newModel(title string, now time.Time) model {
	return model{
		title:   title,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth)),
		started: now,
		last:    now,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(defaultBarWidth, max(10, msg.Width-30))
		return m, nil

	case progressMsg:
		if msg.done >= m.done {
			m.done = msg.done
		}
		m.total = msg.total
		m.last = msg.at
		return m, nil

	case finishMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// eta extrapolates the remaining time from the average pace so far.
func (m model) eta() time.Duration {
	if m.done == 0 || m.done >= m.total {
		return 0
	}
	elapsed := m.last.Sub(m.started)
	perTask := elapsed / time.Duration(m.done)
	return perTask * time.Duration(m.total-m.done)
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString("  ")
	b.WriteString(countStyle.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
	if eta := m.eta(); eta > 0 {
		b.WriteString(hintStyle.Render(fmt.Sprintf("  eta %s", eta.Round(time.Second))))
	}
	b.WriteString("\n")
	return b.String()
}
