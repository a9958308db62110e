// Package report renders the end-of-run summary.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/framereel/internal/render"
)

var (
	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4CAF50"))
	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Summary is what the final report shows.
type Summary struct {
	Rendered int
	Skipped  int
	Failed   []render.Failure
	Elapsed  time.Duration
	// Video is the encoded output path, empty when nothing was assembled.
	Video       string
	Interrupted bool
	// Aborted marks a run stopped by an error before every chunk ran.
	Aborted bool
	// Verbose adds each failure's error and, for panics, its stack.
	Verbose bool
}

// FromResult copies the counts of a render result.
func FromResult(r render.Result) Summary {
	return Summary{
		Rendered:    r.Rendered,
		Skipped:     r.Skipped,
		Failed:      r.Failed,
		Elapsed:     r.Elapsed,
		Interrupted: r.Interrupted,
	}
}

// Render formats s. Colours are dropped when plain is set.
func Render(s Summary, plain bool) string {
	style := func(st lipgloss.Style, text string) string {
		if plain {
			return text
		}
		return st.Render(text)
	}
	var lines []string
	title := "Render complete"
	switch {
	case s.Interrupted:
		title = "Render interrupted"
	case s.Aborted:
		title = "Render aborted"
	case len(s.Failed) > 0:
		title = "Render finished with failures"
	}
	lines = append(lines, style(headStyle, title))
	lines = append(lines, fmt.Sprintf("%s  %s  %s",
		style(okStyle, fmt.Sprintf("rendered %d", s.Rendered)),
		style(dimStyle, fmt.Sprintf("skipped %d", s.Skipped)),
		style(failOrDim(len(s.Failed)), fmt.Sprintf("failed %d", len(s.Failed))),
	))
	if len(s.Failed) > 0 {
		ids := make([]string, 0, len(s.Failed))
		for _, f := range s.Failed {
			ids = append(ids, f.Frame.String())
		}
		lines = append(lines, "failed frames: "+strings.Join(ids, ", "))
		if s.Verbose {
			for _, f := range s.Failed {
				lines = append(lines, style(dimStyle, fmt.Sprintf("  %s: %v", f.Frame, f.Err)))
				var taskErr *render.RenderTaskError
				if errors.As(f.Err, &taskErr) && len(taskErr.Stack) > 0 {
					lines = append(lines, style(dimStyle, indent(string(taskErr.Stack), "    ")))
				}
			}
		}
	}
	if s.Video != "" {
		lines = append(lines, "video: "+s.Video)
	}
	if s.Elapsed > 0 {
		lines = append(lines, style(dimStyle, "elapsed "+s.Elapsed.Round(time.Millisecond).String()))
	}
	body := strings.Join(lines, "\n")
	if plain {
		return body + "\n"
	}
	return boxStyle.Render(body) + "\n"
}

// Write renders s to w.
func Write(w io.Writer, s Summary, plain bool) error {
	_, err := io.WriteString(w, Render(s, plain))
	return err
}

func failOrDim(failed int) lipgloss.Style {
	if failed > 0 {
		return failStyle
	}
	return dimStyle
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
