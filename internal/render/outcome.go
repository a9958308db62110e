package render

import (
	"sort"

	"github.com/kingrea/framereel/internal/frames"
)

// Status is the final state of one render task.
type Status string

const (
	StatusRendered Status = "rendered"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Outcome is produced once per frame.
type Outcome struct {
	Frame  frames.ID
	Output string
	Status Status
	Err    error
	// Worker identifies the lease that executed the task. Empty for skipped frames.
	Worker string
	Chunk  int
}

// Failure pairs a frame with the reason it failed.
type Failure struct {
	Frame frames.ID
	Err   error
}

// Tally counts outcomes by status and collects failures in frame order.
func Tally(outcomes []Outcome, order frames.Set) (rendered, skipped int, failed []Failure) {
	for _, o := range outcomes {
		switch o.Status {
		case StatusRendered:
			rendered++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed = append(failed, Failure{Frame: o.Frame, Err: o.Err})
		}
	}
	if len(failed) > 1 && len(order) > 0 {
		position := make(map[frames.ID]int, len(order))
		for i, id := range order {
			position[id] = i
		}
		sort.SliceStable(failed, func(i, j int) bool {
			return position[failed[i].Frame] < position[failed[j].Frame]
		})
	}
	return rendered, skipped, failed
}
