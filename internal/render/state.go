package render

import "fmt"

// State is a supervisor phase. Phases only ever move forward.
type State string

const (
	StateInit           State = "init"
	StateSelecting      State = "selecting"
	StateFiltering      State = "filtering"
	StatePlanning       State = "planning"
	StateExecuting      State = "executing"
	StateAggregated     State = "aggregated"
	StateSuccess        State = "success"
	StatePartialFailure State = "partial-failure"
)

var stateOrder = map[State]int{
	StateInit:           0,
	StateSelecting:      1,
	StateFiltering:      2,
	StatePlanning:       3,
	StateExecuting:      4,
	StateAggregated:     5,
	StateSuccess:        6,
	StatePartialFailure: 6,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateSuccess || s == StatePartialFailure }

// machine records the transitions taken by one run.
type machine struct {
	current State
	history []State
}

func newMachine() *machine {
	return &machine{current: StateInit, history: []State{StateInit}}
}

func (m *machine) advance(next State) error {
	from, ok := stateOrder[m.current]
	to, known := stateOrder[next]
	if !ok || !known || to <= from || m.current.Terminal() {
		return fmt.Errorf("render: illegal transition %s -> %s", m.current, next)
	}
	if next.Terminal() && m.current != StateAggregated {
		return fmt.Errorf("render: illegal transition %s -> %s", m.current, next)
	}
	m.current = next
	m.history = append(m.history, next)
	return nil
}

func (m *machine) must(next State) {
	if err := m.advance(next); err != nil {
		panic(err)
	}
}

func (m *machine) History() []State {
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}
