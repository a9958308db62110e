package frames

import (
	"fmt"
	"strings"
)

// Selection narrows a plugin's enumeration. Bounds and the snapshot are raw
// strings because they come from flags or config files; they are coerced to
// the enumeration's kind before comparison.
type Selection struct {
	// Snapshot, when set, selects exactly one frame and disables the other
	// filters.
	Snapshot string
	// Min and Max are inclusive bounds. Empty means unbounded.
	Min string
	Max string
	// Every keeps every Nth frame remaining after the bounds. Zero means 1.
	Every int
}

// IsSnapshot reports whether the selection targets a single frame.
func (s Selection) IsSnapshot() bool { return strings.TrimSpace(s.Snapshot) != "" }

func (s Selection) stride() int {
	if s.Every <= 0 {
		return 1
	}
	return s.Every
}

// UnknownFrameError reports a snapshot or positional bound that is absent
// from the enumeration.
type UnknownFrameError struct {
	Frame string
}

func (e *UnknownFrameError) Error() string {
	return fmt.Sprintf("frames: frame %q is not in the enumeration", e.Frame)
}

// Select applies sel to all and returns the frames to render, in enumeration
// order and without duplicates. An empty result is valid.
//
// Numeric ids are bounded by value. String ids have no meaningful value order,
// so their bounds are resolved to enumeration positions and must name frames
// that exist.
func Select(all Set, sel Selection) (Set, error) {
	all = all.Dedup()
	if sel.Every < 0 {
		return nil, fmt.Errorf("frames: frames-every must be >= 1, got %d", sel.Every)
	}
	needsKind := sel.IsSnapshot() || strings.TrimSpace(sel.Min) != "" || strings.TrimSpace(sel.Max) != ""
	var kind Kind
	if needsKind {
		k, err := all.Kind()
		if err != nil {
			return nil, err
		}
		kind = k
	}

	if sel.IsSnapshot() {
		if len(all) == 0 {
			return nil, &UnknownFrameError{Frame: sel.Snapshot}
		}
		id, err := ParseID(kind, sel.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("frames: snapshot: %w", err)
		}
		if !all.Contains(id) {
			return nil, &UnknownFrameError{Frame: sel.Snapshot}
		}
		return Set{id}, nil
	}
	if len(all) == 0 {
		return Set{}, nil
	}

	lo, hi := 0, len(all)-1
	bounded := all
	if kind == KindString {
		var err error
		if lo, err = positionOf(all, sel.Min, 0); err != nil {
			return nil, err
		}
		if hi, err = positionOf(all, sel.Max, len(all)-1); err != nil {
			return nil, err
		}
		if hi < lo {
			bounded = Set{}
		} else {
			bounded = all[lo : hi+1]
		}
	} else if needsKind {
		var err error
		if bounded, err = boundByValue(all, kind, sel.Min, sel.Max); err != nil {
			return nil, err
		}
	}

	step := sel.stride()
	out := make(Set, 0, len(bounded)/step+1)
	for i := 0; i < len(bounded); i += step {
		out = append(out, bounded[i])
	}
	return out, nil
}

func positionOf(all Set, raw string, fallback int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	idx := all.Index(Label(raw))
	if idx < 0 {
		return 0, &UnknownFrameError{Frame: raw}
	}
	return idx, nil
}

func boundByValue(all Set, kind Kind, rawMin, rawMax string) (Set, error) {
	var minID, maxID ID
	if strings.TrimSpace(rawMin) != "" {
		id, err := ParseID(kind, rawMin)
		if err != nil {
			return nil, fmt.Errorf("frames: min-frame: %w", err)
		}
		minID = id
	}
	if strings.TrimSpace(rawMax) != "" {
		id, err := ParseID(kind, rawMax)
		if err != nil {
			return nil, fmt.Errorf("frames: max-frame: %w", err)
		}
		maxID = id
	}
	out := make(Set, 0, len(all))
	for _, id := range all {
		if !minID.IsZero() {
			if c, _ := id.Compare(minID); c < 0 {
				continue
			}
		}
		if !maxID.IsZero() {
			if c, _ := id.Compare(maxID); c > 0 {
				continue
			}
		}
		out = append(out, id)
	}
	return out, nil
}
