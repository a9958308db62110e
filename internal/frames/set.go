package frames

import "fmt"

// Set is an ordered sequence of frame IDs; position is rendering and display
// order.
type Set []ID

// NewSet converts raw plugin values into a Set.
func NewSet(values []any) (Set, error) {
	set := make(Set, 0, len(values))
	for i, v := range values {
		id, err := NewID(v)
		if err != nil {
			return nil, fmt.Errorf("frames: enumeration[%d]: %w", i, err)
		}
		set = append(set, id)
	}
	return set, nil
}

// Ints is a convenience constructor used by built-in plugins and tests.
func Ints(values ...int64) Set {
	set := make(Set, len(values))
	for i, v := range values {
		set[i] = Int(v)
	}
	return set
}

// Range returns the integer set [from, to).
func Range(from, to int64) Set {
	if to <= from {
		return Set{}
	}
	set := make(Set, 0, to-from)
	for v := from; v < to; v++ {
		set = append(set, Int(v))
	}
	return set
}

// Len returns the number of frames.
func (s Set) Len() int { return len(s) }

// Index returns the position of id, or -1.
func (s Set) Index(id ID) int {
	for i, candidate := range s {
		if candidate == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is part of the set.
func (s Set) Contains(id ID) bool { return s.Index(id) >= 0 }

// Clone returns an independent copy.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Dedup drops repeated IDs, keeping the first occurrence.
func (s Set) Dedup() Set {
	seen := make(map[ID]struct{}, len(s))
	out := make(Set, 0, len(s))
	for _, id := range s {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Strings renders each ID with String.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = id.String()
	}
	return out
}

// Kind returns the common kind of every ID in the set. Mixed enumerations
// yield an InhomogeneousFramesError. An empty set reports KindInvalid.
func (s Set) Kind() (Kind, error) {
	if len(s) == 0 {
		return KindInvalid, nil
	}
	first := s[0].Kind()
	for _, id := range s[1:] {
		if id.Kind() != first {
			return KindInvalid, &InhomogeneousFramesError{First: first, Other: id.Kind()}
		}
	}
	return first, nil
}

// InhomogeneousFramesError reports an enumeration mixing id kinds where a
// command-line id had to be coerced to a single kind.
type InhomogeneousFramesError struct {
	First Kind
	Other Kind
}

func (e *InhomogeneousFramesError) Error() string {
	return fmt.Sprintf("frames: enumeration mixes %s and %s frame ids", e.First, e.Other)
}
