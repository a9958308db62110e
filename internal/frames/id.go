package frames

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind classifies the underlying value of an ID.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// ID is an opaque frame identifier produced by a plugin's enumeration. It is
// immutable and comparable with ==.
type ID struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Int returns an integer frame ID.
func Int(v int64) ID { return ID{kind: KindInt, i: v} }

// Float returns a floating point frame ID.
func Float(v float64) ID { return ID{kind: KindFloat, f: v} }

// Label returns a string frame ID.
func Label(v string) ID { return ID{kind: KindString, s: v} }

// NewID converts a plugin-supplied value into an ID. Every Go integer type,
// float32/float64 and string are accepted.
func NewID(v any) (ID, error) {
	switch x := v.(type) {
	case ID:
		return x, nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUint(x)
	case float32:
		return newFloat(float64(x))
	case float64:
		return newFloat(x)
	case string:
		return Label(x), nil
	default:
		return ID{}, fmt.Errorf("frames: unsupported frame id type %T", v)
	}
}

func fromUint(v uint64) (ID, error) {
	if v > math.MaxInt64 {
		return ID{}, fmt.Errorf("frames: frame id %d overflows int64", v)
	}
	return Int(int64(v)), nil
}

func newFloat(v float64) (ID, error) {
	if math.IsNaN(v) {
		return ID{}, fmt.Errorf("frames: NaN is not a valid frame id")
	}
	return Float(v), nil
}

// ParseID interprets raw as an ID of the given kind. Command-line bounds and
// snapshot ids arrive as strings and are coerced to the enumeration's kind.
func ParseID(kind Kind, raw string) (ID, error) {
	trimmed := strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			// "3.0" is accepted for integer enumerations as long as it is integral.
			f, ferr := strconv.ParseFloat(trimmed, 64)
			if ferr != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
				return ID{}, fmt.Errorf("frames: %q is not an integer frame id", raw)
			}
			return Int(int64(f)), nil
		}
		return Int(v), nil
	case KindFloat:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return ID{}, fmt.Errorf("frames: %q is not a numeric frame id", raw)
		}
		return newFloat(v)
	case KindString:
		return Label(raw), nil
	default:
		return ID{}, fmt.Errorf("frames: cannot parse %q as %s frame id", raw, kind)
	}
}

// Kind reports the kind of the underlying value.
func (id ID) Kind() Kind { return id.kind }

// IsZero reports whether the ID was never assigned.
func (id ID) IsZero() bool { return id.kind == KindInvalid }

// Value returns the underlying value as int64, float64 or string.
func (id ID) Value() any {
	switch id.kind {
	case KindInt:
		return id.i
	case KindFloat:
		return id.f
	case KindString:
		return id.s
	default:
		return nil
	}
}

// String is the display form used in logs and summaries. It is never used to
// name frame files.
func (id ID) String() string {
	switch id.kind {
	case KindInt:
		return strconv.FormatInt(id.i, 10)
	case KindFloat:
		return strconv.FormatFloat(id.f, 'g', -1, 64)
	case KindString:
		return id.s
	default:
		return "<invalid>"
	}
}

// Compare orders two IDs. ok is false when the kinds have no common order
// (strings against numbers).
func (id ID) Compare(other ID) (cmp int, ok bool) {
	switch {
	case id.kind == KindString && other.kind == KindString:
		return strings.Compare(id.s, other.s), true
	case id.numeric() && other.numeric():
		if id.kind == KindInt && other.kind == KindInt {
			return compareInt(id.i, other.i), true
		}
		return compareFloat(id.asFloat(), other.asFloat()), true
	default:
		return 0, false
	}
}

func (id ID) numeric() bool { return id.kind == KindInt || id.kind == KindFloat }

func (id ID) asFloat() float64 {
	if id.kind == KindInt {
		return float64(id.i)
	}
	return id.f
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
