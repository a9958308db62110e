package frames

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultImageExtension is used for rendered frames when none is configured.
const DefaultImageExtension = ".png"

// SanitizeExtension returns ext with exactly one leading dot.
func SanitizeExtension(ext string) string {
	trimmed := strings.TrimSpace(ext)
	if trimmed == "" {
		return ""
	}
	return "." + strings.TrimLeft(trimmed, ".")
}

// NameFormat returns the printf-style file name pattern for count frames,
// zero-padded to the width of the largest ordinal (count-1), minimum one
// digit: NameFormat(120, "png") == "%03d.png".
func NameFormat(count int, ext string) string {
	width := 1
	if count > 1 {
		width = len(strconv.Itoa(count - 1))
	}
	ext = SanitizeExtension(ext)
	if ext == "" {
		ext = DefaultImageExtension
	}
	return fmt.Sprintf("%%0%dd%s", width, ext)
}

// Namer maps frame IDs to output files by their ordinal in the selected set.
// The mapping is fixed before any rendering starts, so file names never
// depend on the textual form of an ID or on completion order.
type Namer struct {
	dir     string
	format  string
	ordinal map[ID]int
}

// NewNamer builds the naming for selected inside dir.
func NewNamer(dir string, selected Set, ext string) *Namer {
	ordinal := make(map[ID]int, len(selected))
	for i, id := range selected {
		if _, ok := ordinal[id]; !ok {
			ordinal[id] = i
		}
	}
	return &Namer{
		dir:     dir,
		format:  NameFormat(len(selected), ext),
		ordinal: ordinal,
	}
}

// Format returns the bare file name pattern, e.g. "%03d.png".
func (n *Namer) Format() string { return n.format }

// Pattern returns the pattern joined with the output directory.
func (n *Namer) Pattern() string { return filepath.Join(n.dir, n.format) }

// Path returns the output file for id. ok is false for ids outside the
// selected set.
func (n *Namer) Path(id ID) (string, bool) {
	idx, ok := n.ordinal[id]
	if !ok {
		return "", false
	}
	return filepath.Join(n.dir, fmt.Sprintf(n.format, idx)), true
}

// NameFunc adapts the namer to the NameFunc signature used by Filter and Plan.
// Ids outside the selection map to "".
func (n *Namer) NameFunc() NameFunc {
	return func(id ID) string {
		path, _ := n.Path(id)
		return path
	}
}
