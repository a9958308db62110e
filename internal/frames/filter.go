package frames

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// NameFunc maps a frame to its output file path.
type NameFunc func(ID) string

// Policy decides what happens to frames whose output file already exists.
type Policy int

const (
	// PolicyNormal refuses to touch existing output files.
	PolicyNormal Policy = iota
	// PolicySkipExisting drops frames whose output exists. The existing file's
	// content is not checked.
	PolicySkipExisting
	// PolicyOverwrite schedules every frame; the plugin replaces files.
	PolicyOverwrite
)

func (p Policy) String() string {
	switch p {
	case PolicySkipExisting:
		return "skip-existing"
	case PolicyOverwrite:
		return "overwrite"
	default:
		return "normal"
	}
}

// PolicyFor derives the policy from the two command-line switches.
func PolicyFor(skipExisting, overwrite bool) (Policy, error) {
	switch {
	case skipExisting && overwrite:
		return PolicyNormal, errors.New("frames: --skip-existing and --overwrite are mutually exclusive")
	case skipExisting:
		return PolicySkipExisting, nil
	case overwrite:
		return PolicyOverwrite, nil
	default:
		return PolicyNormal, nil
	}
}

// OutputExistsError is returned under PolicyNormal when a frame's output file
// is already on disk.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("frames: output %s already exists (use --overwrite or --skip-existing)", e.Path)
}

// Filter narrows frames to those that need rendering under policy. It returns
// the scheduled frames and, for PolicySkipExisting, the frames left out
// because their output exists. Only existence is checked; nothing is written.
func Filter(frames Set, nameOf NameFunc, policy Policy) (scheduled, skipped Set, err error) {
	if policy == PolicyOverwrite {
		return frames.Clone(), Set{}, nil
	}
	scheduled = make(Set, 0, len(frames))
	skipped = Set{}
	for _, id := range frames {
		path := nameOf(id)
		if strings.TrimSpace(path) == "" {
			return nil, nil, fmt.Errorf("frames: no output path for frame %s", id)
		}
		exists, err := fileExists(path)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			scheduled = append(scheduled, id)
			continue
		}
		if policy == PolicyNormal {
			return nil, nil, &OutputExistsError{Path: path}
		}
		skipped = append(skipped, id)
	}
	return scheduled, skipped, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("frames: stat %s: %w", path, err)
}
