// Package assembly turns a numbered frame sequence into a fully specified
// encode request. It never runs the encoder itself.
package assembly

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/framereel/internal/frames"
)

// DefaultFPS is used when no frame rate is given.
const DefaultFPS = 25

// Codecs maps a container extension to the video codec used when none is
// requested explicitly.
var Codecs = map[string]string{
	".mp4":  "libx264",
	".mkv":  "libx264",
	".mov":  "libx264",
	".webm": "libvpx-vp9",
	".avi":  "mpeg4",
	".ogv":  "libtheora",
	".gif":  "gif",
}

// UnsupportedExtensionError is returned when no codec was requested and the
// container extension has no default.
type UnsupportedExtensionError struct {
	Extension string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("assembly: no default codec for extension %q (supported: %s); pass a codec explicitly",
		e.Extension, strings.Join(SupportedExtensions(), ", "))
}

// SupportedExtensions lists the extensions with a default codec, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(Codecs))
	for ext := range Codecs {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// CodecFor resolves the codec: the requested one when set, else the default
// for ext.
func CodecFor(requested, ext string) (string, error) {
	if codec := strings.TrimSpace(requested); codec != "" {
		return codec, nil
	}
	ext = strings.ToLower(frames.SanitizeExtension(ext))
	codec, ok := Codecs[ext]
	if !ok {
		return "", &UnsupportedExtensionError{Extension: ext}
	}
	return codec, nil
}

// Metadata is embedded in the container as global tags.
type Metadata struct {
	Author  string `yaml:"author"`
	Title   string `yaml:"title"`
	Comment string `yaml:"comment"`
}

// Tag is one key=value container tag.
type Tag struct {
	Key   string
	Value string
}

// Tags returns the non-empty metadata fields using the container tag names.
func (m Metadata) Tags() []Tag {
	var tags []Tag
	for _, tag := range []Tag{{"artist", m.Author}, {"title", m.Title}, {"comment", m.Comment}} {
		if strings.TrimSpace(tag.Value) != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Options configures the output video.
type Options struct {
	OutputDir string
	// MovieName is the output file name without extension.
	MovieName string
	Extension string
	Codec     string
	FPS       int
	Metadata  Metadata
}

// EncodeRequest is everything the encoder needs.
type EncodeRequest struct {
	// InputPattern is a printf-style path such as out/%03d.png.
	InputPattern string
	FPS          int
	Codec        string
	OutputPath   string
	Metadata     Metadata
}

// Plan builds the request for the frames named by nameFormat inside
// opts.OutputDir. nameFormat is used unchanged, whether it came from a render
// run or was supplied by the user.
func Plan(nameFormat string, opts Options) (EncodeRequest, error) {
	nameFormat = strings.TrimSpace(nameFormat)
	if nameFormat == "" {
		return EncodeRequest{}, fmt.Errorf("assembly: frame name format is required")
	}
	if !strings.Contains(nameFormat, "%") {
		return EncodeRequest{}, fmt.Errorf("assembly: frame name format %q has no numeric placeholder", nameFormat)
	}
	fps := opts.FPS
	if fps == 0 {
		fps = DefaultFPS
	}
	if fps < 0 {
		return EncodeRequest{}, fmt.Errorf("assembly: fps must be positive, got %d", fps)
	}
	name := strings.TrimSpace(opts.MovieName)
	if name == "" {
		return EncodeRequest{}, fmt.Errorf("assembly: movie name is required")
	}
	ext := frames.SanitizeExtension(opts.Extension)
	codec, err := CodecFor(opts.Codec, ext)
	if err != nil {
		return EncodeRequest{}, err
	}
	return EncodeRequest{
		InputPattern: filepath.Join(opts.OutputDir, nameFormat),
		FPS:          fps,
		Codec:        codec,
		OutputPath:   filepath.Join(opts.OutputDir, name+ext),
		Metadata:     opts.Metadata,
	}, nil
}
