package plugins

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strconv"

	"github.com/kingrea/framereel/internal/frames"
)

// TestcardName is the registry name of the builtin test pattern plugin.
const TestcardName = "testcard"

// TestcardBuiltin returns the registration for a plugin that draws a moving
// colour-bar test pattern. It needs no external assets and is useful for
// checking an installation end to end.
func TestcardBuiltin() Builtin {
	return Builtin{
		Name:        TestcardName,
		Description: "animated colour bars with a sweeping marker",
		Options: Options{
			"frames": "48",
			"width":  "320",
			"height": "180",
		},
		New: newTestcard,
	}
}

type testcard struct {
	count  int
	width  int
	height int
}

func newTestcard(opts Options) (Capability, error) {
	count, err := positiveOption(opts, "frames")
	if err != nil {
		return nil, err
	}
	width, err := positiveOption(opts, "width")
	if err != nil {
		return nil, err
	}
	height, err := positiveOption(opts, "height")
	if err != nil {
		return nil, err
	}
	return &testcard{count: count, width: width, height: height}, nil
}

func positiveOption(opts Options, name string) (int, error) {
	n, err := strconv.Atoi(opts[name])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("option %s must be a positive integer, got %q", name, opts[name])
	}
	return n, nil
}

func (t *testcard) Frames() (frames.Set, error) {
	return frames.Range(0, int64(t.count)), nil
}

var testcardBars = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

func (t *testcard) Render(path string, frame frames.ID) error {
	if frame.Kind() != frames.KindInt {
		return fmt.Errorf("testcard: unexpected frame %s", frame)
	}
	n := int(frame.Value().(int64))
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	barWidth := (t.width + len(testcardBars) - 1) / len(testcardBars)
	marker := 0
	if t.count > 1 {
		marker = n * (t.width - 1) / (t.count - 1)
	}
	for x := 0; x < t.width; x++ {
		c := testcardBars[x/barWidth]
		for y := 0; y < t.height; y++ {
			if x == marker || y >= t.height*3/4 && x <= marker {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
				continue
			}
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("testcard: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("testcard: encode %s: %w", path, err)
	}
	return f.Close()
}
