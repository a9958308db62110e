package render

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/kingrea/framereel/internal/frames"
	"github.com/kingrea/framereel/plugins"
)

// ConfigurationError aborts a run before any frame is rendered.
type ConfigurationError struct {
	Kind string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Kind, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// RenderTaskError records why a single frame failed to render.
type RenderTaskError struct {
	Frame frames.ID
	Err   error
	// Stack is set when the plugin panicked.
	Stack []byte
}

func (e *RenderTaskError) Error() string {
	return fmt.Sprintf("render frame %s: %v", e.Frame, e.Err)
}

func (e *RenderTaskError) Unwrap() error { return e.Err }

// SetupError reports a worker that could not construct its plugin instance.
type SetupError struct {
	Worker string
	Err    error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("worker %s setup: %v", e.Worker, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// PanicError is a panic raised by plugin code outside a frame render.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// protect runs fn and returns a *PanicError if it panics.
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func configurationError(err error) error {
	if err == nil {
		return nil
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}
	return &ConfigurationError{Kind: classify(err), Err: err}
}

func classify(err error) string {
	var (
		unknown  *frames.UnknownFrameError
		mixed    *frames.InhomogeneousFramesError
		exists   *frames.OutputExistsError
		notFound *plugins.NotFoundError
		invalid  *plugins.InvalidError
		panicked *PanicError
	)
	switch {
	case errors.As(err, &unknown):
		return "UnknownFrameError"
	case errors.As(err, &mixed):
		return "InhomogeneousFramesError"
	case errors.As(err, &exists):
		return "OutputExistsError"
	case errors.Is(err, plugins.ErrNoPlugin):
		return "NoPlugin"
	case errors.As(err, &notFound):
		return "PluginNotFound"
	case errors.As(err, &invalid), errors.As(err, &panicked):
		return "InvalidPlugin"
	}
	return "InvalidConfiguration"
}

// NewConfigurationError wraps err with the kind derived from its type.
func NewConfigurationError(err error) error { return configurationError(err) }
