package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kingrea/framereel/internal/assembly"
	"github.com/kingrea/framereel/internal/ffmpeg"
	"github.com/kingrea/framereel/internal/render"
)

// Process exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitConfig      = 2
	exitPartial     = 3
	exitAssembly    = 4
	exitInterrupted = exitError
)

// AssemblyError wraps a failure to plan or run the encoder after frames exist.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string { return fmt.Sprintf("assembly failed: %v", e.Err) }

func (e *AssemblyError) Unwrap() error { return e.Err }

// usageError marks invalid command-line input.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		cfgErr      *render.ConfigurationError
		setupErr    *render.SetupError
		usage       *usageError
		unsupported *assembly.UnsupportedExtensionError
		asmErr      *AssemblyError
		encErr      *ffmpeg.EncodeError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.As(err, &cfgErr), errors.As(err, &setupErr), errors.As(err, &usage), errors.As(err, &unsupported):
		return exitConfig
	case errors.As(err, &asmErr), errors.As(err, &encErr), errors.Is(err, ffmpeg.ErrNotFound):
		return exitAssembly
	}
	return exitError
}
