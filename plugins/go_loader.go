package plugins

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/kingrea/framereel/internal/frames"
)

const (
	framesFuncName  = "Frames"
	renderFuncName  = "Render"
	initFuncName    = "Init"
	optionsFuncName = "Options"
)

// scriptCapability runs a Go source plugin inside its own yaegi interpreter.
type scriptCapability struct {
	path   string
	frames reflect.Value
	render reflect.Value
}

func openScript(path string, opts Options) (Capability, error) {
	info, err := inspectScript(path)
	if err != nil {
		return nil, err
	}
	i, err := interpretScript(path)
	if err != nil {
		return nil, err
	}
	if info.hasInit {
		fn, err := lookupFunc(i, path, initFuncName)
		if err != nil {
			return nil, err
		}
		if err := invokeInit(fn, opts); err != nil {
			return nil, &InvalidError{Path: path, Reason: fmt.Sprintf("%s: %v", initFuncName, err)}
		}
	}
	framesFn, err := lookupFunc(i, path, framesFuncName)
	if err != nil {
		return nil, err
	}
	renderFn, err := lookupFunc(i, path, renderFuncName)
	if err != nil {
		return nil, err
	}
	if renderFn.Type().NumIn() != 2 || renderFn.Type().In(0).Kind() != reflect.String {
		return nil, &InvalidError{Path: path, Reason: "Render must have signature Render(path string, frame T) [error]"}
	}
	return &scriptCapability{path: path, frames: framesFn, render: renderFn}, nil
}

// scriptOptions evaluates the script and returns what its Options hook declares.
// Scripts without the hook declare no options.
func scriptOptions(path string) (Options, error) {
	info, err := inspectScript(path)
	if err != nil {
		return nil, err
	}
	if !info.hasOptions {
		return Options{}, nil
	}
	i, err := interpretScript(path)
	if err != nil {
		return nil, err
	}
	fn, err := lookupFunc(i, path, optionsFuncName)
	if err != nil {
		return nil, err
	}
	results, err := call(fn, nil)
	if err != nil {
		return nil, &InvalidError{Path: path, Reason: fmt.Sprintf("Options %v", err)}
	}
	if len(results) != 1 {
		return nil, &InvalidError{Path: path, Reason: "Options must return map[string]string"}
	}
	value := results[0]
	if value.Kind() != reflect.Map || value.Type().Key().Kind() != reflect.String {
		return nil, &InvalidError{Path: path, Reason: "Options must return map[string]string"}
	}
	out := make(Options, value.Len())
	iter := value.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = fmt.Sprint(iter.Value().Interface())
	}
	return out, nil
}

func interpretScript(path string) (*interp.Interpreter, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, &InvalidError{Path: path, Reason: "file is empty"}
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	return i, nil
}

func lookupFunc(i *interp.Interpreter, path, name string) (reflect.Value, error) {
	value, err := i.Eval(name)
	if err != nil {
		return reflect.Value{}, &InvalidError{Path: path, Reason: fmt.Sprintf("missing %s: %v", name, err)}
	}
	if !value.IsValid() || value.Kind() != reflect.Func {
		return reflect.Value{}, &InvalidError{Path: path, Reason: name + " is not a function"}
	}
	return value, nil
}

func invokeInit(fn reflect.Value, opts Options) error {
	typ := fn.Type()
	if typ.NumIn() != 1 {
		return fmt.Errorf("must accept a single map[string]string")
	}
	arg := reflect.ValueOf(map[string]string(opts.Clone()))
	if opts == nil {
		arg = reflect.ValueOf(map[string]string{})
	}
	if !arg.Type().AssignableTo(typ.In(0)) {
		if !arg.Type().ConvertibleTo(typ.In(0)) {
			return fmt.Errorf("must accept map[string]string, got %s", typ.In(0))
		}
		arg = arg.Convert(typ.In(0))
	}
	results, err := call(fn, []reflect.Value{arg})
	if err != nil {
		return err
	}
	return errorResult(results)
}

// call invokes an interpreted function, turning a panic into an error.
func call(fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
		}
	}()
	return fn.Call(args), nil
}

func (s *scriptCapability) Frames() (frames.Set, error) {
	results, err := call(s.frames, nil)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %s %w", s.path, framesFuncName, err)
	}
	if len(results) == 0 || len(results) > 2 {
		return nil, fmt.Errorf("plugin: %s: %s must return ([]T[, error])", s.path, framesFuncName)
	}
	if len(results) == 2 {
		if err := errorResult(results[1:]); err != nil {
			return nil, fmt.Errorf("plugin: %s: %s: %w", s.path, framesFuncName, err)
		}
	}
	list := results[0]
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return nil, fmt.Errorf("plugin: %s: %s must return a slice, got %s", s.path, framesFuncName, list.Kind())
	}
	out := make(frames.Set, 0, list.Len())
	for idx := 0; idx < list.Len(); idx++ {
		id, err := frames.NewID(list.Index(idx).Interface())
		if err != nil {
			return nil, fmt.Errorf("plugin: %s: frame[%d]: %w", s.path, idx, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *scriptCapability) Render(path string, frame frames.ID) error {
	arg, err := frameArg(frame, s.render.Type().In(1))
	if err != nil {
		return fmt.Errorf("plugin: %s: frame %s: %w", s.path, frame, err)
	}
	return errorResult(s.render.Call([]reflect.Value{reflect.ValueOf(path), arg}))
}

// frameArg converts a frame id to the parameter type the script declared.
func frameArg(frame frames.ID, param reflect.Type) (reflect.Value, error) {
	value := reflect.ValueOf(frame.Value())
	if param.Kind() == reflect.Interface {
		if !value.Type().Implements(param) {
			return reflect.Value{}, fmt.Errorf("cannot pass %s as %s", value.Type(), param)
		}
		out := reflect.New(param).Elem()
		out.Set(value)
		return out, nil
	}
	switch {
	case isFloat(value.Kind()) && isInteger(param.Kind()):
		out := value.Convert(param)
		back := out.Convert(value.Type()).Float()
		if back != value.Float() {
			return reflect.Value{}, fmt.Errorf("cannot pass %v as %s without losing precision", value.Interface(), param)
		}
		return out, nil
	case isNumeric(value.Kind()) && isNumeric(param.Kind()):
		return value.Convert(param), nil
	case value.Kind() == reflect.String && param.Kind() == reflect.String:
		return value.Convert(param), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot pass %s as %s", value.Type(), param)
}

func isNumeric(k reflect.Kind) bool { return isInteger(k) || isFloat(k) }

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

// errorResult extracts the error from a call returning nothing or a single error.
func errorResult(results []reflect.Value) error {
	if len(results) == 0 {
		return nil
	}
	last := results[len(results)-1]
	if last.Kind() != reflect.Interface || last.IsNil() {
		return nil
	}
	if err, ok := last.Interface().(error); ok {
		return err
	}
	return fmt.Errorf("returned non-error value %v", last.Interface())
}
