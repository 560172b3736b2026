package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"reflect"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

var (
	ErrSourceCompile   = fmt.Errorf("failed to compile callback source")
	ErrNoEntryPoint    = fmt.Errorf("callback source declares no entry point")
	ErrWrongSignature  = fmt.Errorf("callback entry point has wrong signature")
	ErrForbiddenImport = fmt.Errorf("callback imports a package outside of the allowed set")
	ErrNotPackageMain  = fmt.Errorf("callback source must be in package main")
)

// RunFunc is the required shape of a bridged callback's entry point
type RunFunc = func(call *Call) (any, error)

// allowedImports is the closed set of packages a callback may import: pure
// data-wrangling parts of the standard library plus the harness packages bound
// into the interpreter. Anything touching the OS, network or process stays out.
var allowedImports = map[string]bool{
	"bytes":           true,
	"encoding/base64": true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"math":            true,
	"math/rand":       true,
	"path":            true,
	"regexp":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"time":            true,
	"unicode":         true,
	"unicode/utf8":    true,

	"github.com/sre-norns/gantry/pkg/bridge":    true,
	"github.com/sre-norns/gantry/pkg/appctx":    true,
	"github.com/sre-norns/gantry/pkg/intercept": true,
}

// CheckImports parses the source down to its import block and rejects anything
// outside the allowed set before the interpreter ever sees it
func CheckImports(source string) error {
	file, err := parser.ParseFile(token.NewFileSet(), "callback.go", source, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceCompile, err)
	}
	if file.Name.Name != "main" {
		return ErrNotPackageMain
	}

	for _, spec := range file.Imports {
		path := strings.Trim(spec.Path.Value, `"`)
		if !allowedImports[path] {
			return fmt.Errorf("%w: %q", ErrForbiddenImport, path)
		}
	}

	return nil
}

// Compile interprets a callback source and extracts its entry point as a typed
// function. The same machinery serves bridge callbacks (main.Run) and GraphQL
// interceptors (main.Intercept), they differ only in T and entry name.
func Compile[T any](source, entry string, extras ...map[string]map[string]reflect.Value) (T, error) {
	var zero T

	if err := CheckImports(source); err != nil {
		return zero, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrSourceCompile, err)
	}
	if err := i.Use(Symbols); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrSourceCompile, err)
	}
	for _, symbols := range extras {
		if err := i.Use(symbols); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrSourceCompile, err)
		}
	}

	if _, err := i.Eval(source); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrSourceCompile, err)
	}

	value, err := i.Eval(entry)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrNoEntryPoint, err)
	}

	fn, ok := value.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T", ErrWrongSignature, entry, value.Interface())
	}

	return fn, nil
}

// Executor runs bridged callbacks against the live application context
type Executor struct {
	logger log.Logger
	debug  bool
	extras []map[string]map[string]reflect.Value
}

func NewExecutor(logger log.Logger, debug bool, extras ...map[string]map[string]reflect.Value) *Executor {
	return &Executor{
		logger: logger,
		debug:  debug,
		extras: extras,
	}
}

type runResult struct {
	value any
	err   error
	stack string
}

// Run compiles and executes one bridged callback, honoring the timeout policy.
// A callback that outlives its deadline is abandoned, not interrupted: the
// goroutine drains on its own and its result is discarded.
func (e *Executor) Run(ctx context.Context, request CallRequest, timeout time.Duration, call *Call) CallResponse {
	timeout = EffectiveTimeout(timeout, e.debug)
	name := request.Name
	if name == "" {
		name = RenderSource(request.Source)
	}

	e.logger.Log("msg", "bridge call", "name", name, "timeout", timeout, "args", len(request.Args))

	fn, err := Compile[RunFunc](request.Source, "main.Run", e.extras...)
	if err != nil {
		return CallResponse{Error: &RemoteError{Message: err.Error()}}
	}

	deadline, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{
					err:   fmt.Errorf("callback panicked: %v", r),
					stack: string(debug.Stack()),
				}
			}
		}()

		value, err := fn(call)
		done <- runResult{value: value, err: err}
	}()

	select {
	case result := <-done:
		return e.respond(name, result)
	case <-deadline.Done():
		e.logger.Log("msg", "bridge call abandoned", "name", name, "timeout", timeout)
		return CallResponse{Error: &RemoteError{
			Message: fmt.Sprintf("%v after %v", ErrCallTimeout, timeout),
		}}
	}
}

func (e *Executor) respond(name string, result runResult) CallResponse {
	if result.err != nil {
		e.logger.Log("msg", "bridge call failed", "name", name, "err", result.err)
		return CallResponse{Error: &RemoteError{
			Message: result.err.Error(),
			Stack:   result.stack,
		}}
	}

	value, err := json.Marshal(result.value)
	if err != nil {
		return CallResponse{Error: &RemoteError{
			Message: fmt.Sprintf("callback returned an unserializable value: %v", err),
		}}
	}

	e.logger.Log("msg", "bridge call done", "name", name)

	return CallResponse{Value: value}
}

const renderedSourceLimit = 96

// RenderSource flattens a callback source into a single log-friendly line
func RenderSource(source string) string {
	rendered := strings.Join(strings.Fields(source), " ")
	if len(rendered) > renderedSourceLimit {
		rendered = rendered[:renderedSourceLimit] + "..."
	}

	return rendered
}
