package bridge

import (
	"reflect"

	"github.com/sre-norns/gantry/pkg/appctx"
)

// Call is the execution context injected into a bridged callback: a handle to
// the live application state plus a small set of helpers. It is scoped to a
// single invocation and not retained afterwards.
type Call struct {
	// App is the live application context owned by the harness server
	App *appctx.Context

	// Args is the caller's option bag
	Args map[string]any

	// Scratch is per-test scratch state shared between callbacks
	Scratch *appctx.Scratch

	// ProjectDir resolves a registered test project's directory
	ProjectDir func(name string) (string, error)
}

// Arg fetches one value from the option bag
func (c *Call) Arg(key string) (any, bool) {
	value, ok := c.Args[key]
	return value, ok
}

// Symbols exposes this package to interpreted callback sources.
// The map layout follows yaegi's extract format.
var Symbols = map[string]map[string]reflect.Value{
	"github.com/sre-norns/gantry/pkg/bridge/bridge": {
		"Call": reflect.ValueOf((*Call)(nil)),
	},
}
