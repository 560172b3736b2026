package hook

import (
	"context"
	"fmt"
	"sort"

	"github.com/sre-norns/gantry/pkg/bridge"
)

var (
	ErrNilRunner   = fmt.Errorf("hook run function is nil")
	ErrUnknownHook = fmt.Errorf("unknown hook")
	ErrDuplicate   = fmt.Errorf("hook name already registered")
)

// RunFn executes a named hook against the live application context.
// Hooks are the pre-registered counterpart to source-carrying callbacks:
// same execution context, no interpretation step.
type RunFn func(ctx context.Context, call *bridge.Call) (any, error)

type Registration struct {
	// Function to execute the hook
	RunFunc RunFn

	// Sem-version of the hook module loaded
	Version string

	// Description shown when listing the surface
	Description string
}

// Registrar of hook modules
var (
	nameRunnerMap = map[string]Registration{}
)

// Register a new named hook
func Register(name string, info Registration) error {
	if info.RunFunc == nil {
		return ErrNilRunner
	}
	if _, exists := nameRunnerMap[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}

	nameRunnerMap[name] = info
	return nil
}

// Unregister a given hook
func Unregister(name string) {
	delete(nameRunnerMap, name)
}

// List all registered hooks
// Note: function makes a copy of the registry to avoid accidental modification of registration info
func List() map[string]Registration {
	result := make(map[string]Registration, len(nameRunnerMap))
	for name, info := range nameRunnerMap {
		result[name] = info
	}

	return result
}

// Names of all registered hooks, sorted for stable output
func Names() []string {
	result := make([]string, 0, len(nameRunnerMap))
	for name := range nameRunnerMap {
		result = append(result, name)
	}
	sort.Strings(result)

	return result
}

func Find(name string) (RunFn, bool) {
	result, ok := nameRunnerMap[name]
	return result.RunFunc, ok
}

// Invoke runs a hook by name, failing fast on unknown names
func Invoke(ctx context.Context, name string, call *bridge.Call) (any, error) {
	fn, ok := Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}

	return fn(ctx, call)
}
