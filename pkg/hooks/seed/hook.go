package seed

import (
	"context"
	"fmt"

	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/hook"
)

const (
	Name    = "seed"
	Version = "0.0.1"
)

var ErrNoStateArg = fmt.Errorf("seed hook requires a %q argument", "state")

func init() {
	if err := hook.Register(Name, hook.Registration{
		RunFunc:     RunHook,
		Version:     Version,
		Description: "pre-seeds the data served to the next app page load",
	}); err != nil {
		panic(fmt.Sprintf("failed to register %q hook: %v", Name, err))
	}
}

// RunHook stores the given state so the next app page load picks it up as its
// injected initial data, sparing the page a fetch round trip
func RunHook(ctx context.Context, call *bridge.Call) (any, error) {
	state, ok := call.Args["state"]
	if !ok {
		return nil, ErrNoStateArg
	}

	if err := call.App.SetInitialState(state); err != nil {
		return nil, err
	}

	return state, nil
}
