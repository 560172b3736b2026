package state

import (
	"context"
	"fmt"

	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/hook"
)

const (
	Name    = "state"
	Version = "0.0.1"
)

func init() {
	if err := hook.Register(Name, hook.Registration{
		RunFunc:     RunHook,
		Version:     Version,
		Description: "snapshots the live application state for assertions",
	}); err != nil {
		panic(fmt.Sprintf("failed to register %q hook: %v", Name, err))
	}
}

// Snapshot of the observable application state at one point in time
type Snapshot struct {
	SessionID    string         `json:"sessionId" yaml:"sessionId"`
	Project      string         `json:"project,omitempty" yaml:"project,omitempty"`
	AppPort      int            `json:"appPort,omitempty" yaml:"appPort,omitempty"`
	GqlPort      int            `json:"gqlPort,omitempty" yaml:"gqlPort,omitempty"`
	Projects     []string       `json:"projects,omitempty" yaml:"projects,omitempty"`
	Scratch      map[string]any `json:"scratch,omitempty" yaml:"scratch,omitempty"`
	Intercepting bool           `json:"intercepting" yaml:"intercepting"`
}

// RunHook captures session, projects and scratch state in a single round trip
func RunHook(ctx context.Context, call *bridge.Call) (any, error) {
	sess := call.App.Session()

	return Snapshot{
		SessionID:    sess.ID,
		Project:      sess.Project,
		AppPort:      sess.AppPort,
		GqlPort:      sess.GqlPort,
		Projects:     call.App.Projects(),
		Scratch:      call.Scratch.Snapshot(),
		Intercepting: call.App.Interceptor().Active() != nil,
	}, nil
}
