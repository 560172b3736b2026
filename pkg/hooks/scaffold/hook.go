package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/hook"
)

const (
	Name    = "scaffold"
	Version = "0.0.1"
)

var ErrNoProjectArg = fmt.Errorf("scaffold hook requires a %q argument", "project")

func init() {
	if err := hook.Register(Name, hook.Registration{
		RunFunc:     RunHook,
		Version:     Version,
		Description: "registers a test project and lays out its directory skeleton",
	}); err != nil {
		panic(fmt.Sprintf("failed to register %q hook: %v", Name, err))
	}
}

// RunHook registers the named project with the app context and creates its
// directory tree on disk, ready for fixtures to be dropped in
func RunHook(ctx context.Context, call *bridge.Call) (any, error) {
	name, ok := call.Args["project"].(string)
	if !ok || name == "" {
		return nil, ErrNoProjectArg
	}

	project, err := call.App.AddProject(name)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{"src", "data"} {
		if err := os.MkdirAll(filepath.Join(project.Dir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to scaffold project %q: %w", name, err)
		}
	}

	return project, nil
}
