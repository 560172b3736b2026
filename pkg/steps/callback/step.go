package callback

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"

	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/steprun"
	"github.com/sre-norns/gantry/pkg/suite"
)

const Kind = suite.StepBridge

func init() {
	moduleVersion := "devel"
	if bi, ok := debug.ReadBuildInfo(); ok {
		moduleVersion = strings.Trim(bi.Main.Version, "()")
	}

	// Ignore double registration error
	_ = steprun.RegisterStepKind(Kind, steprun.StepRegistration{
		RunFunc: RunStep,
		Version: moduleVersion,
	})
}

// RunStep bridges the step's callback source over to the server for execution
// against the live app context. A remote failure fails the run; a timeout is
// surfaced as its own status.
func RunStep(ctx context.Context, step suite.Step, run *steprun.RunContext) (suite.Status, []suite.ArtifactValue, error) {
	options := []bridge.CallOption{
		bridge.WithName(step.Name),
		bridge.WithArgs(step.Args),
	}
	if step.Timeout > 0 {
		options = append(options, bridge.WithTimeout(step.Timeout))
	}

	value, err := run.Client.Bridge(ctx, step.Source, options...)
	if err != nil {
		run.Log.Logf("bridged callback failed: %v", err)
		var remote *bridge.RemoteError
		if errors.As(err, &remote) && strings.Contains(remote.Message, bridge.ErrCallTimeout.Error()) {
			return suite.StatusTimeout, nil, nil
		}

		return suite.StatusFailed, nil, nil
	}

	run.Log.Logf("bridged callback returned: %s", string(value))
	return suite.StatusSuccess, nil, nil
}
