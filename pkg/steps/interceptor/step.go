package interceptor

import (
	"context"
	"runtime/debug"
	"strings"

	"github.com/sre-norns/gantry/pkg/steprun"
	"github.com/sre-norns/gantry/pkg/suite"
)

const Kind = suite.StepIntercept

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

// RunStep installs the step's interceptor source for the rest of the run.
// Installing over an active interceptor supersedes it.
func RunStep(ctx context.Context, step suite.Step, run *steprun.RunContext) (suite.Status, []suite.ArtifactValue, error) {
	superseded, err := run.Client.InstallIntercept(ctx, step.Source)
	if err != nil {
		run.Log.Logf("failed to install interceptor: %v", err)
		return suite.StatusFailed, nil, nil
	}

	if superseded {
		run.Log.Log("previously active interceptor superseded")
	}

	return suite.StatusSuccess, nil, nil
}
