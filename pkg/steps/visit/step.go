package visit

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sre-norns/gantry/pkg/steprun"
	"github.com/sre-norns/gantry/pkg/suite"
)

const Kind = suite.StepVisit

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

// RunStep opens the app page named by the step target and captures a
// screenshot artifact. When the step names a project, launch arguments are
// reset first so the app port is established; visiting without one fails
// before any browser starts.
func RunStep(ctx context.Context, step suite.Step, run *steprun.RunContext) (suite.Status, []suite.ArtifactValue, error) {
	if step.Project != "" {
		if err := run.Client.ResetLaunch(ctx, "--project", step.Project); err != nil {
			return suite.StatusErrored, nil, err
		}
	}

	path := step.Target
	if path == "" {
		path = "/"
	}

	target, err := run.Client.BuildAppURL(path, nil)
	if err != nil {
		run.Log.Logf("visit precondition not met: %v", err)
		return suite.StatusFailed, nil, nil
	}

	nav := &steprun.ChromeNavigator{
		Headless: run.Options.Browser.Headless,
		PageWait: time.Duration(run.Options.Browser.PageWaitSeconds) * time.Second,
	}

	run.Log.Logf("visiting %s", target)
	shot, err := nav.NavigateAndCapture(ctx, target)
	if err != nil {
		run.Log.Logf("page load failed: %v", err)
		return suite.StatusFailed, nil, nil
	}

	return suite.StatusSuccess, []suite.ArtifactValue{{
		Rel:      "screenshot",
		MimeType: "image/png",
		Content:  shot,
	}}, nil
}
