package probe

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	bxconfig "github.com/prometheus/blackbox_exporter/config"
	"github.com/prometheus/blackbox_exporter/prober"
	"github.com/sre-norns/gantry/pkg/steprun"
	"github.com/sre-norns/gantry/pkg/suite"
)

const Kind = suite.StepProbe

var ErrNoTarget = fmt.Errorf("empty probe target")

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

// RunStep performs a plain HTTP probe against the step target, folding the
// probe's observations into the run's metrics registry
func RunStep(ctx context.Context, step suite.Step, run *steprun.RunContext) (suite.Status, []suite.ArtifactValue, error) {
	if step.Target == "" {
		return suite.StatusErrored, nil, ErrNoTarget
	}

	module := bxconfig.Module{
		HTTP: bxconfig.HTTPProbe{
			IPProtocol:         "ip4",
			IPProtocolFallback: true,
		},
	}

	if success := prober.ProbeHTTP(ctx, step.Target, module, run.Registry, run.Logger); !success {
		return suite.StatusFailed, nil, nil
	}

	return suite.StatusSuccess, nil, nil
}
