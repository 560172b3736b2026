package steprun

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/gantry/pkg/harness"
	"github.com/sre-norns/gantry/pkg/suite"
)

var (
	ErrNilRunner       = fmt.Errorf("step run function is nil")
	ErrUnknownStepKind = fmt.Errorf("no runner registered for step kind")
)

// BrowserOptions configure how visit steps drive their browser
type BrowserOptions struct {
	Headless        bool
	PageWaitSeconds int
}

type HttpOptions struct {
	CaptureResponseBody bool
	CaptureRequestBody  bool
	IgnoreRedirects     bool
}

type RunOptions struct {
	Browser BrowserOptions
	Http    HttpOptions

	WorkingDirectory string
	KeepTempDir      bool
}

// RunContext is what a step runner gets to work with: the harness client
// bound to the run's session, a metrics registry for probe output, and the
// shared run log that becomes an artifact.
type RunContext struct {
	Client   *harness.Client
	Registry *prometheus.Registry
	Log      *RunLog
	Options  RunOptions
	Logger   log.Logger
}

// StepRunFn executes one step of a suite run
type StepRunFn func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error)

type StepRegistration struct {
	// Function to execute a step
	RunFunc StepRunFn

	// Sem-version of the step module loaded
	Version string
}

// Registrar of step runner modules
var kindRunnerMap = map[suite.StepKind]StepRegistration{}

// Register new kind of step
func RegisterStepKind(kind suite.StepKind, info StepRegistration) error {
	if info.RunFunc == nil {
		return ErrNilRunner
	}

	kindRunnerMap[kind] = info
	return nil
}

// Unregister given step kind
func UnregisterStepKind(kind suite.StepKind) {
	delete(kindRunnerMap, kind)
}

// List all registered step runners
// Note: function makes a copy of the module list to avoid accidental modification of registration info
func ListSteps() map[suite.StepKind]StepRegistration {
	result := make(map[suite.StepKind]StepRegistration, len(kindRunnerMap))
	for kind, info := range kindRunnerMap {
		result[kind] = info
	}

	return result
}

func FindRunFunc(kind suite.StepKind) (StepRunFn, bool) {
	result, ok := kindRunnerMap[kind]
	return result.RunFunc, ok
}
