package steprun

import (
	"context"

	"github.com/sre-norns/gantry/pkg/suite"
)

// Play runs a suite job step by step. The first failure ends the run: later
// steps are never attempted. Whatever artifacts were produced up to that
// point are returned along with the run log.
func Play(ctx context.Context, job suite.RunJob, run *RunContext) (suite.Status, []suite.ArtifactValue) {
	run.Log.Logf("playing %q: %d step(s)", job.Name, len(job.Steps))

	artifacts := make([]suite.ArtifactValue, 0, len(job.Steps)+2)
	status := suite.StatusSuccess

	for _, step := range job.Steps {
		fn, ok := FindRunFunc(step.Kind)
		if !ok {
			run.Log.Logf("step %q: %v: %q", step.Name, ErrUnknownStepKind, step.Kind)
			status = suite.StatusErrored
			break
		}

		run.Log.Logf("step %q (%s)", step.Name, step.Kind)
		stepStatus, stepArtifacts, err := fn(ctx, step, run)
		artifacts = append(artifacts, stepArtifacts...)

		if err != nil {
			run.Log.Logf("step %q errored: %v", step.Name, err)
			status = suite.StatusErrored
			break
		}
		if stepStatus != suite.StatusSuccess {
			run.Log.Logf("step %q finished: %s", step.Name, stepStatus)
			status = stepStatus
			break
		}
	}

	metricsOpts := RegistryOptions{OfferedCompressions: []Compression{Zstd}}
	if metrics, err := MetricsToArtifact(run.Registry, metricsOpts); err == nil && len(metrics.Content) > 0 {
		artifacts = append(artifacts, metrics)
	}

	return status, append(artifacts, run.Log.ToArtifact())
}
