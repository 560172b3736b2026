package steprun

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sre-norns/gantry/pkg/suite"
	"github.com/stretchr/testify/require"
)

func newTestRun() *RunContext {
	return &RunContext{
		Registry: prometheus.NewRegistry(),
		Log:      &RunLog{},
	}
}

func registerStub(t *testing.T, kind suite.StepKind, fn StepRunFn) {
	t.Helper()
	require.NoError(t, RegisterStepKind(kind, StepRegistration{
		RunFunc: fn,
		Version: "test",
	}))
	t.Cleanup(func() { UnregisterStepKind(kind) })
}

func artifactRels(artifacts []suite.ArtifactValue) []string {
	rels := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		rels = append(rels, artifact.Rel)
	}
	return rels
}

func TestPlay_RunsStepsInOrder(t *testing.T) {
	var visited []string
	registerStub(t, "stub", func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error) {
		visited = append(visited, step.Name)
		return suite.StatusSuccess, []suite.ArtifactValue{{Rel: step.Name}}, nil
	})

	status, artifacts := Play(context.Background(), suite.RunJob{
		Name: "ordered",
		Steps: []suite.Step{
			{Name: "first", Kind: "stub"},
			{Name: "second", Kind: "stub"},
		},
	}, newTestRun())

	require.Equal(t, suite.StatusSuccess, status)
	require.Equal(t, []string{"first", "second"}, visited)

	rels := artifactRels(artifacts)
	require.Contains(t, rels, "first")
	require.Contains(t, rels, "second")
	require.Equal(t, "log", rels[len(rels)-1], "the run log is always the last artifact")
}

func TestPlay_FirstFailureEndsRun(t *testing.T) {
	var visited []string
	registerStub(t, "stub-fail", func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error) {
		visited = append(visited, step.Name)
		return suite.StatusFailed, nil, nil
	})
	registerStub(t, "stub-ok", func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error) {
		visited = append(visited, step.Name)
		return suite.StatusSuccess, nil, nil
	})

	status, _ := Play(context.Background(), suite.RunJob{
		Name: "short-circuit",
		Steps: []suite.Step{
			{Name: "breaks", Kind: "stub-fail"},
			{Name: "never-reached", Kind: "stub-ok"},
		},
	}, newTestRun())

	require.Equal(t, suite.StatusFailed, status)
	require.Equal(t, []string{"breaks"}, visited, "steps after the first failure must not run")
}

func TestPlay_StepErrorMarksRunErrored(t *testing.T) {
	registerStub(t, "stub-err", func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error) {
		return suite.StatusSuccess, nil, fmt.Errorf("browser went away")
	})

	status, _ := Play(context.Background(), suite.RunJob{
		Name: "errored",
		Steps: []suite.Step{
			{Name: "broken", Kind: "stub-err"},
		},
	}, newTestRun())

	require.Equal(t, suite.StatusErrored, status)
}

func TestPlay_TimeoutStatusPropagates(t *testing.T) {
	registerStub(t, "stub-slow", func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error) {
		return suite.StatusTimeout, nil, nil
	})

	status, _ := Play(context.Background(), suite.RunJob{
		Name: "slow",
		Steps: []suite.Step{
			{Name: "stalls", Kind: "stub-slow"},
		},
	}, newTestRun())

	require.Equal(t, suite.StatusTimeout, status)
}

func TestPlay_UnknownStepKind(t *testing.T) {
	status, artifacts := Play(context.Background(), suite.RunJob{
		Name: "mystery",
		Steps: []suite.Step{
			{Name: "unknowable", Kind: "never-registered"},
		},
	}, newTestRun())

	require.Equal(t, suite.StatusErrored, status)
	require.Contains(t, artifactRels(artifacts), "log", "the run log ships even when nothing ran")
}

func TestPlay_MetricsArtifact(t *testing.T) {
	registerStub(t, "stub-metric", func(ctx context.Context, step suite.Step, run *RunContext) (suite.Status, []suite.ArtifactValue, error) {
		counter := prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steps_total",
			Help: "Steps played during the run",
		})
		if err := run.Registry.Register(counter); err != nil {
			return suite.StatusErrored, nil, err
		}
		counter.Inc()
		return suite.StatusSuccess, nil, nil
	})

	status, artifacts := Play(context.Background(), suite.RunJob{
		Name: "measured",
		Steps: []suite.Step{
			{Name: "counted", Kind: "stub-metric"},
		},
	}, newTestRun())

	require.Equal(t, suite.StatusSuccess, status)
	require.Contains(t, artifactRels(artifacts), MetricsRelType, "gathered metrics must ship as an artifact")
}
