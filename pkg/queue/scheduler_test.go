package queue

import (
	"context"
	"testing"

	"github.com/sre-norns/gantry/pkg/manifest"
	"github.com/sre-norns/gantry/pkg/suite"
	"github.com/stretchr/testify/require"
)

func TestJobMarshalRoundTrip(t *testing.T) {
	given := suite.RunJob{
		Name:       "crud-demo",
		ResultName: "crud-demo-run-9",
		Steps: []suite.Step{
			{Name: "open", Kind: suite.StepVisit},
		},
	}

	task, err := MarshalJob(given)
	require.NoError(t, err)
	require.Equal(t, TaskType, task.Type())

	got, err := UnmarshalJob(task)
	require.NoError(t, err)
	require.Equal(t, given.Name, got.Name)
	require.Equal(t, given.ResultName, got.ResultName)
	require.Equal(t, given.Steps, got.Steps)
}

func TestSchedule_RejectsEmptySteps(t *testing.T) {
	scheduler := &asynqScheduler{}

	_, err := scheduler.Schedule(context.Background(), suite.Result{}, suite.Suite{
		ObjectMeta: manifest.ObjectMeta{Name: "hollow"},
	})
	require.ErrorIs(t, err, ErrEmptyJobSteps)
}
