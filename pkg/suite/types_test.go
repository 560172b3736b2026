package suite

import (
	"testing"
	"time"

	"github.com/sre-norns/gantry/pkg/manifest"
	"github.com/stretchr/testify/require"
)

func TestCronSchedule_Validate(t *testing.T) {
	testCases := map[string]struct {
		given       CronSchedule
		expectError bool
	}{
		"empty_means_manual": {given: ""},
		"every_minute":       {given: "* * * * *"},
		"nightly":            {given: "0 3 * * *"},
		"macro":              {given: "@hourly"},
		"gibberish":          {given: "whenever", expectError: true},
		"too_few_fields":     {given: "* *", expectError: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := tc.given.Validate()
			if tc.expectError {
				require.ErrorIs(t, err, ErrInvalidCronExpression)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestSpec_Validate(t *testing.T) {
	testCases := map[string]struct {
		given       Spec
		expectError bool
	}{
		"empty": {given: Spec{}},
		"named_steps": {
			given: Spec{
				Steps: []Step{
					{Name: "open", Kind: StepVisit},
					{Name: "seed", Kind: StepBridge},
				},
			},
		},
		"nameless_step": {
			given: Spec{
				Steps: []Step{
					{Kind: StepVisit},
				},
			},
			expectError: true,
		},
		"bad_schedule": {
			given: Spec{
				RunSchedule: CronSchedule("not-cron"),
			},
			expectError: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := tc.given.Validate()
			if tc.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestRunJob_MarshalRoundTrip(t *testing.T) {
	given := NewRunJob(
		Result{
			ObjectMeta: manifest.ObjectMeta{
				UID:     manifest.ResourceID(21),
				Name:    "crud-demo-run-1",
				Version: 1,
				Labels:  manifest.Labels{"trigger": "manual"},
			},
		},
		manifest.ObjectMeta{
			UID:     manifest.ResourceID(7),
			Name:    "crud-demo",
			Version: 3,
			Labels:  manifest.Labels{"app": "web"},
		},
		Spec{
			Requirements: manifest.LabelSelector{
				MatchLabels: manifest.Labels{"worker.os": "linux"},
			},
			Steps: []Step{
				{Name: "open", Kind: StepVisit, Project: "demo"},
				{Name: "check", Kind: StepBridge, Source: "package main", Timeout: 2 * time.Second},
			},
		},
	)

	data, err := MarshalJob(given)
	require.NoError(t, err)

	got, err := UnmarshalJob(data)
	require.NoError(t, err)
	require.Equal(t, given, got)
	require.Equal(t, "crud-demo-run-1", got.ResultName)
	require.Equal(t, manifest.Labels{"app": "web", "trigger": "manual"}, got.Labels)
}

func TestFinalizeRun(t *testing.T) {
	result := Result{Status: StatusRunning}

	FinalizeRun(&result, StatusSuccess, WithArtifacts(ArtifactValue{
		Rel:      "log",
		MimeType: "text/plain",
		Content:  []byte("all good"),
	}))

	require.Equal(t, StatusSuccess, result.Status)
	require.True(t, result.TimeEnded.Valid)
	require.Len(t, result.Artifacts, 1)
	require.Equal(t, "log", result.Artifacts[0].Rel)
}
