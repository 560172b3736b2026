package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	testCases := map[string]struct {
		given       []string
		expect      Args
		expectError bool
	}{
		"empty": {
			given:  nil,
			expect: Args{},
		},
		"project_only": {
			given: []string{"--project", "crud-demo"},
			expect: Args{
				Argv:    []string{"--project", "crud-demo"},
				Project: "crud-demo",
			},
		},
		"full_set": {
			given: []string{"--project", "crud-demo", "--browser", "chrome", "--headless", "--env", "MODE=ci"},
			expect: Args{
				Argv:     []string{"--project", "crud-demo", "--browser", "chrome", "--headless", "--env", "MODE=ci"},
				Project:  "crud-demo",
				Browser:  "chrome",
				Headless: true,
				Env:      map[string]string{"MODE": "ci"},
			},
		},
		"unknown_flags_preserved": {
			given: []string{"--project", "demo", "--turbo", "on"},
			expect: Args{
				Argv:    []string{"--project", "demo", "--turbo", "on"},
				Project: "demo",
				Extra:   []string{"--turbo", "on"},
			},
		},
		"dangling_value": {
			given:       []string{"--project"},
			expectError: true,
		},
		"malformed_env": {
			given:       []string{"--env", "MODE"},
			expectError: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseArgv(tc.given)
			if tc.expectError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expect, got)
		})
	}
}

func TestToArgv_RoundTrip(t *testing.T) {
	given := Args{
		Project:  "demo",
		Browser:  "chrome",
		Headless: true,
		Extra:    []string{"--turbo"},
	}

	reparsed, err := ParseArgv(given.ToArgv())
	require.NoError(t, err)
	require.Equal(t, given.Project, reparsed.Project)
	require.Equal(t, given.Browser, reparsed.Browser)
	require.Equal(t, given.Headless, reparsed.Headless)
	require.Equal(t, given.Extra, reparsed.Extra)
}
