package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireAppPort(t *testing.T) {
	testCases := map[string]struct {
		given       *Session
		expect      int
		expectError bool
	}{
		"nil_session":   {given: nil, expectError: true},
		"fresh_session": {given: New(), expectError: true},
		"established": {
			given:  &Session{ID: "t", AppPort: 3000},
			expect: 3000,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			port, err := tc.given.RequireAppPort()
			if tc.expectError {
				require.ErrorIs(t, err, ErrNoAppPort)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expect, port)
		})
	}
}

func TestReset_KeepsNothing(t *testing.T) {
	sess := New()
	previousID := sess.ID

	sess.GqlPort = 4000
	sess.AppPort = 3000
	sess.Project = "demo"

	sess.Reset()

	require.NotEqual(t, previousID, sess.ID, "reset must mint a fresh session id")
	require.Zero(t, sess.GqlPort)
	require.Zero(t, sess.AppPort)
	require.Empty(t, sess.Project)

	_, err := sess.RequireAppPort()
	require.ErrorIs(t, err, ErrNoAppPort, "a second reset in a row must behave like the first")
}
