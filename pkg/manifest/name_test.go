package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	testCases := map[string]struct {
		given       string
		expectError bool
	}{
		"simple":          {given: "demo"},
		"with_dashes":     {given: "crud-demo-2"},
		"subdomain_style": {given: "demo.example"},
		"empty":           {given: "", expectError: true},
		"leading_dash":    {given: "-demo", expectError: true},
		"uppercase":       {given: "Demo", expectError: true},
		"spaces":          {given: "crud demo", expectError: true},
		"path_like":       {given: "../etc/passwd", expectError: true},
		"too_long":        {given: strings.Repeat("a", 300), expectError: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := ValidateName(tc.given)
			if tc.expectError {
				require.ErrorIs(t, err, ErrInvalidResourceName)
				return
			}

			require.NoError(t, err)
		})
	}
}
