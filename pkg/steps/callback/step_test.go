package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/harness"
	"github.com/sre-norns/gantry/pkg/steprun"
	"github.com/sre-norns/gantry/pkg/suite"
	"github.com/stretchr/testify/require"
)

func newStubRun(t *testing.T, response bridge.CallResponse) *steprun.RunContext {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bridge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := harness.NewClient(server.URL)
	require.NoError(t, err)

	return &steprun.RunContext{
		Client: client,
		Log:    &steprun.RunLog{},
	}
}

func TestRunStep_StatusMapping(t *testing.T) {
	testCases := map[string]struct {
		given  bridge.CallResponse
		expect suite.Status
	}{
		"value_returned": {
			given:  bridge.CallResponse{Value: json.RawMessage(`"done"`)},
			expect: suite.StatusSuccess,
		},
		"remote_failure": {
			given:  bridge.CallResponse{Error: &bridge.RemoteError{Message: "assertion failed"}},
			expect: suite.StatusFailed,
		},
		"timeout": {
			given: bridge.CallResponse{Error: &bridge.RemoteError{
				Message: fmt.Sprintf("%v after %v", bridge.ErrCallTimeout, 4*time.Second),
			}},
			expect: suite.StatusTimeout,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			run := newStubRun(t, tc.given)

			status, _, err := RunStep(context.Background(), suite.Step{
				Name:   "check",
				Kind:   Kind,
				Source: "package main",
			}, run)

			require.NoError(t, err)
			require.Equal(t, tc.expect, status)
		})
	}
}
