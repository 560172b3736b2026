package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/sre-norns/gantry/pkg/appctx"
	"github.com/sre-norns/gantry/pkg/bark"
	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/intercept"
	"github.com/sre-norns/gantry/pkg/token"
	"github.com/stretchr/testify/require"

	_ "github.com/sre-norns/gantry/pkg/hooks/seed"
	_ "github.com/sre-norns/gantry/pkg/hooks/state"
)

func newTestHarness(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.NewNopLogger()
	app := appctx.New(t.TempDir(), logger)
	t.Cleanup(func() { _ = app.Close() })

	exec := bridge.NewExecutor(logger, false, appctx.Symbols, intercept.Symbols)
	issuer := token.NewIssuer("test-secret", time.Hour)

	srv := NewService(app, exec, nil, nil, issuer, logger)
	server := httptest.NewServer(Routes(srv))
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	return client
}

func gqlQuery(t *testing.T, port int, query string) map[string]any {
	t.Helper()

	payload, err := json.Marshal(map[string]any{"query": query})
	require.NoError(t, err)

	resp, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/graphql", port), "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestHarness_SetupEstablishesSession(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))
	require.NotEmpty(t, client.Session().ID)
	require.NotZero(t, client.Session().GqlPort)
	require.Zero(t, client.Session().AppPort, "no app port until launch args name a project")

	// Setup is idempotent within a session
	port := client.Session().GqlPort
	require.NoError(t, client.Setup(ctx))
	require.Equal(t, port, client.Session().GqlPort)
}

func TestHarness_LaunchEstablishesAppPort(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))
	require.NoError(t, client.AddProject(ctx, "demo"))
	require.NoError(t, client.ResetLaunch(ctx, "--project", "demo"))

	require.NotZero(t, client.Session().AppPort)
	require.Equal(t, "demo", client.Session().Project)

	_, err := client.BuildAppURL("/", nil)
	require.NoError(t, err)
}

func TestHarness_LaunchUnknownProject(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	err := client.ResetLaunch(ctx, "--project", "ghost")
	require.Error(t, err)

	var apiErr *bark.ErrorResponse
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Code)

	require.Zero(t, client.Session().AppPort, "a failed launch must not establish an app port")
}

func TestHarness_BridgeRoundTrip(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	value, err := client.Bridge(ctx, `package main

import "github.com/sre-norns/gantry/pkg/bridge"

func Run(call *bridge.Call) (any, error) {
	return call.Args["payload"], nil
}
`, bridge.WithArg("payload", map[string]any{"answer": float64(42)}))
	require.NoError(t, err)
	require.JSONEq(t, `{"answer":42}`, string(value))
}

func TestHarness_BridgeStateFlows(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	_, err := client.Bridge(ctx, `package main

import "github.com/sre-norns/gantry/pkg/bridge"

func Run(call *bridge.Call) (any, error) {
	call.Scratch.Set("written-by", "first callback")
	return nil, nil
}
`)
	require.NoError(t, err)

	value, err := client.Bridge(ctx, `package main

import "github.com/sre-norns/gantry/pkg/bridge"

func Run(call *bridge.Call) (any, error) {
	v, _ := call.Scratch.Get("written-by")
	return v, nil
}
`)
	require.NoError(t, err)

	var got string
	require.NoError(t, json.Unmarshal(value, &got))
	require.Equal(t, "first callback", got, "state set by one callback must be observable by the next")
}

func TestHarness_BridgeRemoteError(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	_, err := client.Bridge(ctx, `package main

import (
	"errors"

	"github.com/sre-norns/gantry/pkg/bridge"
)

func Run(call *bridge.Call) (any, error) {
	return nil, errors.New("deliberate failure")
}
`)

	var remote *bridge.RemoteError
	require.ErrorAs(t, err, &remote, "a remote failure must come back as a remote error, not a transport one")
	require.Contains(t, remote.Message, "deliberate failure")
}

func TestHarness_BridgeTimeoutBounded(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	started := time.Now()
	_, err := client.Bridge(ctx, `package main

import (
	"time"

	"github.com/sre-norns/gantry/pkg/bridge"
)

func Run(call *bridge.Call) (any, error) {
	time.Sleep(10 * time.Second)
	return nil, nil
}
`, bridge.WithTimeout(100*time.Millisecond))

	var remote *bridge.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Contains(t, remote.Message, bridge.ErrCallTimeout.Error())
	require.Less(t, time.Since(started), 2*time.Second, "a timed out callback must not hold up the caller")
}

func TestHarness_BridgeHooks(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	_, err := client.BridgeHook(ctx, "seed", map[string]any{
		"state": map[string]any{"tasks": []string{"write tests"}},
	})
	require.NoError(t, err)

	value, err := client.BridgeHook(ctx, "state", nil)
	require.NoError(t, err)

	var snapshot map[string]any
	require.NoError(t, json.Unmarshal(value, &snapshot))
	require.Equal(t, client.Session().ID, snapshot["sessionId"])
}

func TestHarness_BridgeUnknownHook(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	_, err := client.BridgeHook(ctx, "never-registered", nil)
	require.Error(t, err)

	var apiErr *bark.ErrorResponse
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestHarness_Intercept(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))
	gqlPort := client.Session().GqlPort

	// Without interception the builtin resolver answers
	response := gqlQuery(t, gqlPort, "query Projects { projects }")
	require.Contains(t, response, "data")

	superseded, err := client.InstallIntercept(ctx, `package main

import "github.com/sre-norns/gantry/pkg/intercept"

func Intercept(op *intercept.Operation) (any, error) {
	return map[string]any{"projects": []string{"mocked"}}, nil
}
`)
	require.NoError(t, err)
	require.False(t, superseded, "first install has nothing to supersede")

	response = gqlQuery(t, gqlPort, "query Projects { projects }")
	require.JSONEq(t, `{"projects":["mocked"]}`, mustMarshal(t, response["data"]))

	// A second install supersedes the first: one interceptor at a time
	superseded, err = client.InstallIntercept(ctx, `package main

import "github.com/sre-norns/gantry/pkg/intercept"

func Intercept(op *intercept.Operation) (any, error) {
	return map[string]any{"projects": []string{"second"}}, nil
}
`)
	require.NoError(t, err)
	require.True(t, superseded)

	response = gqlQuery(t, gqlPort, "query Projects { projects }")
	require.JSONEq(t, `{"projects":["second"]}`, mustMarshal(t, response["data"]))

	// Removal restores the original handling path
	require.NoError(t, client.RemoveIntercept(ctx))
	response = gqlQuery(t, gqlPort, "query Projects { projects }")
	require.JSONEq(t, `{"projects":[]}`, mustMarshal(t, response["data"]))
}

func TestHarness_InterceptRejectsBadSource(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	_, err := client.InstallIntercept(ctx, "package main\n\nfunc Intercept() {}\n")
	require.Error(t, err)

	var apiErr *bark.ErrorResponse
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Code)
}

func TestHarness_ResetIsolation(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))
	require.NoError(t, client.AddProject(ctx, "demo"))
	require.NoError(t, client.ResetLaunch(ctx, "--project", "demo"))

	_, err := client.Bridge(ctx, `package main

import "github.com/sre-norns/gantry/pkg/bridge"

func Run(call *bridge.Call) (any, error) {
	call.Scratch.Set("leftover", true)
	return nil, nil
}
`)
	require.NoError(t, err)

	_, err = client.InstallIntercept(ctx, `package main

import "github.com/sre-norns/gantry/pkg/intercept"

func Intercept(op *intercept.Operation) (any, error) {
	return "mock", nil
}
`)
	require.NoError(t, err)

	previousID := client.Session().ID
	require.NoError(t, client.Reset(ctx))

	require.NotEqual(t, previousID, client.Session().ID, "reset must mint a fresh session")
	require.NotZero(t, client.Session().GqlPort, "reset re-provisions the fixtures")
	require.Zero(t, client.Session().AppPort)
	require.Empty(t, client.Session().Project)

	value, err := client.BridgeHook(ctx, "state", nil)
	require.NoError(t, err)

	var snapshot struct {
		Projects     []string       `json:"projects"`
		Scratch      map[string]any `json:"scratch"`
		Intercepting bool           `json:"intercepting"`
	}
	require.NoError(t, json.Unmarshal(value, &snapshot))
	require.Empty(t, snapshot.Projects, "projects must not survive the reset")
	require.Empty(t, snapshot.Scratch, "scratch state must not survive the reset")
	require.False(t, snapshot.Intercepting, "interceptors must not survive the reset")
}

func TestHarness_AmbiguousBridgeRequest(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	require.NoError(t, client.Setup(ctx))

	// Neither hook nor source, then both at once
	for _, request := range []BridgeRequest{
		{},
		{Hook: "state", Source: "package main"},
	} {
		_, err := client.bridge(ctx, request)
		require.Error(t, err)

		var apiErr *bark.ErrorResponse
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusConflict, apiErr.Code)
	}
}

func TestHarness_WorkerRegistration(t *testing.T) {
	client := newTestHarness(t)
	ctx := context.Background()

	bearer, err := client.RegisterWorker(ctx, WorkerRegistration{
		Name:   "worker-1",
		Labels: map[string]string{"worker.os": "linux"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, bearer)
}

func mustMarshal(t *testing.T, value any) string {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return string(data)
}
