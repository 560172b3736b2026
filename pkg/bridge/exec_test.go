package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/sre-norns/gantry/pkg/appctx"
	"github.com/sre-norns/gantry/pkg/intercept"
	"github.com/stretchr/testify/require"
)

func newTestCall(t *testing.T, args map[string]any) *Call {
	t.Helper()
	app := appctx.New(t.TempDir(), log.NewNopLogger())
	t.Cleanup(func() { _ = app.Close() })

	return &Call{
		App:        app,
		Args:       args,
		Scratch:    app.Scratch(),
		ProjectDir: app.ProjectDir,
	}
}

func TestCheckImports(t *testing.T) {
	testCases := map[string]struct {
		given       string
		expectError error
	}{
		"no_imports": {
			given: "package main\n\nfunc Run() {}\n",
		},
		"allowed": {
			given: "package main\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n\nvar _ = fmt.Sprint(strings.TrimSpace(\"\"))\n",
		},
		"os_rejected": {
			given:       "package main\n\nimport \"os\"\n\nvar _ = os.Args\n",
			expectError: ErrForbiddenImport,
		},
		"network_rejected": {
			given:       "package main\n\nimport \"net/http\"\n\nvar _ = http.Get\n",
			expectError: ErrForbiddenImport,
		},
		"not_main": {
			given:       "package callback\n",
			expectError: ErrNotPackageMain,
		},
		"unparsable": {
			given:       "func Run() {}",
			expectError: ErrSourceCompile,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := CheckImports(tc.given)
			if tc.expectError != nil {
				require.ErrorIs(t, err, tc.expectError)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestExecutor_Run_RoundTrip(t *testing.T) {
	exec := NewExecutor(log.NewNopLogger(), false)
	call := newTestCall(t, map[string]any{"value": "hello there"})

	response := exec.Run(context.Background(), CallRequest{
		Name: "echo",
		Source: `package main

import "github.com/sre-norns/gantry/pkg/bridge"

func Run(call *bridge.Call) (any, error) {
	return call.Args["value"], nil
}
`,
		Args: call.Args,
	}, 0, call)

	require.Nil(t, response.Error)

	var value string
	require.NoError(t, json.Unmarshal(response.Value, &value))
	require.Equal(t, "hello there", value, "value identity must survive the round trip")
}

func TestExecutor_Run_ScratchFlows(t *testing.T) {
	exec := NewExecutor(log.NewNopLogger(), false)
	call := newTestCall(t, nil)

	response := exec.Run(context.Background(), CallRequest{
		Source: `package main

import "github.com/sre-norns/gantry/pkg/bridge"

func Run(call *bridge.Call) (any, error) {
	call.Scratch.Set("greeting", "bonjour")
	return nil, nil
}
`,
	}, 0, call)
	require.Nil(t, response.Error)

	value, ok := call.Scratch.Get("greeting")
	require.True(t, ok, "state set by a callback must be observable afterwards")
	require.Equal(t, "bonjour", value)
}

func TestExecutor_Run_RemoteError(t *testing.T) {
	exec := NewExecutor(log.NewNopLogger(), false)
	call := newTestCall(t, nil)

	response := exec.Run(context.Background(), CallRequest{
		Source: `package main

import (
	"errors"

	"github.com/sre-norns/gantry/pkg/bridge"
)

func Run(call *bridge.Call) (any, error) {
	return nil, errors.New("boom")
}
`,
	}, 0, call)

	require.NotNil(t, response.Error)
	require.Contains(t, response.Error.Message, "boom", "remote failure must carry the original message")
}

func TestExecutor_Run_TimeoutBounded(t *testing.T) {
	exec := NewExecutor(log.NewNopLogger(), false)
	call := newTestCall(t, nil)

	started := time.Now()
	response := exec.Run(context.Background(), CallRequest{
		Source: `package main

import (
	"time"

	"github.com/sre-norns/gantry/pkg/bridge"
)

func Run(call *bridge.Call) (any, error) {
	time.Sleep(3 * time.Second)
	return "too late", nil
}
`,
	}, 50*time.Millisecond, call)

	require.NotNil(t, response.Error)
	require.Contains(t, response.Error.Message, ErrCallTimeout.Error())
	require.Less(t, time.Since(started), time.Second, "a timed out call must not block the caller")
}

func TestCompile_InterceptorEntryPoint(t *testing.T) {
	fn, err := Compile[intercept.Func](`package main

import "github.com/sre-norns/gantry/pkg/intercept"

func Intercept(op *intercept.Operation) (any, error) {
	return op.Name, nil
}
`, "main.Intercept", intercept.Symbols)
	require.NoError(t, err, "an interpreted entry point must satisfy the interceptor signature")

	value, err := fn(&intercept.Operation{Name: "Projects"})
	require.NoError(t, err)
	require.Equal(t, "Projects", value)
}

func TestExecutor_Run_WrongSignature(t *testing.T) {
	exec := NewExecutor(log.NewNopLogger(), false)
	call := newTestCall(t, nil)

	response := exec.Run(context.Background(), CallRequest{
		Source: "package main\n\nfunc Run() {}\n",
	}, 0, call)

	require.NotNil(t, response.Error)
	require.Contains(t, response.Error.Message, ErrWrongSignature.Error())
}

func TestEffectiveTimeout(t *testing.T) {
	testCases := map[string]struct {
		explicit time.Duration
		debug    bool
		expect   time.Duration
	}{
		"default":             {expect: DefaultCallTimeout},
		"debug_stretches":     {debug: true, expect: DebugCallTimeout},
		"explicit_wins":       {explicit: 10 * time.Second, expect: 10 * time.Second},
		"explicit_over_debug": {explicit: 2 * time.Second, debug: true, expect: 2 * time.Second},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expect, EffectiveTimeout(tc.explicit, tc.debug))
		})
	}
}
