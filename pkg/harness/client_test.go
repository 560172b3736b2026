package harness

import (
	"context"
	"net/url"
	"testing"

	"github.com/sre-norns/gantry/pkg/session"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	visited []string
}

func (n *recordingNavigator) Navigate(ctx context.Context, url string) error {
	n.visited = append(n.visited, url)
	return nil
}

func TestBuildAppURL(t *testing.T) {
	client, err := NewClient("http://localhost:8080")
	require.NoError(t, err)

	_, err = client.BuildAppURL("/tasks", nil)
	require.ErrorIs(t, err, session.ErrNoAppPort, "URL building must fail fast without an established app port")

	client.Session().AppPort = 3123

	target, err := client.BuildAppURL("/tasks", url.Values{"filter": []string{"open"}})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:3123/tasks?filter=open&serverPort=3123", target)
}

func TestBuildLaunchpadURL(t *testing.T) {
	client, err := NewClient("http://localhost:8080")
	require.NoError(t, err)

	_, err = client.BuildLaunchpadURL(nil)
	require.Error(t, err)

	client.Session().GqlPort = 4123

	target, err := client.BuildLaunchpadURL(nil)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:4123/launchpad?gqlPort=4123", target)
}

func TestVisitApp_PreconditionBeforeNavigation(t *testing.T) {
	client, err := NewClient("http://localhost:8080")
	require.NoError(t, err)

	nav := &recordingNavigator{}
	err = client.VisitApp(context.Background(), nav, "/tasks", nil)
	require.ErrorIs(t, err, session.ErrNoAppPort)
	require.Empty(t, nav.visited, "the browser must not be touched when the precondition fails")

	client.Session().AppPort = 3123
	require.NoError(t, client.VisitApp(context.Background(), nav, "/tasks", nil))
	require.Len(t, nav.visited, 1)
	require.Contains(t, nav.visited[0], "serverPort=3123")
}

func TestApiURL(t *testing.T) {
	client, err := NewClient("http://localhost:8080")
	require.NoError(t, err)

	testCases := map[string]struct {
		given  string
		expect string
	}{
		"plain":      {given: "session", expect: "http://localhost:8080/api/v1/session"},
		"nested":     {given: "suites/7/runs", expect: "http://localhost:8080/api/v1/suites/7/runs"},
		"with_query": {given: "results/7?version=2", expect: "http://localhost:8080/api/v1/results/7?version=2"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expect, client.apiURL(tc.given))
		})
	}
}
