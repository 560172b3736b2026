package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-kit/log"
	"github.com/sre-norns/gantry/pkg/bark"
	"github.com/sre-norns/gantry/pkg/bridge"
	"github.com/sre-norns/gantry/pkg/manifest"
	"github.com/sre-norns/gantry/pkg/session"
	"github.com/sre-norns/gantry/pkg/suite"
)

// Navigator drives a browser to a URL. The chromedp-backed implementation
// lives with the step runners; tests substitute their own.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Client is the test-side half of the harness: a typed REST client that
// mirrors the server session after every call, so URL building and
// precondition checks never leave the test process.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     log.Logger

	sess *session.Session
}

func NewClient(baseURL string) (*Client, error) {
	parsed, err := url.Parse(baseURL)

	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		logger:     log.NewNopLogger(),
		sess:       &session.Session{},
	}, err
}

// WithLogger makes the client report its bridge calls
func (c *Client) WithLogger(logger log.Logger) *Client {
	c.logger = logger
	return c
}

// Session is the client's view of the server session, updated by every
// harness call that touches it
func (c *Client) Session() *session.Session {
	return c.sess
}

func (c *Client) apiURL(path string) string {
	ref, err := url.Parse("api/v1/" + path)
	if err != nil {
		return c.baseURL.JoinPath("api/v1", path).String()
	}

	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest any) error {
	return c.doAuth(ctx, method, path, "", payload, dest)
}

func (c *Client) doAuth(ctx context.Context, method, path, bearer string, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.apiURL(path), body)
	if err != nil {
		return err
	}
	request.Header.Add("Accept", "application/json")
	if payload != nil {
		request.Header.Add("Content-Type", "application/json")
	}
	if bearer != "" {
		request.Header.Add("Authorization", fmt.Sprintf("Bearer %v", bearer))
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errorResponse := &bark.ErrorResponse{
			Code:    resp.StatusCode,
			Message: resp.Status,
		}
		_ = json.NewDecoder(resp.Body).Decode(errorResponse)
		return errorResponse
	}

	if dest == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) applySession(info SessionInfo) {
	c.sess.ID = info.ID
	c.sess.GqlPort = info.GqlPort
	c.sess.AppPort = info.AppPort
	c.sess.Project = info.Project
}

// FetchSession reads the server's view of the current session without
// touching it
func (c *Client) FetchSession(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	err := c.do(ctx, http.MethodGet, "session", nil, &info)
	return info, err
}

// Setup provisions the pre-suite fixtures and records the session
func (c *Client) Setup(ctx context.Context) error {
	var info SessionInfo
	if err := c.do(ctx, http.MethodPost, "setup", nil, &info); err != nil {
		return err
	}

	c.applySession(info)
	return nil
}

// Reset is called at every test boundary: the server provisions a fresh
// isolated context and the client forgets everything about the old one
func (c *Client) Reset(ctx context.Context) error {
	var info SessionInfo
	if err := c.do(ctx, http.MethodPost, "reset", nil, &info); err != nil {
		return err
	}

	c.applySession(info)
	return nil
}

func (c *Client) AddProject(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "projects", AddProjectRequest{Name: name}, nil)
}

// ResetLaunch replaces the launch arguments of the application under test,
// establishing the app port when the argv names a project
func (c *Client) ResetLaunch(ctx context.Context, argv ...string) error {
	var info SessionInfo
	if err := c.do(ctx, http.MethodPut, "launch", LaunchRequest{Argv: argv}, &info); err != nil {
		return err
	}

	c.applySession(info)
	return nil
}

// Bridge ships a callback source to the server for execution against the live
// app context. Remote failures come back as ordinary errors.
func (c *Client) Bridge(ctx context.Context, source string, options ...bridge.CallOption) (json.RawMessage, error) {
	request, timeout, quiet := bridge.Options(source, options...)
	if !quiet {
		name := request.Name
		if name == "" {
			name = bridge.RenderSource(request.Source)
		}
		c.logger.Log("msg", "bridge call", "name", name, "timeout", timeout)
	}

	return c.bridge(ctx, BridgeRequest{
		Name:    request.Name,
		Source:  request.Source,
		Args:    request.Args,
		Timeout: timeout,
	})
}

// BridgeHook invokes a pre-registered hook by name
func (c *Client) BridgeHook(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	return c.bridge(ctx, BridgeRequest{
		Hook: name,
		Args: args,
	})
}

func (c *Client) bridge(ctx context.Context, request BridgeRequest) (json.RawMessage, error) {
	var response bridge.CallResponse
	if err := c.do(ctx, http.MethodPost, "bridge", request, &response); err != nil {
		return nil, err
	}
	if response.Error != nil {
		return nil, response.Error
	}

	return response.Value, nil
}

// InstallIntercept makes the given source the single active GraphQL
// interceptor, reporting whether a prior one was superseded
func (c *Client) InstallIntercept(ctx context.Context, source string) (bool, error) {
	var response InterceptResponse
	err := c.do(ctx, http.MethodPut, "intercept", InterceptRequest{Source: source}, &response)
	return response.Superseded, err
}

func (c *Client) RemoveIntercept(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "intercept", nil, nil)
}

// BuildAppURL renders the address of an app page, carrying the app port in
// the query so the page can find its backend. Fails fast when no app port has
// been established for this session.
func (c *Client) BuildAppURL(path string, extra url.Values) (string, error) {
	port, err := c.sess.RequireAppPort()
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("serverPort", fmt.Sprintf("%d", port))
	for key, values := range extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	u := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("127.0.0.1:%d", port),
		Path:     path,
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// BuildLaunchpadURL renders the address of the launchpad page served by the
// fixture GraphQL endpoint, carrying that endpoint's port in the query
func (c *Client) BuildLaunchpadURL(extra url.Values) (string, error) {
	if c.sess.GqlPort == 0 {
		return "", fmt.Errorf("no fixture endpoint established for this session: run setup first")
	}

	query := url.Values{}
	query.Set("gqlPort", fmt.Sprintf("%d", c.sess.GqlPort))
	for key, values := range extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	u := url.URL{
		Scheme:   "http",
		Host:     fmt.Sprintf("127.0.0.1:%d", c.sess.GqlPort),
		Path:     "/launchpad",
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// RegisterWorker trades a worker registration for its signed credentials
func (c *Client) RegisterWorker(ctx context.Context, registration WorkerRegistration) (string, error) {
	var response WorkerAuthResponse
	err := c.do(ctx, http.MethodPut, "workers", registration, &response)
	return response.Token, err
}

// PostResult posts a run's outcome under the worker's credentials
func (c *Client) PostResult(ctx context.Context, id manifest.VersionedResourceID, bearer string, status suite.Status, artifacts []suite.ArtifactValue) error {
	update := struct {
		Status    suite.Status          `json:"status"`
		Artifacts []suite.ArtifactValue `json:"artifacts,omitempty"`
	}{
		Status:    status,
		Artifacts: artifacts,
	}

	path := fmt.Sprintf("results/%v?version=%v", id.ID, id.Version)
	return c.doAuth(ctx, http.MethodPut, path, bearer, update, nil)
}

// CreateSuite posts a suite manifest to the server
func (c *Client) CreateSuite(ctx context.Context, m manifest.ResourceManifest) (bark.CreatedResponse, error) {
	var created bark.CreatedResponse
	err := c.do(ctx, http.MethodPost, "suites", m, &created)
	return created, err
}

func (c *Client) ListSuites(ctx context.Context, query bark.SearchQuery) ([]suite.Suite, error) {
	var response bark.PaginatedResponse[suite.Suite]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("suites?name=%v&offset=%v&limit=%v", url.QueryEscape(query.Name), query.Offset, query.Limit), nil, &response)
	return response.Data, err
}

func (c *Client) GetSuite(ctx context.Context, id manifest.ResourceID) (suite.Suite, error) {
	var entry suite.Suite
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("suites/%v", id), nil, &entry)
	return entry, err
}

// ScheduleRun asks the server to cut a run of the given suite
func (c *Client) ScheduleRun(ctx context.Context, id manifest.ResourceID) (ScheduleRunResponse, error) {
	var response ScheduleRunResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("suites/%v/runs", id), nil, &response)
	return response, err
}

func (c *Client) ListResults(ctx context.Context, query bark.SearchQuery) ([]suite.Result, error) {
	var response bark.PaginatedResponse[suite.Result]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("results?name=%v&offset=%v&limit=%v", url.QueryEscape(query.Name), query.Offset, query.Limit), nil, &response)
	return response.Data, err
}

func (c *Client) GetResult(ctx context.Context, id manifest.ResourceID) (suite.Result, error) {
	var result suite.Result
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("results/%v", id), nil, &result)
	return result, err
}

func (c *Client) GetArtifact(ctx context.Context, id manifest.ResourceID) (suite.Artifact, error) {
	var artifact suite.Artifact
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("artifacts/%v", id), nil, &artifact)
	return artifact, err
}

// VisitApp drives the navigator to an app page. The precondition check runs
// before any page load is attempted: visiting without an established app port
// is a test-side failure, not a blank page.
func (c *Client) VisitApp(ctx context.Context, nav Navigator, path string, extra url.Values) error {
	target, err := c.BuildAppURL(path, extra)
	if err != nil {
		return err
	}

	return nav.Navigate(ctx, target)
}

// VisitLaunchpad drives the navigator to the launchpad page
func (c *Client) VisitLaunchpad(ctx context.Context, nav Navigator, extra url.Values) error {
	target, err := c.BuildLaunchpadURL(extra)
	if err != nil {
		return err
	}

	return nav.Navigate(ctx, target)
}
