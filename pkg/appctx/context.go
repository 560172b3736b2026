package appctx

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"sync"

	"github.com/go-kit/log"
	"github.com/google/martian/har"
	"github.com/sre-norns/gantry/pkg/intercept"
	"github.com/sre-norns/gantry/pkg/manifest"
	"github.com/sre-norns/gantry/pkg/session"
)

var (
	ErrUnknownProject = fmt.Errorf("unknown test project")
	ErrNoProjectOpen  = fmt.Errorf("no test project is open")
)

// Project is a named test project registered with the app context
type Project struct {
	Name string `json:"name" yaml:"name"`
	Dir  string `json:"dir" yaml:"dir"`
	Open bool   `json:"open" yaml:"open"`
}

// Context is the live application state owned by the harness server: the
// object bridged callbacks execute against. One context is alive at a time;
// the per-test reset tears it down and provisions a fresh one.
type Context struct {
	mu sync.Mutex

	sess         *session.Session
	scratch      *Scratch
	projects     map[string]*Project
	projectsRoot string
	initialState json.RawMessage

	interceptor *intercept.Slot
	traffic     *har.Logger

	gql *endpoint
	app *endpoint

	logger log.Logger
}

func New(projectsRoot string, logger log.Logger) *Context {
	return &Context{
		sess:         session.New(),
		scratch:      NewScratch(),
		projects:     make(map[string]*Project),
		projectsRoot: projectsRoot,
		interceptor:  &intercept.Slot{},
		traffic:      har.NewLogger(),
		logger:       logger,
	}
}

func (c *Context) Session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Context) Scratch() *Scratch {
	return c.scratch
}

func (c *Context) Interceptor() *intercept.Slot {
	return c.interceptor
}

// Traffic exports the recorded GraphQL traffic as a HAR log
func (c *Context) Traffic() *har.HAR {
	return c.traffic.Export()
}

func (c *Context) AddProject(name string) (*Project, error) {
	if err := manifest.ValidateName(name); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.projects[name]; ok {
		return existing, nil
	}

	project := &Project{
		Name: name,
		Dir:  filepath.Join(c.projectsRoot, name),
	}
	c.projects[name] = project

	return project, nil
}

func (c *Context) Project(name string) (*Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	project, ok := c.projects[name]
	return project, ok
}

// ProjectDir resolves a registered project's directory.
// Unknown names fail before any remote work is attempted.
func (c *Context) ProjectDir(name string) (string, error) {
	project, ok := c.Project(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProject, name)
	}

	return project.Dir, nil
}

func (c *Context) OpenProject(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	project, ok := c.projects[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProject, name)
	}

	for _, p := range c.projects {
		p.Open = false
	}
	project.Open = true
	c.sess.Project = name

	return nil
}

// Projects lists registered project names
func (c *Context) Projects() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]string, 0, len(c.projects))
	for name := range c.projects {
		result = append(result, name)
	}

	return result
}

// SetInitialState stores pre-fetched data served to the next app page load
func (c *Context) SetInitialState(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize initial state: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialState = data

	return nil
}

func (c *Context) InitialState() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.initialState) == 0 {
		return json.RawMessage("null")
	}

	return c.initialState
}

// Reset tears down the endpoints and provisions a fresh isolated context:
// nothing set by a previous test remains observable afterwards.
func (c *Context) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.closeEndpointsLocked()

	c.sess.Reset()
	c.scratch.Reset()
	c.projects = make(map[string]*Project)
	c.initialState = nil
	c.interceptor.Clear()
	c.traffic = har.NewLogger()

	return err
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeEndpointsLocked()
}
