package harness

import (
	"time"
)

// SessionInfo is the wire form of the current test session
type SessionInfo struct {
	ID      string `json:"id" yaml:"id"`
	GqlPort int    `json:"gqlPort,omitempty" yaml:"gqlPort,omitempty"`
	AppPort int    `json:"appPort,omitempty" yaml:"appPort,omitempty"`
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
}

type AddProjectRequest struct {
	Name string `form:"name" json:"name" yaml:"name" xml:"name" binding:"required"`
}

// LaunchRequest resets the launch arguments of the application under test.
// Raw argv is accepted so callers do not need to know the structured form.
type LaunchRequest struct {
	Argv []string `form:"argv" json:"argv" yaml:"argv" xml:"argv"`
}

// BridgeRequest invokes either a pre-registered hook by name or a
// source-carrying callback. Exactly one of Hook and Source must be set.
type BridgeRequest struct {
	// Hook is the name of a pre-registered hook to invoke
	Hook string `form:"hook,omitempty" json:"hook,omitempty" yaml:"hook,omitempty" xml:"hook,omitempty"`

	// Name for log correlation, derived from source when empty
	Name string `form:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty" xml:"name,omitempty"`

	// Source of a callback declaring `func Run(call *bridge.Call) (any, error)`
	Source string `form:"source,omitempty" json:"source,omitempty" yaml:"source,omitempty" xml:"source,omitempty"`

	// Args forwarded to the hook or callback verbatim
	Args map[string]any `form:"args,omitempty" json:"args,omitempty" yaml:"args,omitempty" xml:"args,omitempty"`

	// Timeout override for this call only; the server policy applies when zero
	Timeout time.Duration `form:"timeout,omitempty" json:"timeout,omitempty" yaml:"timeout,omitempty" xml:"timeout,omitempty"`
}

type InterceptRequest struct {
	// Source of a callback declaring `func Intercept(op *intercept.Operation) (any, error)`
	Source string `form:"source" json:"source" yaml:"source" xml:"source" binding:"required"`
}

type InterceptResponse struct {
	// Superseded is true when installing replaced a previously active interceptor
	Superseded bool `json:"superseded" yaml:"superseded"`
}

type RemoveInterceptResponse struct {
	// Removed is true when an interceptor was actually active
	Removed bool `json:"removed" yaml:"removed"`
}

// WorkerRegistration is presented by a worker to obtain its credentials
type WorkerRegistration struct {
	Name   string            `form:"name" json:"name" yaml:"name" xml:"name" binding:"required"`
	Labels map[string]string `form:"labels,omitempty" json:"labels,omitempty" yaml:"labels,omitempty" xml:"labels,omitempty"`
}

type WorkerAuthResponse struct {
	Token string `json:"token" yaml:"token"`
}

// ScheduleRunResponse acknowledges a manually scheduled suite run
type ScheduleRunResponse struct {
	ResultName string `json:"resultName" yaml:"resultName"`
	RunID      string `json:"runId,omitempty" yaml:"runId,omitempty"`

	// Token the worker presents when posting this run's outcome
	Token string `json:"token" yaml:"token"`
}
