package suite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/sre-norns/gantry/pkg/manifest"
)

// KindSuite is the registered manifest kind for e2e suites
const KindSuite manifest.Kind = "suites"

func init() {
	if err := manifest.RegisterKind(KindSuite, &Spec{}); err != nil {
		panic(fmt.Sprintf("failed to register %q kind: %v", KindSuite, err))
	}
}

var ErrInvalidCronExpression = fmt.Errorf("invalid cron expression")

// CronSchedule to run a suite on, in standard cron syntax
type CronSchedule string

func (s CronSchedule) Validate() error {
	if s == "" {
		return nil
	}
	if !gronx.New().IsValid(string(s)) {
		return fmt.Errorf("%w: %q", ErrInvalidCronExpression, string(s))
	}

	return nil
}

// StepKind identifies what a suite step does
type StepKind string

const (
	// StepVisit drives a browser to an app page
	StepVisit StepKind = "visit"
	// StepBridge executes a bridged callback against the live app context
	StepBridge StepKind = "bridge"
	// StepIntercept installs a GraphQL interceptor for the rest of the run
	StepIntercept StepKind = "intercept"
	// StepProbe performs a plain HTTP probe against a target
	StepProbe StepKind = "probe"
)

// Step is one unit of a suite run. Fields beyond Name and Kind are
// kind-specific; unused ones stay empty.
type Step struct {
	// Name of the step for logs and artifacts
	Name string `form:"name" json:"name" yaml:"name" xml:"name" binding:"required"`

	// Kind selects the step runner
	Kind StepKind `form:"kind" json:"kind" yaml:"kind" xml:"kind" binding:"required"`

	// Project to open before the step, when set
	Project string `form:"project,omitempty" json:"project,omitempty" yaml:"project,omitempty" xml:"project,omitempty"`

	// Target URL or extra query for visit and probe steps
	Target string `form:"target,omitempty" json:"target,omitempty" yaml:"target,omitempty" xml:"target,omitempty"`

	// Source of a bridge or intercept callback
	Source string `form:"source,omitempty" json:"source,omitempty" yaml:"source,omitempty" xml:"source,omitempty"`

	// Args forwarded to a bridge callback
	Args map[string]any `form:"args,omitempty" json:"args,omitempty" yaml:"args,omitempty" xml:"args,omitempty"`

	// Timeout override for this step only
	Timeout time.Duration `form:"timeout,omitempty" json:"timeout,omitempty" yaml:"timeout,omitempty" xml:"timeout,omitempty"`
}

// Spec of a suite: what to run and when
type Spec struct {
	// Description is a human readable text to describe the suite
	Description string `form:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty" xml:"description,omitempty"`

	// IsActive is true for suites that should be picked up by the scheduler
	IsActive bool `form:"active" json:"active" yaml:"active" xml:"active"`

	// RunSchedule to repeat the suite on, if set
	RunSchedule CronSchedule `form:"schedule,omitempty" json:"schedule,omitempty" yaml:"schedule,omitempty" xml:"schedule,omitempty"`

	// Requirements a worker must satisfy to run this suite
	Requirements manifest.LabelSelector `form:"requirements,omitempty" json:"requirements,omitempty" yaml:"requirements,omitempty" xml:"requirements,omitempty" gorm:"serializer:json"`

	// Steps executed in order; the first failure ends the run
	Steps []Step `form:"steps" json:"steps" yaml:"steps" xml:"steps" gorm:"serializer:json"`
}

func (s Spec) Validate() error {
	if err := s.RunSchedule.Validate(); err != nil {
		return err
	}
	for _, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("step of kind %q has no name", step.Kind)
		}
	}

	return nil
}

// Suite is the persisted model of an e2e suite
type Suite struct {
	manifest.ObjectMeta `json:",inline" yaml:",inline" gorm:"embedded"`

	Spec Spec `json:"spec" yaml:"spec" gorm:"embedded;embeddedPrefix:spec_"`

	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`
}

// Status of a suite run
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusErrored  Status = "errored"
	StatusCanceled Status = "canceled"
	StatusTimeout  Status = "timeout"
)

type ArtifactValue struct {
	Rel      string `form:"rel" json:"rel" yaml:"rel" xml:"rel"`
	MimeType string `form:"mimeType" json:"mimeType" yaml:"mimeType" xml:"mimeType"`
	Content  []byte `form:"content" json:"content" yaml:"content" xml:"content"`
}

// Artifact produced by a suite run: a run log, a screenshot, a HAR capture
type Artifact struct {
	UID manifest.ResourceID `json:"uid,omitempty" yaml:"uid,omitempty" gorm:"primarykey"`

	OwnerID   int    `json:"-" yaml:"-"`
	OwnerType string `json:"-" yaml:"-"`

	ArtifactValue `json:",inline" yaml:",inline"`

	CreatedAt time.Time `json:"-" yaml:"-"`
}

// Result is the persisted outcome of one suite run
type Result struct {
	manifest.ObjectMeta `json:",inline" yaml:",inline" gorm:"embedded"`

	SuiteID      manifest.ResourceID `json:"suiteId" yaml:"suiteId" gorm:"index"`
	SuiteVersion manifest.Version    `json:"suiteVersion" yaml:"suiteVersion"`

	Status Status `json:"status" yaml:"status"`

	TimeStarted sql.NullTime `json:"start_time" yaml:"start_time"`
	TimeEnded   sql.NullTime `json:"end_time" yaml:"end_time"`

	// UpdateToken authorizes the worker that took this run to post its outcome
	UpdateToken string `json:"-" yaml:"-"`

	Artifacts []Artifact `json:"artifacts,omitempty" yaml:"artifacts,omitempty" gorm:"polymorphic:Owner;"`

	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`
}

type FinalRunOption func(value *Result)

func WithTime(value time.Time) FinalRunOption {
	return func(result *Result) {
		result.TimeEnded = sql.NullTime{
			Time:  value,
			Valid: true,
		}
	}
}

func WithArtifacts(artifacts ...ArtifactValue) FinalRunOption {
	return func(result *Result) {
		for _, artifact := range artifacts {
			result.Artifacts = append(result.Artifacts, Artifact{
				ArtifactValue: artifact,
			})
		}
	}
}

// FinalizeRun stamps a result with its terminal status and end time
func FinalizeRun(result *Result, status Status, options ...FinalRunOption) {
	result.Status = status
	result.TimeEnded = sql.NullTime{
		Time:  time.Now(),
		Valid: true,
	}

	for _, option := range options {
		option(result)
	}
}
