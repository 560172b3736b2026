package suite

import (
	"encoding/json"

	"github.com/sre-norns/gantry/pkg/manifest"
)

// RunJob represents one suite run to be picked up by a qualified worker
type RunJob struct {
	// Name of the suite that produced this job
	Name string `form:"name,omitempty" json:"name,omitempty" yaml:"name,omitempty" xml:"name,omitempty"`

	// Labels of the suite merged with the run's own
	Labels manifest.Labels `form:"labels,omitempty" json:"labels,omitempty" yaml:"labels,omitempty" xml:"labels,omitempty"`

	// Requirements for a set of labels that a worker must satisfy
	Requirements manifest.LabelSelector `form:"requirements" json:"requirements,omitempty" yaml:"requirements,omitempty" xml:"requirements"`

	// ID and version of the suite this job was cut from
	SuiteID manifest.VersionedResourceID `form:"suite_id" json:"suite_id" yaml:"suite_id" xml:"suite_id" binding:"required"`

	// Steps to play in order
	Steps []Step `form:"steps" json:"steps" yaml:"steps" xml:"steps"`

	// True if the worker should keep its temp working directory with run artifacts
	IsKeepDirectory bool `form:"keepDir" json:"keepDir" yaml:"keepDir" xml:"keepDir"`

	// Version and ID of the run to post results to
	ResultID   manifest.VersionedResourceID `json:"resultId" yaml:"resultId"`
	ResultName string                       `json:"resultName" yaml:"resultName"`
}

// NewRunJob cuts a runnable job from a suite and the pending result tracking it
func NewRunJob(result Result, meta manifest.ObjectMeta, spec Spec) RunJob {
	return RunJob{
		Name:    meta.Name,
		SuiteID: meta.GetVersionedID(),

		Requirements: spec.Requirements,
		Steps:        spec.Steps,

		Labels: manifest.MergeLabels(
			meta.Labels,
			result.Labels,
		),

		ResultID:   result.GetVersionedID(),
		ResultName: result.Name,
	}
}

func UnmarshalJob(data []byte) (result RunJob, err error) {
	err = json.Unmarshal(data, &result)
	return
}

func MarshalJob(job RunJob) ([]byte, error) {
	return json.Marshal(&job)
}
