package pipeline

import (
	"time"

	"github.com/dgallion1/docloc/internal/rewrite"
)

// JobStatus represents the state of a locale job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusScanning  JobStatus = "scanning"
	StatusRewriting JobStatus = "rewriting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of one locale within a run.
type Job struct {
	Locale string
	Status JobStatus
	Phase  string

	Progress rewrite.Stats

	CreatedAt time.Time
	UpdatedAt time.Time

	errors []string
}

// NewJob returns a queued job for loc.
func NewJob(loc string) *Job {
	now := time.Now()
	return &Job{
		Locale:    loc,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates the job status.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed.
func (j *Job) Fail(err error) {
	j.errors = append(j.errors, err.Error())
	j.SetStatus(StatusFailed, j.Phase)
}

// JobSnapshot is a read-only copy of job state for reports.
type JobSnapshot struct {
	Locale   string        `yaml:"locale"`
	Status   JobStatus     `yaml:"status"`
	Phase    string        `yaml:"phase"`
	Progress rewrite.Stats `yaml:"progress"`
	Errors   []string      `yaml:"errors"`
	Duration time.Duration `yaml:"duration"`
}

// Snapshot returns a copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	return JobSnapshot{
		Locale:   j.Locale,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: j.Progress,
		Errors:   errs,
		Duration: j.UpdatedAt.Sub(j.CreatedAt),
	}
}
