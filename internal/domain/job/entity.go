// Package job models an evaluation job: its lifecycle, progress reporting,
// and the record of what it cost and produced.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

var validTransitions = map[Status][]Status{
	StatusQueued:  {StatusRunning, StatusFailed, StatusCanceled},
	StatusRunning: {StatusSucceeded, StatusFailed, StatusCanceled},
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// VideoSource describes the input video the caller submitted.
type VideoSource struct {
	// URI is the object-store reference or external URL of the video.
	URI string `json:"uri"`
	// Filename is the caller-supplied display name.
	Filename string `json:"filename"`
	// SizeBytes is the upload size when known, zero otherwise.
	SizeBytes int64 `json:"size_bytes,omitempty"`
	// DurationSeconds is the probed duration when known, zero otherwise.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Job is one evaluation run.  Progress and status only ever move forward;
// see ApplyProgress and Transition.
type Job struct {
	ID        uuid.UUID   `json:"id"`
	AccountID string      `json:"account_id"`
	Source    VideoSource `json:"source"`

	// CheckSets is the set of rubric check-sets requested for this run.
	CheckSets []rubric.CheckSet `json:"check_sets"`
	// Fingerprint identifies the (video, check-sets) pair for result caching.
	Fingerprint string `json:"fingerprint"`
	// FunnelContext optionally biases report commentary toward a funnel stage.
	FunnelContext string `json:"funnel_context,omitempty"`

	Status Status `json:"status"`
	// Stage is the name of the most recent pipeline milestone.
	Stage string `json:"stage"`
	// ProgressPct is in [0,100] and never decreases.
	ProgressPct int `json:"progress_pct"`

	EstimatedCost int64 `json:"estimated_cost"`
	// ActualCost is the settled charge, set when the job reaches a terminal
	// state.  Zero for jobs refunded in full.
	ActualCost int64 `json:"actual_cost"`
	// CacheHit marks jobs that were served from a prior run's cached result.
	CacheHit bool `json:"cache_hit"`

	// ReportID points at the stored report once the job succeeds.
	ReportID string `json:"report_id,omitempty"`
	// SkippedCheckSets lists check-sets whose analysis branch failed; their
	// results are absent from the report and explicitly marked as gaps.
	SkippedCheckSets []rubric.CheckSet `json:"skipped_check_sets,omitempty"`

	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// New builds a queued job for the given submission.
func New(accountID string, source VideoSource, checkSets []rubric.CheckSet, fingerprint, funnelContext string, estimatedCost int64) *Job {
	return &Job{
		ID:            uuid.New(),
		AccountID:     accountID,
		Source:        source,
		CheckSets:     checkSets,
		Fingerprint:   fingerprint,
		FunnelContext: funnelContext,
		Status:        StatusQueued,
		Stage:         "queued",
		EstimatedCost: estimatedCost,
		CreatedAt:     time.Now().UTC(),
	}
}

// Transition moves the job to next, enforcing the lifecycle graph.
func (j *Job) Transition(next Status) error {
	if !j.Status.CanTransition(next) {
		return errors.Newf(errors.ErrCodeInvalidTransition,
			"cannot move job %s from %s to %s", j.ID, j.Status, next)
	}
	now := time.Now().UTC()
	switch next {
	case StatusRunning:
		j.StartedAt = &now
	case StatusSucceeded, StatusFailed, StatusCanceled:
		j.FinishedAt = &now
	}
	j.Status = next
	return nil
}

// ApplyProgress records a milestone.  Regressions are ignored so that late
// branch updates can never walk the reported percentage backwards.
func (j *Job) ApplyProgress(stage string, pct int) bool {
	if pct < j.ProgressPct {
		return false
	}
	j.Stage = stage
	j.ProgressPct = pct
	return true
}

// MarkFailed records the terminal failure detail alongside the transition.
func (j *Job) MarkFailed(code errors.ErrorCode, message string) error {
	if err := j.Transition(StatusFailed); err != nil {
		return err
	}
	j.ErrorCode = string(code)
	j.ErrorMessage = message
	return nil
}
