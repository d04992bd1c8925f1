package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/domain/job"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/interfaces/http/middleware"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// JobHandler serves evaluation job submission, status, progress, and reports.
type JobHandler struct {
	orch *evaluation.Orchestrator
}

// NewJobHandler constructs the handler.
func NewJobHandler(orch *evaluation.Orchestrator) *JobHandler {
	return &JobHandler{orch: orch}
}

// SubmitJobRequest is the submission body.
type SubmitJobRequest struct {
	VideoURI        string   `json:"video_uri" binding:"required"`
	Filename        string   `json:"filename"`
	SizeBytes       int64    `json:"size_bytes"`
	DurationSeconds float64  `json:"duration_seconds"`
	CheckSets       []string `json:"check_sets"`
	FunnelContext   string   `json:"funnel_context"`
}

// Submit admits and enqueues an evaluation job.
func (h *JobHandler) Submit(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "invalid submission body"))
		return
	}

	sets := make([]rubric.CheckSet, 0, len(req.CheckSets))
	for _, s := range req.CheckSets {
		cs, err := rubric.ParseCheckSet(s)
		if err != nil {
			respondError(c, err)
			return
		}
		sets = append(sets, cs)
	}

	j, err := h.orch.Submit(c.Request.Context(), evaluation.SubmitRequest{
		AccountID: middleware.AccountID(c),
		Source: job.VideoSource{
			URI:             req.VideoURI,
			Filename:        req.Filename,
			SizeBytes:       req.SizeBytes,
			DurationSeconds: req.DurationSeconds,
		},
		CheckSets:     sets,
		FunnelContext: req.FunnelContext,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, j)
}

// Get returns one job's current state.  Jobs are account-scoped.
func (h *JobHandler) Get(c *gin.Context) {
	j, err := h.loadOwnJob(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

// Events streams the job's progress as server-sent events until the job
// reaches a terminal state or the client disconnects.
func (h *JobHandler) Events(c *gin.Context) {
	j, err := h.loadOwnJob(c)
	if err != nil {
		respondError(c, err)
		return
	}

	events, unsubscribe := h.orch.Subscribe(j.ID)
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("progress", ev)
			return !ev.Terminal
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Cancel requests cancellation of the caller's job.
func (h *JobHandler) Cancel(c *gin.Context) {
	j, err := h.loadOwnJob(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.orch.Cancel(c.Request.Context(), j.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "canceling"})
}

// Report returns the finished report for a job.
func (h *JobHandler) Report(c *gin.Context) {
	j, err := h.loadOwnJob(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if j.ReportID == "" {
		respondError(c, errors.Newf(errors.ErrCodeReportNotFound, "job %s has no report yet", j.ID))
		return
	}
	report, err := h.orch.GetReport(c.Request.Context(), j.ReportID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *JobHandler) loadOwnJob(c *gin.Context) (*job.Job, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid job id")
	}
	j, err := h.orch.GetJob(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if j.AccountID != middleware.AccountID(c) {
		// Hide other accounts' jobs rather than acknowledging them.
		return nil, errors.Newf(errors.ErrCodeJobNotFound, "job %s not found", id)
	}
	return j, nil
}
