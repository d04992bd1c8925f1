package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/reelgauge/reelgauge/internal/admission"
	"github.com/reelgauge/reelgauge/internal/application/scoring"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/domain/job"
	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Metrics receives orchestrator observations.  The prometheus adapter
// implements it; tests pass the nop.
type Metrics interface {
	JobFinished(status string)
	StageObserved(stage string, seconds float64)
	CollaboratorCall(name string, seconds float64, err error)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) JobFinished(string)                      {}
func (NopMetrics) StageObserved(string, float64)           {}
func (NopMetrics) CollaboratorCall(string, float64, error) {}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Jobs      job.Repository
	Ledger    *ledger.Service
	Admission *admission.Controller
	Registry  *rubric.Registry
	Engine    *scoring.Engine

	Content     ContentUnderstanding
	Annotations AnnotationService
	Toolkit     MediaToolkit
	Store       ObjectStore
	Cache       ReportCache
	Analytics   AnalyticsSink
	Notifier    Notifier
	Metrics     Metrics

	Config config.EvaluationConfig
	Logger logging.Logger
}

// Orchestrator drives evaluation jobs from submission to settlement.
type Orchestrator struct {
	deps     Deps
	log      logging.Logger
	progress *Hub

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewOrchestrator wires the orchestrator.  A nil Metrics falls back to the nop.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	return &Orchestrator{
		deps:     deps,
		log:      deps.Logger.Named("orchestrator"),
		progress: NewHub(deps.Logger),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// SubmitRequest is one evaluation submission.
type SubmitRequest struct {
	AccountID     string
	Source        job.VideoSource
	CheckSets     []rubric.CheckSet
	FunnelContext string
}

// Submit admits and enqueues an evaluation.  On success the job is already
// charged its estimate and running in the background; callers follow it via
// GetJob or Subscribe.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*job.Job, error) {
	if req.AccountID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "account id is required")
	}
	if req.Source.URI == "" {
		return nil, errors.New(errors.ErrCodeValidation, "video uri is required")
	}
	if len(req.CheckSets) == 0 {
		req.CheckSets = []rubric.CheckSet{rubric.CheckSetLongFormABCD}
	}

	fp := Fingerprint(req.Source.URI, req.CheckSets)
	estimate := admission.EstimateCost(req.Source.DurationSeconds)
	j := job.New(req.AccountID, req.Source, req.CheckSets, fp, req.FunnelContext, estimate)

	slot, err := o.deps.Admission.Admit(ctx, admission.Request{
		AccountID:       req.AccountID,
		JobID:           j.ID.String(),
		SizeBytes:       req.Source.SizeBytes,
		DurationSeconds: req.Source.DurationSeconds,
	})
	if err != nil {
		return nil, err
	}

	if err := o.deps.Jobs.Create(ctx, j); err != nil {
		o.refund(context.Background(), j, j.EstimatedCost, "admission rollback")
		slot.Release()
		return nil, err
	}

	o.progress.Publish(Event{JobID: j.ID, Stage: StageQueued, Pct: 0, Status: string(job.StatusQueued)})
	go o.run(j.ID, slot)
	return j, nil
}

// GetJob returns the current job record.
func (o *Orchestrator) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	return o.deps.Jobs.FindByID(ctx, id)
}

// GetReport loads a finished report by id.
func (o *Orchestrator) GetReport(ctx context.Context, reportID string) (*Report, error) {
	return o.deps.Store.LoadReport(ctx, reportID)
}

// Subscribe attaches a progress listener for one job.
func (o *Orchestrator) Subscribe(jobID uuid.UUID) (<-chan Event, func()) {
	return o.progress.Subscribe(jobID)
}

// Cancel requests cancellation of a running job.  The pipeline observes the
// cancellation at its next suspension point and compensates the charge.
func (o *Orchestrator) Cancel(ctx context.Context, jobID uuid.UUID) error {
	j, err := o.deps.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return errors.Newf(errors.ErrCodeJobNotCancelable, "job %s is already %s", jobID, j.Status)
	}

	o.mu.Lock()
	cancel, running := o.cancels[jobID]
	o.mu.Unlock()
	if running {
		cancel()
		return nil
	}

	// No live pipeline in this process.  The job was orphaned by a restart;
	// finalize it directly.
	if err := j.Transition(job.StatusCanceled); err != nil {
		return err
	}
	j.ActualCost = 0
	if err := o.deps.Jobs.Update(ctx, j); err != nil {
		return err
	}
	o.refund(ctx, j, j.EstimatedCost, "job canceled")
	o.publishTerminal(j, string(errors.ErrCodeJobCanceled), "job canceled")
	return nil
}

func (o *Orchestrator) registerCancel(jobID uuid.UUID, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancels[jobID] = cancel
}

func (o *Orchestrator) unregisterCancel(jobID uuid.UUID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.cancels, jobID)
}

func (o *Orchestrator) run(jobID uuid.UUID, slot *admission.Slot) {
	ctx, cancel := context.WithTimeout(context.Background(), o.deps.Config.JobTimeout)
	o.registerCancel(jobID, cancel)
	defer func() {
		o.unregisterCancel(jobID)
		cancel()
		slot.Release()
	}()

	j, err := o.deps.Jobs.FindByID(ctx, jobID)
	if err != nil {
		o.log.Error("job vanished before execution", logging.String("job_id", jobID.String()), logging.Err(err))
		return
	}

	started := time.Now()
	if err := o.execute(ctx, j); err != nil {
		o.fail(j, err)
	}
	o.deps.Metrics.StageObserved("total", time.Since(started).Seconds())
}

func (o *Orchestrator) execute(ctx context.Context, j *job.Job) error {
	if err := j.Transition(job.StatusRunning); err != nil {
		return err
	}
	if err := o.deps.Jobs.Update(ctx, j); err != nil {
		return err
	}

	var progressMu sync.Mutex
	advance := func(stage string) {
		progressMu.Lock()
		defer progressMu.Unlock()
		if !j.ApplyProgress(stage, StagePct(stage)) {
			return
		}
		if err := o.deps.Jobs.Update(ctx, j); err != nil {
			o.log.Warn("progress persist failed", logging.String("job_id", j.ID.String()), logging.Err(err))
		}
		o.progress.Publish(Event{JobID: j.ID, Stage: stage, Pct: j.ProgressPct, Status: string(j.Status)})
	}

	// Fingerprint cache short-circuit: an identical (video, check-sets) pair
	// reuses the prior report and the full estimate is returned.
	if cached, err := o.deps.Cache.Get(ctx, j.Fingerprint); err == nil && cached != nil {
		return o.completeFromCache(ctx, j, cached)
	}

	report := &Report{
		ID:          uuid.NewString(),
		JobID:       j.ID.String(),
		AccountID:   j.AccountID,
		Fingerprint: j.Fingerprint,
		CreatedAt:   time.Now().UTC(),
	}

	featuresBySet := make(map[rubric.CheckSet][]rubric.Feature, len(j.CheckSets))
	needTrim := false
	for _, cs := range j.CheckSets {
		feats := o.deps.Registry.Features(cs)
		featuresBySet[cs] = feats
		if rubric.NeedsFirst5SecsTrim(feats) {
			needTrim = true
		}
	}

	ref, err := o.fetchVideo(ctx, j)
	if err != nil {
		return err
	}

	// The trim derives the first-5-seconds segment the ATTRACT checks need.
	first5 := ref
	if needTrim {
		advance(StageTrim)
		trimmed, err := o.deps.Toolkit.TrimHead(ctx, ref, 5)
		if err != nil {
			o.log.Warn("first-5-seconds trim failed, evaluating segment checks on full video",
				logging.String("job_id", j.ID.String()), logging.Err(err))
		} else {
			first5 = trimmed
		}
	}

	// Preprocessing: probe and brand description run concurrently.
	advance(StageMetadata)
	var meta *MediaMetadata
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := o.timed(gctx, "toolkit.probe", func(c context.Context) (any, error) {
			return o.deps.Toolkit.Probe(c, ref)
		})
		if err != nil {
			o.log.Warn("media probe failed", logging.String("job_id", j.ID.String()), logging.Err(err))
			return nil
		}
		meta = m.(*MediaMetadata)
		return nil
	})
	g.Go(func() error {
		d, err := o.timed(gctx, "content.describe", func(c context.Context) (any, error) {
			return o.deps.Content.Describe(c, ref)
		})
		if err != nil {
			o.log.Warn("brand description failed", logging.String("job_id", j.ID.String()), logging.Err(err))
			return nil
		}
		report.BrandInfo = d.(*BrandDescription)
		return nil
	})
	_ = g.Wait()
	report.Metadata = meta
	if meta != nil && meta.DurationSeconds > admission.MaxVideoSeconds {
		return errors.Newf(errors.ErrCodeVideoTooLong,
			"probed duration %.1fs exceeds the %ds limit", meta.DurationSeconds, admission.MaxVideoSeconds)
	}

	advance(StageMetaDone)

	if err := runErr(ctx); err != nil {
		return err
	}

	// Fan-out: one analysis branch per check-set, bounded concurrency.  A
	// branch failure becomes a gap in the report; only losing every branch
	// fails the job.
	advance(StageEvaluating)
	results := make(map[rubric.CheckSet]CheckSetResult, len(j.CheckSets))
	var resultsMu sync.Mutex
	branches := &errgroup.Group{}
	branches.SetLimit(o.deps.Config.AnalysisConcurrency)
	for _, cs := range j.CheckSets {
		cs := cs
		branches.Go(func() error {
			verdicts, err := o.evaluateCheckSet(ctx, cs, featuresBySet[cs], ref, first5)
			res := CheckSetResult{CheckSet: cs, Verdicts: verdicts}
			if err != nil {
				o.log.Error("analysis branch failed",
					logging.String("job_id", j.ID.String()),
					logging.String("check_set", string(cs)),
					logging.Err(err),
				)
				res = CheckSetResult{CheckSet: cs, Skipped: true, SkipReason: err.Error()}
			}
			resultsMu.Lock()
			results[cs] = res
			resultsMu.Unlock()
			if err == nil {
				advance(branchStage(cs))
			}
			return nil
		})
	}
	_ = branches.Wait()

	if err := runErr(ctx); err != nil {
		return err
	}

	succeeded := 0
	for _, cs := range j.CheckSets {
		res := results[cs]
		report.Results = append(report.Results, res)
		if !res.Skipped {
			succeeded++
		}
	}
	if succeeded == 0 {
		return errors.New(errors.ErrCodeAllBranchesFailed, "every analysis branch failed")
	}
	j.SkippedCheckSets = report.SkippedSets()

	// Post-analysis enrichment: every step is optional and failures only log.
	advance(StagePost)
	post := &errgroup.Group{}
	post.SetLimit(o.deps.Config.PostConcurrency)
	post.Go(func() error {
		kf, err := o.deps.Toolkit.Keyframes(ctx, ref)
		if err == nil {
			report.Keyframes = kf
			advance(StageKeyframes)
		} else {
			o.log.Warn("keyframe extraction failed", logging.String("job_id", j.ID.String()), logging.Err(err))
		}
		return nil
	})
	post.Go(func() error {
		vp, err := o.deps.Toolkit.Volume(ctx, ref)
		if err == nil {
			report.Volume = vp
			advance(StageVolume)
		} else {
			o.log.Warn("volume profiling failed", logging.String("job_id", j.ID.String()), logging.Err(err))
		}
		return nil
	})
	post.Go(func() error {
		if report.BrandInfo != nil {
			advance(StageBrand)
			return nil
		}
		d, err := o.deps.Content.Describe(ctx, ref)
		if err == nil {
			report.BrandInfo = d
			advance(StageBrand)
		} else {
			o.log.Warn("brand intel retry failed", logging.String("job_id", j.ID.String()), logging.Err(err))
		}
		return nil
	})
	post.Go(func() error {
		ar, err := o.deps.Toolkit.Audio(ctx, ref)
		if err == nil {
			report.Audio = ar
			advance(StageAudio)
		} else {
			o.log.Warn("audio richness failed", logging.String("job_id", j.ID.String()), logging.Err(err))
		}
		return nil
	})
	_ = post.Wait()

	report.Brief = composeBrief(report)
	advance(StageBrief)

	if err := runErr(ctx); err != nil {
		return err
	}

	advance(StageFormatting)
	report.Prediction = o.deps.Engine.Predict(report.scoringInput())

	if err := o.deps.Store.StoreReport(ctx, report); err != nil {
		o.log.Error("report persistence failed", logging.String("job_id", j.ID.String()), logging.Err(err))
	}
	if err := o.deps.Cache.Set(ctx, j.Fingerprint, report); err != nil {
		o.log.Warn("report cache store failed", logging.String("job_id", j.ID.String()), logging.Err(err))
	}

	o.settleSuccess(ctx, j, meta)

	j.ReportID = report.ID
	if err := j.Transition(job.StatusSucceeded); err != nil {
		return err
	}
	j.ApplyProgress(StageComplete, StagePct(StageComplete))
	if err := o.deps.Jobs.Update(ctx, j); err != nil {
		return err
	}
	o.publishTerminal(j, "", "")
	o.deps.Metrics.JobFinished(string(job.StatusSucceeded))
	o.emitAnalytics(j, report)
	o.notify(fmt.Sprintf("evaluation %s complete: score %.1f (%s)",
		j.ID, report.Prediction.OverallScore, report.Prediction.Labels.ExpectedFunnelStrength))
	return nil
}

// fetchVideo pulls the submitted video into managed storage.
func (o *Orchestrator) fetchVideo(ctx context.Context, j *job.Job) (MediaRef, error) {
	ref, err := o.deps.Store.FetchVideo(ctx, j.Source.URI)
	if err != nil {
		return MediaRef{}, errors.Wrap(err, errors.ErrCodeStorageError, "failed to fetch submitted video")
	}
	return ref, nil
}

func (o *Orchestrator) evaluateCheckSet(ctx context.Context, cs rubric.CheckSet, features []rubric.Feature, full, first5 MediaRef) ([]rubric.Verdict, error) {
	var fullFeats, headFeats, annOnly []rubric.Feature
	for _, f := range features {
		switch {
		case f.Method == rubric.MethodAnnotations:
			annOnly = append(annOnly, f)
		case f.Segment == rubric.SegmentFirst5Secs:
			headFeats = append(headFeats, f)
		default:
			fullFeats = append(fullFeats, f)
		}
	}

	var verdicts []rubric.Verdict
	if len(fullFeats) > 0 {
		v, err := o.timedVerdicts(ctx, full, fullFeats)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v...)
	}
	if len(headFeats) > 0 {
		v, err := o.timedVerdicts(ctx, first5, headFeats)
		if err != nil {
			return nil, err
		}
		verdicts = append(verdicts, v...)
	}

	// Hybrid checks blend the annotation service's boolean signal into the
	// LLM verdicts; annotation-only checks are built from the signal alone.
	// Annotation failure degrades to LLM-only rather than failing the branch.
	if rubric.NeedsAnnotations(features) {
		ann, err := o.deps.Annotations.Annotate(ctx, full, features)
		if err != nil {
			o.log.Warn("annotation call failed, using llm-only verdicts",
				logging.String("check_set", string(cs)), logging.Err(err))
			return verdicts, nil
		}
		byID := make(map[string]rubric.Method, len(features))
		for _, f := range features {
			byID[f.ID] = f.Method
		}
		for i, v := range verdicts {
			if byID[v.FeatureID] != rubric.MethodHybrid {
				continue
			}
			if detected, ok := ann.Detections[v.FeatureID]; ok {
				verdicts[i] = rubric.CombineHybrid(v, detected)
			}
		}
		for _, f := range annOnly {
			detected, ok := ann.Detections[f.ID]
			verdicts = append(verdicts, rubric.Verdict{
				FeatureID:   f.ID,
				Name:        f.Name,
				CheckSet:    f.CheckSet,
				SubCategory: f.SubCategory,
				Detected:    ok && detected,
				Confidence:  0.9,
				Rationale:   "structured annotation signal",
			})
		}
	}
	rubric.ApplyRemediations(verdicts)
	return verdicts, nil
}

func (o *Orchestrator) timedVerdicts(ctx context.Context, ref MediaRef, features []rubric.Feature) ([]rubric.Verdict, error) {
	started := time.Now()
	v, err := o.deps.Content.Evaluate(ctx, ref, features)
	o.deps.Metrics.CollaboratorCall("content.evaluate", time.Since(started).Seconds(), err)
	return v, err
}

func (o *Orchestrator) timed(ctx context.Context, name string, fn func(context.Context) (any, error)) (any, error) {
	started := time.Now()
	v, err := fn(ctx)
	o.deps.Metrics.CollaboratorCall(name, time.Since(started).Seconds(), err)
	return v, err
}

func (o *Orchestrator) completeFromCache(ctx context.Context, j *job.Job, cached *Report) error {
	j.CacheHit = true
	j.ReportID = cached.ID
	j.ActualCost = 0
	o.refund(ctx, j, j.EstimatedCost, "cache hit")
	if err := j.Transition(job.StatusSucceeded); err != nil {
		return err
	}
	j.ApplyProgress(StageComplete, StagePct(StageComplete))
	if err := o.deps.Jobs.Update(ctx, j); err != nil {
		return err
	}
	o.publishTerminal(j, "", "")
	o.deps.Metrics.JobFinished(string(job.StatusSucceeded))
	o.emitAnalytics(j, cached)
	return nil
}

// settleSuccess refunds the unused part of the estimate.  The actual charge
// is recomputed from the probed duration; an unknown probe leaves the
// estimate as charged.
func (o *Orchestrator) settleSuccess(ctx context.Context, j *job.Job, meta *MediaMetadata) {
	actual := j.EstimatedCost
	if meta != nil && meta.DurationSeconds > 0 {
		if c := admission.EstimateCost(meta.DurationSeconds); c < actual {
			actual = c
		}
	}
	if delta := j.EstimatedCost - actual; delta > 0 {
		o.refund(ctx, j, delta, "actual below estimate")
	}
	j.ActualCost = actual
}

// refund compensates a job exactly once: every refund path shares the
// job-scoped idempotency key, so a second attempt replays or is rejected
// instead of paying out twice.
func (o *Orchestrator) refund(ctx context.Context, j *job.Job, amount int64, reason string) {
	if amount <= 0 {
		return
	}
	_, err := o.deps.Ledger.Refund(ctx, j.AccountID, amount, reason, j.ID.String(), "refund:"+j.ID.String())
	if err != nil {
		o.log.Error("refund failed",
			logging.String("job_id", j.ID.String()),
			logging.Int64("amount", amount),
			logging.Err(err),
		)
	}
}

func (o *Orchestrator) fail(j *job.Job, cause error) {
	// The pipeline context may be dead; finalization uses its own.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := errors.GetCode(cause)
	status := job.StatusFailed
	if code == errors.ErrCodeJobCanceled {
		status = job.StatusCanceled
	}

	if status == job.StatusFailed {
		if err := j.MarkFailed(code, cause.Error()); err != nil {
			o.log.Error("failure transition rejected", logging.String("job_id", j.ID.String()), logging.Err(err))
			return
		}
	} else {
		if err := j.Transition(job.StatusCanceled); err != nil {
			o.log.Error("cancel transition rejected", logging.String("job_id", j.ID.String()), logging.Err(err))
			return
		}
		j.ErrorCode = string(code)
		j.ErrorMessage = cause.Error()
	}
	j.ActualCost = 0
	if err := o.deps.Jobs.Update(ctx, j); err != nil {
		o.log.Error("terminal update failed", logging.String("job_id", j.ID.String()), logging.Err(err))
	}

	o.refund(ctx, j, j.EstimatedCost, "job "+string(status))
	o.publishTerminal(j, j.ErrorCode, j.ErrorMessage)
	o.deps.Metrics.JobFinished(string(status))
	o.notify(fmt.Sprintf("evaluation %s %s: %s", j.ID, status, j.ErrorMessage))

	o.log.Error("job finished with failure",
		logging.String("job_id", j.ID.String()),
		logging.String("status", string(status)),
		logging.String("code", j.ErrorCode),
		logging.String("message", j.ErrorMessage),
	)
}

func (o *Orchestrator) publishTerminal(j *job.Job, errCode, errMsg string) {
	o.progress.Publish(Event{
		JobID:    j.ID,
		Stage:    j.Stage,
		Pct:      j.ProgressPct,
		Status:   string(j.Status),
		Terminal: true,
		ErrCode:  errCode,
		ErrMsg:   errMsg,
	})
}

// emitAnalytics appends the benchmark row in a detached goroutine; the job's
// outcome never waits on the warehouse.
func (o *Orchestrator) emitAnalytics(j *job.Job, report *Report) {
	row := AnalyticsRow{
		JobID:       j.ID.String(),
		AccountID:   j.AccountID,
		Fingerprint: j.Fingerprint,
		CacheHit:    j.CacheHit,
		CompletedAt: time.Now().UTC(),
	}
	for _, cs := range j.CheckSets {
		row.CheckSets = append(row.CheckSets, string(cs))
	}
	if report.Prediction != nil {
		row.OverallScore = report.Prediction.OverallScore
		row.FunnelLabel = report.Prediction.Labels.ExpectedFunnelStrength
	}
	if report.Metadata != nil {
		row.DurationSecs = report.Metadata.DurationSeconds
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.deps.Analytics.AppendRows(ctx, []AnalyticsRow{row}); err != nil {
			o.log.Warn("analytics append failed", logging.String("job_id", row.JobID), logging.Err(err))
		}
	}()
}

// notify posts an operator notification without blocking the pipeline.
func (o *Orchestrator) notify(message string) {
	if o.deps.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.deps.Notifier.Notify(ctx, message); err != nil {
			o.log.Warn("notification failed", logging.Err(err))
		}
	}()
}

func branchStage(cs rubric.CheckSet) string {
	switch cs {
	case rubric.CheckSetShorts:
		return StageShortsDone
	case rubric.CheckSetCreativeIntelligence:
		return StageCIDone
	default:
		return StageABCDDone
	}
}

// runErr translates a dead pipeline context into the job-level error.
func runErr(ctx context.Context) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return errors.New(errors.ErrCodeJobTimeout, "evaluation exceeded the job time limit")
	default:
		return errors.New(errors.ErrCodeJobCanceled, "evaluation was canceled")
	}
}
