package evaluation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/admission"
	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/application/scoring"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/domain/job"
	"github.com/reelgauge/reelgauge/internal/domain/ledger"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/infrastructure/memory"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/internal/testutil"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

type fixture struct {
	orch      *evaluation.Orchestrator
	ledger    *ledger.Service
	jobs      *memory.JobRepository
	content   *testutil.FakeContent
	ann       *testutil.FakeAnnotations
	toolkit   *testutil.FakeToolkit
	store     *testutil.FakeStore
	cache     *testutil.FakeCache
	analytics *testutil.FakeAnalytics
	notifier  *testutil.FakeNotifier
}

func newFixture(t *testing.T, balance int64, timeout time.Duration) *fixture {
	t.Helper()
	log := logging.NewNopLogger()
	ledgerSvc := ledger.NewService(memory.NewLedgerRepository(), log)
	if balance > 0 {
		_, err := ledgerSvc.Grant(context.Background(), "acct-1", balance, "seed", "", "grant-seed")
		require.NoError(t, err)
	}

	f := &fixture{
		ledger:    ledgerSvc,
		jobs:      memory.NewJobRepository(),
		content:   &testutil.FakeContent{},
		ann:       &testutil.FakeAnnotations{},
		toolkit:   &testutil.FakeToolkit{},
		store:     testutil.NewFakeStore(),
		cache:     testutil.NewFakeCache(),
		analytics: &testutil.FakeAnalytics{},
		notifier:  &testutil.FakeNotifier{},
	}
	f.orch = evaluation.NewOrchestrator(evaluation.Deps{
		Jobs:        f.jobs,
		Ledger:      ledgerSvc,
		Admission:   admission.NewController(ledgerSvc, log),
		Registry:    rubric.NewRegistry(),
		Engine:      scoring.NewEngine(),
		Content:     f.content,
		Annotations: f.ann,
		Toolkit:     f.toolkit,
		Store:       f.store,
		Cache:       f.cache,
		Analytics:   f.analytics,
		Notifier:    f.notifier,
		Config: config.EvaluationConfig{
			AnalysisConcurrency: 3,
			PostConcurrency:     4,
			JobTimeout:          timeout,
		},
		Logger: log,
	})
	return f
}

func submitReq(sets ...rubric.CheckSet) evaluation.SubmitRequest {
	return evaluation.SubmitRequest{
		AccountID: "acct-1",
		Source:    job.VideoSource{URI: "uploads/demo.mp4", Filename: "demo.mp4"},
		CheckSets: sets,
	}
}

func waitTerminal(t *testing.T, f *fixture, id uuid.UUID) []evaluation.Event {
	t.Helper()
	ch, cancel := f.orch.Subscribe(id)
	defer cancel()
	var events []evaluation.Event
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
			if ev.Terminal {
				return events
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestSuccessfulEvaluationSettlesDelta(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	// Unknown duration charges the cap; the probe reports 30s, so the unused
	// half of the estimate comes back at settlement.
	j, err := f.orch.Submit(ctx, submitReq(
		rubric.CheckSetLongFormABCD, rubric.CheckSetShorts, rubric.CheckSetCreativeIntelligence))
	require.NoError(t, err)
	assert.Equal(t, int64(600), j.EstimatedCost)

	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, final.Status)
	assert.Equal(t, int64(300), final.ActualCost)
	assert.Empty(t, final.SkippedCheckSets)
	require.NotEmpty(t, final.ReportID)

	balance, err := f.ledger.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(700), balance)

	report, err := f.orch.GetReport(ctx, final.ReportID)
	require.NoError(t, err)
	assert.Len(t, report.Results, 3)
	require.NotNil(t, report.Prediction)
	assert.Equal(t, scoring.ModelVersion, report.Prediction.ModelVersion)
	assert.NotNil(t, report.Metadata)
	assert.NotEmpty(t, report.Brief)
}

func TestPartialBranchFailureProducesGap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	f.content.EvaluateFn = func(_ context.Context, _ evaluation.MediaRef, features []rubric.Feature) ([]rubric.Verdict, error) {
		if len(features) > 0 && features[0].CheckSet == rubric.CheckSetCreativeIntelligence {
			return nil, errors.New(errors.ErrCodeCollaboratorTimeout, "model call timed out")
		}
		return testutil.DetectedVerdicts(features, 0.8), nil
	}

	j, err := f.orch.Submit(ctx, submitReq(
		rubric.CheckSetLongFormABCD, rubric.CheckSetCreativeIntelligence))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, final.Status)
	assert.Equal(t, []rubric.CheckSet{rubric.CheckSetCreativeIntelligence}, final.SkippedCheckSets)

	report, err := f.orch.GetReport(ctx, final.ReportID)
	require.NoError(t, err)
	gap := report.Result(rubric.CheckSetCreativeIntelligence)
	require.NotNil(t, gap)
	assert.True(t, gap.Skipped)
	assert.NotEmpty(t, gap.SkipReason)
	ok := report.Result(rubric.CheckSetLongFormABCD)
	require.NotNil(t, ok)
	assert.False(t, ok.Skipped)
	assert.NotEmpty(t, ok.Verdicts)
	assert.NotNil(t, report.Prediction, "surviving branches still produce a prediction")
}

func TestAllBranchesFailedFailsJobAndRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	f.content.EvaluateFn = func(context.Context, evaluation.MediaRef, []rubric.Feature) ([]rubric.Verdict, error) {
		return nil, errors.New(errors.ErrCodeCollaboratorTimeout, "model call timed out")
	}

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD, rubric.CheckSetShorts))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, final.Status)
	assert.Equal(t, string(errors.ErrCodeAllBranchesFailed), final.ErrorCode)
	assert.Equal(t, int64(0), final.ActualCost)

	balance, err := f.ledger.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance, "failure before billable output refunds the full estimate")
}

func TestFingerprintCacheShortCircuits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000, 30*time.Second)

	first, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)
	waitTerminal(t, f, first.ID)

	balanceAfterFirst, err := f.ledger.Balance(ctx, "acct-1")
	require.NoError(t, err)
	callsAfterFirst := f.content.EvaluateCalls

	second, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)
	waitTerminal(t, f, second.ID)

	final, err := f.orch.GetJob(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, final.Status)
	assert.True(t, final.CacheHit)
	assert.Equal(t, int64(0), final.ActualCost)

	firstJob, err := f.orch.GetJob(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, firstJob.ReportID, final.ReportID, "cache hit reuses the prior report")

	balance, err := f.ledger.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, balanceAfterFirst, balance, "cache hit refunds the full estimate")
	assert.Equal(t, callsAfterFirst, f.content.EvaluateCalls, "no collaborator calls on a cache hit")
}

func TestProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	j, err := f.orch.Submit(ctx, submitReq(
		rubric.CheckSetLongFormABCD, rubric.CheckSetShorts, rubric.CheckSetCreativeIntelligence))
	require.NoError(t, err)

	events := waitTerminal(t, f, j.ID)
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Pct, events[i-1].Pct,
			"stage %s regressed from %s", events[i].Stage, events[i-1].Stage)
	}
	last := events[len(events)-1]
	assert.True(t, last.Terminal)
	assert.Equal(t, 100, last.Pct)
	assert.Equal(t, string(job.StatusSucceeded), last.Status)
}

func TestPersistedJobRecordsCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	// The stored record must carry the terminal milestone, not the last
	// intermediate stage before settlement.
	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusSucceeded, final.Status)
	assert.Equal(t, evaluation.StageComplete, final.Stage)
	assert.Equal(t, 100, final.ProgressPct)
}

func TestAccessibilityGapsCarryRemediation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	f.content.EvaluateFn = func(_ context.Context, _ evaluation.MediaRef, features []rubric.Feature) ([]rubric.Verdict, error) {
		verdicts := testutil.DetectedVerdicts(features, 0.8)
		for i := range verdicts {
			if verdicts[i].SubCategory == rubric.SubAccessibility {
				verdicts[i].Detected = false
			}
		}
		return verdicts, nil
	}

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetCreativeIntelligence))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	report, err := f.orch.GetReport(ctx, final.ReportID)
	require.NoError(t, err)

	res := report.Result(rubric.CheckSetCreativeIntelligence)
	require.NotNil(t, res)
	sawAccessibility := false
	for _, v := range res.Verdicts {
		if v.SubCategory == rubric.SubAccessibility {
			sawAccessibility = true
			assert.False(t, v.Detected)
			assert.NotEmpty(t, v.Remediation, "failed accessibility check %s needs fix guidance", v.FeatureID)
		} else if v.Detected {
			assert.Empty(t, v.Remediation)
		}
	}
	assert.True(t, sawAccessibility, "creative intelligence set carries accessibility checks")
}

func TestCancelRunningJob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	started := make(chan struct{})
	f.content.EvaluateFn = func(c context.Context, _ evaluation.MediaRef, _ []rubric.Feature) ([]rubric.Verdict, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-c.Done()
		return nil, c.Err()
	}

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("evaluation never started")
	}
	require.NoError(t, f.orch.Cancel(ctx, j.ID))
	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCanceled, final.Status)

	balance, err := f.ledger.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	err = f.orch.Cancel(ctx, j.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobNotCancelable))
}

func TestJobTimeoutCompensates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 100*time.Millisecond)

	f.content.EvaluateFn = func(c context.Context, _ evaluation.MediaRef, _ []rubric.Feature) ([]rubric.Verdict, error) {
		<-c.Done()
		return nil, c.Err()
	}

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, final.Status)
	assert.Equal(t, string(errors.ErrCodeJobTimeout), final.ErrorCode)

	balance, err := f.ledger.Balance(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)
}

func TestSecondSubmissionWhileInFlightRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2000, 30*time.Second)

	release := make(chan struct{})
	f.content.EvaluateFn = func(c context.Context, _ evaluation.MediaRef, features []rubric.Feature) ([]rubric.Verdict, error) {
		select {
		case <-release:
		case <-c.Done():
			return nil, c.Err()
		}
		return testutil.DetectedVerdicts(features, 0.8), nil
	}

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)

	_, err = f.orch.Submit(ctx, submitReq(rubric.CheckSetShorts))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConcurrencyLimit))

	close(release)
	waitTerminal(t, f, j.ID)

	_, err = f.orch.Submit(ctx, evaluation.SubmitRequest{
		AccountID: "acct-1",
		Source:    job.VideoSource{URI: "uploads/other.mp4", Filename: "other.mp4"},
		CheckSets: []rubric.CheckSet{rubric.CheckSetShorts},
	})
	require.NoError(t, err)
}

func TestHybridCombinationAdjustsConfidence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	// The annotation service disagrees on everything: hybrid verdicts keep
	// the LLM detection but carry reduced confidence.
	f.ann.AnnotateFn = func(_ context.Context, _ evaluation.MediaRef, features []rubric.Feature) (*evaluation.AnnotationSet, error) {
		set := &evaluation.AnnotationSet{Detections: make(map[string]bool, len(features))}
		for _, feat := range features {
			set.Detections[feat.ID] = false
		}
		return set, nil
	}

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	final, err := f.orch.GetJob(ctx, j.ID)
	require.NoError(t, err)
	report, err := f.orch.GetReport(ctx, final.ReportID)
	require.NoError(t, err)

	res := report.Result(rubric.CheckSetLongFormABCD)
	require.NotNil(t, res)
	features := rubric.NewRegistry().Features(rubric.CheckSetLongFormABCD)
	methods := make(map[string]rubric.Method, len(features))
	for _, feat := range features {
		methods[feat.ID] = feat.Method
	}
	sawHybrid := false
	for _, v := range res.Verdicts {
		switch methods[v.FeatureID] {
		case rubric.MethodHybrid:
			sawHybrid = true
			assert.True(t, v.Detected)
			assert.InDelta(t, 0.48, v.Confidence, 0.0001, "disagreement lowers 0.8 to 0.48")
		case rubric.MethodLLM:
			assert.InDelta(t, 0.8, v.Confidence, 0.0001)
		}
	}
	assert.True(t, sawHybrid, "long-form set carries hybrid checks")
}

func TestAnalyticsRowEmittedOnCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000, 30*time.Second)

	j, err := f.orch.Submit(ctx, submitReq(rubric.CheckSetLongFormABCD))
	require.NoError(t, err)
	waitTerminal(t, f, j.ID)

	require.Eventually(t, func() bool {
		return len(f.analytics.Rows()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	row := f.analytics.Rows()[0]
	assert.Equal(t, j.ID.String(), row.JobID)
	assert.Equal(t, "acct-1", row.AccountID)
	assert.False(t, row.CacheHit)
	assert.Greater(t, row.OverallScore, 0.0)
}
