// Package testutil holds shared fakes for the collaborator ports.  Every
// fake records its calls and lets a test override behavior per function.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// FakeContent is a scriptable ContentUnderstanding.
type FakeContent struct {
	mu            sync.Mutex
	EvaluateFn    func(ctx context.Context, ref evaluation.MediaRef, features []rubric.Feature) ([]rubric.Verdict, error)
	DescribeFn    func(ctx context.Context, ref evaluation.MediaRef) (*evaluation.BrandDescription, error)
	EvaluateCalls int
	DescribeCalls int
}

func (f *FakeContent) Evaluate(ctx context.Context, ref evaluation.MediaRef, features []rubric.Feature) ([]rubric.Verdict, error) {
	f.mu.Lock()
	f.EvaluateCalls++
	fn := f.EvaluateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, ref, features)
	}
	return DetectedVerdicts(features, 0.8), nil
}

func (f *FakeContent) Describe(ctx context.Context, ref evaluation.MediaRef) (*evaluation.BrandDescription, error) {
	f.mu.Lock()
	f.DescribeCalls++
	fn := f.DescribeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, ref)
	}
	return &evaluation.BrandDescription{
		BrandName:    "Acme Fitness",
		Industry:     "wellness",
		SceneSummary: "A trainer demonstrates the product in a home gym",
	}, nil
}

// DetectedVerdicts builds one detected verdict per feature at the given
// confidence.
func DetectedVerdicts(features []rubric.Feature, confidence float64) []rubric.Verdict {
	out := make([]rubric.Verdict, 0, len(features))
	for _, f := range features {
		out = append(out, rubric.Verdict{
			FeatureID:   f.ID,
			Name:        f.Name,
			CheckSet:    f.CheckSet,
			SubCategory: f.SubCategory,
			Detected:    true,
			Confidence:  confidence,
			Rationale:   "observed in the video",
			Evidence:    "visible on screen",
		})
	}
	return out
}

// FakeAnnotations is a scriptable AnnotationService.
type FakeAnnotations struct {
	mu         sync.Mutex
	AnnotateFn func(ctx context.Context, ref evaluation.MediaRef, features []rubric.Feature) (*evaluation.AnnotationSet, error)
	Calls      int
}

func (f *FakeAnnotations) Annotate(ctx context.Context, ref evaluation.MediaRef, features []rubric.Feature) (*evaluation.AnnotationSet, error) {
	f.mu.Lock()
	f.Calls++
	fn := f.AnnotateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, ref, features)
	}
	set := &evaluation.AnnotationSet{Detections: make(map[string]bool, len(features))}
	for _, feat := range features {
		set.Detections[feat.ID] = true
	}
	return set, nil
}

// FakeToolkit is a scriptable MediaToolkit.  Defaults report a 30 second
// 1080x1920 clip with audio.
type FakeToolkit struct {
	ProbeFn     func(ctx context.Context, ref evaluation.MediaRef) (*evaluation.MediaMetadata, error)
	TrimFn      func(ctx context.Context, ref evaluation.MediaRef, seconds float64) (evaluation.MediaRef, error)
	KeyframesFn func(ctx context.Context, ref evaluation.MediaRef) ([]evaluation.Keyframe, error)
	VolumeFn    func(ctx context.Context, ref evaluation.MediaRef) (*evaluation.VolumeProfile, error)
	AudioFn     func(ctx context.Context, ref evaluation.MediaRef) (*evaluation.AudioRichness, error)
}

func (f *FakeToolkit) Probe(ctx context.Context, ref evaluation.MediaRef) (*evaluation.MediaMetadata, error) {
	if f.ProbeFn != nil {
		return f.ProbeFn(ctx, ref)
	}
	return &evaluation.MediaMetadata{
		DurationSeconds: 30,
		Width:           1080,
		Height:          1920,
		FrameRate:       30,
		HasAudio:        true,
		Format:          "mp4",
	}, nil
}

func (f *FakeToolkit) TrimHead(ctx context.Context, ref evaluation.MediaRef, seconds float64) (evaluation.MediaRef, error) {
	if f.TrimFn != nil {
		return f.TrimFn(ctx, ref, seconds)
	}
	trimmed := ref
	trimmed.Key = ref.Key + ".first5"
	trimmed.Segment = rubric.SegmentFirst5Secs
	return trimmed, nil
}

func (f *FakeToolkit) Keyframes(ctx context.Context, ref evaluation.MediaRef) ([]evaluation.Keyframe, error) {
	if f.KeyframesFn != nil {
		return f.KeyframesFn(ctx, ref)
	}
	return []evaluation.Keyframe{{TimeSeconds: 0}, {TimeSeconds: 15}}, nil
}

func (f *FakeToolkit) Volume(ctx context.Context, ref evaluation.MediaRef) (*evaluation.VolumeProfile, error) {
	if f.VolumeFn != nil {
		return f.VolumeFn(ctx, ref)
	}
	return &evaluation.VolumeProfile{MeanDB: -18, PeakDB: -3, SilentRatio: 0.1}, nil
}

func (f *FakeToolkit) Audio(ctx context.Context, ref evaluation.MediaRef) (*evaluation.AudioRichness, error) {
	if f.AudioFn != nil {
		return f.AudioFn(ctx, ref)
	}
	return &evaluation.AudioRichness{HasMusic: true, HasSpeech: true, SpeechRatio: 0.6}, nil
}

// FakeStore is an in-memory ObjectStore.
type FakeStore struct {
	mu      sync.Mutex
	reports map[string]*evaluation.Report
	FetchFn func(ctx context.Context, uri string) (evaluation.MediaRef, error)
}

func NewFakeStore() *FakeStore {
	return &FakeStore{reports: make(map[string]*evaluation.Report)}
}

func (s *FakeStore) FetchVideo(ctx context.Context, uri string) (evaluation.MediaRef, error) {
	if s.FetchFn != nil {
		return s.FetchFn(ctx, uri)
	}
	return evaluation.MediaRef{Bucket: "assets", Key: uri, Segment: rubric.SegmentFullVideo}, nil
}

func (s *FakeStore) StoreReport(_ context.Context, report *evaluation.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	return nil
}

func (s *FakeStore) LoadReport(_ context.Context, reportID string) (*evaluation.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeReportNotFound, "report %s not found", reportID)
	}
	return r, nil
}

func (s *FakeStore) PresignReport(_ context.Context, reportID string, _ time.Duration) (string, error) {
	return "https://storage.invalid/reports/" + reportID, nil
}

// FakeCache is an in-memory fingerprint cache.
type FakeCache struct {
	mu      sync.Mutex
	entries map[string]*evaluation.Report
}

func NewFakeCache() *FakeCache {
	return &FakeCache{entries: make(map[string]*evaluation.Report)}
}

func (c *FakeCache) Get(_ context.Context, fingerprint string) (*evaluation.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[fingerprint]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNotFound, "no cached report for fingerprint")
	}
	return r, nil
}

func (c *FakeCache) Set(_ context.Context, fingerprint string, report *evaluation.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = report
	return nil
}

// FakeAnalytics records appended rows.
type FakeAnalytics struct {
	mu   sync.Mutex
	rows []evaluation.AnalyticsRow
}

func (a *FakeAnalytics) AppendRows(_ context.Context, rows []evaluation.AnalyticsRow) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, rows...)
	return nil
}

func (a *FakeAnalytics) Rows() []evaluation.AnalyticsRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]evaluation.AnalyticsRow, len(a.rows))
	copy(out, a.rows)
	return out
}

// FakeNotifier records notification messages.
type FakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *FakeNotifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *FakeNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
