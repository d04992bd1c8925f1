// Package evaluation implements the orchestrator: admission, preprocessing,
// fan-out analysis, post-analysis enrichment, scoring, settlement, and the
// progress stream for one evaluation job.
package evaluation

import (
	"context"
	"time"

	"github.com/reelgauge/reelgauge/internal/domain/rubric"
)

// MediaRef points at a fetched video the collaborators can address.  Bucket
// and key locate the object in storage; Segment marks derived trims.
type MediaRef struct {
	Bucket  string         `json:"bucket"`
	Key     string         `json:"key"`
	Segment rubric.Segment `json:"segment"`
}

// MediaMetadata is the technical probe of a video.
type MediaMetadata struct {
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameRate       float64 `json:"frame_rate"`
	HasAudio        bool    `json:"has_audio"`
	Format          string  `json:"format"`
}

// BrandDescription is the content-understanding service's read of the brand
// presented in the video.
type BrandDescription struct {
	BrandName     string   `json:"brand_name"`
	Industry      string   `json:"industry"`
	Products      []string `json:"products"`
	TargetPersona string   `json:"target_persona"`
	Tone          string   `json:"tone"`
	SceneSummary  string   `json:"scene_summary"`
}

// AnnotationSet is the structured annotation service's output: machine
// detections keyed by feature id, plus raw signal tracks.
type AnnotationSet struct {
	// Detections maps feature id to the boolean annotation signal used for
	// hybrid verdict combination.
	Detections map[string]bool `json:"detections"`
	// ShotChanges are the timestamps (seconds) of detected cuts.
	ShotChanges []float64 `json:"shot_changes"`
	// Transcript is the speech-to-text output, empty for silent videos.
	Transcript string `json:"transcript"`
	// TextOnScreen lists OCR'd on-screen text fragments.
	TextOnScreen []string `json:"text_on_screen"`
}

// Keyframe is one extracted representative frame.
type Keyframe struct {
	TimeSeconds float64 `json:"time_seconds"`
	StorageKey  string  `json:"storage_key"`
}

// VolumeProfile summarizes the loudness envelope of the audio track.
type VolumeProfile struct {
	MeanDB      float64 `json:"mean_db"`
	PeakDB      float64 `json:"peak_db"`
	SilentRatio float64 `json:"silent_ratio"`
}

// AudioRichness summarizes how much the audio track carries beyond speech.
type AudioRichness struct {
	HasMusic    bool    `json:"has_music"`
	HasSpeech   bool    `json:"has_speech"`
	SpeechRatio float64 `json:"speech_ratio"`
}

// ContentUnderstanding is the multimodal AI collaborator.
type ContentUnderstanding interface {
	// Evaluate runs the given rubric features against the referenced media and
	// returns one verdict per feature.
	Evaluate(ctx context.Context, ref MediaRef, features []rubric.Feature) ([]rubric.Verdict, error)
	// Describe extracts brand metadata and a scene summary from the media.
	Describe(ctx context.Context, ref MediaRef) (*BrandDescription, error)
}

// AnnotationService is the structured video annotation collaborator.
type AnnotationService interface {
	Annotate(ctx context.Context, ref MediaRef, features []rubric.Feature) (*AnnotationSet, error)
}

// MediaToolkit performs mechanical media operations: probing, trimming, and
// signal extraction.
type MediaToolkit interface {
	Probe(ctx context.Context, ref MediaRef) (*MediaMetadata, error)
	// TrimHead derives a new media object holding the first seconds of ref.
	TrimHead(ctx context.Context, ref MediaRef, seconds float64) (MediaRef, error)
	Keyframes(ctx context.Context, ref MediaRef) ([]Keyframe, error)
	Volume(ctx context.Context, ref MediaRef) (*VolumeProfile, error)
	Audio(ctx context.Context, ref MediaRef) (*AudioRichness, error)
}

// ObjectStore persists video assets and finished reports.
type ObjectStore interface {
	// FetchVideo pulls the submitted video into managed storage and returns
	// the reference collaborators use to address it.
	FetchVideo(ctx context.Context, uri string) (MediaRef, error)
	StoreReport(ctx context.Context, report *Report) error
	LoadReport(ctx context.Context, reportID string) (*Report, error)
	// PresignReport returns a time-limited download URL for the raw report.
	PresignReport(ctx context.Context, reportID string, expiry time.Duration) (string, error)
}

// ReportCache is the fingerprint-keyed result cache.
type ReportCache interface {
	Get(ctx context.Context, fingerprint string) (*Report, error)
	Set(ctx context.Context, fingerprint string, report *Report) error
}

// AnalyticsRow is one benchmark record appended to the warehouse.
type AnalyticsRow struct {
	JobID        string    `json:"job_id"`
	AccountID    string    `json:"account_id"`
	Fingerprint  string    `json:"fingerprint"`
	CheckSets    []string  `json:"check_sets"`
	OverallScore float64   `json:"overall_score"`
	FunnelLabel  string    `json:"funnel_label"`
	CacheHit     bool      `json:"cache_hit"`
	DurationSecs float64   `json:"duration_secs"`
	CompletedAt  time.Time `json:"completed_at"`
}

// AnalyticsSink appends benchmark rows to the warehouse.  Callers treat it as
// fire-and-forget; implementations log their own failures.
type AnalyticsSink interface {
	AppendRows(ctx context.Context, rows []AnalyticsRow) error
}

// Notifier posts operator-facing notifications.  Fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
