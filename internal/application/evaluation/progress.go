package evaluation

import (
	"sync"

	"github.com/google/uuid"

	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
)

// Pipeline milestones and their cumulative percentages.
const (
	StageQueued     = "queued"
	StageTrim       = "trimming_first_5_secs"
	StageMetadata   = "extracting_metadata"
	StageMetaDone   = "metadata_ready"
	StageEvaluating = "evaluating"
	StageABCDDone   = "abcd_checks_done"
	StageShortsDone = "shorts_checks_done"
	StageCIDone     = "creative_intelligence_done"
	StagePost       = "post_analysis"
	StageKeyframes  = "keyframes_extracted"
	StageVolume     = "volume_profiled"
	StageBrand      = "brand_intel_ready"
	StageBrief      = "creative_brief_ready"
	StageAudio      = "audio_richness_ready"
	StageFormatting = "formatting_report"
	StageComplete   = "complete"
)

var stagePct = map[string]int{
	StageQueued:     0,
	StageTrim:       5,
	StageMetadata:   8,
	StageMetaDone:   18,
	StageEvaluating: 20,
	StageABCDDone:   50,
	StageShortsDone: 55,
	StageCIDone:     60,
	StagePost:       65,
	StageKeyframes:  75,
	StageVolume:     82,
	StageBrand:      90,
	StageBrief:      92,
	StageAudio:      93,
	StageFormatting: 95,
	StageComplete:   100,
}

// StagePct returns the cumulative percentage for a milestone name.
func StagePct(stage string) int {
	return stagePct[stage]
}

// Event is one progress update delivered to stream subscribers.
type Event struct {
	JobID    uuid.UUID `json:"job_id"`
	Stage    string    `json:"stage"`
	Pct      int       `json:"pct"`
	Status   string    `json:"status"`
	Terminal bool      `json:"terminal"`
	ErrCode  string    `json:"error_code,omitempty"`
	ErrMsg   string    `json:"error_message,omitempty"`
}

type subscriber struct {
	ch chan Event
}

// Hub fans progress events out to per-job subscribers.  Publishing never
// blocks: a subscriber that cannot keep up has events dropped, and the
// terminal event is always delivered by closing the channel after a final
// buffered send.
type Hub struct {
	log logging.Logger

	mu   sync.Mutex
	subs map[uuid.UUID][]*subscriber
	// last retains the most recent event per job so late subscribers start
	// from the current state instead of silence.
	last map[uuid.UUID]Event
}

// NewHub constructs an empty progress hub.
func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log:  log.Named("progress"),
		subs: make(map[uuid.UUID][]*subscriber),
		last: make(map[uuid.UUID]Event),
	}
}

// Subscribe registers a listener for one job's events.  The returned cancel
// function must be called when the listener goes away.  If the job already
// reached a terminal state, the channel delivers that event and closes.
func (h *Hub) Subscribe(jobID uuid.UUID) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 16)}

	h.mu.Lock()
	if ev, ok := h.last[jobID]; ok {
		sub.ch <- ev
		if ev.Terminal {
			close(sub.ch)
			h.mu.Unlock()
			return sub.ch, func() {}
		}
	}
	h.subs[jobID] = append(h.subs[jobID], sub)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[jobID]
		for i, s := range list {
			if s == sub {
				h.subs[jobID] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return sub.ch, cancel
}

// Publish delivers an event to every subscriber of the job.  A terminal
// event closes all subscriber channels and forgets the job's subscriber
// list; the event itself stays retained for late subscribers.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[ev.JobID] = ev
	for _, sub := range h.subs[ev.JobID] {
		select {
		case sub.ch <- ev:
		default:
			h.log.Warn("progress subscriber lagging, dropping event",
				logging.String("job_id", ev.JobID.String()),
				logging.String("stage", ev.Stage),
			)
		}
	}
	if ev.Terminal {
		for _, sub := range h.subs[ev.JobID] {
			close(sub.ch)
		}
		delete(h.subs, ev.JobID)
	}
}

// Forget drops the retained terminal event for a job.  The reaper calls this
// once a finished job ages out.
func (h *Hub) Forget(jobID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.last, jobID)
}
