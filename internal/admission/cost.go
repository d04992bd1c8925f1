package admission

import "math"

// Pricing constants.  Costs are prepaid tokens; one evaluation charges per
// second of video, capped at the per-video maximum.
const (
	// TokensPerSecond is the charge per second of analyzed video.
	TokensPerSecond = 10
	// MaxVideoSeconds is the longest video accepted for evaluation.
	MaxVideoSeconds = 60
	// MaxTokensPerVideo caps a single video's charge.
	MaxTokensPerVideo = TokensPerSecond * MaxVideoSeconds
	// MinTokensToRender is the balance below which the UI nudges a top-up.
	MinTokensToRender = 100
	// MaxFileSizeBytes is the upload size limit.
	MaxFileSizeBytes = 32 << 20
)

// EstimateCost returns the upfront token charge for a video of the given
// duration.  An unknown duration (zero or negative) charges the cap; any
// overestimate is refunded at settlement.
func EstimateCost(durationSeconds float64) int64 {
	if durationSeconds <= 0 {
		return MaxTokensPerVideo
	}
	cost := int64(math.Ceil(durationSeconds)) * TokensPerSecond
	if cost > MaxTokensPerVideo {
		return MaxTokensPerVideo
	}
	return cost
}
