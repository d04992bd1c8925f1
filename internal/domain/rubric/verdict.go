package rubric

// TimeRange marks where in the video the evidence for a verdict was observed.
type TimeRange struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// Verdict is one rubric item's result.  A Verdict is immutable once attached
// to a job's result set.
type Verdict struct {
	FeatureID   string      `json:"feature_id"`
	Name        string      `json:"name"`
	CheckSet    CheckSet    `json:"check_set"`
	SubCategory SubCategory `json:"sub_category"`
	Detected    bool        `json:"detected"`
	// Confidence is in [0,1].  Verdicts produced by hybrid combination carry
	// the agreement-adjusted confidence.
	Confidence float64     `json:"confidence"`
	Rationale  string      `json:"rationale"`
	Evidence   string      `json:"evidence"`
	Timestamps []TimeRange `json:"timestamps,omitempty"`
	// Remediation is populated for accessibility checks only: a concrete note
	// on how to fix the gap when the check is not detected.
	Remediation string `json:"remediation,omitempty"`
}

// CombineHybrid merges an LLM verdict with the annotation service's boolean
// signal for the same feature.  Agreement raises confidence, disagreement
// lowers it; the LLM's detected flag wins because it sees full multimodal
// context, but the adjusted confidence records the dissent.
func CombineHybrid(llm Verdict, annotationDetected bool) Verdict {
	out := llm
	if llm.Detected == annotationDetected {
		out.Confidence = clamp01(llm.Confidence + (1-llm.Confidence)*0.3)
	} else {
		out.Confidence = clamp01(llm.Confidence * 0.6)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
