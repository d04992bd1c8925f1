package evaluation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/reelgauge/reelgauge/internal/application/scoring"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
)

// CheckSetResult holds one analysis branch's verdicts, or the gap marker when
// the branch failed.
type CheckSetResult struct {
	CheckSet rubric.CheckSet  `json:"check_set"`
	Verdicts []rubric.Verdict `json:"verdicts,omitempty"`
	// Skipped marks a branch whose collaborator calls failed.  The report
	// carries the reason instead of silently omitting the section.
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// Report is the finished evaluation output.
type Report struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	AccountID   string    `json:"account_id"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`

	Results    []CheckSetResult    `json:"results"`
	Prediction *scoring.Prediction `json:"prediction,omitempty"`

	// Post-analysis enrichments, each optional.
	Metadata  *MediaMetadata    `json:"metadata,omitempty"`
	BrandInfo *BrandDescription `json:"brand_info,omitempty"`
	Keyframes []Keyframe        `json:"keyframes,omitempty"`
	Volume    *VolumeProfile    `json:"volume,omitempty"`
	Audio     *AudioRichness    `json:"audio,omitempty"`
	Brief     string            `json:"brief,omitempty"`
}

// Result returns the branch result for one check-set, or nil.
func (r *Report) Result(cs rubric.CheckSet) *CheckSetResult {
	for i := range r.Results {
		if r.Results[i].CheckSet == cs {
			return &r.Results[i]
		}
	}
	return nil
}

// SkippedSets lists the check-sets whose branches failed.
func (r *Report) SkippedSets() []rubric.CheckSet {
	var out []rubric.CheckSet
	for _, res := range r.Results {
		if res.Skipped {
			out = append(out, res.CheckSet)
		}
	}
	return out
}

// scoringInput splits the report's verdicts into the engine's three groups.
// ABCD covers the long-form and shorts sets; persuasion and structure come
// from the creative-intelligence set's sub-categories.  Accessibility checks
// inform remediation only and do not feed the indices.
func (r *Report) scoringInput() scoring.Input {
	var in scoring.Input
	for _, res := range r.Results {
		if res.Skipped {
			continue
		}
		switch res.CheckSet {
		case rubric.CheckSetLongFormABCD, rubric.CheckSetShorts:
			in.ABCD = append(in.ABCD, res.Verdicts...)
		case rubric.CheckSetCreativeIntelligence:
			for _, v := range res.Verdicts {
				switch v.SubCategory {
				case rubric.SubPersuasion:
					in.Persuasion = append(in.Persuasion, v)
				case rubric.SubStructure:
					in.Structure = append(in.Structure, v)
				}
			}
		}
	}
	return in
}

// composeBrief renders a short creative brief from what the evaluation saw.
// It is deterministic text assembly, not a model call.
func composeBrief(r *Report) string {
	var b strings.Builder
	if r.BrandInfo != nil && r.BrandInfo.BrandName != "" {
		fmt.Fprintf(&b, "Brand: %s", r.BrandInfo.BrandName)
		if r.BrandInfo.Industry != "" {
			fmt.Fprintf(&b, " (%s)", r.BrandInfo.Industry)
		}
		b.WriteString(". ")
	}
	if r.BrandInfo != nil && r.BrandInfo.SceneSummary != "" {
		b.WriteString(r.BrandInfo.SceneSummary)
		if !strings.HasSuffix(r.BrandInfo.SceneSummary, ".") {
			b.WriteString(".")
		}
		b.WriteString(" ")
	}

	var detected, missing []string
	for _, res := range r.Results {
		for _, v := range res.Verdicts {
			if v.Detected {
				detected = append(detected, v.Name)
			} else {
				missing = append(missing, v.Name)
			}
		}
	}
	sort.Strings(detected)
	sort.Strings(missing)
	if len(detected) > 0 {
		fmt.Fprintf(&b, "Working: %s. ", strings.Join(head(detected, 5), ", "))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Opportunities: %s.", strings.Join(head(missing, 5), ", "))
	}
	return strings.TrimSpace(b.String())
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
