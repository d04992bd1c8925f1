// Package rubric defines the creative-quality rubric: the static table of
// named checks (features), the check-sets that group them, and the verdict
// type produced when a feature is evaluated against a video.
package rubric

import (
	"sort"

	"github.com/reelgauge/reelgauge/pkg/errors"
)

// CheckSet is a named group of features evaluated together.
type CheckSet string

const (
	CheckSetLongFormABCD         CheckSet = "long_form_abcd"
	CheckSetShorts               CheckSet = "shorts"
	CheckSetCreativeIntelligence CheckSet = "creative_intelligence"
)

// AllCheckSets lists every known check-set in canonical order.
func AllCheckSets() []CheckSet {
	return []CheckSet{CheckSetLongFormABCD, CheckSetShorts, CheckSetCreativeIntelligence}
}

// ParseCheckSet validates a caller-supplied check-set name.
func ParseCheckSet(s string) (CheckSet, error) {
	switch CheckSet(s) {
	case CheckSetLongFormABCD, CheckSetShorts, CheckSetCreativeIntelligence:
		return CheckSet(s), nil
	}
	return "", errors.Newf(errors.ErrCodeValidation, "unknown check-set %q", s)
}

// SubCategory groups features into the scoring sections.
type SubCategory string

const (
	SubAttract       SubCategory = "ATTRACT"
	SubBrand         SubCategory = "BRAND"
	SubConnect       SubCategory = "CONNECT"
	SubDirect        SubCategory = "DIRECT"
	SubPersuasion    SubCategory = "PERSUASION"
	SubStructure     SubCategory = "STRUCTURE"
	SubAccessibility SubCategory = "ACCESSIBILITY"
)

// Segment identifies the portion of the video a feature is evaluated on.
type Segment string

const (
	SegmentFullVideo  Segment = "full_video"
	SegmentFirst5Secs Segment = "first_5_secs"
)

// Method declares how a feature's verdict is produced.
type Method string

const (
	// MethodLLM evaluates via the content-understanding service only.
	MethodLLM Method = "llm"
	// MethodAnnotations evaluates via the structured annotation service only.
	MethodAnnotations Method = "annotations"
	// MethodHybrid combines both services' outputs for the same feature id.
	MethodHybrid Method = "llm_and_annotations"
)

// Feature is one named rubric item.  The table of features is static
// configuration; verdicts are produced at evaluation time.
type Feature struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CheckSet    CheckSet    `json:"check_set"`
	SubCategory SubCategory `json:"sub_category"`
	Segment     Segment     `json:"segment"`
	Criteria    string      `json:"criteria"`
	Method      Method      `json:"method"`
}

// NeedsFirst5SecsTrim reports whether any feature in the set is evaluated on
// the first-5-seconds segment, which requires the preprocessing trim step.
func NeedsFirst5SecsTrim(features []Feature) bool {
	for _, f := range features {
		if f.Segment == SegmentFirst5Secs {
			return true
		}
	}
	return false
}

// NeedsAnnotations reports whether any feature in the set requires the
// structured annotation service.
func NeedsAnnotations(features []Feature) bool {
	for _, f := range features {
		if f.Method == MethodAnnotations || f.Method == MethodHybrid {
			return true
		}
	}
	return false
}

// Registry exposes the static feature table.
type Registry struct {
	byCheckSet map[CheckSet][]Feature
}

// NewRegistry builds the registry from the built-in feature table.
func NewRegistry() *Registry {
	r := &Registry{byCheckSet: make(map[CheckSet][]Feature)}
	for _, f := range featureTable {
		r.byCheckSet[f.CheckSet] = append(r.byCheckSet[f.CheckSet], f)
	}
	return r
}

// Features returns the feature definitions for one check-set, in table order.
// The returned slice is a copy; callers may not mutate registry state.
func (r *Registry) Features(cs CheckSet) []Feature {
	src := r.byCheckSet[cs]
	out := make([]Feature, len(src))
	copy(out, src)
	return out
}

// CanonicalNames returns the sorted names of the given check-sets, used to
// build deterministic request fingerprints.
func CanonicalNames(sets []CheckSet) []string {
	names := make([]string, 0, len(sets))
	seen := make(map[CheckSet]struct{}, len(sets))
	for _, cs := range sets {
		if _, ok := seen[cs]; ok {
			continue
		}
		seen[cs] = struct{}{}
		names = append(names, string(cs))
	}
	sort.Strings(names)
	return names
}
