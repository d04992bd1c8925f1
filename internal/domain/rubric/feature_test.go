package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/pkg/errors"
)

func TestRegistryFeatureCounts(t *testing.T) {
	r := NewRegistry()

	assert.Len(t, r.Features(CheckSetLongFormABCD), 20)
	assert.Len(t, r.Features(CheckSetShorts), 7)
	assert.Len(t, r.Features(CheckSetCreativeIntelligence), 13)
}

func TestRegistryFeaturesAreCopies(t *testing.T) {
	r := NewRegistry()

	first := r.Features(CheckSetShorts)
	first[0].Name = "mutated"

	assert.NotEqual(t, "mutated", r.Features(CheckSetShorts)[0].Name)
}

func TestFeatureIDsAreUnique(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]bool)
	for _, cs := range AllCheckSets() {
		for _, f := range r.Features(cs) {
			require.False(t, seen[f.ID], "duplicate feature id %s", f.ID)
			seen[f.ID] = true
		}
	}
	assert.Len(t, seen, 40)
}

func TestParseCheckSet(t *testing.T) {
	for _, cs := range AllCheckSets() {
		got, err := ParseCheckSet(string(cs))
		require.NoError(t, err)
		assert.Equal(t, cs, got)
	}

	_, err := ParseCheckSet("long_form")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestNeedsFirst5SecsTrim(t *testing.T) {
	r := NewRegistry()

	// The short-form sets include attention checks on the opening seconds.
	assert.True(t, NeedsFirst5SecsTrim(r.Features(CheckSetLongFormABCD)))
	assert.False(t, NeedsFirst5SecsTrim([]Feature{{Segment: SegmentFullVideo}}))
}

func TestNeedsAnnotations(t *testing.T) {
	assert.True(t, NeedsAnnotations([]Feature{{Method: MethodAnnotations}}))
	assert.True(t, NeedsAnnotations([]Feature{{Method: MethodHybrid}}))
	assert.False(t, NeedsAnnotations([]Feature{{Method: MethodLLM}}))
}

func TestCombineHybrid(t *testing.T) {
	base := Verdict{FeatureID: "lf_brand_early", Detected: true, Confidence: 0.8}

	agreed := CombineHybrid(base, true)
	assert.True(t, agreed.Detected)
	assert.InDelta(t, 0.86, agreed.Confidence, 1e-9)

	disagreed := CombineHybrid(base, false)
	// The multimodal verdict's detected flag wins; the confidence records
	// the dissent.
	assert.True(t, disagreed.Detected)
	assert.InDelta(t, 0.48, disagreed.Confidence, 1e-9)
}

func TestCombineHybridStaysInRange(t *testing.T) {
	v := CombineHybrid(Verdict{Detected: true, Confidence: 1.0}, true)
	assert.LessOrEqual(t, v.Confidence, 1.0)

	v = CombineHybrid(Verdict{Detected: false, Confidence: 0.0}, false)
	assert.GreaterOrEqual(t, v.Confidence, 0.0)
}

func TestApplyRemediations(t *testing.T) {
	verdicts := []Verdict{
		{FeatureID: "ax_captions", SubCategory: SubAccessibility, Detected: false},
		{FeatureID: "ax_text_contrast", SubCategory: SubAccessibility, Detected: true},
		{FeatureID: "lf_dynamic_start", SubCategory: SubAttract, Detected: false},
	}
	ApplyRemediations(verdicts)

	assert.NotEmpty(t, verdicts[0].Remediation, "failed accessibility check carries fix guidance")
	assert.Empty(t, verdicts[1].Remediation, "passing check needs no guidance")
	assert.Empty(t, verdicts[2].Remediation, "non-accessibility check is untouched")
}

func TestEveryAccessibilityFeatureHasRemediation(t *testing.T) {
	r := NewRegistry()
	for _, f := range r.Features(CheckSetCreativeIntelligence) {
		if f.SubCategory != SubAccessibility {
			continue
		}
		_, ok := remediations[f.ID]
		assert.True(t, ok, "feature %s has no remediation note", f.ID)
	}
}

func TestCanonicalNames(t *testing.T) {
	names := CanonicalNames([]CheckSet{
		CheckSetShorts,
		CheckSetCreativeIntelligence,
		CheckSetShorts,
		CheckSetLongFormABCD,
	})
	assert.Equal(t, []string{"creative_intelligence", "long_form_abcd", "shorts"}, names)
}
