// Package scoring computes performance predictions from rubric verdicts.
// The engine is pure and deterministic: the same verdicts always produce the
// same prediction, with no model call involved.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/reelgauge/reelgauge/internal/domain/rubric"
)

// Input groups the verdicts the engine scores.  ABCD covers the long-form
// and shorts check-sets; Persuasion and Structure come from the creative
// intelligence check-set.
type Input struct {
	ABCD       []rubric.Verdict
	Persuasion []rubric.Verdict
	Structure  []rubric.Verdict
}

// FunnelStrength holds the per-stage blend scores and the resulting label.
type FunnelStrength struct {
	TOF float64 `json:"tof"`
	MOF float64 `json:"mof"`
	BOF float64 `json:"bof"`
	// Winner is the single strongest stage.
	Winner string `json:"winner"`
	// Hybrid is "A/B" when the top two stages are within the hybrid margin,
	// empty otherwise.
	Hybrid string `json:"hybrid,omitempty"`
}

// Indices are the three composite indices plus funnel strength.
type Indices struct {
	ConversionReadiness float64        `json:"conversion_readiness_index"`
	RevenueEfficiency   float64        `json:"revenue_efficiency_index"`
	Refreshability      float64        `json:"refreshability_index"`
	FunnelStrength      FunnelStrength `json:"funnel_strength"`
}

// Labels are the caller-facing categorical predictions.
type Labels struct {
	PredictedCPARisk       string `json:"predicted_cpa_risk"`
	PredictedROASTier      string `json:"predicted_roas_tier"`
	CreativeFatigueRisk    string `json:"creative_fatigue_risk"`
	ExpectedFunnelStrength string `json:"expected_funnel_strength"`
}

// Flags are the boolean signals that drive index adjustments.
type Flags struct {
	HookWithin3s       bool `json:"hook_within_3s"`
	BrandMentions3x    bool `json:"brand_mentions_3x"`
	HasTrackableAnchor bool `json:"has_trackable_anchor"`
	HasTestimonialUGC  bool `json:"has_testimonial_or_ugc"`
	ProductDemoPresent bool `json:"product_demo_present"`
	EndCardPresent     bool `json:"end_card_present"`
}

// Driver names one section and its normalized score, for explainability.
type Driver struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// Adjustment records one boost or penalty applied to an index.
type Adjustment struct {
	Type  string  `json:"type"` // "boost" or "penalty"
	Key   string  `json:"key"`
	Delta float64 `json:"delta"`
}

// Drivers explains which sections and adjustments moved the prediction.
type Drivers struct {
	TopPositive        []Driver     `json:"top_positive"`
	TopNegative        []Driver     `json:"top_negative"`
	AppliedAdjustments []Adjustment `json:"applied_adjustments"`
}

// Prediction is the engine's full output.
type Prediction struct {
	OverallScore  float64            `json:"overall_score"`
	SectionScores map[string]float64 `json:"section_scores"`
	SectionMaxes  map[string]float64 `json:"section_maxes"`
	Normalized    map[string]float64 `json:"normalized"`
	ModelVersion  string             `json:"model_version"`
	Indices       Indices            `json:"indices"`
	Labels        Labels             `json:"labels"`
	Flags         Flags              `json:"flags"`
	Drivers       Drivers            `json:"drivers"`
}

// Engine is the deterministic prediction engine.  The zero value is ready to
// use; it carries no state between calls.
type Engine struct{}

// NewEngine returns a prediction engine.
func NewEngine() *Engine { return &Engine{} }

// Predict computes the full prediction for one video's verdicts.
func (e *Engine) Predict(in Input) *Prediction {
	attract := bySub(in.ABCD, rubric.SubAttract)
	brand := bySub(in.ABCD, rubric.SubBrand)
	connect := bySub(in.ABCD, rubric.SubConnect)
	direct := bySub(in.ABCD, rubric.SubDirect)

	productFeats := byNameKeyword(connect, []string{"product"})
	peopleFeats := byNameKeyword(connect, []string{"people", "face", "person", "presence"})

	scores := map[string]float64{
		SectionHookAttention:    sectionScore(attract, SectionMaxes[SectionHookAttention]),
		SectionBrandVisibility:  sectionScore(brand, SectionMaxes[SectionBrandVisibility]),
		SectionSocialProofTrust: sectionScore(concat(peopleFeats, in.Persuasion), SectionMaxes[SectionSocialProofTrust]),
		SectionProductClarity:   sectionScore(productFeats, SectionMaxes[SectionProductClarity]),
		SectionFunnelAlignment:  sectionScore(in.Structure, SectionMaxes[SectionFunnelAlignment]),
		SectionCTA:              sectionScore(direct, SectionMaxes[SectionCTA]),
	}

	// Creative diversity blends structure variety with overall coverage.
	detected := 0
	for _, v := range in.ABCD {
		if v.Detected {
			detected++
		}
	}
	coverage := float64(detected) / math.Max(float64(len(in.ABCD)), 1)
	scores[SectionCreativeDiversity] = round2(math.Min(
		sectionScore(concat(in.Structure, in.Persuasion), 10)*0.6+coverage*4.0, 10))

	// Measurement readiness is a proxy from CTA strength plus trackable
	// anchors found in the evidence text.
	trackableEvidence := hasKeywordDetected(concat(direct, in.ABCD),
		[]string{"url", "qr", "link", "code", "shop", "visit"}, fieldEvidence)
	measurement := sectionScore(direct, 7)
	if trackableEvidence {
		measurement += 3.0
	}
	scores[SectionMeasurement] = round2(math.Min(measurement, 10))

	scores[SectionDataAudience] = round2(math.Min(
		sectionScore(brand, SectionMaxes[SectionDataAudience]), SectionMaxes[SectionDataAudience]))

	norm := make(map[string]float64, len(scores))
	for k, v := range scores {
		norm[k] = round4(v / SectionMaxes[k])
	}

	brandDetected := 0
	for _, v := range brand {
		if v.Detected {
			brandDetected++
		}
	}
	trackableKw := []string{"url", "qr", "link", "code", "shop", "offer"}
	flags := Flags{
		HookWithin3s:    hasKeywordDetected(attract, []string{"dynamic start"}, fieldName),
		BrandMentions3x: brandDetected >= 3,
		HasTrackableAnchor: hasKeywordDetected(concat(direct, in.ABCD), trackableKw, fieldEvidence) ||
			hasKeywordDetected(direct, trackableKw, fieldRationale),
		HasTestimonialUGC: hasKeywordDetected(concat(in.Persuasion, peopleFeats),
			[]string{"testimonial", "ugc", "user-generated", "review", "creator"}, fieldName),
		ProductDemoPresent: hasKeywordDetected(productFeats, []string{"product visuals"}, fieldName),
		EndCardPresent:     hasKeywordDetected(direct, []string{"text", "call to action"}, fieldName),
	}

	indices, adjustments := e.computeIndices(norm, flags)
	labels := e.labelFor(indices)

	var overall float64
	for _, v := range scores {
		overall += v
	}

	return &Prediction{
		OverallScore:  round1(overall),
		SectionScores: scores,
		SectionMaxes:  SectionMaxes,
		Normalized:    norm,
		ModelVersion:  ModelVersion,
		Indices:       indices,
		Labels:        labels,
		Flags:         flags,
		Drivers: Drivers{
			TopPositive:        topPositive(norm),
			TopNegative:        topNegative(norm),
			AppliedAdjustments: adjustments,
		},
	}
}

func (e *Engine) computeIndices(norm map[string]float64, flags Flags) (Indices, []Adjustment) {
	// Summed in canonical section order: map iteration order varies per run
	// and float addition is order-sensitive, which would break reproducible
	// index values for identical inputs.
	var cri float64
	for _, section := range sectionOrder {
		if w, ok := criWeights[section]; ok {
			cri += w * norm[section]
		}
	}
	var criPenalty float64
	if !flags.HookWithin3s {
		criPenalty += criPenaltyNoHook
	}
	if !flags.HasTrackableAnchor {
		criPenalty += criPenaltyNoTrackable
	}
	if !flags.ProductDemoPresent {
		criPenalty += criPenaltyNoDemo
	}
	if !flags.HasTestimonialUGC {
		criPenalty += criPenaltyNoTestimonial
	}
	criAdj := clamp01(cri - criPenalty)

	var rei float64
	for _, section := range sectionOrder {
		if w, ok := reiWeights[section]; ok {
			rei += w * norm[section]
		}
	}
	var reiBoost float64
	if flags.HasTrackableAnchor {
		reiBoost += reiBoostTrackable
	}
	if flags.BrandMentions3x {
		reiBoost += reiBoostBrandMentions
	}
	if flags.EndCardPresent {
		reiBoost += reiBoostEndCard
	}
	var reiPenalty float64
	if norm[SectionProductClarity] < reiWeakProductCutoff {
		reiPenalty += reiPenaltyWeakProduct
	}
	if norm[SectionSocialProofTrust] < reiWeakSocialCutoff {
		reiPenalty += reiPenaltyWeakSocial
	}
	reiAdj := clamp01(rei + reiBoost - reiPenalty)

	rfi := rfiWeightDiversity*norm[SectionCreativeDiversity] +
		rfiWeightHook*norm[SectionHookAttention] +
		rfiWeightMeasurement*norm[SectionMeasurement]

	storyProxy := (norm[SectionFunnelAlignment] + norm[SectionProductClarity]) / 2

	tof := tofWeights.hook*norm[SectionHookAttention] +
		tofWeights.brand*norm[SectionBrandVisibility] +
		tofWeights.social*norm[SectionSocialProofTrust] +
		tofWeights.story*storyProxy
	mof := mofWeights.social*norm[SectionSocialProofTrust] +
		mofWeights.product*norm[SectionProductClarity] +
		mofWeights.brand*norm[SectionBrandVisibility] +
		mofWeights.hook*norm[SectionHookAttention] +
		mofWeights.cta*norm[SectionCTA]
	bof := bofWeights.cta*norm[SectionCTA] +
		bofWeights.product*norm[SectionProductClarity] +
		bofWeights.social*norm[SectionSocialProofTrust] +
		bofWeights.measurement*norm[SectionMeasurement] +
		bofWeights.funnel*norm[SectionFunnelAlignment]

	winner, hybrid := rankFunnel(tof, mof, bof)

	adjustments := appliedAdjustments(flags)

	return Indices{
		ConversionReadiness: round3(criAdj),
		RevenueEfficiency:   round3(reiAdj),
		Refreshability:      round3(rfi),
		FunnelStrength: FunnelStrength{
			TOF:    round3(tof),
			MOF:    round3(mof),
			BOF:    round3(bof),
			Winner: winner,
			Hybrid: hybrid,
		},
	}, adjustments
}

func (e *Engine) labelFor(idx Indices) Labels {
	cpa := "High"
	if idx.ConversionReadiness >= criLowRiskThreshold {
		cpa = "Low"
	} else if idx.ConversionReadiness >= criMediumRiskThreshold {
		cpa = "Medium"
	}

	roas := "Low"
	if idx.RevenueEfficiency >= reiHighTierThreshold {
		roas = "High"
	} else if idx.RevenueEfficiency >= reiModerateTierThreshold {
		roas = "Moderate"
	}

	fatigue := "High"
	if idx.Refreshability >= rfiLowRiskThreshold {
		fatigue = "Low"
	} else if idx.Refreshability >= rfiMediumRiskThreshold {
		fatigue = "Medium"
	}

	funnel := idx.FunnelStrength.Winner
	if idx.FunnelStrength.Hybrid != "" {
		funnel = idx.FunnelStrength.Hybrid
	}

	return Labels{
		PredictedCPARisk:       cpa,
		PredictedROASTier:      roas,
		CreativeFatigueRisk:    fatigue,
		ExpectedFunnelStrength: funnel,
	}
}

// rankFunnel orders the three stages by score.  Ties preserve TOF, MOF, BOF
// order so the outcome never depends on map iteration.
func rankFunnel(tof, mof, bof float64) (winner, hybrid string) {
	stages := []struct {
		name  string
		score float64
	}{
		{"TOF", tof},
		{"MOF", mof},
		{"BOF", bof},
	}
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].score > stages[j].score
	})
	winner = stages[0].name
	if stages[0].score-stages[1].score < hybridMargin {
		hybrid = fmt.Sprintf("%s/%s", stages[0].name, stages[1].name)
	}
	return winner, hybrid
}

func appliedAdjustments(flags Flags) []Adjustment {
	var out []Adjustment
	if flags.HasTrackableAnchor {
		out = append(out, Adjustment{Type: "boost", Key: "has_trackable_anchor", Delta: reiBoostTrackable})
	}
	if flags.BrandMentions3x {
		out = append(out, Adjustment{Type: "boost", Key: "brand_mentions_3x", Delta: reiBoostBrandMentions})
	}
	if flags.EndCardPresent {
		out = append(out, Adjustment{Type: "boost", Key: "end_card_present", Delta: reiBoostEndCard})
	}
	if !flags.HookWithin3s {
		out = append(out, Adjustment{Type: "penalty", Key: "hook_within_3s", Delta: -criPenaltyNoHook})
	}
	if !flags.HasTrackableAnchor {
		out = append(out, Adjustment{Type: "penalty", Key: "has_trackable_anchor", Delta: -criPenaltyNoTrackable})
	}
	if !flags.ProductDemoPresent {
		out = append(out, Adjustment{Type: "penalty", Key: "product_demo_present", Delta: -criPenaltyNoDemo})
	}
	if !flags.HasTestimonialUGC {
		out = append(out, Adjustment{Type: "penalty", Key: "has_testimonial_or_ugc", Delta: -criPenaltyNoTestimonial})
	}
	return out
}

// sectionScore sums confidence-weighted contributions of detected features.
// Each feature contributes an equal share of the section max.  A zero
// confidence on a detected feature counts as 0.5, matching evaluators that
// omit the field.
func sectionScore(verdicts []rubric.Verdict, max float64) float64 {
	if len(verdicts) == 0 {
		return 0
	}
	perFeature := max / float64(len(verdicts))
	var total float64
	for _, v := range verdicts {
		if !v.Detected {
			continue
		}
		conf := v.Confidence
		if conf == 0 {
			conf = 0.5
		}
		total += conf * perFeature
	}
	return round2(math.Min(total, max))
}

type keywordField int

const (
	fieldName keywordField = iota
	fieldEvidence
	fieldRationale
)

func hasKeywordDetected(verdicts []rubric.Verdict, keywords []string, field keywordField) bool {
	for _, v := range verdicts {
		if !v.Detected {
			continue
		}
		var text string
		switch field {
		case fieldEvidence:
			text = v.Evidence
		case fieldRationale:
			text = v.Rationale
		default:
			text = v.Name
		}
		text = strings.ToLower(text)
		for _, k := range keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
	}
	return false
}

func bySub(verdicts []rubric.Verdict, sub rubric.SubCategory) []rubric.Verdict {
	var out []rubric.Verdict
	for _, v := range verdicts {
		if v.SubCategory == sub {
			out = append(out, v)
		}
	}
	return out
}

func byNameKeyword(verdicts []rubric.Verdict, keywords []string) []rubric.Verdict {
	var out []rubric.Verdict
	for _, v := range verdicts {
		name := strings.ToLower(v.Name)
		for _, k := range keywords {
			if strings.Contains(name, k) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func concat(a, b []rubric.Verdict) []rubric.Verdict {
	out := make([]rubric.Verdict, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// rankSections orders sections by normalized score descending, breaking ties
// by canonical section order.
func rankSections(norm map[string]float64) []Driver {
	out := make([]Driver, 0, len(sectionOrder))
	for _, k := range sectionOrder {
		if v, ok := norm[k]; ok {
			out = append(out, Driver{Feature: k, Score: v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func topPositive(norm map[string]float64) []Driver {
	ranked := rankSections(norm)
	var out []Driver
	for _, d := range ranked[:min(3, len(ranked))] {
		if d.Score > 0.5 {
			out = append(out, Driver{Feature: SectionLabels[d.Feature], Score: round2(d.Score)})
		}
	}
	return out
}

func topNegative(norm map[string]float64) []Driver {
	ranked := rankSections(norm)
	var out []Driver
	for _, d := range ranked {
		if d.Score < 0.5 {
			out = append(out, Driver{Feature: SectionLabels[d.Feature], Score: round2(d.Score)})
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
