package scoring

// ModelVersion identifies the deterministic rule set.  Bump it whenever any
// weight, threshold, or section definition changes so cached reports from
// older rules are distinguishable.
const ModelVersion = "deterministic-rules.v1"

// Section keys, in canonical order.  The order is load-bearing: it breaks
// ties when ranking sections for the driver lists.
const (
	SectionHookAttention     = "hook_attention"
	SectionBrandVisibility   = "brand_visibility"
	SectionSocialProofTrust  = "social_proof_trust"
	SectionProductClarity    = "product_clarity_benefits"
	SectionFunnelAlignment   = "funnel_alignment"
	SectionCTA               = "cta"
	SectionCreativeDiversity = "creative_diversity_readiness"
	SectionMeasurement       = "measurement_compatibility"
	SectionDataAudience      = "data_audience_leverage"
)

var sectionOrder = []string{
	SectionHookAttention,
	SectionBrandVisibility,
	SectionSocialProofTrust,
	SectionProductClarity,
	SectionFunnelAlignment,
	SectionCTA,
	SectionCreativeDiversity,
	SectionMeasurement,
	SectionDataAudience,
}

// SectionMaxes caps each section's raw score; the maxes sum to 100 so the
// overall score reads as a percentage.
var SectionMaxes = map[string]float64{
	SectionHookAttention:     15,
	SectionBrandVisibility:   10,
	SectionSocialProofTrust:  15,
	SectionProductClarity:    15,
	SectionFunnelAlignment:   10,
	SectionCTA:               10,
	SectionCreativeDiversity: 10,
	SectionMeasurement:       10,
	SectionDataAudience:      5,
}

// SectionLabels are the human-readable names used in driver output.
var SectionLabels = map[string]string{
	SectionHookAttention:     "Hook & Attention",
	SectionBrandVisibility:   "Brand Visibility",
	SectionSocialProofTrust:  "Social Proof & Trust",
	SectionProductClarity:    "Product Clarity",
	SectionFunnelAlignment:   "Funnel Alignment",
	SectionCTA:               "Call to Action",
	SectionCreativeDiversity: "Creative Diversity",
	SectionMeasurement:       "Measurement Readiness",
	SectionDataAudience:      "Audience Leverage",
}

// Conversion Readiness Index weights and adjustments.
var criWeights = map[string]float64{
	SectionHookAttention:    0.22,
	SectionProductClarity:   0.18,
	SectionCTA:              0.18,
	SectionSocialProofTrust: 0.14,
	SectionBrandVisibility:  0.12,
	SectionFunnelAlignment:  0.10,
	SectionMeasurement:      0.06,
}

const (
	criPenaltyNoHook        = 0.10
	criPenaltyNoTrackable   = 0.10
	criPenaltyNoDemo        = 0.07
	criPenaltyNoTestimonial = 0.05

	criLowRiskThreshold    = 0.72
	criMediumRiskThreshold = 0.52
)

// Revenue Efficiency Index weights and adjustments.
var reiWeights = map[string]float64{
	SectionProductClarity:    0.24,
	SectionSocialProofTrust:  0.18,
	SectionBrandVisibility:   0.14,
	SectionFunnelAlignment:   0.12,
	SectionHookAttention:     0.12,
	SectionCTA:               0.10,
	SectionCreativeDiversity: 0.10,
}

const (
	reiBoostTrackable     = 0.05
	reiBoostBrandMentions = 0.03
	reiBoostEndCard       = 0.02

	reiPenaltyWeakProduct = 0.07
	reiPenaltyWeakSocial  = 0.05

	reiWeakProductCutoff = 0.45
	reiWeakSocialCutoff  = 0.40

	reiHighTierThreshold     = 0.70
	reiModerateTierThreshold = 0.50
)

// Refreshability Index weights.
const (
	rfiWeightDiversity   = 0.55
	rfiWeightHook        = 0.25
	rfiWeightMeasurement = 0.20

	rfiLowRiskThreshold    = 0.70
	rfiMediumRiskThreshold = 0.50
)

// Funnel stage blend weights.
var (
	tofWeights = funnelBlend{hook: 0.35, brand: 0.25, social: 0.20, story: 0.20}
	mofWeights = funnelBlend{social: 0.25, product: 0.25, brand: 0.20, hook: 0.15, cta: 0.15}
	bofWeights = funnelBlend{cta: 0.30, product: 0.25, social: 0.20, measurement: 0.15, funnel: 0.10}
)

// hybridMargin is how close the top two funnel stages must be to report a
// hybrid label such as "TOF/MOF".
const hybridMargin = 0.05

type funnelBlend struct {
	hook, brand, social, product, cta, measurement, funnel, story float64
}
