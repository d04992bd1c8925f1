package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelgauge/reelgauge/internal/domain/rubric"
)

func v(name string, sub rubric.SubCategory, detected bool, confidence float64) rubric.Verdict {
	return rubric.Verdict{
		FeatureID:   name,
		Name:        name,
		SubCategory: sub,
		Detected:    detected,
		Confidence:  confidence,
	}
}

// strongInput is a creative that hits nearly every signal: dynamic start,
// three brand detections, trackable CTA evidence, demo, testimonial.
func strongInput() Input {
	cta := v("Call To Action (Text)", rubric.SubDirect, true, 0.95)
	cta.Evidence = "end card reads Shop now at example.com with a QR code"
	ctaSpeech := v("Call To Action (Speech)", rubric.SubDirect, true, 0.9)
	ctaSpeech.Rationale = "narrator says visit the link in bio"

	return Input{
		ABCD: []rubric.Verdict{
			v("Dynamic Start", rubric.SubAttract, true, 0.9),
			v("Quick Pacing", rubric.SubAttract, true, 0.85),
			v("Supers", rubric.SubAttract, true, 0.8),
			v("Brand Visuals", rubric.SubBrand, true, 0.9),
			v("Brand Mention (Speech)", rubric.SubBrand, true, 0.85),
			v("Brand Visuals (First 5 seconds)", rubric.SubBrand, true, 0.8),
			v("Product Visuals", rubric.SubConnect, true, 0.9),
			v("Product Mention (Text)", rubric.SubConnect, true, 0.85),
			v("Visible Face (Close Up)", rubric.SubConnect, true, 0.8),
			v("Presence of People", rubric.SubConnect, true, 0.9),
			cta,
			ctaSpeech,
		},
		Persuasion: []rubric.Verdict{
			v("UGC Testimonial", rubric.SubPersuasion, true, 0.85),
			v("Social Proof", rubric.SubPersuasion, true, 0.8),
		},
		Structure: []rubric.Verdict{
			v("Problem Solution", rubric.SubStructure, true, 0.85),
			v("Product Demo", rubric.SubStructure, true, 0.9),
		},
	}
}

// weakInput is a creative missing every adjustable signal.
func weakInput() Input {
	return Input{
		ABCD: []rubric.Verdict{
			v("Quick Pacing", rubric.SubAttract, false, 0.7),
			v("Brand Visuals", rubric.SubBrand, false, 0.6),
			v("Product Visuals", rubric.SubConnect, false, 0.6),
			v("Call To Action (Text)", rubric.SubDirect, false, 0.6),
		},
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	engine := NewEngine()
	in := strongInput()

	first := engine.Predict(in)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, engine.Predict(in))
	}
}

func TestIndexSumsAreOrderStable(t *testing.T) {
	// Weighted sums must accumulate in canonical section order: float
	// addition is order-sensitive, so iterating the weight maps directly
	// would make bit-identical runs depend on map iteration order.
	engine := NewEngine()
	norm := map[string]float64{}
	for i, section := range sectionOrder {
		norm[section] = 0.5 + float64(i)*0.0437
	}
	flags := Flags{HookWithin3s: true, HasTrackableAnchor: true,
		ProductDemoPresent: true, HasTestimonialUGC: true}

	var cri, rei float64
	for _, section := range sectionOrder {
		if w, ok := criWeights[section]; ok {
			cri += w * norm[section]
		}
		if w, ok := reiWeights[section]; ok {
			rei += w * norm[section]
		}
	}
	wantCRI := round3(clamp01(cri))
	wantREI := round3(clamp01(rei + reiBoostTrackable))

	for i := 0; i < 100; i++ {
		indices, _ := engine.computeIndices(norm, flags)
		require.Equal(t, wantCRI, indices.ConversionReadiness)
		require.Equal(t, wantREI, indices.RevenueEfficiency)
	}
}

func TestSectionScore(t *testing.T) {
	tests := []struct {
		name     string
		verdicts []rubric.Verdict
		max      float64
		want     float64
	}{
		{"empty", nil, 15, 0},
		{"all detected full confidence", []rubric.Verdict{
			v("a", rubric.SubAttract, true, 1.0),
			v("b", rubric.SubAttract, true, 1.0),
		}, 10, 10},
		{"none detected", []rubric.Verdict{
			v("a", rubric.SubAttract, false, 0.5),
			v("b", rubric.SubAttract, false, 0.5),
		}, 10, 0},
		{"partial detection", []rubric.Verdict{
			v("a", rubric.SubAttract, true, 0.8),
			v("b", rubric.SubAttract, false, 0.5),
		}, 10, 4},
		{"missing confidence defaults to half", []rubric.Verdict{
			v("a", rubric.SubAttract, true, 0),
		}, 10, 5},
		{"capped at max", []rubric.Verdict{
			v("a", rubric.SubAttract, true, 2.0),
		}, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sectionScore(tt.verdicts, tt.max), 0.01)
		})
	}
}

func TestPredictBounds(t *testing.T) {
	engine := NewEngine()
	for name, in := range map[string]Input{
		"strong": strongInput(),
		"weak":   weakInput(),
		"empty":  {},
	} {
		t.Run(name, func(t *testing.T) {
			p := engine.Predict(in)
			assert.GreaterOrEqual(t, p.OverallScore, 0.0)
			assert.LessOrEqual(t, p.OverallScore, 100.0)
			for key, score := range p.SectionScores {
				assert.LessOrEqual(t, score, SectionMaxes[key]+0.01, key)
			}
			for key, val := range p.Normalized {
				assert.GreaterOrEqual(t, val, 0.0, key)
				assert.LessOrEqual(t, val, 1.0001, key)
			}
			assert.Equal(t, ModelVersion, p.ModelVersion)
		})
	}
}

func TestPredictStrongCreative(t *testing.T) {
	p := NewEngine().Predict(strongInput())

	assert.True(t, p.Flags.HookWithin3s)
	assert.True(t, p.Flags.BrandMentions3x)
	assert.True(t, p.Flags.HasTrackableAnchor)
	assert.True(t, p.Flags.HasTestimonialUGC)
	assert.True(t, p.Flags.ProductDemoPresent)
	assert.True(t, p.Flags.EndCardPresent)

	assert.Equal(t, "Low", p.Labels.PredictedCPARisk)
	assert.Equal(t, "High", p.Labels.PredictedROASTier)
	assert.NotEmpty(t, p.Labels.ExpectedFunnelStrength)

	// All boosts applied, no penalties.
	for _, adj := range p.Drivers.AppliedAdjustments {
		assert.Equal(t, "boost", adj.Type)
	}
	assert.Len(t, p.Drivers.AppliedAdjustments, 3)
}

func TestPredictWeakCreative(t *testing.T) {
	p := NewEngine().Predict(weakInput())

	assert.Equal(t, "High", p.Labels.PredictedCPARisk)
	assert.Equal(t, "Low", p.Labels.PredictedROASTier)
	assert.Equal(t, "High", p.Labels.CreativeFatigueRisk)

	// All four penalties applied, no boosts.
	require.Len(t, p.Drivers.AppliedAdjustments, 4)
	for _, adj := range p.Drivers.AppliedAdjustments {
		assert.Equal(t, "penalty", adj.Type)
		assert.Negative(t, adj.Delta)
	}
	assert.Empty(t, p.Drivers.TopPositive)
	assert.NotEmpty(t, p.Drivers.TopNegative)
	assert.LessOrEqual(t, len(p.Drivers.TopNegative), 3)
}

func TestFunnelHybridLabel(t *testing.T) {
	tests := []struct {
		name          string
		tof, mof, bof float64
		wantWinner    string
		wantHybrid    string
	}{
		{"clear winner", 0.80, 0.60, 0.50, "TOF", ""},
		{"close top two", 0.70, 0.68, 0.40, "TOF", "TOF/MOF"},
		{"exact tie keeps stage order", 0.60, 0.60, 0.30, "TOF", "TOF/MOF"},
		{"bof leads", 0.30, 0.40, 0.75, "BOF", ""},
		{"gap wider than margin", 0.70, 0.64, 0.40, "TOF", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, hybrid := rankFunnel(tt.tof, tt.mof, tt.bof)
			assert.Equal(t, tt.wantWinner, winner)
			assert.Equal(t, tt.wantHybrid, hybrid)
		})
	}
}

func TestHybridFunnelFromVerdicts(t *testing.T) {
	// Balanced hook and conversion signals should land the top two funnel
	// stages within the hybrid margin and surface a combined label.
	in := Input{
		ABCD: []rubric.Verdict{
			v("Dynamic Start", rubric.SubAttract, true, 0.8),
			v("Brand Visuals", rubric.SubBrand, true, 0.8),
			v("Product Visuals", rubric.SubConnect, true, 0.8),
			v("Presence of People", rubric.SubConnect, true, 0.8),
			v("Call To Action (Text)", rubric.SubDirect, true, 0.8),
		},
		Persuasion: []rubric.Verdict{
			v("Social Proof", rubric.SubPersuasion, true, 0.8),
		},
		Structure: []rubric.Verdict{
			v("Problem Solution", rubric.SubStructure, true, 0.8),
		},
	}
	p := NewEngine().Predict(in)
	fs := p.Indices.FunnelStrength
	if fs.Hybrid != "" {
		assert.Contains(t, fs.Hybrid, fs.Winner)
		assert.Contains(t, fs.Hybrid, "/")
		assert.Equal(t, fs.Hybrid, p.Labels.ExpectedFunnelStrength)
	} else {
		assert.Equal(t, fs.Winner, p.Labels.ExpectedFunnelStrength)
	}
}

func TestTopDriversRanking(t *testing.T) {
	p := NewEngine().Predict(strongInput())

	require.NotEmpty(t, p.Drivers.TopPositive)
	assert.LessOrEqual(t, len(p.Drivers.TopPositive), 3)
	for i := 1; i < len(p.Drivers.TopPositive); i++ {
		assert.GreaterOrEqual(t, p.Drivers.TopPositive[i-1].Score, p.Drivers.TopPositive[i].Score)
	}
	for _, d := range p.Drivers.TopPositive {
		assert.Greater(t, d.Score, 0.5)
	}
	for _, d := range p.Drivers.TopNegative {
		assert.Less(t, d.Score, 0.5)
	}
}
