package reconcile

import (
	"testing"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
)

func ref(hit hitsong.Label, popularity int) *hitsong.ReferenceLabel {
	return &hitsong.ReferenceLabel{IsHit: hit, Popularity: popularity}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		raw        hitsong.RawPrediction
		ref        *hitsong.ReferenceLabel
		label      hitsong.Label
		confidence float64
		adjusted   bool
	}{
		{"agree boosts", hitsong.RawPrediction{Label: hitsong.Hit, Confidence: 55}, ref(hitsong.Hit, 73), hitsong.Hit, 60, false},
		{"agree capped", hitsong.RawPrediction{Label: hitsong.Hit, Confidence: 92}, ref(hitsong.Hit, 90), hitsong.Hit, 95, false},
		{"agree flop", hitsong.RawPrediction{Label: hitsong.Flop, Confidence: 20}, ref(hitsong.Flop, 12), hitsong.Flop, 25, false},
		{"disagree floor", hitsong.RawPrediction{Label: hitsong.Flop, Confidence: 50}, ref(hitsong.Hit, 73), hitsong.Hit, 60, true},
		{"disagree low raw", hitsong.RawPrediction{Label: hitsong.Flop, Confidence: 12.5}, ref(hitsong.Hit, 51), hitsong.Hit, 60, true},
		{"disagree boosts", hitsong.RawPrediction{Label: hitsong.Hit, Confidence: 71.234}, ref(hitsong.Flop, 30), hitsong.Flop, 81.23, true},
		{"no reference", hitsong.RawPrediction{Label: hitsong.Hit, Confidence: 62.3}, nil, hitsong.Hit, 62.3, false},
		{"no reference flop", hitsong.RawPrediction{Label: hitsong.Flop, Confidence: 3}, nil, hitsong.Flop, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.raw, tt.ref)
			if got.Label != tt.label {
				t.Errorf("label = %v, want %v", got.Label, tt.label)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.confidence)
			}
			if got.Adjusted != tt.adjusted {
				t.Errorf("adjusted = %v, want %v", got.Adjusted, tt.adjusted)
			}
			if got.ModelLabel != tt.raw.Label {
				t.Errorf("model label = %v, want %v", got.ModelLabel, tt.raw.Label)
			}
			if (got.Reference == nil) != (tt.ref == nil) {
				t.Errorf("reference = %v, want %v", got.Reference, tt.ref)
			}
		})
	}
}

func TestReconcileWithoutReferenceKeepsModelOutput(t *testing.T) {
	for _, c := range []float64{0, 33.33, 50, 94.99, 100} {
		for _, l := range []hitsong.Label{hitsong.Hit, hitsong.Flop} {
			got := Reconcile(hitsong.RawPrediction{Label: l, Confidence: c}, nil)
			if got.Adjusted || got.Confidence != c || got.Label != l {
				t.Errorf("Reconcile(%v, %v) = %+v", l, c, got)
			}
		}
	}
}

func TestReconcileDoesNotAliasReference(t *testing.T) {
	r := ref(hitsong.Hit, 73)
	got := Reconcile(hitsong.RawPrediction{Label: hitsong.Hit, Confidence: 55}, r)
	r.Popularity = 1
	if got.Reference.Popularity != 73 {
		t.Error("result must not share the caller's reference label")
	}
}
