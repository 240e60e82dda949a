// Package reconcile merges the classifier verdict with the label of a known
// reference track.
package reconcile

import (
	"math"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/util"
)

// Confidence policy. These are product rules, not calibrated statistics.
const (
	AgreementBoost    = 5.0
	AgreementCap      = 95.0
	DisagreementBoost = 10.0
	DisagreementFloor = 60.0
)

// Reconcile returns the final verdict. Without a reference label the model
// output passes through unchanged. When the reference agrees the confidence is
// boosted and capped; when it disagrees the reference label wins.
func Reconcile(raw hitsong.RawPrediction, ref *hitsong.ReferenceLabel) hitsong.PredictionResult {
	res := hitsong.PredictionResult{
		ModelLabel:      raw.Label,
		ModelConfidence: util.Round2(raw.Confidence),
		Label:           raw.Label,
		Confidence:      util.Round2(raw.Confidence),
	}
	if ref == nil {
		return res
	}

	r := *ref
	res.Reference = &r

	if ref.IsHit == raw.Label {
		res.Confidence = util.Round2(math.Min(AgreementCap, raw.Confidence+AgreementBoost))
		return res
	}

	res.Label = ref.IsHit
	res.Confidence = util.Round2(math.Max(DisagreementFloor, raw.Confidence+DisagreementBoost))
	res.Adjusted = true
	return res
}
