// Package features turns named audio descriptors into the fixed-order vector
// the classifier was trained on.
package features

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
)

// Columns is the training order of the classifier inputs. Changing it silently
// breaks every prediction.
var Columns = [Size]string{
	"duration_ms",
	"danceability",
	"energy",
	"valence",
	"acousticness",
	"instrumentalness",
	"explicit",
	"loudness",
	"tempo",
	"mode",
}

// Size is the length of a feature vector.
const Size = 10

// Vector is a classifier input in Columns order.
type Vector [Size]float64

// Index returns the position of a column, or -1.
func Index(column string) int {
	for i, c := range Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Build validates the input and returns its vector. All absent keys are reported
// together; the first value that is not a real number fails the build.
func Build(input map[string]any) (Vector, error) {
	var v Vector

	var missing []string
	for _, key := range Columns {
		if _, ok := input[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return v, &hitsong.MissingFeatureError{Keys: missing}
	}

	for i, key := range Columns {
		f, ok := toFloat(input[key])
		if !ok {
			return v, &hitsong.InvalidFeatureTypeError{Key: key, Value: input[key]}
		}
		v[i] = f
	}
	return v, nil
}

// Decode builds the input and returns it as a typed FeatureSet. Duration is
// truncated to whole milliseconds. Explicit and mode are flags and must be
// exactly 0 or 1.
func Decode(input map[string]any) (hitsong.FeatureSet, error) {
	v, err := Build(input)
	if err != nil {
		return hitsong.FeatureSet{}, err
	}
	for _, key := range []string{"explicit", "mode"} {
		if f := v[Index(key)]; f != 0 && f != 1 {
			return hitsong.FeatureSet{}, &hitsong.InvalidFeatureTypeError{Key: key, Value: input[key], Reason: "must be 0 or 1"}
		}
	}
	return hitsong.FeatureSet{
		DurationMs:       int(v[0]),
		Danceability:     v[1],
		Energy:           v[2],
		Valence:          v[3],
		Acousticness:     v[4],
		Instrumentalness: v[5],
		Explicit:         int(v[6]),
		Loudness:         v[7],
		Tempo:            v[8],
		Mode:             int(v[9]),
	}, nil
}

// FromSet returns the vector of a typed FeatureSet.
func FromSet(fs hitsong.FeatureSet) Vector {
	return Vector{
		float64(fs.DurationMs),
		fs.Danceability,
		fs.Energy,
		fs.Valence,
		fs.Acousticness,
		fs.Instrumentalness,
		float64(fs.Explicit),
		fs.Loudness,
		fs.Tempo,
		float64(fs.Mode),
	}
}

// Map returns the named form of a FeatureSet.
func Map(fs hitsong.FeatureSet) map[string]any {
	v := FromSet(fs)
	m := make(map[string]any, Size)
	for i, key := range Columns {
		m[key] = v[i]
	}
	return m
}

func toFloat(val any) (float64, bool) {
	var f float64
	switch x := val.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
