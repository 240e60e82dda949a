package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
)

func comedyInput() map[string]any {
	return map[string]any{
		"duration_ms":      230666,
		"danceability":     0.676,
		"energy":           0.461,
		"valence":          0.715,
		"acousticness":     0.0322,
		"instrumentalness": 1.01e-6,
		"explicit":         0,
		"loudness":         -6.746,
		"tempo":            87.917,
		"mode":             0,
	}
}

func TestBuildOrder(t *testing.T) {
	v, err := Build(comedyInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := Vector{230666, 0.676, 0.461, 0.715, 0.0322, 1.01e-6, 0, -6.746, 87.917, 0}
	if v != want {
		t.Errorf("Build = %v, want %v", v, want)
	}
}

func TestBuildIgnoresKeyOrder(t *testing.T) {
	// JSON decoding yields the same map regardless of document key order;
	// the vector must follow Columns, not the input.
	a := `{"mode":1,"tempo":120,"loudness":-5,"explicit":1,"instrumentalness":0.1,"acousticness":0.2,"valence":0.3,"energy":0.4,"danceability":0.5,"duration_ms":200000}`
	b := `{"duration_ms":200000,"danceability":0.5,"energy":0.4,"valence":0.3,"acousticness":0.2,"instrumentalness":0.1,"explicit":1,"loudness":-5,"tempo":120,"mode":1}`

	var ma, mb map[string]any
	if err := json.Unmarshal([]byte(a), &ma); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(b), &mb); err != nil {
		t.Fatal(err)
	}

	va, err := Build(ma)
	if err != nil {
		t.Fatal(err)
	}
	vb, err := Build(mb)
	if err != nil {
		t.Fatal(err)
	}
	if va != vb {
		t.Errorf("vectors differ: %v vs %v", va, vb)
	}
	if va[0] != 200000 || va[9] != 1 {
		t.Errorf("unexpected vector %v", va)
	}
}

func TestBuildMissing(t *testing.T) {
	in := comedyInput()
	delete(in, "tempo")
	delete(in, "duration_ms")

	_, err := Build(in)
	var missing *hitsong.MissingFeatureError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFeatureError, got %v", err)
	}
	if want := []string{"duration_ms", "tempo"}; !reflect.DeepEqual(missing.Keys, want) {
		t.Errorf("missing keys = %v, want %v", missing.Keys, want)
	}
}

func TestBuildMissingTakesPrecedence(t *testing.T) {
	in := comedyInput()
	delete(in, "mode")
	in["energy"] = "loud"

	_, err := Build(in)
	var missing *hitsong.MissingFeatureError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFeatureError, got %v", err)
	}
}

func TestBuildInvalidType(t *testing.T) {
	tests := map[string]any{
		"string":  "very danceable",
		"nil":     nil,
		"slice":   []any{1, 2},
		"object":  map[string]any{"v": 1},
		"nan":     math.NaN(),
		"inf":     "+Inf",
		"badjson": json.Number("1e"),
	}
	for name, val := range tests {
		t.Run(name, func(t *testing.T) {
			in := comedyInput()
			in["danceability"] = val

			_, err := Build(in)
			var invalid *hitsong.InvalidFeatureTypeError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidFeatureTypeError, got %v", err)
			}
			if invalid.Key != "danceability" {
				t.Errorf("key = %q, want danceability", invalid.Key)
			}
		})
	}
}

func TestBuildConvertibleValues(t *testing.T) {
	in := comedyInput()
	in["danceability"] = "0.676"
	in["explicit"] = true
	in["duration_ms"] = json.Number("230666")
	in["mode"] = float32(1)

	v, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v[1] != 0.676 || v[6] != 1 || v[0] != 230666 || v[9] != 1 {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestDecodeTruncatesIntegers(t *testing.T) {
	in := comedyInput()
	in["duration_ms"] = 230666.9
	in["mode"] = "1"

	fs, err := Decode(in)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fs.DurationMs != 230666 || fs.Mode != 1 {
		t.Errorf("unexpected feature set %+v", fs)
	}
	if FromSet(fs)[0] != 230666 {
		t.Errorf("FromSet duration = %v", FromSet(fs)[0])
	}
}

func TestDecodeRejectsNonBinaryFlags(t *testing.T) {
	tests := []struct {
		key   string
		value any
	}{
		{"explicit", 0.7},
		{"explicit", 2},
		{"mode", -1},
		{"mode", "0.5"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.key, tt.value), func(t *testing.T) {
			in := comedyInput()
			in[tt.key] = tt.value

			_, err := Decode(in)
			var invalid *hitsong.InvalidFeatureTypeError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidFeatureTypeError, got %v", err)
			}
			if invalid.Key != tt.key || invalid.Value != tt.value {
				t.Errorf("error = %+v", invalid)
			}
		})
	}
}

func TestMapRoundTrip(t *testing.T) {
	fs := hitsong.FeatureSet{DurationMs: 1000, Danceability: 0.1, Energy: 0.2, Valence: 0.3,
		Acousticness: 0.4, Instrumentalness: 0.5, Explicit: 1, Loudness: -3, Tempo: 99, Mode: 1}

	v, err := Build(Map(fs))
	if err != nil {
		t.Fatal(err)
	}
	if v != FromSet(fs) {
		t.Errorf("Build(Map(fs)) = %v, want %v", v, FromSet(fs))
	}
}

func TestIndex(t *testing.T) {
	if Index("duration_ms") != 0 || Index("mode") != 9 || Index("speechiness") != -1 {
		t.Error("unexpected column index")
	}
}
