package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/features"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/logger"
)

var comedy = features.Vector{230666, 0.676, 0.461, 0.715, 0.0322, 1.01e-6, 0, -6.746, 87.917, 0}

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPredictForest(t *testing.T) {
	log, _ := logger.NewTestLogger()
	c := New(filepath.Join("testdata", "forest.json"), log)

	tests := []struct {
		name       string
		vector     features.Vector
		label      hitsong.Label
		confidence float64
	}{
		{"comedy", comedy, hitsong.Hit, 70},
		{"short and stiff", features.Vector{100000, 0.3, 0.2, 0.1, 0.9, 0.8, 0, -20, 60, 1}, hitsong.Flop, 15},
		// Tied probabilities resolve to the first class.
		{"danceable but quiet", features.Vector{230666, 0.9, 0.2, 0.1, 0.9, 0.8, 0, -20, 60, 1}, hitsong.Flop, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Predict(tt.vector)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got.Label != tt.label || got.Confidence != tt.confidence {
				t.Errorf("Predict = %+v, want %v %.2f", got, tt.label, tt.confidence)
			}
		})
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	log, _ := logger.NewTestLogger()
	c := New(filepath.Join("testdata", "forest.json"), log)

	first, err := c.Predict(comedy)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Predict(comedy)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("prediction changed: %+v vs %+v", again, first)
		}
	}
}

func TestLoadCachesHandle(t *testing.T) {
	log, recorded := logger.NewTestLogger()
	c := New(filepath.Join("testdata", "forest.json"), log)

	var wg sync.WaitGroup
	handles := make([]*Handle, 10)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := c.Load()
			if err != nil {
				t.Errorf("Load: %v", err)
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for _, h := range handles[1:] {
		if h != handles[0] {
			t.Fatal("expected the same cached handle")
		}
	}
	if n := recorded.FilterMessage("Loaded model").Len(); n != 1 {
		t.Errorf("artifact decoded %d times, want 1", n)
	}
	if c.Version() != "test-1" {
		t.Errorf("Version = %q", c.Version())
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	log, _ := logger.NewTestLogger()
	path := filepath.Join(t.TempDir(), "nope.json")
	c := New(path, log)

	_, err := c.Predict(comedy)
	var notFound *hitsong.ModelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ModelNotFoundError, got %v", err)
	}
	if notFound.Path != path {
		t.Errorf("path = %q, want %q", notFound.Path, path)
	}
	if c.Version() != "" {
		t.Error("no version expected without a model")
	}
}

func TestSimplifiedModelProjectsColumns(t *testing.T) {
	path := writeArtifact(t, `{
		"name": "hit_song_model_simplified",
		"version": "2.0-simplified",
		"kind": "logistic_regression",
		"classes": [0, 1],
		"feature_columns": ["duration_ms", "danceability", "energy", "valence", "explicit"],
		"coef": [0, 0, 0, 0, 2],
		"intercept": -1
	}`)
	log, _ := logger.NewTestLogger()
	c := New(path, log)

	explicit := comedy
	explicit[6] = 1

	got, err := c.Predict(explicit)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != hitsong.Hit || got.Confidence != 73.11 {
		t.Errorf("explicit: %+v", got)
	}

	got, err = c.Predict(comedy)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != hitsong.Flop || got.Confidence != 26.89 {
		t.Errorf("clean: %+v", got)
	}

	info, err := c.Info()
	if err != nil {
		t.Fatal(err)
	}
	if !info.Probabilistic || !reflect.DeepEqual(info.FeatureColumns, []string{"duration_ms", "danceability", "energy", "valence", "explicit"}) {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestModelWithoutProbabilitiesIsNeutral(t *testing.T) {
	path := writeArtifact(t, `{
		"name": "svm",
		"version": "1",
		"kind": "linear_svm",
		"classes": [0, 1],
		"feature_columns": ["energy"],
		"coef": [1],
		"intercept": -0.4
	}`)
	log, _ := logger.NewTestLogger()
	c := New(path, log)

	got, err := c.Predict(comedy)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != hitsong.Hit || got.Confidence != NeutralConfidence {
		t.Errorf("Predict = %+v", got)
	}

	info, _ := c.Info()
	if info.Probabilistic {
		t.Error("linear_svm must not report probabilities")
	}
}

func TestInvalidArtifacts(t *testing.T) {
	tests := map[string]string{
		"not json":       `{`,
		"unknown column": `{"kind":"logistic_regression","classes":[0,1],"feature_columns":["speechiness"],"coef":[1]}`,
		"no columns":     `{"kind":"logistic_regression","classes":[0,1],"coef":[]}`,
		"multiclass":     `{"kind":"logistic_regression","classes":[0,1,2],"feature_columns":["energy"],"coef":[1]}`,
		"coef mismatch":  `{"kind":"logistic_regression","classes":[0,1],"feature_columns":["energy","tempo"],"coef":[1]}`,
		"unknown kind":   `{"kind":"xgboost","classes":[0,1],"feature_columns":["energy"]}`,
		"no trees":       `{"kind":"random_forest","classes":[0,1],"feature_columns":["energy"]}`,
		"cyclic tree": `{"kind":"random_forest","classes":[0,1],"feature_columns":["energy"],"trees":[
			{"children_left":[0],"children_right":[0],"feature":[0],"threshold":[0.5],"value":[[1,1]]}]}`,
		"bad split feature": `{"kind":"random_forest","classes":[0,1],"feature_columns":["energy"],"trees":[
			{"children_left":[1,-1,-1],"children_right":[2,-1,-1],"feature":[3,-2,-2],"threshold":[0.5,-2,-2],"value":[[1,1],[1,0],[0,1]]}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			log, _ := logger.NewTestLogger()
			c := New(writeArtifact(t, body), log)
			_, err := c.Load()
			if err == nil {
				t.Fatal("expected load error")
			}
			var notFound *hitsong.ModelNotFoundError
			if errors.As(err, &notFound) {
				t.Fatal("invalid artifact reported as missing")
			}
		})
	}
}

func TestShippedArtifactLoads(t *testing.T) {
	log, _ := logger.NewTestLogger()
	c := New(filepath.Join("..", "ml_models", "hit_song_model.json"), log)

	info, err := c.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Kind != KindRandomForest || !info.Probabilistic || len(info.FeatureColumns) != features.Size {
		t.Errorf("Info = %+v", info)
	}
	if _, err := c.Predict(comedy); err != nil {
		t.Errorf("Predict: %v", err)
	}
}
