// Package classifier loads the trained hit-song model and runs it against
// feature vectors.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/features"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/util"
	"go.uber.org/zap"
)

// NeutralConfidence is reported when the model has no probability estimates.
const NeutralConfidence = 50.0

// Classifier is the process-wide model handle. The artifact is decoded on first
// use and shared by all requests.
type Classifier struct {
	path   string
	log    *zap.SugaredLogger
	handle *util.Lazy[*Handle]
}

// Handle is a loaded model.
type Handle struct {
	Artifact *Artifact
	model    Model
	// project maps model column i to its position in a features.Vector.
	project []int
}

// Info describes the loaded model.
type Info struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Kind           string   `json:"kind"`
	FeatureColumns []string `json:"feature_columns"`
	Probabilistic  bool     `json:"probabilistic"`
}

// New returns a Classifier for the artifact at path. Nothing is read until Load.
func New(path string, log *zap.SugaredLogger) *Classifier {
	c := &Classifier{path: path, log: log}
	c.handle = util.NewLazy(c.load)
	return c
}

// ProvideClassifier provides the process classifier.
func ProvideClassifier(cfg config.Config, log *zap.SugaredLogger) *Classifier {
	return New(cfg.ModelPath, log)
}

var Options = ProvideClassifier

// Load returns the cached model, decoding the artifact on the first call.
// A ModelNotFoundError is fatal and must not be retried by callers.
func (c *Classifier) Load() (*Handle, error) {
	return c.handle.Get()
}

func (c *Classifier) load() (*Handle, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &hitsong.ModelNotFoundError{Path: c.path}
		}
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", c.path, err)
	}
	model, err := newModel(&a)
	if err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", c.path, err)
	}

	project := make([]int, len(a.FeatureColumns))
	for i, col := range a.FeatureColumns {
		project[i] = features.Index(col)
	}

	c.log.Infow("Loaded model",
		"path", c.path,
		"name", a.Name,
		"version", a.Version,
		"kind", a.Kind,
		"columns", a.FeatureColumns,
	)
	return &Handle{Artifact: &a, model: model, project: project}, nil
}

// Predict runs the model. Confidence is the positive-class probability as a
// percentage rounded to two decimals.
func (c *Classifier) Predict(v features.Vector) (hitsong.RawPrediction, error) {
	h, err := c.Load()
	if err != nil {
		return hitsong.RawPrediction{}, err
	}
	return h.Predict(v), nil
}

// Predict runs the loaded model against a vector.
func (h *Handle) Predict(v features.Vector) hitsong.RawPrediction {
	x := make([]float64, len(h.project))
	for i, idx := range h.project {
		x[i] = v[idx]
	}

	label := h.model.Predict(x) != 0

	confidence := NeutralConfidence
	if pm, ok := h.model.(ProbabilityModel); ok {
		proba := pm.PredictProba(x)
		p := proba[0]
		if len(proba) > 1 {
			p = proba[1]
		}
		confidence = util.Round2(p * 100)
	}

	return hitsong.RawPrediction{Label: hitsong.Label(label), Confidence: confidence}
}

// Info describes the model, loading it if needed.
func (c *Classifier) Info() (Info, error) {
	h, err := c.Load()
	if err != nil {
		return Info{}, err
	}
	_, prob := h.model.(ProbabilityModel)
	return Info{
		Name:           h.Artifact.Name,
		Version:        h.Artifact.Version,
		Kind:           h.Artifact.Kind,
		FeatureColumns: h.Artifact.FeatureColumns,
		Probabilistic:  prob,
	}, nil
}

// Version returns the loaded model version, or "" when no model is loaded yet.
func (c *Classifier) Version() string {
	if !c.handle.Loaded() {
		return ""
	}
	h, err := c.Load()
	if err != nil {
		return ""
	}
	return h.Artifact.Version
}
