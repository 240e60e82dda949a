package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/features"
)

// Model kinds understood by the artifact codec.
const (
	KindRandomForest       = "random_forest"
	KindLogisticRegression = "logistic_regression"
	KindLinearSVM          = "linear_svm"
)

// Artifact is the serialized classifier. Forest trees use the same parallel
// arrays as a fitted sklearn tree.
type Artifact struct {
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	Description    string    `json:"description,omitempty"`
	Kind           string    `json:"kind"`
	Classes        []int     `json:"classes"`
	FeatureColumns []string  `json:"feature_columns"`
	Trees          []Tree    `json:"trees,omitempty"`
	Coef           []float64 `json:"coef,omitempty"`
	Intercept      float64   `json:"intercept,omitempty"`
}

// Tree is one decision tree of a forest.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// Model decides the class of an input in the model's own column order.
type Model interface {
	Predict(x []float64) int
}

// ProbabilityModel is a Model that also estimates class probabilities, in the
// order of the artifact's classes.
type ProbabilityModel interface {
	Model
	PredictProba(x []float64) []float64
}

type forest struct {
	trees   []Tree
	classes []int
}

func (f *forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, len(f.classes))
	for _, t := range f.trees {
		leaf := t.leaf(x)
		var total float64
		for _, v := range t.Value[leaf] {
			total += v
		}
		if total == 0 {
			continue
		}
		for i, v := range t.Value[leaf] {
			proba[i] += v / total
		}
	}
	for i := range proba {
		proba[i] /= float64(len(f.trees))
	}
	return proba
}

func (f *forest) Predict(x []float64) int {
	return f.classes[argmax(f.PredictProba(x))]
}

func (t Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}

type logistic struct {
	coef      []float64
	intercept float64
	classes   []int
}

func (l *logistic) PredictProba(x []float64) []float64 {
	p := 1 / (1 + math.Exp(-dot(l.coef, x, l.intercept)))
	return []float64{1 - p, p}
}

func (l *logistic) Predict(x []float64) int {
	return l.classes[argmax(l.PredictProba(x))]
}

// linearSVM has a decision function but no probability estimates.
type linearSVM struct {
	coef      []float64
	intercept float64
	classes   []int
}

func (s *linearSVM) Predict(x []float64) int {
	if dot(s.coef, x, s.intercept) > 0 {
		return s.classes[1]
	}
	return s.classes[0]
}

func dot(w, x []float64, b float64) float64 {
	sum := b
	for i := range w {
		sum += w[i] * x[i]
	}
	return sum
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}

// newModel validates the artifact and returns its executable model.
func newModel(a *Artifact) (Model, error) {
	if len(a.FeatureColumns) == 0 {
		return nil, errors.New("artifact has no feature_columns")
	}
	for _, c := range a.FeatureColumns {
		if features.Index(c) < 0 {
			return nil, fmt.Errorf("artifact column %q is not a known feature", c)
		}
	}
	if len(a.Classes) != 2 {
		return nil, fmt.Errorf("artifact must be a binary classifier, got %d classes", len(a.Classes))
	}

	n := len(a.FeatureColumns)
	switch a.Kind {
	case KindRandomForest:
		if len(a.Trees) == 0 {
			return nil, errors.New("random forest has no trees")
		}
		for i, t := range a.Trees {
			if err := t.validate(n, len(a.Classes)); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
		}
		return &forest{trees: a.Trees, classes: a.Classes}, nil
	case KindLogisticRegression, KindLinearSVM:
		if len(a.Coef) != n {
			return nil, fmt.Errorf("%s has %d coefficients for %d columns", a.Kind, len(a.Coef), n)
		}
		if a.Kind == KindLinearSVM {
			return &linearSVM{coef: a.Coef, intercept: a.Intercept, classes: a.Classes}, nil
		}
		return &logistic{coef: a.Coef, intercept: a.Intercept, classes: a.Classes}, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
}

func (t Tree) validate(columns, classes int) error {
	nodes := len(t.ChildrenLeft)
	if nodes == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != nodes || len(t.Feature) != nodes || len(t.Threshold) != nodes || len(t.Value) != nodes {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < nodes; i++ {
		if len(t.Value[i]) != classes {
			return fmt.Errorf("node %d has %d class values", i, len(t.Value[i]))
		}
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == -1 {
			continue
		}
		// Children always come after their parent, so traversal terminates.
		if left <= i || left >= nodes || right <= i || right >= nodes {
			return fmt.Errorf("node %d has invalid children %d/%d", i, left, right)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= columns {
			return fmt.Errorf("node %d splits on feature %d", i, t.Feature[i])
		}
	}
	return nil
}
