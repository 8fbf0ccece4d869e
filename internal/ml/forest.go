// Package ml implements the small set of estimators the facility models need:
// a random forest, a TF-IDF vectorizer, label encoders, data splits and metrics.
package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

var (
	ErrEmptyTrainingSet = errors.New("EMPTY_TRAINING_SET")
	ErrFeatureMismatch  = errors.New("FEATURE_MISMATCH")
	ErrWrongKind        = errors.New("WRONG_ESTIMATOR_KIND")
)

// Kind tells classifiers and regressors apart in a serialized forest.
type Kind string

const (
	KindClassifier Kind = "classifier"
	KindRegressor  Kind = "regressor"
)

// ForestParams mirror the usual random forest knobs. MaxDepth 0 grows trees
// until leaves are pure; MaxFeatures 0 picks sqrt(p) for classifiers and p for
// regressors.
type ForestParams struct {
	NEstimators         int
	MaxDepth            int
	MinSamplesLeaf      int
	MaxFeatures         int
	ClassWeightBalanced bool
	Seed                int64
	Workers             int
}

// Forest is a bagged ensemble of CART trees.
type Forest struct {
	Kind         Kind      `json:"kind"`
	Classes      []string  `json:"classes,omitempty"`
	FeatureNames []string  `json:"feature_names"`
	NFeatures    int       `json:"n_features"`
	Trees        []Tree    `json:"trees"`
	Importances  []float64 `json:"importances"`
}

// FitClassifier trains a classification forest. Classes are the sorted
// distinct labels of y.
func FitClassifier(x [][]float64, y []string, featureNames []string, p ForestParams) (*Forest, error) {
	if err := checkShape(x, len(y), featureNames); err != nil {
		return nil, err
	}

	classes := uniqueSorted(y)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = index[label]
	}

	weights := make([]float64, len(y))
	for i := range weights {
		weights[i] = 1
	}
	if p.ClassWeightBalanced {
		counts := make([]float64, len(classes))
		for _, c := range encoded {
			counts[c]++
		}
		for i, c := range encoded {
			weights[i] = float64(len(y)) / (float64(len(classes)) * counts[c])
		}
	}

	f := &Forest{
		Kind:         KindClassifier,
		Classes:      classes,
		FeatureNames: append([]string(nil), featureNames...),
		NFeatures:    len(featureNames),
	}
	mtry := p.MaxFeatures
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(len(featureNames))))
	}
	f.fit(p, mtry, func(rng *rand.Rand) *treeBuilder {
		return &treeBuilder{x: x, classes: encoded, weights: weights, nClasses: len(classes), rng: rng}
	})
	return f, nil
}

// FitRegressor trains a regression forest.
func FitRegressor(x [][]float64, y []float64, featureNames []string, p ForestParams) (*Forest, error) {
	if err := checkShape(x, len(y), featureNames); err != nil {
		return nil, err
	}
	weights := make([]float64, len(y))
	for i := range weights {
		weights[i] = 1
	}

	f := &Forest{
		Kind:         KindRegressor,
		FeatureNames: append([]string(nil), featureNames...),
		NFeatures:    len(featureNames),
	}
	mtry := p.MaxFeatures
	if mtry <= 0 {
		mtry = len(featureNames)
	}
	f.fit(p, mtry, func(rng *rand.Rand) *treeBuilder {
		return &treeBuilder{x: x, targets: y, weights: weights, rng: rng}
	})
	return f, nil
}

func checkShape(x [][]float64, n int, featureNames []string) error {
	if len(x) == 0 || n == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != n {
		return fmt.Errorf("%w: %d rows but %d labels", ErrFeatureMismatch, len(x), n)
	}
	for i, row := range x {
		if len(row) != len(featureNames) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrFeatureMismatch, i, len(row), len(featureNames))
		}
	}
	return nil
}

// fit grows the trees in parallel. Tree i draws from its own generator seeded
// with (Seed, i), so the result does not depend on scheduling.
func (f *Forest) fit(p ForestParams, mtry int, newBuilder func(*rand.Rand) *treeBuilder) {
	nTrees := p.NEstimators
	if nTrees <= 0 {
		nTrees = 100
	}
	minLeaf := p.MinSamplesLeaf
	if minLeaf <= 0 {
		minLeaf = 1
	}
	if mtry < 1 {
		mtry = 1
	}
	if mtry > f.NFeatures {
		mtry = f.NFeatures
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	f.Trees = make([]Tree, nTrees)
	perTree := make([][]float64, nTrees)

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := 0; i < nTrees; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			rng := rand.New(rand.NewPCG(uint64(p.Seed), uint64(i)))
			b := newBuilder(rng)
			b.maxDepth = p.MaxDepth
			b.minLeaf = minLeaf
			b.maxFeatures = mtry

			n := len(b.x)
			rows := make([]int, n)
			for j := range rows {
				rows[j] = rng.IntN(n)
			}
			f.Trees[i] = b.build(rows)
			perTree[i] = normalize(b.importances)
		}(i)
	}
	wg.Wait()

	f.Importances = make([]float64, f.NFeatures)
	for _, imp := range perTree {
		for j, v := range imp {
			f.Importances[j] += v
		}
	}
	f.Importances = normalize(f.Importances)
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

func (f *Forest) check(x []float64) error {
	if len(x) != f.NFeatures {
		return fmt.Errorf("%w: got %d values, model expects %d", ErrFeatureMismatch, len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrEmptyTrainingSet)
	}
	return nil
}

// PredictProba averages the leaf distributions of every tree. The result is
// indexed like Classes.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if f.Kind != KindClassifier {
		return nil, ErrWrongKind
	}
	if err := f.check(x); err != nil {
		return nil, err
	}
	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		for c, p := range f.Trees[i].leafFor(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba, nil
}

// PredictClass returns the most probable class; ties go to the earlier class.
func (f *Forest) PredictClass(x []float64) (string, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return "", err
	}
	return f.Classes[Argmax(proba)], nil
}

// ProbaOf returns the probability of label, or 0 when the forest never saw it.
func (f *Forest) ProbaOf(x []float64, label string) (float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if i := f.ClassIndex(label); i >= 0 {
		return proba[i], nil
	}
	return 0, nil
}

// ClassIndex returns the position of label in Classes, or -1.
func (f *Forest) ClassIndex(label string) int {
	for i, c := range f.Classes {
		if c == label {
			return i
		}
	}
	return -1
}

// Predict returns the mean of the tree outputs for a regressor.
func (f *Forest) Predict(x []float64) (float64, error) {
	if f.Kind != KindRegressor {
		return 0, ErrWrongKind
	}
	if err := f.check(x); err != nil {
		return 0, err
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].leafFor(x)[0]
	}
	return sum / float64(len(f.Trees)), nil
}

// RankedImportance is one feature and its share of the total impurity decrease.
type RankedImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TopImportances lists the k most important features.
func (f *Forest) TopImportances(k int) []RankedImportance {
	ranked := make([]RankedImportance, len(f.FeatureNames))
	for i, name := range f.FeatureNames {
		var imp float64
		if i < len(f.Importances) {
			imp = f.Importances[i]
		}
		ranked[i] = RankedImportance{Feature: name, Importance: imp}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Argmax returns the index of the largest value; ties go to the first.
func Argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
