// Package predictorstest builds small artifacts and contexts for handler tests.
package predictorstest

import (
	"testing"
	"time"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/config"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/ml"
	"facility-ml/internal/predictors"
)

// FixedNow is the clock every test context runs at.
var FixedNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// NewContext returns a context whose models directory is a fresh temp dir.
func NewContext(t testing.TB) *predictors.Context {
	t.Helper()
	cfg := config.Default()
	cfg.Models.Dir = t.TempDir()
	ctx := predictors.NewContext(cfg, logger.NewTestLogger(t))
	ctx.Now = func() time.Time { return FixedNow }
	return ctx
}

// Params keeps test forests small and deterministic.
func Params() ml.ForestParams {
	return ml.ForestParams{NEstimators: 10, MaxDepth: 6, MinSamplesLeaf: 1, Seed: 7, Workers: 2}
}

// SaveTextModel fits a vectorizer and classifier on docs and writes both.
func SaveTextModel(t testing.TB, store *artifacts.Store, modelFile, vectorizerFile string, docs, labels []string) {
	t.Helper()
	vec, err := ml.FitTfidf(docs, ml.TfidfParams{NgramMin: 1, NgramMax: 2, MinDF: 1})
	if err != nil {
		t.Fatalf("fit vectorizer: %v", err)
	}
	p := Params()
	p.MaxFeatures = len(vec.IDF)
	forest, err := ml.FitClassifier(vec.TransformAll(docs), labels, vec.Terms(), p)
	if err != nil {
		t.Fatalf("fit classifier: %v", err)
	}
	Save(t, store, modelFile, forest)
	Save(t, store, vectorizerFile, vec)
}

// SaveClassifier fits a forest on rows and writes it.
func SaveClassifier(t testing.TB, store *artifacts.Store, name string, x [][]float64, y []string, columns []string) *ml.Forest {
	t.Helper()
	p := Params()
	p.MaxFeatures = len(columns)
	forest, err := ml.FitClassifier(x, y, columns, p)
	if err != nil {
		t.Fatalf("fit classifier: %v", err)
	}
	Save(t, store, name, forest)
	return forest
}

// SaveRegressor fits a regression forest on rows and writes it.
func SaveRegressor(t testing.TB, store *artifacts.Store, name string, x [][]float64, y []float64, columns []string) *ml.Forest {
	t.Helper()
	forest, err := ml.FitRegressor(x, y, columns, Params())
	if err != nil {
		t.Fatalf("fit regressor: %v", err)
	}
	Save(t, store, name, forest)
	return forest
}

// Save writes any artifact or fails the test.
func Save(t testing.TB, store *artifacts.Store, name string, v interface{}) {
	t.Helper()
	if err := store.Save(name, v); err != nil {
		t.Fatalf("save %s: %v", name, err)
	}
}
