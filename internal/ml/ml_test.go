package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestParams() ForestParams {
	return ForestParams{
		NEstimators:    15,
		MaxDepth:       5,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// separable returns rows where label "1" is exactly x0 > 5.
func separable() ([][]float64, []string) {
	var x [][]float64
	var y []string
	for i := 0; i < 40; i++ {
		v := float64(i % 11)
		x = append(x, []float64{v, float64(i % 3)})
		if v > 5 {
			y = append(y, "1")
		} else {
			y = append(y, "0")
		}
	}
	return x, y
}

// ==========================
// Forest Tests
// ==========================

func TestFitClassifier_LearnsThreshold(t *testing.T) {
	x, y := separable()
	p := createTestParams()
	p.MaxFeatures = 2

	f, err := FitClassifier(x, y, []string{"signal", "noise"}, p)
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1"}, f.Classes)
	label, err := f.PredictClass([]float64{9, 1})
	require.NoError(t, err)
	assert.Equal(t, "1", label)

	label, err = f.PredictClass([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "0", label)

	proba, err := f.PredictProba([]float64{9, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)

	top := f.TopImportances(1)
	require.Len(t, top, 1)
	assert.Equal(t, "signal", top[0].Feature)
}

func TestFitClassifier_Deterministic(t *testing.T) {
	x, y := separable()
	a, err := FitClassifier(x, y, []string{"a", "b"}, createTestParams())
	require.NoError(t, err)
	b, err := FitClassifier(x, y, []string{"a", "b"}, createTestParams())
	require.NoError(t, err)

	for _, row := range [][]float64{{0, 0}, {5.5, 2}, {7, 1}, {3, 2}} {
		pa, _ := a.PredictProba(row)
		pb, _ := b.PredictProba(row)
		assert.Equal(t, pa, pb)
	}
	assert.Equal(t, a.Importances, b.Importances)
}

func TestForest_ProbaOfUnknownClass(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	f, err := FitClassifier(x, []string{"0", "0", "0"}, []string{"a"}, createTestParams())
	require.NoError(t, err)

	p, err := f.ProbaOf([]float64{2}, "1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
	assert.Equal(t, -1, f.ClassIndex("1"))
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, Argmax([]float64{0.1, 0.3, 0.6}))
	assert.Equal(t, 0, Argmax([]float64{0.5, 0.5}))
	assert.Equal(t, 1, Argmax([]float64{0.2, 0.4, 0.4}))
	assert.Equal(t, 0, Argmax(nil))
}

func TestForest_FeatureMismatch(t *testing.T) {
	x, y := separable()
	f, err := FitClassifier(x, y, []string{"a", "b"}, createTestParams())
	require.NoError(t, err)

	_, err = f.PredictProba([]float64{1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)

	_, err = f.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = FitClassifier(nil, nil, nil, createTestParams())
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
}

func TestFitRegressor(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		x = append(x, []float64{float64(i)})
		y = append(y, 2*float64(i))
	}
	f, err := FitRegressor(x, y, []string{"x"}, createTestParams())
	require.NoError(t, err)

	pred, err := f.Predict([]float64{25})
	require.NoError(t, err)
	assert.InDelta(t, 50, pred, 10)

	preds := make([]float64, len(x))
	for i, row := range x {
		preds[i], _ = f.Predict(row)
	}
	assert.Greater(t, R2(y, preds), 0.9)
}

// ==========================
// TF-IDF Tests
// ==========================

func TestTfidf_FitTransform(t *testing.T) {
	docs := []string{
		"basketball game tonight",
		"the basketball court",
		"birthday party at the hall",
	}
	v, err := FitTfidf(docs, TfidfParams{NgramMin: 1, NgramMax: 2, MinDF: 1, StopWords: true})
	require.NoError(t, err)

	assert.Contains(t, v.Vocabulary, "basketball")
	assert.Contains(t, v.Vocabulary, "basketball game")
	assert.NotContains(t, v.Vocabulary, "the")

	row := v.Transform("Basketball game")
	var norm float64
	for _, x := range row {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	for _, x := range v.Transform("zzz qqq") {
		assert.Equal(t, 0.0, x)
	}

	terms := v.Terms()
	assert.IsIncreasing(t, terms)
}

func TestTfidf_MaxFeaturesAndMinDF(t *testing.T) {
	docs := []string{"aa bb cc", "aa bb", "aa dd"}

	v, err := FitTfidf(docs, TfidfParams{MaxFeatures: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb"}, v.Terms())

	v, err = FitTfidf(docs, TfidfParams{MinDF: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb"}, v.Terms())

	_, err = FitTfidf([]string{"the and of"}, TfidfParams{StopWords: true})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTfidf_SmoothedIDF(t *testing.T) {
	v, err := FitTfidf([]string{"aa bb", "aa"}, TfidfParams{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v.IDF[v.Vocabulary["aa"]], 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, v.IDF[v.Vocabulary["bb"]], 1e-12)
}

// ==========================
// Encoder Tests
// ==========================

func TestLabelEncoder(t *testing.T) {
	e := FitLabelEncoder([]string{"7", "3", "12", "3"})
	assert.Equal(t, []string{"12", "3", "7"}, e.Classes)

	i, ok := e.Transform("7")
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	i, ok = e.Transform("99")
	assert.False(t, ok)
	assert.Equal(t, 0, i)

	set := EncoderSet{"user_id": e}
	assert.Equal(t, 1, set.Encode("user_id", "3"))
	assert.Equal(t, 0, set.Encode("facility_id", "3"))
}

// ==========================
// Split and Metric Tests
// ==========================

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 42, nil)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, append(append([]int{}, train...), test...))

	again, _ := TrainTestSplit(10, 0.2, 42, nil)
	assert.Equal(t, train, again)
}

func TestTrainTestSplit_Stratified(t *testing.T) {
	labels := []string{"a", "a", "a", "a", "a", "a", "a", "a", "b", "b"}
	_, test := TrainTestSplit(len(labels), 0.2, 1, labels)

	var a, b int
	for _, i := range test {
		if labels[i] == "a" {
			a++
		} else {
			b++
		}
	}
	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)

	assert.True(t, CanStratify(labels))
	assert.False(t, CanStratify([]string{"a", "a", "b"}))
}

func TestChronologicalSplit(t *testing.T) {
	train, test := ChronologicalSplit(10, 0.8)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, train)
	assert.Equal(t, []int{8, 9}, test)
}

func TestMetrics(t *testing.T) {
	yTrue := []string{"a", "a", "b", "b"}
	yPred := []string{"a", "b", "b", "b"}
	assert.Equal(t, 0.75, Accuracy(yTrue, yPred))

	s := PrecisionRecallF1(yTrue, yPred)
	assert.InDelta(t, (1.0+2.0/3.0)/2, s.Precision, 1e-9)
	assert.InDelta(t, 0.75, s.Recall, 1e-9)

	assert.InDelta(t, 1.0, RMSE([]float64{1, 2}, []float64{2, 3}), 1e-12)
	assert.InDelta(t, 1.0, MAE([]float64{1, 2}, []float64{0, 3}), 1e-12)
	assert.Equal(t, 1.0, R2([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, R2([]float64{2, 2}, []float64{1, 3}))
}
