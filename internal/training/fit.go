package training

import (
	"facility-ml/internal/common/config"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/ml"
)

// Evaluation is the split sizes and scores of one fitted model.
type Evaluation struct {
	TrainRows int
	TestRows  int
	Metrics   map[string]float64
}

type fitOptions struct {
	balanced bool
	// leafed applies training.min_samples_leaf; otherwise leaves may hold one row.
	leafed bool
}

func forestParams(t config.TrainingConfig, o fitOptions) ml.ForestParams {
	p := ml.ForestParams{
		NEstimators:         t.NEstimators,
		MaxDepth:            t.MaxDepth,
		MinSamplesLeaf:      1,
		ClassWeightBalanced: o.balanced,
		Seed:                t.RandomState,
	}
	if o.leafed {
		p.MinSamplesLeaf = t.MinSamplesLeaf
	}
	return p
}

// classify splits x and y, stratified when asked, fits a classifier on the
// training part and scores it on the held-out part.
func classify(model string, t config.TrainingConfig, x [][]float64, y []string, columns []string, stratify bool, o fitOptions) (*ml.Forest, Evaluation, error) {
	var strata []string
	if stratify {
		strata = y
	}
	trainIdx, testIdx := ml.TrainTestSplit(len(y), t.TestSize, t.RandomState, strata)

	forest, err := ml.FitClassifier(ml.Select(x, trainIdx), ml.Select(y, trainIdx), columns, forestParams(t, o))
	if err != nil {
		return nil, Evaluation{}, stderrors.NewTrainingFailedError(model, err)
	}

	yTrain, yTest := ml.Select(y, trainIdx), ml.Select(y, testIdx)
	trainPred, err := predictClasses(forest, ml.Select(x, trainIdx))
	if err != nil {
		return nil, Evaluation{}, stderrors.NewTrainingFailedError(model, err)
	}
	testPred, err := predictClasses(forest, ml.Select(x, testIdx))
	if err != nil {
		return nil, Evaluation{}, stderrors.NewTrainingFailedError(model, err)
	}
	scores := ml.PrecisionRecallF1(yTest, testPred)

	return forest, Evaluation{
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Metrics: map[string]float64{
			"train_accuracy": ml.Accuracy(yTrain, trainPred),
			"accuracy":       ml.Accuracy(yTest, testPred),
			"precision":      scores.Precision,
			"recall":         scores.Recall,
			"f1":             scores.F1,
		},
	}, nil
}

// regress fits a regressor on the given split and reports error on both parts.
func regress(model string, t config.TrainingConfig, x [][]float64, y []float64, columns []string, trainIdx, testIdx []int, o fitOptions) (*ml.Forest, Evaluation, error) {
	forest, err := ml.FitRegressor(ml.Select(x, trainIdx), ml.Select(y, trainIdx), columns, forestParams(t, o))
	if err != nil {
		return nil, Evaluation{}, stderrors.NewTrainingFailedError(model, err)
	}

	metrics := make(map[string]float64, 6)
	for _, part := range []struct {
		name string
		idx  []int
	}{{"train", trainIdx}, {"test", testIdx}} {
		yTrue := ml.Select(y, part.idx)
		yPred := make([]float64, len(part.idx))
		for i, row := range ml.Select(x, part.idx) {
			if yPred[i], err = forest.Predict(row); err != nil {
				return nil, Evaluation{}, stderrors.NewTrainingFailedError(model, err)
			}
		}
		metrics[part.name+"_rmse"] = ml.RMSE(yTrue, yPred)
		metrics[part.name+"_mae"] = ml.MAE(yTrue, yPred)
		metrics[part.name+"_r2"] = ml.R2(yTrue, yPred)
	}

	return forest, Evaluation{TrainRows: len(trainIdx), TestRows: len(testIdx), Metrics: metrics}, nil
}

func predictClasses(forest *ml.Forest, x [][]float64) ([]string, error) {
	out := make([]string, len(x))
	for i, row := range x {
		label, err := forest.PredictClass(row)
		if err != nil {
			return nil, err
		}
		out[i] = label
	}
	return out, nil
}

// bothClasses reports whether each of the two labels occurs at least atLeast times.
func bothClasses(y []string, a, b string, atLeast int) bool {
	var na, nb int
	for _, v := range y {
		switch v {
		case a:
			na++
		case b:
			nb++
		}
	}
	return na >= atLeast && nb >= atLeast
}
