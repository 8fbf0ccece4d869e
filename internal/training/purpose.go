package training

import (
	"context"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
)

// PurposeTrainer fits the purpose category classifier on clear purposes and
// the unclear-purpose detector on all of them.
type PurposeTrainer struct{}

func (t *PurposeTrainer) Name() string { return "purpose" }
func (t *PurposeTrainer) Task() string { return TaskClassification }

func (t *PurposeTrainer) Train(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config.Training
	rows, err := env.Source.LoadPurposeTexts(ctx, env.Lookback())
	if err != nil {
		return nil, err
	}
	if err := guard(t.Name(), len(rows), cfg.MinReservations); err != nil {
		return nil, err
	}

	var (
		allDocs, unclearLabels   []string
		clearDocs, categoryLabels []string
	)
	for _, row := range rows {
		clean := features.Normalize(row.Purpose)
		unclear := features.IsUnclearPurpose(row.Purpose)
		if !unclear {
			extra, err := env.Rules.ExtraUnclear(row.Purpose, row.Status)
			if err != nil {
				return nil, stderrors.NewTrainingFailedError(t.Name(), err)
			}
			unclear = extra
		}

		allDocs = append(allDocs, clean)
		if unclear {
			unclearLabels = append(unclearLabels, "1")
			continue
		}
		unclearLabels = append(unclearLabels, "0")
		clearDocs = append(clearDocs, clean)
		categoryLabels = append(categoryLabels, features.CategorizePurpose(row.Purpose, row.Status))
	}

	result := &Result{Evaluation: Evaluation{Metrics: map[string]float64{}}}

	if len(clearDocs) < cfg.MinClearPurposes {
		env.Logger.Warn("too few clear purposes, category model not trained", map[string]interface{}{
			"clear":    len(clearDocs),
			"required": cfg.MinClearPurposes,
		})
	} else {
		vec, err := ml.FitTfidf(clearDocs, ml.TfidfParams{MaxFeatures: 1000, NgramMin: 1, NgramMax: 2, MinDF: 2, StopWords: true})
		if err != nil {
			return nil, stderrors.NewTrainingFailedError(t.Name(), err)
		}
		stratify := ml.CanStratify(categoryLabels) && len(distinct(categoryLabels)) > 1
		forest, eval, err := classify(t.Name(), cfg, vec.TransformAll(clearDocs), categoryLabels, vec.Terms(),
			stratify, fitOptions{balanced: true})
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts,
			Artifact{Name: artifacts.PurposeCategoryModel, Value: forest},
			Artifact{Name: artifacts.PurposeCategoryVectorizer, Value: vec},
		)
		for name, v := range eval.Metrics {
			result.Metrics["category_"+name] = v
		}
		result.Top = forest.TopImportances(10)
	}

	vec, err := ml.FitTfidf(allDocs, ml.TfidfParams{MaxFeatures: 500, NgramMin: 1, NgramMax: 2, MinDF: 1})
	if err != nil {
		return nil, stderrors.NewTrainingFailedError(t.Name(), err)
	}
	forest, eval, err := classify(t.Name(), cfg, vec.TransformAll(allDocs), unclearLabels, vec.Terms(),
		bothClasses(unclearLabels, "0", "1", 2), fitOptions{balanced: true})
	if err != nil {
		return nil, err
	}
	result.Artifacts = append(result.Artifacts,
		Artifact{Name: artifacts.PurposeUnclearModel, Value: forest},
		Artifact{Name: artifacts.PurposeUnclearVectorizer, Value: vec},
	)
	for name, v := range eval.Metrics {
		result.Metrics["unclear_"+name] = v
	}
	result.TrainRows = eval.TrainRows
	result.TestRows = eval.TestRows
	return result, nil
}

func distinct(values []string) map[string]bool {
	set := make(map[string]bool)
	for _, v := range values {
		set[v] = true
	}
	return set
}
