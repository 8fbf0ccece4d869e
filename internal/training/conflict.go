package training

import (
	"context"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/features"
	"facility-ml/internal/training/labels"
)

// ConflictTrainer fits the conflict classifier. A reservation is labelled by
// the conflict rule from the other reservations on its facility and day.
type ConflictTrainer struct{}

func (t *ConflictTrainer) Name() string { return "conflict" }
func (t *ConflictTrainer) Task() string { return TaskClassification }

func (t *ConflictTrainer) Train(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config.Training
	rs, err := env.Source.LoadReservations(ctx, env.Lookback())
	if err != nil {
		return nil, err
	}
	if err := guard(t.Name(), len(rs), cfg.MinReservations); err != nil {
		return nil, err
	}

	approved := make(map[dayKey]int)
	pending := make(map[dayKey]int)
	for _, r := range rs {
		switch r.Status {
		case "approved":
			approved[keyOf(r)]++
		case "pending":
			pending[keyOf(r)]++
		}
	}

	x := make([][]float64, 0, len(rs))
	y := make([]string, 0, len(rs))
	for _, r := range rs {
		k := keyOf(r)
		facts := labels.ConflictFacts{
			Status:               r.Status,
			FacilityID:           r.FacilityID,
			OtherApprovedSameDay: approved[k],
			OtherPendingSameDay:  pending[k],
		}
		switch r.Status {
		case "approved":
			facts.OtherApprovedSameDay--
		case "pending":
			facts.OtherPendingSameDay--
		}
		label, err := env.Rules.ConflictLabel(facts)
		if err != nil {
			return nil, stderrors.NewTrainingFailedError(t.Name(), err)
		}

		b := booking(r, features.ParseCapacity(r.FacilityCapacity))
		x = append(x, b.ConflictRecord().Align(features.ConflictColumns))
		y = append(y, label)
	}

	if !bothClasses(y, "0", "1", 1) {
		env.Logger.Warn("conflict labels have a single class", map[string]interface{}{"rows": len(y)})
	}
	forest, eval, err := classify(t.Name(), cfg, x, y, features.ConflictColumns, bothClasses(y, "0", "1", 1), fitOptions{})
	if err != nil {
		return nil, err
	}

	return &Result{
		Artifacts: []Artifact{
			{Name: artifacts.ConflictModel, Value: forest},
			{Name: artifacts.ConflictFeatures, Value: features.ConflictColumns},
		},
		Features:   features.ConflictColumns,
		Evaluation: eval,
		Top:        forest.TopImportances(10),
	}, nil
}
