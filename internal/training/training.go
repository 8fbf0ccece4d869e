// Package training fits the facility models from reservation history and
// writes the artifacts the prediction endpoints load.
package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/config"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/common/observability"
	"facility-ml/internal/dataloader"
	"facility-ml/internal/ml"
	"facility-ml/internal/training/labels"
	"facility-ml/internal/training/report"
)

// Source is the part of the data loader the trainers read from.
type Source interface {
	LoadReservations(ctx context.Context, r dataloader.DateRange) ([]dataloader.Reservation, error)
	LoadFacilities(ctx context.Context) ([]dataloader.Facility, error)
	LoadUserVerification(ctx context.Context) (map[int64]bool, error)
	LoadUserViolations(ctx context.Context, days int) (map[int64]int, error)
	LoadPurposeTexts(ctx context.Context, r dataloader.DateRange) ([]dataloader.PurposeText, error)
}

// Env is everything a trainer needs for one run.
type Env struct {
	Config    *config.Config
	Source    Source
	Store     *artifacts.Store
	Rules     *labels.Rules
	Publisher *report.Publisher
	Logger    logger.Logger
	Obs       *observability.Observability
	Now       func() time.Time
}

// Lookback is the default training window ending today.
func (e *Env) Lookback() dataloader.DateRange {
	return dataloader.LastDays(e.Now(), e.Config.Training.LookbackDays)
}

// Artifact is one file a trainer wants written.
type Artifact struct {
	Name  string
	Value interface{}
}

// Result is what a successful Train returns.
type Result struct {
	Artifacts []Artifact
	Features  []string
	Evaluation
	Top []ml.RankedImportance
}

// Trainer fits one model family. Train returns an INSUFFICIENT_DATA error when
// the frame is too small; nothing is written in that case.
type Trainer interface {
	Name() string
	Task() string
	Train(ctx context.Context, env *Env) (*Result, error)
}

// Task kinds recorded in the registry.
const (
	TaskClassification = "classification"
	TaskRegression     = "regression"
)

// Trainers returns every trainer keyed by name.
func Trainers() map[string]Trainer {
	all := []Trainer{
		&IntentTrainer{},
		&PurposeTrainer{},
		&ConflictTrainer{},
		&RiskTrainer{},
		&DemandTrainer{},
		&RecommendationTrainer{},
	}
	byName := make(map[string]Trainer, len(all))
	for _, t := range all {
		byName[t.Name()] = t
	}
	return byName
}

// Names lists the trainer names in a stable order.
func Names() []string {
	names := make([]string, 0, 6)
	for name := range Trainers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run trains t, persists its artifacts and publishes the report. A run skipped
// for lack of data returns its report and a nil error.
func Run(ctx context.Context, env *Env, t Trainer) (*report.Report, error) {
	begin := time.Now()
	runID := uuid.NewString()
	log := env.Logger.WithFields(map[string]interface{}{
		"model": t.Name(),
		"runId": runID,
	})
	log.Info("training started", nil)
	ctx, span := env.Obs.StartSpan(ctx, "train."+t.Name(), map[string]string{
		"model": t.Name(),
		"runId": runID,
	})

	r := &report.Report{
		Model:     t.Name(),
		Task:      t.Task(),
		RunID:     runID,
		StartedAt: env.Now(),
	}

	result, err := t.Train(ctx, env)
	switch {
	case stderrors.HasCode(err, stderrors.ErrCodeInsufficientData):
		log.Warn("not enough data, model not trained", map[string]interface{}{
			"reason": stderrors.AsStandard(err).Details,
		})
		r.Status = report.StatusSkipped
		r.Reason = stderrors.AsStandard(err).Details
		err = nil
	case err != nil:
		log.Error("training failed", map[string]interface{}{"error": err.Error()})
		r.Status = report.StatusFailed
		r.Reason = err.Error()
	default:
		err = persist(env.Store, result, r)
		if err != nil {
			log.Error("failed to write artifacts", map[string]interface{}{"error": err.Error()})
			r.Status = report.StatusFailed
			r.Reason = err.Error()
		} else {
			r.Status = report.StatusTrained
			log.Info("training finished", map[string]interface{}{
				"trainRows": r.TrainRows,
				"testRows":  r.TestRows,
				"metrics":   r.Metrics,
			})
		}
	}
	r.Duration = time.Since(begin).Seconds()
	env.Obs.RecordJob(ctx, observability.KindTrain, t.Name(), r.Status, time.Since(begin))

	if env.Publisher != nil {
		if perr := env.Publisher.Publish(ctx, r); perr != nil {
			log.Error("failed to publish report", map[string]interface{}{"error": perr.Error()})
			if err == nil {
				err = perr
			}
		}
	}
	observability.EndSpan(span, err)
	return r, err
}

// RunAll runs every named trainer in order and joins their errors.
func RunAll(ctx context.Context, env *Env, names []string) ([]*report.Report, error) {
	trainers := Trainers()
	var (
		reports []*report.Report
		errs    []error
	)
	for _, name := range names {
		t, ok := trainers[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown model %q", name))
			continue
		}
		r, err := Run(ctx, env, t)
		reports = append(reports, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return reports, errors.Join(errs...)
}

func persist(store *artifacts.Store, result *Result, r *report.Report) error {
	for _, a := range result.Artifacts {
		if err := store.Save(a.Name, a.Value); err != nil {
			return stderrors.NewArtifactWriteFailedError(a.Name, err)
		}
		r.Artifacts = append(r.Artifacts, a.Name)
	}
	r.Features = result.Features
	r.TrainRows = result.TrainRows
	r.TestRows = result.TestRows
	r.Metrics = result.Metrics
	for _, imp := range result.Top {
		r.TopFeatures = append(r.TopFeatures, imp.Feature)
	}
	return nil
}

// guard fails with INSUFFICIENT_DATA when have < need.
func guard(model string, have, need int) error {
	if have < need {
		return stderrors.NewInsufficientDataError(model, have, need)
	}
	return nil
}
