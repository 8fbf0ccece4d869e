package predictconflict

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
	"facility-ml/internal/predictors"
)

const (
	TaskType = "predict-conflict"
)

// model is the conflict forest and the column order it was trained on.
type model struct {
	forest  *ml.Forest
	columns []string
}

type Handler struct {
	config *Config
	deps   *predictors.Context
	logger logger.Logger
	model  *artifacts.Lazy[*model]
}

func NewHandler(config *Config, deps *predictors.Context, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	h.model = artifacts.NewLazy(h.load)
	return h
}

func (h *Handler) Name() string {
	return TaskType
}

func (h *Handler) Validate(doc map[string]interface{}) error {
	return predictors.ValidateRequest(InputSchema, doc, "Missing required parameters")
}

func (h *Handler) FromArgs(args []string) (map[string]interface{}, bool) {
	return predictors.PositionalDoc(ArgNames, args), true
}

// Fallback fails closed: an unknown answer is treated as a conflict.
func (h *Handler) Fallback(map[string]interface{}) interface{} {
	return h.fallback()
}

func (h *Handler) Handle(ctx context.Context, payload []byte) (interface{}, error) {
	var input Input
	if err := json.Unmarshal(payload, &input); err != nil {
		return nil, stderrors.NewPredictionFailedError(fmt.Errorf("parse input: %w", err))
	}
	output, err := h.Execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	day, err := features.ParseDate(input.ReservationDate)
	if err != nil {
		return nil, stderrors.NewFeatureAlignmentError("reservation_date", err)
	}

	m, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		return h.fallback(), nil
	}

	booking := features.Booking{
		FacilityID:        input.FacilityID.Int(),
		Day:               features.ExtractDate(day),
		Slot:              features.ParseTimeSlot(input.TimeSlot),
		Capacity:          features.ParseCapacity(input.Capacity),
		ExpectedAttendees: input.ExpectedAttendees.IntOr(features.DefaultExpectedAttendees),
		IsCommercial:      input.IsCommercial.BoolOr(false),
	}
	p, err := m.forest.ProbaOf(booking.ConflictRecord().Align(m.columns), h.config.PositiveLabel)
	if err != nil {
		return nil, stderrors.NewPredictionFailedError(err)
	}

	h.logger.Debug("conflict scored", map[string]interface{}{
		"facilityId":  booking.FacilityID,
		"probability": p,
	})
	return &Output{
		ConflictProbability: p,
		IsConflict:          p > h.config.Threshold,
		Confidence:          math.Abs(p-0.5) * 2,
	}, nil
}

func (h *Handler) load() (*model, error) {
	forest, err := predictors.LoadForest(h.deps.Store, h.config.ModelFile)
	if err != nil {
		return nil, err
	}
	columns := features.ConflictColumns
	var saved []string
	switch err := h.deps.Store.Load(h.config.FeaturesFile, &saved); {
	case err == nil && len(saved) > 0:
		columns = saved
	case err != nil && !artifacts.IsNotFound(err):
		return nil, err
	}
	return &model{forest: forest, columns: columns}, nil
}

func (h *Handler) fallback() *Output {
	return &Output{ConflictProbability: 0.5, IsConflict: true, Confidence: 0.0}
}
