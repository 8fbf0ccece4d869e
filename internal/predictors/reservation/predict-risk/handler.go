package predictrisk

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
	"facility-ml/internal/predictors"
)

const (
	TaskType = "predict-risk"
)

type model struct {
	forest   *ml.Forest
	encoders ml.EncoderSet
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

// Fallback fails closed: without a model every reservation goes to manual review.
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
	m, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		return h.fallback(), nil
	}

	day, advanceDays := features.DefaultDateFeatures, 0
	if parsed, err := features.ParseDate(input.ReservationDate); err == nil {
		day = features.ExtractDate(parsed)
		advanceDays = features.DaysBetween(h.deps.Today(), parsed)
	} else {
		h.logger.Warn("reservation date not parsed, using defaults", map[string]interface{}{
			"reservationDate": input.ReservationDate,
		})
	}

	booking := features.Booking{
		FacilityID:        input.FacilityID.Int(),
		Day:               day,
		Slot:              features.ParseTimeSlot(input.TimeSlot),
		Capacity:          features.ParseCapacity(input.FacilityCapacity),
		ExpectedAttendees: input.ExpectedAttendees.IntOr(features.DefaultExpectedAttendees),
		IsCommercial:      input.IsCommercial.BoolOr(false),
	}
	profile := features.RiskProfile{
		AutoApprove:       input.FacilityAutoApprove.BoolOr(false),
		MaxDurationHours:  limitOr(input.FacilityMaxDurationHours, features.DefaultMaxDurationHours),
		CapacityThreshold: int(limitOr(input.FacilityCapacityThreshold, features.DefaultCapacityThreshold)),
		UserIsVerified:    input.UserIsVerified.BoolOr(true),
		UserBookings:      input.UserBookingCount.IntOr(0),
		UserViolations:    input.UserViolationCount.IntOr(0),
		AdvanceDays:       advanceDays,
		FacilityEncoded:   m.encoders.Encode("facility_id", input.FacilityID.String()),
		UserEncoded:       m.encoders.Encode("user_id", input.UserID.String()),
	}

	proba, err := m.forest.PredictProba(booking.RiskRecord(profile).Align(features.RiskColumns))
	if err != nil {
		return nil, stderrors.NewPredictionFailedError(err)
	}
	best := ml.Argmax(proba)
	level, err := strconv.Atoi(m.forest.Classes[best])
	if err != nil {
		return nil, stderrors.NewPredictionFailedError(fmt.Errorf("risk class %q: %w", m.forest.Classes[best], err))
	}

	var highRisk float64
	if i := m.forest.ClassIndex(h.config.HighRiskLabel); i >= 0 {
		highRisk = proba[i]
	}
	return &Output{
		RiskLevel:       level,
		RiskProbability: highRisk,
		Confidence:      proba[best],
		IsLowRisk:       level == 0,
		IsHighRisk:      level == 1,
	}, nil
}

// limitOr reads a facility limit. Null means unlimited, which RiskRecord
// expects as zero.
func limitOr(n features.Number, def float64) float64 {
	if n.Null {
		return 0
	}
	return n.Or(def)
}

func (h *Handler) load() (*model, error) {
	forest, err := predictors.LoadForest(h.deps.Store, h.config.ModelFile)
	if err != nil {
		return nil, err
	}
	encoders, err := predictors.LoadEncoders(h.deps.Store, h.config.EncodersFile)
	if err != nil {
		return nil, err
	}
	return &model{forest: forest, encoders: encoders}, nil
}

func (h *Handler) fallback() *Output {
	return &Output{
		RiskLevel:       1,
		RiskProbability: 0.5,
		Confidence:      0.0,
		IsLowRisk:       false,
		IsHighRisk:      true,
	}
}
