package recommendfacilities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
	"facility-ml/internal/predictors"
)

const (
	TaskType = "recommend-facilities"
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

func (h *Handler) FromArgs([]string) (map[string]interface{}, bool) {
	return nil, false
}

// Fallback returns the first limit facilities in input order, unscored.
func (h *Handler) Fallback(doc map[string]interface{}) interface{} {
	raw, _ := doc["facilities"].([]interface{})
	facilities := make([]Facility, 0, len(raw))
	for _, item := range raw {
		if f, ok := item.(map[string]interface{}); ok {
			facilities = append(facilities, Facility(f))
		}
	}
	limit := h.config.DefaultLimit
	if n, ok := numberOf(doc["limit"]); ok && n > 0 {
		limit = n
	}
	return h.unscored(facilities, limit)
}

func (h *Handler) Handle(ctx context.Context, payload []byte) (interface{}, error) {
	var input Input
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil {
		return nil, stderrors.NewPredictionFailedError(fmt.Errorf("parse input: %w", err))
	}
	output, err := h.Execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// Execute scores every candidate and returns the best limit of them. Equal
// scores keep their input order.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := input.Limit.IntOr(h.config.DefaultLimit)
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}

	m, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		return h.unscored(input.Facilities, limit), nil
	}

	day := features.DefaultDateFeatures
	if parsed, err := features.ParseDate(input.ReservationDate); err == nil {
		day = features.ExtractDate(parsed)
	} else {
		h.logger.Warn("reservation date not parsed, using defaults", map[string]interface{}{
			"reservationDate": input.ReservationDate,
		})
	}
	timeSlot := input.TimeSlot
	if timeSlot == "" {
		timeSlot = h.config.DefaultTimeSlot
	}
	slot := features.ParseTimeSlot(timeSlot)
	keywords := features.PurposeKeywords(input.Purpose)
	attendees := input.ExpectedAttendees.IntOr(features.DefaultExpectedAttendees)
	commercial := input.IsCommercial.BoolOr(false)
	userBookings := input.UserBookingCount.IntOr(0)
	userEncoded := m.encoders.Encode("user_id", userKey(input.UserID))

	scored := make([]Facility, 0, len(input.Facilities))
	for _, facility := range input.Facilities {
		id := fmt.Sprint(facility["id"])
		booking := features.Booking{
			Day:               day,
			Slot:              slot,
			Capacity:          features.ParseCapacity(facility["capacity"]),
			ExpectedAttendees: attendees,
			IsCommercial:      commercial,
		}
		candidate := features.Candidate{
			AmenitiesCount:  amenitiesCount(facility["amenities"]),
			FacilityEncoded: m.encoders.Encode("facility_id", id),
		}
		row := booking.RecommendationRecord(candidate, keywords, userBookings, userEncoded).
			Align(features.RecommendationColumns)
		score, err := m.forest.Predict(row)
		if err != nil {
			return nil, stderrors.NewPredictionFailedError(fmt.Errorf("facility %s: %w", id, err))
		}
		scored = append(scored, withScore(facility, score))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i][ScoreKey].(float64) > scored[j][ScoreKey].(float64)
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return &Output{Recommendations: scored}, nil
}

func (h *Handler) unscored(facilities []Facility, limit int) *Output {
	if len(facilities) > limit {
		facilities = facilities[:limit]
	}
	out := make([]Facility, len(facilities))
	for i, f := range facilities {
		out[i] = withScore(f, 0.0)
	}
	return &Output{Recommendations: out}
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

// withScore copies f and adds the relevance score.
func withScore(f Facility, score float64) Facility {
	out := make(Facility, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out[ScoreKey] = score
	return out
}

// userKey is the encoder key of a requester; anonymous requests use "0".
func userKey(id features.ID) string {
	if id == "" {
		return "0"
	}
	return id.String()
}

func amenitiesCount(v interface{}) int {
	switch a := v.(type) {
	case nil:
		return 0
	case string:
		return features.AmenitiesCount(a)
	case []interface{}:
		return len(a)
	default:
		return features.AmenitiesCount(fmt.Sprint(a))
	}
}

func numberOf(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		return int(f), err == nil
	case string:
		num := features.ParseNumber(n)
		return num.IntOr(0), num.Set
	default:
		return 0, false
	}
}
