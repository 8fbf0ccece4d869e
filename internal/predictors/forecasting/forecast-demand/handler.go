// internal/predictors/forecasting/forecast-demand/handler.go
package forecastdemand

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/features"
	"facility-ml/internal/predictors"
)

const (
	TaskType = "forecast-demand"
)

type Handler struct {
	config *Config
	deps   *predictors.Context
	logger logger.Logger
	model  *artifacts.Lazy[*artifacts.DemandBundle]
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

func (h *Handler) Fallback(doc map[string]interface{}) interface{} {
	if end, _ := doc["end_date"].(string); end != "" {
		return &RangeOutput{Forecasts: []DayForecast{}}
	}
	return &Output{PredictedCount: 0.0, Confidence: 0.0}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) (interface{}, error) {
	var input Input
	if err := json.Unmarshal(payload, &input); err != nil {
		return nil, stderrors.NewPredictionFailedError(fmt.Errorf("parse input: %w", err))
	}
	if input.EndDate != "" {
		output, err := h.ExecuteRange(ctx, &input)
		if err != nil {
			return nil, err
		}
		return output, nil
	}
	output, err := h.Execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// Execute predicts the booking count of one facility on input.Date.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	day, err := features.ParseDate(input.Date)
	if err != nil {
		return nil, stderrors.NewFeatureAlignmentError("date", err)
	}
	return h.predict(input.FacilityID.Int(), day, historyCounts(input.HistoricalData))
}

// ExecuteRange predicts every day from input.Date through input.EndDate.
func (h *Handler) ExecuteRange(ctx context.Context, input *Input) (*RangeOutput, error) {
	start, err := features.ParseDate(input.Date)
	if err != nil {
		return nil, stderrors.NewFeatureAlignmentError("date", err)
	}
	end, err := features.ParseDate(input.EndDate)
	if err != nil {
		return nil, stderrors.NewFeatureAlignmentError("end_date", err)
	}
	days := features.DaysBetween(start, end) + 1
	if days > h.config.MaxRangeDays {
		return nil, stderrors.NewFeatureAlignmentError("end_date",
			fmt.Errorf("range of %d days exceeds %d", days, h.config.MaxRangeDays))
	}

	facilityID := input.FacilityID.Int()
	counts := historyCounts(input.HistoricalData)
	out := &RangeOutput{Forecasts: make([]DayForecast, 0, max(days, 0))}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		pred, err := h.predict(facilityID, day, counts)
		if err != nil {
			return nil, err
		}
		out.Forecasts = append(out.Forecasts, DayForecast{
			Date:           day.Format("2006-01-02"),
			FacilityID:     facilityID,
			PredictedCount: pred.PredictedCount,
			Confidence:     pred.Confidence,
		})
	}
	return out, nil
}

func (h *Handler) predict(facilityID int, day time.Time, counts []float64) (*Output, error) {
	bundle, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		return &Output{PredictedCount: 0.0, Confidence: 0.0}, nil
	}

	row := features.DemandRecord(facilityID, day, features.LagsFromHistory(counts)).Align(bundle.FeatureCols)
	pred, err := bundle.Model.Predict(row)
	if err != nil {
		return nil, stderrors.NewPredictionFailedError(err)
	}
	if math.IsNaN(pred) {
		pred = 0
	}
	return &Output{PredictedCount: math.Max(0, pred), Confidence: h.config.Confidence}, nil
}

// historyCounts orders the history by date and returns its booking counts.
func historyCounts(points []HistoryPoint) []float64 {
	if len(points) == 0 {
		return nil
	}
	sorted := append([]HistoryPoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.TrimSpace(sorted[i].Date) < strings.TrimSpace(sorted[j].Date)
	})
	counts := make([]float64, len(sorted))
	for i, p := range sorted {
		counts[i] = p.BookingCount.Or(0)
	}
	return counts
}

func (h *Handler) load() (*artifacts.DemandBundle, error) {
	var bundle artifacts.DemandBundle
	if err := h.deps.Store.Load(h.config.ModelFile, &bundle); err != nil {
		return nil, err
	}
	if bundle.Model == nil || len(bundle.Model.Trees) == 0 {
		return nil, fmt.Errorf("%s holds no model", h.config.ModelFile)
	}
	if len(bundle.FeatureCols) == 0 {
		bundle.FeatureCols = features.DemandColumns
	}
	return &bundle, nil
}
