// internal/predictors/forecasting/forecast-demand/handler_test.go
package forecastdemand

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
	"facility-ml/internal/predictors"
	"facility-ml/internal/predictors/predictorstest"
)

// ==========================
// Test Helper Functions
// ==========================

// trainWeekendModel fits a model where weekends see five bookings and
// weekdays one.
func trainWeekendModel(t *testing.T, deps *predictors.Context) {
	var x [][]float64
	var y []float64
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		day := start.AddDate(0, 0, i)
		x = append(x, features.DemandRecord(1, day, features.Lags{}).Align(features.DemandColumns))
		if features.DayOfWeek(day) >= 5 {
			y = append(y, 5)
		} else {
			y = append(y, 1)
		}
	}
	forest, err := ml.FitRegressor(x, y, features.DemandColumns, predictorstest.Params())
	require.NoError(t, err)
	predictorstest.Save(t, deps.Store, artifacts.DemandModel, artifacts.DemandBundle{
		Model:       forest,
		FeatureCols: features.DemandColumns,
	})
}

func createTestHandler(t *testing.T, trained bool) *Handler {
	deps := predictorstest.NewContext(t)
	if trained {
		trainWeekendModel(t, deps)
	}
	return NewHandler(LoadConfig(), deps, deps.Logger)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t, true)

	saturday, err := h.Execute(context.Background(), &Input{FacilityID: "1", Date: "2025-06-14"})
	require.NoError(t, err)
	tuesday, err := h.Execute(context.Background(), &Input{FacilityID: "1", Date: "2025-06-10"})
	require.NoError(t, err)

	assert.Greater(t, saturday.PredictedCount, tuesday.PredictedCount)
	assert.GreaterOrEqual(t, tuesday.PredictedCount, 0.0)
	assert.Equal(t, 0.7, saturday.Confidence)
}

func TestHandler_Execute_ModelMissing(t *testing.T) {
	h := createTestHandler(t, false)

	out, err := h.Execute(context.Background(), &Input{FacilityID: "1", Date: "2025-06-14"})
	require.NoError(t, err)
	assert.Equal(t, &Output{PredictedCount: 0, Confidence: 0}, out)
}

func TestHandler_Execute_BadDate(t *testing.T) {
	h := createTestHandler(t, true)

	_, err := h.Execute(context.Background(), &Input{FacilityID: "1", Date: "someday"})
	require.Error(t, err)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeFeatureAlignment))
}

func TestHandler_ExecuteRange(t *testing.T) {
	h := createTestHandler(t, true)

	out, err := h.ExecuteRange(context.Background(), &Input{
		FacilityID: "1",
		Date:       "2025-06-10",
		EndDate:    "2025-06-16",
	})
	require.NoError(t, err)
	require.Len(t, out.Forecasts, 7)
	assert.Equal(t, "2025-06-10", out.Forecasts[0].Date)
	assert.Equal(t, "2025-06-16", out.Forecasts[6].Date)
	assert.Equal(t, 1, out.Forecasts[3].FacilityID)

	_, err = h.ExecuteRange(context.Background(), &Input{FacilityID: "1", Date: "2025-01-01", EndDate: "2027-01-01"})
	assert.Error(t, err)
}

func TestHandler_Handle_RangeMode(t *testing.T) {
	h := createTestHandler(t, false)

	out, err := h.Handle(context.Background(), []byte(`{"facility_id": 3, "date": "2025-06-10", "end_date": "2025-06-11"}`))
	require.NoError(t, err)
	rng, ok := out.(*RangeOutput)
	require.True(t, ok)
	assert.Len(t, rng.Forecasts, 2)
	assert.Equal(t, 3, rng.Forecasts[0].FacilityID)
}

// ==========================
// History Tests
// ==========================

func TestHistoryCounts_SortsByDate(t *testing.T) {
	points := []HistoryPoint{
		{Date: "2025-01-03", BookingCount: features.NewNumber(3)},
		{Date: "2025-01-01", BookingCount: features.NewNumber(1)},
		{Date: "2025-01-02"},
	}
	assert.Equal(t, []float64{1, 0, 3}, historyCounts(points))
	assert.Nil(t, historyCounts(nil))
}

func TestHandler_Validate(t *testing.T) {
	h := createTestHandler(t, false)

	assert.NoError(t, h.Validate(map[string]interface{}{"facility_id": 1, "date": "2025-01-01"}))

	err := h.Validate(map[string]interface{}{"date": "2025-01-01"})
	require.Error(t, err)
	std := stderrors.AsStandard(err)
	assert.Equal(t, "Missing required parameters", std.Message)
	assert.Equal(t, []string{"facility_id"}, std.Metadata["missing"])
}
