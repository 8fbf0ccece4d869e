// internal/predictors/forecasting/forecast-demand/models.go
package forecastdemand

import (
	"facility-ml/internal/common/validation"
	"facility-ml/internal/features"
)

type Input struct {
	FacilityID     features.ID    `json:"facility_id"`
	Date           string         `json:"date"`
	EndDate        string         `json:"end_date,omitempty"`
	HistoricalData []HistoryPoint `json:"historical_data,omitempty"`
}

// HistoryPoint is one day of observed bookings.
type HistoryPoint struct {
	Date         string          `json:"date"`
	BookingCount features.Number `json:"booking_count"`
}

type Output struct {
	PredictedCount float64 `json:"predicted_count"`
	Confidence     float64 `json:"confidence"`
}

// RangeOutput answers a request carrying end_date.
type RangeOutput struct {
	Forecasts []DayForecast `json:"forecasts"`
}

type DayForecast struct {
	Date           string  `json:"date"`
	FacilityID     int     `json:"facility_id"`
	PredictedCount float64 `json:"predicted_count"`
	Confidence     float64 `json:"confidence"`
}

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"facility_id", "date"},
	"properties": map[string]interface{}{
		"facility_id": map[string]interface{}{"type": []interface{}{"integer", "string"}, "minLength": 1},
		"date":        map[string]interface{}{"type": "string", "minLength": 1},
		"end_date":    map[string]interface{}{"type": []interface{}{"string", "null"}},
		"historical_data": map[string]interface{}{
			"type": []interface{}{"array", "null"},
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"date"},
			},
		},
	},
})
