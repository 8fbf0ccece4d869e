package recommendfacilities

import (
	"facility-ml/internal/common/validation"
	"facility-ml/internal/features"
)

// Facility is a candidate as the caller sent it. Every key is echoed back in
// the recommendation.
type Facility map[string]interface{}

type Input struct {
	Facilities        []Facility      `json:"facilities"`
	UserID            features.ID     `json:"user_id"`
	Purpose           string          `json:"purpose"`
	ExpectedAttendees features.Number `json:"expected_attendees"`
	TimeSlot          string          `json:"time_slot"`
	ReservationDate   string          `json:"reservation_date"`
	IsCommercial      features.Number `json:"is_commercial"`
	UserBookingCount  features.Number `json:"user_booking_count"`
	Limit             features.Number `json:"limit"`
}

type Output struct {
	Recommendations []Facility `json:"recommendations"`
}

// ScoreKey is the field added to every recommended facility.
const ScoreKey = "ml_relevance_score"

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"facilities", "reservation_date"},
	"properties": map[string]interface{}{
		"facilities": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"id"},
			},
		},
		"reservation_date": map[string]interface{}{"type": "string", "minLength": 1},
		"purpose":          map[string]interface{}{"type": []interface{}{"string", "null"}},
		"time_slot":        map[string]interface{}{"type": []interface{}{"string", "null"}},
	},
})
