package predictconflict

import (
	"facility-ml/internal/common/validation"
	"facility-ml/internal/features"
)

type Input struct {
	FacilityID        features.ID     `json:"facility_id"`
	ReservationDate   string          `json:"reservation_date"`
	TimeSlot          string          `json:"time_slot"`
	ExpectedAttendees features.Number `json:"expected_attendees"`
	IsCommercial      features.Number `json:"is_commercial"`
	Capacity          interface{}     `json:"capacity"`
}

type Output struct {
	ConflictProbability float64 `json:"conflict_probability"`
	IsConflict          bool    `json:"is_conflict"`
	Confidence          float64 `json:"confidence"`
}

// ArgNames is the positional argument order.
var ArgNames = []string{
	"facility_id", "reservation_date", "time_slot",
	"expected_attendees", "is_commercial", "capacity",
}

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"facility_id", "reservation_date", "time_slot"},
	"properties": map[string]interface{}{
		"facility_id":      map[string]interface{}{"type": []interface{}{"integer", "string"}, "minLength": 1},
		"reservation_date": map[string]interface{}{"type": "string", "minLength": 1},
		"time_slot":        map[string]interface{}{"type": "string", "minLength": 1},
	},
})
