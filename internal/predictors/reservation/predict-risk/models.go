package predictrisk

import (
	"facility-ml/internal/common/validation"
	"facility-ml/internal/features"
)

// Input describes the reservation together with the facility policy and the
// requester's history. An explicit null capacity threshold or maximum duration
// means the facility sets no limit.
type Input struct {
	FacilityID                features.ID     `json:"facility_id"`
	UserID                    features.ID     `json:"user_id"`
	ReservationDate           string          `json:"reservation_date"`
	TimeSlot                  string          `json:"time_slot"`
	ExpectedAttendees         features.Number `json:"expected_attendees"`
	IsCommercial              features.Number `json:"is_commercial"`
	FacilityAutoApprove       features.Number `json:"facility_auto_approve"`
	FacilityCapacity          interface{}     `json:"facility_capacity"`
	FacilityMaxDurationHours  features.Number `json:"facility_max_duration_hours"`
	FacilityCapacityThreshold features.Number `json:"facility_capacity_threshold"`
	UserIsVerified            features.Number `json:"user_is_verified"`
	UserBookingCount          features.Number `json:"user_booking_count"`
	UserViolationCount        features.Number `json:"user_violation_count"`
}

type Output struct {
	RiskLevel       int     `json:"risk_level"`
	RiskProbability float64 `json:"risk_probability"`
	Confidence      float64 `json:"confidence"`
	IsLowRisk       bool    `json:"is_low_risk"`
	IsHighRisk      bool    `json:"is_high_risk"`
}

var ArgNames = []string{
	"facility_id", "user_id", "reservation_date", "time_slot",
	"expected_attendees", "is_commercial", "facility_auto_approve",
	"facility_capacity", "facility_max_duration_hours", "facility_capacity_threshold",
	"user_is_verified", "user_booking_count", "user_violation_count",
}

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"facility_id", "user_id", "reservation_date", "time_slot"},
	"properties": map[string]interface{}{
		"facility_id":      map[string]interface{}{"type": []interface{}{"integer", "string"}, "minLength": 1},
		"user_id":          map[string]interface{}{"type": []interface{}{"integer", "string"}, "minLength": 1},
		"reservation_date": map[string]interface{}{"type": "string", "minLength": 1},
		"time_slot":        map[string]interface{}{"type": "string", "minLength": 1},
	},
})
