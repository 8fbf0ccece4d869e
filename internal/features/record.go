package features

import "time"

// Record is one row of named feature values. Columns absent from a record
// align to zero.
type Record map[string]float64

// Align projects r onto columns in order.
func (r Record) Align(columns []string) []float64 {
	row := make([]float64, len(columns))
	for i, col := range columns {
		row[i] = r[col]
	}
	return row
}

// Merge copies every value of other into r and returns r.
func (r Record) Merge(other Record) Record {
	for k, v := range other {
		r[k] = v
	}
	return r
}

// Column orders the models are trained with.
var (
	ConflictColumns = []string{
		"facility_id", "start_hour", "end_hour", "duration_hours",
		"day_of_week", "month", "is_weekend", "is_holiday",
		"capacity", "expected_attendees", "capacity_ratio", "is_commercial",
	}

	RiskColumns = []string{
		"facility_auto_approve", "facility_capacity", "facility_max_duration_hours",
		"facility_capacity_threshold", "user_is_verified", "user_booking_count",
		"user_violation_count", "start_hour", "end_hour", "duration_hours",
		"day_of_week", "month", "is_weekend", "is_holiday", "expected_attendees",
		"capacity_ratio", "duration_ratio", "is_commercial", "advance_days",
		"within_capacity_threshold", "within_duration_limit", "within_advance_window",
		"facility_id_encoded", "user_id_encoded",
	}

	RecommendationColumns = append([]string{
		"capacity", "amenities_count", "start_hour", "end_hour", "duration_hours",
		"day_of_week", "month", "is_weekend", "is_holiday", "expected_attendees",
		"capacity_ratio", "is_commercial", "user_booking_count",
	}, append(PurposeKeywordNames(), "user_id_encoded", "facility_id_encoded")...)

	DemandColumns = []string{
		"facility_id", "year", "month", "day", "day_of_week", "day_of_year", "week",
		"is_weekend", "is_month_start", "is_month_end", "is_holiday",
		"booking_count_lag1", "booking_count_lag7", "booking_count_lag30",
		"booking_count_ma7", "booking_count_ma30",
	}
)

// Default values applied when a request leaves a field out.
const (
	DefaultExpectedAttendees      = 50
	DefaultMaxDurationHours       = 8.0
	DefaultCapacityThreshold      = 200
	UnboundedCapacityThreshold    = 999
	AdvanceWindowDays             = 60
	DefaultRecommendationLimit    = 5
	DefaultRecommendationTimeSlot = "08:00 - 12:00"
	unknownCapacityRatio          = 0.5
	unboundedDurationRatio        = 1.0
)

// DefaultDateFeatures stand in for a date that could not be parsed.
var DefaultDateFeatures = DateFeatures{DayOfWeek: 0, Month: 1}

// Booking is the part of a reservation every reservation model looks at.
type Booking struct {
	FacilityID        int
	Day               DateFeatures
	Slot              TimeSlot
	Capacity          int
	ExpectedAttendees int
	IsCommercial      bool
}

// CapacityRatio is attendees over capacity, or 0.5 when capacity is unknown.
func CapacityRatio(attendees, capacity int) float64 {
	if capacity <= 0 {
		return unknownCapacityRatio
	}
	return float64(attendees) / float64(capacity)
}

func (b Booking) base() Record {
	return Record{
		"start_hour":         float64(b.Slot.StartHour),
		"end_hour":           float64(b.Slot.EndHour),
		"duration_hours":     float64(b.Slot.DurationHours),
		"day_of_week":        float64(b.Day.DayOfWeek),
		"month":              float64(b.Day.Month),
		"is_weekend":         float64(b.Day.IsWeekend),
		"is_holiday":         float64(b.Day.IsHoliday),
		"expected_attendees": float64(b.ExpectedAttendees),
		"capacity_ratio":     CapacityRatio(b.ExpectedAttendees, b.Capacity),
		"is_commercial":      boolFloat(b.IsCommercial),
	}
}

// ConflictRecord builds the conflict detection row.
func (b Booking) ConflictRecord() Record {
	r := b.base()
	r["facility_id"] = float64(b.FacilityID)
	r["capacity"] = float64(b.Capacity)
	return r
}

// RiskProfile carries the facility policy and requester history around a booking.
// A capacity threshold or maximum duration of zero or less means the facility
// sets no limit.
type RiskProfile struct {
	AutoApprove       bool
	MaxDurationHours  float64
	CapacityThreshold int
	UserIsVerified    bool
	UserBookings      int
	UserViolations    int
	AdvanceDays       int
	FacilityEncoded   int
	UserEncoded       int
}

// RiskRecord builds the auto-approval risk row.
func (b Booking) RiskRecord(p RiskProfile) Record {
	r := b.base()
	r["facility_auto_approve"] = boolFloat(p.AutoApprove)
	r["facility_capacity"] = float64(b.Capacity)
	r["facility_max_duration_hours"] = p.MaxDurationHours
	r["user_is_verified"] = boolFloat(p.UserIsVerified)
	r["user_booking_count"] = float64(p.UserBookings)
	r["user_violation_count"] = float64(p.UserViolations)
	r["advance_days"] = float64(p.AdvanceDays)
	r["facility_id_encoded"] = float64(p.FacilityEncoded)
	r["user_id_encoded"] = float64(p.UserEncoded)

	duration := float64(b.Slot.DurationHours)
	r["duration_ratio"] = unboundedDurationRatio
	r["within_duration_limit"] = 1
	if p.MaxDurationHours > 0 {
		r["duration_ratio"] = duration / p.MaxDurationHours
		r["within_duration_limit"] = boolFloat(duration <= p.MaxDurationHours)
	}

	r["facility_capacity_threshold"] = UnboundedCapacityThreshold
	r["within_capacity_threshold"] = 1
	if p.CapacityThreshold > 0 {
		r["facility_capacity_threshold"] = float64(p.CapacityThreshold)
		r["within_capacity_threshold"] = boolFloat(b.ExpectedAttendees <= p.CapacityThreshold)
	}

	r["within_advance_window"] = boolFloat(p.AdvanceDays >= 0 && p.AdvanceDays <= AdvanceWindowDays)
	return r
}

// Candidate is a facility being scored for a recommendation.
type Candidate struct {
	AmenitiesCount  int
	FacilityEncoded int
}

// AmenitiesCount counts the comma separated parts of an amenities list.
func AmenitiesCount(amenities string) int {
	if amenities == "" {
		return 0
	}
	n := 1
	for _, c := range amenities {
		if c == ',' {
			n++
		}
	}
	return n
}

// RecommendationRecord builds the relevance row for one candidate facility.
// Booking.Capacity must be the candidate's capacity.
func (b Booking) RecommendationRecord(c Candidate, keywords Record, userBookings, userEncoded int) Record {
	r := b.base()
	r["capacity"] = float64(b.Capacity)
	r["amenities_count"] = float64(c.AmenitiesCount)
	r["user_booking_count"] = float64(userBookings)
	r["user_id_encoded"] = float64(userEncoded)
	r["facility_id_encoded"] = float64(c.FacilityEncoded)
	return r.Merge(keywords)
}

// Lags are the autoregressive demand features.
type Lags struct {
	Lag1, Lag7, Lag30 float64
	MA7, MA30         float64
}

// LagsFromHistory reads lag features off the tail of a date-ordered series of
// daily booking counts. Each lag and moving average needs enough points to be
// set; otherwise it stays zero.
func LagsFromHistory(counts []float64) Lags {
	var l Lags
	n := len(counts)
	if n >= 1 {
		l.Lag1 = counts[n-1]
	}
	if n >= 7 {
		l.Lag7 = counts[n-7]
		l.MA7 = mean(counts[n-7:])
	}
	if n >= 30 {
		l.Lag30 = counts[n-30]
		l.MA30 = mean(counts[n-30:])
	}
	return l
}

// DemandRecord builds the demand forecasting row for one facility and day.
func DemandRecord(facilityID int, day time.Time, lags Lags) Record {
	_, week := day.ISOWeek()
	dow := DayOfWeek(day)
	return Record{
		"facility_id":         float64(facilityID),
		"year":                float64(day.Year()),
		"month":               float64(day.Month()),
		"day":                 float64(day.Day()),
		"day_of_week":         float64(dow),
		"day_of_year":         float64(day.YearDay()),
		"week":                float64(week),
		"is_weekend":          boolFloat(dow >= 5),
		"is_month_start":      boolFloat(day.Day() <= 7),
		"is_month_end":        boolFloat(day.Day() >= 23),
		"is_holiday":          float64(IsHoliday(day)),
		"booking_count_lag1":  lags.Lag1,
		"booking_count_lag7":  lags.Lag7,
		"booking_count_lag30": lags.Lag30,
		"booking_count_ma7":   lags.MA7,
		"booking_count_ma30":  lags.MA30,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
