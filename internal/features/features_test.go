package features

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Calendar Tests
// ==========================

func TestIsHoliday(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int
	}{
		{"new year string", "2025-01-01", 1},
		{"christmas other year", "1999-12-25", 1},
		{"local event", "2024-09-08", 1},
		{"regular day", "2025-03-14", 0},
		{"time value", time.Date(2030, time.June, 12, 15, 0, 0, 0, time.UTC), 1},
		{"timestamp string", "2025-11-30 10:00:00", 1},
		{"malformed string", "not-a-date", 0},
		{"empty string", "", 0},
		{"unsupported type", 42, 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsHoliday(tt.input))
		})
	}
}

func TestIsHoliday_EveryListedDayInAnyYear(t *testing.T) {
	for _, md := range HolidayMonthDays() {
		for _, year := range []string{"2001", "2024", "2037"} {
			assert.Equal(t, 1, IsHoliday(year+"-"+md), "%s-%s", year, md)
		}
	}
}

func TestExtractDate(t *testing.T) {
	// 2025-06-14 is a Saturday
	day := time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)
	f := ExtractDate(day)

	assert.Equal(t, 5, f.DayOfWeek)
	assert.Equal(t, 6, f.Month)
	assert.Equal(t, 1, f.IsWeekend)
	assert.Equal(t, 0, f.IsHoliday)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2025-02-25", "2025-02-25T08:30:00Z", "2025-02-25 08:30:00", "2025/02/25"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, time.Date(2025, time.February, 25, 0, 0, 0, 0, time.UTC), d)
	}

	_, err := ParseDate("25th of February")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, time.January, 30, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, time.February, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysBetween(a, b))
	assert.Equal(t, -3, DaysBetween(b, a))
}

// ==========================
// Time Slot Tests
// ==========================

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		input    string
		expected TimeSlot
	}{
		{"08:00 - 12:00", TimeSlot{8, 12, 4}},
		{"13:30 - 17:00", TimeSlot{13, 17, 4}},
		{"Morning (8AM-12PM)", TimeSlot{8, 12, 4}},
		{"Afternoon", TimeSlot{13, 17, 4}},
		{"Evening", TimeSlot{18, 22, 4}},
		{"garbage", TimeSlot{8, 17, 9}},
		{"", TimeSlot{8, 17, 9}},
		{"ab:00 - 12:00", TimeSlot{8, 17, 9}},
		{"08:00 - 10:00 - 12:00", TimeSlot{8, 17, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseTimeSlot(tt.input))
		})
	}
}

// ==========================
// Capacity Tests
// ==========================

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int
	}{
		{"free text", "200 pax", 200},
		{"nil", nil, 100},
		{"int", 150, 150},
		{"float truncates", 99.9, 99},
		{"json number", json.Number("75"), 75},
		{"no digits", "large hall", 100},
		{"digits inside text", "up to 60 persons (max 80)", 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCapacity(tt.input))
		})
	}
}

// ==========================
// Text Tests
// ==========================

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world 123", Normalize(" Hello, World!! 123 "))
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("!!!"))
	assert.Equal(t, "basketball league finals", Normalize("Basketball\tLeague\n\nFINALS"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{" Hello, World!! 123 ", "Zumba @ 6pm", "n/a", "Barangay   General-Assembly"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), in)
	}
}

// ==========================
// Purpose Tests
// ==========================

func TestPurposeKeywords(t *testing.T) {
	flags := PurposeKeywords("Barangay General Assembly and feeding program")

	assert.Equal(t, 1.0, flags["meeting"])
	assert.Equal(t, 1.0, flags["community"])
	assert.Equal(t, 1.0, flags["feeding"])
	assert.Equal(t, 0.0, flags["sports"])
	assert.Len(t, flags, len(PurposeKeywordGroups))

	assert.Empty(t, PurposeKeywords("   "))
}

func TestCategorizePurpose(t *testing.T) {
	tests := []struct {
		purpose  string
		status   string
		expected string
	}{
		{"", "approved", CategoryUnclear},
		{"ok", "approved", CategoryUnclear},
		{"Barangay meeting", "approved", CategoryCommunity},
		{"Basketball tournament", "approved", CategorySports},
		{"Zumba class", "approved", CategoryEducation},
		{"Bible study", "pending", CategoryReligious},
		{"Birthday party", "approved", CategoryCelebration},
		{"LGU orientation", "approved", CategoryGovernment},
		{"Family reunion", "approved", CategoryPrivate},
		{"Something else entirely", "denied", CategoryUnclear},
		{"Something else entirely", "approved", CategoryPrivate},
		// community is checked before sports
		{"community basketball game", "approved", CategoryCommunity},
	}

	for _, tt := range tests {
		t.Run(tt.purpose+"/"+tt.status, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizePurpose(tt.purpose, tt.status))
		})
	}
}

func TestDetectUnclearByRules(t *testing.T) {
	tests := []struct {
		purpose  string
		expected UnclearVerdict
	}{
		{"", UnclearVerdict{true, 1.0, 1.0}},
		{"abc", UnclearVerdict{true, 0.8, 0.8}},
		{"testing the hall", UnclearVerdict{true, 0.9, 0.9}},
		{"N/A for now", UnclearVerdict{true, 0.9, 0.9}},
		{"Youth volleyball practice", UnclearVerdict{false, 0.2, 0.7}},
	}

	for _, tt := range tests {
		t.Run(tt.purpose, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectUnclearByRules(tt.purpose))
		})
	}
}

func TestIsUnclearPurpose(t *testing.T) {
	assert.True(t, IsUnclearPurpose("demo"))
	assert.True(t, IsUnclearPurpose("fake booking spam"))
	assert.False(t, IsUnclearPurpose("Senior citizens monthly meeting"))
}

// ==========================
// Record Builder Tests
// ==========================

func TestRecord_Align(t *testing.T) {
	r := Record{"b": 2, "a": 1, "extra": 9}
	assert.Equal(t, []float64{1, 2, 0}, r.Align([]string{"a", "b", "missing"}))
}

func TestBooking_ConflictRecord(t *testing.T) {
	b := Booking{
		FacilityID:        3,
		Day:               ExtractDate(time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)),
		Slot:              ParseTimeSlot("18:00 - 22:00"),
		Capacity:          0,
		ExpectedAttendees: 40,
		IsCommercial:      true,
	}
	row := b.ConflictRecord().Align(ConflictColumns)

	require.Len(t, row, 12)
	assert.Equal(t, []float64{3, 18, 22, 4, 3, 12, 0, 1, 0, 40, 0.5, 1}, row)
}

func TestBooking_RiskRecord(t *testing.T) {
	b := Booking{
		Day:               DefaultDateFeatures,
		Slot:              ParseTimeSlot("08:00 - 20:00"),
		Capacity:          100,
		ExpectedAttendees: 250,
	}

	t.Run("limits applied", func(t *testing.T) {
		r := b.RiskRecord(RiskProfile{
			MaxDurationHours:  8,
			CapacityThreshold: 200,
			UserIsVerified:    true,
			AdvanceDays:       10,
		})
		assert.Equal(t, 1.5, r["duration_ratio"])
		assert.Equal(t, 0.0, r["within_duration_limit"])
		assert.Equal(t, 0.0, r["within_capacity_threshold"])
		assert.Equal(t, 200.0, r["facility_capacity_threshold"])
		assert.Equal(t, 1.0, r["within_advance_window"])
		assert.Equal(t, 2.5, r["capacity_ratio"])
	})

	t.Run("no limits", func(t *testing.T) {
		r := b.RiskRecord(RiskProfile{AdvanceDays: 61})
		assert.Equal(t, 1.0, r["duration_ratio"])
		assert.Equal(t, 1.0, r["within_duration_limit"])
		assert.Equal(t, 1.0, r["within_capacity_threshold"])
		assert.Equal(t, 999.0, r["facility_capacity_threshold"])
		assert.Equal(t, 0.0, r["within_advance_window"])
	})

	assert.Len(t, b.RiskRecord(RiskProfile{}).Align(RiskColumns), 24)
}

func TestBooking_RecommendationRecord(t *testing.T) {
	b := Booking{Day: DefaultDateFeatures, Slot: DefaultTimeSlot, Capacity: 100, ExpectedAttendees: 50}
	r := b.RecommendationRecord(
		Candidate{AmenitiesCount: AmenitiesCount("chairs,sound system,projector"), FacilityEncoded: 2},
		PurposeKeywords("birthday party"),
		4, 7,
	)
	row := r.Align(RecommendationColumns)

	require.Len(t, row, 23)
	assert.Equal(t, 3.0, r["amenities_count"])
	assert.Equal(t, 1.0, r["celebration"])
	assert.Equal(t, 7.0, row[21])
	assert.Equal(t, 2.0, row[22])
}

func TestLagsFromHistory(t *testing.T) {
	assert.Equal(t, Lags{}, LagsFromHistory(nil))
	assert.Equal(t, Lags{Lag1: 5}, LagsFromHistory([]float64{1, 5}))

	counts := make([]float64, 30)
	for i := range counts {
		counts[i] = float64(i + 1)
	}
	l := LagsFromHistory(counts)
	assert.Equal(t, 30.0, l.Lag1)
	assert.Equal(t, 24.0, l.Lag7)
	assert.Equal(t, 1.0, l.Lag30)
	assert.Equal(t, 27.0, l.MA7)
	assert.Equal(t, 15.5, l.MA30)
}

func TestDemandRecord(t *testing.T) {
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := DemandRecord(4, day, Lags{Lag1: 2})

	assert.Equal(t, 2025.0, r["year"])
	assert.Equal(t, 2.0, r["day_of_week"])
	assert.Equal(t, 1.0, r["day_of_year"])
	assert.Equal(t, 1.0, r["week"])
	assert.Equal(t, 1.0, r["is_month_start"])
	assert.Equal(t, 1.0, r["is_holiday"])
	assert.Equal(t, 2.0, r["booking_count_lag1"])
	assert.Len(t, r.Align(DemandColumns), 16)
}

// ==========================
// Lenient Decoding Tests
// ==========================

func TestNumber_UnmarshalJSON(t *testing.T) {
	var in struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
		F Number `json:"f"`
	}
	err := json.Unmarshal([]byte(`{"a": 12, "b": "30", "c": true, "d": null, "e": "lots"}`), &in)
	require.NoError(t, err)

	assert.Equal(t, 12, in.A.IntOr(50))
	assert.Equal(t, 30, in.B.IntOr(50))
	assert.True(t, in.C.BoolOr(false))
	assert.Equal(t, 50, in.D.IntOr(50))
	assert.Equal(t, 50, in.E.IntOr(50))
	assert.Equal(t, 8.0, in.F.Or(8))

	assert.True(t, in.D.Null)
	assert.False(t, in.F.Null)
	assert.True(t, ParseNumber("null").Null)
}

func TestID_UnmarshalJSON(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[7, "12", 3.0, " 9 "]`), &ids))
	assert.Equal(t, []ID{"7", "12", "3", "9"}, ids)
	assert.Equal(t, 12, ids[1].Int())
	assert.Equal(t, 0, ID("abc").Int())
}
