// Package features holds the feature engineering shared by training and inference.
package features

import (
	"fmt"
	"strings"
	"time"
)

// National holidays and local barangay events, as month-day strings.
var (
	nationalHolidays = []string{
		"01-01", "02-25", "04-09", "06-12", "08-21", "08-26",
		"11-01", "11-02", "11-30", "12-25", "12-30",
	}
	localEvents = []string{"09-08", "02-11"}
)

var holidaySet = func() map[string]bool {
	set := make(map[string]bool, len(nationalHolidays)+len(localEvents))
	for _, md := range nationalHolidays {
		set[md] = true
	}
	for _, md := range localEvents {
		set[md] = true
	}
	return set
}()

// HolidayMonthDays lists every month-day treated as a holiday.
func HolidayMonthDays() []string {
	out := make([]string, 0, len(nationalHolidays)+len(localEvents))
	out = append(out, nationalHolidays...)
	return append(out, localEvents...)
}

// IsHoliday returns 1 when date falls on a listed month-day in any year.
// It accepts time.Time, *time.Time or a date string; anything else is 0.
func IsHoliday(date interface{}) int {
	var md string
	switch v := date.(type) {
	case time.Time:
		if v.IsZero() {
			return 0
		}
		md = v.Format("01-02")
	case *time.Time:
		if v == nil || v.IsZero() {
			return 0
		}
		md = v.Format("01-02")
	case string:
		md = monthDayFromString(v)
	default:
		return 0
	}
	if holidaySet[md] {
		return 1
	}
	return 0
}

func monthDayFromString(s string) string {
	s = strings.TrimSpace(s)
	if t, err := ParseDate(s); err == nil {
		return t.Format("01-02")
	}
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return ""
	}
	return parts[1] + "-" + parts[2]
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
}

// ParseDate accepts ISO dates and the common timestamp layouts. The result is
// the calendar day at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// DateFeatures are the calendar columns shared by every reservation model.
type DateFeatures struct {
	DayOfWeek int // Monday is 0
	Month     int
	IsWeekend int
	IsHoliday int
}

// ExtractDate derives the calendar columns of t.
func ExtractDate(t time.Time) DateFeatures {
	dow := DayOfWeek(t)
	weekend := 0
	if dow >= 5 {
		weekend = 1
	}
	return DateFeatures{
		DayOfWeek: dow,
		Month:     int(t.Month()),
		IsWeekend: weekend,
		IsHoliday: IsHoliday(t),
	}
}

// DayOfWeek numbers days from Monday=0 to Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
