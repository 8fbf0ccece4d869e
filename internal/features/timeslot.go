package features

import (
	"strconv"
	"strings"
)

// TimeSlot is a parsed reservation window in whole hours.
type TimeSlot struct {
	StartHour     int `json:"start_hour"`
	EndHour       int `json:"end_hour"`
	DurationHours int `json:"duration_hours"`
}

// DefaultTimeSlot is used whenever the text cannot be parsed.
var DefaultTimeSlot = TimeSlot{StartHour: 8, EndHour: 17, DurationHours: 9}

var namedWindows = []struct {
	token      string
	start, end int
}{
	{"Morning", 8, 12},
	{"Afternoon", 13, 17},
	{"Evening", 18, 22},
}

// ParseTimeSlot understands "HH:MM - HH:MM" ranges and the named periods
// Morning, Afternoon and Evening. It never fails.
func ParseTimeSlot(text string) TimeSlot {
	if strings.Contains(text, " - ") {
		parts := strings.Split(text, " - ")
		if len(parts) != 2 {
			return DefaultTimeSlot
		}
		start, err := leadingHour(parts[0])
		if err != nil {
			return DefaultTimeSlot
		}
		end, err := leadingHour(parts[1])
		if err != nil {
			return DefaultTimeSlot
		}
		return newSlot(start, end)
	}

	for _, w := range namedWindows {
		if strings.Contains(text, w.token) {
			return newSlot(w.start, w.end)
		}
	}
	return DefaultTimeSlot
}

func leadingHour(s string) (int, error) {
	hour := strings.SplitN(s, ":", 2)[0]
	return strconv.Atoi(strings.TrimSpace(hour))
}

func newSlot(start, end int) TimeSlot {
	return TimeSlot{StartHour: start, EndHour: end, DurationHours: end - start}
}
