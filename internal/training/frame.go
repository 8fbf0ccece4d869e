package training

import (
	"strconv"

	"facility-ml/internal/dataloader"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
)

// policy is the booking policy of one facility with defaults applied.
type policy struct {
	autoApprove       bool
	capacity          int
	maxDurationHours  float64
	capacityThreshold int
}

func policies(facilities []dataloader.Facility) map[int64]policy {
	out := make(map[int64]policy, len(facilities))
	for _, f := range facilities {
		p := policy{
			autoApprove:       f.AutoApprove,
			capacity:          features.ParseCapacity(f.Capacity),
			maxDurationHours:  features.DefaultMaxDurationHours,
			capacityThreshold: features.DefaultCapacityThreshold,
		}
		if f.MaxDurationHours.Valid {
			p.maxDurationHours = f.MaxDurationHours.Float64
		}
		if f.CapacityThreshold.Valid {
			p.capacityThreshold = int(f.CapacityThreshold.Int64)
		}
		out[f.ID] = p
	}
	return out
}

func defaultPolicy() policy {
	return policy{
		capacity:          features.DefaultCapacity,
		maxDurationHours:  features.DefaultMaxDurationHours,
		capacityThreshold: features.DefaultCapacityThreshold,
	}
}

// booking builds the shared reservation features. capacity is the facility
// capacity to compare attendees with.
func booking(r dataloader.Reservation, capacity int) features.Booking {
	return features.Booking{
		FacilityID:        int(r.FacilityID),
		Day:               features.ExtractDate(r.ReservationDate),
		Slot:              features.ParseTimeSlot(r.TimeSlot),
		Capacity:          capacity,
		ExpectedAttendees: r.Attendees(features.DefaultExpectedAttendees),
		IsCommercial:      r.IsCommercial,
	}
}

func bookingsPerUser(rs []dataloader.Reservation) map[int64]int {
	counts := make(map[int64]int)
	for _, r := range rs {
		counts[r.UserID]++
	}
	return counts
}

// dayKey identifies a facility and reservation date.
type dayKey struct {
	facility int64
	date     string
}

func keyOf(r dataloader.Reservation) dayKey {
	return dayKey{facility: r.FacilityID, date: r.ReservationDate.Format("2006-01-02")}
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// encoders fits one label encoder per column over the string ids.
func encoders(columns map[string][]string) ml.EncoderSet {
	set := make(ml.EncoderSet, len(columns))
	for name, values := range columns {
		set[name] = ml.FitLabelEncoder(values)
	}
	return set
}

func approvedOnly(rs []dataloader.Reservation) []dataloader.Reservation {
	out := make([]dataloader.Reservation, 0, len(rs))
	for _, r := range rs {
		if r.Status == "approved" {
			out = append(out, r)
		}
	}
	return out
}
