package dataloader

import (
	"database/sql"
	"time"
)

// Reservation is one booking joined with its facility and requester.
type Reservation struct {
	ID                int64         `db:"id"`
	UserID            int64         `db:"user_id"`
	FacilityID        int64         `db:"facility_id"`
	ReservationDate   time.Time     `db:"reservation_date"`
	TimeSlot          string        `db:"time_slot"`
	Purpose           string        `db:"purpose"`
	Status            string        `db:"status"`
	ExpectedAttendees sql.NullInt64 `db:"expected_attendees"`
	IsCommercial      bool          `db:"is_commercial"`
	AutoApproved      bool          `db:"auto_approved"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         sql.NullTime  `db:"updated_at"`
	FacilityName      string        `db:"facility_name"`
	FacilityCapacity  string        `db:"facility_capacity"`
	FacilityAmenities string        `db:"facility_amenities"`
	FacilityStatus    string        `db:"facility_status"`
	UserName          string        `db:"user_name"`
	UserRole          string        `db:"user_role"`
}

// Attendees returns the expected attendee count, or def when it was not recorded.
func (r Reservation) Attendees(def int) int {
	if !r.ExpectedAttendees.Valid {
		return def
	}
	return int(r.ExpectedAttendees.Int64)
}

// Facility carries the booking policy trainers need.
type Facility struct {
	ID                int64           `db:"id"`
	Name              string          `db:"name"`
	Description       string          `db:"description"`
	Capacity          string          `db:"capacity"`
	Amenities         string          `db:"amenities"`
	Location          string          `db:"location"`
	Latitude          sql.NullFloat64 `db:"latitude"`
	Longitude         sql.NullFloat64 `db:"longitude"`
	Status            string          `db:"status"`
	AutoApprove       bool            `db:"auto_approve"`
	CapacityThreshold sql.NullInt64   `db:"capacity_threshold"`
	MaxDurationHours  sql.NullFloat64 `db:"max_duration_hours"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         sql.NullTime    `db:"updated_at"`
}

type User struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Email     string          `db:"email"`
	Role      string          `db:"role"`
	Status    string          `db:"status"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
	CreatedAt time.Time       `db:"created_at"`
}

// Conflict is a pair of reservations for the same facility and day.
type Conflict struct {
	Reservation1ID  int64     `db:"reservation1_id"`
	FacilityID      int64     `db:"facility_id"`
	ReservationDate time.Time `db:"reservation_date"`
	TimeSlot1       string    `db:"time_slot1"`
	Status1         string    `db:"status1"`
	User1ID         int64     `db:"user1_id"`
	Reservation2ID  int64     `db:"reservation2_id"`
	TimeSlot2       string    `db:"time_slot2"`
	Status2         string    `db:"status2"`
	User2ID         int64     `db:"user2_id"`
	IsConflict      int       `db:"is_conflict"`
}

// PurposeText is a reservation purpose with the outcome of its request.
type PurposeText struct {
	ID              int64     `db:"id"`
	Purpose         string    `db:"purpose"`
	Status          string    `db:"status"`
	ReservationDate time.Time `db:"reservation_date"`
	CreatedAt       time.Time `db:"created_at"`
	FacilityID      int64     `db:"facility_id"`
	UserID          int64     `db:"user_id"`
}

type AuditEntry struct {
	ID        int64         `db:"id"`
	Action    string        `db:"action"`
	Module    string        `db:"module"`
	Details   string        `db:"details"`
	CreatedAt time.Time     `db:"created_at"`
	UserID    sql.NullInt64 `db:"user_id"`
}

// HistoryNote is a status change note joined with its reservation.
type HistoryNote struct {
	ID                int64     `db:"id"`
	ReservationID     int64     `db:"reservation_id"`
	Status            string    `db:"status"`
	Note              string    `db:"note"`
	CreatedAt         time.Time `db:"created_at"`
	Purpose           string    `db:"purpose"`
	ReservationStatus string    `db:"reservation_status"`
}

// DateRange bounds a query by day. A zero end is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// LastDays is the range ending today and starting days ago.
func LastDays(now time.Time, days int) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -days), End: now}
}
