package dataloader

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Export file names under the data directory.
const (
	ReservationsCSV       = "reservations.csv"
	FacilitiesCSV         = "facilities.csv"
	UsersCSV              = "users.csv"
	ConflictsCSV          = "conflicts.csv"
	PurposesCSV           = "training_purposes_from_reservations.csv"
	PurposesFullCSV       = "training_purposes_from_reservations_full.csv"
	AuditPurposesCSV      = "training_purposes_from_audit_logs.csv"
	HistoryNotesCSV       = "training_data_from_history.csv"
	auditDetailsMinLength = 50
)

// WriteCSV writes header and rows to dir/name, creating dir when needed.
func WriteCSV(dir, name string, header []string, rows [][]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}

func ReservationRows(rs []Reservation) ([]string, [][]string) {
	header := []string{
		"id", "user_id", "facility_id", "reservation_date", "time_slot", "purpose", "status",
		"expected_attendees", "is_commercial", "auto_approved", "created_at", "updated_at",
		"facility_name", "facility_capacity", "facility_amenities", "facility_status",
		"user_name", "user_role",
	}
	rows := make([][]string, len(rs))
	for i, r := range rs {
		rows[i] = []string{
			id(r.ID), id(r.UserID), id(r.FacilityID), date(r.ReservationDate), r.TimeSlot, r.Purpose, r.Status,
			nullInt(r.ExpectedAttendees), strconv.FormatBool(r.IsCommercial), strconv.FormatBool(r.AutoApproved),
			stamp(r.CreatedAt), nullTime(r.UpdatedAt),
			r.FacilityName, r.FacilityCapacity, r.FacilityAmenities, r.FacilityStatus,
			r.UserName, r.UserRole,
		}
	}
	return header, rows
}

func FacilityRows(fs []Facility) ([]string, [][]string) {
	header := []string{
		"id", "name", "description", "capacity", "amenities", "location", "latitude", "longitude",
		"status", "auto_approve", "capacity_threshold", "max_duration_hours", "created_at", "updated_at",
	}
	rows := make([][]string, len(fs))
	for i, f := range fs {
		rows[i] = []string{
			id(f.ID), f.Name, f.Description, f.Capacity, f.Amenities, f.Location,
			nullFloat(f.Latitude), nullFloat(f.Longitude), f.Status, strconv.FormatBool(f.AutoApprove),
			nullInt(f.CapacityThreshold), nullFloat(f.MaxDurationHours), stamp(f.CreatedAt), nullTime(f.UpdatedAt),
		}
	}
	return header, rows
}

func UserRows(us []User) ([]string, [][]string) {
	header := []string{"id", "name", "email", "role", "status", "latitude", "longitude", "created_at"}
	rows := make([][]string, len(us))
	for i, u := range us {
		rows[i] = []string{
			id(u.ID), u.Name, u.Email, u.Role, u.Status,
			nullFloat(u.Latitude), nullFloat(u.Longitude), stamp(u.CreatedAt),
		}
	}
	return header, rows
}

func ConflictRows(cs []Conflict) ([]string, [][]string) {
	header := []string{
		"reservation1_id", "facility_id", "reservation_date", "time_slot1", "status1", "user1_id",
		"reservation2_id", "time_slot2", "status2", "user2_id", "is_conflict",
	}
	rows := make([][]string, len(cs))
	for i, c := range cs {
		rows[i] = []string{
			id(c.Reservation1ID), id(c.FacilityID), date(c.ReservationDate), c.TimeSlot1, c.Status1, id(c.User1ID),
			id(c.Reservation2ID), c.TimeSlot2, c.Status2, id(c.User2ID), strconv.Itoa(c.IsConflict),
		}
	}
	return header, rows
}

// PurposeRows is the (purpose, status) training file. Blank purposes are dropped.
func PurposeRows(ps []PurposeText) ([]string, [][]string) {
	var rows [][]string
	for _, p := range ps {
		if strings.TrimSpace(p.Purpose) == "" {
			continue
		}
		rows = append(rows, []string{p.Purpose, p.Status})
	}
	return []string{"purpose", "status"}, rows
}

func PurposeFullRows(ps []PurposeText) ([]string, [][]string) {
	header := []string{"id", "purpose", "status", "reservation_date", "created_at", "facility_id", "user_id"}
	rows := make([][]string, len(ps))
	for i, p := range ps {
		rows[i] = []string{
			id(p.ID), p.Purpose, p.Status, date(p.ReservationDate), stamp(p.CreatedAt), id(p.FacilityID), id(p.UserID),
		}
	}
	return header, rows
}

// AuditPurposeRows keeps audit entries whose details mention a purpose or are
// long enough to carry one.
func AuditPurposeRows(es []AuditEntry) ([]string, [][]string) {
	var rows [][]string
	for _, e := range es {
		if !strings.Contains(strings.ToLower(e.Details), "purpose") && len(e.Details) <= auditDetailsMinLength {
			continue
		}
		rows = append(rows, []string{"audit_log", e.Details, e.Action, stamp(e.CreatedAt)})
	}
	return []string{"source", "text", "action", "created_at"}, rows
}

func HistoryNoteRows(ns []HistoryNote) ([]string, [][]string) {
	header := []string{"id", "reservation_id", "status", "note", "created_at", "purpose", "reservation_status"}
	rows := make([][]string, len(ns))
	for i, n := range ns {
		rows[i] = []string{
			id(n.ID), id(n.ReservationID), n.Status, n.Note, stamp(n.CreatedAt), n.Purpose, n.ReservationStatus,
		}
	}
	return header, rows
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func date(t time.Time) string { return t.Format("2006-01-02") }

func stamp(t time.Time) string { return t.Format(time.RFC3339) }

func nullInt(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

func nullTime(v sql.NullTime) string {
	if !v.Valid {
		return ""
	}
	return stamp(v.Time)
}
