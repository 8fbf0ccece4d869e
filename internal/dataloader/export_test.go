package dataloader

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	header, rows := ReservationRows([]Reservation{{
		ID: 1, UserID: 7, FacilityID: 3, ReservationDate: day("2025-02-01"),
		TimeSlot: "08:00 - 12:00", Purpose: "Zumba, evening class", Status: "approved",
		ExpectedAttendees: sql.NullInt64{Int64: 30, Valid: true}, CreatedAt: testNow,
	}})
	require.NoError(t, WriteCSV(dir, ReservationsCSV, header, rows))

	records := readCSV(t, filepath.Join(dir, ReservationsCSV))
	require.Len(t, records, 2)
	assert.Equal(t, "reservation_date", records[0][3])
	assert.Equal(t, "2025-02-01", records[1][3])
	assert.Equal(t, "Zumba, evening class", records[1][5])
	assert.Equal(t, "30", records[1][7])
	assert.Equal(t, "", records[1][11])
}

func TestPurposeRows_DropsBlank(t *testing.T) {
	header, rows := PurposeRows([]PurposeText{
		{Purpose: "Birthday party", Status: "approved"},
		{Purpose: "   ", Status: "pending"},
	})
	assert.Equal(t, []string{"purpose", "status"}, header)
	assert.Equal(t, [][]string{{"Birthday party", "approved"}}, rows)
}

func TestAuditPurposeRows_Filter(t *testing.T) {
	_, rows := AuditPurposeRows([]AuditEntry{
		{Action: "Create reservation", Details: "Purpose: Zumba", CreatedAt: testNow},
		{Action: "Update reservation", Details: "short", CreatedAt: testNow},
		{Action: "Create booking", Details: strings.Repeat("x", 51), CreatedAt: testNow},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "audit_log", rows[0][0])
	assert.Equal(t, "Purpose: Zumba", rows[0][1])
	assert.Equal(t, "Create booking", rows[1][2])
}

func TestFacilityRows_NullPolicy(t *testing.T) {
	_, rows := FacilityRows([]Facility{{ID: 3, Name: "Covered Court", MaxDurationHours: sql.NullFloat64{Float64: 4.5, Valid: true}}})
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0][10])
	assert.Equal(t, "4.5", rows[0][11])
}
