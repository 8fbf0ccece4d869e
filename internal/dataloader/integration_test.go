//go:build integration

package dataloader

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"facility-ml/internal/common/config"
	"facility-ml/internal/common/logger"
)

// setupTestDB starts PostgreSQL, applies testdata/schema.sql and opens a Loader.
func setupTestDB(t *testing.T) *Loader {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { postgres.Terminate(ctx) })

	host, err := postgres.Host(ctx)
	require.NoError(t, err)
	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	cfg := config.PostgresConfig{
		Host:           host,
		Port:           portNum,
		Database:       "testdb",
		User:           "postgres",
		Password:       "password",
		MaxConnections: 2,
		MaxIdle:        1,
		SSLMode:        "disable",
	}

	var l *Loader
	for i := 0; i < 30; i++ {
		if l, err = Open(ctx, cfg, logger.NewTestLogger(t)); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err, "open loader")
	t.Cleanup(func() { l.Close() })

	schema, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)
	_, err = l.db.ExecContext(ctx, string(schema))
	require.NoError(t, err, "apply schema")
	return l
}

func TestLoader_Integration(t *testing.T) {
	l := setupTestDB(t)
	ctx := context.Background()

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO users (name, email, is_verified) VALUES
			('Ana', 'ana@example.com', TRUE),
			('Ben', 'ben@example.com', NULL);
		INSERT INTO facilities (name, capacity, amenities, auto_approve, max_duration_hours) VALUES
			('Covered Court', '200', 'lights,stage', TRUE, 8);
		INSERT INTO reservations (user_id, facility_id, reservation_date, time_slot, purpose, status, expected_attendees) VALUES
			(1, 1, CURRENT_DATE, '08:00 - 12:00', 'Zumba class', 'approved', 40),
			(2, 1, CURRENT_DATE, '08:00 - 12:00', 'Basketball league', 'approved', NULL),
			(2, 1, CURRENT_DATE - 400, '13:00 - 17:00', NULL, 'rejected', NULL);
		INSERT INTO reservation_history (reservation_id, status, note) VALUES
			(1, 'approved', 'ok'),
			(2, 'approved', '');
		INSERT INTO user_violations (user_id, severity) VALUES
			(2, 'high'),
			(2, 'low');
		INSERT INTO audit_log (user_id, action, module, details) VALUES
			(1, 'Create reservation', 'Reservations', 'Purpose: Zumba class'),
			(1, 'Login', 'Auth', 'ok');
	`)
	require.NoError(t, err)

	recent := LastDays(time.Now(), 30)

	reservations, err := l.LoadReservations(ctx, recent)
	require.NoError(t, err)
	require.Len(t, reservations, 2)
	assert.Equal(t, "Covered Court", reservations[0].FacilityName)
	assert.Equal(t, 40, reservations[0].Attendees(50))
	assert.Equal(t, 50, reservations[1].Attendees(50))

	all, err := l.LoadReservations(ctx, DateRange{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	facilities, err := l.LoadFacilities(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 1)
	assert.False(t, facilities[0].CapacityThreshold.Valid)

	conflicts, err := l.LoadHistoricalConflicts(ctx, 6)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, 1, conflicts[0].IsConflict)

	verified, err := l.LoadUserVerification(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true, 2: true}, verified)

	violations, err := l.LoadUserViolations(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{2: 1}, violations)

	purposes, err := l.LoadPurposeTexts(ctx, DateRange{})
	require.NoError(t, err)
	assert.Len(t, purposes, 2)

	audit, err := l.LoadAuditEntries(ctx, recent)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "Reservations", audit[0].Module)

	notes, err := l.LoadHistoryNotes(ctx, recent)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Zumba class", notes[0].Purpose)

	users, err := l.LoadActiveUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
