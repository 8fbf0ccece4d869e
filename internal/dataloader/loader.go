// Package dataloader reads the reservation system's tables for the trainers
// and the extract tool. A Loader is meant for one single-threaded batch job.
package dataloader

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"facility-ml/internal/common/config"
	"facility-ml/internal/common/database"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
)

// connectAttempts covers a database that is still accepting its first
// connections when a scheduled run starts.
const connectAttempts = 3

// Loader runs the read-only training queries over one connection pool.
type Loader struct {
	db     *sqlx.DB
	logger logger.Logger
	now    func() time.Time
}

func New(db *sqlx.DB, log logger.Logger) *Loader {
	return &Loader{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "dataloader"}),
		now:    time.Now,
	}
}

// Open connects to PostgreSQL and checks the connection. The caller must Close
// the loader.
func Open(ctx context.Context, cfg config.PostgresConfig, log logger.Logger) (*Loader, error) {
	pg, err := database.Connect(ctx, cfg, connectAttempts)
	if err != nil {
		return nil, stderrors.NewDatabaseConnectionFailedError(err)
	}
	return New(pg.GetDB(), log), nil
}

func (l *Loader) Close() error {
	return l.db.Close()
}

// LoadReservations returns reservations in r ordered by date and creation time.
// Zero bounds are open.
func (l *Loader) LoadReservations(ctx context.Context, r DateRange) ([]Reservation, error) {
	query, args := withRange(queryReservations, "r.reservation_date", r, nil)
	query += " ORDER BY r.reservation_date, r.created_at"

	var rows []Reservation
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("reservations", err)
	}
	l.loaded("reservations", len(rows))
	return rows, nil
}

func (l *Loader) LoadFacilities(ctx context.Context) ([]Facility, error) {
	var rows []Facility
	if err := l.db.SelectContext(ctx, &rows, queryFacilities); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("facilities", err)
	}
	l.loaded("facilities", len(rows))
	return rows, nil
}

func (l *Loader) LoadActiveUsers(ctx context.Context) ([]User, error) {
	var rows []User
	if err := l.db.SelectContext(ctx, &rows, queryActiveUsers); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("users", err)
	}
	l.loaded("users", len(rows))
	return rows, nil
}

// LoadHistoricalConflicts pairs approved or pending reservations that share a
// facility and day, looking back months*30 days. IsConflict is 1 only when both
// are approved.
func (l *Loader) LoadHistoricalConflicts(ctx context.Context, months int) ([]Conflict, error) {
	since := l.now().AddDate(0, 0, -months*30).Format("2006-01-02")

	var rows []Conflict
	if err := l.db.SelectContext(ctx, &rows, queryHistoricalConflicts, since); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("historical_conflicts", err)
	}
	l.loaded("historical_conflicts", len(rows))
	return rows, nil
}

// LoadUserVerification maps every user to their verification flag.
func (l *Loader) LoadUserVerification(ctx context.Context) (map[int64]bool, error) {
	var rows []struct {
		ID         int64 `db:"id"`
		IsVerified bool  `db:"is_verified"`
	}
	if err := l.db.SelectContext(ctx, &rows, queryUserVerification); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("user_verification", err)
	}
	verified := make(map[int64]bool, len(rows))
	for _, r := range rows {
		verified[r.ID] = r.IsVerified
	}
	return verified, nil
}

// LoadUserViolations counts high and critical violations per user over the
// last days.
func (l *Loader) LoadUserViolations(ctx context.Context, days int) (map[int64]int, error) {
	var rows []struct {
		UserID int64 `db:"user_id"`
		Count  int   `db:"violation_count"`
	}
	if err := l.db.SelectContext(ctx, &rows, queryUserViolations, days); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("user_violations", err)
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.Count
	}
	return counts, nil
}

// LoadPurposeTexts returns reservations with a purpose, newest first.
func (l *Loader) LoadPurposeTexts(ctx context.Context, r DateRange) ([]PurposeText, error) {
	query, args := withRange(queryPurposeTexts, "reservation_date", r, nil)
	query += " ORDER BY created_at DESC"

	var rows []PurposeText
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("purpose_texts", err)
	}
	l.loaded("purpose_texts", len(rows))
	return rows, nil
}

// LoadAuditEntries returns reservation audit entries created in r, newest first.
func (l *Loader) LoadAuditEntries(ctx context.Context, r DateRange) ([]AuditEntry, error) {
	query, args := withRange(queryAuditEntries, "created_at::date", r, nil)
	query += " ORDER BY created_at DESC"

	var rows []AuditEntry
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("audit_log", err)
	}
	l.loaded("audit_log", len(rows))
	return rows, nil
}

// LoadHistoryNotes returns non-empty reservation history notes created in r,
// newest first.
func (l *Loader) LoadHistoryNotes(ctx context.Context, r DateRange) ([]HistoryNote, error) {
	query, args := withRange(queryHistoryNotes, "rh.created_at::date", r, nil)
	query += " ORDER BY rh.created_at DESC"

	var rows []HistoryNote
	if err := l.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("reservation_history", err)
	}
	l.loaded("reservation_history", len(rows))
	return rows, nil
}

func (l *Loader) loaded(table string, n int) {
	l.logger.Info("loaded rows", map[string]interface{}{"table": table, "rows": n})
}

// withRange appends the bounds of r on column as numbered placeholders.
func withRange(query, column string, r DateRange, args []interface{}) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(query)
	if !r.Start.IsZero() {
		args = append(args, r.Start.Format("2006-01-02"))
		fmt.Fprintf(&b, " AND %s >= $%d", column, len(args))
	}
	if !r.End.IsZero() {
		args = append(args, r.End.Format("2006-01-02"))
		fmt.Fprintf(&b, " AND %s <= $%d", column, len(args))
	}
	return b.String(), args
}
