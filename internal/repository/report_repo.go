package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"chargesure/internal/models"
)

// StatusReport is one row of the append-only status-change audit trail.
type StatusReport struct {
	ID         string               `json:"id"`
	ChargerID  string               `json:"charger_id"`
	OldStatus  models.ChargerStatus `json:"old_status"`
	NewStatus  models.ChargerStatus `json:"new_status"`
	ReportedBy string               `json:"reported_by,omitempty"`
	Notes      string               `json:"notes,omitempty"`
	ReportedAt time.Time            `json:"reported_at"`
}

// ReportRepository stores charger status-change reports.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository returns repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Append records a status change.
func (r *ReportRepository) Append(ctx context.Context, report StatusReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.ReportedAt.IsZero() {
		report.ReportedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO charger_status_updates (id, charger_id, old_status, new_status, reported_by, notes, reported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, report.ID, report.ChargerID, string(report.OldStatus), string(report.NewStatus),
		report.ReportedBy, report.Notes, report.ReportedAt.UTC())
	return err
}

// Recent returns the newest reports, optionally scoped to one charger.
func (r *ReportRepository) Recent(ctx context.Context, chargerID string, limit int) ([]StatusReport, error) {
	if limit <= 0 {
		limit = 5
	}

	const base = `
		SELECT id, charger_id, old_status, new_status, reported_by, notes, reported_at
		FROM charger_status_updates`

	var (
		rows *sql.Rows
		err  error
	)
	if chargerID != "" {
		rows, err = r.db.QueryContext(ctx, base+` WHERE charger_id = $1 ORDER BY reported_at DESC LIMIT $2`, chargerID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, base+` ORDER BY reported_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []StatusReport
	for rows.Next() {
		var (
			report     StatusReport
			oldStatus  string
			newStatus  string
			reportedBy sql.NullString
			notes      sql.NullString
		)
		if err := rows.Scan(&report.ID, &report.ChargerID, &oldStatus, &newStatus,
			&reportedBy, &notes, &report.ReportedAt); err != nil {
			return nil, err
		}
		report.OldStatus = models.ParseChargerStatus(oldStatus)
		report.NewStatus = models.ParseChargerStatus(newStatus)
		report.ReportedBy = reportedBy.String
		report.Notes = notes.String
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
