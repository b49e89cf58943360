package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
)

var ErrReportNotFound = fmt.Errorf("report %w", apperr.ErrNotFound)

// SafetyRepository abstracts safety report persistence.
type SafetyRepository interface {
	List(ctx context.Context, filter models.SafetyFilter) ([]models.SafetyReport, error)
	Get(ctx context.Context, id string) (models.SafetyReport, error)
	Create(ctx context.Context, report models.SafetyReport) (models.SafetyReport, error)
	Acknowledge(ctx context.Context, reportID, userID string) (int, error)
	UpdateStatus(ctx context.Context, id, status string) (models.SafetyReport, error)
	Update(ctx context.Context, id string, upd models.SafetyReportUpdate) (models.SafetyReport, error)
	ToggleVerified(ctx context.Context, id, verifierID string) (models.SafetyReport, error)
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment models.SafetyComment) (models.SafetyComment, error)
	ListComments(ctx context.Context, reportID string) ([]models.SafetyComment, error)
	Stats(ctx context.Context, neighborhoodID string, since time.Time) (models.SafetyStats, error)
}

// SafetyRepo is a sqlx implementation of SafetyRepository.
type SafetyRepo struct {
	db *sqlx.DB
}

// NewSafetyRepo constructs a SafetyRepo.
func NewSafetyRepo(db *sqlx.DB) *SafetyRepo {
	return &SafetyRepo{db: db}
}

const reportSelect = `SELECT r.id, r.title, r.description, r.type, r.severity, r.status, r.address,
        r.latitude, r.longitude, r.reporter_id, u.first_name || ' ' || u.last_name AS reporter_name,
        r.neighborhood_id, r.is_anonymous, r.is_verified, COALESCE(r.verified_by::text, '') AS verified_by, r.images, r.tags, r.acknowledged_count,
        r.police_reported, r.police_report_number, r.incident_at, r.created_at, r.updated_at
    FROM safety_reports r JOIN users u ON u.id = r.reporter_id`

// List returns reports of one neighborhood, newest first.
func (r *SafetyRepo) List(ctx context.Context, filter models.SafetyFilter) ([]models.SafetyReport, error) {
	query := reportSelect + ` WHERE r.neighborhood_id=$1`
	args := []any{filter.NeighborhoodID}
	for column, value := range map[string]string{"r.type": filter.Type, "r.severity": filter.Severity, "r.status": filter.Status} {
		if value == "" {
			continue
		}
		args = append(args, value)
		query += fmt.Sprintf(` AND %s=$%d`, column, len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var reports []models.SafetyReport
	err := r.db.SelectContext(ctx, &reports, query, args...)
	return reports, err
}

// Get fetches a report by id.
func (r *SafetyRepo) Get(ctx context.Context, id string) (models.SafetyReport, error) {
	var report models.SafetyReport
	err := r.db.GetContext(ctx, &report, reportSelect+` WHERE r.id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SafetyReport{}, ErrReportNotFound
	}
	return report, err
}

// Create stores a report.
func (r *SafetyRepo) Create(ctx context.Context, report models.SafetyReport) (models.SafetyReport, error) {
	if report.Images == nil {
		report.Images = pq.StringArray{}
	}
	if report.Tags == nil {
		report.Tags = pq.StringArray{}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO safety_reports
            (id, title, description, type, severity, address, latitude, longitude, reporter_id, neighborhood_id,
             is_anonymous, images, tags, police_reported, police_report_number, incident_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		report.ID, report.Title, report.Description, report.Type, report.Severity, report.Address,
		report.Latitude, report.Longitude, report.ReporterID, report.NeighborhoodID, report.IsAnonymous,
		report.Images, report.Tags, report.PoliceReported, report.PoliceReportNumber, report.IncidentAt)
	if err != nil {
		return models.SafetyReport{}, err
	}
	return r.Get(ctx, report.ID)
}

// Acknowledge records that the user has seen the report. Repeating it is a no-op.
func (r *SafetyRepo) Acknowledge(ctx context.Context, reportID, userID string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO safety_acknowledgements (report_id, user_id) VALUES ($1, $2)
        ON CONFLICT (report_id, user_id) DO NOTHING`, reportID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, ErrReportNotFound
		}
		return 0, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	var count int
	err = tx.QueryRowxContext(ctx, `UPDATE safety_reports SET acknowledged_count = acknowledged_count + $2
        WHERE id=$1 RETURNING acknowledged_count`, reportID, inserted).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrReportNotFound
	}
	if err != nil {
		return 0, err
	}
	return count, tx.Commit()
}

// UpdateStatus sets the report status.
func (r *SafetyRepo) UpdateStatus(ctx context.Context, id, status string) (models.SafetyReport, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE safety_reports SET status=$2, updated_at = NOW() WHERE id=$1`, id, status)
	if err != nil {
		return models.SafetyReport{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.SafetyReport{}, ErrReportNotFound
	}
	return r.Get(ctx, id)
}

// Update applies the non-nil fields of upd.
func (r *SafetyRepo) Update(ctx context.Context, id string, upd models.SafetyReportUpdate) (models.SafetyReport, error) {
	var tags any
	if upd.Tags != nil {
		tags = pq.StringArray(upd.Tags)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE safety_reports SET
            title = COALESCE($2, title),
            description = COALESCE($3, description),
            status = COALESCE($4, status),
            tags = COALESCE($5, tags),
            police_reported = COALESCE($6, police_reported),
            police_report_number = COALESCE($7, police_report_number),
            updated_at = NOW()
        WHERE id=$1`, id, upd.Title, upd.Description, upd.Status, tags, upd.PoliceReported, upd.PoliceReportNumber)
	if err != nil {
		return models.SafetyReport{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.SafetyReport{}, ErrReportNotFound
	}
	return r.Get(ctx, id)
}

// ToggleVerified flips the verified flag. Verifying records verifierID,
// unverifying clears it.
func (r *SafetyRepo) ToggleVerified(ctx context.Context, id, verifierID string) (models.SafetyReport, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE safety_reports SET
            is_verified = NOT is_verified,
            verified_by = CASE WHEN is_verified THEN NULL ELSE $2::uuid END,
            updated_at = NOW()
        WHERE id=$1`, id, verifierID)
	if err != nil {
		return models.SafetyReport{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.SafetyReport{}, ErrReportNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a report with its acknowledgements and comments.
func (r *SafetyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM safety_reports WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrReportNotFound
	}
	return nil
}

// AddComment stores a comment on a report.
func (r *SafetyRepo) AddComment(ctx context.Context, comment models.SafetyComment) (models.SafetyComment, error) {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO safety_comments (id, report_id, author_id, content, is_anonymous)
        VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		comment.ID, comment.ReportID, comment.AuthorID, comment.Content, comment.IsAnonymous).Scan(&comment.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return models.SafetyComment{}, ErrReportNotFound
		}
		return models.SafetyComment{}, err
	}
	return comment, nil
}

// ListComments returns a report's comments, oldest first.
func (r *SafetyRepo) ListComments(ctx context.Context, reportID string) ([]models.SafetyComment, error) {
	var comments []models.SafetyComment
	err := r.db.SelectContext(ctx, &comments, `SELECT c.id, c.report_id, c.author_id,
            u.first_name || ' ' || u.last_name AS author_name, c.content, c.is_anonymous, c.created_at
        FROM safety_comments c JOIN users u ON u.id = c.author_id
        WHERE c.report_id=$1 ORDER BY c.created_at ASC`, reportID)
	return comments, err
}

// Stats counts the neighborhood's reports created since the given time,
// broken down by type, severity and status.
func (r *SafetyRepo) Stats(ctx context.Context, neighborhoodID string, since time.Time) (models.SafetyStats, error) {
	var rows []struct {
		Type     string `db:"type"`
		Severity string `db:"severity"`
		Status   string `db:"status"`
		Count    int    `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT type, severity, status, COUNT(*) AS count
        FROM safety_reports WHERE neighborhood_id=$1 AND created_at >= $2
        GROUP BY type, severity, status`, neighborhoodID, since)
	if err != nil {
		return models.SafetyStats{}, err
	}

	stats := models.SafetyStats{
		ByType:     map[string]int{},
		BySeverity: map[string]int{},
		ByStatus:   map[string]int{},
	}
	for _, row := range rows {
		stats.Total += row.Count
		stats.ByType[row.Type] += row.Count
		stats.BySeverity[row.Severity] += row.Count
		stats.ByStatus[row.Status] += row.Count
	}
	return stats, nil
}
