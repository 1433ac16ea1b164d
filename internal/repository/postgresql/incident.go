package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/incident"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const incidentColumns = `id, reported_by, user_email, title, description, location, severity, status,
	file_path, file_url, file_name, file_size, file_type, created_at, updated_at`

type incidentRepositoryImpl struct {
	db *database.DB
}

func NewIncidentRepository(db *database.DB) incident.IncidentRepository {
	return &incidentRepositoryImpl{db: db}
}

func scanIncident(row pgx.Row) (incident.Report, error) {
	var r incident.Report
	var severity, status string
	err := row.Scan(
		&r.ID, &r.ReportedBy, &r.UserEmail, &r.Title, &r.Description, &r.Location,
		&severity, &status,
		&r.FilePath, &r.FileURL, &r.FileName, &r.FileSize, &r.FileType,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return incident.Report{}, err
	}
	r.Severity = incident.Severity(severity)
	r.Status = incident.Status(status)
	return r, nil
}

// Create implements incident.IncidentRepository.
func (r *incidentRepositoryImpl) Create(ctx context.Context, report incident.Report) (incident.Report, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO incident_reports (
			reported_by, user_email, title, description, location, severity, status,
			file_path, file_url, file_name, file_size, file_type
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + incidentColumns

	created, err := scanIncident(q.QueryRow(ctx, query,
		report.ReportedBy, report.UserEmail, report.Title, report.Description, report.Location,
		string(report.Severity), string(report.Status),
		report.FilePath, report.FileURL, report.FileName, report.FileSize, report.FileType,
	))
	if err != nil {
		return incident.Report{}, fmt.Errorf("failed to create incident report: %w", err)
	}
	return created, nil
}

// GetByID implements incident.IncidentRepository.
func (r *incidentRepositoryImpl) GetByID(ctx context.Context, id string) (incident.Report, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + incidentColumns + ` FROM incident_reports WHERE id = $1`
	report, err := scanIncident(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incident.Report{}, incident.ErrIncidentNotFound
		}
		return incident.Report{}, fmt.Errorf("failed to get incident report: %w", err)
	}
	return report, nil
}

// List implements incident.IncidentRepository.
func (r *incidentRepositoryImpl) List(ctx context.Context, filter incident.IncidentFilter) ([]incident.Report, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.ReportedBy != nil {
		whereClause += fmt.Sprintf(" AND reported_by = $%d", argIndex)
		args = append(args, *filter.ReportedBy)
		argIndex++
	}
	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, strings.ToLower(*filter.Status))
		argIndex++
	}
	if filter.Severity != nil {
		whereClause += fmt.Sprintf(" AND severity = $%d", argIndex)
		args = append(args, strings.ToLower(*filter.Severity))
		argIndex++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM incident_reports ` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count incident reports: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM incident_reports
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, incidentColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incident reports: %w", err)
	}
	defer rows.Close()

	var reports []incident.Report
	for rows.Next() {
		report, err := scanIncident(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan incident report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, total, rows.Err()
}

// Update implements incident.IncidentRepository.
func (r *incidentRepositoryImpl) Update(ctx context.Context, id string, req incident.UpdateIncidentRequest) (incident.Report, error) {
	q := GetQuerier(ctx, r.db)

	updates := []string{}
	args := []interface{}{}
	argIdx := 1

	if req.Title != nil {
		updates = append(updates, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *req.Title)
		argIdx++
	}
	if req.Description != nil {
		updates = append(updates, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *req.Description)
		argIdx++
	}
	if req.Location != nil {
		updates = append(updates, fmt.Sprintf("location = $%d", argIdx))
		args = append(args, *req.Location)
		argIdx++
	}
	if req.Severity != nil {
		updates = append(updates, fmt.Sprintf("severity = $%d", argIdx))
		args = append(args, *req.Severity)
		argIdx++
	}
	if req.Status != nil {
		updates = append(updates, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *req.Status)
		argIdx++
	}

	if len(updates) == 0 {
		return incident.Report{}, incident.ErrNothingToUpdate
	}

	updates = append(updates, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE incident_reports
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(updates, ", "), argIdx, incidentColumns)

	updated, err := scanIncident(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incident.Report{}, incident.ErrIncidentNotFound
		}
		return incident.Report{}, fmt.Errorf("failed to update incident report: %w", err)
	}
	return updated, nil
}

// Delete implements incident.IncidentRepository.
func (r *incidentRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM incident_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return incident.ErrIncidentNotFound
	}
	return nil
}

// FindLatestInWindow implements incident.IncidentRepository.
func (r *incidentRepositoryImpl) FindLatestInWindow(ctx context.Context, userID, email string, from, to time.Time) (*incident.Report, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + incidentColumns + `
		FROM incident_reports
		WHERE (reported_by = $1 OR lower(user_email) = lower($2))
		  AND created_at BETWEEN $3 AND $4
		ORDER BY created_at DESC
		LIMIT 1
	`

	report, err := scanIncident(q.QueryRow(ctx, query, userID, email, from, to))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find incident report: %w", err)
	}
	return &report, nil
}
