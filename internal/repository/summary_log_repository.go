package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wastetrack/epr/internal/domain"
	"github.com/wastetrack/epr/internal/spreadsheet"
	"github.com/wastetrack/epr/internal/validation"
)

type summaryLogRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryLogRepository creates a Postgres-backed summary log store.
func NewSummaryLogRepository(pool *pgxpool.Pool) SummaryLogRepository {
	return &summaryLogRepository{pool: pool}
}

func (r *summaryLogRepository) Insert(ctx context.Context, log *domain.SummaryLog) error {
	file, err := json.Marshal(log.File)
	if err != nil {
		return fmt.Errorf("marshal summary log file: %w", err)
	}
	meta, err := json.Marshal(log.Meta)
	if err != nil {
		return fmt.Errorf("marshal summary log meta: %w", err)
	}
	issues, err := json.Marshal(log.Issues)
	if err != nil {
		return fmt.Errorf("marshal summary log issues: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO summary_logs (id, organisation_id, registration_id, file, status, meta, issues, failure_reason, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		log.ID, log.OrganisationID, log.RegistrationID, file, log.Status,
		meta, issues, log.FailureReason, log.Version, log.CreatedAt, log.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert summary log: %w", err)
	}
	return nil
}

func (r *summaryLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SummaryLog, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, organisation_id, registration_id, file, status, meta, issues, failure_reason, version, created_at, updated_at
		FROM summary_logs WHERE id = $1`, id)

	log, err := scanSummaryLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find summary log: %w", err)
	}
	return log, nil
}

func (r *summaryLogRepository) FindLatestByRegistration(ctx context.Context, registrationID uuid.UUID) (*domain.SummaryLog, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, organisation_id, registration_id, file, status, meta, issues, failure_reason, version, created_at, updated_at
		FROM summary_logs WHERE registration_id = $1
		ORDER BY created_at DESC LIMIT 1`, registrationID)

	log, err := scanSummaryLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find latest summary log: %w", err)
	}
	return log, nil
}

// Update persists the summary log with a compare-and-swap on its version.
// The stored row must still be at expectedVersion; the log is written back
// with expectedVersion+1. A mismatch means another job got there first.
func (r *summaryLogRepository) Update(ctx context.Context, log *domain.SummaryLog, expectedVersion int64) error {
	file, err := json.Marshal(log.File)
	if err != nil {
		return fmt.Errorf("marshal summary log file: %w", err)
	}
	meta, err := json.Marshal(log.Meta)
	if err != nil {
		return fmt.Errorf("marshal summary log meta: %w", err)
	}
	issues, err := json.Marshal(log.Issues)
	if err != nil {
		return fmt.Errorf("marshal summary log issues: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE summary_logs
		SET file = $2, status = $3, meta = $4, issues = $5, failure_reason = $6,
		    version = $7, updated_at = $8
		WHERE id = $1 AND version = $9`,
		log.ID, file, log.Status, meta, issues, log.FailureReason,
		expectedVersion+1, log.UpdatedAt, expectedVersion)
	if err != nil {
		return fmt.Errorf("update summary log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	log.Version = expectedVersion + 1
	return nil
}

func scanSummaryLog(row pgx.Row) (*domain.SummaryLog, error) {
	var (
		log        domain.SummaryLog
		fileJSON   []byte
		metaJSON   []byte
		issuesJSON []byte
	)
	err := row.Scan(&log.ID, &log.OrganisationID, &log.RegistrationID, &fileJSON,
		&log.Status, &metaJSON, &issuesJSON, &log.FailureReason, &log.Version,
		&log.CreatedAt, &log.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fileJSON, &log.File); err != nil {
		return nil, fmt.Errorf("unmarshal summary log file: %w", err)
	}
	if len(metaJSON) > 0 {
		var meta map[string]spreadsheet.MetaField
		if err := json.Unmarshal(metaJSON, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal summary log meta: %w", err)
		}
		log.Meta = meta
	}
	if len(issuesJSON) > 0 {
		var issues []validation.Issue
		if err := json.Unmarshal(issuesJSON, &issues); err != nil {
			return nil, fmt.Errorf("unmarshal summary log issues: %w", err)
		}
		log.Issues = issues
	}
	return &log, nil
}
