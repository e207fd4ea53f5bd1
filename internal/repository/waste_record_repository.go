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
)

type wasteRecordRepository struct {
	pool *pgxpool.Pool
}

// NewWasteRecordRepository creates a Postgres-backed waste record store.
// Version history is stored as a jsonb document on the record row; versions
// are only ever appended, so the document only grows.
func NewWasteRecordRepository(pool *pgxpool.Pool) WasteRecordRepository {
	return &wasteRecordRepository{pool: pool}
}

func (r *wasteRecordRepository) FindByKey(ctx context.Context, registrationID uuid.UUID, recordType domain.WasteRecordType, rowID string) (*domain.WasteRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, registration_id, type, row_id, versions
		FROM waste_records
		WHERE registration_id = $1 AND type = $2 AND row_id = $3`,
		registrationID, recordType, rowID)

	record, err := scanWasteRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find waste record: %w", err)
	}
	return record, nil
}

func (r *wasteRecordRepository) ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*domain.WasteRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, registration_id, type, row_id, versions
		FROM waste_records
		WHERE registration_id = $1
		ORDER BY type, row_id`, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list waste records: %w", err)
	}
	defer rows.Close()

	var records []*domain.WasteRecord
	for rows.Next() {
		record, err := scanWasteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waste record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list waste records: %w", err)
	}
	return records, nil
}

func (r *wasteRecordRepository) Save(ctx context.Context, record *domain.WasteRecord) error {
	versions, err := json.Marshal(record.Versions)
	if err != nil {
		return fmt.Errorf("marshal waste record versions: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO waste_records (id, registration_id, type, row_id, versions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registration_id, type, row_id)
		DO UPDATE SET versions = EXCLUDED.versions`,
		record.ID, record.RegistrationID, record.Type, record.RowID, versions)
	if err != nil {
		return fmt.Errorf("save waste record: %w", err)
	}
	return nil
}

func scanWasteRecord(row pgx.Row) (*domain.WasteRecord, error) {
	var (
		record       domain.WasteRecord
		versionsJSON []byte
	)
	if err := row.Scan(&record.ID, &record.RegistrationID, &record.Type, &record.RowID, &versionsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(versionsJSON, &record.Versions); err != nil {
		return nil, fmt.Errorf("unmarshal waste record versions: %w", err)
	}
	return &record, nil
}
