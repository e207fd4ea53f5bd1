package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when an optimistic-concurrency update finds
// the stored version has moved on. The caller must re-fetch; the attempt is
// not retryable as-is.
var ErrVersionConflict = errors.New("version conflict")

// SummaryLogRepository stores summary log submissions. Update is a
// compare-and-swap against the log's version counter.
type SummaryLogRepository interface {
	Insert(ctx context.Context, log *domain.SummaryLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.SummaryLog, error)
	FindLatestByRegistration(ctx context.Context, registrationID uuid.UUID) (*domain.SummaryLog, error)
	Update(ctx context.Context, log *domain.SummaryLog, expectedVersion int64) error
}

// WasteRecordRepository stores versioned waste records, addressed by
// (registrationId, type, rowId).
type WasteRecordRepository interface {
	FindByKey(ctx context.Context, registrationID uuid.UUID, recordType domain.WasteRecordType, rowID string) (*domain.WasteRecord, error)
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*domain.WasteRecord, error)
	Save(ctx context.Context, record *domain.WasteRecord) error
}

// WasteBalanceRepository stores per-accreditation running balances.
type WasteBalanceRepository interface {
	FindByAccreditation(ctx context.Context, accreditationID uuid.UUID) (*domain.WasteBalance, error)
	Save(ctx context.Context, balance *domain.WasteBalance) error
}

// OrganisationRepository resolves registrations and their accreditation
// linkage for metadata cross-checks and balance updates.
type OrganisationRepository interface {
	FindOrganisation(ctx context.Context, id uuid.UUID) (*domain.Organisation, error)
	FindRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	FindAccreditation(ctx context.Context, id uuid.UUID) (*domain.Accreditation, error)
}
