package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
)

// In-memory implementations of the repository ports. They back unit tests
// and local development without a database, and behave like the Postgres
// versions including version conflicts on stale updates.

type memorySummaryLogRepository struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]*domain.SummaryLog
}

// NewMemorySummaryLogRepository creates an in-memory summary log store.
func NewMemorySummaryLogRepository() SummaryLogRepository {
	return &memorySummaryLogRepository{logs: map[uuid.UUID]*domain.SummaryLog{}}
}

func (r *memorySummaryLogRepository) Insert(_ context.Context, log *domain.SummaryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *log
	r.logs[log.ID] = &stored
	return nil
}

func (r *memorySummaryLogRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.SummaryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.logs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *stored
	return &out, nil
}

func (r *memorySummaryLogRepository) FindLatestByRegistration(_ context.Context, registrationID uuid.UUID) (*domain.SummaryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.SummaryLog
	for _, stored := range r.logs {
		if stored.RegistrationID != registrationID {
			continue
		}
		if latest == nil || stored.CreatedAt.After(latest.CreatedAt) {
			latest = stored
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (r *memorySummaryLogRepository) Update(_ context.Context, log *domain.SummaryLog, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[log.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	log.Version = expectedVersion + 1
	updated := *log
	r.logs[log.ID] = &updated
	return nil
}

type memoryWasteRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]map[string]*domain.WasteRecord // registration -> key -> record
}

// NewMemoryWasteRecordRepository creates an in-memory waste record store.
func NewMemoryWasteRecordRepository() WasteRecordRepository {
	return &memoryWasteRecordRepository{records: map[uuid.UUID]map[string]*domain.WasteRecord{}}
}

func (r *memoryWasteRecordRepository) FindByKey(_ context.Context, registrationID uuid.UUID, recordType domain.WasteRecordType, rowID string) (*domain.WasteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[registrationID][domain.WasteRecordKey(recordType, rowID)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *record
	return &out, nil
}

func (r *memoryWasteRecordRepository) ListByRegistration(_ context.Context, registrationID uuid.UUID) ([]*domain.WasteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.WasteRecord
	for _, record := range r.records[registrationID] {
		copied := *record
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryWasteRecordRepository) Save(_ context.Context, record *domain.WasteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byKey, ok := r.records[record.RegistrationID]
	if !ok {
		byKey = map[string]*domain.WasteRecord{}
		r.records[record.RegistrationID] = byKey
	}
	stored := *record
	byKey[record.Key()] = &stored
	return nil
}

type memoryWasteBalanceRepository struct {
	mu       sync.RWMutex
	balances map[uuid.UUID]*domain.WasteBalance
}

// NewMemoryWasteBalanceRepository creates an in-memory waste balance store.
func NewMemoryWasteBalanceRepository() WasteBalanceRepository {
	return &memoryWasteBalanceRepository{balances: map[uuid.UUID]*domain.WasteBalance{}}
}

func (r *memoryWasteBalanceRepository) FindByAccreditation(_ context.Context, accreditationID uuid.UUID) (*domain.WasteBalance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	balance, ok := r.balances[accreditationID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *balance
	return &out, nil
}

func (r *memoryWasteBalanceRepository) Save(_ context.Context, balance *domain.WasteBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *balance
	r.balances[balance.AccreditationID] = &stored
	return nil
}

// NewMemoryOrganisationRepository creates an in-memory organisation lookup
// seeded through its Put methods.
func NewMemoryOrganisationRepository() *MemoryOrganisationRepository {
	return &MemoryOrganisationRepository{
		organisations:  map[uuid.UUID]*domain.Organisation{},
		registrations:  map[uuid.UUID]*domain.Registration{},
		accreditations: map[uuid.UUID]*domain.Accreditation{},
	}
}

// MemoryOrganisationRepository is the in-memory OrganisationRepository. It
// is exported so tests can seed registrations directly.
type MemoryOrganisationRepository struct {
	mu             sync.RWMutex
	organisations  map[uuid.UUID]*domain.Organisation
	registrations  map[uuid.UUID]*domain.Registration
	accreditations map[uuid.UUID]*domain.Accreditation
}

func (r *MemoryOrganisationRepository) PutOrganisation(org domain.Organisation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.organisations[org.ID] = &org
}

func (r *MemoryOrganisationRepository) PutRegistration(reg domain.Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[reg.ID] = &reg
}

func (r *MemoryOrganisationRepository) PutAccreditation(acc domain.Accreditation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accreditations[acc.ID] = &acc
}

func (r *MemoryOrganisationRepository) FindOrganisation(_ context.Context, id uuid.UUID) (*domain.Organisation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	org, ok := r.organisations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *org
	return &out, nil
}

func (r *MemoryOrganisationRepository) FindRegistration(_ context.Context, id uuid.UUID) (*domain.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *reg
	return &out, nil
}

func (r *MemoryOrganisationRepository) FindAccreditation(_ context.Context, id uuid.UUID) (*domain.Accreditation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.accreditations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *acc
	return &out, nil
}
