package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/wastetrack/epr/internal/domain"
)

func TestMemorySummaryLogUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySummaryLogRepository()

	log := domain.NewSummaryLog(uuid.New(), uuid.New(), domain.SummaryLogFile{ID: uuid.New()})
	if err := repo.Insert(ctx, log); err != nil {
		t.Fatal(err)
	}

	if err := repo.Update(ctx, log, log.Version); err != nil {
		t.Fatalf("update at current version should succeed: %v", err)
	}
	if log.Version != 2 {
		t.Errorf("update should bump the version, got %d", log.Version)
	}

	stale := *log
	stale.Version = 1
	if err := repo.Update(ctx, &stale, 1); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale update should conflict, got %v", err)
	}
}

func TestMemorySummaryLogFindByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySummaryLogRepository()

	log := domain.NewSummaryLog(uuid.New(), uuid.New(), domain.SummaryLogFile{ID: uuid.New()})
	if err := repo.Insert(ctx, log); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindByID(ctx, log.ID)
	if err != nil {
		t.Fatal(err)
	}
	found.Status = domain.StatusFailed

	again, err := repo.FindByID(ctx, log.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != domain.StatusPending {
		t.Error("mutating a returned log must not change the stored copy")
	}
}

func TestMemorySummaryLogFindMissing(t *testing.T) {
	repo := NewMemorySummaryLogRepository()
	if _, err := repo.FindByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryWasteRecordsKeyedByTypeAndRow(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWasteRecordRepository()
	registrationID := uuid.New()

	received := domain.NewWasteRecord(registrationID, domain.WasteRecordReceived, "1001", map[string]string{"a": "1"}, uuid.New(), "user")
	processed := domain.NewWasteRecord(registrationID, domain.WasteRecordProcessed, "1001", map[string]string{"b": "2"}, uuid.New(), "user")
	if err := repo.Save(ctx, received); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, processed); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindByKey(ctx, registrationID, domain.WasteRecordReceived, "1001")
	if err != nil {
		t.Fatal(err)
	}
	if found.Type != domain.WasteRecordReceived {
		t.Errorf("expected the received record, got %s", found.Type)
	}

	all, err := repo.ListByRegistration(ctx, registrationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected two records, got %d", len(all))
	}

	if _, err := repo.FindByKey(ctx, uuid.New(), domain.WasteRecordReceived, "1001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other registrations must not see the record, got %v", err)
	}
}

func TestMemoryWasteBalanceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWasteBalanceRepository()
	accreditationID := uuid.New()

	balance := domain.NewWasteBalance(accreditationID)
	balance.Apply(map[string]domain.BalanceContribution{
		"received:1001": {Amount: 5, VersionID: uuid.New()},
	}, uuid.New())
	if err := repo.Save(ctx, balance); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindByAccreditation(ctx, accreditationID)
	if err != nil {
		t.Fatal(err)
	}
	if found.Amount != 5 {
		t.Errorf("expected amount 5, got %v", found.Amount)
	}
}
