package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewWasteRecordHasCreatedVersion(t *testing.T) {
	registrationID := uuid.New()
	summaryLogID := uuid.New()
	data := map[string]string{"ROW_ID": "1001", "TONNAGE_RECEIVED_FOR_RECYCLING": "12.5"}

	record := NewWasteRecord(registrationID, WasteRecordReceived, "1001", data, summaryLogID, "user-1")

	if len(record.Versions) != 1 {
		t.Fatalf("expected one version, got %d", len(record.Versions))
	}
	latest := record.Latest()
	if latest.Status != VersionCreated {
		t.Errorf("expected created status, got %s", latest.Status)
	}
	if latest.SummaryLogID != summaryLogID {
		t.Error("version should reference the originating summary log")
	}
	if record.Key() != "received:1001" {
		t.Errorf("unexpected key %q", record.Key())
	}
}

func TestAppendVersionPreservesHistory(t *testing.T) {
	record := NewWasteRecord(uuid.New(), WasteRecordProcessed, "2001",
		map[string]string{"TONNAGE_OUTPUT": "5"}, uuid.New(), "user-1")

	record.AppendVersion(VersionUpdated, map[string]string{"TONNAGE_OUTPUT": "6"}, uuid.New(), "user-1")
	record.AppendVersion(VersionPending, map[string]string{"TONNAGE_OUTPUT": "6"}, uuid.New(), "user-1")

	if len(record.Versions) != 3 {
		t.Fatalf("expected three versions, got %d", len(record.Versions))
	}
	if record.Versions[0].Data["TONNAGE_OUTPUT"] != "5" {
		t.Error("earliest version must keep its original data")
	}
	if record.CurrentData()["TONNAGE_OUTPUT"] != "6" {
		t.Error("current data should come from the latest version")
	}
}

func TestAppendVersionCopiesData(t *testing.T) {
	data := map[string]string{"TONNAGE_OUTPUT": "5"}
	record := NewWasteRecord(uuid.New(), WasteRecordProcessed, "2001", data, uuid.New(), "user-1")

	data["TONNAGE_OUTPUT"] = "999"

	if record.CurrentData()["TONNAGE_OUTPUT"] != "5" {
		t.Error("mutating the caller's map must not change the stored version")
	}
}

func TestDataEqual(t *testing.T) {
	a := map[string]string{"x": "1", "y": "2"}
	b := map[string]string{"y": "2", "x": "1"}
	c := map[string]string{"x": "1", "y": "3"}

	if !DataEqual(a, b) {
		t.Error("maps with identical entries should be equal")
	}
	if DataEqual(a, c) {
		t.Error("maps with differing values should not be equal")
	}
	if DataEqual(a, map[string]string{"x": "1"}) {
		t.Error("maps with differing key sets should not be equal")
	}
}
