package domain

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// WasteRecordType classifies which data section a waste record came from.
type WasteRecordType string

const (
	WasteRecordReceived  WasteRecordType = "received"
	WasteRecordProcessed WasteRecordType = "processed"
	WasteRecordSentOn    WasteRecordType = "sentOn"
	WasteRecordExported  WasteRecordType = "exported"
)

// VersionStatus records why a version was appended: the record was new, its
// data changed, or it was carried forward unchanged.
type VersionStatus string

const (
	VersionCreated VersionStatus = "created"
	VersionUpdated VersionStatus = "updated"
	VersionPending VersionStatus = "pending"
)

// WasteRecordVersion is one immutable snapshot of a record's data, written
// by exactly one submission.
type WasteRecordVersion struct {
	ID           uuid.UUID         `json:"id"`
	CreatedAt    time.Time         `json:"createdAt"`
	Status       VersionStatus     `json:"status"`
	CreatedBy    string            `json:"createdBy"`
	SummaryLogID uuid.UUID         `json:"summaryLogId"`
	Data         map[string]string `json:"data"`
}

// WasteRecord is one physical waste-movement line item, identified by
// (registrationId, type, rowId) and versioned across resubmissions. The
// version list only ever grows.
type WasteRecord struct {
	ID             uuid.UUID            `json:"id"`
	RegistrationID uuid.UUID            `json:"registrationId"`
	Type           WasteRecordType      `json:"type"`
	RowID          string               `json:"rowId"`
	Versions       []WasteRecordVersion `json:"versions"`
}

// WasteRecordKey builds the lookup key for a record within a registration.
func WasteRecordKey(recordType WasteRecordType, rowID string) string {
	return fmt.Sprintf("%s:%s", recordType, rowID)
}

// Key returns the record's lookup key within its registration.
func (r *WasteRecord) Key() string {
	return WasteRecordKey(r.Type, r.RowID)
}

// NewWasteRecord creates a record with its first version in status created.
func NewWasteRecord(registrationID uuid.UUID, recordType WasteRecordType, rowID string, data map[string]string, summaryLogID uuid.UUID, createdBy string) *WasteRecord {
	record := &WasteRecord{
		ID:             uuid.New(),
		RegistrationID: registrationID,
		Type:           recordType,
		RowID:          rowID,
	}
	record.AppendVersion(VersionCreated, data, summaryLogID, createdBy)
	return record
}

// AppendVersion adds a new snapshot to the record's history.
func (r *WasteRecord) AppendVersion(status VersionStatus, data map[string]string, summaryLogID uuid.UUID, createdBy string) WasteRecordVersion {
	version := WasteRecordVersion{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		Status:       status,
		CreatedBy:    createdBy,
		SummaryLogID: summaryLogID,
		Data:         maps.Clone(data),
	}
	r.Versions = append(r.Versions, version)
	return version
}

// Latest returns the record's most recent version, or nil for a record with
// no versions yet.
func (r *WasteRecord) Latest() *WasteRecordVersion {
	if len(r.Versions) == 0 {
		return nil
	}
	return &r.Versions[len(r.Versions)-1]
}

// CurrentData is the record's effective value: the latest version's data.
func (r *WasteRecord) CurrentData() map[string]string {
	latest := r.Latest()
	if latest == nil {
		return nil
	}
	return latest.Data
}

// DataEqual reports whether two normalized row maps carry identical values.
func DataEqual(a, b map[string]string) bool {
	return maps.Equal(a, b)
}
