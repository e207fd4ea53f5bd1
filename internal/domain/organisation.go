package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingType classifies the role a registration submits under.
type ProcessingType string

const (
	ProcessingReprocessor ProcessingType = "REPROCESSOR"
	ProcessingExporter    ProcessingType = "EXPORTER"
)

// Organisation is a regulated waste-processing operator.
type Organisation struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registration is an organisation's approval to process one material under
// one processing type. A registration may carry at most one accreditation.
type Registration struct {
	ID                 uuid.UUID      `json:"id"`
	OrganisationID     uuid.UUID      `json:"organisationId"`
	RegistrationNumber string         `json:"registrationNumber"`
	ProcessingType     ProcessingType `json:"processingType"`
	Material           string         `json:"material"`
	AccreditationID    *uuid.UUID     `json:"accreditationId,omitempty"`
}

// Accreditation entitles a registration to issue packaging recycling notes
// against a waste balance.
type Accreditation struct {
	ID                  uuid.UUID `json:"id"`
	RegistrationID      uuid.UUID `json:"registrationId"`
	AccreditationNumber string    `json:"accreditationNumber"`
}
