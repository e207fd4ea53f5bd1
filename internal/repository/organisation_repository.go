package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wastetrack/epr/internal/domain"
)

type organisationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganisationRepository creates a Postgres-backed organisation lookup.
func NewOrganisationRepository(pool *pgxpool.Pool) OrganisationRepository {
	return &organisationRepository{pool: pool}
}

func (r *organisationRepository) FindOrganisation(ctx context.Context, id uuid.UUID) (*domain.Organisation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM organisations WHERE id = $1`, id)

	var org domain.Organisation
	if err := row.Scan(&org.ID, &org.Name, &org.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find organisation: %w", err)
	}
	return &org, nil
}

func (r *organisationRepository) FindRegistration(ctx context.Context, id uuid.UUID) (*domain.Registration, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, organisation_id, registration_number, processing_type, material, accreditation_id
		FROM registrations WHERE id = $1`, id)

	var reg domain.Registration
	err := row.Scan(&reg.ID, &reg.OrganisationID, &reg.RegistrationNumber,
		&reg.ProcessingType, &reg.Material, &reg.AccreditationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

func (r *organisationRepository) FindAccreditation(ctx context.Context, id uuid.UUID) (*domain.Accreditation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, registration_id, accreditation_number
		FROM accreditations WHERE id = $1`, id)

	var acc domain.Accreditation
	if err := row.Scan(&acc.ID, &acc.RegistrationID, &acc.AccreditationNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find accreditation: %w", err)
	}
	return &acc, nil
}
