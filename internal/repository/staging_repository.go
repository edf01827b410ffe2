package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

// StagingRepository persists conflicting contractor submissions.
type StagingRepository interface {
	Create(ctx context.Context, record *domain.StagingRecord) error
	GetForUpdate(ctx context.Context, id string) (*domain.StagingRecord, error)
	Resolve(ctx context.Context, record *domain.StagingRecord) error
	ListPending(ctx context.Context) ([]domain.StagingRecord, error)
}

type stagingRepository struct {
	db DBTX
}

// NewStagingRepository constructs the repository.
func NewStagingRepository(db DBTX) StagingRepository {
	return &stagingRepository{db: db}
}

const stagingColumns = `
        id, contractor_id, license_number, company_name, company_phone, company_email,
        company_website, address_line1, address_line2, city, state, postal_code,
        created_by, status, resolved_by, resolved_at, created_at`

func scanStaging(row pgx.Row) (*domain.StagingRecord, error) {
	var s domain.StagingRecord
	if err := row.Scan(
		&s.ID,
		&s.ContractorID,
		&s.Proposed.LicenseNumber,
		&s.Proposed.CompanyName,
		&s.Proposed.CompanyPhone,
		&s.Proposed.CompanyEmail,
		&s.Proposed.CompanyWebsite,
		&s.Proposed.AddressLine1,
		&s.Proposed.AddressLine2,
		&s.Proposed.City,
		&s.Proposed.State,
		&s.Proposed.PostalCode,
		&s.CreatedBy,
		&s.Status,
		&s.ResolvedBy,
		&s.ResolvedAt,
		&s.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *stagingRepository) Create(ctx context.Context, s *domain.StagingRecord) error {
	const query = `
        INSERT INTO contractor_staging (contractor_id, license_number, company_name, company_phone,
            company_email, company_website, address_line1, address_line2, city, state, postal_code,
            created_by, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at`

	if s.Status == "" {
		s.Status = domain.StagingPending
	}
	err := r.db.QueryRow(ctx, query,
		s.ContractorID,
		s.Proposed.LicenseNumber,
		s.Proposed.CompanyName,
		s.Proposed.CompanyPhone,
		s.Proposed.CompanyEmail,
		s.Proposed.CompanyWebsite,
		s.Proposed.AddressLine1,
		s.Proposed.AddressLine2,
		s.Proposed.City,
		s.Proposed.State,
		s.Proposed.PostalCode,
		s.CreatedBy,
		s.Status,
	).Scan(&s.ID, &s.CreatedAt)
	return translate(err)
}

// GetForUpdate loads the record and locks its row until the transaction ends.
func (r *stagingRepository) GetForUpdate(ctx context.Context, id string) (*domain.StagingRecord, error) {
	query := `SELECT` + stagingColumns + ` FROM contractor_staging WHERE id=$1 FOR UPDATE`
	return scanStaging(r.db.QueryRow(ctx, query, id))
}

// Resolve stores the terminal status. The update only matches pending rows,
// so a concurrent resolution yields ErrStaleStaging.
func (r *stagingRepository) Resolve(ctx context.Context, s *domain.StagingRecord) error {
	const query = `
        UPDATE contractor_staging
        SET status=$1, resolved_by=$2, resolved_at=$3
        WHERE id=$4 AND status=$5`

	cmd, err := r.db.Exec(ctx, query, s.Status, s.ResolvedBy, s.ResolvedAt, s.ID, domain.StagingPending)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStaging
	}
	return nil
}

func (r *stagingRepository) ListPending(ctx context.Context) ([]domain.StagingRecord, error) {
	query := `SELECT` + stagingColumns + `
        FROM contractor_staging WHERE status=$1
        ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, domain.StagingPending)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.StagingRecord
	for rows.Next() {
		s, err := scanStaging(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}
