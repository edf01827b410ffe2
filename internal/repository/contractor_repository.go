package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

// ContractorRepository handles persistence for canonical contractors.
type ContractorRepository interface {
	Create(ctx context.Context, contractor *domain.Contractor) error
	Update(ctx context.Context, contractor *domain.Contractor) error
	UpdateProfile(ctx context.Context, contractor *domain.Contractor) error
	GetByID(ctx context.Context, id string) (*domain.Contractor, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Contractor, error)
	GetByLicense(ctx context.Context, license string) (*domain.Contractor, error)
	ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.Contractor, error)
}

type contractorRepository struct {
	db DBTX
}

// NewContractorRepository instantiates the repository.
func NewContractorRepository(db DBTX) ContractorRepository {
	return &contractorRepository{db: db}
}

const contractorColumns = `
        id, license_number, company_name, company_phone, company_email, company_website,
        address_line1, address_line2, city, state, postal_code, status,
        approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
        merged_by, merged_at, created_at, updated_at`

func scanContractor(row pgx.Row) (*domain.Contractor, error) {
	var c domain.Contractor
	if err := row.Scan(
		&c.ID,
		&c.LicenseNumber,
		&c.Profile.CompanyName,
		&c.Profile.CompanyPhone,
		&c.Profile.CompanyEmail,
		&c.Profile.CompanyWebsite,
		&c.Profile.AddressLine1,
		&c.Profile.AddressLine2,
		&c.Profile.City,
		&c.Profile.State,
		&c.Profile.PostalCode,
		&c.Status,
		&c.ApprovedBy,
		&c.ApprovedAt,
		&c.RejectedBy,
		&c.RejectedAt,
		&c.RejectionReason,
		&c.MergedBy,
		&c.MergedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	c.Profile.LicenseNumber = c.LicenseNumber
	return &c, nil
}

// Create inserts a contractor. A license collision surfaces as ErrDuplicateLicense.
func (r *contractorRepository) Create(ctx context.Context, c *domain.Contractor) error {
	const query = `
        INSERT INTO contractors (license_number, company_name, company_phone, company_email,
            company_website, address_line1, address_line2, city, state, postal_code, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`

	c.LicenseNumber = domain.NormalizeLicense(c.LicenseNumber)
	err := r.db.QueryRow(ctx, query,
		c.LicenseNumber,
		c.Profile.CompanyName,
		c.Profile.CompanyPhone,
		c.Profile.CompanyEmail,
		c.Profile.CompanyWebsite,
		c.Profile.AddressLine1,
		c.Profile.AddressLine2,
		c.Profile.City,
		c.Profile.State,
		c.Profile.PostalCode,
		c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// Update writes profile, status, decision and merge metadata. The license
// number is immutable and never part of the statement.
func (r *contractorRepository) Update(ctx context.Context, c *domain.Contractor) error {
	const query = `
        UPDATE contractors
        SET company_name=$1, company_phone=$2, company_email=$3, company_website=$4,
            address_line1=$5, address_line2=$6, city=$7, state=$8, postal_code=$9,
            status=$10, approved_by=$11, approved_at=$12, rejected_by=$13, rejected_at=$14,
            rejection_reason=$15, merged_by=$16, merged_at=$17, updated_at=NOW()
        WHERE id=$18
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		c.Profile.CompanyName,
		c.Profile.CompanyPhone,
		c.Profile.CompanyEmail,
		c.Profile.CompanyWebsite,
		c.Profile.AddressLine1,
		c.Profile.AddressLine2,
		c.Profile.City,
		c.Profile.State,
		c.Profile.PostalCode,
		c.Status,
		c.ApprovedBy,
		c.ApprovedAt,
		c.RejectedBy,
		c.RejectedAt,
		c.RejectionReason,
		c.MergedBy,
		c.MergedAt,
		c.ID,
	).Scan(&c.UpdatedAt)
	return translate(err)
}

// UpdateProfile writes only the profile and merge stamp, leaving status and
// decision metadata to Update.
func (r *contractorRepository) UpdateProfile(ctx context.Context, c *domain.Contractor) error {
	const query = `
        UPDATE contractors
        SET company_name=$1, company_phone=$2, company_email=$3, company_website=$4,
            address_line1=$5, address_line2=$6, city=$7, state=$8, postal_code=$9,
            merged_by=$10, merged_at=$11, updated_at=NOW()
        WHERE id=$12
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		c.Profile.CompanyName,
		c.Profile.CompanyPhone,
		c.Profile.CompanyEmail,
		c.Profile.CompanyWebsite,
		c.Profile.AddressLine1,
		c.Profile.AddressLine2,
		c.Profile.City,
		c.Profile.State,
		c.Profile.PostalCode,
		c.MergedBy,
		c.MergedAt,
		c.ID,
	).Scan(&c.UpdatedAt)
	return translate(err)
}

// GetForUpdate loads the contractor and locks its row until the transaction
// ends. NO KEY UPDATE keeps foreign-key inserts from staging and users
// unblocked.
func (r *contractorRepository) GetForUpdate(ctx context.Context, id string) (*domain.Contractor, error) {
	query := `SELECT` + contractorColumns + ` FROM contractors WHERE id=$1 FOR NO KEY UPDATE`
	return scanContractor(r.db.QueryRow(ctx, query, id))
}

func (r *contractorRepository) GetByID(ctx context.Context, id string) (*domain.Contractor, error) {
	query := `SELECT` + contractorColumns + ` FROM contractors WHERE id=$1`
	return scanContractor(r.db.QueryRow(ctx, query, id))
}

func (r *contractorRepository) GetByLicense(ctx context.Context, license string) (*domain.Contractor, error) {
	query := `SELECT` + contractorColumns + ` FROM contractors WHERE license_number=$1`
	return scanContractor(r.db.QueryRow(ctx, query, domain.NormalizeLicense(license)))
}

func (r *contractorRepository) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]domain.Contractor, error) {
	query := `SELECT` + contractorColumns + `
        FROM contractors WHERE status=$1
        ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}
