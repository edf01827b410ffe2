package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

// UserRepository defines persistence access for portal users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	AttachContractor(ctx context.Context, userID, contractorID string) error
	MarkEmailVerified(ctx context.Context, userID string) error
	PromoteByContractor(ctx context.Context, contractorID string) (int64, error)
	ListPendingVerified(ctx context.Context) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
        id, email, password_hash, first_name, last_name, role, status, contractor_id,
        email_verified_at, approved_by, approved_at, rejected_by, rejected_at,
        rejection_reason, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Status,
		&user.ContractorID,
		&user.EmailVerifiedAt,
		&user.ApprovedBy,
		&user.ApprovedAt,
		&user.RejectedBy,
		&user.RejectedAt,
		&user.RejectionReason,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, first_name, last_name, role, status, contractor_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Status,
		user.ContractorID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

// Update persists role, status and decision metadata. Email and credentials
// are not touched here.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET role=$1, status=$2, contractor_id=$3, approved_by=$4, approved_at=$5,
            rejected_by=$6, rejected_at=$7, rejection_reason=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Role,
		user.Status,
		user.ContractorID,
		user.ApprovedBy,
		user.ApprovedAt,
		user.RejectedBy,
		user.RejectedAt,
		user.RejectionReason,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(r.db.QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

func (r *userRepository) AttachContractor(ctx context.Context, userID, contractorID string) error {
	const query = `UPDATE users SET contractor_id=$1, updated_at=NOW() WHERE id=$2`

	cmd, err := r.db.Exec(ctx, query, contractorID, userID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	const query = `
        UPDATE users SET email_verified_at=COALESCE(email_verified_at, NOW()), updated_at=NOW()
        WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteByContractor moves every non-admin user of the contractor to the
// CONTRACTOR role and returns how many rows changed.
func (r *userRepository) PromoteByContractor(ctx context.Context, contractorID string) (int64, error) {
	const query = `
        UPDATE users SET role=$1, updated_at=NOW()
        WHERE contractor_id=$2 AND role <> $3 AND role <> $1`

	cmd, err := r.db.Exec(ctx, query, domain.RoleContractor, contractorID, domain.RoleAdmin)
	if err != nil {
		return 0, translate(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) ListPendingVerified(ctx context.Context) ([]domain.User, error) {
	query := `SELECT` + userColumns + `
        FROM users
        WHERE status=$1 AND email_verified_at IS NOT NULL
        ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, domain.StatusPending)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}
