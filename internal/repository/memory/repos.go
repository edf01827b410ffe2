package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// The repos below run with Store.mu already held by RunInTx.

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *domain.User) error {
	if err := r.s.failure(OpUserCreate); err != nil {
		return err
	}
	u.Email = domain.NormalizeEmail(u.Email)
	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.data.users[u.ID] = *u
	r.s.writes++
	return nil
}

func (r *userRepo) Update(_ context.Context, u *domain.User) error {
	if err := r.s.failure(OpUserUpdate); err != nil {
		return err
	}
	stored, ok := r.s.data.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Role = u.Role
	stored.Status = u.Status
	stored.ContractorID = u.ContractorID
	stored.Decision = u.Decision
	stored.UpdatedAt = r.s.now()
	u.UpdatedAt = stored.UpdatedAt
	r.s.data.users[u.ID] = stored
	r.s.writes++
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) AttachContractor(_ context.Context, userID, contractorID string) error {
	if err := r.s.failure(OpUserAttach); err != nil {
		return err
	}
	u, ok := r.s.data.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.ContractorID = &contractorID
	u.UpdatedAt = r.s.now()
	r.s.data.users[userID] = u
	r.s.writes++
	return nil
}

func (r *userRepo) MarkEmailVerified(_ context.Context, userID string) error {
	u, ok := r.s.data.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.EmailVerifiedAt == nil {
		now := r.s.now()
		u.EmailVerifiedAt = &now
	}
	r.s.data.users[userID] = u
	r.s.writes++
	return nil
}

func (r *userRepo) PromoteByContractor(_ context.Context, contractorID string) (int64, error) {
	if err := r.s.failure(OpUserPromote); err != nil {
		return 0, err
	}
	var n int64
	for id, u := range r.s.data.users {
		if u.ContractorID == nil || *u.ContractorID != contractorID {
			continue
		}
		if !u.Promotable() || u.Role == domain.RoleContractor {
			continue
		}
		u.Role = domain.RoleContractor
		u.UpdatedAt = r.s.now()
		r.s.data.users[id] = u
		n++
	}
	r.s.writes += int(n)
	return n, nil
}

func (r *userRepo) ListPendingVerified(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.s.data.users {
		if u.Status == domain.StatusPending && u.EmailVerifiedAt != nil {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type contractorRepo struct{ s *Store }

func (r *contractorRepo) Create(_ context.Context, c *domain.Contractor) error {
	if err := r.s.failure(OpContractorCreate); err != nil {
		return err
	}
	c.LicenseNumber = domain.NormalizeLicense(c.LicenseNumber)
	if hook := r.s.BeforeContractorInsert; hook != nil {
		if rival := hook(c.LicenseNumber); rival != nil {
			stored := r.s.putContractorLocked(*rival)
			r.s.external = append(r.s.external, stored)
		}
	}
	for _, existing := range r.s.data.contractors {
		if existing.LicenseNumber == c.LicenseNumber {
			return repository.ErrDuplicateLicense
		}
	}
	c.ID = uuid.NewString()
	c.Profile.LicenseNumber = c.LicenseNumber
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.data.contractors[c.ID] = *c
	r.s.writes++
	return nil
}

func (r *contractorRepo) Update(_ context.Context, c *domain.Contractor) error {
	if err := r.s.failure(OpContractorUpdate); err != nil {
		return err
	}
	stored, ok := r.s.data.contractors[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	license := stored.LicenseNumber
	stored.Profile = c.Profile
	stored.Profile.LicenseNumber = license
	stored.Status = c.Status
	stored.Decision = c.Decision
	stored.MergedBy = c.MergedBy
	stored.MergedAt = c.MergedAt
	stored.UpdatedAt = r.s.now()
	c.UpdatedAt = stored.UpdatedAt
	r.s.data.contractors[c.ID] = stored
	r.s.writes++
	return nil
}

func (r *contractorRepo) UpdateProfile(_ context.Context, c *domain.Contractor) error {
	if err := r.s.failure(OpContractorUpdate); err != nil {
		return err
	}
	stored, ok := r.s.data.contractors[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	license := stored.LicenseNumber
	stored.Profile = c.Profile
	stored.Profile.LicenseNumber = license
	stored.MergedBy = c.MergedBy
	stored.MergedAt = c.MergedAt
	stored.UpdatedAt = r.s.now()
	c.UpdatedAt = stored.UpdatedAt
	r.s.data.contractors[c.ID] = stored
	r.s.writes++
	return nil
}

func (r *contractorRepo) GetForUpdate(ctx context.Context, id string) (*domain.Contractor, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.s.locks = append(r.s.locks, id)
	return c, nil
}

func (r *contractorRepo) GetByID(_ context.Context, id string) (*domain.Contractor, error) {
	c, ok := r.s.data.contractors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *contractorRepo) GetByLicense(_ context.Context, license string) (*domain.Contractor, error) {
	license = domain.NormalizeLicense(license)
	for _, c := range r.s.data.contractors {
		if c.LicenseNumber == license {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *contractorRepo) ListByStatus(_ context.Context, status domain.ApprovalStatus) ([]domain.Contractor, error) {
	var out []domain.Contractor
	for _, c := range r.s.data.contractors {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type stagingRepo struct{ s *Store }

func (r *stagingRepo) Create(_ context.Context, rec *domain.StagingRecord) error {
	if err := r.s.failure(OpStagingCreate); err != nil {
		return err
	}
	if _, ok := r.s.data.contractors[rec.ContractorID]; !ok {
		return repository.ErrNotFound
	}
	if rec.Status == "" {
		rec.Status = domain.StagingPending
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = r.s.now()
	r.s.data.staging[rec.ID] = *rec
	r.s.writes++
	return nil
}

func (r *stagingRepo) GetForUpdate(_ context.Context, id string) (*domain.StagingRecord, error) {
	rec, ok := r.s.data.staging[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *stagingRepo) Resolve(_ context.Context, rec *domain.StagingRecord) error {
	if err := r.s.failure(OpStagingResolve); err != nil {
		return err
	}
	stored, ok := r.s.data.staging[rec.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != domain.StagingPending {
		return repository.ErrStaleStaging
	}
	stored.Status = rec.Status
	stored.ResolvedBy = rec.ResolvedBy
	stored.ResolvedAt = rec.ResolvedAt
	r.s.data.staging[rec.ID] = stored
	r.s.writes++
	return nil
}

func (r *stagingRepo) ListPending(_ context.Context) ([]domain.StagingRecord, error) {
	var out []domain.StagingRecord
	for _, rec := range r.s.data.staging {
		if rec.Status == domain.StagingPending {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Insert(_ context.Context, event *domain.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure(OpAuditInsert); err != nil {
		return err
	}
	event.ID = uuid.NewString()
	event.CreatedAt = r.s.now()
	r.s.audit = append(r.s.audit, *event)
	return nil
}
