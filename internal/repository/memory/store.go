// Package memory provides an in-process implementation of the repository
// interfaces. Each transaction holds the store lock and restores a snapshot
// on failure, which mirrors the all-or-nothing behavior of Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

// Operation names accepted by FailOn.
const (
	OpUserCreate       = "users.create"
	OpUserUpdate       = "users.update"
	OpUserAttach       = "users.attach"
	OpUserPromote      = "users.promote"
	OpContractorCreate = "contractors.create"
	OpContractorUpdate = "contractors.update"
	OpStagingCreate    = "staging.create"
	OpStagingResolve   = "staging.resolve"
	OpAuditInsert      = "audit.insert"
)

type state struct {
	users       map[string]domain.User
	contractors map[string]domain.Contractor
	staging     map[string]domain.StagingRecord
}

func (s state) clone() state {
	out := state{
		users:       make(map[string]domain.User, len(s.users)),
		contractors: make(map[string]domain.Contractor, len(s.contractors)),
		staging:     make(map[string]domain.StagingRecord, len(s.staging)),
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.contractors {
		out.contractors[k] = v
	}
	for k, v := range s.staging {
		out.staging[k] = v
	}
	return out
}

// Store is a repository.Store backed by maps.
type Store struct {
	mu     sync.Mutex
	data   state
	audit  []domain.AuditEvent
	fail   map[string]error
	writes int
	now    func() time.Time

	// contractors committed by a simulated concurrent session during the
	// current transaction; they survive its rollback.
	external []domain.Contractor

	// contractor ids passed to GetForUpdate, kept across rollbacks.
	locks []string

	// BeforeContractorInsert, when set, runs inside Contractors.Create and may
	// return a contractor that is committed as if by a concurrent session.
	BeforeContractorInsert func(license string) *domain.Contractor
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data: state{
			users:       map[string]domain.User{},
			contractors: map[string]domain.Contractor{},
			staging:     map[string]domain.StagingRecord{},
		},
		fail: map[string]error{},
		now:  time.Now,
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *Store) failure(op string) error {
	return s.fail[op]
}

// RunInTx implements repository.Store.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	writes := s.writes
	s.external = nil
	if err := fn(s.repositories()); err != nil {
		s.data = snapshot
		s.writes = writes
		for _, c := range s.external {
			s.data.contractors[c.ID] = c
		}
		return err
	}
	return nil
}

func (s *Store) repositories() repository.Repositories {
	return repository.Repositories{
		Users:       &userRepo{s: s},
		Contractors: &contractorRepo{s: s},
		Staging:     &stagingRepo{s: s},
	}
}

// Audit returns a repository.AuditRepository over the same store.
func (s *Store) Audit() repository.AuditRepository {
	return &auditRepo{s: s}
}

// Writes reports how many row writes have been committed.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// ContractorLocks lists contractor ids locked for update, in order.
func (s *Store) ContractorLocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.locks...)
}

// PutUser seeds or replaces a user outside any transaction.
func (s *Store) PutUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = domain.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
		u.UpdatedAt = u.CreatedAt
	}
	s.data.users[u.ID] = u
	return u
}

// PutContractor seeds or replaces a contractor outside any transaction.
func (s *Store) PutContractor(c domain.Contractor) domain.Contractor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putContractorLocked(c)
}

func (s *Store) putContractorLocked(c domain.Contractor) domain.Contractor {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.LicenseNumber = domain.NormalizeLicense(c.LicenseNumber)
	c.Profile.LicenseNumber = c.LicenseNumber
	if c.Status == "" {
		c.Status = domain.StatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
		c.UpdatedAt = c.CreatedAt
	}
	s.data.contractors[c.ID] = c
	return c
}

// User returns a copy of the stored user.
func (s *Store) User(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	return u, ok
}

// Contractor returns a copy of the stored contractor.
func (s *Store) Contractor(id string) (domain.Contractor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.contractors[id]
	return c, ok
}

// Contractors returns every stored contractor ordered by license.
func (s *Store) Contractors() []domain.Contractor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Contractor, 0, len(s.data.contractors))
	for _, c := range s.data.contractors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LicenseNumber < out[j].LicenseNumber })
	return out
}

// Staging returns a copy of the stored staging record.
func (s *Store) Staging(id string) (domain.StagingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.staging[id]
	return r, ok
}

// StagingFor lists staging records targeting the contractor.
func (s *Store) StagingFor(contractorID string) []domain.StagingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StagingRecord
	for _, r := range s.data.staging {
		if r.ContractorID == contractorID {
			out = append(out, r)
		}
	}
	return out
}

// AuditEvents returns recorded audit events in insertion order.
func (s *Store) AuditEvents() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.audit...)
}
