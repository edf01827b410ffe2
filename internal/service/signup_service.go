package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/contractor-portal/internal/auth"
	"github.com/spec-kit/contractor-portal/internal/config"
	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/internal/events"
	"github.com/spec-kit/contractor-portal/internal/observability"
	"github.com/spec-kit/contractor-portal/internal/repository"
)

var validate = validator.New()

// RegisterInput is a sign-up request. Contractor is optional; a blank license
// number means the user is not associated with a contractor.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Contractor domain.ContractorProfile
}

// Registration is the committed outcome of a sign-up.
type Registration struct {
	User        *domain.User
	Association *Association
}

// SignUpService coordinates registration, email verification and login.
type SignUpService struct {
	store      repository.Store
	tokens     repository.VerificationTokenStore
	dedup      *DedupService
	audit      *AuditService
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	metrics    *observability.Metrics
	bcryptCost int
	verifyTTL  time.Duration
}

// SignUpDependencies encapsulates collaborators for the sign-up service.
type SignUpDependencies struct {
	Store      repository.Store
	Tokens     repository.VerificationTokenStore
	Dedup      *DedupService
	Audit      *AuditService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewSignUpService builds the service.
func NewSignUpService(cfg config.Config, deps SignUpDependencies) *SignUpService {
	return &SignUpService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		dedup:      deps.Dedup,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		bcryptCost: cfg.Auth.BcryptCost,
		verifyTTL:  cfg.Portal.VerificationTTL(),
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *SignUpService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a PENDING technician account and, when a license number is
// supplied, links it to the canonical contractor in the same transaction.
func (s *SignUpService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	email := domain.NormalizeEmail(in.Email)
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return nil, domainErr(KindValidation, "a valid email address is required")
	}
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" || lastName == "" {
		return nil, domainErr(KindValidation, "first and last name are required")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return nil, domainErr(KindValidation, "%s", err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	withContractor := domain.NormalizeLicense(in.Contractor.LicenseNumber) != ""
	var reg *Registration
	err = runWithLicenseRetry(ctx, s.store, s.logger, func(repos repository.Repositories) error {
		user := &domain.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    firstName,
			LastName:     lastName,
			Role:         domain.RoleTechnician,
			Status:       domain.StatusPending,
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return domainErr(KindConflict, "email already registered")
			}
			return fmt.Errorf("create user: %w", err)
		}

		reg = &Registration{User: user}
		if !withContractor {
			return nil
		}
		assoc, err := s.dedup.ResolveInTx(ctx, repos, in.Contractor, user.ID)
		if err != nil {
			return err
		}
		user.ContractorID = &assoc.ContractorID
		reg.Association = assoc
		return nil
	})
	if err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			s.logger.Error("registration failed", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	user := reg.User
	metadata := map[string]any{"email": user.Email}
	if reg.Association != nil {
		s.metrics.RecordIntake(reg.Association.Outcome())
		metadata["contractor_id"] = reg.Association.ContractorID
		metadata["contractor_outcome"] = reg.Association.Outcome()
		if reg.Association.StagingID != nil {
			metadata["staging_id"] = *reg.Association.StagingID
		}
	}
	s.audit.Record(ctx, user.ID, domain.AuditUserCreated, domain.SubjectUser, user.ID, metadata)

	token := uuid.NewString()
	if err := s.tokens.Save(ctx, token, user.ID, s.verifyTTL); err != nil {
		s.logger.Error("store verification token", zap.String("user_id", user.ID), zap.Error(err))
		return reg, nil
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Payload: events.UserRegisteredPayload{
			Email:             user.Email,
			Name:              user.DisplayName(),
			VerificationToken: token,
		},
	})
	return reg, nil
}

// VerifyEmail consumes a verification token and marks the address verified.
// Verified PENDING accounts appear in the admin approval queue.
func (s *SignUpService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainErr(KindValidation, "verification token is required")
	}
	userID, err := s.tokens.Consume(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domainErr(KindNotFound, "verification link is invalid or has expired")
	}
	if err != nil {
		return nil, fmt.Errorf("consume verification token: %w", err)
	}

	var user *domain.User
	err = s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Users.MarkEmailVerified(ctx, userID); err != nil {
			return err
		}
		u, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domainErr(KindNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("mark email verified: %w", err)
	}

	s.audit.Record(ctx, user.ID, domain.AuditEmailVerified, domain.SubjectUser, user.ID, nil)
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventEmailVerified,
		SubjectID: user.ID,
		Payload:   events.EmailVerifiedPayload{Email: user.Email, Name: user.DisplayName()},
	})
	return user, nil
}

// Login authenticates a user. Only verified, ACTIVE accounts receive a token.
func (s *SignUpService) Login(ctx context.Context, email, password string) (*domain.User, *domain.AccessToken, error) {
	var user *domain.User
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		u, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, domainErr(KindUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, domainErr(KindUnauthorized, "invalid credentials")
	}
	if user.EmailVerifiedAt == nil {
		return nil, nil, domainErr(KindUnauthorized, "please verify your email before signing in")
	}
	switch user.Status {
	case domain.StatusActive:
	case domain.StatusRejected:
		reason := domain.DefaultRejectionReason
		if user.RejectionReason != nil {
			reason = *user.RejectionReason
		}
		return nil, nil, domainErr(KindUnauthorized, "account rejected: %s", reason)
	default:
		return nil, nil, domainErr(KindUnauthorized, "account is pending approval")
	}

	token, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, nil, fmt.Errorf("issue token: %w", err)
	}
	s.audit.Record(ctx, user.ID, domain.AuditLoginSuccess, domain.SubjectUser, user.ID, nil)
	return user, token, nil
}
