package dto

import (
	"time"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

// ContractorProfileRequest is the company section of the sign-up form.
type ContractorProfileRequest struct {
	LicenseNumber  string `json:"license_number" validate:"required,max=64"`
	CompanyName    string `json:"company_name" validate:"required,max=255"`
	CompanyPhone   string `json:"company_phone" validate:"omitempty,max=32"`
	CompanyEmail   string `json:"company_email" validate:"omitempty,email"`
	CompanyWebsite string `json:"company_website" validate:"omitempty,url"`
	AddressLine1   string `json:"address_line1" validate:"omitempty,max=255"`
	AddressLine2   string `json:"address_line2" validate:"omitempty,max=255"`
	City           string `json:"city" validate:"omitempty,max=128"`
	State          string `json:"state" validate:"omitempty,max=64"`
	PostalCode     string `json:"postal_code" validate:"omitempty,max=16"`
}

// Profile converts the request into the domain profile.
func (r *ContractorProfileRequest) Profile() domain.ContractorProfile {
	if r == nil {
		return domain.ContractorProfile{}
	}
	return domain.ContractorProfile{
		LicenseNumber:  r.LicenseNumber,
		CompanyName:    r.CompanyName,
		CompanyPhone:   r.CompanyPhone,
		CompanyEmail:   r.CompanyEmail,
		CompanyWebsite: r.CompanyWebsite,
		AddressLine1:   r.AddressLine1,
		AddressLine2:   r.AddressLine2,
		City:           r.City,
		State:          r.State,
		PostalCode:     r.PostalCode,
	}
}

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Email      string                    `json:"email" validate:"required,email,max=254"`
	Password   string                    `json:"password" validate:"required,pwd"`
	FirstName  string                    `json:"first_name" validate:"required,max=100"`
	LastName   string                    `json:"last_name" validate:"required,max=100"`
	Contractor *ContractorProfileRequest `json:"contractor" validate:"omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest carries the emailed verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	ContractorID    *string    `json:"contractor_id,omitempty"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *string    `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            string(u.Role),
		Status:          string(u.Status),
		ContractorID:    u.ContractorID,
		EmailVerifiedAt: u.EmailVerifiedAt,
		ApprovedBy:      u.ApprovedBy,
		ApprovedAt:      u.ApprovedAt,
		RejectedBy:      u.RejectedBy,
		RejectedAt:      u.RejectedAt,
		RejectionReason: u.RejectionReason,
		CreatedAt:       u.CreatedAt,
	}
}
