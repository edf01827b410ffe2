package dto

import (
	"time"

	"github.com/spec-kit/contractor-portal/internal/domain"
)

// RejectRequest optionally carries the rejection reason shown to the user.
type RejectRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// MergeRequest lists the staged fields to copy onto the contractor.
type MergeRequest struct {
	Fields []string `json:"fields" validate:"dive,required"`
}

// ResultResponse echoes a workflow outcome.
type ResultResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ProfileResponse mirrors domain.ContractorProfile.
type ProfileResponse struct {
	LicenseNumber  string `json:"license_number"`
	CompanyName    string `json:"company_name"`
	CompanyPhone   string `json:"company_phone"`
	CompanyEmail   string `json:"company_email"`
	CompanyWebsite string `json:"company_website"`
	AddressLine1   string `json:"address_line1"`
	AddressLine2   string `json:"address_line2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
}

func newProfileResponse(p domain.ContractorProfile) ProfileResponse {
	return ProfileResponse{
		LicenseNumber:  p.LicenseNumber,
		CompanyName:    p.CompanyName,
		CompanyPhone:   p.CompanyPhone,
		CompanyEmail:   p.CompanyEmail,
		CompanyWebsite: p.CompanyWebsite,
		AddressLine1:   p.AddressLine1,
		AddressLine2:   p.AddressLine2,
		City:           p.City,
		State:          p.State,
		PostalCode:     p.PostalCode,
	}
}

// ContractorResponse is the admin view of a contractor.
type ContractorResponse struct {
	ID              string          `json:"id"`
	LicenseNumber   string          `json:"license_number"`
	Profile         ProfileResponse `json:"profile"`
	Status          string          `json:"status"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewContractorResponse maps a domain contractor.
func NewContractorResponse(c *domain.Contractor) ContractorResponse {
	return ContractorResponse{
		ID:              c.ID,
		LicenseNumber:   c.LicenseNumber,
		Profile:         newProfileResponse(c.Profile),
		Status:          string(c.Status),
		ApprovedAt:      c.ApprovedAt,
		RejectedAt:      c.RejectedAt,
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt,
	}
}

// StagingResponse is the admin view of a staged submission.
type StagingResponse struct {
	ID           string          `json:"id"`
	ContractorID string          `json:"contractor_id"`
	Proposed     ProfileResponse `json:"proposed"`
	CreatedBy    *string         `json:"created_by,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewStagingResponse maps a staging record.
func NewStagingResponse(s *domain.StagingRecord) StagingResponse {
	return StagingResponse{
		ID:           s.ID,
		ContractorID: s.ContractorID,
		Proposed:     newProfileResponse(s.Proposed),
		CreatedBy:    s.CreatedBy,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
	}
}

// PendingResponse is the approval queue.
type PendingResponse struct {
	Users       []UserResponse       `json:"users"`
	Contractors []ContractorResponse `json:"contractors"`
	Staging     []StagingResponse    `json:"staging"`
	Mergeable   []string             `json:"mergeable_fields"`
}
