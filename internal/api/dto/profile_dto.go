package dto

import "github.com/spec-kit/contractor-portal/internal/service"

// VerificationResponse reports review progress flags for the signed-in user.
type VerificationResponse struct {
	HasName          bool `json:"has_name"`
	HasContractor    bool `json:"has_contractor"`
	HasLicense       bool `json:"has_license"`
	ContractorActive bool `json:"contractor_active"`
	LicenseVerified  bool `json:"license_verified"`
}

// MeResponse is the self-view returned by GET /me.
type MeResponse struct {
	User         UserResponse         `json:"user"`
	Contractor   *ContractorResponse  `json:"contractor"`
	Verification VerificationResponse `json:"verification"`
}

// NewMeResponse maps a loaded profile.
func NewMeResponse(p *service.Profile) MeResponse {
	resp := MeResponse{
		User: NewUserResponse(p.User),
		Verification: VerificationResponse{
			HasName:          p.Verification.HasName,
			HasContractor:    p.Verification.HasContractor,
			HasLicense:       p.Verification.HasLicense,
			ContractorActive: p.Verification.ContractorActive,
			LicenseVerified:  p.Verification.LicenseVerified,
		},
	}
	if p.Contractor != nil {
		c := NewContractorResponse(p.Contractor)
		resp.Contractor = &c
	}
	return resp
}
