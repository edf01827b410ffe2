package domain

import (
	"strings"
	"time"
)

// NormalizeLicense returns the canonical dedup key for a license number.
func NormalizeLicense(license string) string {
	return strings.ToUpper(strings.TrimSpace(license))
}

// ContractorProfile is the company information submitted at sign-up and
// held on the canonical contractor.
type ContractorProfile struct {
	LicenseNumber  string
	CompanyName    string
	CompanyPhone   string
	CompanyEmail   string
	CompanyWebsite string
	AddressLine1   string
	AddressLine2   string
	City           string
	State          string
	PostalCode     string
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (p ContractorProfile) Trimmed() ContractorProfile {
	for _, f := range MergeFields {
		*f.ptr(&p) = strings.TrimSpace(f.get(&p))
	}
	p.LicenseNumber = strings.TrimSpace(p.LicenseNumber)
	return p
}

// Contractor is the canonical record for a licensed company.
// LicenseNumber is stored normalized and never changes after creation.
type Contractor struct {
	ID            string
	LicenseNumber string
	Profile       ContractorProfile
	Status        ApprovalStatus
	Decision
	MergedBy  *string
	MergedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewContractor builds a pending contractor from a submitted profile.
func NewContractor(p ContractorProfile) *Contractor {
	license := NormalizeLicense(p.LicenseNumber)
	p.LicenseNumber = license
	return &Contractor{
		LicenseNumber: license,
		Profile:       p,
		Status:        StatusPending,
	}
}

// Approve activates the contractor and clears any earlier rejection.
func (c *Contractor) Approve(adminID string, at time.Time) {
	c.Status = StatusActive
	c.approve(adminID, at)
}

// Reject marks the contractor rejected and clears any earlier approval.
func (c *Contractor) Reject(adminID, reason string, at time.Time) {
	c.Status = StatusRejected
	c.reject(adminID, reason, at)
}

// ApplyFields copies the selected fields from staged onto the contractor when
// they differ, and returns the fields that actually changed in whitelist order.
func (c *Contractor) ApplyFields(staged ContractorProfile, fields FieldSet) []MergeField {
	changed := make([]MergeField, 0, len(fields))
	for _, f := range MergeFields {
		if !fields.Has(f) {
			continue
		}
		next := f.get(&staged)
		if *f.ptr(&c.Profile) == next {
			continue
		}
		*f.ptr(&c.Profile) = next
		changed = append(changed, f)
	}
	return changed
}

// MarkMerged records who last merged staged data into the contractor.
func (c *Contractor) MarkMerged(adminID string, at time.Time) {
	c.MergedBy = &adminID
	c.MergedAt = &at
}
