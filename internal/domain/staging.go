package domain

import (
	"fmt"
	"time"
)

// StagingStatus tracks resolution of a conflicting contractor submission.
type StagingStatus string

const (
	StagingPending StagingStatus = "PENDING"
	StagingMerged  StagingStatus = "MERGED"
	StagingKept    StagingStatus = "KEPT"
)

// StagingRecord quarantines a submitted profile that collided with an
// existing contractor's license number until an admin resolves it.
type StagingRecord struct {
	ID           string
	ContractorID string
	Proposed     ContractorProfile
	CreatedBy    *string
	Status       StagingStatus
	ResolvedBy   *string
	ResolvedAt   *time.Time
	CreatedAt    time.Time
}

// Pending reports whether the record can still be resolved.
func (s *StagingRecord) Pending() bool {
	return s.Status == StagingPending
}

// Resolve moves a pending record to a terminal status.
func (s *StagingRecord) Resolve(status StagingStatus, adminID string, at time.Time) error {
	if !s.Pending() {
		return fmt.Errorf("staging %s already %s", s.ID, s.Status)
	}
	if status != StagingMerged && status != StagingKept {
		return fmt.Errorf("invalid staging resolution %q", status)
	}
	s.Status = status
	s.ResolvedBy = &adminID
	s.ResolvedAt = &at
	return nil
}

// MergeField names one mergeable contractor profile attribute.
type MergeField int

const (
	FieldCompanyName MergeField = iota + 1
	FieldCompanyPhone
	FieldCompanyEmail
	FieldCompanyWebsite
	FieldAddressLine1
	FieldAddressLine2
	FieldCity
	FieldState
	FieldPostalCode
)

// MergeFields is the whitelist, in display order.
var MergeFields = []MergeField{
	FieldCompanyName,
	FieldCompanyPhone,
	FieldCompanyEmail,
	FieldCompanyWebsite,
	FieldAddressLine1,
	FieldAddressLine2,
	FieldCity,
	FieldState,
	FieldPostalCode,
}

var mergeFieldNames = map[MergeField]string{
	FieldCompanyName:    "company_name",
	FieldCompanyPhone:   "company_phone",
	FieldCompanyEmail:   "company_email",
	FieldCompanyWebsite: "company_website",
	FieldAddressLine1:   "address_line1",
	FieldAddressLine2:   "address_line2",
	FieldCity:           "city",
	FieldState:          "state",
	FieldPostalCode:     "postal_code",
}

func (f MergeField) String() string {
	if name, ok := mergeFieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("MergeField(%d)", int(f))
}

// ParseMergeField resolves a wire name. license_number is deliberately absent.
func ParseMergeField(name string) (MergeField, bool) {
	for f, n := range mergeFieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

func (f MergeField) ptr(p *ContractorProfile) *string {
	switch f {
	case FieldCompanyName:
		return &p.CompanyName
	case FieldCompanyPhone:
		return &p.CompanyPhone
	case FieldCompanyEmail:
		return &p.CompanyEmail
	case FieldCompanyWebsite:
		return &p.CompanyWebsite
	case FieldAddressLine1:
		return &p.AddressLine1
	case FieldAddressLine2:
		return &p.AddressLine2
	case FieldCity:
		return &p.City
	case FieldState:
		return &p.State
	case FieldPostalCode:
		return &p.PostalCode
	}
	panic(fmt.Sprintf("unknown merge field %d", int(f)))
}

func (f MergeField) get(p *ContractorProfile) string {
	return *f.ptr(p)
}

// FieldSet is the admin's selection of fields to merge.
type FieldSet map[MergeField]struct{}

// NewFieldSet builds a set from the given fields.
func NewFieldSet(fields ...MergeField) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// ParseFieldSet converts wire names into a FieldSet, rejecting unknown names.
func ParseFieldSet(names []string) (FieldSet, error) {
	set := make(FieldSet, len(names))
	for _, name := range names {
		f, ok := ParseMergeField(name)
		if !ok {
			return nil, fmt.Errorf("field %q is not mergeable", name)
		}
		set[f] = struct{}{}
	}
	return set, nil
}

// Has reports whether f is selected.
func (s FieldSet) Has(f MergeField) bool {
	_, ok := s[f]
	return ok
}

// FieldNames renders fields as wire names.
func FieldNames(fields []MergeField) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.String())
	}
	return names
}
