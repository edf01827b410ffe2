package domain

import (
	"strings"
	"time"
)

// Role enumerates portal user roles.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleSupport    Role = "SUPPORT"
	RoleContractor Role = "CONTRACTOR"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleSupport, RoleContractor:
		return true
	}
	return false
}

// ApprovalStatus is shared by users and contractors.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusActive   ApprovalStatus = "ACTIVE"
	StatusRejected ApprovalStatus = "REJECTED"
)

// DefaultRejectionReason is stored when an admin rejects without a reason.
const DefaultRejectionReason = "Your data could not be verified. Please contact Technical Support."

// Decision holds the approval/rejection metadata of a reviewable record.
// At most one of the approval and rejection halves is populated.
type Decision struct {
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectedBy      *string
	RejectedAt      *time.Time
	RejectionReason *string
}

func (d *Decision) approve(adminID string, at time.Time) {
	d.ApprovedBy = &adminID
	d.ApprovedAt = &at
	d.RejectedBy = nil
	d.RejectedAt = nil
	d.RejectionReason = nil
}

func (d *Decision) reject(adminID, reason string, at time.Time) {
	reason = NormalizeReason(reason)
	d.RejectedBy = &adminID
	d.RejectedAt = &at
	d.RejectionReason = &reason
	d.ApprovedBy = nil
	d.ApprovedAt = nil
}

// NormalizeReason trims the reason and substitutes the default when empty.
func NormalizeReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return DefaultRejectionReason
	}
	return reason
}

// User is a portal account. New accounts start PENDING until an admin decides.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            Role
	Status          ApprovalStatus
	ContractorID    *string
	EmailVerifiedAt *time.Time
	Decision
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Approve activates the user and clears any earlier rejection.
func (u *User) Approve(adminID string, at time.Time) {
	u.Status = StatusActive
	u.approve(adminID, at)
}

// Reject marks the user rejected and clears any earlier approval.
func (u *User) Reject(adminID, reason string, at time.Time) {
	u.Status = StatusRejected
	u.reject(adminID, reason, at)
}

// Promotable reports whether the promotion cascade may change this user's role.
func (u *User) Promotable() bool {
	return u.Role != RoleAdmin
}

// DisplayName is used in notifications; it falls back to the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
