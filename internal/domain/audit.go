package domain

import "time"

// AuditAction identifies an audited operation.
type AuditAction string

const (
	AuditUserCreated        AuditAction = "user_created"
	AuditEmailVerified      AuditAction = "email_verified"
	AuditLoginSuccess       AuditAction = "login_success"
	AuditUserApproved       AuditAction = "user_approved"
	AuditUserRejected       AuditAction = "user_rejected"
	AuditContractorApproved AuditAction = "contractor_approved"
	AuditContractorRejected AuditAction = "contractor_rejected"
	AuditContractorStaged   AuditAction = "contractor_staged"
	AuditStagingMerged      AuditAction = "contractor_merge_performed"
	AuditStagingKept        AuditAction = "contractor_staging_kept"
	AuditRolePromoted       AuditAction = "user_role_promoted"
)

// Audit subject types.
const (
	SubjectUser       = "user"
	SubjectContractor = "contractor"
	SubjectStaging    = "contractor_staging"
)

// AuditEvent is an append-only record of who did what to which entity.
type AuditEvent struct {
	ID          string
	ActorID     *string
	Action      AuditAction
	SubjectType string
	SubjectID   string
	Metadata    map[string]any
	CreatedAt   time.Time
}
