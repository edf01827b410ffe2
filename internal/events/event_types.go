package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered     EventType = "user_registered"
	EventEmailVerified      EventType = "email_verified"
	EventUserApproved       EventType = "user_approved"
	EventUserRejected       EventType = "user_rejected"
	EventContractorApproved EventType = "contractor_approved"
	EventContractorRejected EventType = "contractor_rejected"
	EventStagingMerged      EventType = "staging_merged"
	EventStagingKept        EventType = "staging_kept"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// UserRegisteredPayload carries what the verification email needs.
type UserRegisteredPayload struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	VerificationToken string `json:"verification_token"`
}

// EmailVerifiedPayload payload.
type EmailVerifiedPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserDecisionPayload payload for approve/reject of a user.
type UserDecisionPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Reason   string `json:"reason,omitempty"`
	Promoted bool   `json:"promoted,omitempty"`
}

// ContractorDecisionPayload payload for approve/reject of a contractor.
type ContractorDecisionPayload struct {
	LicenseNumber string `json:"license_number"`
	Reason        string `json:"reason,omitempty"`
	PromotedUsers int64  `json:"promoted_users"`
}

// StagingResolvedPayload payload for merge/keep.
type StagingResolvedPayload struct {
	ContractorID  string   `json:"contractor_id"`
	ChangedFields []string `json:"changed_fields"`
}
