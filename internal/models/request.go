package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Spending request status enums. The parent (guardian) decides first, then
// the mentor; approved requests sit in a cooling-off window before the
// external purchase system completes them.
const (
	RequestStatusPendingParent  = "pending_parent"
	RequestStatusPendingMentor  = "pending_mentor"
	RequestStatusApproved       = "approved"
	RequestStatusCompleted      = "completed"
	RequestStatusReversed       = "reversed"
	RequestStatusDeclinedParent = "declined_parent"
	RequestStatusDeclinedMentor = "declined_mentor"
)

// Caller roles carried in the session token.
const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleMentor  = "mentor"
	RoleSystem  = "system"
)

// TerminalStatus reports whether a request can no longer change state.
func TerminalStatus(status string) bool {
	switch status {
	case RequestStatusCompleted, RequestStatusReversed,
		RequestStatusDeclinedParent, RequestStatusDeclinedMentor:
		return true
	}
	return false
}

// SpendingRequest is one purchase ask. Mutated only through the request
// manager's state machine; immutable once terminal.
type SpendingRequest struct {
	ID                 uuid.UUID       `json:"id"`
	CustodialAccountID uuid.UUID       `json:"custodial_account_id"`
	ProjectID          uuid.UUID       `json:"project_id"`
	MilestoneID        *uuid.UUID      `json:"milestone_id,omitempty"`
	StudentID          uuid.UUID       `json:"student_id"`
	ParentID           uuid.UUID       `json:"parent_id"`
	MentorID           uuid.UUID       `json:"mentor_id"`
	Vendor             string          `json:"vendor"`
	Amount             decimal.Decimal `json:"amount"`
	Reason             string          `json:"reason"`
	Status             string          `json:"status"`
	ParentDecidedAt    *time.Time      `json:"parent_decided_at,omitempty"`
	MentorDecidedAt    *time.Time      `json:"mentor_decided_at,omitempty"`
	CoolingOffEndsAt   *time.Time      `json:"cooling_off_ends_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
