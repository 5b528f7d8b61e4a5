package models

import (
	"time"

	"github.com/google/uuid"
)

// Approval log decision and approver_role enums.
const (
	DecisionApproved = "approved"
	DecisionDeclined = "declined"
	DecisionReversed = "reversed"

	ApproverRoleParent = "parent"
	ApproverRoleMentor = "mentor"
)

// ApprovalLogEntry is one append-only audit record. Never mutated or
// deleted — it is the audit trail for every decision on a spending request.
type ApprovalLogEntry struct {
	ID                uuid.UUID `json:"id"`
	SpendingRequestID uuid.UUID `json:"spending_request_id"`
	ApproverID        uuid.UUID `json:"approver_id"`
	ApproverRole      string    `json:"approver_role"`
	Decision          string    `json:"decision"`
	Reason            *string   `json:"reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
