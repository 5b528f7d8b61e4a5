package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Custodial account verification_status enums. The status is owned by the
// external identity/custody service; this core only reads it.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationFailed   = "failed"
)

// CustodialAccount is the guardian-controlled account backing a student.
// Never hard-deleted. The Max* fields override the service-wide velocity
// caps when set.
type CustodialAccount struct {
	ID                 uuid.UUID        `json:"id"`
	GuardianID         uuid.UUID        `json:"guardian_id"`
	StudentID          uuid.UUID        `json:"student_id"`
	VerificationStatus string           `json:"verification_status"`
	MaxPerTransaction  *decimal.Decimal `json:"max_per_transaction,omitempty"`
	MaxPerDay          *decimal.Decimal `json:"max_per_day,omitempty"`
	MaxPerWeek         *decimal.Decimal `json:"max_per_week,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Verified reports whether the external custody service has verified the account.
func (a *CustodialAccount) Verified() bool {
	return a.VerificationStatus == VerificationVerified
}
