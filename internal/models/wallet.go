package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletBalance is the per-(custodial account, project) balance row.
// Invariant: available >= 0, held >= 0, and available + held never exceeds
// cumulative credits minus spent. Version is the optimistic-update guard;
// every mutation bumps it.
type WalletBalance struct {
	ID                 uuid.UUID       `json:"id"`
	CustodialAccountID uuid.UUID       `json:"custodial_account_id"`
	ProjectID          uuid.UUID       `json:"project_id"`
	Available          decimal.Decimal `json:"available"`
	Held               decimal.Decimal `json:"held"`
	Spent              decimal.Decimal `json:"spent"`
	Version            int64           `json:"-"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
