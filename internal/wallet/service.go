package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// ErrInvalidAmount is returned for zero or negative movement amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// Service is the wallet ledger: per-(account, project) balances with atomic
// available/held/spent movements. The hold/release/settle operations run
// inside the caller's transaction so a transition either fully commits or
// fully fails.
type Service interface {
	GetBalance(ctx context.Context, accountID, projectID uuid.UUID) (*models.WalletBalance, error)
	CreditAvailable(ctx context.Context, accountID, projectID uuid.UUID, amount decimal.Decimal) (*models.WalletBalance, error)
	HoldFunds(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error
	ReleaseHeldToAvailable(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error
	SettleHeldToSpent(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) GetBalance(ctx context.Context, accountID, projectID uuid.UUID) (*models.WalletBalance, error) {
	return s.repo.GetBalance(ctx, accountID, projectID)
}

func (s *service) CreditAvailable(ctx context.Context, accountID, projectID uuid.UUID, amount decimal.Decimal) (*models.WalletBalance, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.repo.CreditAvailable(ctx, accountID, projectID, amount)
}

func (s *service) HoldFunds(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.HoldFunds(ctx, tx, walletID, amount)
}

func (s *service) ReleaseHeldToAvailable(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.ReleaseHeldToAvailable(ctx, tx, walletID, amount)
}

func (s *service) SettleHeldToSpent(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return s.repo.SettleHeldToSpent(ctx, tx, walletID, amount)
}
