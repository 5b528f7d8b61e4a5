package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

var (
	// ErrNotFound is returned when no wallet exists for the account/project pair.
	ErrNotFound = errors.New("wallet not found")
	// ErrInsufficientFunds is returned when the source bucket cannot cover the
	// requested movement at the moment of the atomic check.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrConflict is returned when an optimistic update loses its race twice.
	ErrConflict = errors.New("wallet update conflict")
)

const walletColumns = `id, custodial_account_id, project_id, available, held, spent, version, created_at, updated_at`

// Repository stores wallet balances. All mutations are optimistic
// compare-and-updates guarded on the row version plus the balance
// precondition: a losing mutation re-reads and retries once, then fails
// cleanly. Two racing holds that would jointly exceed available can never
// both succeed.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetBalance(ctx context.Context, accountID, projectID uuid.UUID) (*models.WalletBalance, error) {
	var w models.WalletBalance
	err := r.pool.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallet_balances WHERE custodial_account_id = $1 AND project_id = $2
	`, accountID, projectID).Scan(&w.ID, &w.CustodialAccountID, &w.ProjectID, &w.Available, &w.Held, &w.Spent, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) GetByID(ctx context.Context, walletID uuid.UUID) (*models.WalletBalance, error) {
	var w models.WalletBalance
	err := r.pool.QueryRow(ctx, `
		SELECT `+walletColumns+` FROM wallet_balances WHERE id = $1
	`, walletID).Scan(&w.ID, &w.CustodialAccountID, &w.ProjectID, &w.Available, &w.Held, &w.Spent, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreditAvailable applies a milestone drawdown, creating the wallet row on
// the first credit. The upsert is a single statement, so no version guard is
// needed.
func (r *Repository) CreditAvailable(ctx context.Context, accountID, projectID uuid.UUID, amount decimal.Decimal) (*models.WalletBalance, error) {
	var w models.WalletBalance
	err := r.pool.QueryRow(ctx, `
		INSERT INTO wallet_balances (id, custodial_account_id, project_id, available, held, spent, version)
		VALUES ($1, $2, $3, $4, 0, 0, 1)
		ON CONFLICT (custodial_account_id, project_id) DO UPDATE
		SET available = wallet_balances.available + EXCLUDED.available,
		    version = wallet_balances.version + 1,
		    updated_at = now()
		RETURNING `+walletColumns+`
	`, uuid.New(), accountID, projectID, amount).Scan(&w.ID, &w.CustodialAccountID, &w.ProjectID, &w.Available, &w.Held, &w.Spent, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// HoldFunds moves amount from available to held. Call within the transition's
// transaction.
func (r *Repository) HoldFunds(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.move(ctx, tx, walletID, amount, "available", "held")
}

// ReleaseHeldToAvailable moves amount from held back to available (decline or
// reversal).
func (r *Repository) ReleaseHeldToAvailable(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.move(ctx, tx, walletID, amount, "held", "available")
}

// SettleHeldToSpent moves amount from held to spent (external completion
// trigger).
func (r *Repository) SettleHeldToSpent(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.move(ctx, tx, walletID, amount, "held", "spent")
}

// move transfers amount between two balance buckets on one wallet row.
// The UPDATE is guarded on the version read just before it and on the source
// bucket covering the amount; a lost race gets one fresh re-read and retry.
func (r *Repository) move(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal, from, to string) error {
	for attempt := 0; attempt < 2; attempt++ {
		var version int64
		var source decimal.Decimal
		err := tx.QueryRow(ctx, `
			SELECT version, `+from+` FROM wallet_balances WHERE id = $1
		`, walletID).Scan(&version, &source)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if source.LessThan(amount) {
			return ErrInsufficientFunds
		}
		tag, err := tx.Exec(ctx, `
			UPDATE wallet_balances
			SET `+from+` = `+from+` - $1, `+to+` = `+to+` + $1, version = version + 1, updated_at = now()
			WHERE id = $2 AND version = $3 AND `+from+` >= $1
		`, amount, walletID, version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}
	return ErrConflict
}
