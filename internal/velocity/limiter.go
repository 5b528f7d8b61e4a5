package velocity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// Caps are spend-rate limits. A zero cap means the limit is not enforced.
type Caps struct {
	PerTransaction decimal.Decimal
	Daily          decimal.Decimal
	Weekly         decimal.Decimal
}

// Decision is the limiter's verdict on a proposed spend.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// SpendReader sums committed spending-request amounts created since a point
// in time. Committed means pending_mentor, approved or completed; requests
// still waiting on the parent are excluded because no funds are held yet.
type SpendReader interface {
	CommittedSpendSince(ctx context.Context, accountID, projectID uuid.UUID, since time.Time) (decimal.Decimal, error)
}

// Limiter evaluates proposed spends against per-transaction, daily and
// weekly caps. Daily and weekly windows are rolling (24h / 7x24h), not
// calendar-aligned. Per-account cap overrides take precedence over the
// service defaults. All arithmetic is exact decimal.
type Limiter struct {
	reader   SpendReader
	defaults Caps
	now      func() time.Time
}

func NewLimiter(reader SpendReader, defaults Caps) *Limiter {
	return &Limiter{reader: reader, defaults: defaults, now: time.Now}
}

// CheckLimits returns whether proposed may be spent for the account/project
// pair. The rolling sums include proposed itself.
func (l *Limiter) CheckLimits(ctx context.Context, account *models.CustodialAccount, projectID uuid.UUID, proposed decimal.Decimal) (Decision, error) {
	perTxn := capFor(account.MaxPerTransaction, l.defaults.PerTransaction)
	if perTxn.IsPositive() && proposed.GreaterThan(perTxn) {
		return deny("amount %s exceeds per-transaction limit %s", proposed, perTxn), nil
	}

	daily := capFor(account.MaxPerDay, l.defaults.Daily)
	if daily.IsPositive() {
		spent, err := l.reader.CommittedSpendSince(ctx, account.ID, projectID, l.now().Add(-24*time.Hour))
		if err != nil {
			return Decision{}, err
		}
		if spent.Add(proposed).GreaterThan(daily) {
			return deny("daily spend %s plus amount %s exceeds daily limit %s", spent, proposed, daily), nil
		}
	}

	weekly := capFor(account.MaxPerWeek, l.defaults.Weekly)
	if weekly.IsPositive() {
		spent, err := l.reader.CommittedSpendSince(ctx, account.ID, projectID, l.now().Add(-7*24*time.Hour))
		if err != nil {
			return Decision{}, err
		}
		if spent.Add(proposed).GreaterThan(weekly) {
			return deny("weekly spend %s plus amount %s exceeds weekly limit %s", spent, proposed, weekly), nil
		}
	}

	return Decision{Allowed: true}, nil
}

func capFor(override *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return fallback
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}
