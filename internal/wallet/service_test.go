package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The validations run before any repository call, so a nil repository is
// fine for these cases.
func TestMovementsRejectNonPositiveAmounts(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()
	id := uuid.New()

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		if _, err := svc.CreditAvailable(ctx, id, id, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("CreditAvailable(%s): got %v, want ErrInvalidAmount", amount, err)
		}
		if err := svc.HoldFunds(ctx, nil, id, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("HoldFunds(%s): got %v, want ErrInvalidAmount", amount, err)
		}
		if err := svc.ReleaseHeldToAvailable(ctx, nil, id, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ReleaseHeldToAvailable(%s): got %v, want ErrInvalidAmount", amount, err)
		}
		if err := svc.SettleHeldToSpent(ctx, nil, id, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("SettleHeldToSpent(%s): got %v, want ErrInvalidAmount", amount, err)
		}
	}
}
