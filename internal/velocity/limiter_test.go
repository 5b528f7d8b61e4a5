package velocity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// fakeReader returns canned sums keyed by how far back the window reaches.
type fakeReader struct {
	daily  decimal.Decimal
	weekly decimal.Decimal
	now    time.Time

	calls []time.Time
}

func (f *fakeReader) CommittedSpendSince(_ context.Context, _, _ uuid.UUID, since time.Time) (decimal.Decimal, error) {
	f.calls = append(f.calls, since)
	if f.now.Sub(since) > 25*time.Hour {
		return f.weekly, nil
	}
	return f.daily, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testAccount() *models.CustodialAccount {
	return &models.CustodialAccount{
		ID:                 uuid.New(),
		VerificationStatus: models.VerificationVerified,
	}
}

func TestCheckLimits_PerTransaction(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{now: now}
	l := NewLimiter(reader, Caps{PerTransaction: d("25")})
	l.now = func() time.Time { return now }

	dec, err := l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("25"))
	require.NoError(t, err)
	assert.True(t, dec.Allowed, "amount equal to the cap is allowed")

	dec, err = l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("25.01"))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "per-transaction")

	// The per-transaction check never needs the spend history.
	assert.Empty(t, reader.calls)
}

func TestCheckLimits_DailyRollingWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{now: now, daily: d("60")}
	l := NewLimiter(reader, Caps{Daily: d("50")})
	l.now = func() time.Time { return now }

	// 60 already committed in the last 24h, so even a small ask is denied.
	dec, err := l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("25"))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "daily")

	// The window is rolling from now, not calendar-aligned.
	require.Len(t, reader.calls, 1)
	assert.Equal(t, now.Add(-24*time.Hour), reader.calls[0])
}

func TestCheckLimits_DailyAllowsUpToCap(t *testing.T) {
	now := time.Now()
	reader := &fakeReader{now: now, daily: d("30")}
	l := NewLimiter(reader, Caps{Daily: d("50")})
	l.now = func() time.Time { return now }

	dec, err := l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("20"))
	require.NoError(t, err)
	assert.True(t, dec.Allowed, "30 committed plus 20 proposed hits the cap exactly")

	dec, err = l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("20.01"))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
}

func TestCheckLimits_WeeklyWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	reader := &fakeReader{now: now, daily: d("10"), weekly: d("190")}
	l := NewLimiter(reader, Caps{Daily: d("50"), Weekly: d("200")})
	l.now = func() time.Time { return now }

	dec, err := l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("15"))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Contains(t, dec.Reason, "weekly")

	require.Len(t, reader.calls, 2)
	assert.Equal(t, now.Add(-7*24*time.Hour), reader.calls[1])
}

func TestCheckLimits_ZeroCapNotEnforced(t *testing.T) {
	reader := &fakeReader{now: time.Now(), daily: d("1000000")}
	l := NewLimiter(reader, Caps{})

	dec, err := l.CheckLimits(context.Background(), testAccount(), uuid.New(), d("99999"))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Empty(t, reader.calls, "unenforced caps must not query spend history")
}

func TestCheckLimits_AccountOverrideWins(t *testing.T) {
	now := time.Now()
	reader := &fakeReader{now: now}
	l := NewLimiter(reader, Caps{PerTransaction: d("100")})
	l.now = func() time.Time { return now }

	account := testAccount()
	override := d("10")
	account.MaxPerTransaction = &override

	dec, err := l.CheckLimits(context.Background(), account, uuid.New(), d("15"))
	require.NoError(t, err)
	assert.False(t, dec.Allowed, "tighter per-account cap overrides the default")

	// An override can also loosen the default.
	loose := d("500")
	account.MaxPerTransaction = &loose
	dec, err = l.CheckLimits(context.Background(), account, uuid.New(), d("150"))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}
