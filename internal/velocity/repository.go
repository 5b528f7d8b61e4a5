package velocity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// committedStatuses are the request states whose amounts count toward
// velocity limits: funds are held or already spent.
var committedStatuses = []string{
	models.RequestStatusPendingMentor,
	models.RequestStatusApproved,
	models.RequestStatusCompleted,
}

// Repository is the limiter's windowed read model over spending requests.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ SpendReader = (*Repository)(nil)

func (r *Repository) CommittedSpendSince(ctx context.Context, accountID, projectID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM spending_requests
		WHERE custodial_account_id = $1 AND project_id = $2
		  AND status = ANY($3)
		  AND created_at >= $4
	`, accountID, projectID, committedStatuses, since).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
