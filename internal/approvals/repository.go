package approvals

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// Repository is the append-only approval log. Entries are never updated or
// deleted; every decision on a spending request writes exactly one entry in
// the same transaction as the state transition.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AppendTx inserts a log entry inside the given transaction.
func (r *Repository) AppendTx(ctx context.Context, tx pgx.Tx, e *models.ApprovalLogEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO approval_log (id, spending_request_id, approver_id, approver_role, decision, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.SpendingRequestID, e.ApproverID, e.ApproverRole, e.Decision, e.Reason).Scan(&e.CreatedAt)
}

// ListByRequestID returns the audit trail for one request, oldest first.
func (r *Repository) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.ApprovalLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, spending_request_id, approver_id, approver_role, decision, reason, created_at
		FROM approval_log WHERE spending_request_id = $1 ORDER BY created_at ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ApprovalLogEntry
	for rows.Next() {
		var e models.ApprovalLogEntry
		if err := rows.Scan(&e.ID, &e.SpendingRequestID, &e.ApproverID, &e.ApproverRole, &e.Decision, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
