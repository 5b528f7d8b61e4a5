package spending

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

const requestColumns = `id, custodial_account_id, project_id, milestone_id, student_id, parent_id, mentor_id,
	vendor, amount, reason, status, parent_decided_at, mentor_decided_at, cooling_off_ends_at, created_at, updated_at`

// Repository stores spending requests. Every status change is a conditional
// UPDATE guarded on the expected current status; the caller treats zero rows
// affected as an invalid transition.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) Create(ctx context.Context, req *models.SpendingRequest) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO spending_requests (id, custodial_account_id, project_id, milestone_id, student_id, parent_id, mentor_id, vendor, amount, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, req.ID, req.CustodialAccountID, req.ProjectID, req.MilestoneID, req.StudentID, req.ParentID, req.MentorID,
		req.Vendor, req.Amount, req.Reason, req.Status).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.SpendingRequest, error) {
	var req models.SpendingRequest
	err := r.pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM spending_requests WHERE id = $1
	`, id).Scan(&req.ID, &req.CustodialAccountID, &req.ProjectID, &req.MilestoneID, &req.StudentID, &req.ParentID, &req.MentorID,
		&req.Vendor, &req.Amount, &req.Reason, &req.Status, &req.ParentDecidedAt, &req.MentorDecidedAt, &req.CoolingOffEndsAt, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByParticipant returns requests the given user is a party to, newest first.
func (r *Repository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*models.SpendingRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM spending_requests
		WHERE student_id = $1 OR parent_id = $1 OR mentor_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.SpendingRequest
	for rows.Next() {
		var req models.SpendingRequest
		if err := rows.Scan(&req.ID, &req.CustodialAccountID, &req.ProjectID, &req.MilestoneID, &req.StudentID, &req.ParentID, &req.MentorID,
			&req.Vendor, &req.Amount, &req.Reason, &req.Status, &req.ParentDecidedAt, &req.MentorDecidedAt, &req.CoolingOffEndsAt, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &req)
	}
	return list, rows.Err()
}

// MarkPendingMentorTx advances pending_parent -> pending_mentor. Returns
// false when the request was not in pending_parent.
func (r *Repository) MarkPendingMentorTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE spending_requests SET status = $2, parent_decided_at = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`, id, models.RequestStatusPendingMentor, decidedAt, models.RequestStatusPendingParent)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkDeclinedParentTx terminates pending_parent -> declined_parent.
func (r *Repository) MarkDeclinedParentTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE spending_requests SET status = $2, parent_decided_at = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`, id, models.RequestStatusDeclinedParent, decidedAt, models.RequestStatusPendingParent)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkApprovedTx advances pending_mentor -> approved and stamps the
// cooling-off deadline.
func (r *Repository) MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt, coolingOffEndsAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE spending_requests SET status = $2, mentor_decided_at = $3, cooling_off_ends_at = $4, updated_at = now()
		WHERE id = $1 AND status = $5
	`, id, models.RequestStatusApproved, decidedAt, coolingOffEndsAt, models.RequestStatusPendingMentor)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkDeclinedMentorTx terminates pending_mentor -> declined_mentor.
func (r *Repository) MarkDeclinedMentorTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE spending_requests SET status = $2, mentor_decided_at = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`, id, models.RequestStatusDeclinedMentor, decidedAt, models.RequestStatusPendingMentor)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkReversedTx terminates approved -> reversed.
func (r *Repository) MarkReversedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE spending_requests SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, id, models.RequestStatusReversed, models.RequestStatusApproved)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCompletedTx terminates approved -> completed.
func (r *Repository) MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE spending_requests SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, id, models.RequestStatusCompleted, models.RequestStatusApproved)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
