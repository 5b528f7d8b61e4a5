package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// Repository reads the projects, milestones and custodial_accounts tables.
// These rows are written by the surrounding application and the external
// verification service; this core only reads them.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Service = (*Repository)(nil)

func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, student_id, mentor_id, title, status, created_at, updated_at
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.StudentID, &p.MentorID, &p.Title, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*models.CustodialAccount, error) {
	var a models.CustodialAccount
	err := r.pool.QueryRow(ctx, `
		SELECT id, guardian_id, student_id, verification_status, max_per_transaction, max_per_day, max_per_week, created_at, updated_at
		FROM custodial_accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.GuardianID, &a.StudentID, &a.VerificationStatus, &a.MaxPerTransaction, &a.MaxPerDay, &a.MaxPerWeek, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) MilestoneBelongsToProject(ctx context.Context, milestoneID, projectID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM milestones WHERE id = $1 AND project_id = $2)
	`, milestoneID, projectID).Scan(&exists)
	return exists, err
}
