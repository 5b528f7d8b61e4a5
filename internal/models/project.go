package models

import (
	"time"

	"github.com/google/uuid"
)

// Project status enums as reported by the project directory. Spending is
// only allowed against funded or completed projects.
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusLive      = "live"
	ProjectStatusFunded    = "funded"
	ProjectStatusCompleted = "completed"
)

// Project is the directory's view of a student project: enough to validate
// spending requests (status, who mentors it) and nothing more. Owned by the
// external project directory.
type Project struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	MentorID  uuid.UUID `json:"mentor_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Spendable reports whether project funds may be spent.
func (p *Project) Spendable() bool {
	return p.Status == ProjectStatusFunded || p.Status == ProjectStatusCompleted
}
