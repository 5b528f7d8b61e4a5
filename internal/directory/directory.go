package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// ErrNotFound is returned when the directory has no record for the given id.
var ErrNotFound = errors.New("directory record not found")

// Service is the read surface this core consumes from its external
// collaborators: project status and mentor identity from the project
// directory, and custodial-account verification state from the
// identity/custody service. Nothing here is mutated by this core.
type Service interface {
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*models.CustodialAccount, error)
	MilestoneBelongsToProject(ctx context.Context, milestoneID, projectID uuid.UUID) (bool, error)
}
