package spending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/directory"
	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
	"github.com/Stratton1/futurepreneurs-sub000/internal/notify"
	"github.com/Stratton1/futurepreneurs-sub000/internal/velocity"
	"github.com/Stratton1/futurepreneurs-sub000/internal/wallet"
)

// Actor is the authenticated caller of a state-machine operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// CreateInput is the student's purchase ask.
type CreateInput struct {
	CustodialAccountID uuid.UUID
	ProjectID          uuid.UUID
	MilestoneID        *uuid.UUID
	Vendor             string
	Amount             decimal.Decimal
	Reason             string
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RequestStore is the spending-request persistence the manager needs. The
// Mark* methods return false when the request was not in the expected status.
type RequestStore interface {
	Create(ctx context.Context, req *models.SpendingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SpendingRequest, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]*models.SpendingRequest, error)
	MarkPendingMentorTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error)
	MarkDeclinedParentTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error)
	MarkApprovedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt, coolingOffEndsAt time.Time) (bool, error)
	MarkDeclinedMentorTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error)
	MarkReversedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	MarkCompletedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// LimitChecker is the velocity limiter surface the manager needs.
type LimitChecker interface {
	CheckLimits(ctx context.Context, account *models.CustodialAccount, projectID uuid.UUID, proposed decimal.Decimal) (velocity.Decision, error)
}

// ApprovalLog appends one audit entry per decision, inside the decision's
// transaction.
type ApprovalLog interface {
	AppendTx(ctx context.Context, tx pgx.Tx, e *models.ApprovalLogEntry) error
}

// Service is the spending request manager: it owns the request lifecycle and
// orchestrates the wallet ledger, velocity limiter and approval log. Every
// caller is authorized before any ledger access; every transition commits
// status, ledger and log together or not at all.
type Service interface {
	CreateSpendingRequest(ctx context.Context, actor Actor, in CreateInput) (*models.SpendingRequest, error)
	ApproveSpendingRequest(ctx context.Context, actor Actor, requestID uuid.UUID, reason *string) (*models.SpendingRequest, error)
	DeclineSpendingRequest(ctx context.Context, actor Actor, requestID uuid.UUID, reason *string) (*models.SpendingRequest, error)
	ReverseApproval(ctx context.Context, actor Actor, requestID uuid.UUID, reason *string) (*models.SpendingRequest, error)
	MarkCompleted(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.SpendingRequest, error)
	GetRequest(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.SpendingRequest, error)
	ListRequests(ctx context.Context, actor Actor) ([]*models.SpendingRequest, error)
}

type service struct {
	db         TxBeginner
	repo       RequestStore
	wallets    wallet.Service
	limiter    LimitChecker
	log        ApprovalLog
	dir        directory.Service
	notifier   *notify.Notifier
	coolingOff time.Duration
	now        func() time.Time
}

func NewService(db TxBeginner, repo RequestStore, wallets wallet.Service, limiter LimitChecker, log ApprovalLog, dir directory.Service, notifier *notify.Notifier, coolingOff time.Duration) Service {
	return &service{
		db:         db,
		repo:       repo,
		wallets:    wallets,
		limiter:    limiter,
		log:        log,
		dir:        dir,
		notifier:   notifier,
		coolingOff: coolingOff,
		now:        time.Now,
	}
}

var _ Service = (*service)(nil)

// CreateSpendingRequest validates the student's ask and records it in
// pending_parent. No funds move yet; the soft available check and the
// velocity check only stop obviously doomed requests early.
func (s *service) CreateSpendingRequest(ctx context.Context, actor Actor, in CreateInput) (*models.SpendingRequest, error) {
	if actor.Role != models.RoleStudent {
		return nil, fmt.Errorf("%w: only the student may create a request", ErrUnauthorized)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if in.Vendor == "" {
		return nil, fmt.Errorf("%w: vendor is required", ErrValidation)
	}

	account, err := s.dir.GetAccount(ctx, in.CustodialAccountID)
	if err != nil {
		return nil, err
	}
	if account.StudentID != actor.ID {
		return nil, fmt.Errorf("%w: account does not back this student", ErrUnauthorized)
	}
	if !account.Verified() {
		return nil, fmt.Errorf("%w: custodial account is not verified", ErrValidation)
	}

	project, err := s.dir.GetProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.Spendable() {
		return nil, fmt.Errorf("%w: project is not funded", ErrValidation)
	}
	if in.MilestoneID != nil {
		ok, err := s.dir.MilestoneBelongsToProject(ctx, *in.MilestoneID, in.ProjectID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: milestone does not belong to project", ErrValidation)
		}
	}

	// Soft check: balances may change before the guardian approves, and the
	// hold re-validates atomically then.
	bal, err := s.wallets.GetBalance(ctx, in.CustodialAccountID, in.ProjectID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return nil, fmt.Errorf("%w: no funds credited for this project", ErrInsufficientFunds)
		}
		return nil, err
	}
	if in.Amount.GreaterThan(bal.Available) {
		return nil, fmt.Errorf("%w: amount %s exceeds available %s", ErrInsufficientFunds, in.Amount, bal.Available)
	}

	decision, err := s.limiter.CheckLimits(ctx, account, in.ProjectID, in.Amount)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrVelocityLimitExceeded, decision.Reason)
	}

	req := &models.SpendingRequest{
		ID:                 uuid.New(),
		CustodialAccountID: in.CustodialAccountID,
		ProjectID:          in.ProjectID,
		MilestoneID:        in.MilestoneID,
		StudentID:          actor.ID,
		ParentID:           account.GuardianID,
		MentorID:           project.MentorID,
		Vendor:             in.Vendor,
		Amount:             in.Amount,
		Reason:             in.Reason,
		Status:             models.RequestStatusPendingParent,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.notifier.Send(ctx, req.ParentID, notify.TypeSpendingRequest, requestLink(req.ID),
		"A spending request is waiting for your approval")
	return req, nil
}

// ApproveSpendingRequest applies the caller's stage of the sequential
// guardian-then-mentor approval. The guardian's approval places the hold;
// the mentor's approval starts the cooling-off window.
func (s *service) ApproveSpendingRequest(ctx context.Context, actor Actor, requestID uuid.UUID, reason *string) (*models.SpendingRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == models.RoleParent && actor.ID == req.ParentID:
		return s.approveAsParent(ctx, actor, req, reason)
	case actor.Role == models.RoleMentor && actor.ID == req.MentorID:
		return s.approveAsMentor(ctx, actor, req, reason)
	default:
		return nil, ErrUnauthorized
	}
}

func (s *service) approveAsParent(ctx context.Context, actor Actor, req *models.SpendingRequest, reason *string) (*models.SpendingRequest, error) {
	bal, err := s.wallets.GetBalance(ctx, req.CustodialAccountID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	decidedAt := s.now()
	ok, err := s.repo.MarkPendingMentorTx(ctx, tx, req.ID, decidedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStateTransition
	}
	if err := s.wallets.HoldFunds(ctx, tx, bal.ID, req.Amount); err != nil {
		return nil, err
	}
	if err := s.log.AppendTx(ctx, tx, &models.ApprovalLogEntry{
		ID:                uuid.New(),
		SpendingRequestID: req.ID,
		ApproverID:        actor.ID,
		ApproverRole:      models.ApproverRoleParent,
		Decision:          models.DecisionApproved,
		Reason:            reason,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = models.RequestStatusPendingMentor
	req.ParentDecidedAt = &decidedAt
	s.notifier.Send(ctx, req.MentorID, notify.TypeSpendingRequest, requestLink(req.ID),
		"A spending request is waiting for your approval")
	return req, nil
}

func (s *service) approveAsMentor(ctx context.Context, actor Actor, req *models.SpendingRequest, reason *string) (*models.SpendingRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	decidedAt := s.now()
	coolingOffEndsAt := decidedAt.Add(s.coolingOff)
	ok, err := s.repo.MarkApprovedTx(ctx, tx, req.ID, decidedAt, coolingOffEndsAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStateTransition
	}
	if err := s.log.AppendTx(ctx, tx, &models.ApprovalLogEntry{
		ID:                uuid.New(),
		SpendingRequestID: req.ID,
		ApproverID:        actor.ID,
		ApproverRole:      models.ApproverRoleMentor,
		Decision:          models.DecisionApproved,
		Reason:            reason,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = models.RequestStatusApproved
	req.MentorDecidedAt = &decidedAt
	req.CoolingOffEndsAt = &coolingOffEndsAt
	s.notifier.Send(ctx, req.StudentID, notify.TypeSpendingApproved, requestLink(req.ID),
		"Your spending request was approved")
	return req, nil
}

// DeclineSpendingRequest terminates the request at the caller's stage. A
// guardian decline has no ledger effect; a mentor decline releases the hold
// the guardian's approval placed.
func (s *service) DeclineSpendingRequest(ctx context.Context, actor Actor, requestID uuid.UUID, reason *string) (*models.SpendingRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var (
		approverRole string
		mark         func(ctx context.Context, tx pgx.Tx, id uuid.UUID, decidedAt time.Time) (bool, error)
		releaseHold  bool
	)
	switch {
	case actor.Role == models.RoleParent && actor.ID == req.ParentID:
		approverRole = models.ApproverRoleParent
		mark = s.repo.MarkDeclinedParentTx
	case actor.Role == models.RoleMentor && actor.ID == req.MentorID:
		approverRole = models.ApproverRoleMentor
		mark = s.repo.MarkDeclinedMentorTx
		releaseHold = true
	default:
		return nil, ErrUnauthorized
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	decidedAt := s.now()
	ok, err := mark(ctx, tx, req.ID, decidedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStateTransition
	}
	if releaseHold {
		bal, err := s.wallets.GetBalance(ctx, req.CustodialAccountID, req.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := s.wallets.ReleaseHeldToAvailable(ctx, tx, bal.ID, req.Amount); err != nil {
			return nil, err
		}
	}
	if err := s.log.AppendTx(ctx, tx, &models.ApprovalLogEntry{
		ID:                uuid.New(),
		SpendingRequestID: req.ID,
		ApproverID:        actor.ID,
		ApproverRole:      approverRole,
		Decision:          models.DecisionDeclined,
		Reason:            reason,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if approverRole == models.ApproverRoleParent {
		req.Status = models.RequestStatusDeclinedParent
		req.ParentDecidedAt = &decidedAt
	} else {
		req.Status = models.RequestStatusDeclinedMentor
		req.MentorDecidedAt = &decidedAt
	}
	s.notifier.Send(ctx, req.StudentID, notify.TypeSpendingDeclined, requestLink(req.ID),
		"Your spending request was declined")
	return req, nil
}

// ReverseApproval lets either approver undo a final approval while the
// cooling-off window is open. After the window closes the request stays
// approved and the caller must escalate out-of-band.
func (s *service) ReverseApproval(ctx context.Context, actor Actor, requestID uuid.UUID, reason *string) (*models.SpendingRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var approverRole string
	switch {
	case actor.Role == models.RoleParent && actor.ID == req.ParentID:
		approverRole = models.ApproverRoleParent
	case actor.Role == models.RoleMentor && actor.ID == req.MentorID:
		approverRole = models.ApproverRoleMentor
	default:
		return nil, ErrUnauthorized
	}

	if req.Status != models.RequestStatusApproved {
		return nil, ErrInvalidStateTransition
	}
	if req.CoolingOffEndsAt == nil || !s.now().Before(*req.CoolingOffEndsAt) {
		return nil, ErrExpiredWindow
	}

	bal, err := s.wallets.GetBalance(ctx, req.CustodialAccountID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.repo.MarkReversedTx(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStateTransition
	}
	if err := s.wallets.ReleaseHeldToAvailable(ctx, tx, bal.ID, req.Amount); err != nil {
		return nil, err
	}
	if err := s.log.AppendTx(ctx, tx, &models.ApprovalLogEntry{
		ID:                uuid.New(),
		SpendingRequestID: req.ID,
		ApproverID:        actor.ID,
		ApproverRole:      approverRole,
		Decision:          models.DecisionReversed,
		Reason:            reason,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = models.RequestStatusReversed
	s.notifier.Send(ctx, req.StudentID, notify.TypeSpendingReversed, requestLink(req.ID),
		"An approval on your spending request was reversed")
	return req, nil
}

// MarkCompleted is the external purchase system's trigger: the hold becomes
// spent and the request is terminal.
func (s *service) MarkCompleted(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.SpendingRequest, error) {
	if actor.Role != models.RoleSystem {
		return nil, fmt.Errorf("%w: only the purchase system may complete a request", ErrUnauthorized)
	}
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	bal, err := s.wallets.GetBalance(ctx, req.CustodialAccountID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ok, err := s.repo.MarkCompletedTx(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidStateTransition
	}
	if err := s.wallets.SettleHeldToSpent(ctx, tx, bal.ID, req.Amount); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	req.Status = models.RequestStatusCompleted
	return req, nil
}

func (s *service) GetRequest(ctx context.Context, actor Actor, requestID uuid.UUID) (*models.SpendingRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(actor, req) {
		return nil, ErrUnauthorized
	}
	return req, nil
}

func (s *service) ListRequests(ctx context.Context, actor Actor) ([]*models.SpendingRequest, error) {
	return s.repo.ListByParticipant(ctx, actor.ID)
}

func isParticipant(actor Actor, req *models.SpendingRequest) bool {
	if actor.Role == models.RoleSystem {
		return true
	}
	return actor.ID == req.StudentID || actor.ID == req.ParentID || actor.ID == req.MentorID
}

func requestLink(id uuid.UUID) string {
	return "/spending-requests/" + id.String()
}
