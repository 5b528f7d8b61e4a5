package spending

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/directory"
	"github.com/Stratton1/futurepreneurs-sub000/internal/middleware"
	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
	"github.com/Stratton1/futurepreneurs-sub000/internal/wallet"
)

// LogReader is the approval-log read surface the handler needs.
type LogReader interface {
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.ApprovalLogEntry, error)
}

// Handler serves the /api/v1/spending-requests and /api/v1/velocity endpoints.
type Handler struct {
	Service   Service
	Log       LogReader
	Directory directory.Service
	Limiter   LimitChecker
	Logger    *slog.Logger
}

func NewHandler(svc Service, log LogReader, dir directory.Service, limiter LimitChecker, logger *slog.Logger) *Handler {
	return &Handler{Service: svc, Log: log, Directory: dir, Limiter: limiter, Logger: logger}
}

type createRequestBody struct {
	CustodialAccountID string          `json:"custodial_account_id"`
	ProjectID          string          `json:"project_id"`
	MilestoneID        string          `json:"milestone_id,omitempty"`
	Vendor             string          `json:"vendor"`
	Amount             decimal.Decimal `json:"amount"`
	Reason             string          `json:"reason"`
}

type decisionBody struct {
	Reason *string `json:"reason,omitempty"`
}

// Create handles POST /api/v1/spending-requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	accountID, err := uuid.Parse(body.CustodialAccountID)
	if err != nil {
		http.Error(w, `{"error":"invalid custodial_account_id"}`, http.StatusBadRequest)
		return
	}
	projectID, err := uuid.Parse(body.ProjectID)
	if err != nil {
		http.Error(w, `{"error":"invalid project_id"}`, http.StatusBadRequest)
		return
	}
	var milestoneID *uuid.UUID
	if body.MilestoneID != "" {
		id, err := uuid.Parse(body.MilestoneID)
		if err != nil {
			http.Error(w, `{"error":"invalid milestone_id"}`, http.StatusBadRequest)
			return
		}
		milestoneID = &id
	}

	req, err := h.Service.CreateSpendingRequest(r.Context(), actorFor(caller), CreateInput{
		CustodialAccountID: accountID,
		ProjectID:          projectID,
		MilestoneID:        milestoneID,
		Vendor:             body.Vendor,
		Amount:             body.Amount,
		Reason:             body.Reason,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// Get handles GET /api/v1/spending-requests/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := requestIDFrom(w, r)
	if !ok {
		return
	}
	req, err := h.Service.GetRequest(r.Context(), actorFor(caller), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// List handles GET /api/v1/spending-requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ListRequests(r.Context(), actorFor(caller))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Approve handles POST /api/v1/spending-requests/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.ApproveSpendingRequest)
}

// Decline handles POST /api/v1/spending-requests/{id}/decline.
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.DeclineSpendingRequest)
}

// Reverse handles POST /api/v1/spending-requests/{id}/reverse.
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.ReverseApproval)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, Actor, uuid.UUID, *string) (*models.SpendingRequest, error)) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := requestIDFrom(w, r)
	if !ok {
		return
	}
	var body decisionBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
	}
	req, err := op(r.Context(), actorFor(caller), id, body.Reason)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Complete handles POST /api/v1/spending-requests/{id}/complete — the
// external purchase system's callback.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := requestIDFrom(w, r)
	if !ok {
		return
	}
	req, err := h.Service.MarkCompleted(r.Context(), actorFor(caller), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// ApprovalLog handles GET /api/v1/spending-requests/{id}/log.
func (h *Handler) ApprovalLog(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := requestIDFrom(w, r)
	if !ok {
		return
	}
	// GetRequest enforces that the caller is a participant.
	if _, err := h.Service.GetRequest(r.Context(), actorFor(caller), id); err != nil {
		h.writeErr(w, err)
		return
	}
	entries, err := h.Log.ListByRequestID(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type velocityCheckBody struct {
	CustodialAccountID string          `json:"custodial_account_id"`
	ProjectID          string          `json:"project_id"`
	Amount             decimal.Decimal `json:"amount"`
}

// VelocityCheck handles POST /api/v1/velocity/check — a dry-run limit
// evaluation that changes nothing.
func (h *Handler) VelocityCheck(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	var body velocityCheckBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	accountID, err := uuid.Parse(body.CustodialAccountID)
	if err != nil {
		http.Error(w, `{"error":"invalid custodial_account_id"}`, http.StatusBadRequest)
		return
	}
	projectID, err := uuid.Parse(body.ProjectID)
	if err != nil {
		http.Error(w, `{"error":"invalid project_id"}`, http.StatusBadRequest)
		return
	}
	if !body.Amount.IsPositive() {
		http.Error(w, `{"error":"amount must be positive"}`, http.StatusBadRequest)
		return
	}

	account, err := h.Directory.GetAccount(r.Context(), accountID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	decision, err := h.Limiter.CheckLimits(r.Context(), account, projectID, body.Amount)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*middleware.Caller, bool) {
	caller := middleware.CallerFromCtx(r.Context())
	if caller == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return nil, false
	}
	return caller, true
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation) || errors.Is(err, wallet.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, wallet.ErrInsufficientFunds):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrVelocityLimitExceeded):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, wallet.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrExpiredWindow):
		writeJSON(w, http.StatusGone, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound), errors.Is(err, wallet.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.Logger.Error("spending request", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func actorFor(c *middleware.Caller) Actor {
	return Actor{ID: c.ID, Role: c.Role}
}

func requestIDFrom(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid request id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
