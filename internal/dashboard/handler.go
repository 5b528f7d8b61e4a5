package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/middleware"
	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
	"github.com/Stratton1/futurepreneurs-sub000/internal/spending"
	"github.com/Stratton1/futurepreneurs-sub000/internal/wallet"
)

// Handler serves GET /api/v1/dashboard: one aggregated view of the caller's
// spending activity so clients don't have to stitch it together from the
// individual endpoints.
type Handler struct {
	Spending spending.Service
	Wallets  wallet.Service
	Logger   *slog.Logger
}

func NewHandler(spendingSvc spending.Service, wallets wallet.Service, logger *slog.Logger) *Handler {
	return &Handler{Spending: spendingSvc, Wallets: wallets, Logger: logger}
}

type balanceView struct {
	CustodialAccountID uuid.UUID       `json:"custodial_account_id"`
	ProjectID          uuid.UUID       `json:"project_id"`
	Available          decimal.Decimal `json:"available"`
	Held               decimal.Decimal `json:"held"`
	Spent              decimal.Decimal `json:"spent"`
}

type view struct {
	RequestsByStatus map[string]int            `json:"requests_by_status"`
	AwaitingMe       []*models.SpendingRequest `json:"awaiting_me"`
	Balances         []balanceView             `json:"balances"`
}

// Get handles GET /api/v1/dashboard.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromCtx(r.Context())
	if caller == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	actor := spending.Actor{ID: caller.ID, Role: caller.Role}

	requests, err := h.Spending.ListRequests(r.Context(), actor)
	if err != nil {
		h.Logger.Error("dashboard list", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	out := view{
		RequestsByStatus: make(map[string]int),
		AwaitingMe:       []*models.SpendingRequest{},
		Balances:         []balanceView{},
	}

	type pair struct{ account, project uuid.UUID }
	seen := make(map[pair]bool)
	for _, req := range requests {
		out.RequestsByStatus[req.Status]++
		if awaitsDecision(req, caller) {
			out.AwaitingMe = append(out.AwaitingMe, req)
		}
		p := pair{req.CustodialAccountID, req.ProjectID}
		if seen[p] {
			continue
		}
		seen[p] = true
		bal, err := h.Wallets.GetBalance(r.Context(), p.account, p.project)
		if err != nil {
			if errors.Is(err, wallet.ErrNotFound) {
				continue
			}
			h.Logger.Error("dashboard balance", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		out.Balances = append(out.Balances, balanceView{
			CustodialAccountID: bal.CustodialAccountID,
			ProjectID:          bal.ProjectID,
			Available:          bal.Available,
			Held:               bal.Held,
			Spent:              bal.Spent,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

// awaitsDecision reports whether the request sits in the caller's queue.
func awaitsDecision(req *models.SpendingRequest, caller *middleware.Caller) bool {
	switch req.Status {
	case models.RequestStatusPendingParent:
		return caller.Role == models.RoleParent && caller.ID == req.ParentID
	case models.RequestStatusPendingMentor:
		return caller.Role == models.RoleMentor && caller.ID == req.MentorID
	}
	return false
}
