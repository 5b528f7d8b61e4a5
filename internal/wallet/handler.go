package wallet

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Stratton1/futurepreneurs-sub000/internal/middleware"
	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
)

// Handler serves the /api/v1/wallets endpoints.
type Handler struct {
	Service Service
	Logger  *slog.Logger
}

func NewHandler(svc Service, logger *slog.Logger) *Handler {
	return &Handler{Service: svc, Logger: logger}
}

// GetBalance handles GET /api/v1/wallets/{accountID}/{projectID}.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromCtx(r.Context())
	if caller == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	accountID, projectID, ok := walletPath(w, r)
	if !ok {
		return
	}
	bal, err := h.Service.GetBalance(r.Context(), accountID, projectID)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

type creditBody struct {
	Amount decimal.Decimal `json:"amount"`
}

// Credit handles POST /api/v1/wallets/{accountID}/{projectID}/credit — the
// milestone drawdown event from the external funds system.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromCtx(r.Context())
	if caller == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if caller.Role != models.RoleSystem {
		http.Error(w, `{"error":"only the funds system may credit wallets"}`, http.StatusForbidden)
		return
	}
	accountID, projectID, ok := walletPath(w, r)
	if !ok {
		return
	}
	var body creditBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	bal, err := h.Service.CreditAvailable(r.Context(), accountID, projectID, body.Amount)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bal)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.Logger.Error("wallet", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func walletPath(w http.ResponseWriter, r *http.Request) (accountID, projectID uuid.UUID, ok bool) {
	accountID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		http.Error(w, `{"error":"invalid account id"}`, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	projectID, err = uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		http.Error(w, `{"error":"invalid project id"}`, http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return accountID, projectID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
