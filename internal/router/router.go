package router

import (
	"net/http"

	"github.com/Stratton1/futurepreneurs-sub000/internal/dashboard"
	"github.com/Stratton1/futurepreneurs-sub000/internal/middleware"
	"github.com/Stratton1/futurepreneurs-sub000/internal/spending"
	"github.com/Stratton1/futurepreneurs-sub000/internal/wallet"
)

// New returns an http.Handler serving the API under /api/v1. Every route sits
// behind session auth; role and participant checks live in the services.
func New(spendingHandler *spending.Handler, walletHandler *wallet.Handler, dashboardHandler *dashboard.Handler, jwtSecret []byte) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.SessionAuth(jwtSecret)
	base := "/api/v1"

	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, auth(h))
	}

	handle("POST "+base+"/spending-requests", spendingHandler.Create)
	handle("GET "+base+"/spending-requests", spendingHandler.List)
	handle("GET "+base+"/spending-requests/{id}", spendingHandler.Get)
	handle("GET "+base+"/spending-requests/{id}/log", spendingHandler.ApprovalLog)
	handle("POST "+base+"/spending-requests/{id}/approve", spendingHandler.Approve)
	handle("POST "+base+"/spending-requests/{id}/decline", spendingHandler.Decline)
	handle("POST "+base+"/spending-requests/{id}/reverse", spendingHandler.Reverse)
	handle("POST "+base+"/spending-requests/{id}/complete", spendingHandler.Complete)

	handle("GET "+base+"/wallets/{accountID}/{projectID}", walletHandler.GetBalance)
	handle("POST "+base+"/wallets/{accountID}/{projectID}/credit", walletHandler.Credit)

	handle("POST "+base+"/velocity/check", spendingHandler.VelocityCheck)

	handle("GET "+base+"/dashboard", dashboardHandler.Get)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}
