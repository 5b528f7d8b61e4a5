package spending

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Stratton1/futurepreneurs-sub000/internal/middleware"
	"github.com/Stratton1/futurepreneurs-sub000/internal/models"
	"github.com/Stratton1/futurepreneurs-sub000/internal/velocity"
)

// stubService returns canned results so the handler's decoding, routing and
// error mapping can be tested in isolation.
type stubService struct {
	req  *models.SpendingRequest
	list []*models.SpendingRequest
	err  error
}

func (s *stubService) CreateSpendingRequest(context.Context, Actor, CreateInput) (*models.SpendingRequest, error) {
	return s.req, s.err
}
func (s *stubService) ApproveSpendingRequest(context.Context, Actor, uuid.UUID, *string) (*models.SpendingRequest, error) {
	return s.req, s.err
}
func (s *stubService) DeclineSpendingRequest(context.Context, Actor, uuid.UUID, *string) (*models.SpendingRequest, error) {
	return s.req, s.err
}
func (s *stubService) ReverseApproval(context.Context, Actor, uuid.UUID, *string) (*models.SpendingRequest, error) {
	return s.req, s.err
}
func (s *stubService) MarkCompleted(context.Context, Actor, uuid.UUID) (*models.SpendingRequest, error) {
	return s.req, s.err
}
func (s *stubService) GetRequest(context.Context, Actor, uuid.UUID) (*models.SpendingRequest, error) {
	return s.req, s.err
}
func (s *stubService) ListRequests(context.Context, Actor) ([]*models.SpendingRequest, error) {
	return s.list, s.err
}

type stubLog struct {
	entries []*models.ApprovalLogEntry
}

func (s *stubLog) ListByRequestID(context.Context, uuid.UUID) ([]*models.ApprovalLogEntry, error) {
	return s.entries, nil
}

func newTestHandler(svc Service) *Handler {
	return NewHandler(svc, &stubLog{}, nil, nil, discardLogger())
}

// do runs a request through the handler with an authenticated caller and the
// {id} path value set, mirroring what the router provides.
func do(t *testing.T, handlerFn http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	} else {
		rdr = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, rdr)
	req.SetPathValue("id", uuid.NewString())
	caller := &middleware.Caller{ID: uuid.New(), Role: models.RoleParent}
	req = req.WithContext(middleware.WithCaller(req.Context(), caller))
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func TestHandlerCreate(t *testing.T) {
	want := &models.SpendingRequest{ID: uuid.New(), Status: models.RequestStatusPendingParent}
	h := newTestHandler(&stubService{req: want})

	body, _ := json.Marshal(map[string]any{
		"custodial_account_id": uuid.NewString(),
		"project_id":           uuid.NewString(),
		"vendor":               "Maplin Components",
		"amount":               "40.00",
	})
	rec := do(t, h.Create, http.MethodPost, "/api/v1/spending-requests", string(body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body %s", rec.Code, rec.Body)
	}
	var got models.SpendingRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("response id: got %s, want %s", got.ID, want.ID)
	}
}

func TestHandlerCreate_BadBody(t *testing.T) {
	h := newTestHandler(&stubService{})

	rec := do(t, h.Create, http.MethodPost, "/api/v1/spending-requests", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: got %d, want 400", rec.Code)
	}

	rec = do(t, h.Create, http.MethodPost, "/api/v1/spending-requests",
		`{"custodial_account_id":"nope","project_id":"nope","vendor":"v","amount":"1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad uuids: got %d, want 400", rec.Code)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusForbidden},
		{ErrInsufficientFunds, http.StatusPaymentRequired},
		{ErrVelocityLimitExceeded, http.StatusUnprocessableEntity},
		{ErrInvalidStateTransition, http.StatusConflict},
		{ErrExpiredWindow, http.StatusGone},
		{ErrNotFound, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := newTestHandler(&stubService{err: tc.err})
			rec := do(t, h.Approve, http.MethodPost, "/api/v1/spending-requests/x/approve", "")
			if rec.Code != tc.want {
				t.Errorf("status for %v: got %d, want %d", tc.err, rec.Code, tc.want)
			}
		})
	}
}

func TestHandlerDecideWithReason(t *testing.T) {
	want := &models.SpendingRequest{ID: uuid.New(), Status: models.RequestStatusDeclinedMentor}
	h := newTestHandler(&stubService{req: want})

	rec := do(t, h.Decline, http.MethodPost, "/api/v1/spending-requests/x/decline",
		`{"reason":"not needed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
}

func TestHandlerRequiresCaller(t *testing.T) {
	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spending-requests", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no caller in context: got %d, want 401", rec.Code)
	}
}

func TestHandlerVelocityCheck(t *testing.T) {
	f := newFixture(t, gbp("100"))
	h := NewHandler(&stubService{}, &stubLog{}, f.svc.dir, allowAll(), discardLogger())

	body, _ := json.Marshal(map[string]any{
		"custodial_account_id": f.accountID.String(),
		"project_id":           f.projectID.String(),
		"amount":               "10.00",
	})
	rec := do(t, h.VelocityCheck, http.MethodPost, "/api/v1/velocity/check", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}
	var decision velocity.Decision
	if err := json.Unmarshal(rec.Body.Bytes(), &decision); err != nil {
		t.Fatalf("decoding decision: %v", err)
	}
	if !decision.Allowed {
		t.Errorf("expected allowed, got %+v", decision)
	}
}

func TestHandlerVelocityCheck_RejectsNonPositive(t *testing.T) {
	f := newFixture(t, gbp("100"))
	h := NewHandler(&stubService{}, &stubLog{}, f.svc.dir, allowAll(), discardLogger())

	body, _ := json.Marshal(map[string]any{
		"custodial_account_id": f.accountID.String(),
		"project_id":           f.projectID.String(),
		"amount":               "-5",
	})
	rec := do(t, h.VelocityCheck, http.MethodPost, "/api/v1/velocity/check", string(body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative amount: got %d, want 400", rec.Code)
	}
}
