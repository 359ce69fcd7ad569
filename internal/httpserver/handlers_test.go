package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vocalys/internal/domain"
	"vocalys/internal/store"
)

type fakeRelay struct {
	initiateResp domain.CallResponse
	initiateErr  error

	webhookCreated bool
	webhookErr     error
	lastEvent      domain.WebhookEvent

	historyCalls []store.Call
	historyErr   error

	stats    domain.Stats
	statsErr error
}

func (f *fakeRelay) InitiateCall(_ context.Context, req domain.CallRequest, _ time.Time) (domain.CallResponse, error) {
	if err := req.Validate(); err != nil {
		return domain.CallResponse{}, err
	}
	return f.initiateResp, f.initiateErr
}

func (f *fakeRelay) HandleWebhook(_ context.Context, ev domain.WebhookEvent, _ time.Time) (bool, error) {
	f.lastEvent = ev
	return f.webhookCreated, f.webhookErr
}

func (f *fakeRelay) History(_ context.Context, _ string) ([]store.Call, error) {
	return f.historyCalls, f.historyErr
}

func (f *fakeRelay) Stats(_ context.Context, _ string, _ time.Time) (domain.Stats, error) {
	return f.stats, f.statsErr
}

type fakeDirectory struct {
	beneficiaries []store.Beneficiary
	inserted      store.Beneficiary
	updateFound   bool
	deleteFound   bool
	summaries     []store.Summary
	err           error
}

func (f *fakeDirectory) ListBeneficiaries(_ context.Context, _ string) ([]store.Beneficiary, error) {
	return f.beneficiaries, f.err
}

func (f *fakeDirectory) InsertBeneficiary(_ context.Context, in store.BeneficiaryInsert) (store.Beneficiary, error) {
	f.inserted = store.Beneficiary{
		ID: in.ID, UserID: in.UserID, Name: in.Name, Phone: in.Phone,
		Address: in.Address, EmergencyContact: in.EmergencyContact, CallSchedule: in.CallSchedule,
	}
	return f.inserted, f.err
}

func (f *fakeDirectory) UpdateBeneficiary(_ context.Context, in store.BeneficiaryUpdate) (store.Beneficiary, bool, error) {
	return store.Beneficiary{ID: in.ID, Name: in.Name}, f.updateFound, f.err
}

func (f *fakeDirectory) DeleteBeneficiary(_ context.Context, _ string) (bool, error) {
	return f.deleteFound, f.err
}

func (f *fakeDirectory) ListRecentSummaries(_ context.Context, _ string, _ int) ([]store.Summary, error) {
	return f.summaries, f.err
}

func (f *fakeDirectory) ListActiveAlerts(_ context.Context, _ string) ([]store.Summary, error) {
	return f.summaries, f.err
}

func newTestServer(relay *fakeRelay, dir *fakeDirectory) *Server {
	n := 0
	api := &API{
		Relay:     relay,
		Directory: dir,
		BeneficiaryID: func() string {
			n++
			return fmt.Sprintf("ben_%d", n)
		},
	}
	srv := New()
	api.Register(srv.Mux)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestInitiateCallHandlerRejectsMissingFields(t *testing.T) {
	srv := newTestServer(&fakeRelay{}, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodPost, "/api/call", `{"phoneNumber":"+33612345678"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if _, ok := body["error"]; !ok {
		t.Errorf("body missing error field: %v", body)
	}
}

func TestInitiateCallHandlerRejectsBadJSON(t *testing.T) {
	srv := newTestServer(&fakeRelay{}, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodPost, "/api/call", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != ErrInvalidJSON {
		t.Errorf("error = %v", body["error"])
	}
}

func TestInitiateCallHandlerGatewayError(t *testing.T) {
	relay := &fakeRelay{
		initiateErr: &domain.GatewayError{HTTPStatus: http.StatusBadGateway, Detail: "agent is busy"},
	}
	srv := newTestServer(relay, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodPost, "/api/call",
		`{"beneficiaryId":"ben_1","phoneNumber":"+33612345678","name":"Jeanne"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != ErrInitiateFailed {
		t.Errorf("error = %v", body["error"])
	}
	if body["details"] != "agent is busy" {
		t.Errorf("details = %v", body["details"])
	}
}

func TestInitiateCallHandlerSuccess(t *testing.T) {
	relay := &fakeRelay{
		initiateResp: domain.CallResponse{
			Success: true, CallID: "call_1", ConversationID: "conv_1",
			Message: "Call initiated successfully",
		},
	}
	srv := newTestServer(relay, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodPost, "/api/call",
		`{"beneficiaryId":"ben_1","phoneNumber":"+33612345678","name":"Jeanne"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["callId"] != "call_1" {
		t.Errorf("body = %v", body)
	}
}

func TestStatsHandler(t *testing.T) {
	relay := &fakeRelay{stats: domain.Stats{TotalCalls: 10, ResponseRate: 80, PositiveRatio: 67}}
	srv := newTestServer(relay, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodGet, "/api/stats/user_1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["totalCalls"] != float64(10) || body["responseRate"] != float64(80) {
		t.Errorf("body = %v", body)
	}
}

func TestCreateBeneficiaryHandlerValidation(t *testing.T) {
	srv := newTestServer(&fakeRelay{}, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodPost, "/api/beneficiaries", `{"name":"Jeanne"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateBeneficiaryHandler(t *testing.T) {
	dir := &fakeDirectory{}
	srv := newTestServer(&fakeRelay{}, dir)

	rec := doJSON(t, srv, http.MethodPost, "/api/beneficiaries",
		`{"user_id":"user_1","name":"Jeanne","phone":"+33612345678","call_schedule":["mon","thu"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if dir.inserted.UserID != "user_1" || dir.inserted.ID == "" {
		t.Errorf("inserted = %+v", dir.inserted)
	}
}

func TestUpdateBeneficiaryHandlerNotFound(t *testing.T) {
	srv := newTestServer(&fakeRelay{}, &fakeDirectory{updateFound: false})

	rec := doJSON(t, srv, http.MethodPatch, "/api/beneficiaries/ben_404", `{"name":"Jeanne"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteBeneficiaryHandler(t *testing.T) {
	srv := newTestServer(&fakeRelay{}, &fakeDirectory{deleteFound: true})

	rec := doJSON(t, srv, http.MethodDelete, "/api/beneficiaries/ben_1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestListBeneficiariesRequiresUser(t *testing.T) {
	srv := newTestServer(&fakeRelay{}, &fakeDirectory{})

	rec := doJSON(t, srv, http.MethodGet, "/api/beneficiaries", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
