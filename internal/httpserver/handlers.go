package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"vocalys/internal/domain"
	"vocalys/internal/store"
	"vocalys/internal/util"
)

// RelayService is the call-lifecycle surface the handlers delegate to.
type RelayService interface {
	InitiateCall(ctx context.Context, req domain.CallRequest, now time.Time) (domain.CallResponse, error)
	HandleWebhook(ctx context.Context, ev domain.WebhookEvent, now time.Time) (bool, error)
	History(ctx context.Context, beneficiaryID string) ([]store.Call, error)
	Stats(ctx context.Context, userID string, now time.Time) (domain.Stats, error)
}

// DirectoryStore is the CRUD passthrough the mobile client uses for
// beneficiary management and alert screens. No business logic lives here.
type DirectoryStore interface {
	ListBeneficiaries(ctx context.Context, userID string) ([]store.Beneficiary, error)
	InsertBeneficiary(ctx context.Context, in store.BeneficiaryInsert) (store.Beneficiary, error)
	UpdateBeneficiary(ctx context.Context, in store.BeneficiaryUpdate) (store.Beneficiary, bool, error)
	DeleteBeneficiary(ctx context.Context, id string) (bool, error)
	ListRecentSummaries(ctx context.Context, userID string, limit int) ([]store.Summary, error)
	ListActiveAlerts(ctx context.Context, userID string) ([]store.Summary, error)
}

type API struct {
	Relay         RelayService
	Directory     DirectoryStore
	BeneficiaryID func() string
}

func (a *API) Register(r *mux.Router) {
	r.HandleFunc("/api/call", a.handleInitiateCall).Methods(http.MethodPost)
	r.HandleFunc("/api/calls/{beneficiaryId}", a.handleCallHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/stats/{userId}", a.handleStats).Methods(http.MethodGet)

	r.HandleFunc("/api/beneficiaries", a.handleListBeneficiaries).Methods(http.MethodGet)
	r.HandleFunc("/api/beneficiaries", a.handleCreateBeneficiary).Methods(http.MethodPost)
	r.HandleFunc("/api/beneficiaries/{id}", a.handleUpdateBeneficiary).Methods(http.MethodPatch)
	r.HandleFunc("/api/beneficiaries/{id}", a.handleDeleteBeneficiary).Methods(http.MethodDelete)

	r.HandleFunc("/api/summaries/{userId}", a.handleRecentSummaries).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts/{userId}", a.handleActiveAlerts).Methods(http.MethodGet)
}

func (a *API) handleInitiateCall(w http.ResponseWriter, r *http.Request) {
	var req domain.CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON, "")
		return
	}

	resp, err := a.Relay.InitiateCall(r.Context(), req, util.NowUTC())
	if err != nil {
		var gwErr *domain.GatewayError
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error(), "")
		case errors.As(err, &gwErr):
			writeError(w, http.StatusInternalServerError, ErrInitiateFailed, gwErr.Detail)
		default:
			slog.Error("initiate call failed", "err", err, "beneficiary_id", req.BeneficiaryID)
			writeError(w, http.StatusInternalServerError, ErrInitiateFailed, "")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleCallHistory(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := mux.Vars(r)["beneficiaryId"]
	calls, err := a.Relay.History(r.Context(), beneficiaryID)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		slog.Error("call history failed", "err", err, "beneficiary_id", beneficiaryID)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	stats, err := a.Relay.Stats(r.Context(), userID, util.NowUTC())
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		slog.Error("stats failed", "err", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type beneficiaryRequest struct {
	UserID           string   `json:"user_id"`
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	Address          string   `json:"address"`
	EmergencyContact string   `json:"emergency_contact"`
	CallSchedule     []string `json:"call_schedule"`
}

func (a *API) handleListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId query parameter is required", "")
		return
	}
	out, err := a.Directory.ListBeneficiaries(r.Context(), userID)
	if err != nil {
		slog.Error("list beneficiaries failed", "err", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req beneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON, "")
		return
	}
	if req.UserID == "" || req.Name == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "user_id, name and phone are required", "")
		return
	}
	b, err := a.Directory.InsertBeneficiary(r.Context(), store.BeneficiaryInsert{
		ID:               a.BeneficiaryID(),
		UserID:           req.UserID,
		Name:             req.Name,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		CallSchedule:     req.CallSchedule,
		Now:              util.NowUTC(),
	})
	if err != nil {
		slog.Error("create beneficiary failed", "err", err, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) handleUpdateBeneficiary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req beneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidJSON, "")
		return
	}
	b, found, err := a.Directory.UpdateBeneficiary(r.Context(), store.BeneficiaryUpdate{
		ID:               id,
		Name:             req.Name,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		CallSchedule:     req.CallSchedule,
		Now:              util.NowUTC(),
	})
	if err != nil {
		slog.Error("update beneficiary failed", "err", err, "id", id)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Beneficiary not found", "")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) handleDeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	found, err := a.Directory.DeleteBeneficiary(r.Context(), id)
	if err != nil {
		slog.Error("delete beneficiary failed", "err", err, "id", id)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Beneficiary not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRecentSummaries(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	out, err := a.Directory.ListRecentSummaries(r.Context(), userID, 10)
	if err != nil {
		slog.Error("recent summaries failed", "err", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	out, err := a.Directory.ListActiveAlerts(r.Context(), userID)
	if err != nil {
		slog.Error("active alerts failed", "err", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, ErrDependency, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
