package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"vocalys/internal/analysis"
	"vocalys/internal/domain"
	"vocalys/internal/observability"
	"vocalys/internal/providers/elevenlabs"
	"vocalys/internal/store"
)

type Store interface {
	InsertCall(ctx context.Context, in store.CallInsert) error
	SetConversationID(ctx context.Context, in store.ConversationUpdate) error
	GetCallByConversationID(ctx context.Context, conversationID string) (store.Call, bool, error)
	FinishCall(ctx context.Context, in store.CallFinish) (bool, error)
	HasSummary(ctx context.Context, callID string) (bool, error)
	InsertSummary(ctx context.Context, in store.SummaryInsert) (bool, error)
	ListCallsByBeneficiary(ctx context.Context, beneficiaryID string) ([]store.Call, error)
	ListCallsForStats(ctx context.Context, userID string, since time.Time) ([]store.StatsCall, error)
}

type Gateway interface {
	CreateConversation(ctx context.Context, req elevenlabs.ConversationRequest) (elevenlabs.ConversationResponse, int, []byte, error)
}

// StatsCache is an optional read-through cache in front of Stats.
type StatsCache interface {
	GetStats(ctx context.Context, userID string) (domain.Stats, bool, error)
	SetStats(ctx context.Context, userID string, s domain.Stats) error
}

// Relay orchestrates the call lifecycle between the voice-AI gateway and the
// call record store. It holds no state of its own between requests.
type Relay struct {
	Store    Store
	Gateway  Gateway
	Analyzer *analysis.Analyzer
	Cache    StatsCache

	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker

	CallID    func() string
	SummaryID func() string

	GatewayTimeout time.Duration
	StatsWindow    time.Duration
}

// InitiateCall creates a pending call record, then asks the gateway to place
// the conversation. A gateway failure leaves the pending record behind; the
// caller sees a GatewayError and the orphan is counted in metrics.
func (r *Relay) InitiateCall(ctx context.Context, req domain.CallRequest, now time.Time) (domain.CallResponse, error) {
	if err := req.Validate(); err != nil {
		return domain.CallResponse{}, err
	}

	callID := r.CallID()
	if err := r.Store.InsertCall(ctx, store.CallInsert{
		ID:            callID,
		BeneficiaryID: req.BeneficiaryID,
		Status:        string(domain.CallPending),
		StartedAt:     now,
		Now:           now,
	}); err != nil {
		return domain.CallResponse{}, fmt.Errorf("create call record: %w", err)
	}

	resp, httpStatus, _, err := r.callGateway(ctx, elevenlabs.ConversationRequest{
		PhoneNumber:   req.PhoneNumber,
		Name:          req.Name,
		CallID:        callID,
		BeneficiaryID: req.BeneficiaryID,
	})
	if err != nil {
		observability.GatewayCalls.WithLabelValues("error", strconv.Itoa(httpStatus)).Inc()
		observability.OrphanedCalls.Inc()
		slog.Error("gateway conversation create failed",
			"err", err, "call_id", callID, "beneficiary_id", req.BeneficiaryID, "http_status", httpStatus)
		return domain.CallResponse{}, &domain.GatewayError{HTTPStatus: httpStatus, Detail: gatewayDetail(err), Err: err}
	}
	observability.GatewayCalls.WithLabelValues("ok", strconv.Itoa(httpStatus)).Inc()

	if err := r.Store.SetConversationID(ctx, store.ConversationUpdate{
		CallID:         callID,
		ConversationID: resp.ConversationID,
		Status:         string(domain.CallInProgress),
		Now:            now,
	}); err != nil {
		return domain.CallResponse{}, fmt.Errorf("update call record: %w", err)
	}

	return domain.CallResponse{
		Success:        true,
		CallID:         callID,
		ConversationID: resp.ConversationID,
		Message:        "Call initiated successfully",
	}, nil
}

func (r *Relay) callGateway(ctx context.Context, req elevenlabs.ConversationRequest) (elevenlabs.ConversationResponse, int, []byte, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return elevenlabs.ConversationResponse{}, 0, nil, err
		}
	}

	start := time.Now()
	defer func() {
		observability.GatewayLatency.Observe(time.Since(start).Seconds())
	}()

	call := func() (any, error) {
		reqCtx := ctx
		if r.GatewayTimeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, r.GatewayTimeout)
			defer cancel()
		}
		resp, httpStatus, raw, err := r.Gateway.CreateConversation(reqCtx, req)
		if err != nil {
			return nil, gatewayCallError{err: err, httpStatus: httpStatus, raw: raw}
		}
		return conversationResult{resp: resp, httpStatus: httpStatus, raw: raw}, nil
	}

	var resAny any
	var err error
	if r.Breaker != nil {
		resAny, err = r.Breaker.Execute(call)
	} else {
		resAny, err = call()
	}
	if err != nil {
		var gce gatewayCallError
		if errors.As(err, &gce) {
			return elevenlabs.ConversationResponse{}, gce.httpStatus, gce.raw, err
		}
		return elevenlabs.ConversationResponse{}, 0, nil, err
	}
	res := resAny.(conversationResult)
	return res.resp, res.httpStatus, res.raw, nil
}

// HandleWebhook applies a provider completion event: terminal status,
// duration, and at most one summary per call. Re-delivered events are
// absorbed without changing state.
func (r *Relay) HandleWebhook(ctx context.Context, ev domain.WebhookEvent, now time.Time) (summaryCreated bool, err error) {
	if err := ev.Validate(); err != nil {
		return false, err
	}

	call, found, err := r.Store.GetCallByConversationID(ctx, ev.ConversationID)
	if err != nil {
		return false, fmt.Errorf("lookup call: %w", err)
	}
	if !found {
		return false, fmt.Errorf("%w: no call for conversation %s", domain.ErrNotFound, ev.ConversationID)
	}

	status := domain.CallFailed
	if ev.Status == "ended" {
		status = domain.CallCompleted
	}
	observability.WebhookEvents.WithLabelValues(string(status)).Inc()

	duration := 0
	if status == domain.CallCompleted && call.StartedAt != nil {
		duration = int(math.Round(now.Sub(*call.StartedAt).Seconds()))
		if duration < 0 {
			duration = 0
		}
	}

	applied, err := r.Store.FinishCall(ctx, store.CallFinish{
		CallID:   call.ID,
		Status:   string(status),
		EndedAt:  now,
		Duration: duration,
		Now:      now,
	})
	if err != nil {
		return false, fmt.Errorf("finish call: %w", err)
	}
	if !applied {
		slog.Info("webhook for terminal call ignored", "call_id", call.ID, "conversation_id", ev.ConversationID)
		// The stored status wins over a conflicting redelivery: an "ended"
		// event arriving after the call was finalized as failed must not
		// attach a summary, while a re-delivered "ended" event may still
		// carry a transcript the first delivery lacked.
		status = domain.CallStatus(call.Status)
	}

	// Summaries are only attached to completed calls; a failure event with a
	// partial transcript is acknowledged without one.
	if status != domain.CallCompleted || ev.Transcript == "" || ev.Summary == "" {
		return false, nil
	}

	exists, err := r.Store.HasSummary(ctx, call.ID)
	if err != nil {
		return false, fmt.Errorf("check summary: %w", err)
	}
	if exists {
		return false, nil
	}

	result := r.Analyzer.Analyze(ev.Transcript, ev.Summary)
	inserted, err := r.Store.InsertSummary(ctx, store.SummaryInsert{
		ID:             r.SummaryID(),
		CallID:         call.ID,
		Summary:        ev.Summary,
		Mood:           string(result.Mood),
		AlertLevel:     string(result.AlertLevel),
		Keywords:       result.Keywords,
		HealthMentions: result.HealthMentions,
		Concerns:       result.Concerns,
		Transcript:     ev.Transcript,
		Now:            now,
	})
	if err != nil {
		return false, fmt.Errorf("insert summary: %w", err)
	}
	if inserted {
		observability.SummariesWritten.Inc()
	}
	return inserted, nil
}

// History returns the beneficiary's calls newest-first with embedded
// summaries.
func (r *Relay) History(ctx context.Context, beneficiaryID string) ([]store.Call, error) {
	if beneficiaryID == "" {
		return nil, fmt.Errorf("%w: beneficiaryId is required", domain.ErrValidation)
	}
	return r.Store.ListCallsByBeneficiary(ctx, beneficiaryID)
}

func gatewayDetail(err error) string {
	var gce gatewayCallError
	if errors.As(err, &gce) {
		return gce.err.Error()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

type conversationResult struct {
	resp       elevenlabs.ConversationResponse
	httpStatus int
	raw        []byte
}

type gatewayCallError struct {
	err        error
	httpStatus int
	raw        []byte
}

func (e gatewayCallError) Error() string { return e.err.Error() }
func (e gatewayCallError) Unwrap() error { return e.err }
