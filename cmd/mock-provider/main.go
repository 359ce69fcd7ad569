// mock-provider emulates the voice-AI telephony provider for local runs and
// integration tests: it accepts conversation-creation requests and later
// posts a completion webhook back to the relay with a canned transcript.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"vocalys/internal/logging"
	"vocalys/internal/providers/elevenlabs"
)

type config struct {
	Port          string        `envconfig:"PORT" default:"8089"`
	APIKey        string        `envconfig:"MOCK_API_KEY" default:"mock_key"`
	WebhookURL    string        `envconfig:"MOCK_WEBHOOK_URL" default:""`
	WebhookSecret string        `envconfig:"MOCK_WEBHOOK_SECRET" default:""`
	WebhookDelay  time.Duration `envconfig:"MOCK_WEBHOOK_DELAY" default:"500ms"`
	Outcome       string        `envconfig:"MOCK_OUTCOME" default:"ended"`
	Transcript    string        `envconfig:"MOCK_TRANSCRIPT" default:"Bonjour, je vais bien, je suis content de la visite de ma famille."`
	Summary       string        `envconfig:"MOCK_SUMMARY" default:"Conversation positive, la personne va bien."`
	LogFormat     string        `envconfig:"LOG_FORMAT" default:"text"`
}

type server struct {
	cfg     config
	http    *http.Client
	counter atomic.Int64
}

type conversationRequest struct {
	AgentID             string            `json:"agent_id"`
	CustomerPhoneNumber string            `json:"customer_phone_number"`
	CustomerName        string            `json:"customer_name"`
	Metadata            map[string]string `json:"metadata"`
}

type webhookPayload struct {
	ConversationID string            `json:"conversation_id"`
	Status         string            `json:"status"`
	Transcript     string            `json:"transcript,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	logging.Init("mock-provider", cfg.LogFormat)

	s := &server{cfg: cfg, http: &http.Client{Timeout: 10 * time.Second}}

	r := mux.NewRouter()
	r.HandleFunc("/v1/convai/conversations", s.handleCreateConversation).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	slog.Info("mock provider listening", "port", cfg.Port, "outcome", cfg.Outcome)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("mock provider failed", "err", err)
		os.Exit(1)
	}
}

func (s *server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	if auth := r.Header.Get("Authorization"); auth != "Bearer "+s.cfg.APIKey {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	var req conversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.AgentID == "" || req.CustomerPhoneNumber == "" {
		http.Error(w, `{"detail":"agent_id and customer_phone_number are required"}`, http.StatusUnprocessableEntity)
		return
	}

	convID := "conv_mock_" + strconv.FormatInt(s.counter.Add(1), 10)
	slog.Info("conversation created", "conversation_id", convID, "to", req.CustomerPhoneNumber)

	if s.cfg.WebhookURL != "" {
		go s.deliverWebhook(convID, req.Metadata)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"conversation_id": convID,
		"status":          "initiated",
	})
}

func (s *server) deliverWebhook(convID string, metadata map[string]string) {
	time.Sleep(s.cfg.WebhookDelay)

	payload := webhookPayload{
		ConversationID: convID,
		Status:         s.cfg.Outcome,
		Metadata:       metadata,
	}
	if s.cfg.Outcome == "ended" {
		payload.Transcript = s.cfg.Transcript
		payload.Summary = s.cfg.Summary
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("webhook marshal failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("webhook request build failed", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.WebhookSecret != "" {
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req.Header.Set("Elevenlabs-Signature", elevenlabs.Sign(s.cfg.WebhookSecret, ts, body))
	}

	resp, err := s.http.Do(req)
	if err != nil {
		slog.Error("webhook delivery failed", "err", err, "conversation_id", convID)
		return
	}
	defer resp.Body.Close()
	slog.Info("webhook delivered", "conversation_id", convID, "status", resp.StatusCode)
}
