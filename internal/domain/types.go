package domain

import (
	"errors"
	"fmt"
)

type CallStatus string

const (
	CallPending    CallStatus = "pending"
	CallInProgress CallStatus = "in_progress"
	CallCompleted  CallStatus = "completed"
	CallFailed     CallStatus = "failed"
)

// Terminal reports whether a call may no longer change state.
func (s CallStatus) Terminal() bool {
	return s == CallCompleted || s == CallFailed
}

type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

type AlertLevel string

const (
	AlertNone   AlertLevel = "none"
	AlertLow    AlertLevel = "low"
	AlertMedium AlertLevel = "medium"
	AlertHigh   AlertLevel = "high"
)

// CallRequest is the inbound call-initiation payload from the mobile client.
type CallRequest struct {
	BeneficiaryID string `json:"beneficiaryId"`
	PhoneNumber   string `json:"phoneNumber"`
	Name          string `json:"name"`
}

func (r CallRequest) Validate() error {
	if r.BeneficiaryID == "" || r.PhoneNumber == "" || r.Name == "" {
		return fmt.Errorf("%w: beneficiaryId, phoneNumber and name are required", ErrValidation)
	}
	return nil
}

type CallResponse struct {
	Success        bool   `json:"success"`
	CallID         string `json:"callId"`
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

// WebhookEvent is the provider callback payload. Transcript and summary are
// only present once the conversation produced them.
type WebhookEvent struct {
	ConversationID string            `json:"conversation_id"`
	Status         string            `json:"status"`
	Transcript     string            `json:"transcript,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (e WebhookEvent) Validate() error {
	if e.ConversationID == "" || e.Status == "" {
		return fmt.Errorf("%w: conversation_id and status are required", ErrValidation)
	}
	return nil
}

// Stats aggregates call outcomes over a trailing window.
type Stats struct {
	TotalCalls      int `json:"totalCalls"`
	AverageDuration int `json:"averageDuration"`
	ResponseRate    int `json:"responseRate"`
	PositiveRatio   int `json:"positiveRatio"`
	AlertsCount     int `json:"alertsCount"`
}

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

// GatewayError carries the voice provider's failure detail back to the caller.
type GatewayError struct {
	HTTPStatus int
	Detail     string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gateway call failed (status %d): %s", e.HTTPStatus, e.Detail)
	}
	if e.Err != nil {
		return "gateway call failed: " + e.Err.Error()
	}
	return "gateway call failed"
}

func (e *GatewayError) Unwrap() error { return e.Err }
