package store

import "time"

// Call is one outbound contact attempt to a beneficiary.
type Call struct {
	ID             string     `json:"id"`
	BeneficiaryID  string     `json:"beneficiary_id"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at"`
	Duration       int        `json:"duration"`
	ConversationID string     `json:"conversation_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Summary        *Summary   `json:"summary,omitempty"`
}

// Summary is the analysis result attached to exactly one completed call.
type Summary struct {
	ID             string    `json:"id"`
	CallID         string    `json:"call_id"`
	Summary        string    `json:"summary"`
	Mood           string    `json:"mood"`
	AlertLevel     string    `json:"alert_level"`
	Keywords       []string  `json:"keywords"`
	HealthMentions []string  `json:"health_mentions"`
	Concerns       []string  `json:"concerns"`
	Transcript     string    `json:"transcript,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Beneficiary struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	CallSchedule     []string  `json:"call_schedule,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CallInsert struct {
	ID            string
	BeneficiaryID string
	Status        string
	StartedAt     time.Time
	Now           time.Time
}

type ConversationUpdate struct {
	CallID         string
	ConversationID string
	Status         string
	Now            time.Time
}

type CallFinish struct {
	CallID   string
	Status   string
	EndedAt  time.Time
	Duration int
	Now      time.Time
}

type SummaryInsert struct {
	ID             string
	CallID         string
	Summary        string
	Mood           string
	AlertLevel     string
	Keywords       []string
	HealthMentions []string
	Concerns       []string
	Transcript     string
	Now            time.Time
}

// StatsCall is the projection the stats aggregation reads. Mood and
// AlertLevel are empty when the call has no summary.
type StatsCall struct {
	Status     string
	Duration   int
	HasSummary bool
	Mood       string
	AlertLevel string
}

type BeneficiaryInsert struct {
	ID               string
	UserID           string
	Name             string
	Phone            string
	Address          string
	EmergencyContact string
	CallSchedule     []string
	Now              time.Time
}

// BeneficiaryUpdate applies a partial update; empty fields keep the stored
// value, a nil CallSchedule keeps the stored schedule.
type BeneficiaryUpdate struct {
	ID               string
	Name             string
	Phone            string
	Address          string
	EmergencyContact string
	CallSchedule     []string
	Now              time.Time
}
