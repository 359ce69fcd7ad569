package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vocalys/internal/store"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) InsertCall(ctx context.Context, in store.CallInsert) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO calls (id, beneficiary_id, status, started_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)
	`, in.ID, in.BeneficiaryID, in.Status, in.StartedAt, in.Now)
	return err
}

func (s *Store) SetConversationID(ctx context.Context, in store.ConversationUpdate) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE calls SET conversation_id=$2, status=$3, updated_at=$4 WHERE id=$1
	`, in.CallID, in.ConversationID, in.Status, in.Now)
	return err
}

func (s *Store) GetCallByConversationID(ctx context.Context, conversationID string) (store.Call, bool, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, beneficiary_id, status, started_at, ended_at, COALESCE(duration,0),
		       COALESCE(conversation_id,''), created_at, updated_at
		FROM calls WHERE conversation_id=$1
	`, conversationID)

	var c store.Call
	err := row.Scan(&c.ID, &c.BeneficiaryID, &c.Status, &c.StartedAt, &c.EndedAt,
		&c.Duration, &c.ConversationID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Call{}, false, nil
		}
		return store.Call{}, false, err
	}
	return c, true, nil
}

// FinishCall records the terminal status. Calls already in a terminal state
// are left untouched; the lifecycle only moves forward.
func (s *Store) FinishCall(ctx context.Context, in store.CallFinish) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE calls SET status=$2, ended_at=$3, duration=$4, updated_at=$5
		WHERE id=$1 AND status NOT IN ('completed','failed')
	`, in.CallID, in.Status, in.EndedAt, in.Duration, in.Now)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) HasSummary(ctx context.Context, callID string) (bool, error) {
	row := s.DB.QueryRow(ctx, `SELECT 1 FROM summaries WHERE call_id=$1`, callID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// InsertSummary writes at most one summary per call. A duplicate webhook
// delivery hits the call_id uniqueness constraint and reports inserted=false.
func (s *Store) InsertSummary(ctx context.Context, in store.SummaryInsert) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		INSERT INTO summaries (id, call_id, summary, mood, alert_level, keywords, health_mentions, concerns, transcript, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (call_id) DO NOTHING
	`, in.ID, in.CallID, in.Summary, in.Mood, in.AlertLevel, in.Keywords, in.HealthMentions, in.Concerns, nullIfEmpty(in.Transcript), in.Now)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) ListCallsByBeneficiary(ctx context.Context, beneficiaryID string) ([]store.Call, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT c.id, c.beneficiary_id, c.status, c.started_at, c.ended_at, COALESCE(c.duration,0),
		       COALESCE(c.conversation_id,''), c.created_at, c.updated_at,
		       s.id, s.summary, s.mood, s.alert_level, s.keywords, s.health_mentions, s.concerns, s.transcript, s.created_at
		FROM calls c
		LEFT JOIN summaries s ON s.call_id = c.id
		WHERE c.beneficiary_id=$1
		ORDER BY c.created_at DESC
	`, beneficiaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.Call, 0)
	for rows.Next() {
		var c store.Call
		var (
			sumID, sumText, mood, alertLevel, transcript *string
			keywords, healthMentions, concerns           []string
			sumCreated                                   *time.Time
		)
		if err := rows.Scan(&c.ID, &c.BeneficiaryID, &c.Status, &c.StartedAt, &c.EndedAt,
			&c.Duration, &c.ConversationID, &c.CreatedAt, &c.UpdatedAt,
			&sumID, &sumText, &mood, &alertLevel, &keywords, &healthMentions, &concerns, &transcript, &sumCreated); err != nil {
			return nil, err
		}
		if sumID != nil {
			c.Summary = &store.Summary{
				ID:             *sumID,
				CallID:         c.ID,
				Summary:        deref(sumText),
				Mood:           deref(mood),
				AlertLevel:     deref(alertLevel),
				Keywords:       keywords,
				HealthMentions: healthMentions,
				Concerns:       concerns,
				Transcript:     deref(transcript),
			}
			if sumCreated != nil {
				c.Summary.CreatedAt = *sumCreated
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCallsForStats returns the stats projection for every call placed to
// one of the user's beneficiaries since the given instant.
func (s *Store) ListCallsForStats(ctx context.Context, userID string, since time.Time) ([]store.StatsCall, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT c.status, COALESCE(c.duration,0), s.id IS NOT NULL,
		       COALESCE(s.mood,''), COALESCE(s.alert_level,'')
		FROM calls c
		JOIN beneficiaries b ON b.id = c.beneficiary_id
		LEFT JOIN summaries s ON s.call_id = c.id
		WHERE b.user_id=$1 AND c.created_at >= $2
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.StatsCall, 0)
	for rows.Next() {
		var c store.StatsCall
		if err := rows.Scan(&c.Status, &c.Duration, &c.HasSummary, &c.Mood, &c.AlertLevel); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListBeneficiaries(ctx context.Context, userID string) ([]store.Beneficiary, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, name, phone, COALESCE(address,''), COALESCE(emergency_contact,''),
		       call_schedule, created_at, updated_at
		FROM beneficiaries
		WHERE user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.Beneficiary, 0)
	for rows.Next() {
		var b store.Beneficiary
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Phone, &b.Address,
			&b.EmergencyContact, &b.CallSchedule, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) InsertBeneficiary(ctx context.Context, in store.BeneficiaryInsert) (store.Beneficiary, error) {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO beneficiaries (id, user_id, name, phone, address, emergency_contact, call_schedule, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
	`, in.ID, in.UserID, in.Name, in.Phone, nullIfEmpty(in.Address), nullIfEmpty(in.EmergencyContact), in.CallSchedule, in.Now)
	if err != nil {
		return store.Beneficiary{}, err
	}
	return s.getBeneficiary(ctx, in.ID)
}

func (s *Store) UpdateBeneficiary(ctx context.Context, in store.BeneficiaryUpdate) (store.Beneficiary, bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE beneficiaries SET
			name = COALESCE(NULLIF($2,''), name),
			phone = COALESCE(NULLIF($3,''), phone),
			address = COALESCE(NULLIF($4,''), address),
			emergency_contact = COALESCE(NULLIF($5,''), emergency_contact),
			call_schedule = CASE WHEN $6::text[] IS NULL THEN call_schedule ELSE $6::text[] END,
			updated_at = $7
		WHERE id=$1
	`, in.ID, in.Name, in.Phone, in.Address, in.EmergencyContact, in.CallSchedule, in.Now)
	if err != nil {
		return store.Beneficiary{}, false, err
	}
	if ct.RowsAffected() == 0 {
		return store.Beneficiary{}, false, nil
	}
	b, err := s.getBeneficiary(ctx, in.ID)
	return b, err == nil, err
}

func (s *Store) DeleteBeneficiary(ctx context.Context, id string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM beneficiaries WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) getBeneficiary(ctx context.Context, id string) (store.Beneficiary, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, user_id, name, phone, COALESCE(address,''), COALESCE(emergency_contact,''),
		       call_schedule, created_at, updated_at
		FROM beneficiaries WHERE id=$1
	`, id)
	var b store.Beneficiary
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Phone, &b.Address,
		&b.EmergencyContact, &b.CallSchedule, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// ListRecentSummaries returns the newest summaries across all of the user's
// beneficiaries, up to the given limit.
func (s *Store) ListRecentSummaries(ctx context.Context, userID string, limit int) ([]store.Summary, error) {
	return s.listSummaries(ctx, `
		SELECT s.id, s.call_id, s.summary, s.mood, s.alert_level, s.keywords, s.health_mentions, s.concerns,
		       COALESCE(s.transcript,''), s.created_at
		FROM summaries s
		JOIN calls c ON c.id = s.call_id
		JOIN beneficiaries b ON b.id = c.beneficiary_id
		WHERE b.user_id=$1
		ORDER BY s.created_at DESC
		LIMIT $2
	`, userID, limit)
}

// ListActiveAlerts returns summaries whose alert level warrants attention.
func (s *Store) ListActiveAlerts(ctx context.Context, userID string) ([]store.Summary, error) {
	return s.listSummaries(ctx, `
		SELECT s.id, s.call_id, s.summary, s.mood, s.alert_level, s.keywords, s.health_mentions, s.concerns,
		       COALESCE(s.transcript,''), s.created_at
		FROM summaries s
		JOIN calls c ON c.id = s.call_id
		JOIN beneficiaries b ON b.id = c.beneficiary_id
		WHERE b.user_id=$1 AND s.alert_level IN ('medium','high')
		ORDER BY s.created_at DESC
	`, userID)
}

func (s *Store) listSummaries(ctx context.Context, sql string, args ...any) ([]store.Summary, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]store.Summary, 0)
	for rows.Next() {
		var sm store.Summary
		if err := rows.Scan(&sm.ID, &sm.CallID, &sm.Summary, &sm.Mood, &sm.AlertLevel,
			&sm.Keywords, &sm.HealthMentions, &sm.Concerns, &sm.Transcript, &sm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
