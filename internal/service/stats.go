package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"vocalys/internal/domain"
	"vocalys/internal/observability"
)

const defaultStatsWindow = 7 * 24 * time.Hour

// Stats aggregates the user's calls over the trailing window: totals,
// completed-call average duration, response rate, positive-mood ratio among
// summarized calls, and the count of summaries carrying an alert.
func (r *Relay) Stats(ctx context.Context, userID string, now time.Time) (domain.Stats, error) {
	if userID == "" {
		return domain.Stats{}, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}

	if r.Cache != nil {
		if cached, ok, err := r.Cache.GetStats(ctx, userID); err != nil {
			observability.StatsCache.WithLabelValues("error").Inc()
			slog.Warn("stats cache read failed", "err", err, "user_id", userID)
		} else if ok {
			observability.StatsCache.WithLabelValues("hit").Inc()
			return cached, nil
		} else {
			observability.StatsCache.WithLabelValues("miss").Inc()
		}
	}

	window := r.StatsWindow
	if window <= 0 {
		window = defaultStatsWindow
	}

	rows, err := r.Store.ListCallsForStats(ctx, userID, now.Add(-window))
	if err != nil {
		return domain.Stats{}, fmt.Errorf("list calls for stats: %w", err)
	}

	var completed, durationSum int
	var withSummary, positive, alerts int
	for _, c := range rows {
		if c.Status == string(domain.CallCompleted) {
			completed++
			durationSum += c.Duration
		}
		if c.HasSummary {
			withSummary++
			if c.Mood == string(domain.MoodPositive) {
				positive++
			}
			if c.AlertLevel != "" && c.AlertLevel != string(domain.AlertNone) {
				alerts++
			}
		}
	}

	out := domain.Stats{TotalCalls: len(rows), AlertsCount: alerts}
	if completed > 0 {
		out.AverageDuration = roundRatio(durationSum, completed)
	}
	if len(rows) > 0 {
		out.ResponseRate = roundRatio(completed*100, len(rows))
	}
	if withSummary > 0 {
		out.PositiveRatio = roundRatio(positive*100, withSummary)
	}

	if r.Cache != nil {
		if err := r.Cache.SetStats(ctx, userID, out); err != nil {
			slog.Warn("stats cache write failed", "err", err, "user_id", userID)
		}
	}
	return out, nil
}

// roundRatio rounds num/den to the nearest integer.
func roundRatio(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}
