package analysis

import (
	"strings"

	"vocalys/internal/domain"
)

// Result is the structured classification of one conversation.
type Result struct {
	Mood           domain.Mood
	AlertLevel     domain.AlertLevel
	Keywords       []string
	HealthMentions []string
	Concerns       []string
}

// Analyzer is a stateless, table-driven text classifier. Identical input
// always produces identical output.
type Analyzer struct {
	lex Lexicon
}

func New(lex Lexicon) *Analyzer { return &Analyzer{lex: lex} }

// Analyze classifies a conversation from its raw transcript and the
// provider-generated summary. Matching is substring containment on the
// lower-cased concatenation, so "malheureux" matches both "mal" and
// "heureux".
func (a *Analyzer) Analyze(transcript, summary string) Result {
	text := strings.ToLower(transcript + " " + summary)

	positive := countOccurrences(text, a.lex.Positive)
	negative := countOccurrences(text, a.lex.Negative)

	mood := domain.MoodNeutral
	switch {
	case positive > negative:
		mood = domain.MoodPositive
	case negative > positive:
		mood = domain.MoodNegative
	}

	alertCount := countOccurrences(text, a.lex.Alert)
	healthCount := countOccurrences(text, a.lex.Health)

	// Severity branches are ordered; the first match wins.
	level := domain.AlertNone
	switch {
	case alertCount > 2:
		level = domain.AlertHigh
	case alertCount > 0 || healthCount > 1:
		level = domain.AlertMedium
	case healthCount > 0:
		level = domain.AlertLow
	}

	keywords := make([]string, 0, len(a.lex.Keywords))
	for _, k := range a.lex.Keywords {
		if strings.Contains(text, k) {
			keywords = append(keywords, k)
		}
	}

	health := make([]string, 0, len(a.lex.HealthMentions))
	for _, tp := range a.lex.HealthMentions {
		if containsAny(text, tp.Patterns) {
			health = append(health, tp.Label)
		}
	}

	concerns := make([]string, 0, len(a.lex.Concerns)+1)
	if alertCount > 0 {
		concerns = append(concerns, a.lex.AlertConcern)
	}
	for _, tp := range a.lex.Concerns {
		if containsAny(text, tp.Patterns) {
			concerns = append(concerns, tp.Label)
		}
	}

	return Result{
		Mood:           mood,
		AlertLevel:     level,
		Keywords:       keywords,
		HealthMentions: health,
		Concerns:       concerns,
	}
}

// countOccurrences sums substring occurrences of every word in the list, so
// a word repeated three times counts three.
func countOccurrences(text string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(text, w)
	}
	return n
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
