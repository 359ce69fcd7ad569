package analysis

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestAnalyzer() *Analyzer { return New(DefaultLexicon()) }

func TestAnalyzeEmptyInput(t *testing.T) {
	got := newTestAnalyzer().Analyze("", "")
	if got.Mood != "neutral" {
		t.Fatalf("expected neutral mood, got %s", got.Mood)
	}
	if got.AlertLevel != "none" {
		t.Fatalf("expected alert level none, got %s", got.AlertLevel)
	}
	if len(got.Keywords) != 0 || len(got.HealthMentions) != 0 || len(got.Concerns) != 0 {
		t.Fatalf("expected empty tag sets, got %+v", got)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := newTestAnalyzer()
	transcript := "Elle était contente de la visite de sa famille, malgré la fatigue."
	summary := "Conversation positive, mentionne ses médicaments."

	first := a.Analyze(transcript, summary)
	second := a.Analyze(transcript, summary)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %+v vs %+v", first, second)
	}
}

func TestAnalyzeMoodPositive(t *testing.T) {
	got := newTestAnalyzer().Analyze("elle est content de sa journée", "")
	if got.Mood != "positive" {
		t.Fatalf("expected positive mood, got %s", got.Mood)
	}
}

func TestAnalyzeMoodTieIsNeutral(t *testing.T) {
	got := newTestAnalyzer().Analyze("content mais triste", "")
	if got.Mood != "neutral" {
		t.Fatalf("expected neutral mood on tie, got %s", got.Mood)
	}
}

func TestAnalyzeSubstringSemantics(t *testing.T) {
	// "malheureux" contains both "mal" (negative, alert) and "heureux"
	// (positive): mood ties to neutral, one alert hit gives medium.
	got := newTestAnalyzer().Analyze("il se dit malheureux", "")
	if got.Mood != "neutral" {
		t.Fatalf("expected neutral mood, got %s", got.Mood)
	}
	if got.AlertLevel != "medium" {
		t.Fatalf("expected medium alert, got %s", got.AlertLevel)
	}
}

func TestAnalyzeAlertHighOnRepeatedWord(t *testing.T) {
	got := newTestAnalyzer().Analyze("urgence urgence", "encore une urgence")
	if got.AlertLevel != "high" {
		t.Fatalf("expected high alert for three occurrences, got %s", got.AlertLevel)
	}
	if len(got.Concerns) == 0 || got.Concerns[0] != "Signaux d'alerte détectés" {
		t.Fatalf("expected alert concern tag, got %v", got.Concerns)
	}
}

func TestAnalyzeHealthOnlyMedium(t *testing.T) {
	got := newTestAnalyzer().Analyze("elle a pris son médicament, un nouveau médicament", "")
	if got.AlertLevel != "medium" {
		t.Fatalf("expected medium alert for two health mentions, got %s", got.AlertLevel)
	}
}

func TestAnalyzeHealthOnlyLow(t *testing.T) {
	got := newTestAnalyzer().Analyze("rendez-vous chez le médecin la semaine prochaine", "")
	if got.AlertLevel != "low" {
		t.Fatalf("expected low alert for a single health mention, got %s", got.AlertLevel)
	}
}

func TestAnalyzeKeywordsFollowLexiconOrder(t *testing.T) {
	got := newTestAnalyzer().Analyze("visite de la famille et des enfants", "")
	want := []string{"famille", "enfants", "visite"}
	if !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("expected keywords %v, got %v", want, got.Keywords)
	}
}

func TestAnalyzeHealthMentionsAndConcerns(t *testing.T) {
	got := newTestAnalyzer().Analyze(
		"elle se sent seule, parle de sa douleur et de ses factures",
		"fatigue générale",
	)
	wantHealth := []string{"Douleur mentionnée", "Fatigue signalée"}
	if !reflect.DeepEqual(got.HealthMentions, wantHealth) {
		t.Fatalf("expected health mentions %v, got %v", wantHealth, got.HealthMentions)
	}
	wantConcerns := []string{"Isolement possible", "Préoccupations financières"}
	if !reflect.DeepEqual(got.Concerns, wantConcerns) {
		t.Fatalf("expected concerns %v, got %v", wantConcerns, got.Concerns)
	}
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
positive: ["good"]
negative: ["bad"]
alert: ["emergency"]
health: ["doctor"]
keywords: ["family"]
health_mentions:
  - label: "Doctor mentioned"
    patterns: ["doctor"]
concerns:
  - label: "Possible isolation"
    patterns: ["alone"]
alert_concern: "Alert signals detected"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}

	got := New(lex).Analyze("she feels good but alone, needs a doctor", "")
	if got.Mood != "positive" {
		t.Fatalf("expected positive mood, got %s", got.Mood)
	}
	if got.AlertLevel != "low" {
		t.Fatalf("expected low alert, got %s", got.AlertLevel)
	}
	if len(got.Concerns) != 1 || got.Concerns[0] != "Possible isolation" {
		t.Fatalf("unexpected concerns: %v", got.Concerns)
	}
}

func TestLoadLexiconRejectsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	if err := os.WriteFile(path, []byte(`positive: ["good"]`), 0o600); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	if _, err := LoadLexicon(path); err == nil {
		t.Fatalf("expected error for partial lexicon")
	}
}
