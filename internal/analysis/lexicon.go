package analysis

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TaggedPattern maps a set of substrings to a human-readable tag.
type TaggedPattern struct {
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`
}

// Lexicon is the word-list configuration the analyzer matches against.
// All matching is lower-case substring containment.
type Lexicon struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Alert    []string `yaml:"alert"`
	Health   []string `yaml:"health"`
	Keywords []string `yaml:"keywords"`

	HealthMentions []TaggedPattern `yaml:"health_mentions"`
	Concerns       []TaggedPattern `yaml:"concerns"`

	// AlertConcern is appended to the concern tags whenever any alert word
	// was found, independent of the Concerns patterns.
	AlertConcern string `yaml:"alert_concern"`
}

// DefaultLexicon returns the built-in French word lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{"bien", "content", "heureux", "joie", "sourire", "excellent", "formidable"},
		Negative: []string{"triste", "mal", "douleur", "problème", "inquiet", "fatigue", "difficile"},
		Alert:    []string{"urgence", "hôpital", "chute", "accident", "aide", "secours", "mal"},
		Health:   []string{"médecin", "médicament", "douleur", "santé", "traitement"},
		Keywords: []string{"famille", "enfants", "petits-enfants", "médecin", "médicament", "sortie", "visite"},
		HealthMentions: []TaggedPattern{
			{Label: "Douleur mentionnée", Patterns: []string{"douleur"}},
			{Label: "Fatigue signalée", Patterns: []string{"fatigue"}},
			{Label: "Médicaments évoqués", Patterns: []string{"médicament"}},
		},
		AlertConcern: "Signaux d'alerte détectés",
		Concerns: []TaggedPattern{
			{Label: "Isolement possible", Patterns: []string{"seul", "isolé"}},
			{Label: "Préoccupations financières", Patterns: []string{"argent", "facture"}},
		},
	}
}

// LoadLexicon reads a full lexicon from a YAML file. The file replaces the
// defaults entirely; partial files are rejected so a typo cannot silently
// disable a category.
func LoadLexicon(path string) (Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(b, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return Lexicon{}, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

func (l Lexicon) Validate() error {
	lists := map[string][]string{
		"positive": l.Positive,
		"negative": l.Negative,
		"alert":    l.Alert,
		"health":   l.Health,
		"keywords": l.Keywords,
	}
	for name, words := range lists {
		if len(words) == 0 {
			return fmt.Errorf("category %q is empty", name)
		}
		for _, w := range words {
			if w == "" {
				return fmt.Errorf("category %q contains an empty pattern", name)
			}
		}
	}
	for _, tp := range append(append([]TaggedPattern{}, l.HealthMentions...), l.Concerns...) {
		if tp.Label == "" || len(tp.Patterns) == 0 {
			return fmt.Errorf("tagged pattern %q needs a label and at least one pattern", tp.Label)
		}
	}
	if l.AlertConcern == "" {
		return fmt.Errorf("alert_concern label is required")
	}
	return nil
}
