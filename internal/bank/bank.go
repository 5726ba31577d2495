// Package bank loads and validates the ESG question bank and the
// industry weight table. Validation happens here, at load time; the
// scoring package assumes a well-formed bank.
package bank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pillar is one of the three fixed top-level ESG categories.
type Pillar string

const (
	Environmental Pillar = "Environmental"
	Social        Pillar = "Social"
	Governance    Pillar = "Governance"
)

// Pillars lists all pillars in canonical display order.
var Pillars = []Pillar{Environmental, Social, Governance}

// ParsePillar validates a pillar name read from a bank file.
func ParsePillar(s string) (Pillar, error) {
	switch Pillar(s) {
	case Environmental, Social, Governance:
		return Pillar(s), nil
	}
	return "", fmt.Errorf("unknown pillar %q (must be one of Environmental, Social, Governance)", s)
}

// Question is a single multiple-choice question. Options are ordered:
// the zero-based index of the selected option is the answer's raw score.
type Question struct {
	ID             string             `yaml:"id" json:"id"`
	Pillar         Pillar             `yaml:"pillar" json:"pillar"`
	Text           string             `yaml:"text" json:"text"`
	Options        []string           `yaml:"options" json:"options"`
	Frameworks     []string           `yaml:"frameworks,omitempty" json:"frameworks,omitempty"`
	IndustryWeight map[string]float64 `yaml:"industry_weight,omitempty" json:"industry_weight,omitempty"`
}

// MaxOrdinal returns the highest attainable option index.
func (q Question) MaxOrdinal() int {
	return len(q.Options) - 1
}

// Ordinal returns the zero-based position of option within the question's
// option list, or false when the option is not (or no longer) present.
func (q Question) Ordinal(option string) (int, bool) {
	for i, o := range q.Options {
		if o == option {
			return i, true
		}
	}
	return 0, false
}

// Bank is the full, validated question bank.
type Bank struct {
	Questions []Question
	byID      map[string]int
}

// Lookup returns the question with the given id.
func (b *Bank) Lookup(id string) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.Questions[i], true
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int { return len(b.Questions) }

// Parse decodes a YAML (or JSON) question bank and validates every entry.
// Malformed entries are rejected with a descriptive error; they are never
// silently scored.
func Parse(data []byte) (*Bank, error) {
	var raw []Question
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing question bank: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	b := &Bank{
		Questions: raw,
		byID:      make(map[string]int, len(raw)),
	}
	for i, q := range raw {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("question %q: duplicate id", q.ID)
		}
		if _, err := ParsePillar(string(q.Pillar)); err != nil {
			return nil, fmt.Errorf("question %q: %w", q.ID, err)
		}
		if q.Text == "" {
			return nil, fmt.Errorf("question %q: missing text", q.ID)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %q: needs at least 2 options, got %d", q.ID, len(q.Options))
		}
		for sector, w := range q.IndustryWeight {
			if w <= 0 {
				return nil, fmt.Errorf("question %q: industry_weight for sector %q must be positive, got %v", q.ID, sector, w)
			}
		}
		b.byID[q.ID] = i
	}
	return b, nil
}

// LoadFile reads and parses a question bank from path.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
