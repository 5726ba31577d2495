package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Narrative status values for an assessment.
const (
	NarrativeReady   = "ready"
	NarrativeFailed  = "failed"
	NarrativeSkipped = "skipped"
)

// Assessment is one completed scoring run: the answers that produced it,
// the derived score, and the roadmap narrative (if generation succeeded).
type Assessment struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Sector          string    `json:"sector"`
	Company         string    `json:"company"` // JSON snapshot of the company profile
	Composite       int       `json:"composite"`
	Badge           string    `json:"badge"`
	PillarScores    string    `json:"pillar_scores"` // JSON object, pillar → 0-5 maturity
	Answers         string    `json:"answers"`       // JSON object, question id → selected option
	Narrative       string    `json:"narrative,omitempty"`
	NarrativeStatus string    `json:"narrative_status"`
}
