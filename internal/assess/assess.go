// Package assess orchestrates a full assessment run: score the answers,
// persist the snapshot, and generate the narrative roadmap. Scoring never
// fails; persistence errors fail the run; narrative errors degrade to a
// user-visible warning.
package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/profile"
	"github.com/hpatkar/verdeiq/internal/scoring"
	"github.com/hpatkar/verdeiq/internal/storage"
)

// AssessmentStore is the subset of storage.Store the service needs.
type AssessmentStore interface {
	SaveAssessment(a storage.Assessment) error
	GetAssessment(id string) (storage.Assessment, error)
	LatestAssessment() (storage.Assessment, error)
	UpdateNarrative(id, narrative, status string) error
}

// ProfileSource yields the current company profile.
// Implemented by profile.Manager.
type ProfileSource interface {
	Get() (profile.Company, error)
}

// NarrativeGenerator produces the roadmap text for a score.
// Implemented by roadmap.Generator.
type NarrativeGenerator interface {
	Generate(ctx context.Context, result scoring.Result, companySummary string) (string, error)
}

// Service wires the calculator to its collaborators.
type Service struct {
	bank             *bank.Bank
	weights          bank.WeightTable
	store            AssessmentStore
	profiles         ProfileSource
	generator        NarrativeGenerator
	narrativeTimeout time.Duration
}

// New creates a Service. generator may be nil, in which case the
// narrative step is skipped entirely.
func New(b *bank.Bank, weights bank.WeightTable, store AssessmentStore, profiles ProfileSource, generator NarrativeGenerator, narrativeTimeout time.Duration) *Service {
	if narrativeTimeout <= 0 {
		narrativeTimeout = 60 * time.Second
	}
	return &Service{
		bank:             b,
		weights:          weights,
		store:            store,
		profiles:         profiles,
		generator:        generator,
		narrativeTimeout: narrativeTimeout,
	}
}

// Bank exposes the loaded question bank for the presentation layers.
func (s *Service) Bank() *bank.Bank { return s.bank }

// Score computes the score for the given answers without persisting
// anything. Profile lookup failure degrades to uniform weights.
func (s *Service) Score(responses scoring.ResponseSet) scoring.Result {
	sector := ""
	if company, err := s.profiles.Get(); err == nil {
		sector = company.Sector()
	} else {
		slog.Warn("scoring without profile", "error", err)
	}
	return scoring.Calculate(s.bank, responses, sector, s.weights)
}

// ScoreForSector computes a score for an explicitly declared sector,
// bypassing the stored profile.
func (s *Service) ScoreForSector(responses scoring.ResponseSet, sector string) scoring.Result {
	return scoring.Calculate(s.bank, responses, sector, s.weights)
}

// Outcome is the result of a full assessment run.
type Outcome struct {
	Assessment storage.Assessment
	Result     scoring.Result
	// Warning is set when the narrative step failed; the score is still
	// valid and displayed.
	Warning string
}

// Run scores the answers, persists the snapshot, and generates the
// narrative. Persistence and narrative generation run concurrently; the
// narrative outcome is written back afterwards.
func (s *Service) Run(ctx context.Context, responses scoring.ResponseSet) (Outcome, error) {
	company, err := s.profiles.Get()
	if err != nil {
		slog.Warn("assessment without profile", "error", err)
		company = profile.Company{}
	}

	result := scoring.Calculate(s.bank, responses, company.Sector(), s.weights)

	record, err := buildRecord(result, responses, company)
	if err != nil {
		return Outcome{}, err
	}

	var narrative string
	var narrativeErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.store.SaveAssessment(record)
	})
	if s.generator != nil {
		g.Go(func() error {
			nctx, cancel := context.WithTimeout(gctx, s.narrativeTimeout)
			defer cancel()
			// Failure here must not fail the group: the score survives a
			// dead narrative API.
			narrative, narrativeErr = s.generator.Generate(nctx, result, profile.Summarize(company))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, fmt.Errorf("saving assessment: %w", err)
	}

	out := Outcome{Assessment: record, Result: result}
	switch {
	case s.generator == nil:
		// Narrative disabled; record keeps its "skipped" status.
	case narrativeErr != nil:
		out.Warning = fmt.Sprintf("roadmap unavailable: %v", narrativeErr)
		if err := s.store.UpdateNarrative(record.ID, "", storage.NarrativeFailed); err != nil {
			slog.Warn("recording narrative failure", "id", record.ID, "error", err)
		}
		out.Assessment.NarrativeStatus = storage.NarrativeFailed
	default:
		if err := s.store.UpdateNarrative(record.ID, narrative, storage.NarrativeReady); err != nil {
			return Outcome{}, fmt.Errorf("saving narrative: %w", err)
		}
		out.Assessment.Narrative = narrative
		out.Assessment.NarrativeStatus = storage.NarrativeReady
	}
	return out, nil
}

func buildRecord(result scoring.Result, responses scoring.ResponseSet, company profile.Company) (storage.Assessment, error) {
	pillarJSON, err := json.Marshal(result.PillarMaturity)
	if err != nil {
		return storage.Assessment{}, fmt.Errorf("marshaling pillar scores: %w", err)
	}
	answersJSON, err := json.Marshal(responses)
	if err != nil {
		return storage.Assessment{}, fmt.Errorf("marshaling answers: %w", err)
	}
	companyJSON, err := json.Marshal(company)
	if err != nil {
		return storage.Assessment{}, fmt.Errorf("marshaling company: %w", err)
	}

	return storage.Assessment{
		ID:              uuid.New().String(),
		CreatedAt:       time.Now().UTC(),
		Sector:          company.Sector(),
		Company:         string(companyJSON),
		Composite:       result.Composite,
		Badge:           string(result.Badge),
		PillarScores:    string(pillarJSON),
		Answers:         string(answersJSON),
		NarrativeStatus: storage.NarrativeSkipped,
	}, nil
}

// Snapshot is the flat JSON export of one assessment.
type Snapshot struct {
	Company      json.RawMessage `json:"company"`
	Score        int             `json:"score"`
	Badge        string          `json:"badge"`
	PillarScores json.RawMessage `json:"pillar_scores"`
	Answers      json.RawMessage `json:"answers"`
}

// Export renders the stored assessment as a one-shot snapshot.
func Export(a storage.Assessment) Snapshot {
	company := a.Company
	if company == "" {
		company = "{}"
	}
	return Snapshot{
		Company:      json.RawMessage(company),
		Score:        a.Composite,
		Badge:        a.Badge,
		PillarScores: json.RawMessage(a.PillarScores),
		Answers:      json.RawMessage(a.Answers),
	}
}
