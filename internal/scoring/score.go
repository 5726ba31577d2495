// Package scoring computes the composite GreenScore and per-pillar
// maturity values from a set of answers. Calculate is a pure function of
// its inputs: no I/O, no shared state, safe to call concurrently.
package scoring

import (
	"math"

	"github.com/hpatkar/verdeiq/internal/bank"
)

// ResponseSet maps a question id to the selected option text. A partial
// set is valid; unanswered questions are simply excluded from the score.
type ResponseSet map[string]string

// Result is the derived score. It is recomputed on every request and
// never persisted as authoritative state.
type Result struct {
	Composite      int                     `json:"composite"`
	Badge          Tier                    `json:"badge"`
	PillarMaturity map[bank.Pillar]float64 `json:"pillar_maturity"`
	Answered       int                     `json:"answered"`
	Sector         string                  `json:"sector,omitempty"`
}

// Calculate scores responses against the question bank. The declared
// sector selects a row in the weight table; an unknown sector falls back
// to uniform 1.0 weights. Answers whose option is no longer present in
// the question's option list are treated as unanswered.
func Calculate(b *bank.Bank, responses ResponseSet, sector string, weights bank.WeightTable) Result {
	type acc struct {
		sum float64
		max float64
	}
	perPillar := make(map[bank.Pillar]*acc, len(bank.Pillars))
	for _, p := range bank.Pillars {
		perPillar[p] = &acc{}
	}

	answered := 0
	for _, q := range b.Questions {
		selected, ok := responses[q.ID]
		if !ok {
			continue
		}
		ordinal, ok := q.Ordinal(selected)
		if !ok {
			// Stale answer from an older bank revision: excluded from
			// both numerator and denominator.
			continue
		}

		w := weights.Weight(sector, q.Pillar)
		if qw, ok := q.IndustryWeight[sector]; ok {
			w *= qw
		}

		a := perPillar[q.Pillar]
		a.sum += float64(ordinal) * w
		a.max += float64(q.MaxOrdinal()) * w
		answered++
	}

	result := Result{
		PillarMaturity: make(map[bank.Pillar]float64, len(bank.Pillars)),
		Answered:       answered,
		Sector:         sector,
	}

	var totalSum, totalMax float64
	for _, p := range bank.Pillars {
		a := perPillar[p]
		totalSum += a.sum
		totalMax += a.max
		if a.max > 0 {
			// Rescale the weighted average back onto the 0-5 option-index
			// range so maturities stay comparable across weight tables.
			result.PillarMaturity[p] = 5 * a.sum / a.max
		} else {
			result.PillarMaturity[p] = 0
		}
	}

	if totalMax > 0 {
		result.Composite = int(math.Round(100 * totalSum / totalMax))
	}
	result.Badge = TierFor(result.Composite)
	return result
}
