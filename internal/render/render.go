// Package render produces plain-text output for the terminal: the
// scorecard, question prompts, and the roadmap block. Coloring is the
// caller's concern; everything here is uncolored text.
package render

import (
	"fmt"
	"strings"

	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/scoring"
)

const barWidth = 20

// Scorecard renders the composite score, badge, and per-pillar maturity
// bars.
func Scorecard(r scoring.Result, companyName string) string {
	var b strings.Builder

	if companyName != "" {
		fmt.Fprintf(&b, "%s\n", companyName)
	}
	fmt.Fprintf(&b, "GreenScore: %d/100 — %s\n", r.Composite, r.Badge)
	if r.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", r.Sector)
	}
	fmt.Fprintf(&b, "Answered: %d questions\n\n", r.Answered)

	width := pillarLabelWidth()
	for _, p := range bank.Pillars {
		v := r.PillarMaturity[p]
		fmt.Fprintf(&b, "%-*s %s %.2f/5\n", width, string(p), Bar(v, 5, barWidth), v)
	}

	return b.String()
}

// Bar renders value/max as a fixed-width block bar.
func Bar(value, max float64, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	if value < 0 {
		value = 0
	}
	if value > max {
		value = max
	}
	filled := int(value / max * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Question renders one question prompt with its numbered options for the
// interactive questionnaire.
func Question(q bank.Question, index, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%d/%d] (%s) %s\n", index, total, q.Pillar, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt)
	}
	if len(q.Frameworks) > 0 {
		fmt.Fprintf(&b, "  frameworks: %s\n", strings.Join(q.Frameworks, ", "))
	}

	return b.String()
}

// Roadmap renders the narrative block with a heading.
func Roadmap(narrative string) string {
	if narrative == "" {
		return ""
	}
	return "Improvement Roadmap\n-------------------\n" + strings.TrimSpace(narrative) + "\n"
}

func pillarLabelWidth() int {
	w := 0
	for _, p := range bank.Pillars {
		if len(p) > w {
			w = len(p)
		}
	}
	return w
}
