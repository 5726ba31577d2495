// Package roadmap turns a score into the natural-language prompt sent to
// the chat-completion API and wraps the resulting narrative.
package roadmap

import (
	"fmt"
	"strings"

	"github.com/hpatkar/verdeiq/internal/bank"
	"github.com/hpatkar/verdeiq/internal/scoring"
)

// BuildPrompt assembles the roadmap request from the score and an
// optional company summary block. Pillar order is fixed so identical
// inputs always produce an identical prompt.
func BuildPrompt(result scoring.Result, companySummary string) string {
	var b strings.Builder

	if companySummary != "" {
		b.WriteString(companySummary)
		b.WriteString("\n\n")
	}

	b.WriteString("An organization has these ESG maturity scores (0-5 scale):\n")
	for _, p := range bank.Pillars {
		fmt.Fprintf(&b, "%s: %.2f\n", p, result.PillarMaturity[p])
	}
	fmt.Fprintf(&b, "Overall GreenScore: %d/100 (%s tier).\n\n", result.Composite, result.Badge)

	b.WriteString("Provide 2 beginner-friendly improvement tips per pillar to improve ESG maturity. ")
	b.WriteString("Start with the weakest pillar and keep each tip concrete and actionable.")

	return b.String()
}
