package bank

import (
	"embed"
	"fmt"
)

//go:embed data/esg_questions.yaml data/industry_weights.yaml
var defaultsFS embed.FS

// Default returns the question bank embedded in the binary. Used when no
// bank.path is configured.
func Default() (*Bank, error) {
	data, err := defaultsFS.ReadFile("data/esg_questions.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded question bank: %w", err)
	}
	return Parse(data)
}

// DefaultWeights returns the industry weight table embedded in the binary.
func DefaultWeights() (WeightTable, error) {
	data, err := defaultsFS.ReadFile("data/industry_weights.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded weight table: %w", err)
	}
	return ParseWeights(data)
}
