package bank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WeightTable maps a declared sector to per-pillar multipliers. Weights
// reflect sector-specific materiality: a manufacturing company's
// Environmental answers count for more than its Governance answers.
type WeightTable map[string]map[Pillar]float64

// Weight returns the multiplier for the given sector and pillar. Unknown
// sectors (and unknown pillars within a known sector) fall back to 1.0 so
// an unrecognized sector never fails a scoring request.
func (t WeightTable) Weight(sector string, pillar Pillar) float64 {
	pillars, ok := t[sector]
	if !ok {
		return 1.0
	}
	w, ok := pillars[pillar]
	if !ok {
		return 1.0
	}
	return w
}

// Sectors returns the sector names present in the table.
func (t WeightTable) Sectors() []string {
	out := make([]string, 0, len(t))
	for s := range t {
		out = append(out, s)
	}
	return out
}

// ParseWeights decodes a YAML weight table and validates it: every pillar
// name must be known and every weight positive.
func ParseWeights(data []byte) (WeightTable, error) {
	var raw map[string]map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing weight table: %w", err)
	}

	table := make(WeightTable, len(raw))
	for sector, pillars := range raw {
		if sector == "" {
			return nil, fmt.Errorf("weight table: empty sector name")
		}
		table[sector] = make(map[Pillar]float64, len(pillars))
		for name, w := range pillars {
			pillar, err := ParsePillar(name)
			if err != nil {
				return nil, fmt.Errorf("weight table, sector %q: %w", sector, err)
			}
			if w <= 0 {
				return nil, fmt.Errorf("weight table, sector %q: weight for %s must be positive, got %v", sector, pillar, w)
			}
			table[sector][pillar] = w
		}
	}
	return table, nil
}

// LoadWeightsFile reads and parses a weight table from path.
func LoadWeightsFile(path string) (WeightTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weight table: %w", err)
	}
	t, err := ParseWeights(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
