package scoring

import "github.com/hpatkar/verdeiq/internal/bank"

// RadarSeries is the chart-ready projection of a Result: one axis per
// pillar in canonical order, values on the 0-5 maturity scale.
type RadarSeries struct {
	Axes   []string  `json:"axes"`
	Values []float64 `json:"values"`
	Max    float64   `json:"max"`
}

// Radar returns the radar-chart series for the result.
func (r Result) Radar() RadarSeries {
	s := RadarSeries{
		Axes:   make([]string, 0, len(bank.Pillars)),
		Values: make([]float64, 0, len(bank.Pillars)),
		Max:    5,
	}
	for _, p := range bank.Pillars {
		s.Axes = append(s.Axes, string(p))
		s.Values = append(s.Values, r.PillarMaturity[p])
	}
	return s
}
