package bank

import (
	"strings"
	"testing"
)

const validWeights = `
Manufacturing:
  Environmental: 1.5
  Social: 1.0
  Governance: 1.0
Finance:
  Governance: 1.5
`

func TestParseWeights_Valid(t *testing.T) {
	table, err := ParseWeights([]byte(validWeights))
	if err != nil {
		t.Fatalf("ParseWeights: %v", err)
	}

	if w := table.Weight("Manufacturing", Environmental); w != 1.5 {
		t.Errorf("Weight(Manufacturing, Environmental) = %v, want 1.5", w)
	}
	// Known sector, pillar not listed: defaults to 1.0.
	if w := table.Weight("Finance", Social); w != 1.0 {
		t.Errorf("Weight(Finance, Social) = %v, want 1.0", w)
	}
}

func TestParseWeights_UnknownSectorFallsBack(t *testing.T) {
	table, err := ParseWeights([]byte(validWeights))
	if err != nil {
		t.Fatalf("ParseWeights: %v", err)
	}
	for _, p := range Pillars {
		if w := table.Weight("Interpretive Dance", p); w != 1.0 {
			t.Errorf("Weight(unknown, %s) = %v, want 1.0", p, w)
		}
	}
}

func TestParseWeights_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown pillar",
			yaml:    "Tech:\n  Economic: 1.2",
			wantErr: "unknown pillar",
		},
		{
			name:    "zero weight",
			yaml:    "Tech:\n  Social: 0",
			wantErr: "must be positive",
		},
		{
			name:    "negative weight",
			yaml:    "Tech:\n  Social: -1.5",
			wantErr: "must be positive",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWeights([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultWeights_EmbeddedTableIsValid(t *testing.T) {
	table, err := DefaultWeights()
	if err != nil {
		t.Fatalf("DefaultWeights: %v", err)
	}
	if len(table.Sectors()) == 0 {
		t.Fatal("embedded weight table is empty")
	}
}
