package scoring

import (
	"reflect"
	"testing"

	"github.com/hpatkar/verdeiq/internal/bank"
)

func TestRadar_FixedAxisOrder(t *testing.T) {
	r := Result{
		PillarMaturity: map[bank.Pillar]float64{
			bank.Governance:    3.4,
			bank.Environmental: 3.1,
			bank.Social:        2.8,
		},
	}

	s := r.Radar()
	wantAxes := []string{"Environmental", "Social", "Governance"}
	if !reflect.DeepEqual(s.Axes, wantAxes) {
		t.Errorf("axes = %v, want %v", s.Axes, wantAxes)
	}
	wantValues := []float64{3.1, 2.8, 3.4}
	if !reflect.DeepEqual(s.Values, wantValues) {
		t.Errorf("values = %v, want %v", s.Values, wantValues)
	}
	if s.Max != 5 {
		t.Errorf("max = %v, want 5", s.Max)
	}
}

func TestRadar_EmptyResult(t *testing.T) {
	s := Result{}.Radar()
	if len(s.Axes) != 3 || len(s.Values) != 3 {
		t.Fatalf("expected 3 axes with zero values, got %v / %v", s.Axes, s.Values)
	}
	for i, v := range s.Values {
		if v != 0 {
			t.Errorf("values[%d] = %v, want 0", i, v)
		}
	}
}
