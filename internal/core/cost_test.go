package core

import "testing"

func TestComputeCost(t *testing.T) {
	tests := []struct {
		name   string
		pages  int
		copies int
		color  bool
		duplex bool
		want   float64
	}{
		{"single mono page", 1, 1, false, false, 0.10},
		{"multi page mono", 10, 1, false, false, 1.00},
		{"color doubles", 10, 2, true, false, 4.00},
		{"duplex discount", 5, 1, false, true, 0.40},
		{"color and duplex", 10, 2, true, true, 3.20},
		{"large run", 100, 10, false, false, 100.00},
		{"rounding", 3, 1, false, true, 0.24},
		{"rounding half up", 1, 1, false, true, 0.08},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCost(tt.pages, tt.copies, tt.color, tt.duplex)
			if got != tt.want {
				t.Fatalf("ComputeCost(%d, %d, %v, %v) = %.2f, want %.2f",
					tt.pages, tt.copies, tt.color, tt.duplex, got, tt.want)
			}
		})
	}
}

func TestComputeCost_Deterministic(t *testing.T) {
	first := ComputeCost(7, 3, true, true)
	for i := 0; i < 100; i++ {
		if got := ComputeCost(7, 3, true, true); got != first {
			t.Fatalf("ComputeCost not deterministic: %v != %v", got, first)
		}
	}
}

func TestComputeCost_PositiveForPositiveInputs(t *testing.T) {
	for pages := 1; pages <= 20; pages++ {
		for copies := 1; copies <= 20; copies++ {
			if got := ComputeCost(pages, copies, false, true); got <= 0 {
				t.Fatalf("ComputeCost(%d, %d) = %v, want > 0", pages, copies, got)
			}
		}
	}
}
