package metrics

import (
	"math"
	"testing"
)

func TestRate(t *testing.T) {
	cases := []struct {
		name string
		num  int
		den  int
		want float64
	}{
		{"simple", 150, 200, 0.75},
		{"zero denominator", 10, 0, 0.0},
		{"negative denominator", 10, -1, 0.0},
		{"zero numerator", 0, 50, 0.0},
		{"full", 7, 7, 1.0},
	}

	for _, tc := range cases {
		got := Rate(tc.num, tc.den)
		if math.IsNaN(got) {
			t.Fatalf("%s: Rate returned NaN", tc.name)
		}
		if got != tc.want {
			t.Errorf("%s: Rate(%d, %d) = %v, want %v", tc.name, tc.num, tc.den, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.75); got != "75.0%" {
		t.Errorf("Percent(0.75) = %q, want 75.0%%", got)
	}
	if got := Percent(0); got != "0.0%" {
		t.Errorf("Percent(0) = %q, want 0.0%%", got)
	}
	if got := Percent(0.3333); got != "33.3%" {
		t.Errorf("Percent(0.3333) = %q, want 33.3%%", got)
	}
}

func TestSumCounts(t *testing.T) {
	counts := map[string]int{"ACCEPTED": 150, "FAILED": 40, "EXPIRED": 10}
	if got := SumCounts(counts); got != 200 {
		t.Errorf("SumCounts = %d, want 200", got)
	}
	if got := SumCounts(nil); got != 0 {
		t.Errorf("SumCounts(nil) = %d, want 0", got)
	}
}
