package loadgen

import (
	"testing"
	"time"
)

func TestLookupProfileNormalizes(t *testing.T) {
	profile, err := LookupProfile("  Burst ")
	if err != nil {
		t.Fatalf("LookupProfile: %v", err)
	}
	if profile.Name != "burst" {
		t.Errorf("name = %q, want burst", profile.Name)
	}
	if profile.Thresholds.MaxP95 != 500*time.Millisecond {
		t.Errorf("burst p95 threshold = %s, want 500ms", profile.Thresholds.MaxP95)
	}
}

func TestLookupProfileUnknown(t *testing.T) {
	if _, err := LookupProfile("spike"); err == nil {
		t.Fatal("LookupProfile(spike) accepted an unknown profile")
	}
}

func TestSteadyAndPeakThresholds(t *testing.T) {
	for _, name := range []string{"steady", "peak"} {
		profile, err := LookupProfile(name)
		if err != nil {
			t.Fatalf("LookupProfile(%s): %v", name, err)
		}
		if profile.Thresholds.MaxP95 != 350*time.Millisecond {
			t.Errorf("%s p95 threshold = %s, want 350ms", name, profile.Thresholds.MaxP95)
		}
		if profile.Thresholds.MaxFailRate != 0.01 {
			t.Errorf("%s fail rate threshold = %v, want 0.01", name, profile.Thresholds.MaxFailRate)
		}
	}
}

func TestRateAtInterpolatesWithinStage(t *testing.T) {
	profile := Profile{
		StartRate: 10,
		Stages: []Stage{
			{TargetRate: 20, Duration: time.Minute},
			{TargetRate: 120, Duration: time.Minute},
		},
	}

	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 10},
		{30 * time.Second, 15},
		{time.Minute, 20},
		{90 * time.Second, 70},
		{5 * time.Minute, 120},
	}
	for _, tt := range tests {
		if got := profile.RateAt(tt.elapsed); got != tt.want {
			t.Errorf("RateAt(%s) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestTotalDuration(t *testing.T) {
	profile, err := LookupProfile("peak")
	if err != nil {
		t.Fatalf("LookupProfile: %v", err)
	}
	if got := profile.TotalDuration(); got != 10*time.Minute {
		t.Errorf("peak total duration = %s, want 10m", got)
	}
}
