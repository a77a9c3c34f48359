package loadgen

import (
	"fmt"
	"strings"
	"time"
)

// Stage ramps the arrival rate linearly from the previous rate to
// TargetRate over Duration.
type Stage struct {
	TargetRate float64
	Duration   time.Duration
}

// Thresholds are the pass/fail gates applied to a finished run
type Thresholds struct {
	MaxFailRate float64
	MaxP95      time.Duration
}

// Profile is an arrival-rate load profile for the webhook endpoint
type Profile struct {
	Name       string
	StartRate  float64
	Stages     []Stage
	Thresholds Thresholds
}

// TotalDuration is the sum of all stage durations
func (p Profile) TotalDuration() time.Duration {
	var total time.Duration
	for _, stage := range p.Stages {
		total += stage.Duration
	}
	return total
}

// RateAt returns the target arrival rate at elapsed time into the run,
// interpolating linearly within each stage the way a ramping executor does.
func (p Profile) RateAt(elapsed time.Duration) float64 {
	rate := p.StartRate
	var offset time.Duration
	for _, stage := range p.Stages {
		if elapsed < offset+stage.Duration {
			progress := float64(elapsed-offset) / float64(stage.Duration)
			return rate + (stage.TargetRate-rate)*progress
		}
		rate = stage.TargetRate
		offset += stage.Duration
	}
	return rate
}

// Builtin profiles; rates are requests per second.
func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		"steady": {
			Name:      "steady",
			StartRate: 15,
			Stages: []Stage{
				{TargetRate: 15, Duration: 10 * time.Minute},
			},
			Thresholds: Thresholds{MaxFailRate: 0.01, MaxP95: 350 * time.Millisecond},
		},
		"peak": {
			Name:      "peak",
			StartRate: 10,
			Stages: []Stage{
				{TargetRate: 25, Duration: 2 * time.Minute},
				{TargetRate: 50, Duration: 3 * time.Minute},
				{TargetRate: 80, Duration: 3 * time.Minute},
				{TargetRate: 25, Duration: 2 * time.Minute},
			},
			Thresholds: Thresholds{MaxFailRate: 0.01, MaxP95: 350 * time.Millisecond},
		},
		"burst": {
			Name:      "burst",
			StartRate: 10,
			Stages: []Stage{
				{TargetRate: 20, Duration: 1 * time.Minute},
				{TargetRate: 120, Duration: 45 * time.Second},
				{TargetRate: 20, Duration: 2 * time.Minute},
				{TargetRate: 140, Duration: 45 * time.Second},
				{TargetRate: 20, Duration: 2 * time.Minute},
			},
			Thresholds: Thresholds{MaxFailRate: 0.01, MaxP95: 500 * time.Millisecond},
		},
	}
}

// LookupProfile resolves a named builtin profile
func LookupProfile(name string) (Profile, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	profile, ok := builtinProfiles()[normalized]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported profile %q, use steady|peak|burst", name)
	}
	return profile, nil
}

// ProfileNames lists the builtin profile names
func ProfileNames() []string {
	return []string{"steady", "peak", "burst"}
}
