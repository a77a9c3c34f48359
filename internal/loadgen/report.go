package loadgen

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quizops/quizops-api/internal/pkg/metrics"
)

// LatencyStats summarizes the observed request latency distribution
type LatencyStats struct {
	Avg time.Duration
	Min time.Duration
	Med time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration
}

// Report is the outcome of one load profile run.
// FailRate counts every response outside the success contract, including
// 200s with an unexpected body; HTTPFailRate counts transport failures
// and non-200 statuses only.
type Report struct {
	Profile      string
	Elapsed      time.Duration
	Requests     int
	DroppedTicks int

	Counts       map[Classification]int
	FailRate     float64
	HTTPFailRate float64
	Latency      LatencyStats

	Thresholds Thresholds
	Passed     bool
	Violations []string
}

type collector struct {
	profile   Profile
	latencies []time.Duration
	counts    map[Classification]int
	non200    int
}

func newCollector(profile Profile) *collector {
	return &collector{
		profile: profile,
		counts:  map[Classification]int{},
	}
}

func (c *collector) add(s sample) {
	c.counts[s.class]++
	c.latencies = append(c.latencies, s.latency)
	if s.class == ClassTransportFailed || (s.status != 0 && s.status != 200) {
		c.non200++
	}
}

func (c *collector) report(elapsed time.Duration, dropped int) *Report {
	total := len(c.latencies)
	failed := c.counts[ClassInvalid] + c.counts[ClassTransportFailed]

	report := &Report{
		Profile:      c.profile.Name,
		Elapsed:      elapsed,
		Requests:     total,
		DroppedTicks: dropped,
		Counts:       c.counts,
		FailRate:     metrics.Rate(failed, total),
		HTTPFailRate: metrics.Rate(c.non200, total),
		Latency:      latencyStats(c.latencies),
		Thresholds:   c.profile.Thresholds,
	}

	if report.FailRate >= report.Thresholds.MaxFailRate {
		report.Violations = append(report.Violations,
			fmt.Sprintf("fail rate %.4f >= %.4f", report.FailRate, report.Thresholds.MaxFailRate))
	}
	if report.Latency.P95 >= report.Thresholds.MaxP95 {
		report.Violations = append(report.Violations,
			fmt.Sprintf("p95 %s >= %s", report.Latency.P95, report.Thresholds.MaxP95))
	}
	report.Passed = len(report.Violations) == 0
	return report
}

func latencyStats(latencies []time.Duration) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}

	return LatencyStats{
		Avg: sum / time.Duration(len(sorted)),
		Min: sorted[0],
		Med: percentile(sorted, 0.50),
		P90: percentile(sorted, 0.90),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// percentile uses the nearest-rank method over an ascending slice
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(float64(len(sorted))*p+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Summary renders the report for the operator
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile=%s elapsed=%s requests=%d dropped_ticks=%d\n",
		r.Profile, r.Elapsed.Round(time.Millisecond), r.Requests, r.DroppedTicks)
	fmt.Fprintf(&b, "queued=%d ignored=%d invalid=%d transport_failed=%d\n",
		r.Counts[ClassQueued], r.Counts[ClassIgnored], r.Counts[ClassInvalid], r.Counts[ClassTransportFailed])
	fmt.Fprintf(&b, "fail_rate=%s http_fail_rate=%s\n",
		metrics.Percent(r.FailRate), metrics.Percent(r.HTTPFailRate))
	fmt.Fprintf(&b, "latency avg=%s min=%s med=%s p90=%s p95=%s p99=%s max=%s\n",
		r.Latency.Avg.Round(time.Microsecond), r.Latency.Min.Round(time.Microsecond),
		r.Latency.Med.Round(time.Microsecond), r.Latency.P90.Round(time.Microsecond),
		r.Latency.P95.Round(time.Microsecond), r.Latency.P99.Round(time.Microsecond),
		r.Latency.Max.Round(time.Microsecond))
	if r.Passed {
		b.WriteString("verdict: PASS\n")
	} else {
		fmt.Fprintf(&b, "verdict: FAIL (%s)\n", strings.Join(r.Violations, "; "))
	}
	return b.String()
}
