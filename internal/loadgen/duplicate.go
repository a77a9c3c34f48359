package loadgen

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DuplicateReport is the outcome of the duplicate-delivery scenario
type DuplicateReport struct {
	Pairs           int
	BothOK          int
	FirstQueued     int
	SecondIgnored   int
	Failures        int
	FailRate        float64
	Passed          bool
	Violations      []string
}

// RunDuplicates posts each update payload twice and verifies the
// at-most-once contract from the sender's side: both deliveries answer
// 200, the first is queued and the exact replay is ignored.
func (d *Driver) RunDuplicates(ctx context.Context, workers, pairsPerWorker int, maxFailRate float64) (*DuplicateReport, error) {
	if workers <= 0 {
		workers = d.workers
	}
	if pairsPerWorker <= 0 {
		pairsPerWorker = 1
	}

	type pairResult struct {
		bothOK        bool
		firstQueued   bool
		secondIgnored bool
	}
	results := make(chan pairResult, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerIndex int) {
			defer wg.Done()
			for iteration := int64(0); iteration < int64(pairsPerWorker); iteration++ {
				if ctx.Err() != nil {
					return
				}
				updateID := d.target.UpdateIDBase + int64(workerIndex)*workerStride + iteration
				userID := d.target.UserIDBase + int64(workerIndex)
				payload := updatePayload(updateID, userID, iteration)

				first := d.post(ctx, payload)
				second := d.post(ctx, payload)

				results <- pairResult{
					bothOK:        first.status == 200 && second.status == 200,
					firstQueued:   first.class == ClassQueued,
					secondIgnored: second.class == ClassIgnored,
				}
			}
		}(w)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &DuplicateReport{}
	for res := range results {
		report.Pairs++
		if res.bothOK {
			report.BothOK++
		} else {
			report.Failures++
		}
		if res.firstQueued {
			report.FirstQueued++
		}
		if res.secondIgnored {
			report.SecondIgnored++
		}
	}

	if report.Pairs > 0 {
		report.FailRate = float64(report.Failures) / float64(report.Pairs)
	}
	if report.FailRate >= maxFailRate {
		report.Violations = append(report.Violations,
			fmt.Sprintf("duplicate fail rate %.4f >= %.4f", report.FailRate, maxFailRate))
	}
	if report.SecondIgnored != report.Pairs {
		report.Violations = append(report.Violations,
			fmt.Sprintf("%d of %d replayed deliveries were not ignored", report.Pairs-report.SecondIgnored, report.Pairs))
	}
	report.Passed = len(report.Violations) == 0

	log.Info().
		Int("pairs", report.Pairs).
		Int("both_ok", report.BothOK).
		Int("second_ignored", report.SecondIgnored).
		Bool("passed", report.Passed).
		Msg("duplicate delivery scenario finished")

	return report, ctx.Err()
}

// Summary renders the duplicate report for the operator
func (r *DuplicateReport) Summary() string {
	verdict := "PASS"
	if !r.Passed {
		verdict = "FAIL (" + fmt.Sprint(r.Violations) + ")"
	}
	return fmt.Sprintf(
		"pairs=%d both_ok=%d first_queued=%d second_ignored=%d fail_rate=%.4f\nverdict: %s\n",
		r.Pairs, r.BothOK, r.FirstQueued, r.SecondIgnored, r.FailRate, verdict)
}
