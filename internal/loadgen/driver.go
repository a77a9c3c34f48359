package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Classification buckets every webhook response lands in. A 200 whose
// body is not the expected success contract still counts as invalid;
// wrong body with a happy status must stay visible.
type Classification string

const (
	ClassQueued          Classification = "queued"
	ClassIgnored         Classification = "ignored"
	ClassInvalid         Classification = "invalid"
	ClassTransportFailed Classification = "transport_failed"
)

// The per-worker iteration stride keeps update_ids globally unique:
// update_id = base + workerIndex*workerStride + iteration.
const workerStride = 1_000_000

// Target describes the webhook endpoint under load
type Target struct {
	BaseURL      string
	Secret       string
	UpdateIDBase int64
	UserIDBase   int64
}

// Driver generates webhook load against a target with a fixed worker pool
type Driver struct {
	target  Target
	workers int
	client  *http.Client
}

// NewDriver creates a load driver. workers bounds in-flight requests.
func NewDriver(target Target, workers int, timeout time.Duration) *Driver {
	if workers <= 0 {
		workers = 40
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Driver{
		target:  target,
		workers: workers,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        workers * 2,
				MaxIdleConnsPerHost: workers * 2,
			},
		},
	}
}

type sample struct {
	class   Classification
	latency time.Duration
	status  int
}

// Run drives the profile to completion and reports what happened.
// Pacing follows Profile.RateAt; a saturated worker pool sheds the tick
// instead of queueing unbounded work.
func (d *Driver) Run(ctx context.Context, profile Profile) (*Report, error) {
	jobs := make(chan int64, d.workers)
	samples := make(chan sample, d.workers*2)
	dropped := 0

	var collectorWG sync.WaitGroup
	collector := newCollector(profile)
	collectorWG.Add(1)
	go func() {
		defer collectorWG.Done()
		for s := range samples {
			collector.add(s)
		}
	}()

	var workerWG sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		workerWG.Add(1)
		go func(workerIndex int) {
			defer workerWG.Done()
			iteration := int64(0)
			for range jobs {
				updateID := d.target.UpdateIDBase + int64(workerIndex)*workerStride + iteration
				userID := d.target.UserIDBase + int64(workerIndex)
				samples <- d.post(ctx, updatePayload(updateID, userID, iteration))
				iteration++
			}
		}(w)
	}

	start := time.Now()
	total := profile.TotalDuration()

dispatch:
	for {
		elapsed := time.Since(start)
		if elapsed >= total {
			break
		}
		rate := profile.RateAt(elapsed)
		if rate <= 0 {
			rate = 1
		}
		interval := time.Duration(float64(time.Second) / rate)

		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- 1:
		default:
			dropped++
		}

		select {
		case <-ctx.Done():
			break dispatch
		case <-time.After(interval):
		}
	}

	close(jobs)
	workerWG.Wait()
	close(samples)
	collectorWG.Wait()

	report := collector.report(time.Since(start), dropped)
	log.Info().
		Str("profile", profile.Name).
		Int("requests", report.Requests).
		Int("dropped_ticks", dropped).
		Float64("fail_rate", report.FailRate).
		Dur("p95", report.Latency.P95).
		Bool("passed", report.Passed).
		Msg("load profile run finished")

	if err := ctx.Err(); err != nil && err != context.Canceled {
		return report, err
	}
	return report, nil
}

func (d *Driver) post(ctx context.Context, payload []byte) sample {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.target.BaseURL+"/webhook/telegram", bytes.NewReader(payload))
	if err != nil {
		return sample{class: ClassTransportFailed, latency: time.Since(started)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", d.target.Secret)

	resp, err := d.client.Do(req)
	if err != nil {
		return sample{class: ClassTransportFailed, latency: time.Since(started)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	latency := time.Since(started)
	if err != nil {
		return sample{class: ClassTransportFailed, latency: latency, status: resp.StatusCode}
	}

	return sample{class: classify(resp.StatusCode, body), latency: latency, status: resp.StatusCode}
}

// classify maps one response onto the counting buckets. Non-2xx answers
// (503 retry under backpressure included) are transport failures; invalid
// is reserved for a 200 whose body breaks the success contract.
func classify(status int, body []byte) Classification {
	if status != http.StatusOK {
		return ClassTransportFailed
	}
	var ack struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return ClassInvalid
	}
	switch ack.Status {
	case "queued":
		return ClassQueued
	case "ignored":
		return ClassIgnored
	}
	return ClassInvalid
}

// updatePayload builds the Telegram update envelope for one iteration
func updatePayload(updateID, userID, iteration int64) []byte {
	payload := map[string]interface{}{
		"update_id": updateID,
		"message": map[string]interface{}{
			"message_id": 1000 + iteration,
			"date":       time.Now().Unix(),
			"chat": map[string]interface{}{
				"id":         userID,
				"type":       "private",
				"first_name": "Load",
			},
			"from": map[string]interface{}{
				"id":            userID,
				"is_bot":        false,
				"first_name":    "Load",
				"language_code": "de",
			},
			"text":     "/start",
			"entities": []map[string]interface{}{{"offset": 0, "length": 6, "type": "bot_command"}},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("update payload not serializable: %v", err))
	}
	return raw
}
