package loadgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeWebhook struct {
	mu      sync.Mutex
	seen    map[int64]int
	secret  string
	answer  func(updateID int64, delivery int) (int, string)
}

func newFakeWebhook(secret string) *fakeWebhook {
	return &fakeWebhook{seen: map[int64]int{}, secret: secret}
}

func (f *fakeWebhook) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != f.secret {
			w.Write([]byte(`{"status":"ignored"}`))
			return
		}
		var update struct {
			UpdateID *int64 `json:"update_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil || update.UpdateID == nil {
			w.Write([]byte(`{"status":"ignored"}`))
			return
		}

		f.mu.Lock()
		f.seen[*update.UpdateID]++
		delivery := f.seen[*update.UpdateID]
		f.mu.Unlock()

		if f.answer != nil {
			status, body := f.answer(*update.UpdateID, delivery)
			w.WriteHeader(status)
			w.Write([]byte(body))
			return
		}
		if delivery > 1 {
			w.Write([]byte(`{"status":"ignored"}`))
			return
		}
		w.Write([]byte(`{"status":"queued"}`))
	}
}

func (f *fakeWebhook) duplicates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	dups := 0
	for _, deliveries := range f.seen {
		if deliveries > 1 {
			dups += deliveries - 1
		}
	}
	return dups
}

func shortProfile() Profile {
	return Profile{
		Name:       "steady",
		StartRate:  200,
		Stages:     []Stage{{TargetRate: 200, Duration: 300 * time.Millisecond}},
		Thresholds: Thresholds{MaxFailRate: 0.01, MaxP95: 350 * time.Millisecond},
	}
}

func testDriver(t *testing.T, hook *fakeWebhook, workers int) *Driver {
	t.Helper()
	server := httptest.NewServer(hook.handler())
	t.Cleanup(server.Close)
	return NewDriver(Target{
		BaseURL:      server.URL,
		Secret:       hook.secret,
		UpdateIDBase: 800_000_000,
		UserIDBase:   90_000_000_000,
	}, workers, 2*time.Second)
}

func TestRunGeneratesUniqueUpdateIDs(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	driver := testDriver(t, hook, 8)

	report, err := driver.Run(context.Background(), shortProfile())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Requests == 0 {
		t.Fatal("no requests sent")
	}
	if dups := hook.duplicates(); dups != 0 {
		t.Errorf("%d duplicate update_ids generated", dups)
	}
	if report.Counts[ClassQueued] != report.Requests {
		t.Errorf("queued = %d of %d requests", report.Counts[ClassQueued], report.Requests)
	}
	if !report.Passed {
		t.Errorf("run failed against a healthy endpoint: %v", report.Violations)
	}
}

func TestRunClassifiesWrongBodyAsInvalid(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	hook.answer = func(updateID int64, delivery int) (int, string) {
		return http.StatusOK, `{"outcome":"fine"}`
	}
	driver := testDriver(t, hook, 4)

	report, err := driver.Run(context.Background(), shortProfile())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Counts[ClassInvalid] != report.Requests {
		t.Errorf("invalid = %d of %d requests", report.Counts[ClassInvalid], report.Requests)
	}
	if report.Passed {
		t.Error("run passed although every body broke the contract")
	}
	if report.HTTPFailRate != 0 {
		t.Errorf("http_fail_rate = %v, want 0 (statuses were all 200)", report.HTTPFailRate)
	}
}

func TestRunClassifiesBackpressureAsTransportFailed(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	// Overloaded endpoint shedding load the way the real one does.
	hook.answer = func(updateID int64, delivery int) (int, string) {
		return http.StatusServiceUnavailable, `{"status":"retry"}`
	}
	driver := testDriver(t, hook, 4)

	report, err := driver.Run(context.Background(), shortProfile())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Counts[ClassTransportFailed] != report.Requests {
		t.Errorf("transport_failed = %d of %d requests", report.Counts[ClassTransportFailed], report.Requests)
	}
	if report.Counts[ClassInvalid] != 0 {
		t.Errorf("invalid = %d, want 0 (503s are not body violations)", report.Counts[ClassInvalid])
	}
	if report.HTTPFailRate != 1 {
		t.Errorf("http_fail_rate = %v, want 1", report.HTTPFailRate)
	}
	if report.Passed {
		t.Error("run passed although every request was rejected")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Classification
	}{
		{"queued", http.StatusOK, `{"status":"queued"}`, ClassQueued},
		{"ignored", http.StatusOK, `{"status":"ignored"}`, ClassIgnored},
		{"wrong body", http.StatusOK, `{"outcome":"fine"}`, ClassInvalid},
		{"not json", http.StatusOK, `<html>`, ClassInvalid},
		{"retry under load", http.StatusServiceUnavailable, `{"status":"retry"}`, ClassTransportFailed},
		{"server error", http.StatusInternalServerError, ``, ClassTransportFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.status, []byte(tc.body)); got != tc.want {
				t.Errorf("classify(%d, %q) = %q, want %q", tc.status, tc.body, got, tc.want)
			}
		})
	}
}

func TestRunClassifiesConnectionErrors(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	server := httptest.NewServer(hook.handler())
	driver := NewDriver(Target{BaseURL: server.URL, Secret: hook.secret}, 4, time.Second)
	server.Close()

	report, err := driver.Run(context.Background(), shortProfile())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Counts[ClassTransportFailed] != report.Requests {
		t.Errorf("transport_failed = %d of %d requests", report.Counts[ClassTransportFailed], report.Requests)
	}
	if report.Passed {
		t.Error("run passed against a dead endpoint")
	}
}

func TestRunHonorsContextCancel(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	driver := testDriver(t, hook, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	profile := shortProfile()
	profile.Stages = []Stage{{TargetRate: 10, Duration: time.Hour}}

	done := make(chan struct{})
	go func() {
		driver.Run(ctx, profile)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunDuplicatesObservesIgnoredReplay(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	driver := testDriver(t, hook, 4)

	report, err := driver.RunDuplicates(context.Background(), 4, 5, 0.01)
	if err != nil {
		t.Fatalf("RunDuplicates: %v", err)
	}

	if report.Pairs != 20 {
		t.Fatalf("pairs = %d, want 20", report.Pairs)
	}
	if report.BothOK != 20 {
		t.Errorf("both_ok = %d, want 20", report.BothOK)
	}
	if report.FirstQueued != 20 || report.SecondIgnored != 20 {
		t.Errorf("first_queued/second_ignored = %d/%d, want 20/20",
			report.FirstQueued, report.SecondIgnored)
	}
	if !report.Passed {
		t.Errorf("duplicate run failed: %v", report.Violations)
	}
}

func TestRunDuplicatesFlagsRequeue(t *testing.T) {
	hook := newFakeWebhook("hook-secret")
	// Endpoint that re-queues replays instead of ignoring them.
	hook.answer = func(updateID int64, delivery int) (int, string) {
		return http.StatusOK, `{"status":"queued"}`
	}
	driver := testDriver(t, hook, 2)

	report, err := driver.RunDuplicates(context.Background(), 2, 3, 0.01)
	if err != nil {
		t.Fatalf("RunDuplicates: %v", err)
	}

	if report.Passed {
		t.Error("duplicate run passed although replays were re-queued")
	}
	if report.SecondIgnored != 0 {
		t.Errorf("second_ignored = %d, want 0", report.SecondIgnored)
	}
}
