package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type reviewBackend struct {
	queueCalls     int
	dashboardCalls int
	reviewCalls    int
	reviewStatus   int
	lastFilter     string
}

func (b *reviewBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/internal/referrals/review-queue":
			b.queueCalls++
			b.lastFilter = r.URL.Query().Get("status")
			w.Write([]byte(`{"window_hours":72,"cases":[{"referral_id":7,"status":"FRAUD_SUSPECTED","fraud_score":0.8}]}`))
		case "/internal/referrals/dashboard":
			b.dashboardCalls++
			w.Write([]byte(`{"window_hours":72,"referrals_started_total":100}`))
		case "/internal/referrals/7/review":
			b.reviewCalls++
			if b.reviewStatus != 0 {
				w.WriteHeader(b.reviewStatus)
				w.Write([]byte(`{"detail":{"code":"E_REFERRAL_STATUS_CONFLICT","message":"stale read"}}`))
				return
			}
			w.Write([]byte(`{"referral":{"referral_id":7,"status":"FRAUD_CONFIRMED","fraud_score":0.9},"idempotent_replay":false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":{"code":"E_NOT_FOUND","message":"no route"}}`))
		}
	}
}

func testController(t *testing.T, backend *reviewBackend) *ReviewController {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)
	client := NewClient(server.URL, "test-token", 5*time.Second, "")
	return NewReviewController(client, NewGuard(client))
}

func TestDecideRefreshesQueueAndDashboard(t *testing.T) {
	backend := &reviewBackend{}
	controller := testController(t, backend)

	result, view, err := controller.Decide(context.Background(), 7, "CONFIRM_FRAUD", "velocity anomaly", "FRAUD_SUSPECTED")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if result.Referral.Status != "FRAUD_CONFIRMED" {
		t.Errorf("status = %q, want FRAUD_CONFIRMED", result.Referral.Status)
	}
	if backend.reviewCalls != 1 || backend.queueCalls != 1 || backend.dashboardCalls != 1 {
		t.Errorf("calls review/queue/dashboard = %d/%d/%d, want 1/1/1",
			backend.reviewCalls, backend.queueCalls, backend.dashboardCalls)
	}
	if view == nil || len(view.Queue.Cases) != 1 {
		t.Errorf("view not refreshed after decision")
	}
}

func TestDecideConflictSkipsRefresh(t *testing.T) {
	backend := &reviewBackend{reviewStatus: http.StatusConflict}
	controller := testController(t, backend)

	_, view, err := controller.Decide(context.Background(), 7, "CONFIRM_FRAUD", "", "FRAUD_SUSPECTED")
	if !IsKind(err, KindPreconditionFailed) {
		t.Fatalf("err = %v, want PRECONDITION_FAILED", err)
	}

	if view != nil {
		t.Error("view returned despite the conflict")
	}
	if backend.reviewCalls != 1 {
		t.Errorf("review called %d times, want exactly 1 (no auto-retry)", backend.reviewCalls)
	}
	if backend.queueCalls != 0 || backend.dashboardCalls != 0 {
		t.Errorf("refresh ran after a failed decision: queue=%d dashboard=%d",
			backend.queueCalls, backend.dashboardCalls)
	}
}

func TestSetFilterDropsNothingCachedAcrossFilters(t *testing.T) {
	backend := &reviewBackend{}
	controller := testController(t, backend)

	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	controller.SetFilter(24, "PENDING", 20)
	if _, err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if backend.queueCalls != 2 {
		t.Errorf("queue fetched %d times, want 2 (one per filter)", backend.queueCalls)
	}
	if backend.lastFilter != "PENDING" {
		t.Errorf("last filter = %q, want PENDING", backend.lastFilter)
	}
}
