package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeRepo struct {
	events   []Event
	byType   map[string]int
	byStatus map[string]int

	gotTypes []string
}

func (f *fakeRepo) ListEventsSince(ctx context.Context, since time.Time, eventTypes []string, limit int) ([]Event, error) {
	f.gotTypes = eventTypes
	return f.events, nil
}
func (f *fakeRepo) CountByTypeSince(ctx context.Context, since time.Time, eventTypes []string) (map[string]int, error) {
	return f.byType, nil
}
func (f *fakeRepo) CountByStatusSince(ctx context.Context, since time.Time, eventTypes []string) (map[string]int, error) {
	return f.byStatus, nil
}

func noAuth(next http.Handler) http.Handler { return next }

func testRouter(repo Repository) http.Handler {
	h := NewHandler(NewService(repo))
	return h.Routes(noAuth)
}

func TestFeedAggregates(t *testing.T) {
	repo := &fakeRepo{
		events: []Event{
			{ID: 2, EventType: TypeRewardGranted, Status: StatusSent, Payload: json.RawMessage(`{"user_id":7}`)},
			{ID: 1, EventType: TypeRewardMilestoneAvailable, Status: StatusFailed, Payload: json.RawMessage(`{}`)},
		},
		byType:   map[string]int{TypeRewardGranted: 4, TypeRewardMilestoneAvailable: 2},
		byStatus: map[string]int{StatusSent: 5, StatusFailed: 1},
	}

	req := httptest.NewRequest(http.MethodGet, "/?window_hours=24", nil)
	rec := httptest.NewRecorder()
	testRouter(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var feed FeedResponse
	if err := json.NewDecoder(rec.Body).Decode(&feed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if feed.TotalEvents != 6 {
		t.Errorf("total_events = %d, want 6", feed.TotalEvents)
	}
	if feed.ByStatus[StatusFailed] != 1 {
		t.Errorf("by_status[FAILED] = %d, want 1", feed.ByStatus[StatusFailed])
	}
	if len(feed.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(feed.Events))
	}
	if feed.Events[0].EventType != TypeRewardGranted {
		t.Errorf("events[0].event_type = %q", feed.Events[0].EventType)
	}
}

func TestFeedEventTypeFilter(t *testing.T) {
	repo := &fakeRepo{byType: map[string]int{}, byStatus: map[string]int{}}

	req := httptest.NewRequest(http.MethodGet, "/?event_type="+TypeRewardGranted, nil)
	rec := httptest.NewRecorder()
	testRouter(repo).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.gotTypes) != 1 || repo.gotTypes[0] != TypeRewardGranted {
		t.Errorf("queried types = %v, want only %s", repo.gotTypes, TypeRewardGranted)
	}
}

func TestFeedRejectsUnknownEventType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?event_type=referral_bonus_paid", nil)
	rec := httptest.NewRecorder()
	testRouter(&fakeRepo{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var envelope struct {
		Detail struct {
			Code string `json:"code"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Detail.Code != "E_REFERRAL_EVENT_TYPE_INVALID" {
		t.Errorf("detail.code = %q, want E_REFERRAL_EVENT_TYPE_INVALID", envelope.Detail.Code)
	}
}
