package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeDeduper struct {
	seen     map[int64]bool
	checkErr error
	released []int64
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: map[int64]bool{}}
}

func (f *fakeDeduper) FirstDelivery(ctx context.Context, updateID int64) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	if f.seen[updateID] {
		return false, nil
	}
	f.seen[updateID] = true
	return true, nil
}

func (f *fakeDeduper) Release(ctx context.Context, updateID int64) error {
	delete(f.seen, updateID)
	f.released = append(f.released, updateID)
	return nil
}

type fakeEnqueuer struct {
	payloads [][]byte
	err      error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

const testSecret = "hook-secret"

func postUpdate(h *Handler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/telegram", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Status
}

func TestReceiveQueuesFirstDelivery(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(testSecret, newFakeDeduper(), enq)

	rec := postUpdate(h, testSecret, `{"update_id":810000001,"message":{"text":"/start"}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeStatus(t, rec); got != StatusQueued {
		t.Errorf("status = %q, want queued", got)
	}
	if len(enq.payloads) != 1 {
		t.Fatalf("enqueued %d payloads, want 1", len(enq.payloads))
	}
}

func TestReceiveDuplicateIgnoredBothOK(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(testSecret, newFakeDeduper(), enq)

	body := `{"update_id":810000002,"message":{"text":"/start"}}`
	first := postUpdate(h, testSecret, body)
	second := postUpdate(h, testSecret, body)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", first.Code, second.Code)
	}
	if got := decodeStatus(t, first); got != StatusQueued {
		t.Errorf("first status = %q, want queued", got)
	}
	if got := decodeStatus(t, second); got != StatusIgnored {
		t.Errorf("second status = %q, want ignored", got)
	}
	if len(enq.payloads) != 1 {
		t.Errorf("enqueued %d payloads for a duplicate, want 1", len(enq.payloads))
	}
}

func TestReceiveWrongSecretIgnored(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(testSecret, newFakeDeduper(), enq)

	rec := postUpdate(h, "wrong", `{"update_id":810000003}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeStatus(t, rec); got != StatusIgnored {
		t.Errorf("status = %q, want ignored", got)
	}
	if len(enq.payloads) != 0 {
		t.Errorf("enqueued %d payloads without a valid secret", len(enq.payloads))
	}
}

func TestReceiveMalformedBodyIgnored(t *testing.T) {
	h := NewHandler(testSecret, newFakeDeduper(), &fakeEnqueuer{})

	for _, body := range []string{`{not json`, `{"message":{"text":"hi"}}`} {
		rec := postUpdate(h, testSecret, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: status = %d, want 200", body, rec.Code)
		}
		if got := decodeStatus(t, rec); got != StatusIgnored {
			t.Errorf("body %q: status = %q, want ignored", body, got)
		}
	}
}

func TestReceiveEnqueueFailureRetries(t *testing.T) {
	ded := newFakeDeduper()
	h := NewHandler(testSecret, ded, &fakeEnqueuer{err: errors.New("queue down")})

	rec := postUpdate(h, testSecret, `{"update_id":810000004}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if got := decodeStatus(t, rec); got != StatusRetry {
		t.Errorf("status = %q, want retry", got)
	}
	if len(ded.released) != 1 || ded.released[0] != 810000004 {
		t.Errorf("dedupe claim not released on enqueue failure: %v", ded.released)
	}
}

func TestReceiveDedupeBackendFailureRetries(t *testing.T) {
	ded := newFakeDeduper()
	ded.checkErr = errors.New("redis down")
	h := NewHandler(testSecret, ded, &fakeEnqueuer{})

	rec := postUpdate(h, testSecret, `{"update_id":810000005}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
