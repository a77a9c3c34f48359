package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quizops/quizops-api/internal/console"
)

type transitionAPI struct {
	transitions int32
	refreshes   int32
	conflict    bool
}

func (a *transitionAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/internal/promo/campaigns/42/status":
			atomic.AddInt32(&a.transitions, 1)
			if a.conflict {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"detail":{"code":"E_PROMO_STATUS_CONFLICT","message":"status changed"}}`))
				return
			}
			w.Write([]byte(`{"id":42,"campaign_name":"summer","status":"PAUSED"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/internal/promo/dashboard":
			atomic.AddInt32(&a.refreshes, 1)
			w.Write([]byte(`{"window_hours":24,"active_campaigns_total":3,"paused_campaigns_total":2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":{"code":"E_NOT_FOUND","message":"no route"}}`))
		}
	}
}

func transitionFixture(t *testing.T, api *transitionAPI) (*console.Client, *console.Guard) {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)
	client := console.NewClient(server.URL, "ops-token", 2*time.Second, "console-test/1.0")
	return client, console.NewGuard(client)
}

func TestRunTransitionRefreshesDashboard(t *testing.T) {
	api := &transitionAPI{}
	client, guard := transitionFixture(t, api)

	args := []string{"-id", "42", "-to", "PAUSED", "-expected", "ACTIVE"}
	if err := runTransition(context.Background(), client, guard, args); err != nil {
		t.Fatalf("runTransition: %v", err)
	}

	if n := atomic.LoadInt32(&api.transitions); n != 1 {
		t.Errorf("transitions = %d, want 1", n)
	}
	if n := atomic.LoadInt32(&api.refreshes); n != 1 {
		t.Errorf("dashboard refreshes = %d, want 1", n)
	}
}

func TestRunTransitionConflictSkipsRefresh(t *testing.T) {
	api := &transitionAPI{conflict: true}
	client, guard := transitionFixture(t, api)

	args := []string{"-id", "42", "-to", "PAUSED", "-expected", "ACTIVE"}
	err := runTransition(context.Background(), client, guard, args)
	if !console.IsKind(err, console.KindPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}

	if n := atomic.LoadInt32(&api.refreshes); n != 0 {
		t.Errorf("dashboard refreshes = %d, want 0 after a conflict", n)
	}
}
