package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", 5*time.Second, "quizops-console-test"), server
}

func TestPromoDashboardDecodes(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/promo/dashboard" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"window_hours":24,"attempts_total":200,"acceptance_rate":0.75}`))
	})

	snapshot, err := client.PromoDashboard(context.Background(), 24)
	if err != nil {
		t.Fatalf("PromoDashboard: %v", err)
	}
	if snapshot.AcceptanceRate != 0.75 {
		t.Errorf("acceptance_rate = %v, want 0.75", snapshot.AcceptanceRate)
	}
}

func TestConflictMapsToPreconditionFailed(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":{"code":"E_PROMO_STATUS_CONFLICT","message":"campaign status changed since last observed"}}`))
	})

	_, err := client.UpdateCampaignStatus(context.Background(), 42, nil)
	if !IsKind(err, KindPreconditionFailed) {
		t.Fatalf("err = %v, want PRECONDITION_FAILED", err)
	}

	consoleErr := err.(*Error)
	if consoleErr.Code != "E_PROMO_STATUS_CONFLICT" {
		t.Errorf("code = %q, want E_PROMO_STATUS_CONFLICT", consoleErr.Code)
	}
	if consoleErr.HTTPStatus != http.StatusConflict {
		t.Errorf("http status = %d, want 409", consoleErr.HTTPStatus)
	}
}

func TestForbiddenMapsToAuthFailed(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail":{"code":"E_FORBIDDEN","message":"invalid or expired session"}}`))
	})

	_, err := client.ReviewQueue(context.Background(), 72, "", 50)
	if !IsKind(err, KindAuthFailed) {
		t.Fatalf("err = %v, want AUTH_FAILED", err)
	}
}

func TestUndecodableErrorBodyIsMalformed(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.ReferralDashboard(context.Background(), 24)
	if !IsKind(err, KindMalformedResponse) {
		t.Fatalf("err = %v, want MALFORMED_RESPONSE", err)
	}
}

func TestUndecodableSuccessBodyIsMalformed(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	})

	_, err := client.EventsFeed(context.Background(), 24, "", 50)
	if !IsKind(err, KindMalformedResponse) {
		t.Fatalf("err = %v, want MALFORMED_RESPONSE", err)
	}
}

func TestConnectionRefusedIsTransport(t *testing.T) {
	client, server := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.PromoDashboard(context.Background(), 24)
	if !IsKind(err, KindTransport) {
		t.Fatalf("err = %v, want TRANSPORT", err)
	}
}

func TestOtherErrorStatusIsTransport(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":{"code":"E_WINDOW_INVALID","message":"window_hours out of range"}}`))
	})

	_, err := client.PromoDashboard(context.Background(), 24)
	if !IsKind(err, KindTransport) {
		t.Fatalf("err = %v, want TRANSPORT", err)
	}
	if got := err.(*Error).Code; got != "E_WINDOW_INVALID" {
		t.Errorf("code = %q, want E_WINDOW_INVALID", got)
	}
}

func TestLoginSwitchesToken(t *testing.T) {
	var lastAuth string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/ops/login":
			w.Write([]byte(`{"access_token":"session-jwt","token_type":"Bearer","expires_in":3600}`))
		default:
			w.Write([]byte(`{"window_hours":24}`))
		}
	})

	if err := client.Login(context.Background(), "reviewer", "correct horse battery"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := client.PromoDashboard(context.Background(), 24); err != nil {
		t.Fatalf("PromoDashboard: %v", err)
	}
	if lastAuth != "Bearer session-jwt" {
		t.Errorf("authorization after login = %q, want session token", lastAuth)
	}
}
