package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quizops/quizops-api/internal/domain/events"
	"github.com/quizops/quizops-api/internal/domain/promo"
	"github.com/quizops/quizops-api/internal/domain/referral"
	"github.com/quizops/quizops-api/internal/pkg/response"
)

const defaultTimeout = 10 * time.Second

// Client is the typed console client for the internal ops API.
type Client struct {
	baseURL string
	token   string
	ua      string
	http    *http.Client
}

// NewClient creates a console API client. The token is either the static
// internal API token or an operator session JWT.
func NewClient(baseURL, token string, timeout time.Duration, ua string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		ua:      ua,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Login exchanges operator credentials for a session token and switches
// the client onto it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}

	var session struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/ops/login", nil, body, &session); err != nil {
		return err
	}
	if session.AccessToken == "" {
		return malformedError("login response missing access_token", nil)
	}
	c.token = session.AccessToken
	return nil
}

// PromoDashboard fetches the promo dashboard snapshot
func (c *Client) PromoDashboard(ctx context.Context, windowHours int) (*promo.DashboardResponse, error) {
	query := url.Values{"window_hours": {strconv.Itoa(windowHours)}}

	var snapshot promo.DashboardResponse
	if err := c.do(ctx, http.MethodGet, "/internal/promo/dashboard", query, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListCampaigns fetches campaigns matching the filters
func (c *Client) ListCampaigns(ctx context.Context, status, name string, limit int) (*promo.CampaignListResponse, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if name != "" {
		query.Set("campaign_name", name)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var list promo.CampaignListResponse
	if err := c.do(ctx, http.MethodGet, "/internal/promo/campaigns", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateCampaignStatus applies one campaign status transition
func (c *Client) UpdateCampaignStatus(ctx context.Context, id int64, req *promo.StatusUpdateRequest) (*promo.CampaignResponse, error) {
	path := fmt.Sprintf("/internal/promo/campaigns/%d/status", id)

	var campaign promo.CampaignResponse
	if err := c.do(ctx, http.MethodPost, path, nil, req, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// RollbackRefund reverts a refunded purchase's promo redemption
func (c *Client) RollbackRefund(ctx context.Context, purchaseID string) (*promo.RollbackResult, error) {
	req := promo.RefundRollbackRequest{PurchaseID: purchaseID}

	var result promo.RollbackResult
	if err := c.do(ctx, http.MethodPost, "/internal/promo/refund-rollback", nil, &req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReferralDashboard fetches the referral fraud dashboard snapshot
func (c *Client) ReferralDashboard(ctx context.Context, windowHours int) (*referral.DashboardResponse, error) {
	query := url.Values{"window_hours": {strconv.Itoa(windowHours)}}

	var snapshot referral.DashboardResponse
	if err := c.do(ctx, http.MethodGet, "/internal/referrals/dashboard", query, nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ReviewQueue fetches referral cases awaiting a decision
func (c *Client) ReviewQueue(ctx context.Context, windowHours int, status string, limit int) (*referral.ReviewQueueResponse, error) {
	query := url.Values{}
	if windowHours > 0 {
		query.Set("window_hours", strconv.Itoa(windowHours))
	}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var queue referral.ReviewQueueResponse
	if err := c.do(ctx, http.MethodGet, "/internal/referrals/review-queue", query, nil, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

// ApplyReviewDecision applies one console decision to one referral case
func (c *Client) ApplyReviewDecision(ctx context.Context, id int64, req *referral.ReviewActionRequest) (*referral.ReviewActionResponse, error) {
	path := fmt.Sprintf("/internal/referrals/%d/review", id)

	var result referral.ReviewActionResponse
	if err := c.do(ctx, http.MethodPost, path, nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EventsFeed fetches the notification events feed
func (c *Client) EventsFeed(ctx context.Context, windowHours int, eventType string, limit int) (*events.FeedResponse, error) {
	query := url.Values{}
	if windowHours > 0 {
		query.Set("window_hours", strconv.Itoa(windowHours))
	}
	if eventType != "" {
		query.Set("event_type", eventType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var feed events.FeedResponse
	if err := c.do(ctx, http.MethodGet, "/internal/referrals/events", query, nil, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return validationError("request body not serializable: " + err.Error())
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return transportError("building request failed", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError("reading response failed", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return malformedError("undecodable success body", err)
		}
		return nil
	}

	return c.apiError(resp.StatusCode, raw)
}

// apiError maps a non-2xx response onto the console error taxonomy.
// 403 forces a re-login; 409 is the optimistic-concurrency conflict.
func (c *Client) apiError(status int, raw []byte) *Error {
	var envelope response.ErrorEnvelope
	code := ""
	message := http.StatusText(status)
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Detail.Code != "" {
		code = envelope.Detail.Code
		message = envelope.Detail.Message
	} else {
		return &Error{
			Kind:       KindMalformedResponse,
			Message:    fmt.Sprintf("status %d with undecodable error body", status),
			HTTPStatus: status,
		}
	}

	kind := KindTransport
	switch status {
	case http.StatusForbidden:
		kind = KindAuthFailed
	case http.StatusConflict:
		kind = KindPreconditionFailed
	}

	return &Error{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}
