package console

import (
	"context"

	"github.com/quizops/quizops-api/internal/domain/referral"
)

// ReviewView is what the review screen renders after any action: the
// queue for the active filter plus a fresh dashboard snapshot.
type ReviewView struct {
	Queue     *referral.ReviewQueueResponse
	Dashboard *referral.DashboardResponse
}

// ReviewController drives the referral review screen. Every decision is
// followed by a full re-fetch of the queue and the dashboard; nothing is
// cached across filter changes, so the operator always acts on fresh state.
type ReviewController struct {
	client *Client
	guard  *Guard

	windowHours int
	status      string
	limit       int
}

// NewReviewController creates a review controller with the default view
func NewReviewController(client *Client, guard *Guard) *ReviewController {
	return &ReviewController{
		client:      client,
		guard:       guard,
		windowHours: 72,
		limit:       50,
	}
}

// SetFilter switches the queue filter and drops any previously fetched view
func (c *ReviewController) SetFilter(windowHours int, status string, limit int) {
	if windowHours > 0 {
		c.windowHours = windowHours
	}
	c.status = status
	if limit > 0 {
		c.limit = limit
	}
}

// Refresh fetches the queue and dashboard for the active filter
func (c *ReviewController) Refresh(ctx context.Context) (*ReviewView, error) {
	queue, err := c.client.ReviewQueue(ctx, c.windowHours, c.status, c.limit)
	if err != nil {
		return nil, err
	}
	dashboard, err := c.client.ReferralDashboard(ctx, c.windowHours)
	if err != nil {
		return nil, err
	}
	return &ReviewView{Queue: queue, Dashboard: dashboard}, nil
}

// Decide applies one review decision and returns the refreshed view.
// A conflict or auth failure is returned as-is with no retry; the
// operator re-reads and decides again.
func (c *ReviewController) Decide(ctx context.Context, id int64, decision, reason, expected string) (*referral.ReviewActionResponse, *ReviewView, error) {
	result, err := c.guard.DecideReferral(ctx, id, decision, reason, expected)
	if err != nil {
		return nil, nil, err
	}

	view, err := c.Refresh(ctx)
	if err != nil {
		// The decision committed; surface the stale view problem separately.
		return result, nil, err
	}
	return result, view, nil
}
