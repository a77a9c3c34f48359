package console

import (
	"context"
	"strings"

	"github.com/quizops/quizops-api/internal/domain/promo"
	"github.com/quizops/quizops-api/internal/domain/referral"
)

// Guard performs one optimistic-concurrency-guarded state change per call.
// Local validation failures never reach the network, and a precondition
// conflict is handed back to the operator untouched; the guard never
// re-reads and retries on its own.
type Guard struct {
	client *Client
}

// NewGuard creates a transition guard over the console client
func NewGuard(client *Client) *Guard {
	return &Guard{client: client}
}

// TransitionCampaign moves one campaign between ACTIVE and PAUSED.
// expected is the status the operator last observed.
func (g *Guard) TransitionCampaign(ctx context.Context, id int64, target, reason, expected string) (*promo.CampaignResponse, error) {
	if id <= 0 {
		return nil, validationError("campaign id must be positive")
	}

	targetStatus := promo.CampaignStatus(strings.ToUpper(strings.TrimSpace(target)))
	if !promo.IsMutableStatus(targetStatus) {
		return nil, validationError("target status must be ACTIVE or PAUSED")
	}

	expectedStatus := promo.CampaignStatus(strings.ToUpper(strings.TrimSpace(expected)))
	if !promo.CanTransition(expectedStatus, targetStatus) {
		return nil, validationError("no allowed transition from " + string(expectedStatus) + " to " + string(targetStatus))
	}

	req := &promo.StatusUpdateRequest{
		Status:                string(targetStatus),
		Reason:                strings.TrimSpace(reason),
		ExpectedCurrentStatus: string(expectedStatus),
	}
	return g.client.UpdateCampaignStatus(ctx, id, req)
}

// DecideReferral applies one review decision to one referral case.
// expected is the status the operator last observed.
func (g *Guard) DecideReferral(ctx context.Context, id int64, decision, reason, expected string) (*referral.ReviewActionResponse, error) {
	if id <= 0 {
		return nil, validationError("referral id must be positive")
	}

	normalized := referral.Decision(strings.ToUpper(strings.TrimSpace(decision)))
	if !referral.KnownDecision(normalized) {
		return nil, validationError("decision must be CONFIRM_FRAUD, REOPEN or CANCEL")
	}

	expectedStatus := referral.Status(strings.ToUpper(strings.TrimSpace(expected)))
	if !referral.KnownStatus(expectedStatus) {
		return nil, validationError("unknown expected status " + string(expectedStatus))
	}
	if _, ok := referral.ResolveNextStatus(expectedStatus, normalized); !ok {
		return nil, validationError("decision " + string(normalized) + " is not legal from " + string(expectedStatus))
	}

	req := &referral.ReviewActionRequest{
		Decision:              string(normalized),
		Reason:                strings.TrimSpace(reason),
		ExpectedCurrentStatus: string(expectedStatus),
	}
	return g.client.ApplyReviewDecision(ctx, id, req)
}
