package promo

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/pkg/metrics"
)

// GuardThresholds configure the promo abuse guard counters on the dashboard
type GuardThresholds struct {
	LookbackMinutes   int
	MinFailedAttempts int
	MinDistinctUsers  int
}

// Service handles promo business logic
type Service struct {
	repo  Repository
	guard GuardThresholds
}

// NewService creates promo service
func NewService(repo Repository, guard GuardThresholds) *Service {
	return &Service{repo: repo, guard: guard}
}

// Dashboard assembles the promo dashboard snapshot for a trailing window.
// Always recomputed; never cached.
func (s *Service) Dashboard(ctx context.Context, windowHours int) (*DashboardResponse, error) {
	now := time.Now().UTC()
	windowSince := now.Add(-time.Duration(windowHours) * time.Hour)
	guardSince := now.Add(-time.Duration(s.guard.LookbackMinutes) * time.Minute)

	attemptCounts, err := s.repo.CountAttemptsByResult(ctx, windowSince)
	if err != nil {
		return nil, err
	}
	redemptionCounts, err := s.repo.CountRedemptionsByStatus(ctx, windowSince)
	if err != nil {
		return nil, err
	}
	discountCounts, err := s.repo.CountDiscountRedemptionsByStatus(ctx, windowSince)
	if err != nil {
		return nil, err
	}
	campaignCounts, err := s.repo.CountCampaignsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	pausedRecent, err := s.repo.CountPausedCampaignsSince(ctx, windowSince)
	if err != nil {
		return nil, err
	}
	guardHashes, err := s.repo.CountAbusiveCodeHashes(ctx, guardSince, s.guard.MinFailedAttempts, s.guard.MinDistinctUsers)
	if err != nil {
		return nil, err
	}

	attemptsTotal := metrics.SumCounts(attemptCounts)
	attemptsAccepted := attemptCounts[AttemptResultAccepted]
	attemptsFailed := attemptsTotal - attemptsAccepted
	if attemptsFailed < 0 {
		attemptsFailed = 0
	}

	failuresByResult := make(map[string]int, len(FailureResults))
	for _, result := range FailureResults {
		failuresByResult[result] = attemptCounts[result]
	}

	discountTotal := metrics.SumCounts(discountCounts)
	discountApplied := discountCounts[RedemptionStatusApplied]

	return &DashboardResponse{
		GeneratedAt:    now,
		WindowHours:    windowHours,
		AttemptsTotal:  attemptsTotal,
		AttemptsOK:     attemptsAccepted,
		AttemptsFailed: attemptsFailed,
		AcceptanceRate: metrics.Rate(attemptsAccepted, attemptsTotal),
		FailureRate:    metrics.Rate(attemptsFailed, attemptsTotal),

		AttemptFailuresByResult: failuresByResult,

		RedemptionsTotal:    metrics.SumCounts(redemptionCounts),
		RedemptionsApplied:  redemptionCounts[RedemptionStatusApplied],
		RedemptionsByStatus: redemptionCounts,

		DiscountRedemptionsTotal:    discountTotal,
		DiscountRedemptionsApplied:  discountApplied,
		DiscountRedemptionsReserved: discountCounts[RedemptionStatusReserved],
		DiscountRedemptionsExpired:  discountCounts[RedemptionStatusExpired],
		DiscountConversionRate:      metrics.Rate(discountApplied, discountTotal),

		GuardWindowMinutes: s.guard.LookbackMinutes,
		GuardTriggerHashes: guardHashes,

		ActiveCampaignsTotal:  campaignCounts[string(CampaignStatusActive)],
		PausedCampaignsTotal:  campaignCounts[string(CampaignStatusPaused)],
		PausedCampaignsRecent: pausedRecent,
	}, nil
}

// ListCampaigns lists campaigns matching the filters, newest first
func (s *Service) ListCampaigns(ctx context.Context, status, campaignName string, limit int) (*CampaignListResponse, error) {
	normalized := strings.ToUpper(strings.TrimSpace(status))
	if normalized != "" && !knownStatus(CampaignStatus(normalized)) {
		return nil, ErrStatusInvalid
	}

	campaigns, err := s.repo.ListCampaigns(ctx, normalized, strings.TrimSpace(campaignName), limit)
	if err != nil {
		return nil, err
	}

	resp := &CampaignListResponse{Campaigns: make([]CampaignResponse, 0, len(campaigns))}
	for _, c := range campaigns {
		resp.Campaigns = append(resp.Campaigns, campaignAsResponse(c))
	}
	return resp, nil
}

// UpdateCampaignStatus performs a single precondition-guarded transition.
// The expected status is checked against the row at commit time; a mismatch
// is ErrStatusConflict and leaves the campaign untouched.
func (s *Service) UpdateCampaignStatus(ctx context.Context, id int64, req *StatusUpdateRequest) (*CampaignResponse, error) {
	desired := CampaignStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	expected := CampaignStatus(strings.ToUpper(strings.TrimSpace(req.ExpectedCurrentStatus)))

	if !IsMutableStatus(desired) {
		return nil, ErrStatusInvalid
	}
	if !knownStatus(expected) {
		return nil, ErrStatusInvalid
	}

	campaign, err := s.repo.TransitionCampaignStatus(ctx, id, desired, expected, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if campaign.Status == desired && desired != expected {
		log.Info().
			Int64("campaign_id", id).
			Str("campaign_name", campaign.CampaignName).
			Str("previous_status", string(expected)).
			Str("next_status", string(desired)).
			Str("reason", strings.TrimSpace(req.Reason)).
			Msg("campaign status changed")
	}

	resp := campaignAsResponse(campaign)
	return &resp, nil
}

// RollbackRefund reverts the promo redemption attached to a refunded purchase
func (s *Service) RollbackRefund(ctx context.Context, req *RefundRollbackRequest) (*RollbackResult, error) {
	purchaseID := strings.TrimSpace(req.PurchaseID)
	if purchaseID == "" {
		return nil, ErrPurchaseIDRequired
	}

	result, err := s.repo.RollbackRefundedPurchase(ctx, purchaseID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("purchase_id", result.PurchaseID).
		Bool("idempotent_replay", result.IdempotentReplay).
		Str("reason", strings.TrimSpace(req.Reason)).
		Msg("refund rollback applied")

	return result, nil
}

func knownStatus(s CampaignStatus) bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused, CampaignStatusExpired:
		return true
	}
	return false
}
