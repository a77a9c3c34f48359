package referral

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/pkg/metrics"
)

// AlertThresholds gate the fraud alert flags on the dashboard.
type AlertThresholds struct {
	MinStarted            int
	MaxFraudRejectedRate  float64
	MaxRejectedFraudTotal int
	MaxReferrerRejected   int
}

type Service struct {
	repo       Repository
	thresholds AlertThresholds
}

func NewService(repo Repository, thresholds AlertThresholds) *Service {
	return &Service{repo: repo, thresholds: thresholds}
}

func (s *Service) Dashboard(ctx context.Context, windowHours int) (*DashboardResponse, error) {
	now := time.Now().UTC()
	since := now.Add(-time.Duration(windowHours) * time.Hour)

	counts, err := s.repo.CountByStatusSince(ctx, since)
	if err != nil {
		return nil, err
	}

	topReferrers, err := s.repo.TopReferrersByFraud(ctx, since, 10)
	if err != nil {
		return nil, err
	}

	fraudCases, err := s.repo.RecentFraudCases(ctx, since, 20)
	if err != nil {
		return nil, err
	}

	started := metrics.SumCounts(counts)
	qualifiedLike := counts[string(StatusQualified)] + counts[string(StatusRewarded)]
	rewarded := counts[string(StatusRewarded)]
	rejectedFraud := counts[string(StatusFraudConfirmed)]
	cancelled := counts[string(StatusCancelled)]

	resp := &DashboardResponse{
		GeneratedAt:        now,
		WindowHours:        windowHours,
		StartedTotal:       started,
		QualifiedLikeTotal: qualifiedLike,
		RewardedTotal:      rewarded,
		RejectedFraudTotal: rejectedFraud,
		CancelledTotal:     cancelled,
		QualificationRate:  metrics.Rate(qualifiedLike, started),
		RewardRate:         metrics.Rate(rewarded, started),
		FraudRejectedRate:  metrics.Rate(rejectedFraud, started),
		StatusCounts:       counts,
		TopReferrers:       topReferrers,
		Thresholds: DashboardThresholds{
			MinStarted:            s.thresholds.MinStarted,
			MaxFraudRejectedRate:  s.thresholds.MaxFraudRejectedRate,
			MaxRejectedFraudTotal: s.thresholds.MaxRejectedFraudTotal,
			MaxReferrerRejected:   s.thresholds.MaxReferrerRejected,
		},
	}

	resp.RecentFraudCases = make([]ReviewCase, 0, len(fraudCases))
	for i := range fraudCases {
		resp.RecentFraudCases = append(resp.RecentFraudCases, asReviewCase(&fraudCases[i]))
	}

	resp.Alerts = s.evaluateAlerts(resp, topReferrers)
	return resp, nil
}

// evaluateAlerts only fires once enough referrals started in the window,
// so a single fraudulent case in a quiet hour does not page anyone.
func (s *Service) evaluateAlerts(resp *DashboardResponse, topReferrers []ReferrerStats) DashboardAlerts {
	alerts := DashboardAlerts{}
	if resp.StartedTotal < s.thresholds.MinStarted {
		return alerts
	}
	alerts.ThresholdsApplied = true

	if resp.FraudRejectedRate > s.thresholds.MaxFraudRejectedRate {
		alerts.FraudRateAboveThreshold = true
	}
	if resp.RejectedFraudTotal > s.thresholds.MaxRejectedFraudTotal {
		alerts.RejectedAboveThreshold = true
	}
	for _, ref := range topReferrers {
		if ref.RejectedFraudTotal > s.thresholds.MaxReferrerRejected {
			alerts.ReferrerSpikeDetected = true
			break
		}
	}
	alerts.FraudSpikeDetected = alerts.FraudRateAboveThreshold ||
		alerts.RejectedAboveThreshold || alerts.ReferrerSpikeDetected
	return alerts
}

func (s *Service) ReviewQueue(ctx context.Context, windowHours int, statusFilter string, limit int) (*ReviewQueueResponse, error) {
	now := time.Now().UTC()
	since := now.Add(-time.Duration(windowHours) * time.Hour)

	status := Status(strings.ToUpper(strings.TrimSpace(statusFilter)))
	if status != "" && !KnownStatus(status) {
		return nil, ErrStatusInvalid
	}

	cases, err := s.repo.ListForReviewSince(ctx, since, status, limit)
	if err != nil {
		return nil, err
	}

	resp := &ReviewQueueResponse{
		GeneratedAt:  now,
		WindowHours:  windowHours,
		StatusFilter: string(status),
		Cases:        make([]ReviewCase, 0, len(cases)),
	}
	for i := range cases {
		resp.Cases = append(resp.Cases, asReviewCase(&cases[i]))
	}
	return resp, nil
}

func (s *Service) ApplyDecision(ctx context.Context, id int64, req *ReviewActionRequest) (*ReviewActionResponse, error) {
	decision := Decision(strings.ToUpper(strings.TrimSpace(req.Decision)))
	if !KnownDecision(decision) {
		return nil, ErrDecisionInvalid
	}

	expected := Status(strings.ToUpper(strings.TrimSpace(req.ExpectedCurrentStatus)))
	if !KnownStatus(expected) {
		return nil, ErrStatusInvalid
	}

	if _, ok := ResolveNextStatus(expected, decision); !ok {
		return nil, ErrDecisionConflict
	}

	ref, replay, err := s.repo.ApplyReviewDecision(ctx, id, decision, expected, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("referral_id", id).
		Str("decision", string(decision)).
		Str("status", string(ref.Status)).
		Bool("idempotent_replay", replay).
		Msg("referral review decision applied")

	resp := &ReviewActionResponse{
		Referral:         asReviewCase(ref),
		IdempotentReplay: replay,
	}
	return resp, nil
}
