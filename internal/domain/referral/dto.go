package referral

import "time"

// DashboardThresholds echoes the configured fraud alert thresholds
type DashboardThresholds struct {
	MinStarted            int     `json:"min_started"`
	MaxFraudRejectedRate  float64 `json:"max_fraud_rejected_rate"`
	MaxRejectedFraudTotal int     `json:"max_rejected_fraud_total"`
	MaxReferrerRejected   int     `json:"max_referrer_rejected_fraud"`
}

// DashboardAlerts flags fraud anomalies over the window
type DashboardAlerts struct {
	ThresholdsApplied       bool `json:"thresholds_applied"`
	FraudSpikeDetected      bool `json:"fraud_spike_detected"`
	FraudRateAboveThreshold bool `json:"fraud_rate_above_threshold"`
	RejectedAboveThreshold  bool `json:"rejected_fraud_total_above_threshold"`
	ReferrerSpikeDetected   bool `json:"referrer_spike_detected"`
}

// DashboardResponse is the referral dashboard snapshot
type DashboardResponse struct {
	GeneratedAt time.Time `json:"generated_at"`
	WindowHours int       `json:"window_hours"`

	StartedTotal       int `json:"referrals_started_total"`
	QualifiedLikeTotal int `json:"qualified_like_total"`
	RewardedTotal      int `json:"rewarded_total"`
	RejectedFraudTotal int `json:"rejected_fraud_total"`
	CancelledTotal     int `json:"canceled_total"`

	QualificationRate float64 `json:"qualification_rate"`
	RewardRate        float64 `json:"reward_rate"`
	FraudRejectedRate float64 `json:"fraud_rejected_rate"`

	StatusCounts     map[string]int      `json:"status_counts"`
	TopReferrers     []ReferrerStats     `json:"top_referrers"`
	RecentFraudCases []ReviewCase        `json:"recent_fraud_cases"`
	Thresholds       DashboardThresholds `json:"thresholds"`
	Alerts           DashboardAlerts     `json:"alerts"`
}

// ReviewCase is the wire shape of one referral case
type ReviewCase struct {
	ReferralID     int64      `json:"referral_id"`
	ReferrerUserID int64      `json:"referrer_user_id"`
	ReferredUserID int64      `json:"referred_user_id"`
	Status         string     `json:"status"`
	FraudScore     float64    `json:"fraud_score"`
	CreatedAt      time.Time  `json:"created_at"`
	QualifiedAt    *time.Time `json:"qualified_at"`
	RewardedAt     *time.Time `json:"rewarded_at"`
}

// ReviewQueueResponse is the bounded review queue
type ReviewQueueResponse struct {
	GeneratedAt  time.Time    `json:"generated_at"`
	WindowHours  int          `json:"window_hours"`
	StatusFilter string       `json:"status_filter,omitempty"`
	Cases        []ReviewCase `json:"cases"`
}

// ReviewActionRequest applies one console decision to one case
type ReviewActionRequest struct {
	Decision              string `json:"decision" validate:"required,review_decision"`
	Reason                string `json:"reason,omitempty" validate:"max=256"`
	ExpectedCurrentStatus string `json:"expected_current_status" validate:"required,review_status"`
}

// ReviewActionResponse returns the new authoritative case state
type ReviewActionResponse struct {
	Referral         ReviewCase `json:"referral"`
	IdempotentReplay bool       `json:"idempotent_replay"`
}

func asReviewCase(r *Referral) ReviewCase {
	c := ReviewCase{
		ReferralID:     r.ID,
		ReferrerUserID: r.ReferrerUserID,
		ReferredUserID: r.ReferredUserID,
		Status:         string(r.Status),
		FraudScore:     r.FraudScore,
		CreatedAt:      r.CreatedAt,
	}
	if r.QualifiedAt.Valid {
		t := r.QualifiedAt.Time
		c.QualifiedAt = &t
	}
	if r.RewardedAt.Valid {
		t := r.RewardedAt.Time
		c.RewardedAt = &t
	}
	return c
}
