package promo

import "time"

// DashboardResponse is the promo dashboard snapshot. Counters come straight
// from the repository; every *_rate is numerator/denominator with a zero
// denominator yielding 0.0.
type DashboardResponse struct {
	GeneratedAt    time.Time `json:"generated_at"`
	WindowHours    int       `json:"window_hours"`
	AttemptsTotal  int       `json:"attempts_total"`
	AttemptsOK     int       `json:"attempts_accepted"`
	AttemptsFailed int       `json:"attempts_failed"`
	AcceptanceRate float64   `json:"acceptance_rate"`
	FailureRate    float64   `json:"failure_rate"`

	AttemptFailuresByResult map[string]int `json:"attempt_failures_by_result"`

	RedemptionsTotal    int            `json:"redemptions_total"`
	RedemptionsApplied  int            `json:"redemptions_applied"`
	RedemptionsByStatus map[string]int `json:"redemptions_by_status"`

	DiscountRedemptionsTotal    int     `json:"discount_redemptions_total"`
	DiscountRedemptionsApplied  int     `json:"discount_redemptions_applied"`
	DiscountRedemptionsReserved int     `json:"discount_redemptions_reserved"`
	DiscountRedemptionsExpired  int     `json:"discount_redemptions_expired"`
	DiscountConversionRate      float64 `json:"discount_conversion_rate"`

	GuardWindowMinutes int `json:"guard_window_minutes"`
	GuardTriggerHashes int `json:"guard_trigger_hashes"`

	ActiveCampaignsTotal  int `json:"active_campaigns_total"`
	PausedCampaignsTotal  int `json:"paused_campaigns_total"`
	PausedCampaignsRecent int `json:"paused_campaigns_recent"`
}

// CampaignResponse is the wire shape of a campaign
type CampaignResponse struct {
	ID           int64     `json:"id"`
	CampaignName string    `json:"campaign_name"`
	PromoType    string    `json:"promo_type"`
	TargetScope  string    `json:"target_scope"`
	Status       string    `json:"status"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidUntil   time.Time `json:"valid_until"`
	MaxTotalUses *int64    `json:"max_total_uses"`
	UsedTotal    int64     `json:"used_total"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CampaignListResponse wraps the campaign list
type CampaignListResponse struct {
	Campaigns []CampaignResponse `json:"campaigns"`
}

// StatusUpdateRequest asks for an operator status transition.
// ExpectedCurrentStatus is the status the operator last observed; the
// transition is rejected when it no longer matches.
type StatusUpdateRequest struct {
	Status                string `json:"status" validate:"required,mutable_campaign_status"`
	Reason                string `json:"reason,omitempty" validate:"max=256"`
	ExpectedCurrentStatus string `json:"expected_current_status" validate:"required,campaign_status"`
}

// RefundRollbackRequest asks to revert a refunded purchase's promo redemption
type RefundRollbackRequest struct {
	PurchaseID string `json:"purchase_id" validate:"required,uuid4"`
	Reason     string `json:"reason,omitempty" validate:"max=256"`
}

func campaignAsResponse(c *Campaign) CampaignResponse {
	resp := CampaignResponse{
		ID:           c.ID,
		CampaignName: c.CampaignName,
		PromoType:    c.PromoType,
		TargetScope:  c.TargetScope,
		Status:       string(c.Status),
		ValidFrom:    c.ValidFrom,
		ValidUntil:   c.ValidUntil,
		UsedTotal:    c.UsedTotal,
		UpdatedAt:    c.UpdatedAt,
	}
	if c.MaxTotalUses.Valid {
		v := c.MaxTotalUses.Int64
		resp.MaxTotalUses = &v
	}
	return resp
}
