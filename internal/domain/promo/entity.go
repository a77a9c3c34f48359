package promo

import (
	"database/sql"
	"time"
)

// CampaignStatus represents the lifecycle state of a promo campaign
type CampaignStatus string

const (
	CampaignStatusDraft   CampaignStatus = "DRAFT"
	CampaignStatusActive  CampaignStatus = "ACTIVE"
	CampaignStatusPaused  CampaignStatus = "PAUSED"
	CampaignStatusExpired CampaignStatus = "EXPIRED"
)

// Only ACTIVE and PAUSED are operator-mutable; DRAFT and EXPIRED belong to
// the backend lifecycle and are read-only here.
var mutableStatuses = map[CampaignStatus]bool{
	CampaignStatusActive: true,
	CampaignStatusPaused: true,
}

// allowedTransitions are the operator-initiated edges. Each edge requires
// the opposite state as precondition.
var allowedTransitions = map[CampaignStatus]CampaignStatus{
	CampaignStatusActive: CampaignStatusPaused,
	CampaignStatusPaused: CampaignStatusActive,
}

// IsMutableStatus reports whether operators may move a campaign out of s
func IsMutableStatus(s CampaignStatus) bool {
	return mutableStatuses[s]
}

// CanTransition reports whether from -> to is an operator-initiated edge
func CanTransition(from, to CampaignStatus) bool {
	return allowedTransitions[from] == to
}

// RedemptionStatus values tracked on promo redemptions
const (
	RedemptionStatusApplied    = "APPLIED"
	RedemptionStatusReserved   = "RESERVED"
	RedemptionStatusExpired    = "EXPIRED"
	RedemptionStatusRolledBack = "ROLLED_BACK"
)

// AttemptResultAccepted is the single success result; everything else in
// promo_attempts.result is a failure bucket.
const AttemptResultAccepted = "ACCEPTED"

// FailureResults are the failure buckets broken out on the dashboard
var FailureResults = []string{
	"INVALID_CODE",
	"EXPIRED",
	"LIMIT_REACHED",
	"ALREADY_USED",
	"NOT_ELIGIBLE",
}

// Campaign represents a promo campaign row
type Campaign struct {
	ID           int64          `db:"id" json:"id"`
	CampaignName string         `db:"campaign_name" json:"campaign_name"`
	PromoType    string         `db:"promo_type" json:"promo_type"`
	TargetScope  string         `db:"target_scope" json:"target_scope"`
	Status       CampaignStatus `db:"status" json:"status"`
	ValidFrom    time.Time      `db:"valid_from" json:"valid_from"`
	ValidUntil   time.Time      `db:"valid_until" json:"valid_until"`
	MaxTotalUses sql.NullInt64  `db:"max_total_uses" json:"-"`
	UsedTotal    int64          `db:"used_total" json:"used_total"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// RollbackResult captures the outcome of a refund-driven promo rollback
type RollbackResult struct {
	PurchaseID            string  `json:"purchase_id"`
	PurchaseStatus        string  `json:"purchase_status"`
	PromoRedemptionID     *string `json:"promo_redemption_id"`
	PromoRedemptionStatus *string `json:"promo_redemption_status"`
	PromoCodeID           *int64  `json:"promo_code_id"`
	PromoCodeUsedTotal    *int64  `json:"promo_code_used_total"`
	IdempotentReplay      bool    `json:"idempotent_replay"`
}
