package referral

import (
	"database/sql"
	"time"
)

// Status represents a referral case lifecycle state
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusQualified      Status = "QUALIFIED"
	StatusRewarded       Status = "REWARDED"
	StatusFraudSuspected Status = "FRAUD_SUSPECTED"
	StatusFraudConfirmed Status = "FRAUD_CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
)

// Decision is a console review action
type Decision string

const (
	DecisionConfirmFraud Decision = "CONFIRM_FRAUD"
	DecisionReopen       Decision = "REOPEN"
	DecisionCancel       Decision = "CANCEL"
)

// FraudScoreVelocity is the floor CONFIRM_FRAUD raises the fraud score to
const FraudScoreVelocity = 0.9

// reviewableStatuses are the source states a console decision may act on.
// FRAUD_CONFIRMED and CANCELLED are terminal for console-initiated moves.
var reviewableStatuses = map[Status]bool{
	StatusPending:        true,
	StatusQualified:      true,
	StatusFraudSuspected: true,
}

// ResolveNextStatus maps (current status, decision) to the next status.
// Returns false when the decision is not legal from the current status.
func ResolveNextStatus(current Status, decision Decision) (Status, bool) {
	if !reviewableStatuses[current] {
		return "", false
	}
	switch decision {
	case DecisionConfirmFraud:
		return StatusFraudConfirmed, true
	case DecisionReopen:
		return StatusPending, true
	case DecisionCancel:
		return StatusCancelled, true
	}
	return "", false
}

// KnownStatus reports whether s is one of the referral statuses
func KnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusQualified, StatusRewarded,
		StatusFraudSuspected, StatusFraudConfirmed, StatusCancelled:
		return true
	}
	return false
}

// KnownDecision reports whether d is a supported review decision
func KnownDecision(d Decision) bool {
	switch d {
	case DecisionConfirmFraud, DecisionReopen, DecisionCancel:
		return true
	}
	return false
}

// Referral represents a referral case row
type Referral struct {
	ID             int64        `db:"id"`
	ReferrerUserID int64        `db:"referrer_user_id"`
	ReferredUserID int64        `db:"referred_user_id"`
	Status         Status       `db:"status"`
	FraudScore     float64      `db:"fraud_score"`
	CreatedAt      time.Time    `db:"created_at"`
	QualifiedAt    sql.NullTime `db:"qualified_at"`
	RewardedAt     sql.NullTime `db:"rewarded_at"`
}

// ReferrerStats aggregates one referrer's window activity
type ReferrerStats struct {
	ReferrerUserID     int64   `db:"referrer_user_id" json:"referrer_user_id"`
	StartedTotal       int     `db:"started_total" json:"started_total"`
	RejectedFraudTotal int     `db:"rejected_fraud_total" json:"rejected_fraud_total"`
	MaxFraudScore      float64 `db:"max_fraud_score" json:"max_fraud_score"`
}
