package events

import (
	"encoding/json"
	"time"
)

// Notification event delivery states written by the outbox worker
const (
	StatusSent   = "SENT"
	StatusFailed = "FAILED"
)

const (
	TypeRewardMilestoneAvailable = "referral_reward_milestone_available"
	TypeRewardGranted            = "referral_reward_granted"
)

// NotificationEventTypes lists the outbox event types the feed serves,
// in the stable order the queries use.
var NotificationEventTypes = []string{
	TypeRewardGranted,
	TypeRewardMilestoneAvailable,
}

// KnownEventType reports whether t is a served notification event type
func KnownEventType(t string) bool {
	for _, known := range NotificationEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event is one outbox notification event row
type Event struct {
	ID        int64           `db:"id"`
	EventType string          `db:"event_type"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	Payload   json.RawMessage `db:"payload"`
}
