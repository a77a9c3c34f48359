package webhook

import "encoding/json"

// Update is the subset of the Telegram update envelope the gate inspects.
// The full raw body travels to the queue untouched.
type Update struct {
	UpdateID *int64          `json:"update_id"`
	Message  json.RawMessage `json:"message"`
}

// ChatID digs the chat id out of the message, 0 when absent or unreadable.
func (u *Update) ChatID() int64 {
	if len(u.Message) == 0 {
		return 0
	}
	var msg struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	}
	if err := json.Unmarshal(u.Message, &msg); err != nil {
		return 0
	}
	return msg.Chat.ID
}

// Delivery outcomes reported to Telegram
const (
	StatusQueued  = "queued"
	StatusIgnored = "ignored"
	StatusRetry   = "retry"
)

// StatusResponse is the webhook acknowledgement body
type StatusResponse struct {
	Status string `json:"status"`
}
