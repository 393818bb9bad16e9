// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityQueueName is the durable queue carrying audit log events.
const ActivityQueueName = "auth.activity"

// ActivityEvent is published after an activity_log row has been written so
// downstream consumers can log or alert without querying the database.
type ActivityEvent struct {
	ID         uint64 `json:"id"`
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action"`
	IPAddress  string `json:"ip_address"`
	OccurredAt string `json:"occurred_at"`
}
