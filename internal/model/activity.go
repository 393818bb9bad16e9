package model

import "time"

// Activity actions written to the audit log.
const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

// ActivityLogEntry is one append-only row of `activity_log`. ID is assigned
// by the database and is unique and increasing.
type ActivityLogEntry struct {
	ID        uint64    // activity_log.id
	UserID    uint64    // activity_log.user_id
	Action    string    // activity_log.action, e.g. "logout"
	IPAddress string    // activity_log.ip_address
	CreatedAt time.Time // activity_log.created_at
}
