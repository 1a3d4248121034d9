package audit

import "time"

// EventType represents the category of audit event
type EventType string

const (
	EventTypeSignIn        EventType = "auth.sign_in"
	EventTypeSignInFailed  EventType = "auth.sign_in_failed"
	EventTypeTokenApply    EventType = "auth.token_apply"
	EventTypeSessionRevoke EventType = "auth.session_revoke"
	EventTypeAccountUpdate EventType = "account.update"
	EventTypePrefsUpdate   EventType = "account.prefs_update"
	EventTypeOrgCreate     EventType = "org.create"
	EventTypeOrgSwitch     EventType = "org.switch"
	EventTypeMemberRemove  EventType = "org.member_remove"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
)

// Event is a single audit log entry.
type Event struct {
	ID        int64       `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// Actor
	UserID    string `json:"user_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Target, such as an organization or member id.
	Resource string `json:"resource,omitempty"`
}

// SearchFilter narrows audit log queries.
type SearchFilter struct {
	UserID    string
	EventType EventType
	Since     time.Time
	Until     time.Time
	Limit     int
}
