package events

import "time"

// EventType enumerates supported audit event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventTokenRefreshed EventType = "token_refreshed"
	EventResourceRead   EventType = "resource_read"
)

// Event represents an audit event emitted by services. Subject is empty for
// failures that never resolved a principal.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// ResourceReadPayload payload.
type ResourceReadPayload struct {
	URI string `json:"uri"`
}
