// Package queue defines message payloads exchanged over the message broker.
package queue

// AccessQueueName is the durable queue access events are published to.
const AccessQueueName = "portal.access"

// EventKind names what happened at the portal's auth boundary.
type EventKind string

const (
	EventLogin       EventKind = "login"
	EventLoginFailed EventKind = "login_failed"
	EventLogout      EventKind = "logout"
	EventDenied      EventKind = "denied"
)

// AccessEvent is published for every login, logout and gate denial.  It
// carries a token fingerprint, never the token itself.
type AccessEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	Role       string    `json:"role,omitempty"`
	Path       string    `json:"path"`
	RemoteIP   string    `json:"remote_ip"`
	TokenFP    string    `json:"token_fp,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt string    `json:"occurred_at"`
}
