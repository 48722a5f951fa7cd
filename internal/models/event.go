package models

// RegisteredEvent is published after a successful registration
type RegisteredEvent struct {
	EventID   string `json:"event_id"`  // Unique event identifier
	UserID    string `json:"user_id"`   // Registered user id
	Email     string `json:"email"`     // Registered email (lower-cased)
	Timestamp int64  `json:"timestamp"` // Unix seconds
}
