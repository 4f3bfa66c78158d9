package amqp

import (
	"encoding/json"
	"time"

	"facturas/internal/core"
)

// Record actions carried by RecordChangedMessage
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordChangedMessage is a lightweight notification that a fiscal record
// changed. It carries only identifiers; the worker fetches the full row
// from the database.
type RecordChangedMessage struct {
	UserID    string          `json:"userId"`
	Kind      core.RecordKind `json:"kind"`
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordChangedMessage creates a change notification for one record
func NewRecordChangedMessage(userID string, kind core.RecordKind, id, action string) *RecordChangedMessage {
	return &RecordChangedMessage{
		UserID:    userID,
		Kind:      kind,
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedMessageFromJSON creates a message from JSON bytes
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
