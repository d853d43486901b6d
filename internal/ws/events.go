package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type     string          `json:"type"`
	ID       uint64          `json:"id"`
	IssueIDs []int64         `json:"issue_ids"`
	Data     json.RawMessage `json:"data,omitempty"`
	Time     time.Time       `json:"time"`
}

// SubscribeMsg is sent by the client to request replay and, optionally, to
// restrict the feed to the listed issues. An empty IssueIDs means all issues.
type SubscribeMsg struct {
	Type        string  `json:"type"`
	LastEventID uint64  `json:"last_event_id"`
	IssueIDs    []int64 `json:"issue_ids,omitempty"`
}

// ResetMsg tells the client to do a full refresh (requested events too old).
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// EventSequence hands out monotonic event IDs.
type EventSequence struct {
	counter atomic.Uint64
}

// NewEventSequence creates a new EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{}
}

// Next returns the next sequence number.
func (es *EventSequence) Next() uint64 {
	return es.counter.Add(1)
}
