package models

import "time"

// EventType names a change to the alert set.
type EventType string

const (
	AlertCreated EventType = "alert.created"
	AlertDeleted EventType = "alert.deleted"
)

// AlertEvent is emitted after a create or delete has been persisted.
type AlertEvent struct {
	Type       EventType `json:"type"`
	Alert      Alert     `json:"alert"`
	OccurredAt time.Time `json:"occurred_at"`
}
