package model

import "time"

// Entity kinds that produce change notifications.
const (
	KindPart  = "part"
	KindOrder = "order"
	KindTask  = "task"
)

// Operations carried by a ChangeEvent.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ChangeEvent notifies realtime subscribers about a single entity mutation.
// It is a value: constructed by a mutation handler, delivered by the hub,
// never modified after construction.
type ChangeEvent struct {
	EntityKind string    `json:"entityKind"`
	EntityID   int64     `json:"entityId"`
	Operation  string    `json:"operation"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeEvent(kind string, id int64, op string) ChangeEvent {
	return ChangeEvent{
		EntityKind: kind,
		EntityID:   id,
		Operation:  op,
		Timestamp:  time.Now().UTC(),
	}
}
