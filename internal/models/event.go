package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types published on the event bus.
const (
	EventUserRegistered      = "user.registered"
	EventOrganizationCreated = "organization.created"
	EventMemberAdded         = "organization.member_added"
)

// Event is the wire format for domain events published to JetStream.
type Event struct {
	V      int    `msgpack:"v"`
	ID     string `msgpack:"id"`
	Type   string `msgpack:"type"`
	TS     int64  `msgpack:"ts"`
	UserID string `msgpack:"user_id"`
	OrgID  string `msgpack:"org_id,omitempty"`
}

func NewEvent(eventType, userID, orgID string) Event {
	return Event{
		V:      1,
		ID:     uuid.NewString(),
		Type:   eventType,
		TS:     time.Now().UnixMilli(),
		UserID: userID,
		OrgID:  orgID,
	}
}
