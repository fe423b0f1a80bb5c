package creator

import (
	"strconv"

	"streamledger/core/types"
)

const (
	// EventTypeAccountRegistered is emitted when a creator registers a profile.
	EventTypeAccountRegistered = "creator.account.registered"
	// EventTypeAccountUpdated is emitted when a creator edits their profile.
	EventTypeAccountUpdated = "creator.account.updated"
	// EventTypeAccountStatus is emitted when a creator is deactivated or reactivated.
	EventTypeAccountStatus = "creator.account.status"
)

// AccountRegisteredEvent returns the structured event payload for registrations.
func AccountRegisteredEvent(creator string, name string, registeredAt uint64) *types.Event {
	return &types.Event{
		Type: EventTypeAccountRegistered,
		Attributes: map[string]string{
			"creator":      creator,
			"name":         name,
			"registeredAt": strconv.FormatUint(registeredAt, 10),
		},
	}
}

// AccountUpdatedEvent captures profile edits.
func AccountUpdatedEvent(creator string, name string) *types.Event {
	return &types.Event{
		Type: EventTypeAccountUpdated,
		Attributes: map[string]string{
			"creator": creator,
			"name":    name,
		},
	}
}

// AccountStatusEvent captures activation changes.
func AccountStatusEvent(creator string, active bool) *types.Event {
	return &types.Event{
		Type: EventTypeAccountStatus,
		Attributes: map[string]string{
			"creator": creator,
			"active":  strconv.FormatBool(active),
		},
	}
}
