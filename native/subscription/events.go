package subscription

import (
	"strconv"

	"streamledger/core/types"
)

const (
	EventTypeTierCreated = "subscription.tier.created"
	EventTypeTierStatus  = "subscription.tier.status"
	EventTypeSubscribed  = "subscription.subscribed"
)

// TierCreatedEvent returns the structured event payload for a new tier.
func TierCreatedEvent(creator string, id uint64, price string, durationDays uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTierCreated,
		Attributes: map[string]string{
			"creator":      creator,
			"tierId":       strconv.FormatUint(id, 10),
			"price":        price,
			"durationDays": strconv.FormatUint(durationDays, 10),
		},
	}
}

// TierStatusEvent captures tier activation changes.
func TierStatusEvent(creator string, id uint64, active bool) *types.Event {
	return &types.Event{
		Type: EventTypeTierStatus,
		Attributes: map[string]string{
			"creator": creator,
			"tierId":  strconv.FormatUint(id, 10),
			"active":  strconv.FormatBool(active),
		},
	}
}

// SubscribedEvent captures a new or replaced subscription.
func SubscribedEvent(subscriber, creator string, tierID uint64, endsAt uint64, paid string, bonus uint64) *types.Event {
	return &types.Event{
		Type: EventTypeSubscribed,
		Attributes: map[string]string{
			"subscriber":  subscriber,
			"creator":     creator,
			"tierId":      strconv.FormatUint(tierID, 10),
			"endsAt":      strconv.FormatUint(endsAt, 10),
			"amountPaid":  paid,
			"bonusPoints": strconv.FormatUint(bonus, 10),
		},
	}
}
