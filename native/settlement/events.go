package settlement

import (
	"strconv"

	"streamledger/core/types"
)

const (
	// EventTypePaymentSettled is emitted whenever a payment is split between a
	// creator and the platform.
	EventTypePaymentSettled = "settlement.payment.settled"
	// EventTypeTipReceived is emitted when a viewer tips a stream.
	EventTypeTipReceived = "settlement.tip.received"
	// EventTypePlatformFeeUpdated is emitted when the platform fee changes.
	EventTypePlatformFeeUpdated = "settlement.fee.updated"
)

// PaymentSettledEvent returns the structured event payload for a settled split.
func PaymentSettledEvent(domain, payer, creator, gross, fee, net string) *types.Event {
	return &types.Event{
		Type: EventTypePaymentSettled,
		Attributes: map[string]string{
			"domain":  domain,
			"payer":   payer,
			"creator": creator,
			"gross":   gross,
			"fee":     fee,
			"net":     net,
		},
	}
}

// TipReceivedEvent captures a tip against a stream.
func TipReceivedEvent(streamID uint64, tipper, creator, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeTipReceived,
		Attributes: map[string]string{
			"streamId": strconv.FormatUint(streamID, 10),
			"tipper":   tipper,
			"creator":  creator,
			"amount":   amount,
		},
	}
}

// PlatformFeeUpdatedEvent captures a fee percent change.
func PlatformFeeUpdatedEvent(previous, next uint64) *types.Event {
	return &types.Event{
		Type: EventTypePlatformFeeUpdated,
		Attributes: map[string]string{
			"previous": strconv.FormatUint(previous, 10),
			"percent":  strconv.FormatUint(next, 10),
		},
	}
}
