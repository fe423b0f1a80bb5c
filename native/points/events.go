package points

import (
	"strconv"

	"streamledger/core/types"
)

const (
	// EventTypeEngagementRecorded is emitted when watch time is converted into points.
	EventTypeEngagementRecorded = "points.engagement.recorded"
	// EventTypePointsAwarded is emitted whenever points are minted to a user.
	EventTypePointsAwarded = "points.awarded"
	// EventTypePointsRedeemed is emitted when points are exchanged for value.
	EventTypePointsRedeemed = "points.redeemed"
)

// EngagementRecordedEvent returns the structured event payload for watch-time accrual.
func EngagementRecordedEvent(streamID uint64, viewer string, minutes uint64, points uint64) *types.Event {
	return &types.Event{
		Type: EventTypeEngagementRecorded,
		Attributes: map[string]string{
			"streamId": strconv.FormatUint(streamID, 10),
			"viewer":   viewer,
			"minutes":  strconv.FormatUint(minutes, 10),
			"points":   strconv.FormatUint(points, 10),
		},
	}
}

// PointsAwardedEvent captures points minted to an account.
func PointsAwardedEvent(account string, points uint64, available uint64, reason string) *types.Event {
	return &types.Event{
		Type: EventTypePointsAwarded,
		Attributes: map[string]string{
			"account":   account,
			"points":    strconv.FormatUint(points, 10),
			"available": strconv.FormatUint(available, 10),
			"reason":    reason,
		},
	}
}

// PointsRedeemedEvent captures a redemption and its payout.
func PointsRedeemedEvent(account string, points uint64, payout string) *types.Event {
	return &types.Event{
		Type: EventTypePointsRedeemed,
		Attributes: map[string]string{
			"account": account,
			"points":  strconv.FormatUint(points, 10),
			"payout":  payout,
		},
	}
}
