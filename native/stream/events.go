package stream

import (
	"strconv"

	"streamledger/core/types"
)

const (
	// EventTypeStreamStarted is emitted when a creator goes live.
	EventTypeStreamStarted = "stream.started"
	// EventTypeStreamEnded is emitted when a creator ends a stream.
	EventTypeStreamEnded = "stream.ended"
)

// StreamStartedEvent returns the structured event payload for a new stream.
func StreamStartedEvent(id uint64, creator string, title string, category string) *types.Event {
	return &types.Event{
		Type: EventTypeStreamStarted,
		Attributes: map[string]string{
			"streamId": strconv.FormatUint(id, 10),
			"creator":  creator,
			"title":    title,
			"category": category,
		},
	}
}

// StreamEndedEvent captures stream termination and the credited duration.
func StreamEndedEvent(id uint64, creator string, duration uint64) *types.Event {
	return &types.Event{
		Type: EventTypeStreamEnded,
		Attributes: map[string]string{
			"streamId": strconv.FormatUint(id, 10),
			"creator":  creator,
			"duration": strconv.FormatUint(duration, 10),
		},
	}
}
