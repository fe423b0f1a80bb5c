package challenge

import (
	"strconv"

	"streamledger/core/types"
)

const (
	EventTypeChallengeCreated   = "challenge.created"
	EventTypeChallengeFunded    = "challenge.contributed"
	EventTypeChallengeCompleted = "challenge.completed"
)

// ChallengeCreatedEvent returns the structured event payload for a new goal.
func ChallengeCreatedEvent(streamID, id uint64, creator, goal string, expiresAt uint64) *types.Event {
	return &types.Event{
		Type: EventTypeChallengeCreated,
		Attributes: map[string]string{
			"streamId":    strconv.FormatUint(streamID, 10),
			"challengeId": strconv.FormatUint(id, 10),
			"creator":     creator,
			"goal":        goal,
			"expiresAt":   strconv.FormatUint(expiresAt, 10),
		},
	}
}

// ChallengeFundedEvent captures a single contribution.
func ChallengeFundedEvent(streamID, id uint64, contributor, amount, current string) *types.Event {
	return &types.Event{
		Type: EventTypeChallengeFunded,
		Attributes: map[string]string{
			"streamId":    strconv.FormatUint(streamID, 10),
			"challengeId": strconv.FormatUint(id, 10),
			"contributor": contributor,
			"amount":      amount,
			"current":     current,
		},
	}
}

// ChallengeCompletedEvent is emitted once, when the goal is first reached.
func ChallengeCompletedEvent(streamID, id uint64, current string) *types.Event {
	return &types.Event{
		Type: EventTypeChallengeCompleted,
		Attributes: map[string]string{
			"streamId":    strconv.FormatUint(streamID, 10),
			"challengeId": strconv.FormatUint(id, 10),
			"current":     current,
		},
	}
}
