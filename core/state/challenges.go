package state

import (
	"math/big"

	"streamledger/native/challenge"
)

func challengeKey(streamID, id uint64) []byte {
	return prefixedKey(challengePrefix, u64(streamID), u64(id))
}

func contributionKey(streamID, challengeID uint64, contributor [20]byte) []byte {
	return prefixedKey(contributionPrefix, u64(streamID), u64(challengeID), contributor[:])
}

// ChallengeGet loads the challenge keyed by (streamID, id).
func (m *Manager) ChallengeGet(streamID, id uint64) (*challenge.Challenge, bool, error) {
	record := new(challenge.Challenge)
	ok, err := m.KVGet(challengeKey(streamID, id), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	if record.Goal == nil {
		record.Goal = big.NewInt(0)
	}
	if record.Current == nil {
		record.Current = big.NewInt(0)
	}
	return record, true, nil
}

// ChallengePut persists the challenge.
func (m *Manager) ChallengePut(record *challenge.Challenge) error {
	if record == nil {
		return errNilRecord
	}
	return m.KVPut(challengeKey(record.StreamID, record.ID), record)
}

// ContributionGet loads the accumulated contribution of one account.
func (m *Manager) ContributionGet(streamID, challengeID uint64, contributor [20]byte) (*challenge.Contribution, bool, error) {
	record := new(challenge.Contribution)
	ok, err := m.KVGet(contributionKey(streamID, challengeID, contributor), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	if record.Amount == nil {
		record.Amount = big.NewInt(0)
	}
	return record, true, nil
}

// ContributionPut persists the contribution.
func (m *Manager) ContributionPut(record *challenge.Contribution) error {
	if record == nil {
		return errNilRecord
	}
	return m.KVPut(contributionKey(record.StreamID, record.ChallengeID, record.Contributor), record)
}
