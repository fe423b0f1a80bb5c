package state

import "fmt"

// Global id sequences. Poll and reward ids are reserved for features that do
// not issue ids yet.
const (
	SequenceStream    = "stream"
	SequenceTier      = "tier"
	SequenceChallenge = "challenge"
	SequencePoll      = "poll"
	SequenceReward    = "reward"
)

var knownSequences = map[string]struct{}{
	SequenceStream:    {},
	SequenceTier:      {},
	SequenceChallenge: {},
	SequencePoll:      {},
	SequenceReward:    {},
}

func sequenceKey(name string) []byte {
	return prefixedKey(sequencePrefix, []byte(name))
}

// Sequence returns the last id issued for name, zero if none.
func (m *Manager) Sequence(name string) (uint64, error) {
	if _, ok := knownSequences[name]; !ok {
		return 0, fmt.Errorf("state: unknown sequence %q", name)
	}
	var last uint64
	if _, err := m.KVGet(sequenceKey(name), &last); err != nil {
		return 0, err
	}
	return last, nil
}

// NextSequence issues the next id for name. Ids start at 1 and only advance
// when the surrounding journal commits.
func (m *Manager) NextSequence(name string) (uint64, error) {
	last, err := m.Sequence(name)
	if err != nil {
		return 0, err
	}
	if last == ^uint64(0) {
		return 0, fmt.Errorf("state: sequence %q exhausted", name)
	}
	next := last + 1
	if err := m.KVPut(sequenceKey(name), next); err != nil {
		return 0, err
	}
	return next, nil
}
