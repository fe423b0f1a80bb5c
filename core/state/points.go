package state

import (
	"math/big"

	"streamledger/native/points"
)

func engagementKey(streamID uint64, viewer [20]byte) []byte {
	return prefixedKey(engagementPrefix, u64(streamID), viewer[:])
}

func pointsAccountKey(addr [20]byte) []byte {
	return prefixedKey(pointsAccountPrefix, addr[:])
}

// EngagementGet loads the engagement record for (streamID, viewer).
func (m *Manager) EngagementGet(streamID uint64, viewer [20]byte) (*points.Engagement, bool, error) {
	record := new(points.Engagement)
	ok, err := m.KVGet(engagementKey(streamID, viewer), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	if record.TippedAmount == nil {
		record.TippedAmount = big.NewInt(0)
	}
	return record, true, nil
}

// EngagementPut persists the engagement record.
func (m *Manager) EngagementPut(record *points.Engagement) error {
	if record == nil {
		return errNilRecord
	}
	return m.KVPut(engagementKey(record.StreamID, record.Viewer), record)
}

// PointsAccountGet loads the points balance for addr.
func (m *Manager) PointsAccountGet(addr [20]byte) (*points.Account, bool, error) {
	account := new(points.Account)
	ok, err := m.KVGet(pointsAccountKey(addr), account)
	if err != nil || !ok {
		return nil, ok, err
	}
	return account, true, nil
}

// PointsAccountPut persists the points balance.
func (m *Manager) PointsAccountPut(account *points.Account) error {
	if account == nil {
		return errNilRecord
	}
	return m.KVPut(pointsAccountKey(account.Address), account)
}

// PointsDistributed returns the global count of minted points.
func (m *Manager) PointsDistributed() (uint64, error) {
	var total uint64
	if _, err := m.KVGet(pointsDistributedKey, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// SetPointsDistributed overwrites the global count of minted points.
func (m *Manager) SetPointsDistributed(total uint64) error {
	return m.KVPut(pointsDistributedKey, total)
}
