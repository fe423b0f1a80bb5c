package state

import "streamledger/native/stream"

func streamKey(id uint64) []byte {
	return prefixedKey(streamRecordPrefix, u64(id))
}

// StreamGet loads the stream with the supplied id.
func (m *Manager) StreamGet(id uint64) (*stream.Stream, bool, error) {
	record := new(stream.Stream)
	ok, err := m.KVGet(streamKey(id), record)
	if err != nil || !ok {
		return nil, ok, err
	}
	return record, true, nil
}

// StreamPut persists the stream record.
func (m *Manager) StreamPut(record *stream.Stream) error {
	if record == nil {
		return errNilRecord
	}
	return m.KVPut(streamKey(record.ID), record)
}
