package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	"streamledger/storage"
)

var errEmptyKey = errors.New("kv: key must not be empty")

type journalEntry struct {
	value   []byte
	deleted bool
}

// Manager is a journaled key/value view over a storage.Database. Writes are
// held in memory until Commit flushes them as one atomic batch; Discard drops
// them. Values are RLP encoded under keccak256-hashed keys.
//
// Manager is not safe for concurrent use. The ledger coordinator serializes
// every operation.
type Manager struct {
	db      storage.Database
	journal map[string]journalEntry
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, journal: make(map[string]journalEntry)}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// prefixedKey joins a record prefix with its composite key parts.
func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return buf
}

func (m *Manager) get(hashed []byte) ([]byte, error) {
	if entry, ok := m.journal[string(hashed)]; ok {
		if entry.deleted {
			return nil, nil
		}
		return entry.value, nil
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// KVPut stores the RLP encoding of value under key in the journal.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return errEmptyKey
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.journal[string(kvKey(key))] = journalEntry{value: encoded}
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state. Pending journal writes are visible.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, errEmptyKey
	}
	data, err := m.get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes key from state once the journal is committed.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return errEmptyKey
	}
	m.journal[string(kvKey(key))] = journalEntry{deleted: true}
	return nil
}

// Pending reports the number of keys touched since the last Commit or Discard.
func (m *Manager) Pending() int {
	return len(m.journal)
}

// Commit writes every journaled change to the database in a single batch.
func (m *Manager) Commit() error {
	if len(m.journal) == 0 {
		return nil
	}
	batch := new(leveldb.Batch)
	for key, entry := range m.journal {
		if entry.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), entry.value)
	}
	if err := m.db.Write(batch); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	m.journal = make(map[string]journalEntry)
	return nil
}

// Discard drops every journaled change.
func (m *Manager) Discard() {
	m.journal = make(map[string]journalEntry)
}
