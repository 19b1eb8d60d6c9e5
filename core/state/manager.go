package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"jungle/storage"
)

// Manager is a write overlay over a storage.Database. Reads see pending
// writes first. Nothing reaches the database until Commit, which applies all
// pending writes in a single batch; Discard drops them.
type Manager struct {
	db      storage.Database
	pending map[string]pendingWrite
}

type pendingWrite struct {
	value   []byte
	deleted bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, pending: make(map[string]pendingWrite)}
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if w, ok := m.pending[string(key)]; ok {
		if w.deleted {
			return nil, false, nil
		}
		return w.value, true, nil
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) put(key, value []byte) {
	m.pending[string(key)] = pendingWrite{value: append([]byte(nil), value...)}
}

func (m *Manager) delete(key []byte) {
	m.pending[string(key)] = pendingWrite{deleted: true}
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(key, encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.delete(key)
	return nil
}

// Dirty returns the number of keys with pending writes.
func (m *Manager) Dirty() int {
	return len(m.pending)
}

// Commit writes every pending change to the database atomically and clears
// the overlay. Keys are applied in sorted order.
func (m *Manager) Commit() error {
	if len(m.pending) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m.pending))
	for k := range m.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, k := range keys {
		w := m.pending[k]
		if w.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), w.value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit %d writes: %w", batch.Len(), err)
	}
	m.pending = make(map[string]pendingWrite)
	return nil
}

// Discard drops every pending change.
func (m *Manager) Discard() {
	m.pending = make(map[string]pendingWrite)
}
