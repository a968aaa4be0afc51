package attr

import (
	"context"
	"time"

	"github.com/zenkj/ossfs/syncx"
)

type cachedRecord struct {
	record Record
	expiry time.Time
}

// MemoryStore is an in-process attribute cache. With a zero TTL records
// never expire and the store only grows; a positive TTL bounds how stale a
// served record can be.
type MemoryStore struct {
	ttl     time.Duration
	records syncx.Map[string, cachedRecord]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl}
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(ctx context.Context, path string) (Record, bool, error) {
	entry, ok := m.records.Load(path)
	if !ok {
		return Record{}, false, nil
	}

	if m.ttl > 0 && time.Now().After(entry.expiry) {
		m.records.Delete(path)
		return Record{}, false, nil
	}

	return entry.record, true, nil
}

// Insert implements Store.
func (m *MemoryStore) Insert(ctx context.Context, path string, record Record) error {
	entry := cachedRecord{record: record}
	if m.ttl > 0 {
		entry.expiry = time.Now().Add(m.ttl)
	}

	m.records.Store(path, entry)

	return nil
}

// Snapshot implements Store.
func (m *MemoryStore) Snapshot(ctx context.Context) (map[string]Record, error) {
	snapshot := make(map[string]Record)
	now := time.Now()

	m.records.Range(func(path string, entry cachedRecord) bool {
		if m.ttl > 0 && now.After(entry.expiry) {
			return true
		}
		snapshot[path] = entry.record
		return true
	})

	return snapshot, nil
}

var _ Store = &MemoryStore{}
