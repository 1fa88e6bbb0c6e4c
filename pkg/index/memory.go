package index

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/jlrickert/pubkit/pkg/publish"
)

// ErrDuplicate is returned by InsertOne when a record with the same URL
// already exists.
var ErrDuplicate = errors.New("record already exists")

// MemoryStore is an in-memory RecordStore intended for tests and
// single-process tooling that doesn't need persistence.
//
// Concurrency / locking:
//
//   - MemoryStore guards its map with a sync.RWMutex. FindOneAndUpdate holds
//     the write lock for the whole find and apply, so it is atomic.
//   - Records are copied on the way in and out; callers never share state
//     with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*publish.Record
}

// NewMemoryStore constructs an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*publish.Record)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) InsertOne(ctx context.Context, rec *publish.Record) error {
	url := rec.URL()
	if url == "" {
		return publish.NewStoreError(s.Name(), "insertOne", http.StatusBadRequest, errors.New("record has no url"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[url]; ok {
		return publish.NewStoreError(s.Name(), "insertOne", http.StatusConflict, ErrDuplicate)
	}
	s.records[url] = rec.Clone()
	return nil
}

func (s *MemoryStore) FindOne(ctx context.Context, q publish.Query) (*publish.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[q.URL]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// FindOneAndUpdate applies u under the write lock. A changed url re-keys the
// record.
func (s *MemoryStore) FindOneAndUpdate(ctx context.Context, q publish.Query, u publish.Update) (*publish.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[q.URL]
	if !ok {
		return nil, nil
	}
	next := rec.Clone()
	publish.ApplyUpdate(next, u)
	if url := next.URL(); url != "" && url != q.URL {
		if _, taken := s.records[url]; taken {
			return nil, publish.NewStoreError(s.Name(), "findOneAndUpdate", http.StatusConflict, ErrDuplicate)
		}
		delete(s.records, q.URL)
		s.records[url] = next
	} else {
		s.records[q.URL] = next
	}
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, q publish.Query) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[q.URL]; !ok {
		return publish.NewNotFoundError(q.URL)
	}
	delete(s.records, q.URL)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
