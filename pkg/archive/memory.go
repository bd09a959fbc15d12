package archive

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStorer keeps records in process memory.
type MemoryStorer struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStorer creates an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{records: make(map[string]*Record)}
}

func (s *MemoryStorer) Put(_ context.Context, record *Record) (bool, error) {
	if record == nil {
		return false, errors.New("cannot store nil record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Hash]; ok {
		return false, nil
	}
	s.records[record.Hash] = record
	return true, nil
}

func (s *MemoryStorer) Get(_ context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	return r, nil
}

func (s *MemoryStorer) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStorer) Close() error {
	return nil
}
