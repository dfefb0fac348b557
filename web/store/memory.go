// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"

	"github.com/mdhender/aresmem/model"
)

// Source provides the loaded dataset.
// Every call returns the same immutable, load-ordered slice.
type Source interface {
	Load(ctx context.Context) ([]*model.Record, error)
}

// MemoryStore is a Source over records that are already in memory.
// It is used by commands that build a dataset by hand and by tests.
type MemoryStore struct {
	records []*model.Record
}

// NewMemoryStore creates a MemoryStore that serves the given records in order.
func NewMemoryStore(records ...*model.Record) *MemoryStore {
	return &MemoryStore{records: records}
}

// NewMemoryStoreFromLines decodes each line and keeps the ones that decode,
// applying the same skip rules as the file loader.
func NewMemoryStoreFromLines(lines ...string) (*MemoryStore, error) {
	dec, err := newLineDecoder()
	if err != nil {
		return nil, err
	}
	s := &MemoryStore{}
	for _, line := range lines {
		if r, err := dec.decode([]byte(line)); err == nil {
			s.records = append(s.records, r)
		}
	}
	return s, nil
}

// Load returns the records.
func (s *MemoryStore) Load(_ context.Context) ([]*model.Record, error) {
	return s.records, nil
}

// Len returns the number of records in the store.
func (s *MemoryStore) Len() int {
	return len(s.records)
}
