package memory

import (
	"context"
	"sync"

	"deskmatch/internal/domain"
)

// ReferenceStore is an in-memory implementation of ports.ReferenceStore.
// Rows keep insertion order so lookups are deterministic. Data is lost on
// restart; the postgres adapter is the persistent implementation.
type ReferenceStore struct {
	mu         sync.RWMutex
	records    []domain.ReferenceRecord
	byKey      map[[2]string]int // (customer, document_number) -> index in records
	byCustomer map[string][]int
	byDocOrRef map[string][]int
}

func NewReferenceStore() *ReferenceStore {
	s := &ReferenceStore{}
	s.reset()
	return s
}

func (s *ReferenceStore) reset() {
	s.records = nil
	s.byKey = make(map[[2]string]int)
	s.byCustomer = make(map[string][]int)
	s.byDocOrRef = make(map[string][]int)
}

func (s *ReferenceStore) Load(ctx context.Context, records []domain.ReferenceRecord, replace bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if replace {
		s.reset()
	}
	loaded := 0
	for _, rec := range records {
		key := [2]string{rec.Customer, rec.DocumentNumber}
		if i, ok := s.byKey[key]; ok {
			// Customer and document number are fixed by the key, but the
			// reference may change; keep the doc/ref index in step.
			old := s.records[i]
			if old.Reference != rec.Reference {
				if old.Reference != "" && old.Reference != old.DocumentNumber {
					s.byDocOrRef[old.Reference] = removeIndex(s.byDocOrRef[old.Reference], i)
				}
				if rec.Reference != "" && rec.Reference != rec.DocumentNumber {
					s.byDocOrRef[rec.Reference] = append(s.byDocOrRef[rec.Reference], i)
				}
			}
			s.records[i] = rec
			loaded++
			continue
		}
		i := len(s.records)
		s.records = append(s.records, rec)
		s.byKey[key] = i
		s.byCustomer[rec.Customer] = append(s.byCustomer[rec.Customer], i)
		if rec.DocumentNumber != "" {
			s.byDocOrRef[rec.DocumentNumber] = append(s.byDocOrRef[rec.DocumentNumber], i)
		}
		if rec.Reference != "" && rec.Reference != rec.DocumentNumber {
			s.byDocOrRef[rec.Reference] = append(s.byDocOrRef[rec.Reference], i)
		}
		loaded++
	}
	return loaded, nil
}

func (s *ReferenceStore) LookupByCustomer(ctx context.Context, code string) ([]domain.ReferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byCustomer[code]), nil
}

func (s *ReferenceStore) LookupByDocumentOrReference(ctx context.Context, code string) ([]domain.ReferenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byDocOrRef[code]), nil
}

func (s *ReferenceStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func removeIndex(indexes []int, i int) []int {
	out := indexes[:0]
	for _, idx := range indexes {
		if idx != i {
			out = append(out, idx)
		}
	}
	return out
}

func (s *ReferenceStore) collect(indexes []int) []domain.ReferenceRecord {
	if len(indexes) == 0 {
		return nil
	}
	out := make([]domain.ReferenceRecord, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.records[i])
	}
	return out
}
