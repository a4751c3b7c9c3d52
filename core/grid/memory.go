package grid

import (
	"context"
	"sync"

	"github.com/kilianp07/timetable/core/model"
)

// MemoryStore is a Store kept entirely in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[model.Mode]map[string]model.ScheduleEntry
	subs     map[string]model.SubstitutionRecord
	subOrder []string
	blocks   map[string]model.CombinedBlock
	asn      map[model.AssignmentKey]model.Assignment
	asnOrder []model.AssignmentKey
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[model.Mode]map[string]model.ScheduleEntry{
			model.ModeLive:  {},
			model.ModeDraft: {},
		},
		subs:   map[string]model.SubstitutionRecord{},
		blocks: map[string]model.CombinedBlock{},
		asn:    map[model.AssignmentKey]model.Assignment{},
	}
}

func (s *MemoryStore) LoadEntries(_ context.Context, mode model.Mode) ([]model.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ScheduleEntry, 0, len(s.entries[mode]))
	for _, e := range s.entries[mode] {
		out = append(out, e)
	}
	SortEntries(out)
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, mode model.Mode, entries ...model.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[mode][e.ID] = e
	}
	return nil
}

func (s *MemoryStore) BulkInsert(ctx context.Context, mode model.Mode, entries []model.ScheduleEntry) error {
	return s.Upsert(ctx, mode, entries...)
}

func (s *MemoryStore) DeleteWhere(_ context.Context, mode model.Mode, f Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(mode, f)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, mode model.Mode, remove Filter, insert []model.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(mode, remove)
	for _, e := range insert {
		s.entries[mode][e.ID] = e
	}
	return nil
}

func (s *MemoryStore) Promote(_ context.Context, sectionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(sectionIDs) > 0 {
		s.deleteLocked(model.ModeLive, Filter{SectionIDs: sectionIDs})
	}
	for id, e := range s.entries[model.ModeDraft] {
		s.entries[model.ModeLive][id] = e
	}
	s.entries[model.ModeDraft] = map[string]model.ScheduleEntry{}
	return nil
}

func (s *MemoryStore) deleteLocked(mode model.Mode, f Filter) {
	for id, e := range s.entries[mode] {
		if f.Match(e) {
			delete(s.entries[mode], id)
		}
	}
}

func (s *MemoryStore) LoadSubstitutions(context.Context) ([]model.SubstitutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SubstitutionRecord, 0, len(s.subOrder))
	for _, id := range s.subOrder {
		out = append(out, s.subs[id])
	}
	return out, nil
}

func (s *MemoryStore) UpsertSubstitutions(_ context.Context, recs ...model.SubstitutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		if _, ok := s.subs[r.ID]; !ok {
			s.subOrder = append(s.subOrder, r.ID)
		}
		s.subs[r.ID] = r
	}
	return nil
}

func (s *MemoryStore) LoadBlocks(context.Context) ([]model.CombinedBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CombinedBlock, 0, len(s.blocks))
	for _, b := range s.blocks {
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryStore) LoadAssignments(context.Context) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Assignment, 0, len(s.asnOrder))
	for _, k := range s.asnOrder {
		out = append(out, s.asn[k])
	}
	return out, nil
}

func (s *MemoryStore) UpsertAssignments(_ context.Context, as ...model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putAssignmentsLocked(as)
	return nil
}

func (s *MemoryStore) SaveBlock(_ context.Context, b model.CombinedBlock, as []model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[b.ID] = b
	s.putAssignmentsLocked(as)
	return nil
}

func (s *MemoryStore) DeleteBlock(_ context.Context, id string, as []model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blocks, id)
	s.putAssignmentsLocked(as)
	return nil
}

func (s *MemoryStore) putAssignmentsLocked(as []model.Assignment) {
	for _, a := range as {
		k := a.Key()
		if _, ok := s.asn[k]; !ok {
			s.asnOrder = append(s.asnOrder, k)
		}
		s.asn[k] = a
	}
}

func (s *MemoryStore) Close() error { return nil }
