// Package storetest provides helpers shared by the grid store tests: a store
// wrapper that fails selected writes and a behaviour suite every Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

// ErrInjected is returned by Flaky for failing operations.
var ErrInjected = errors.New("injected store failure")

// Flaky wraps a Store and fails the write operations named in Fail.
// Operation names are the method names, e.g. "Replace" or "Promote".
type Flaky struct {
	grid.Store
	mu    sync.Mutex
	fail  map[string]bool
	calls map[string]int
}

// NewFlaky wraps s. Operations listed in ops fail until Heal is called.
func NewFlaky(s grid.Store, ops ...string) *Flaky {
	f := &Flaky{Store: s, fail: map[string]bool{}, calls: map[string]int{}}
	for _, op := range ops {
		f.fail[op] = true
	}
	return f
}

// Heal stops injecting failures.
func (f *Flaky) Heal() {
	f.mu.Lock()
	f.fail = map[string]bool{}
	f.mu.Unlock()
}

// Calls returns how often op was invoked.
func (f *Flaky) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Flaky) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if f.fail[op] {
		return ErrInjected
	}
	return nil
}

func (f *Flaky) Upsert(ctx context.Context, mode model.Mode, entries ...model.ScheduleEntry) error {
	if err := f.check("Upsert"); err != nil {
		return err
	}
	return f.Store.Upsert(ctx, mode, entries...)
}

func (f *Flaky) BulkInsert(ctx context.Context, mode model.Mode, entries []model.ScheduleEntry) error {
	if err := f.check("BulkInsert"); err != nil {
		return err
	}
	return f.Store.BulkInsert(ctx, mode, entries)
}

func (f *Flaky) DeleteWhere(ctx context.Context, mode model.Mode, flt grid.Filter) error {
	if err := f.check("DeleteWhere"); err != nil {
		return err
	}
	return f.Store.DeleteWhere(ctx, mode, flt)
}

func (f *Flaky) Replace(ctx context.Context, mode model.Mode, remove grid.Filter, insert []model.ScheduleEntry) error {
	if err := f.check("Replace"); err != nil {
		return err
	}
	return f.Store.Replace(ctx, mode, remove, insert)
}

func (f *Flaky) Promote(ctx context.Context, sectionIDs []string) error {
	if err := f.check("Promote"); err != nil {
		return err
	}
	return f.Store.Promote(ctx, sectionIDs)
}

func (f *Flaky) UpsertSubstitutions(ctx context.Context, recs ...model.SubstitutionRecord) error {
	if err := f.check("UpsertSubstitutions"); err != nil {
		return err
	}
	return f.Store.UpsertSubstitutions(ctx, recs...)
}

func (f *Flaky) UpsertAssignments(ctx context.Context, as ...model.Assignment) error {
	if err := f.check("UpsertAssignments"); err != nil {
		return err
	}
	return f.Store.UpsertAssignments(ctx, as...)
}

func (f *Flaky) SaveBlock(ctx context.Context, b model.CombinedBlock, as []model.Assignment) error {
	if err := f.check("SaveBlock"); err != nil {
		return err
	}
	return f.Store.SaveBlock(ctx, b, as)
}

func (f *Flaky) DeleteBlock(ctx context.Context, id string, as []model.Assignment) error {
	if err := f.check("DeleteBlock"); err != nil {
		return err
	}
	return f.Store.DeleteBlock(ctx, id, as)
}
