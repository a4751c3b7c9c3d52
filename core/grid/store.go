package grid

import (
	"context"

	"github.com/kilianp07/timetable/core/model"
)

// EntryStore persists schedule entries of both modes, keyed by (mode, id).
type EntryStore interface {
	LoadEntries(ctx context.Context, mode model.Mode) ([]model.ScheduleEntry, error)
	Upsert(ctx context.Context, mode model.Mode, entries ...model.ScheduleEntry) error
	BulkInsert(ctx context.Context, mode model.Mode, entries []model.ScheduleEntry) error
	DeleteWhere(ctx context.Context, mode model.Mode, f Filter) error
	// Replace deletes the entries matching remove and inserts insert in one
	// atomic write.
	Replace(ctx context.Context, mode model.Mode, remove Filter, insert []model.ScheduleEntry) error
	// Promote deletes the live entries of sectionIDs, moves every draft entry
	// into live and empties the draft, in one atomic write.
	Promote(ctx context.Context, sectionIDs []string) error
}

// SubstitutionStore persists substitution records. Records are never deleted.
type SubstitutionStore interface {
	LoadSubstitutions(ctx context.Context) ([]model.SubstitutionRecord, error)
	UpsertSubstitutions(ctx context.Context, recs ...model.SubstitutionRecord) error
}

// BlockStore persists pool templates together with the assignments whose
// derived totals they change.
type BlockStore interface {
	LoadBlocks(ctx context.Context) ([]model.CombinedBlock, error)
	LoadAssignments(ctx context.Context) ([]model.Assignment, error)
	UpsertAssignments(ctx context.Context, as ...model.Assignment) error
	// SaveBlock upserts b and the recomputed assignments atomically.
	SaveBlock(ctx context.Context, b model.CombinedBlock, as []model.Assignment) error
	// DeleteBlock removes the template and upserts the recomputed assignments
	// atomically. Deployed entries are left untouched.
	DeleteBlock(ctx context.Context, id string, as []model.Assignment) error
}

// Store is the durable store the engine writes through.
type Store interface {
	EntryStore
	SubstitutionStore
	BlockStore
	Close() error
}
