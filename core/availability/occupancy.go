package availability

import (
	"sort"

	"github.com/kilianp07/timetable/core/model"
)

type slotKey struct {
	kind model.EntityKind
	id   string
	day  model.Day
	slot string
}

// holder is one entry or substitution occupying a key.
type holder struct {
	id      string
	blockID string
}

// Occupancy indexes which entries hold each (kind, id, day, slot). It is a
// snapshot: later grid mutations are not reflected, but Reserve lets a batch
// caller account for placements it has not committed yet.
type Occupancy struct {
	keys map[slotKey][]holder
}

func newOccupancy() *Occupancy {
	return &Occupancy{keys: map[slotKey][]holder{}}
}

var kinds = [...]model.EntityKind{model.KindSection, model.KindTeacher, model.KindRoom}

// Reserve marks e as occupying its cell for section, teacher and room.
func (o *Occupancy) Reserve(e model.ScheduleEntry) {
	for _, k := range kinds {
		o.add(k, k.Key(e), e.Day, e.SlotID, holder{id: e.ID, blockID: e.BlockID})
	}
}

// Release removes the holder with entry id from every key of its cell.
func (o *Occupancy) Release(e model.ScheduleEntry) {
	for _, k := range kinds {
		key := slotKey{kind: k, id: k.Key(e), day: e.Day, slot: e.SlotID}
		hs := o.keys[key]
		for i, h := range hs {
			if h.id == e.ID {
				o.keys[key] = append(hs[:i:i], hs[i+1:]...)
				break
			}
		}
		if len(o.keys[key]) == 0 {
			delete(o.keys, key)
		}
	}
}

// ReserveSubstitution marks the substitute of r as busy at the record's weekday.
func (o *Occupancy) ReserveSubstitution(r model.SubstitutionRecord) {
	for _, k := range kinds {
		o.add(k, k.SubstitutionKey(r), r.Day(), r.SlotID, holder{id: r.ID})
	}
}

func (o *Occupancy) add(k model.EntityKind, id string, day model.Day, slot string, h holder) {
	if id == "" {
		return
	}
	key := slotKey{kind: k, id: id, day: day, slot: slot}
	o.keys[key] = append(o.keys[key], h)
}

// IsFree reports whether q's entity holds nothing at q's cell besides the
// excluded entry and, for teachers and rooms, members of q's block group.
func (o *Occupancy) IsFree(q Query) bool {
	if q.ID == "" {
		return true
	}
	for _, h := range o.keys[slotKey{kind: q.Kind, id: q.ID, day: q.Day, slot: q.SlotID}] {
		if q.ExcludeEntryID != "" && h.id == q.ExcludeEntryID {
			continue
		}
		if q.Kind != model.KindSection && q.BlockID != "" && h.blockID == q.BlockID {
			continue
		}
		return false
	}
	return true
}

// Holders returns the ids occupying q's cell for q's entity.
func (o *Occupancy) Holders(q Query) []string {
	hs := o.keys[slotKey{kind: q.Kind, id: q.ID, day: q.Day, slot: q.SlotID}]
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.id)
	}
	return out
}

// Violations lists every key held more than once. Teachers and rooms shared
// by a single block group do not count.
func (o *Occupancy) Violations() []model.ConflictError {
	var out []model.ConflictError
	for k, hs := range o.keys {
		if len(hs) < 2 {
			continue
		}
		if k.kind != model.KindSection && oneGroup(hs) {
			continue
		}
		out = append(out, model.ConflictError{Kind: k.kind, ID: k.id, Day: k.day, SlotID: k.slot})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.SlotID < b.SlotID
	})
	return out
}

func oneGroup(hs []holder) bool {
	b := hs[0].blockID
	if b == "" {
		return false
	}
	for _, h := range hs[1:] {
		if h.blockID != b {
			return false
		}
	}
	return true
}
