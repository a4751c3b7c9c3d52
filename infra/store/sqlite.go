package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
    mode INTEGER NOT NULL,
    id TEXT NOT NULL,
    day INTEGER NOT NULL,
    slot_id TEXT NOT NULL,
    section_id TEXT NOT NULL,
    teacher_id TEXT NOT NULL,
    subject TEXT NOT NULL,
    room TEXT NOT NULL DEFAULT '',
    block_id TEXT NOT NULL DEFAULT '',
    block_name TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (mode, id)
);
CREATE INDEX IF NOT EXISTS entries_section ON entries (mode, section_id);
CREATE TABLE IF NOT EXISTS substitutions (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    date TEXT NOT NULL,
    slot_id TEXT NOT NULL,
    section_id TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    absent_teacher_id TEXT NOT NULL,
    substitute_teacher_id TEXT NOT NULL DEFAULT '',
    is_archived INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS blocks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    heading TEXT NOT NULL,
    grade_id TEXT NOT NULL,
    section_ids TEXT NOT NULL,
    weekly_periods INTEGER NOT NULL,
    allocations TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS assignments (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    teacher_id TEXT NOT NULL,
    grade_id TEXT NOT NULL,
    loads TEXT NOT NULL,
    group_periods INTEGER NOT NULL,
    UNIQUE (teacher_id, grade_id)
);`

// SQLiteStore persists the grid, substitutions and pool templates in a
// single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("rollback: %v (err: %w)", rerr, err)
		}
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadEntries(ctx context.Context, mode model.Mode) ([]model.ScheduleEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, day, slot_id, section_id, teacher_id, subject, room, block_id, block_name, date
        FROM entries WHERE mode = ?`, int(mode))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.ScheduleEntry
	for rows.Next() {
		var (
			e    model.ScheduleEntry
			day  int
			date string
		)
		if err := rows.Scan(&e.ID, &day, &e.SlotID, &e.SectionID, &e.TeacherID, &e.Subject, &e.Room, &e.BlockID, &e.BlockName, &date); err != nil {
			return nil, err
		}
		e.Day = model.Day(day)
		if e.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	grid.SortEntries(out)
	return out, nil
}

func upsertEntries(ctx context.Context, x execer, mode model.Mode, entries []model.ScheduleEntry) error {
	for _, e := range entries {
		_, err := x.ExecContext(ctx, `INSERT INTO entries (mode, id, day, slot_id, section_id, teacher_id, subject, room, block_id, block_name, date)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (mode, id) DO UPDATE SET day = excluded.day, slot_id = excluded.slot_id,
            section_id = excluded.section_id, teacher_id = excluded.teacher_id, subject = excluded.subject,
            room = excluded.room, block_id = excluded.block_id, block_name = excluded.block_name, date = excluded.date`,
			int(mode), e.ID, int(e.Day), e.SlotID, e.SectionID, e.TeacherID, e.Subject, e.Room, e.BlockID, e.BlockName, formatDate(e.Date))
		if err != nil {
			return fmt.Errorf("upsert entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, mode model.Mode, entries ...model.ScheduleEntry) error {
	return s.tx(ctx, func(tx *sql.Tx) error { return upsertEntries(ctx, tx, mode, entries) })
}

func (s *SQLiteStore) BulkInsert(ctx context.Context, mode model.Mode, entries []model.ScheduleEntry) error {
	return s.Upsert(ctx, mode, entries...)
}

func (s *SQLiteStore) DeleteWhere(ctx context.Context, mode model.Mode, f grid.Filter) error {
	cond, args := where(mode, f)
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE `+cond, args...)
	return err
}

func (s *SQLiteStore) Replace(ctx context.Context, mode model.Mode, remove grid.Filter, insert []model.ScheduleEntry) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		cond, args := where(mode, remove)
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE `+cond, args...); err != nil {
			return err
		}
		return upsertEntries(ctx, tx, mode, insert)
	})
}

func (s *SQLiteStore) Promote(ctx context.Context, sectionIDs []string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if len(sectionIDs) > 0 {
			cond, args := where(model.ModeLive, grid.Filter{SectionIDs: sectionIDs})
			if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE `+cond, args...); err != nil {
				return err
			}
		}
		// Draft ids replace live rows with the same id.
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE mode = ? AND id IN (SELECT id FROM entries WHERE mode = ?)`,
			int(model.ModeLive), int(model.ModeDraft)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE entries SET mode = ? WHERE mode = ?`, int(model.ModeLive), int(model.ModeDraft)); err != nil {
			return err
		}
		return nil
	})
}

func (s *SQLiteStore) LoadSubstitutions(ctx context.Context) ([]model.SubstitutionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date, slot_id, section_id, subject, absent_teacher_id, substitute_teacher_id, is_archived
        FROM substitutions ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.SubstitutionRecord
	for rows.Next() {
		var (
			r    model.SubstitutionRecord
			date string
		)
		if err := rows.Scan(&r.ID, &date, &r.SlotID, &r.SectionID, &r.Subject, &r.AbsentTeacherID, &r.SubstituteTeacherID, &r.IsArchived); err != nil {
			return nil, err
		}
		if r.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("substitution %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertSubstitutions(ctx context.Context, recs ...model.SubstitutionRecord) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		for _, r := range recs {
			_, err := tx.ExecContext(ctx, `INSERT INTO substitutions (id, date, slot_id, section_id, subject, absent_teacher_id, substitute_teacher_id, is_archived)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT (id) DO UPDATE SET date = excluded.date, slot_id = excluded.slot_id, section_id = excluded.section_id,
                subject = excluded.subject, absent_teacher_id = excluded.absent_teacher_id,
                substitute_teacher_id = excluded.substitute_teacher_id, is_archived = excluded.is_archived`,
				r.ID, formatDate(r.Date), r.SlotID, r.SectionID, r.Subject, r.AbsentTeacherID, r.SubstituteTeacherID, r.IsArchived)
			if err != nil {
				return fmt.Errorf("upsert substitution %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) LoadBlocks(ctx context.Context) ([]model.CombinedBlock, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, heading, grade_id, section_ids, weekly_periods, allocations FROM blocks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.CombinedBlock
	for rows.Next() {
		var (
			b              model.CombinedBlock
			sections, allc string
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Heading, &b.GradeID, &sections, &b.WeeklyPeriods, &allc); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sections), &b.SectionIDs); err != nil {
			return nil, fmt.Errorf("block %s sections: %w", b.ID, err)
		}
		if err := json.Unmarshal([]byte(allc), &b.Allocations); err != nil {
			return nil, fmt.Errorf("block %s allocations: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) LoadAssignments(ctx context.Context) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT teacher_id, grade_id, loads, group_periods FROM assignments ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []model.Assignment
	for rows.Next() {
		var (
			a     model.Assignment
			loads string
		)
		if err := rows.Scan(&a.TeacherID, &a.GradeID, &loads, &a.GroupPeriods); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(loads), &a.Loads); err != nil {
			return nil, fmt.Errorf("assignment %s/%s loads: %w", a.TeacherID, a.GradeID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func upsertAssignments(ctx context.Context, x execer, as []model.Assignment) error {
	for _, a := range as {
		loads, err := json.Marshal(a.Loads)
		if err != nil {
			return err
		}
		_, err = x.ExecContext(ctx, `INSERT INTO assignments (teacher_id, grade_id, loads, group_periods) VALUES (?, ?, ?, ?)
            ON CONFLICT (teacher_id, grade_id) DO UPDATE SET loads = excluded.loads, group_periods = excluded.group_periods`,
			a.TeacherID, a.GradeID, string(loads), a.GroupPeriods)
		if err != nil {
			return fmt.Errorf("upsert assignment %s/%s: %w", a.TeacherID, a.GradeID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertAssignments(ctx context.Context, as ...model.Assignment) error {
	return s.tx(ctx, func(tx *sql.Tx) error { return upsertAssignments(ctx, tx, as) })
}

func (s *SQLiteStore) SaveBlock(ctx context.Context, b model.CombinedBlock, as []model.Assignment) error {
	sections, err := json.Marshal(b.SectionIDs)
	if err != nil {
		return err
	}
	allc, err := json.Marshal(b.Allocations)
	if err != nil {
		return err
	}
	return s.tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO blocks (id, title, heading, grade_id, section_ids, weekly_periods, allocations)
            VALUES (?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET title = excluded.title, heading = excluded.heading, grade_id = excluded.grade_id,
            section_ids = excluded.section_ids, weekly_periods = excluded.weekly_periods, allocations = excluded.allocations`,
			b.ID, b.Title, b.Heading, b.GradeID, string(sections), b.WeeklyPeriods, string(allc))
		if err != nil {
			return fmt.Errorf("save block %s: %w", b.ID, err)
		}
		return upsertAssignments(ctx, tx, as)
	})
}

func (s *SQLiteStore) DeleteBlock(ctx context.Context, id string, as []model.Assignment) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id); err != nil {
			return err
		}
		return upsertAssignments(ctx, tx, as)
	})
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
