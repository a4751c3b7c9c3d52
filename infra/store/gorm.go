package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

type entryRow struct {
	Mode      int    `gorm:"primaryKey;autoIncrement:false"`
	ID        string `gorm:"primaryKey"`
	Day       int    `gorm:"not null"`
	SlotID    string `gorm:"not null"`
	SectionID string `gorm:"not null;index"`
	TeacherID string `gorm:"not null;index"`
	Subject   string `gorm:"not null"`
	Room      string `gorm:"not null"`
	BlockID   string `gorm:"not null"`
	BlockName string `gorm:"not null"`
	Date      string `gorm:"not null"`
}

func (entryRow) TableName() string { return "entries" }

type substitutionRow struct {
	Seq                 int64  `gorm:"primaryKey;autoIncrement"`
	ID                  string `gorm:"uniqueIndex;not null"`
	Date                string `gorm:"not null;index"`
	SlotID              string `gorm:"not null"`
	SectionID           string `gorm:"not null"`
	Subject             string `gorm:"not null"`
	AbsentTeacherID     string `gorm:"not null"`
	SubstituteTeacherID string `gorm:"not null"`
	IsArchived          bool   `gorm:"not null"`
}

func (substitutionRow) TableName() string { return "substitutions" }

type blockRow struct {
	ID            string `gorm:"primaryKey"`
	Title         string `gorm:"not null"`
	Heading       string `gorm:"not null"`
	GradeID       string `gorm:"not null"`
	SectionIDs    datatypes.JSON
	WeeklyPeriods int `gorm:"not null"`
	Allocations   datatypes.JSON
}

func (blockRow) TableName() string { return "blocks" }

type assignmentRow struct {
	Seq          int64  `gorm:"primaryKey;autoIncrement"`
	TeacherID    string `gorm:"not null;uniqueIndex:assignment_key"`
	GradeID      string `gorm:"not null;uniqueIndex:assignment_key"`
	Loads        datatypes.JSON
	GroupPeriods int `gorm:"not null"`
}

func (assignmentRow) TableName() string { return "assignments" }

// GormStore persists the grid in PostgreSQL through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore migrates the schema on an open connection.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&entryRow{}, &substitutionRow{}, &blockRow{}, &assignmentRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func toEntryRow(mode model.Mode, e model.ScheduleEntry) entryRow {
	return entryRow{
		Mode: int(mode), ID: e.ID, Day: int(e.Day), SlotID: e.SlotID, SectionID: e.SectionID,
		TeacherID: e.TeacherID, Subject: e.Subject, Room: e.Room, BlockID: e.BlockID,
		BlockName: e.BlockName, Date: formatDate(e.Date),
	}
}

func (r entryRow) entry() (model.ScheduleEntry, error) {
	d, err := parseDate(r.Date)
	if err != nil {
		return model.ScheduleEntry{}, fmt.Errorf("entry %s: %w", r.ID, err)
	}
	return model.ScheduleEntry{
		ID: r.ID, Day: model.Day(r.Day), SlotID: r.SlotID, SectionID: r.SectionID,
		TeacherID: r.TeacherID, Subject: r.Subject, Room: r.Room, BlockID: r.BlockID,
		BlockName: r.BlockName, Date: d,
	}, nil
}

func (s *GormStore) LoadEntries(ctx context.Context, mode model.Mode) ([]model.ScheduleEntry, error) {
	var rows []entryRow
	if err := s.db.WithContext(ctx).Where("mode = ?", int(mode)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.ScheduleEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	grid.SortEntries(out)
	return out, nil
}

func upsertEntryRows(tx *gorm.DB, mode model.Mode, entries []model.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, toEntryRow(mode, e))
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}

func (s *GormStore) Upsert(ctx context.Context, mode model.Mode, entries ...model.ScheduleEntry) error {
	return upsertEntryRows(s.db.WithContext(ctx), mode, entries)
}

func (s *GormStore) BulkInsert(ctx context.Context, mode model.Mode, entries []model.ScheduleEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertEntryRows(tx, mode, entries)
	})
}

func (s *GormStore) DeleteWhere(ctx context.Context, mode model.Mode, f grid.Filter) error {
	cond, args := where(mode, f)
	return s.db.WithContext(ctx).Where(cond, args...).Delete(&entryRow{}).Error
}

func (s *GormStore) Replace(ctx context.Context, mode model.Mode, remove grid.Filter, insert []model.ScheduleEntry) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cond, args := where(mode, remove)
		if err := tx.Where(cond, args...).Delete(&entryRow{}).Error; err != nil {
			return err
		}
		return upsertEntryRows(tx, mode, insert)
	})
}

func (s *GormStore) Promote(ctx context.Context, sectionIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(sectionIDs) > 0 {
			cond, args := where(model.ModeLive, grid.Filter{SectionIDs: sectionIDs})
			if err := tx.Where(cond, args...).Delete(&entryRow{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`DELETE FROM entries WHERE mode = ? AND id IN (SELECT id FROM entries WHERE mode = ?)`,
			int(model.ModeLive), int(model.ModeDraft)).Error; err != nil {
			return err
		}
		return tx.Exec(`UPDATE entries SET mode = ? WHERE mode = ?`, int(model.ModeLive), int(model.ModeDraft)).Error
	})
}

func (s *GormStore) LoadSubstitutions(ctx context.Context) ([]model.SubstitutionRecord, error) {
	var rows []substitutionRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.SubstitutionRecord, 0, len(rows))
	for _, r := range rows {
		d, err := parseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("substitution %s: %w", r.ID, err)
		}
		out = append(out, model.SubstitutionRecord{
			ID: r.ID, Date: d, SlotID: r.SlotID, SectionID: r.SectionID, Subject: r.Subject,
			AbsentTeacherID: r.AbsentTeacherID, SubstituteTeacherID: r.SubstituteTeacherID, IsArchived: r.IsArchived,
		})
	}
	return out, nil
}

func (s *GormStore) UpsertSubstitutions(ctx context.Context, recs ...model.SubstitutionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]substitutionRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, substitutionRow{
			ID: r.ID, Date: formatDate(r.Date), SlotID: r.SlotID, SectionID: r.SectionID, Subject: r.Subject,
			AbsentTeacherID: r.AbsentTeacherID, SubstituteTeacherID: r.SubstituteTeacherID, IsArchived: r.IsArchived,
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"date", "slot_id", "section_id", "subject", "absent_teacher_id", "substitute_teacher_id", "is_archived",
			}),
		}).Omit("seq").Create(&rows).Error
	})
}

func (s *GormStore) LoadBlocks(ctx context.Context) ([]model.CombinedBlock, error) {
	var rows []blockRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.CombinedBlock, 0, len(rows))
	for _, r := range rows {
		b := model.CombinedBlock{ID: r.ID, Title: r.Title, Heading: r.Heading, GradeID: r.GradeID, WeeklyPeriods: r.WeeklyPeriods}
		if err := json.Unmarshal(r.SectionIDs, &b.SectionIDs); err != nil {
			return nil, fmt.Errorf("block %s sections: %w", r.ID, err)
		}
		if err := json.Unmarshal(r.Allocations, &b.Allocations); err != nil {
			return nil, fmt.Errorf("block %s allocations: %w", r.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *GormStore) LoadAssignments(ctx context.Context) ([]model.Assignment, error) {
	var rows []assignmentRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Assignment, 0, len(rows))
	for _, r := range rows {
		a := model.Assignment{TeacherID: r.TeacherID, GradeID: r.GradeID, GroupPeriods: r.GroupPeriods}
		if err := json.Unmarshal(r.Loads, &a.Loads); err != nil {
			return nil, fmt.Errorf("assignment %s/%s loads: %w", r.TeacherID, r.GradeID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func upsertAssignmentRows(tx *gorm.DB, as []model.Assignment) error {
	if len(as) == 0 {
		return nil
	}
	rows := make([]assignmentRow, 0, len(as))
	for _, a := range as {
		loads, err := json.Marshal(a.Loads)
		if err != nil {
			return err
		}
		rows = append(rows, assignmentRow{TeacherID: a.TeacherID, GradeID: a.GradeID, Loads: datatypes.JSON(loads), GroupPeriods: a.GroupPeriods})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "teacher_id"}, {Name: "grade_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"loads", "group_periods"}),
	}).Omit("seq").Create(&rows).Error
}

func (s *GormStore) UpsertAssignments(ctx context.Context, as ...model.Assignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error { return upsertAssignmentRows(tx, as) })
}

func (s *GormStore) SaveBlock(ctx context.Context, b model.CombinedBlock, as []model.Assignment) error {
	sections, err := json.Marshal(b.SectionIDs)
	if err != nil {
		return err
	}
	allc, err := json.Marshal(b.Allocations)
	if err != nil {
		return err
	}
	row := blockRow{
		ID: b.ID, Title: b.Title, Heading: b.Heading, GradeID: b.GradeID,
		SectionIDs: datatypes.JSON(sections), WeeklyPeriods: b.WeeklyPeriods, Allocations: datatypes.JSON(allc),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("save block %s: %w", b.ID, err)
		}
		return upsertAssignmentRows(tx, as)
	})
}

func (s *GormStore) DeleteBlock(ctx context.Context, id string, as []model.Assignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&blockRow{}).Error; err != nil {
			return err
		}
		return upsertAssignmentRows(tx, as)
	})
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
