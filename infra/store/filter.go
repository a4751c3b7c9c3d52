package store

import (
	"strings"
	"time"

	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
)

const dateLayout = "2006-01-02"

// where renders f as a SQL condition with ? placeholders. Both backends
// accept the same syntax.
func where(mode model.Mode, f grid.Filter) (string, []any) {
	conds := []string{"mode = ?"}
	args := []any{int(mode)}
	in := func(col string, vals []string) {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(vals)), ",")
		conds = append(conds, col+" IN ("+marks+")")
		for _, v := range vals {
			args = append(args, v)
		}
	}
	if len(f.IDs) > 0 {
		in("id", f.IDs)
	}
	if len(f.SectionIDs) > 0 {
		in("section_id", f.SectionIDs)
	}
	if f.TeacherID != "" {
		conds = append(conds, "teacher_id = ?")
		args = append(args, f.TeacherID)
	}
	if f.BlockID != "" {
		conds = append(conds, "block_id = ?")
		args = append(args, f.BlockID)
	}
	if f.Day != 0 {
		conds = append(conds, "day = ?")
		args = append(args, int(f.Day))
	}
	if f.SlotID != "" {
		conds = append(conds, "slot_id = ?")
		args = append(args, f.SlotID)
	}
	return strings.Join(conds, " AND "), args
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
