// Package export writes grid entries and substitution records as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/timetable/core/model"
)

const dateLayout = "2006-01-02"

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" and "csv".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// WriteEntries writes entries to w in format f.
func WriteEntries(w io.Writer, f Format, entries []model.ScheduleEntry) error {
	if f == FormatCSV {
		return WriteCSV(w, entries)
	}
	return WriteJSON(w, entries)
}

// WriteJSON writes the entries to w in JSON format.
func WriteJSON(w io.Writer, entries []model.ScheduleEntry) error {
	if entries == nil {
		entries = []model.ScheduleEntry{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the entries to w in CSV format with a header row.
func WriteCSV(w io.Writer, entries []model.ScheduleEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "day", "slot_id", "section_id", "teacher_id", "subject", "room", "block_id", "block_name", "date"}); err != nil {
		return err
	}
	for _, e := range entries {
		date := ""
		if e.Dated() {
			date = e.Date.Format(dateLayout)
		}
		rec := []string{e.ID, e.Day.String(), e.SlotID, e.SectionID, e.TeacherID, e.Subject, e.Room, e.BlockID, e.BlockName, date}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSubstitutions writes records to w in format f.
func WriteSubstitutions(w io.Writer, f Format, recs []model.SubstitutionRecord) error {
	if f != FormatCSV {
		if recs == nil {
			recs = []model.SubstitutionRecord{}
		}
		return json.NewEncoder(w).Encode(recs)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "date", "slot_id", "section_id", "subject", "absent_teacher_id", "substitute_teacher_id", "is_archived"}); err != nil {
		return err
	}
	for _, r := range recs {
		rec := []string{r.ID, r.Date.Format(dateLayout), r.SlotID, r.SectionID, r.Subject, r.AbsentTeacherID, r.SubstituteTeacherID, strconv.FormatBool(r.IsArchived)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
