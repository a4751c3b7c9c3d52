// Package grid exposes read-only HTTP queries over the in-memory grid.
package grid

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/timetable/core/directory"
	coregrid "github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/core/workload"
	"github.com/kilianp07/timetable/pkg/export"
)

const dateLayout = "2006-01-02"

// NewHandler returns a mux serving:
//
//	GET /api/grid           entries of ?mode= filtered by section, teacher, block, day, slot
//	GET /api/substitutions  records of ?date=, archived ones with ?archived=true
//	GET /api/blocks         pool templates, optionally of ?grade=
//	GET /api/workload       weekly load summary of ?mode= for the week of ?date=
//
// /api/grid and /api/substitutions honour ?format=csv.
func NewHandler(g *coregrid.Grid, dir directory.Directory, now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}
	mux := http.NewServeMux()
	mux.Handle("/api/grid", get(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode, ok := model.ParseMode(q.Get("mode"))
		if !ok {
			http.Error(w, "unknown mode", http.StatusBadRequest)
			return
		}
		f := coregrid.Filter{TeacherID: q.Get("teacher"), BlockID: q.Get("block"), SlotID: q.Get("slot")}
		if s := q["section"]; len(s) > 0 {
			f.SectionIDs = s
		}
		if d := q.Get("day"); d != "" {
			day, err := model.ParseDay(d)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.Day = day
		}
		format, err := export.ParseFormat(q.Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		if err := export.WriteEntries(w, format, g.Entries(mode, f)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	mux.Handle("/api/substitutions", get(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		date, ok := parseDate(w, q.Get("date"), now)
		if !ok {
			return
		}
		format, err := export.ParseFormat(q.Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		archived, _ := strconv.ParseBool(q.Get("archived"))
		var out []model.SubstitutionRecord
		for _, rec := range g.Substitutions() {
			if !model.SameDate(rec.Date, date) || (rec.IsArchived && !archived) {
				continue
			}
			out = append(out, rec)
		}
		w.Header().Set("Content-Type", format.ContentType())
		if err := export.WriteSubstitutions(w, format, out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	mux.Handle("/api/blocks", get(func(w http.ResponseWriter, r *http.Request) {
		blocks := g.Blocks()
		if grade := r.URL.Query().Get("grade"); grade != "" {
			blocks = g.GradeBlocks(grade)
		}
		if blocks == nil {
			blocks = []model.CombinedBlock{}
		}
		writeJSON(w, blocks)
	}))
	mux.Handle("/api/workload", get(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		mode, ok := model.ParseMode(q.Get("mode"))
		if !ok {
			http.Error(w, "unknown mode", http.StatusBadRequest)
			return
		}
		date, ok := parseDate(w, q.Get("date"), now)
		if !ok {
			return
		}
		writeJSON(w, workload.Summarize(dir, g, mode, date))
	}))
	return mux
}

func get(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}

func parseDate(w http.ResponseWriter, s string, now func() time.Time) (time.Time, bool) {
	if s == "" {
		y, m, d := now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
