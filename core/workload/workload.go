// Package workload summarises teacher weekly loads: assigned periods from
// assignments, periods actually placed in a grid, and substitutions covered
// in a given week.
package workload

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/timetable/core/directory"
	"github.com/kilianp07/timetable/core/grid"
	"github.com/kilianp07/timetable/core/metrics"
	"github.com/kilianp07/timetable/core/model"
)

// TeacherLoad is one teacher's week.
type TeacherLoad struct {
	TeacherID string `json:"teacher_id"`
	Name      string `json:"name"`
	// Assigned is the sum of assignment totals, group periods included.
	Assigned int `json:"assigned"`
	// Scheduled counts distinct weekly cells the teacher holds in the grid.
	Scheduled     int  `json:"scheduled"`
	Substitutions int  `json:"substitutions"`
	Total         int  `json:"total"`
	OverCap       bool `json:"over_cap"`
}

// Summary aggregates every teacher's load for one week.
type Summary struct {
	Week     time.Time     `json:"week"`
	Mode     model.Mode    `json:"mode"`
	Cap      int           `json:"cap"`
	Teachers []TeacherLoad `json:"teachers"`
	Mean     float64       `json:"mean"`
	StdDev   float64       `json:"std_dev"`
	OverCap  []string      `json:"over_cap"`
}

// Summarize computes the loads of the week containing date. Total is
// Assigned plus Substitutions, the figure the weekly cap applies to.
func Summarize(dir directory.Directory, g *grid.Grid, mode model.Mode, date time.Time) Summary {
	week := model.WeekStart(date)
	capN := dir.MaxWeeklyPeriods()
	if capN <= 0 {
		capN = directory.DefaultMaxWeeklyPeriods
	}
	subs := map[string]int{}
	for _, r := range g.Substitutions() {
		if r.Assigned() && model.WeekStart(r.Date).Equal(week) {
			subs[r.SubstituteTeacherID]++
		}
	}
	cells := map[string]map[model.Cell]bool{}
	for _, e := range g.Entries(mode, grid.Filter{}) {
		if e.TeacherID == "" || e.Dated() {
			continue
		}
		if cells[e.TeacherID] == nil {
			cells[e.TeacherID] = map[model.Cell]bool{}
		}
		cells[e.TeacherID][e.Cell()] = true
	}

	s := Summary{Week: week, Mode: mode, Cap: capN, OverCap: []string{}}
	totals := make([]float64, 0, len(dir.Teachers()))
	for _, t := range dir.Teachers() {
		tl := TeacherLoad{
			TeacherID:     t.ID,
			Name:          t.Name,
			Assigned:      g.WeeklyLoad(t.ID),
			Scheduled:     len(cells[t.ID]),
			Substitutions: subs[t.ID],
		}
		tl.Total = tl.Assigned + tl.Substitutions
		tl.OverCap = tl.Total > capN
		if tl.OverCap {
			s.OverCap = append(s.OverCap, t.ID)
		}
		s.Teachers = append(s.Teachers, tl)
		totals = append(totals, float64(tl.Total))
	}
	if len(totals) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(totals, nil)
	} else if len(totals) == 1 {
		s.Mean = totals[0]
	}
	sort.Strings(s.OverCap)
	return s
}

// Busiest returns the n teachers with the highest totals, ties by id.
func (s Summary) Busiest(n int) []TeacherLoad {
	out := append([]TeacherLoad(nil), s.Teachers...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].TeacherID < out[j].TeacherID
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Samples converts the summary for a metrics.WorkloadRecorder.
func (s Summary) Samples(now time.Time) []metrics.WorkloadSample {
	out := make([]metrics.WorkloadSample, 0, len(s.Teachers))
	for _, t := range s.Teachers {
		out = append(out, metrics.WorkloadSample{TeacherID: t.TeacherID, Periods: t.Total, Cap: s.Cap, Time: now})
	}
	return out
}
