package autofill

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/internal/schooltest"
)

func TestFillMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	sf := schooltest.School()
	sf.Assignments = []model.Assignment{
		{TeacherID: "tA", GradeID: "g1", Loads: []model.Load{{SectionID: "s1", Subject: "Maths", Periods: 10}}},
	}
	f := schooltest.New(t, sf)
	if _, err := New(f.Env).Fill(context.Background(), model.ModeDraft, "g1"); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if v := testutil.ToFloat64(periodsTotal.WithLabelValues("g1", "placed")); v != 9 {
		t.Fatalf("expected 9 placed got %v", v)
	}
	if v := testutil.ToFloat64(periodsTotal.WithLabelValues("g1", "skipped")); v != 1 {
		t.Fatalf("expected 1 skipped got %v", v)
	}
	if n := testutil.CollectAndCount(fillDuration); n != 1 {
		t.Fatalf("expected 1 histogram series got %d", n)
	}
}
