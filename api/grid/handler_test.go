package grid

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/core/model"
	"github.com/kilianp07/timetable/core/workload"
	"github.com/kilianp07/timetable/internal/schooltest"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	f := schooltest.New(t, schooltest.School())
	f.Put(t, model.ModeLive,
		schooltest.Entry("l1", model.Monday, "p1", "s1", "tA", "Maths"),
		schooltest.Entry("l2", model.Monday, "p2", "s2", "tB", "Physics"),
	)
	f.Put(t, model.ModeDraft, schooltest.Entry("d1", model.Tuesday, "p1", "s1", "tC", "Art"))
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	f.PutSubstitutions(t,
		model.SubstitutionRecord{ID: "r1", Date: monday, SlotID: "p1", SectionID: "s1", AbsentTeacherID: "tA", SubstituteTeacherID: "tB"},
		model.SubstitutionRecord{ID: "r2", Date: monday, SlotID: "p2", SectionID: "s2", AbsentTeacherID: "tB", IsArchived: true},
	)
	srv := httptest.NewServer(NewHandler(f.Grid, f.Dir, func() time.Time { return monday.Add(9 * time.Hour) }))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGridQueries(t *testing.T) {
	srv := newServer(t)

	var live []model.ScheduleEntry
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/grid?mode=live", &live))
	assert.Len(t, live, 2)

	var bySection []model.ScheduleEntry
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/grid?mode=live&section=s2", &bySection))
	require.Len(t, bySection, 1)
	assert.Equal(t, "l2", bySection[0].ID)

	var byTeacherDay []model.ScheduleEntry
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/grid?mode=draft&teacher=tC&day=tue", &byTeacherDay))
	require.Len(t, byTeacherDay, 1)
	assert.Equal(t, model.Tuesday, byTeacherDay[0].Day)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/grid?mode=archive", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/grid?day=someday", nil))
}

func TestGridCSV(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/grid?mode=draft&format=csv")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	assert.Contains(t, buf.String(), "d1,Tuesday,p1,s1,tC,Art")
}

func TestSubstitutionsAndWorkload(t *testing.T) {
	srv := newServer(t)

	var recs []model.SubstitutionRecord
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/substitutions", &recs))
	require.Len(t, recs, 1, "defaults to today and hides archived records")
	assert.Equal(t, "r1", recs[0].ID)

	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/substitutions?date=2025-03-03&archived=true", &recs))
	assert.Len(t, recs, 2)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/substitutions?date=03/03/2025", nil))

	var sum workload.Summary
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/workload?mode=live", &sum))
	require.NotEmpty(t, sum.Teachers)
	for _, tl := range sum.Teachers {
		if tl.TeacherID == "tB" {
			assert.Equal(t, 1, tl.Substitutions)
		}
	}

	var blocks []model.CombinedBlock
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/blocks?grade=g1", &blocks))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Post(srv.URL+"/api/grid", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
