package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/timetable/core/model"
)

func TestWriteCSV(t *testing.T) {
	entries := []model.ScheduleEntry{
		{ID: "e1", Day: model.Monday, SlotID: "p1", SectionID: "s1", TeacherID: "tA", Subject: "Maths", Room: "R1"},
		{ID: "e2", Day: model.Tuesday, SlotID: "p2", SectionID: "s2", TeacherID: "tB", Subject: "Art", BlockID: "b1", BlockName: "Pool",
			Date: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, FormatCSV, entries))
	want := "id,day,slot_id,section_id,teacher_id,subject,room,block_id,block_name,date\n" +
		"e1,Monday,p1,s1,tA,Maths,R1,,,\n" +
		"e2,Tuesday,p2,s2,tB,Art,,b1,Pool,2025-03-04\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	e := model.ScheduleEntry{ID: "e1", Day: model.Friday, SlotID: "p3", SectionID: "s1", TeacherID: "tA", Subject: "Maths"}
	require.NoError(t, WriteJSON(&buf, []model.ScheduleEntry{e}))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Friday", got[0]["day"])
	assert.Equal(t, "p3", got[0]["slot_id"])
}

func TestWriteSubstitutionsCSV(t *testing.T) {
	recs := []model.SubstitutionRecord{{
		ID: "r1", Date: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), SlotID: "p1", SectionID: "s1",
		Subject: "Maths", AbsentTeacherID: "tA", SubstituteTeacherID: "tB",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteSubstitutions(&buf, FormatCSV, recs))
	assert.Equal(t, "id,date,slot_id,section_id,subject,absent_teacher_id,substitute_teacher_id,is_archived\n"+
		"r1,2025-03-03,p1,s1,Maths,tA,tB,false\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", f.ContentType())
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
