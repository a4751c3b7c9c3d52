package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/timetable/core/factory"
	coremetrics "github.com/kilianp07/timetable/core/metrics"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, strings.TrimSpace(string(b)))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordOperation(t *testing.T) {
	var c capture
	sink := NewInfluxSink(c.server(t).URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	if err := sink.RecordOperation(coremetrics.OperationEvent{Operation: "swap", Mode: "draft", Count: 2, Time: now}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("timetable_operation").
		AddTag("operation", "swap").
		AddTag("mode", "draft").
		AddTag("failed", "false").
		AddField("count", 2).
		SetTime(now)
	if len(c.bodies) != 1 || c.bodies[0] != line(p) {
		t.Errorf("unexpected bodies: %#v", c.bodies)
	}
}

func TestInfluxSink_RecordFill(t *testing.T) {
	var c capture
	sink := NewInfluxSink(c.server(t).URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.FillEvent{GradeID: "g1", Mode: "draft", Requested: 10, Placed: 8, Skipped: 2, Duration: 1500 * time.Millisecond, Time: now}
	if err := sink.RecordFill(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("timetable_fill").
		AddTag("grade_id", "g1").
		AddTag("mode", "draft").
		AddField("requested", 10).
		AddField("placed", 8).
		AddField("skipped", 2).
		AddField("duration_ms", int64(1500)).
		SetTime(now)
	if len(c.bodies) != 1 || c.bodies[0] != line(p) {
		t.Errorf("bodies: %#v", c.bodies)
	}
}

func TestInfluxSink_RecordSubstitutionAndWorkload(t *testing.T) {
	var c capture
	sink := NewInfluxSink(c.server(t).URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if err := sink.RecordSubstitution(coremetrics.SubstitutionEvent{Date: date, Assigned: 3, Unassigned: 1, Time: now}); err != nil {
		t.Fatalf("record: %v", err)
	}
	samples := []coremetrics.WorkloadSample{
		{TeacherID: "t1", Periods: 20, Cap: 35, Time: now},
		{TeacherID: "t2", Periods: 35, Cap: 35, Time: now},
	}
	if err := sink.RecordWorkload(samples); err != nil {
		t.Fatalf("record: %v", err)
	}
	sub := write.NewPointWithMeasurement("timetable_substitution").
		AddTag("date", "2025-03-03").
		AddField("assigned", 3).
		AddField("unassigned", 1).
		SetTime(now)
	w2 := write.NewPointWithMeasurement("teacher_workload").
		AddTag("teacher_id", "t2").
		AddField("periods", 35).
		AddField("cap", 35).
		SetTime(now)
	if len(c.bodies) != 3 || c.bodies[0] != line(sub) || c.bodies[2] != line(w2) {
		t.Errorf("bodies: %#v", c.bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestInfluxFactoryRequiresBucket(t *testing.T) {
	_, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": "http://127.0.0.1:1"},
	}})
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}
