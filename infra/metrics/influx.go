package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/timetable/core/logger"
	coremetrics "github.com/kilianp07/timetable/core/metrics"
	infralogger "github.com/kilianp07/timetable/infra/logger"
)

// InfluxSink writes engine events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOperation writes one engine operation.
func (s *InfluxSink) RecordOperation(ev coremetrics.OperationEvent) error {
	p := write.NewPointWithMeasurement("timetable_operation").
		AddTag("operation", ev.Operation).
		AddTag("mode", ev.Mode).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("count", ev.Count).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordFill writes an auto-fill summary.
func (s *InfluxSink) RecordFill(ev coremetrics.FillEvent) error {
	p := write.NewPointWithMeasurement("timetable_fill").
		AddTag("grade_id", ev.GradeID).
		AddTag("mode", ev.Mode).
		AddField("requested", ev.Requested).
		AddField("placed", ev.Placed).
		AddField("skipped", ev.Skipped).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordSubstitution writes an assignment pass summary.
func (s *InfluxSink) RecordSubstitution(ev coremetrics.SubstitutionEvent) error {
	p := write.NewPointWithMeasurement("timetable_substitution").
		AddTag("date", ev.Date.Format("2006-01-02")).
		AddField("assigned", ev.Assigned).
		AddField("unassigned", ev.Unassigned).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordWorkload writes one point per teacher.
func (s *InfluxSink) RecordWorkload(samples []coremetrics.WorkloadSample) error {
	for _, w := range samples {
		p := write.NewPointWithMeasurement("teacher_workload").
			AddTag("teacher_id", w.TeacherID).
			AddField("periods", w.Periods).
			AddField("cap", w.Cap).
			SetTime(w.Time)
		if err := s.write(p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }
