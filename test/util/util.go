// Package util provides helper functions shared across integration tests.
//
// StartPostgres launches a disposable PostgreSQL server in a Docker container
// for store tests. It returns a DSN and a cleanup function.
//
// StartInflux does the same for an InfluxDB 2 server used by the metrics
// sink tests.
//
// WaitForMetric polls a Prometheus metrics endpoint until the desired metric
// appears in the output.
package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// Default timeouts for helper operations
	PostgresReadyTimeout = 60 * time.Second
	InfluxReadyTimeout   = 60 * time.Second
	MetricTimeout        = 5 * time.Second

	pollInterval = 50 * time.Millisecond
)

// Influx credentials seeded into the container.
const (
	InfluxOrg    = "school"
	InfluxBucket = "timetable"
	InfluxToken  = "timetable-token"
)

// WaitForMetric polls the given metrics URL until the provided substring is
// found in the output or the context is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func start(ctx context.Context, req tc.ContainerRequest, port string) (tc.Container, string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return nil, "", nil, err
	}
	cleanup := func() { _ = cont.Terminate(context.Background()) }
	host, err := cont.Host(ctx)
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	mapped, err := cont.MappedPort(ctx, nat.Port(port))
	if err != nil {
		cleanup()
		return nil, "", nil, err
	}
	return cont, fmt.Sprintf("%s:%s", host, mapped.Port()), cleanup, nil
}

// StartPostgres launches a temporary PostgreSQL server inside a Docker
// container and returns its DSN along with a cleanup function.
func StartPostgres(ctx context.Context) (string, func(), error) {
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "timetable",
			"POSTGRES_PASSWORD": "timetable",
			"POSTGRES_DB":       "timetable",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(PostgresReadyTimeout),
	}
	_, addr, cleanup, err := start(ctx, req, "5432")
	if err != nil {
		return "", nil, err
	}
	host, port, _ := strings.Cut(addr, ":")
	dsn := fmt.Sprintf("host=%s port=%s user=timetable password=timetable dbname=timetable sslmode=disable", host, port)
	return dsn, cleanup, nil
}

// StartInflux launches an InfluxDB 2.7 container seeded with InfluxOrg,
// InfluxBucket and InfluxToken and returns its base URL.
func StartInflux(ctx context.Context) (string, func(), error) {
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "adminpass",
			"DOCKER_INFLUXDB_INIT_ORG":         InfluxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      InfluxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": InfluxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(InfluxReadyTimeout),
	}
	_, addr, cleanup, err := start(ctx, req, "8086")
	if err != nil {
		return "", nil, err
	}
	return "http://" + addr, cleanup, nil
}
