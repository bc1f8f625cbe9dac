package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/energyplan/core/metrics"
	"github.com/kilianp07/energyplan/infra/logger"
)

// InfluxSink writes solve outcomes and schedules to an InfluxDB instance
// using the official client.
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
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
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

// RecordSolve writes a plan_solve point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("plan_solve").
		AddTag("plan_id", ev.PlanID).
		AddTag("status", ev.Status.String()).
		AddField("hours", ev.Hours).
		AddField("devices", ev.Devices).
		AddField("variables", ev.Variables).
		AddField("constraints", ev.Constraints).
		AddField("objective", round3(ev.Objective)).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes one plan_schedule point per device and hour, with
// one field per role.
func (s *InfluxSink) RecordSchedule(ev coremetrics.ScheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	step := ev.Step
	if step <= 0 {
		step = time.Hour
	}
	var points []*write.Point
	for _, device := range sortedKeys(ev.Series) {
		roles := ev.Series[device]
		hours := 0
		for _, v := range roles {
			hours = max(hours, len(v))
		}
		for h := 0; h < hours; h++ {
			p := write.NewPointWithMeasurement("plan_schedule").
				AddTag("plan_id", ev.PlanID).
				AddTag("device", device).
				AddTag("hour", strconv.Itoa(h))
			for _, role := range sortedKeys(roles) {
				if h < len(roles[role]) {
					p = p.AddField(role, round3(roles[role][h]))
				}
			}
			points = append(points, p.SetTime(ev.Start.Add(time.Duration(h)*step)))
		}
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
