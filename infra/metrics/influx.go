package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"

	coremetrics "github.com/kwikdrytn/kwikdry-sub000/core/metrics"
	"github.com/kwikdrytn/kwikdry-sub000/infra/logger"
)

const influxTimeout = 5 * time.Second

// InfluxSink writes ranking events to InfluxDB as one point per event.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A url ending in the
// write path is accepted.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	opts := influxdb2.DefaultOptions().
		SetHTTPClient(&http.Client{Timeout: influxTimeout}).
		SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(strings.TrimSuffix(url, "/api/v2/write"), token, opts)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	switch {
	case err != nil:
		sink.log.Errorf("influx unreachable, ranking metrics disabled: %v", err)
	case health.Status != domain.HealthCheckStatusPass:
		sink.log.Errorf("influx unhealthy (%s), ranking metrics disabled", health.Status)
	default:
		return sink
	}
	sink.client.Close()
	return coremetrics.NopSink{}
}

// RecordRanking writes one ranking_operation point.
func (s *InfluxSink) RecordRanking(ev coremetrics.RankingEvent) error {
	p := write.NewPointWithMeasurement("ranking_operation").
		AddTag("state", ev.State).
		AddTag("component", "assembler")
	if ev.FailureReason != "" {
		p = p.AddTag("failure_reason", ev.FailureReason)
	}
	if ev.Zone != "" {
		p = p.AddTag("zone", ev.Zone)
	}
	p = p.AddField("request_id", ev.RequestID).
		AddField("candidates", ev.Candidates).
		AddField("suggestions", ev.Suggestions).
		AddField("dropped", ev.Dropped).
		AddField("duration_minutes", ev.DurationMinutes).
		AddField("duration_source", ev.DurationSource).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDrop writes one suggestion_dropped point.
func (s *InfluxSink) RecordDrop(ev coremetrics.DropEvent) error {
	p := write.NewPointWithMeasurement("suggestion_dropped").
		AddTag("rule", ev.Rule).
		AddTag("component", "validator").
		AddField("request_id", ev.RequestID).
		AddField("technician_id", ev.TechnicianID).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
