package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/telemetry"
)

// Measurement is the InfluxDB measurement readings are written to.
const Measurement = "purifier_reading"

// InfluxSink writes accepted readings to an InfluxDB v2 bucket.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink creates a sink for the configured org and bucket.
func NewInfluxSink(cfg config.InfluxConfig) *InfluxSink {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// Write stores one point per reading, tagged by device, filter type and status.
func (s *InfluxSink) Write(ctx context.Context, readings []telemetry.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(readings))
	for _, r := range readings {
		points = append(points, influxdb2.NewPoint(
			Measurement,
			map[string]string{
				"device_id":   r.DeviceID,
				"filter_type": string(r.FilterType),
				"status":      string(r.Status),
			},
			map[string]any{
				"ph":            r.PH,
				"tds":           r.TDS,
				"temperature":   r.Temperature,
				"filter_health": r.FilterHealth,
				"flow":          r.Flow,
			},
			r.Timestamp,
		))
	}

	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
