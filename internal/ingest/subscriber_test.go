package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puritygrid-backend/config"
)

func TestDeviceIDFromTopic(t *testing.T) {
	testCases := []struct {
		topic    string
		expected string
	}{
		{topic: "purifiers/223/telemetry", expected: "223"},
		{topic: "site/a/purifiers/PG-001/telemetry", expected: "PG-001"},
		{topic: "purifiers", expected: ""},
		{topic: "sensors/223/telemetry", expected: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.topic, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeviceIDFromTopic(tc.topic))
		})
	}
}

func TestSubscriber_HandleMessage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	cfg := config.MQTTConfig{Broker: "tcp://127.0.0.1:1883", ClientID: "test", Topic: "purifiers/+/telemetry"}
	sub := NewSubscriber(cfg, newTestPipeline(s), zerolog.Nop())
	sub.now = func() time.Time { return time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC) }

	// The device id comes from the topic when the payload omits it.
	sub.HandleMessage(ctx, "purifiers/223/telemetry",
		[]byte(`{"ph":"7.2","tds":"180","temprature":"28.5","filter_health":"80","flow":"2.5","filter_type":"RO","status":"online"}`))
	// Undecodable payloads are dropped.
	sub.HandleMessage(ctx, "purifiers/224/telemetry", []byte(`not json`))

	latest, err := s.LatestReadings(ctx, nil)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "223", latest[0].DeviceID)
	assert.InDelta(t, 28.5, latest[0].Temperature, 1e-9)
}
