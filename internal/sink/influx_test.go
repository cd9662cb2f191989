package sink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/telemetry"
)

func TestInfluxSink_Write(t *testing.T) {
	var (
		mu    sync.Mutex
		body  string
		query string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body, query = string(b), r.URL.RawQuery
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := NewInfluxSink(config.InfluxConfig{URL: server.URL, Token: "token", Org: "puritygrid", Bucket: "telemetry"})
	defer s.Close()

	ts := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	err := s.Write(context.Background(), []telemetry.Reading{{
		DeviceID: "223", PH: 7.2, TDS: 180, Temperature: 28.5, FilterHealth: 80, Flow: 2.5,
		FilterType: telemetry.FilterRO, Status: telemetry.StatusOnline, Timestamp: ts,
	}})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, query, "bucket=telemetry")
	assert.Contains(t, query, "org=puritygrid")
	assert.Contains(t, body, "purifier_reading,device_id=223,filter_type=RO,status=online")
	assert.Contains(t, body, "tds=180i")
	assert.Contains(t, body, "ph=7.2")
}

func TestInfluxSink_WriteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"unauthorized access"}`))
	}))
	defer server.Close()

	s := NewInfluxSink(config.InfluxConfig{URL: server.URL, Token: "bad", Org: "o", Bucket: "b"})
	defer s.Close()

	err := s.Write(context.Background(), []telemetry.Reading{{DeviceID: "223", Timestamp: time.Now()}})
	assert.ErrorContains(t, err, "error writing to InfluxDB")
}

func TestInfluxSink_WriteNothing(t *testing.T) {
	s := NewInfluxSink(config.InfluxConfig{URL: "http://127.0.0.1:1", Org: "o", Bucket: "b"})
	defer s.Close()
	assert.NoError(t, s.Write(context.Background(), nil))
}
