package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/telemetry"
)

// Poller pulls telemetry from an HTTP endpoint on a fixed interval.
type Poller struct {
	cfg      config.IngestConfig
	client   *resty.Client
	pipeline *Pipeline
	log      zerolog.Logger
	now      func() time.Time
}

// NewPoller creates a poller feeding pipeline.
func NewPoller(cfg config.IngestConfig, pipeline *Pipeline, log zerolog.Logger) *Poller {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.Headers)
	if cfg.HTTPProxy != "" {
		client.SetProxy(cfg.HTTPProxy)
	}

	return &Poller{
		cfg:      cfg,
		client:   client,
		pipeline: pipeline,
		log:      log.With().Str("component", "poller").Logger(),
		now:      time.Now,
	}
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	if !p.cfg.Enabled {
		p.log.Info().Msg("poller is disabled, not starting")
		return
	}
	p.log.Info().Str("url", p.cfg.URL).Dur("interval", p.cfg.Interval).Msg("starting poller")

	p.poll(ctx)

	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("poller shutting down")
			return
		case <-timer.C:
			p.poll(ctx)
			timer.Reset(p.cfg.Interval)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if _, err := p.PollOnce(ctx); err != nil {
		p.log.Error().Err(err).Msg("poll cycle failed, retrying next cycle")
	}
}

// PollOnce performs a single fetch and processes the result. A failed fetch
// leaves stored readings untouched.
func (p *Poller) PollOnce(ctx context.Context) (Result, error) {
	raws, err := p.fetch(ctx)
	if err != nil {
		return Result{}, err
	}
	return p.pipeline.Process(ctx, p.now().UTC(), raws)
}

func (p *Poller) fetch(ctx context.Context) ([]telemetry.RawReading, error) {
	resp, err := p.client.R().SetContext(ctx).Get(p.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("received non-2xx status code: %d", resp.StatusCode())
	}
	return DecodeBatch(resp.Body())
}

// DecodeBatch accepts either a JSON array of readings or a single reading
// object.
func DecodeBatch(body []byte) ([]telemetry.RawReading, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty telemetry payload")
	}

	if body[0] == '[' {
		var batch []telemetry.RawReading
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal telemetry batch: %w", err)
		}
		return batch, nil
	}

	var single telemetry.RawReading
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("failed to unmarshal telemetry reading: %w", err)
	}
	return []telemetry.RawReading{single}, nil
}
