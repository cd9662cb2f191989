package ingest

import (
	"context"
	"fmt"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/notification"
	"puritygrid-backend/internal/store"
	"puritygrid-backend/internal/telemetry"
)

// Sink receives every accepted reading, e.g. a time-series database.
type Sink interface {
	Write(ctx context.Context, readings []telemetry.Reading) error
}

// Notifier is told about devices that just escalated to high severity.
type Notifier interface {
	Dispatch(job notification.Escalation)
}

// Result summarises one processed batch.
type Result struct {
	Received    int
	Malformed   int
	Synthesized int
	Accepted    int
	Escalated   int
}

// Pipeline turns raw telemetry into stored readings. It is shared by every
// telemetry source and safe for concurrent use.
type Pipeline struct {
	store      store.Store
	classifier telemetry.Classifier
	sink       Sink
	notifier   Notifier
	generator  *mock.Generator
	severities cmap.ConcurrentMap[string, telemetry.Severity]
	log        zerolog.Logger
}

// NewPipeline creates a pipeline that detects escalations with classifier.
func NewPipeline(s store.Store, classifier telemetry.Classifier, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:      s,
		classifier: classifier,
		severities: cmap.New[telemetry.Severity](),
		log:        log.With().Str("component", "ingest").Logger(),
	}
}

// WithSink forwards accepted readings to sink.
func (p *Pipeline) WithSink(sink Sink) *Pipeline {
	p.sink = sink
	return p
}

// WithNotifier dispatches escalations to n.
func (p *Pipeline) WithNotifier(n Notifier) *Pipeline {
	p.notifier = n
	return p
}

// WithMockExpansion makes every registered device that did not report in a
// batch get a reading drifted from one that did.
func (p *Pipeline) WithMockExpansion(g *mock.Generator) *Pipeline {
	p.generator = g
	return p
}

// Prime seeds the previous severities from the stored latest readings so a
// restart does not re-announce devices that were already high.
func (p *Pipeline) Prime(ctx context.Context) error {
	latest, err := p.store.LatestReadings(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load latest readings: %w", err)
	}
	for _, r := range latest {
		p.severities.Set(r.DeviceID, p.classifier.Severity(r))
	}
	return nil
}

// Process parses, enriches, stores and forwards one batch of raw readings.
// Malformed records are logged and skipped. Only a store failure is returned.
func (p *Pipeline) Process(ctx context.Context, now time.Time, raws []telemetry.RawReading) (Result, error) {
	res := Result{Received: len(raws)}

	readings := make([]telemetry.Reading, 0, len(raws))
	for _, raw := range raws {
		r, err := telemetry.ParseReading(raw)
		if err != nil {
			res.Malformed++
			p.log.Warn().Err(err).Str("device_id", string(raw.DeviceID)).Msg("skipping malformed reading")
			continue
		}
		readings = append(readings, r)
	}

	devices, err := p.store.ListDevices(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load device registry: %w", err)
	}
	registry := make(map[string]model.Device, len(devices))
	for _, d := range devices {
		registry[d.DeviceID] = d
	}

	reported := make(map[string]bool, len(readings))
	for i := range readings {
		enrich(&readings[i], registry, now)
		reported[readings[i].DeviceID] = true
	}

	if p.generator != nil && len(readings) > 0 {
		synthesized := p.expand(readings, devices, reported, now)
		res.Synthesized = len(synthesized)
		readings = append(readings, synthesized...)
	}

	accepted, err := p.store.SaveReadings(ctx, readings)
	if err != nil {
		return res, fmt.Errorf("failed to save readings: %w", err)
	}
	res.Accepted = len(accepted)

	if p.sink != nil && len(accepted) > 0 {
		if err := p.sink.Write(ctx, accepted); err != nil {
			p.log.Error().Err(err).Msg("failed to write readings to sink")
		}
	}

	for _, r := range accepted {
		if p.escalated(r) {
			res.Escalated++
			if p.notifier != nil {
				p.notifier.Dispatch(notification.Escalation{
					DeviceID:   r.DeviceID,
					Severity:   telemetry.SeverityHigh,
					Alerts:     p.classifier.Alerts(r),
					ObservedAt: r.Timestamp,
				})
			}
		}
	}

	p.log.Info().
		Int("received", res.Received).
		Int("malformed", res.Malformed).
		Int("synthesized", res.Synthesized).
		Int("accepted", res.Accepted).
		Int("escalated", res.Escalated).
		Msg("telemetry batch processed")
	return res, nil
}

// escalated records the severity of r and reports whether the device just
// became high.
func (p *Pipeline) escalated(r telemetry.Reading) bool {
	severity := p.classifier.Severity(r)
	var previous telemetry.Severity
	var known bool
	p.severities.Upsert(r.DeviceID, severity, func(exist bool, old, next telemetry.Severity) telemetry.Severity {
		previous, known = old, exist
		return next
	})
	return severity == telemetry.SeverityHigh && (!known || previous != telemetry.SeverityHigh)
}

// enrich fills what the registry knows and the reading lacks.
func enrich(r *telemetry.Reading, registry map[string]model.Device, now time.Time) {
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	d, ok := registry[r.DeviceID]
	if !ok {
		return
	}
	if r.Status == telemetry.StatusUnknown {
		r.Status = telemetry.ParseStatus(d.Status)
	}
	if r.SubscriptionDaysLeft == nil && d.SubscriptionDaysLeft != nil {
		days := *d.SubscriptionDaysLeft
		r.SubscriptionDaysLeft = &days
	}
	if r.FilterType == telemetry.FilterUnknown {
		r.FilterType = telemetry.ParseFilterType(d.Model)
	}
}

// expand drifts a reading for every registered device missing from the
// batch, taking bases and spreads round-robin.
func (p *Pipeline) expand(readings []telemetry.Reading, devices []model.Device, reported map[string]bool, now time.Time) []telemetry.Reading {
	var out []telemetry.Reading
	for _, d := range devices {
		if reported[d.DeviceID] {
			continue
		}
		i := len(out)
		r := p.generator.Drift(readings[i%len(readings)], d.DeviceID, mock.DemoSpreads[i%len(mock.DemoSpreads)], now)
		r.Status = telemetry.ParseStatus(d.Status)
		r.FilterType = telemetry.ParseFilterType(d.Model)
		r.SubscriptionDaysLeft = d.SubscriptionDaysLeft
		out = append(out, r)
	}
	return out
}
