package mock

import (
	"math"
	"strconv"
	"time"

	"puritygrid-backend/internal/telemetry"
)

// FirstRenterDeviceID is the id of the first device of a generated renter fleet.
const FirstRenterDeviceID = 220

// RenterFleet generates n devices with ids counting up from
// FirstRenterDeviceID. Each copies the filter type, status and subscription
// of bases[i % len(bases)] and gets fresh random metrics.
func (g *Generator) RenterFleet(bases []telemetry.Reading, n int, now time.Time) []telemetry.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	fleet := make([]telemetry.Reading, 0, n)
	for i := 0; i < n; i++ {
		base := telemetry.Reading{FilterType: telemetry.FilterRO, Status: telemetry.StatusOnline}
		if len(bases) > 0 {
			base = bases[i%len(bases)]
		}
		base.DeviceID = strconv.Itoa(FirstRenterDeviceID + i)
		base.TDS = 150 + g.rng.IntN(200)
		base.Flow = round(g.between(0.5, 4.5), 1)
		base.Temperature = round(g.between(25, 45), 1)
		base.PH = round(g.between(6.5, 8.5), 1)
		base.FilterHealth = round(g.between(50, 80), 1)
		base.Timestamp = now
		fleet = append(fleet, base)
	}
	return fleet
}

// Spread bounds how far a drifted reading may wander from its base.
// FilterBoost is one-sided: filter health only goes up, capped at 100.
type Spread struct {
	TDS         int
	Flow        float64
	Temperature float64
	PH          float64
	FilterBoost float64
}

// DemoSpreads are the drift profiles used to fan one real device out into a
// demo fleet. Devices take them in turn.
var DemoSpreads = []Spread{
	{TDS: 15, Flow: 1, Temperature: 2, PH: 0.3, FilterBoost: 40},
	{TDS: 20, Flow: 0.75, Temperature: 1.5, PH: 0.2, FilterBoost: 20},
	{TDS: 12, Flow: 1.5, Temperature: 1, PH: 0.4, FilterBoost: 60},
}

// Drift returns a copy of base for device id with every metric moved within
// s and clamped into its domain.
func (g *Generator) Drift(base telemetry.Reading, id string, s Spread, now time.Time) telemetry.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := base
	r.DeviceID = id
	r.TDS = max(0, base.TDS+int(math.Floor(g.jitter(float64(s.TDS)))))
	r.Flow = round(math.Max(0, base.Flow+g.jitter(s.Flow)), 1)
	r.Temperature = round(base.Temperature+g.jitter(s.Temperature), 1)
	r.PH = round(clamp(base.PH+g.jitter(s.PH), 0, 14), 2)
	r.FilterHealth = round(clamp(base.FilterHealth+g.rng.Float64()*s.FilterBoost, 0, 100), 1)
	r.Timestamp = now
	return r
}

// Point is one sample of a chart series.
type Point struct {
	Time        time.Time `json:"time"`
	PH          float64   `json:"ph"`
	TDS         int       `json:"tds"`
	Temperature float64   `json:"temperature"`
	Flow        float64   `json:"flow"`
}

// HourlySeries returns 24 hourly samples jittered around base, oldest first,
// the last one on the hour of now.
func (g *Generator) HourlySeries(base telemetry.Reading, now time.Time) []Point {
	g.mu.Lock()
	defer g.mu.Unlock()

	top := now.Truncate(time.Hour)
	points := make([]Point, 24)
	for i := range points {
		points[i] = Point{
			Time:        top.Add(-time.Duration(23-i) * time.Hour),
			PH:          round(clamp(base.PH+g.jitter(0.25), 0, 14), 2),
			TDS:         max(0, base.TDS+int(math.Floor(g.jitter(25)))),
			Temperature: round(base.Temperature+g.jitter(1.5), 1),
			Flow:        round(math.Max(0, base.Flow+g.jitter(0.5)), 2),
		}
	}
	return points
}
