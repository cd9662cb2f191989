package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate_Empty(t *testing.T) {
	c := NewClassifier(OwnerThresholds(), SupplyStatuses)

	var stats Stats
	assert.NotPanics(t, func() { stats = c.Aggregate(nil) })

	assert.Equal(t, 0, stats.Count)
	assert.Zero(t, stats.AveragePH)
	assert.Zero(t, stats.TotalFlow)
	assert.Equal(t, map[Status]int{
		StatusRunning:     0,
		StatusMaintenance: 0,
		StatusAvailable:   0,
	}, stats.StatusDistribution)
	assert.ErrorIs(t, RequireFleet(nil), ErrEmptyFleet)
}

func TestAggregate_AveragePH(t *testing.T) {
	c := NewClassifier(OwnerThresholds(), RentalStatuses)
	readings := []Reading{
		{PH: 7.0, TDS: 100, FilterHealth: 90, Status: StatusOnline},
		{PH: 7.2, TDS: 100, FilterHealth: 90, Status: StatusOnline},
		{PH: 6.8, TDS: 100, FilterHealth: 90, Status: StatusOnline},
	}

	stats := c.Aggregate(readings)
	assert.InDelta(t, 7.0, stats.AveragePH, 1e-9)
	assert.NoError(t, RequireFleet(readings))
}

func TestAggregate_IdenticalReadings(t *testing.T) {
	c := NewClassifier(OwnerThresholds(), RentalStatuses)
	r := Reading{PH: 7.3, TDS: 185, Temperature: 28.3, FilterHealth: 88, Flow: 2.3, Status: StatusOnline}
	readings := []Reading{r, r, r, r, r, r, r}

	stats := c.Aggregate(readings)
	assert.Equal(t, r.PH, stats.AveragePH)
	assert.Equal(t, float64(r.TDS), stats.AverageTDS)
	assert.Equal(t, r.Temperature, stats.AverageTemperature)
	assert.Equal(t, r.Flow, stats.AverageFlow)
	assert.InDelta(t, r.Flow*7, stats.TotalFlow, 1e-9)
}

func TestAggregate_Fleet(t *testing.T) {
	c := NewClassifier(OwnerThresholds(), SupplyStatuses)
	readings := []Reading{
		{PH: 7.0, TDS: 160, Temperature: 27.5, FilterHealth: 100, Flow: 2.6, Status: StatusAvailable},
		{PH: 7.3, TDS: 190, Temperature: 28.2, FilterHealth: 85, Flow: 2.4, Status: StatusRunning},
		{PH: 6.7, TDS: 210, Temperature: 29.0, FilterHealth: 15, Flow: 1.1, Status: StatusMaintenance},
		{PH: 7.1, TDS: 260, Temperature: 28.0, FilterHealth: 70, Flow: 2.2, Status: StatusRunning},
		{PH: 7.1, TDS: 150, Temperature: 28.0, FilterHealth: 70, Flow: 2.0, Status: StatusOffline},
	}

	stats := c.Aggregate(readings)
	assert.Equal(t, 5, stats.Count)
	assert.InDelta(t, 7.04, stats.AveragePH, 1e-9)
	assert.InDelta(t, 194.0, stats.AverageTDS, 1e-9)
	assert.InDelta(t, 2.06, stats.AverageFlow, 1e-9)
	assert.InDelta(t, 10.3, stats.TotalFlow, 1e-9)
	assert.Equal(t, map[Status]int{
		StatusRunning:     2,
		StatusMaintenance: 1,
		StatusAvailable:   1,
	}, stats.StatusDistribution)
	assert.Equal(t, 1, stats.Unclassified, "offline is outside the supply vocabulary")
	assert.Equal(t, 1, stats.HighSeverityCount)
	// Filter 15 + maintenance, TDS 260, and the offline device.
	assert.Equal(t, 3, stats.AlertCount)
	// Only filter health 15 (23 days) is under the 30 day service window.
	assert.Equal(t, 1, stats.ServiceDueSoon)
}
