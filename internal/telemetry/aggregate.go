package telemetry

import "errors"

// ErrEmptyFleet signals that there are no readings to summarise.
var ErrEmptyFleet = errors.New("fleet has no readings")

// RequireFleet returns ErrEmptyFleet for an empty reading set.
func RequireFleet(readings []Reading) error {
	if len(readings) == 0 {
		return ErrEmptyFleet
	}
	return nil
}

// Stats aggregates a fleet of readings.
type Stats struct {
	Count              int            `json:"count"`
	AveragePH          float64        `json:"average_ph"`
	AverageTDS         float64        `json:"average_tds"`
	AverageTemperature float64        `json:"average_temperature"`
	AverageFlow        float64        `json:"average_flow"`
	TotalFlow          float64        `json:"total_flow"` // AverageFlow * Count
	StatusDistribution map[Status]int `json:"status_distribution"`
	Unclassified       int            `json:"unclassified"`
	HighSeverityCount  int            `json:"high_severity_count"`
	AlertCount         int            `json:"alert_count"`
	ServiceDueSoon     int            `json:"service_due_soon"`
}

// Aggregate summarises readings. An empty input yields zero averages and a
// distribution with every status of the vocabulary at 0.
func (c Classifier) Aggregate(readings []Reading) Stats {
	stats := Stats{StatusDistribution: make(map[Status]int, len(c.statuses))}
	for _, s := range c.statuses {
		stats.StatusDistribution[s] = 0
	}

	for i, r := range readings {
		// Running mean keeps the average of identical values exact.
		k := float64(i + 1)
		stats.AveragePH += (r.PH - stats.AveragePH) / k
		stats.AverageTDS += (float64(r.TDS) - stats.AverageTDS) / k
		stats.AverageTemperature += (r.Temperature - stats.AverageTemperature) / k
		stats.AverageFlow += (r.Flow - stats.AverageFlow) / k

		if _, ok := stats.StatusDistribution[r.Status]; ok {
			stats.StatusDistribution[r.Status]++
		} else {
			stats.Unclassified++
		}

		if c.Severity(r) == SeverityHigh {
			stats.HighSeverityCount++
		}
		if len(c.Alerts(r)) > 0 {
			stats.AlertCount++
		}
		if DaysUntilService(r.FilterHealth) < c.thresholds.ServiceWarnDays {
			stats.ServiceDueSoon++
		}
	}

	stats.Count = len(readings)
	stats.TotalFlow = stats.AverageFlow * float64(stats.Count)
	return stats
}
