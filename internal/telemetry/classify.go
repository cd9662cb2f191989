package telemetry

import "math"

// Severity is a device's overall risk tier.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Label is the badge text shown next to a device.
func (s Severity) Label() string {
	switch s {
	case SeverityHigh:
		return "Alert"
	case SeverityMedium:
		return "Warning"
	case SeverityLow:
		return "Normal"
	default:
		return "Unknown"
	}
}

// AlertCode identifies one alert raised for a reading.
type AlertCode string

const (
	AlertLowFilterHealth          AlertCode = "LowFilterHealth"
	AlertHighTDS                  AlertCode = "HighTDS"
	AlertPhOutOfRange             AlertCode = "PhOutOfRange"
	AlertMaintenanceRequired      AlertCode = "MaintenanceRequired"
	AlertDeviceOffline            AlertCode = "DeviceOffline"
	AlertSubscriptionExpiringSoon AlertCode = "SubscriptionExpiringSoon"
)

var alertLabels = map[AlertCode]string{
	AlertLowFilterHealth:          "Low Filter Health",
	AlertHighTDS:                  "High TDS",
	AlertPhOutOfRange:             "pH Out of Range",
	AlertMaintenanceRequired:      "Maintenance Required",
	AlertDeviceOffline:            "Device Offline",
	AlertSubscriptionExpiringSoon: "Subscription Expiring Soon",
}

// Label returns the human-readable text of the alert. Unknown codes get a
// generic label.
func (a AlertCode) Label() string {
	if l, ok := alertLabels[a]; ok {
		return l
	}
	return "Alert"
}

// ClassifySeverity returns the risk tier of a reading. High conditions are
// checked first and win over medium ones. NaN fields never match.
func ClassifySeverity(r Reading, th Thresholds) Severity {
	if r.FilterHealth < th.SevereFilterHealth || r.PH < th.MinPH || r.PH > th.MaxPH || r.TDS > th.SevereTDS {
		return SeverityHigh
	}
	if r.FilterHealth < th.WarnFilterHealth || r.TDS > th.WarnTDS {
		return SeverityMedium
	}
	return SeverityLow
}

// CollectAlerts returns every alert matching the reading, always in the
// order the codes are declared. The result is never nil.
func CollectAlerts(r Reading, th Thresholds) []AlertCode {
	alerts := make([]AlertCode, 0, 2)
	if r.FilterHealth < th.LowFilterAlert {
		alerts = append(alerts, AlertLowFilterHealth)
	}
	if r.TDS > th.HighTDSAlert {
		alerts = append(alerts, AlertHighTDS)
	}
	if r.PH < th.MinPH || r.PH > th.MaxPH {
		alerts = append(alerts, AlertPhOutOfRange)
	}
	switch r.Status {
	case StatusMaintenance:
		alerts = append(alerts, AlertMaintenanceRequired)
	case StatusOffline:
		alerts = append(alerts, AlertDeviceOffline)
	}
	if r.SubscriptionDaysLeft != nil && *r.SubscriptionDaysLeft < th.SubscriptionWarnDays {
		alerts = append(alerts, AlertSubscriptionExpiringSoon)
	}
	return alerts
}

// DaysUntilService estimates the days left before the filter needs service,
// assuming 1.5 days of life per health point.
func DaysUntilService(filterHealth float64) int {
	if math.IsNaN(filterHealth) || filterHealth <= 0 {
		return 0
	}
	return int(math.Floor(filterHealth*1.5 + 0.5))
}

// Assessment is everything derived from a single reading.
type Assessment struct {
	Severity         Severity    `json:"severity"`
	Alerts           []AlertCode `json:"alerts"`
	DaysUntilService int         `json:"days_until_service"`
}

// Classifier applies one threshold profile and one status vocabulary.
type Classifier struct {
	thresholds Thresholds
	statuses   []Status
}

// NewClassifier returns a classifier for the given profile. An empty status
// vocabulary defaults to RentalStatuses.
func NewClassifier(th Thresholds, statuses []Status) Classifier {
	if len(statuses) == 0 {
		statuses = RentalStatuses
	}
	return Classifier{thresholds: th, statuses: statuses}
}

// Thresholds returns the profile the classifier was built with.
func (c Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Statuses returns the status vocabulary used for aggregation.
func (c Classifier) Statuses() []Status {
	return c.statuses
}

// Severity is ClassifySeverity with the classifier's thresholds.
func (c Classifier) Severity(r Reading) Severity {
	return ClassifySeverity(r, c.thresholds)
}

// Alerts is CollectAlerts with the classifier's thresholds.
func (c Classifier) Alerts(r Reading) []AlertCode {
	return CollectAlerts(r, c.thresholds)
}

// Classify computes the full assessment of a reading.
func (c Classifier) Classify(r Reading) Assessment {
	return Assessment{
		Severity:         c.Severity(r),
		Alerts:           c.Alerts(r),
		DaysUntilService: DaysUntilService(r.FilterHealth),
	}
}
