package telemetry

// Thresholds holds every numeric boundary the classifier applies. Severity
// bounds are shared by both dashboards; the alert bounds differ per view.
type Thresholds struct {
	// Severity tiers.
	SevereFilterHealth float64 `yaml:"severe_filter_health" json:"severe_filter_health"`
	WarnFilterHealth   float64 `yaml:"warn_filter_health" json:"warn_filter_health"`
	MinPH              float64 `yaml:"min_ph" json:"min_ph"`
	MaxPH              float64 `yaml:"max_ph" json:"max_ph"`
	SevereTDS          int     `yaml:"severe_tds" json:"severe_tds"`
	WarnTDS            int     `yaml:"warn_tds" json:"warn_tds"`

	// Alert codes.
	LowFilterAlert       float64 `yaml:"low_filter_alert" json:"low_filter_alert"`
	HighTDSAlert         int     `yaml:"high_tds_alert" json:"high_tds_alert"`
	SubscriptionWarnDays int     `yaml:"subscription_warn_days" json:"subscription_warn_days"`

	// ServiceWarnDays marks a device as due for service in fleet stats.
	ServiceWarnDays int `yaml:"service_warn_days" json:"service_warn_days"`
}

// OwnerThresholds are the bounds used by the owner (business) dashboard.
func OwnerThresholds() Thresholds {
	return Thresholds{
		SevereFilterHealth:   20,
		WarnFilterHealth:     40,
		MinPH:                6.5,
		MaxPH:                8.5,
		SevereTDS:            300,
		WarnTDS:              250,
		LowFilterAlert:       20,
		HighTDSAlert:         250,
		SubscriptionWarnDays: 7,
		ServiceWarnDays:      30,
	}
}

// RenterThresholds are the bounds used by the renter dashboard. Low filter
// and high TDS alerts fire later than in the owner view.
func RenterThresholds() Thresholds {
	th := OwnerThresholds()
	th.LowFilterAlert = 5
	th.HighTDSAlert = 300
	return th
}
