package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puritygrid-backend/internal/parse"
)

// reading parses a raw record with neutral defaults for the fields a case
// does not care about.
func reading(t *testing.T, ph, tds, filterHealth, status string) Reading {
	t.Helper()
	r, err := ParseReading(RawReading{
		DeviceID:     "PG-001",
		PH:           parse.Field(ph),
		TDS:          parse.Field(tds),
		Temperature:  "27.0",
		FilterHealth: parse.Field(filterHealth),
		Flow:         "2.0",
		FilterType:   "RO",
		Status:       parse.Field(status),
	})
	require.NoError(t, err)
	return r
}

func intPtr(v int) *int { return &v }

func TestClassifier_Scenarios(t *testing.T) {
	owner := NewClassifier(OwnerThresholds(), SupplyStatuses)

	testCases := []struct {
		name             string
		ph, tds, health  string
		status           string
		expectedSeverity Severity
		expectedAlerts   []AlertCode
	}{
		{
			name: "pH above range", ph: "9.0", tds: "100", health: "50", status: "online",
			expectedSeverity: SeverityHigh,
			expectedAlerts:   []AlertCode{AlertPhOutOfRange},
		},
		{
			name: "TDS above severe bound", ph: "7.0", tds: "320", health: "50", status: "online",
			expectedSeverity: SeverityHigh,
			expectedAlerts:   []AlertCode{AlertHighTDS},
		},
		{
			name: "Worn filter under maintenance", ph: "7.0", tds: "100", health: "15", status: "maintenance",
			expectedSeverity: SeverityHigh,
			expectedAlerts:   []AlertCode{AlertLowFilterHealth, AlertMaintenanceRequired},
		},
		{
			name: "Medium on filter health", ph: "7.0", tds: "100", health: "35", status: "online",
			expectedSeverity: SeverityMedium,
			expectedAlerts:   []AlertCode{},
		},
		{
			name: "Medium on TDS with alert", ph: "7.0", tds: "260", health: "90", status: "online",
			expectedSeverity: SeverityMedium,
			expectedAlerts:   []AlertCode{AlertHighTDS},
		},
		{
			name: "Healthy offline device", ph: "7.4", tds: "170", health: "90", status: "offline",
			expectedSeverity: SeverityLow,
			expectedAlerts:   []AlertCode{AlertDeviceOffline},
		},
		{
			name: "pH below range", ph: "6.4", tds: "100", health: "90", status: "Running",
			expectedSeverity: SeverityHigh,
			expectedAlerts:   []AlertCode{AlertPhOutOfRange},
		},
		{
			name: "Boundaries are exclusive", ph: "6.5", tds: "250", health: "40", status: "online",
			expectedSeverity: SeverityLow,
			expectedAlerts:   []AlertCode{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := reading(t, tc.ph, tc.tds, tc.health, tc.status)
			assert.Equal(t, tc.expectedSeverity, owner.Severity(r))
			assert.Equal(t, tc.expectedAlerts, owner.Alerts(r))
		})
	}
}

func TestClassifier_HighDominatesMedium(t *testing.T) {
	owner := NewClassifier(OwnerThresholds(), nil)
	// Filter health 15 matches both the high and the medium tier.
	r := reading(t, "7.0", "280", "15", "online")
	assert.Equal(t, SeverityHigh, owner.Severity(r))
}

func TestClassifier_RenterThresholds(t *testing.T) {
	renter := NewClassifier(RenterThresholds(), RentalStatuses)

	r := reading(t, "7.0", "280", "15", "online")
	assert.Empty(t, renter.Alerts(r), "renter view alerts on filter < 5 and TDS > 300 only")

	r = reading(t, "7.0", "310", "4", "online")
	assert.Equal(t, []AlertCode{AlertLowFilterHealth, AlertHighTDS}, renter.Alerts(r))
	assert.Equal(t, SeverityHigh, renter.Severity(r))
}

func TestCollectAlerts_AllCodesInOrder(t *testing.T) {
	r := Reading{
		PH:                   5.0,
		TDS:                  400,
		FilterHealth:         3,
		Status:               StatusMaintenance,
		SubscriptionDaysLeft: intPtr(2),
	}
	expected := []AlertCode{
		AlertLowFilterHealth,
		AlertHighTDS,
		AlertPhOutOfRange,
		AlertMaintenanceRequired,
		AlertSubscriptionExpiringSoon,
	}

	first := CollectAlerts(r, OwnerThresholds())
	second := CollectAlerts(r, OwnerThresholds())
	assert.Equal(t, expected, first)
	assert.Equal(t, first, second, "alert order must be stable across calls")
}

func TestCollectAlerts_Subscription(t *testing.T) {
	th := OwnerThresholds()
	r := Reading{PH: 7, TDS: 100, FilterHealth: 90, Status: StatusOnline}

	assert.Empty(t, CollectAlerts(r, th), "absent subscription never alerts")

	r.SubscriptionDaysLeft = intPtr(7)
	assert.Empty(t, CollectAlerts(r, th))

	r.SubscriptionDaysLeft = intPtr(6)
	assert.Equal(t, []AlertCode{AlertSubscriptionExpiringSoon}, CollectAlerts(r, th))
}

func TestClassifySeverity_UnknownStatusIsNeutral(t *testing.T) {
	r := Reading{PH: 7, TDS: 100, FilterHealth: 90, Status: StatusUnknown}
	assert.Equal(t, SeverityLow, ClassifySeverity(r, OwnerThresholds()))
	assert.Empty(t, CollectAlerts(r, OwnerThresholds()))
}

func TestDaysUntilService(t *testing.T) {
	assert.Equal(t, 0, DaysUntilService(0))
	assert.Equal(t, 150, DaysUntilService(100))
	assert.Equal(t, 120, DaysUntilService(80))
	assert.Equal(t, 16, DaysUntilService(10.5))
	assert.Equal(t, 0, DaysUntilService(-5))

	prev := 0
	for h := 0.0; h <= 100.0; h += 0.25 {
		d := DaysUntilService(h)
		assert.GreaterOrEqual(t, d, 0)
		assert.GreaterOrEqual(t, d, prev, "days until service must not decrease at health %v", h)
		prev = d
	}
}

func TestClassifier_Classify(t *testing.T) {
	owner := NewClassifier(OwnerThresholds(), nil)
	r := reading(t, "7.0", "100", "15", "maintenance")

	a := owner.Classify(r)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, []AlertCode{AlertLowFilterHealth, AlertMaintenanceRequired}, a.Alerts)
	assert.Equal(t, 23, a.DaysUntilService)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "pH Out of Range", AlertPhOutOfRange.Label())
	assert.Equal(t, "Alert", AlertCode("Mystery").Label())
	assert.Equal(t, "Warning", SeverityMedium.Label())
	assert.Equal(t, "Unknown", Severity("").Label())
}
