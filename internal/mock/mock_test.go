package mock

import (
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puritygrid-backend/internal/telemetry"
)

var testNow = time.Date(2025, 7, 15, 10, 42, 0, 0, time.UTC)

func TestRenterFleet_Ranges(t *testing.T) {
	g := NewSeededGenerator(42)
	bases := []telemetry.Reading{
		{FilterType: telemetry.FilterUF, Status: telemetry.StatusMaintenance},
		{FilterType: telemetry.FilterRO, Status: telemetry.StatusOnline},
	}

	fleet := g.RenterFleet(bases, 40, testNow)
	require.Len(t, fleet, 40)

	for i, r := range fleet {
		assert.Equal(t, strconv.Itoa(220+i), r.DeviceID)
		assert.Equal(t, bases[i%2].Status, r.Status)
		assert.GreaterOrEqual(t, r.TDS, 150)
		assert.Less(t, r.TDS, 350)
		assert.GreaterOrEqual(t, r.Flow, 0.5)
		assert.LessOrEqual(t, r.Flow, 4.5)
		assert.GreaterOrEqual(t, r.Temperature, 25.0)
		assert.LessOrEqual(t, r.Temperature, 45.0)
		assert.GreaterOrEqual(t, r.PH, 6.5)
		assert.LessOrEqual(t, r.PH, 8.5)
		assert.GreaterOrEqual(t, r.FilterHealth, 50.0)
		assert.LessOrEqual(t, r.FilterHealth, 80.0)
		assert.Equal(t, testNow, r.Timestamp)
	}
}

func TestRenterFleet_SeedIsReproducible(t *testing.T) {
	a := NewSeededGenerator(7).RenterFleet(nil, 10, testNow)
	b := NewSeededGenerator(7).RenterFleet(nil, 10, testNow)
	assert.Equal(t, a, b)
}

func TestDrift_StaysInDomain(t *testing.T) {
	g := NewSeededGenerator(1)
	base := telemetry.Reading{
		DeviceID: "223", PH: 13.9, TDS: 5, Temperature: 28, FilterHealth: 90, Flow: 0.2,
		FilterType: telemetry.FilterRO, Status: telemetry.StatusOnline,
	}

	for i := 0; i < 200; i++ {
		s := DemoSpreads[i%len(DemoSpreads)]
		r := g.Drift(base, "224", s, testNow)

		assert.Equal(t, "224", r.DeviceID)
		assert.GreaterOrEqual(t, r.TDS, 0)
		assert.LessOrEqual(t, r.TDS, base.TDS+s.TDS)
		assert.GreaterOrEqual(t, r.Flow, 0.0)
		assert.LessOrEqual(t, r.PH, 14.0)
		assert.GreaterOrEqual(t, r.FilterHealth, base.FilterHealth)
		assert.LessOrEqual(t, r.FilterHealth, 100.0)
		assert.InDelta(t, base.Temperature, r.Temperature, s.Temperature+0.05)
		assert.Equal(t, base.Status, r.Status)
	}
}

func TestHourlySeries(t *testing.T) {
	g := NewSeededGenerator(3)
	base := telemetry.Reading{PH: 7.2, TDS: 180, Temperature: 28.5, Flow: 2.5}

	points := g.HourlySeries(base, testNow)
	require.Len(t, points, 24)
	assert.Equal(t, time.Date(2025, 7, 14, 11, 0, 0, 0, time.UTC), points[0].Time)
	assert.Equal(t, time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC), points[23].Time)

	for _, p := range points {
		assert.InDelta(t, base.PH, p.PH, 0.26)
		assert.InDelta(t, base.TDS, p.TDS, 26)
		assert.InDelta(t, base.Temperature, p.Temperature, 1.55)
		assert.InDelta(t, base.Flow, p.Flow, 0.51)
	}
}

func TestIncome_TotalIsExactSum(t *testing.T) {
	g := NewSeededGenerator(11)
	ids := []string{"PG-401", "PG-402", "PG-403", "PG-501"}

	earnings := g.Income(ids, DefaultIncomeRange)
	require.Len(t, earnings.Devices, len(ids))

	sum := decimal.Zero
	for i, d := range earnings.Devices {
		assert.Equal(t, ids[i], d.DeviceID)
		assert.True(t, d.Income.GreaterThanOrEqual(decimal.NewFromInt(5000)), d.Income.String())
		assert.True(t, d.Income.LessThan(decimal.NewFromInt(15000)), d.Income.String())
		assert.True(t, d.Income.Equal(d.Income.Floor()), "income is whole rupees")
		sum = sum.Add(d.Income)
	}
	assert.True(t, sum.Equal(earnings.Total))
}

func TestIncome_EmptyRange(t *testing.T) {
	earnings := NewSeededGenerator(1).Income([]string{"a", "b"}, IncomeRange{Min: 100, Max: 100})
	assert.True(t, earnings.Total.Equal(decimal.NewFromInt(200)))
}

func TestMonthly(t *testing.T) {
	g := NewSeededGenerator(5)
	total := decimal.NewFromInt(60000)

	months := g.Monthly(total, testNow)
	require.Len(t, months, MonthlyWindow)
	assert.Equal(t, "Feb 25", months[0].Month)
	assert.Equal(t, "Jul 25", months[5].Month)

	for _, m := range months {
		// 10000 +/- 6000
		assert.True(t, m.Income.GreaterThanOrEqual(decimal.NewFromInt(4000)), m.Income.String())
		assert.True(t, m.Income.LessThanOrEqual(decimal.NewFromInt(16000)), m.Income.String())
		assert.True(t, m.Income.Equal(m.Income.Floor()))
	}
}

func TestMonthlyBounds(t *testing.T) {
	testCases := []struct {
		name  string
		total int64
	}{
		{name: "Zero total", total: 0},
		{name: "Small total", total: 600},
		{name: "Large total", total: 1200000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewSeededGenerator(11)
			total := decimal.NewFromInt(tc.total)
			share := total.Div(decimal.NewFromInt(MonthlyWindow))
			spread := total.Mul(decimal.NewFromFloat(0.1))

			for _, m := range g.Monthly(total, testNow) {
				assert.True(t, m.Income.GreaterThanOrEqual(share.Sub(spread).Floor()), m.Income.String())
				assert.True(t, m.Income.LessThanOrEqual(share.Add(spread)), m.Income.String())
			}
		})
	}
}

func TestAccounts(t *testing.T) {
	fixtures := Accounts(testNow)
	require.Len(t, fixtures, 6)

	seen := map[string]bool{}
	for _, f := range fixtures {
		assert.NotEmpty(t, f.Password)
		assert.Len(t, f.Readings, len(f.Account.Devices))
		for i, d := range f.Account.Devices {
			assert.False(t, seen[d.DeviceID], "device %s listed twice", d.DeviceID)
			seen[d.DeviceID] = true
			assert.Equal(t, d.DeviceID, f.Readings[i].DeviceID)

			vocabulary := telemetry.SupplyStatuses
			if f.Account.Role == "renter" {
				vocabulary = telemetry.RentalStatuses
				assert.NotNil(t, d.SubscriptionDaysLeft)
			}
			assert.Contains(t, vocabulary, f.Readings[i].Status)
		}
	}
}
