package mock

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeRange bounds the mock income of a single device, in INR.
type IncomeRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// DefaultIncomeRange is 5000 to 15000 INR per device.
var DefaultIncomeRange = IncomeRange{Min: 5000, Max: 15000}

// DeviceIncome is the income attributed to one device.
type DeviceIncome struct {
	DeviceID string          `json:"device_id"`
	Income   decimal.Decimal `json:"income"`
}

// Earnings is the income of a fleet. Total is the exact sum of Devices.
type Earnings struct {
	Devices []DeviceIncome  `json:"devices"`
	Total   decimal.Decimal `json:"total"`
}

// MonthIncome is the income booked in one calendar month.
type MonthIncome struct {
	Month  string          `json:"month"`
	Income decimal.Decimal `json:"income"`
}

// Income attributes a whole-rupee income in [r.Min, r.Max) to each device.
// An inverted or empty range collapses to r.Min.
func (g *Generator) Income(ids []string, r IncomeRange) Earnings {
	g.mu.Lock()
	defer g.mu.Unlock()

	span := r.Max - r.Min
	earnings := Earnings{Devices: make([]DeviceIncome, 0, len(ids)), Total: decimal.Zero}
	for _, id := range ids {
		income := decimal.NewFromInt(r.Min)
		if span > 0 {
			income = income.Add(decimal.NewFromInt(g.rng.Int64N(span)))
		}
		earnings.Devices = append(earnings.Devices, DeviceIncome{DeviceID: id, Income: income})
		earnings.Total = earnings.Total.Add(income)
	}
	return earnings
}

// MonthlyWindow is the number of months Monthly reports.
const MonthlyWindow = 6

var (
	window    = decimal.NewFromInt(MonthlyWindow)
	spreadPct = decimal.NewFromFloat(0.2)
	halfPoint = decimal.NewFromFloat(0.5)
)

// Monthly spreads total over the last MonthlyWindow months, oldest first,
// each month floor(total/MonthlyWindow + (r-0.5)*0.2*total) for a random r in [0, 1).
// The months do not necessarily add up to total.
func (g *Generator) Monthly(total decimal.Decimal, now time.Time) []MonthIncome {
	g.mu.Lock()
	defer g.mu.Unlock()

	months := make([]MonthIncome, MonthlyWindow)
	for i := range months {
		first := time.Date(now.Year(), now.Month()-time.Month(MonthlyWindow-1-i), 1, 0, 0, 0, 0, now.Location())
		r := decimal.NewFromFloat(g.rng.Float64()).Sub(halfPoint)
		income := total.Div(window).Add(r.Mul(spreadPct).Mul(total)).Floor()
		months[i] = MonthIncome{Month: first.Format("Jan 06"), Income: income}
	}
	return months
}
