package mock

import (
	"time"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/telemetry"
)

// Fixture is a demo account with its plain-text password and the last
// known reading of each of its devices.
type Fixture struct {
	Account  model.Account
	Password string
	Readings []telemetry.Reading
}

type fixtureDevice struct {
	id, model, location, status string
	days                        *int
	ph                          float64
	tds                         int
	temperature, health, flow   float64
}

func days(n int) *int { return &n }

// Accounts returns the demo renters and owners. Rented devices report the
// rental vocabulary (online/maintenance), supplied ones the supply vocabulary.
func Accounts(now time.Time) []Fixture {
	return []Fixture{
		fixture("user_big", "userbig123", model.RoleRenter, now,
			fixtureDevice{"PG-001", "RO", "Kitchen", "online", days(25), 7.2, 180, 28.5, 80, 2.5},
			fixtureDevice{"PG-002", "UF", "Office", "maintenance", days(7), 6.8, 220, 30.1, 10, 1.2},
		),
		fixture("user_anna", "useranna123", model.RoleRenter, now,
			fixtureDevice{"PG-201", "UV", "Home", "online", days(5), 7.0, 150, 27.0, 60, 2.0},
			fixtureDevice{"PG-202", "RO", "Office", "maintenance", days(30), 6.5, 260, 29.5, 5, 1.0},
			fixtureDevice{"PG-203", "UF", "Kitchen", "online", days(10), 7.4, 170, 26.8, 90, 2.8},
		),
		fixture("user_john", "userjohn123", model.RoleRenter, now,
			fixtureDevice{"PG-301", "RO", "Home", "online", days(15), 7.1, 200, 28.0, 70, 2.2},
		),
		fixture("owner_mega", "ownmega123", model.RoleOwner, now,
			fixtureDevice{"PG-401", "UV", "Warehouse", "available", nil, 7.0, 160, 27.5, 100, 2.6},
			fixtureDevice{"PG-402", "RO", "Office", "running", nil, 7.3, 190, 28.2, 85, 2.4},
			fixtureDevice{"PG-403", "UF", "Home", "maintenance", nil, 6.7, 210, 29.0, 15, 1.1},
		),
		fixture("owner_sam", "ownersam123", model.RoleOwner, now,
			fixtureDevice{"PG-501", "RO", "Warehouse", "running", nil, 7.2, 180, 28.5, 80, 2.5},
			fixtureDevice{"PG-502", "UF", "Office", "running", nil, 7.1, 170, 27.8, 90, 2.7},
			fixtureDevice{"PG-503", "RO", "Warehouse", "available", nil, 7.0, 160, 27.5, 100, 2.6},
			fixtureDevice{"PG-504", "UV", "Home", "maintenance", nil, 6.8, 230, 30.0, 10, 1.0},
			fixtureDevice{"PG-505", "RO", "Office", "running", nil, 7.4, 175, 28.1, 95, 2.9},
		),
		fixture("owner_nina", "ownnina123", model.RoleOwner, now,
			fixtureDevice{"PG-601", "RO", "Warehouse", "running", nil, 7.3, 185, 28.3, 88, 2.3},
			fixtureDevice{"PG-602", "RO", "Warehouse", "available", nil, 7.0, 160, 27.5, 100, 2.6},
			fixtureDevice{"PG-603", "UF", "Home", "maintenance", nil, 6.6, 220, 29.2, 12, 1.2},
		),
	}
}

func fixture(username, password, role string, now time.Time, devices ...fixtureDevice) Fixture {
	f := Fixture{
		Account: model.Account{
			Username:    username,
			Role:        role,
			DisplayName: username,
			Email:       username + "@puritygrid.example",
		},
		Password: password,
	}
	for _, d := range devices {
		f.Account.Devices = append(f.Account.Devices, model.Device{
			DeviceID:             d.id,
			Model:                d.model,
			Location:             d.location,
			Status:               d.status,
			SubscriptionDaysLeft: d.days,
		})
		f.Readings = append(f.Readings, telemetry.Reading{
			DeviceID:             d.id,
			PH:                   d.ph,
			TDS:                  d.tds,
			Temperature:          d.temperature,
			FilterHealth:         d.health,
			Flow:                 d.flow,
			FilterType:           telemetry.ParseFilterType(d.model),
			Status:               telemetry.Status(d.status),
			SubscriptionDaysLeft: d.days,
			Timestamp:            now,
		})
	}
	return f
}
