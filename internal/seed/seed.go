// Package seed loads the demo accounts, their devices and initial readings.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/session"
	"puritygrid-backend/internal/store"
	"puritygrid-backend/internal/telemetry"
)

// DemoRenter receives the generated demo fleet.
const DemoRenter = "user_big"

// Seed upserts every fixture account with a hashed password. When g is not
// nil, fleetSize generated devices are added to DemoRenter. Initial readings
// are only written for devices that have never reported, so a restart keeps
// real telemetry.
func Seed(ctx context.Context, s store.Store, g *mock.Generator, fleetSize int, now time.Time, log zerolog.Logger) error {
	now = now.UTC()
	var readings []telemetry.Reading

	for _, f := range mock.Accounts(now) {
		hash, err := session.HashPassword(f.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password of %s: %w", f.Account.Username, err)
		}
		account := f.Account
		account.PasswordHash = hash
		readings = append(readings, f.Readings...)

		if account.Username == DemoRenter && g != nil && fleetSize > 0 {
			fleet := g.RenterFleet(f.Readings, fleetSize, now)
			account.Devices = append(account.Devices, fleetDevices(fleet)...)
			readings = append(readings, fleet...)
		}

		if err := s.UpsertAccount(ctx, &account); err != nil {
			return err
		}
		log.Debug().Str("username", account.Username).Int("devices", len(account.Devices)).Msg("seeded account")
	}

	fresh, err := unreported(ctx, s, readings)
	if err != nil {
		return err
	}
	accepted, err := s.SaveReadings(ctx, fresh)
	if err != nil {
		return fmt.Errorf("failed to seed readings: %w", err)
	}
	log.Info().Int("readings", len(accepted)).Msg("demo data seeded")
	return nil
}

func fleetDevices(fleet []telemetry.Reading) []model.Device {
	devices := make([]model.Device, len(fleet))
	for i, r := range fleet {
		devices[i] = model.Device{
			DeviceID:             r.DeviceID,
			Model:                string(r.FilterType),
			Location:             "Demo fleet",
			Status:               string(r.Status),
			SubscriptionDaysLeft: r.SubscriptionDaysLeft,
		}
	}
	return devices
}

// unreported drops the readings of devices that already have a latest reading.
func unreported(ctx context.Context, s store.Store, readings []telemetry.Reading) ([]telemetry.Reading, error) {
	ids := make([]string, len(readings))
	for i, r := range readings {
		ids[i] = r.DeviceID
	}
	existing, err := s.LatestReadings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest readings: %w", err)
	}
	reported := make(map[string]bool, len(existing))
	for _, r := range existing {
		reported[r.DeviceID] = true
	}

	fresh := make([]telemetry.Reading, 0, len(readings))
	for _, r := range readings {
		if !reported[r.DeviceID] {
			fresh = append(fresh, r)
		}
	}
	return fresh, nil
}
