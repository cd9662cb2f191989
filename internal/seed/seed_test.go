package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"puritygrid-backend/internal/db"
	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/session"
	"puritygrid-backend/internal/store"
	"puritygrid-backend/internal/telemetry"
)

func newTestStore(t *testing.T) store.Store {
	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))
	return store.NewGormStore(gormDB)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, Seed(ctx, s, mock.NewSeededGenerator(3), 5, now, zerolog.Nop()))

	auth := session.NewAuthenticator(s)
	owner, err := auth.Verify(ctx, "owner_mega", "ownmega123", "owner")
	require.NoError(t, err)
	devices, err := s.DevicesByAccount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, devices, 3)

	renter, err := s.FindAccountByUsername(ctx, DemoRenter)
	require.NoError(t, err)
	devices, err = s.DevicesByAccount(ctx, renter.ID)
	require.NoError(t, err)
	assert.Len(t, devices, 2+5, "fixture devices plus the generated fleet")

	latest, err := s.LatestReadings(ctx, []string{"220", "224", "PG-403"})
	require.NoError(t, err)
	assert.Len(t, latest, 3)
}

func TestSeed_KeepsReportedReadings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, Seed(ctx, s, nil, 0, now, zerolog.Nop()))

	_, err := s.SaveReadings(ctx, []telemetry.Reading{{
		DeviceID: "PG-001", PH: 7.0, TDS: 999, Temperature: 20, FilterHealth: 50, Flow: 1,
		FilterType: telemetry.FilterRO, Status: telemetry.StatusOnline, Timestamp: now.Add(time.Minute),
	}})
	require.NoError(t, err)

	// A restart an hour later must not overwrite real telemetry with fixtures.
	require.NoError(t, Seed(ctx, s, nil, 0, now.Add(time.Hour), zerolog.Nop()))

	latest, err := s.LatestReadings(ctx, []string{"PG-001"})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, 999, latest[0].TDS)
}
