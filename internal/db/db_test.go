package db

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		DSN:          "file::memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}

	gormDB, err := Init(cfg, zerolog.Nop())
	require.NoError(t, err)

	for _, table := range []any{&model.Account{}, &model.Device{}, &model.ReadingLatest{}, &model.ReadingHistory{}, &model.Slot{}} {
		assert.True(t, gormDB.Migrator().HasTable(table))
	}
	assert.True(t, gormDB.Migrator().HasTable("subscription_device_mapping"))
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unsupported database driver")
}
