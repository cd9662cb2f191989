package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/telemetry"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	UpsertAccount(ctx context.Context, account *model.Account) error
	FindAccountByUsername(ctx context.Context, username string) (model.Account, error)
	FindAccount(ctx context.Context, id int64) (model.Account, error)

	ListDevices(ctx context.Context) ([]model.Device, error)
	DevicesByAccount(ctx context.Context, accountID int64) ([]model.Device, error)
	FindDevice(ctx context.Context, deviceID string) (model.Device, error)

	SaveReadings(ctx context.Context, readings []telemetry.Reading) ([]telemetry.Reading, error)
	LatestReadings(ctx context.Context, deviceIDs []string) ([]telemetry.Reading, error)
	History(ctx context.Context, deviceID string, since time.Time) ([]model.ReadingHistory, error)
	PruneHistory(ctx context.Context, before time.Time) (int64, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertAccount inserts or updates an account by username, then upserts its
// devices under it. account.ID is filled in on return.
func (s *gormStore) UpsertAccount(ctx context.Context, account *model.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		devices := account.Devices
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "display_name", "email", "phone", "updated_at"}),
		}).Create(account).Error; err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", account.Username, err)
		}

		// The conflict path does not report the existing row's id on every driver.
		var stored model.Account
		if err := tx.Select("id").Where("username = ?", account.Username).First(&stored).Error; err != nil {
			return fmt.Errorf("failed to reload account %s: %w", account.Username, err)
		}
		account.ID = stored.ID

		if len(devices) == 0 {
			return nil
		}
		for i := range devices {
			devices[i].AccountID = account.ID
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id", "model", "location", "status", "subscription_days_left", "updated_at"}),
		}).Create(&devices).Error; err != nil {
			return fmt.Errorf("failed to upsert devices of %s: %w", account.Username, err)
		}
		account.Devices = devices
		return nil
	})
}

func (s *gormStore) FindAccountByUsername(ctx context.Context, username string) (model.Account, error) {
	var account model.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	return account, notFound(err)
}

func (s *gormStore) FindAccount(ctx context.Context, id int64) (model.Account, error) {
	var account model.Account
	err := s.db.WithContext(ctx).First(&account, id).Error
	return account, notFound(err)
}

func (s *gormStore) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("device_id").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *gormStore) DevicesByAccount(ctx context.Context, accountID int64) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Order("device_id").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (s *gormStore) FindDevice(ctx context.Context, deviceID string) (model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&device).Error
	return device, notFound(err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
