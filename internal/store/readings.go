package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/telemetry"
)

// SaveReadings replaces the latest reading of each device and appends it to
// the history. A reading that is not newer than the stored latest one is
// skipped. It returns the readings that were accepted.
func (s *gormStore) SaveReadings(ctx context.Context, readings []telemetry.Reading) ([]telemetry.Reading, error) {
	if len(readings) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(readings))
	for _, r := range readings {
		ids = append(ids, r.DeviceID)
	}
	current, err := s.fetchLatest(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest readings: %w", err)
	}

	var accepted []telemetry.Reading
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range readings {
			if prev, ok := current[r.DeviceID]; ok && !r.Timestamp.After(prev.ObservedAt) {
				continue
			}

			latest := toLatest(r)
			if err := tx.Save(&latest).Error; err != nil {
				return fmt.Errorf("failed to save latest reading for device %s: %w", r.DeviceID, err)
			}
			if err := archiveReading(tx, r); err != nil {
				return err
			}

			current[r.DeviceID] = latest
			accepted = append(accepted, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// archiveReading appends a reading to the history log.
func archiveReading(tx *gorm.DB, r telemetry.Reading) error {
	history := model.ReadingHistory{
		DeviceID:     r.DeviceID,
		ObservedAt:   r.Timestamp.UTC(),
		PH:           r.PH,
		TDS:          r.TDS,
		Temperature:  r.Temperature,
		FilterHealth: r.FilterHealth,
		Flow:         r.Flow,
		Status:       string(r.Status),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&history).Error; err != nil {
		return fmt.Errorf("failed to archive reading for device %s: %w", r.DeviceID, err)
	}
	return nil
}

// LatestReadings returns the latest reading of each listed device, ordered by
// device id. A nil list returns every device.
func (s *gormStore) LatestReadings(ctx context.Context, deviceIDs []string) ([]telemetry.Reading, error) {
	if deviceIDs != nil && len(deviceIDs) == 0 {
		return []telemetry.Reading{}, nil
	}

	query := s.db.WithContext(ctx).Order("device_id")
	if deviceIDs != nil {
		query = query.Where("device_id IN ?", deviceIDs)
	}

	var rows []model.ReadingLatest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	readings := make([]telemetry.Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, fromLatest(row))
	}
	return readings, nil
}

// History returns the readings of one device observed at or after since,
// oldest first.
func (s *gormStore) History(ctx context.Context, deviceID string, since time.Time) ([]model.ReadingHistory, error) {
	var rows []model.ReadingHistory
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND observed_at >= ?", deviceID, since.UTC()).
		Order("observed_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// PruneHistory deletes history rows observed before the cutoff.
func (s *gormStore) PruneHistory(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("observed_at < ?", before.UTC()).Delete(&model.ReadingHistory{})
	return res.RowsAffected, res.Error
}

func (s *gormStore) fetchLatest(ctx context.Context, deviceIDs []string) (map[string]model.ReadingLatest, error) {
	var rows []model.ReadingLatest
	if err := s.db.WithContext(ctx).Where("device_id IN ?", deviceIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	latest := make(map[string]model.ReadingLatest, len(rows))
	for _, r := range rows {
		latest[r.DeviceID] = r
	}
	return latest, nil
}

func toLatest(r telemetry.Reading) model.ReadingLatest {
	return model.ReadingLatest{
		DeviceID:             r.DeviceID,
		ObservedAt:           r.Timestamp.UTC(),
		PH:                   r.PH,
		TDS:                  r.TDS,
		Temperature:          r.Temperature,
		FilterHealth:         r.FilterHealth,
		Flow:                 r.Flow,
		FilterType:           string(r.FilterType),
		Status:               string(r.Status),
		SubscriptionDaysLeft: r.SubscriptionDaysLeft,
	}
}

func fromLatest(row model.ReadingLatest) telemetry.Reading {
	return telemetry.Reading{
		DeviceID:             row.DeviceID,
		PH:                   row.PH,
		TDS:                  row.TDS,
		Temperature:          row.Temperature,
		FilterHealth:         row.FilterHealth,
		Flow:                 row.Flow,
		FilterType:           telemetry.ParseFilterType(row.FilterType),
		Status:               telemetry.ParseStatus(row.Status),
		SubscriptionDaysLeft: row.SubscriptionDaysLeft,
		Timestamp:            row.ObservedAt,
	}
}
