package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puritygrid-backend/internal/model"
)

// Slots is a durable key-value store of JSON documents.
type Slots struct {
	db *gorm.DB
}

// NewSlots creates a slot store on db.
func NewSlots(db *gorm.DB) *Slots {
	return &Slots{db: db}
}

// Transaction runs fn with a slot store bound to a single transaction.
func (s *Slots) Transaction(ctx context.Context, fn func(tx *Slots) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Slots{db: tx})
	})
}

// Load decodes the slot into dst. It reports false, leaving dst untouched,
// when the slot does not exist.
func (s *Slots) Load(ctx context.Context, key string, dst any) (bool, error) {
	var slot model.Slot
	err := s.db.WithContext(ctx).Where(&model.Slot{Key: key}).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load slot %s: %w", key, err)
	}
	if err := json.Unmarshal(slot.Value, dst); err != nil {
		return false, fmt.Errorf("failed to decode slot %s: %w", key, err)
	}
	return true, nil
}

// Save encodes v and stores it under key, replacing any previous value.
func (s *Slots) Save(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode slot %s: %w", key, err)
	}

	slot := model.Slot{Key: key, Value: datatypes.JSON(value), UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error; err != nil {
		return fmt.Errorf("failed to save slot %s: %w", key, err)
	}
	return nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *Slots) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where(&model.Slot{Key: key}).Delete(&model.Slot{}).Error; err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}
