package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/mw"
)

var errForeignDevice = errors.New("device belongs to another account")

type putSubscriptionRequest struct {
	Endpoint          string   `json:"endpoint" binding:"required"`
	P256DH            string   `json:"p256dh" binding:"required"`
	Auth              string   `json:"auth" binding:"required"`
	SubscribedDevices []string `json:"subscribed_devices"`
}

// PutSubscription handles the creation or replacement of a subscription.
// Every listed device must belong to the caller's account; unknown ids are ignored.
func (h *Handler) PutSubscription(c *gin.Context) {
	s, _ := mw.SessionFrom(c)

	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	subscription := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		var devices []*model.Device
		if len(req.SubscribedDevices) > 0 {
			if err := tx.Where("device_id IN ?", req.SubscribedDevices).Find(&devices).Error; err != nil {
				return err
			}
		}
		for _, d := range devices {
			if d.AccountID != s.AccountID {
				return errForeignDevice
			}
		}

		return tx.Model(&subscription).Association("Devices").Replace(&devices)
	})
	if errors.Is(err, errForeignDevice) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to save subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.store.DB().WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		subscription := model.PushSubscription{Endpoint: req.Endpoint}
		if err := tx.Model(&subscription).Association("Devices").Clear(); err != nil {
			return err
		}
		return tx.Delete(&subscription).Error
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to delete subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete subscription"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscription returns the devices a subscription follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.PushSubscription
	err := h.store.DB().WithContext(c.Request.Context()).
		Preload("Devices").
		First(&subscription, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
		return
	}

	deviceIDs := make([]string, len(subscription.Devices))
	for i, d := range subscription.Devices {
		deviceIDs[i] = d.DeviceID
	}
	c.JSON(http.StatusOK, gin.H{"subscribed_devices": deviceIDs})
}
