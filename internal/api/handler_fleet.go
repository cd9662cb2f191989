package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/mw"
	"puritygrid-backend/internal/session"
	"puritygrid-backend/internal/store"
	"puritygrid-backend/internal/telemetry"
)

// deviceStatusResponse is the flattened structure for the fleet response.
// Reading and Assessment are nil until the device has reported.
type deviceStatusResponse struct {
	model.Device
	Reading    *telemetry.Reading    `json:"reading"`
	Assessment *telemetry.Assessment `json:"assessment"`
}

type alertResponse struct {
	Code  telemetry.AlertCode `json:"code"`
	Label string              `json:"label"`
}

type deviceAlertsResponse struct {
	DeviceID      string             `json:"device_id"`
	Location      string             `json:"location"`
	Severity      telemetry.Severity `json:"severity"`
	SeverityLabel string             `json:"severity_label"`
	Alerts        []alertResponse    `json:"alerts"`
}

// fleet loads the caller's devices and the latest reading of each.
func (h *Handler) fleet(ctx context.Context, s session.Session) ([]model.Device, map[string]telemetry.Reading, error) {
	devices, err := h.store.DevicesByAccount(ctx, s.AccountID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.DeviceID
	}
	readings, err := h.store.LatestReadings(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	latest := make(map[string]telemetry.Reading, len(readings))
	for _, r := range readings {
		latest[r.DeviceID] = r
	}
	return devices, latest, nil
}

// GetFleet lists the caller's devices with their latest reading and
// assessment.
func (h *Handler) GetFleet(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	devices, latest, err := h.fleet(c.Request.Context(), s)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve fleet"})
		return
	}

	classifier := h.classifierFor(s)
	response := make([]deviceStatusResponse, 0, len(devices))
	for _, d := range devices {
		item := deviceStatusResponse{Device: d}
		if r, ok := latest[d.DeviceID]; ok {
			a := classifier.Classify(r)
			item.Reading = &r
			item.Assessment = &a
		}
		response = append(response, item)
	}
	c.JSON(http.StatusOK, response)
}

// GetFleetStats aggregates the caller's fleet.
func (h *Handler) GetFleetStats(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	_, latest, err := h.fleet(c.Request.Context(), s)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve fleet"})
		return
	}

	readings := make([]telemetry.Reading, 0, len(latest))
	for _, r := range latest {
		readings = append(readings, r)
	}
	if errors.Is(telemetry.RequireFleet(readings), telemetry.ErrEmptyFleet) {
		c.JSON(http.StatusOK, gin.H{"status": "no_data"})
		return
	}
	c.JSON(http.StatusOK, h.classifierFor(s).Aggregate(readings))
}

// GetFleetAlerts lists the caller's devices raising at least one alert.
func (h *Handler) GetFleetAlerts(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	devices, latest, err := h.fleet(c.Request.Context(), s)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve fleet"})
		return
	}

	classifier := h.classifierFor(s)
	response := make([]deviceAlertsResponse, 0)
	for _, d := range devices {
		r, ok := latest[d.DeviceID]
		if !ok {
			continue
		}
		a := classifier.Classify(r)
		if len(a.Alerts) == 0 {
			continue
		}
		alerts := make([]alertResponse, len(a.Alerts))
		for i, code := range a.Alerts {
			alerts[i] = alertResponse{Code: code, Label: code.Label()}
		}
		response = append(response, deviceAlertsResponse{
			DeviceID:      d.DeviceID,
			Location:      d.Location,
			Severity:      a.Severity,
			SeverityLabel: a.Severity.Label(),
			Alerts:        alerts,
		})
	}
	c.JSON(http.StatusOK, response)
}

const maxHistoryHours = 24 * 30

// GetDeviceHistory handles GET /api/devices/{device_id}/history?hours=N.
func (h *Handler) GetDeviceHistory(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	ctx := c.Request.Context()

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxHistoryHours {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid hours, use 1 to 720"})
			return
		}
		hours = v
	}

	deviceID := c.Param("device_id")
	device, err := h.store.FindDevice(ctx, deviceID)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve device"})
		return
	}
	if device.AccountID != s.AccountID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "device belongs to another account"})
		return
	}

	now := h.now().UTC()
	rows, err := h.store.History(ctx, deviceID, now.Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	points := make([]mock.Point, 0, len(rows))
	for _, row := range rows {
		points = append(points, mock.Point{
			Time:        row.ObservedAt,
			PH:          row.PH,
			TDS:         row.TDS,
			Temperature: row.Temperature,
			Flow:        row.Flow,
		})
	}

	source := "stored"
	if len(points) == 0 && h.mockHistory && h.generator != nil {
		latest, err := h.store.LatestReadings(ctx, []string{deviceID})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
			return
		}
		if len(latest) > 0 {
			points = h.generator.HourlySeries(latest[0], now)
			source = "mock"
		}
	}

	c.JSON(http.StatusOK, gin.H{"device_id": deviceID, "source": source, "points": points})
}

// GetEarnings reports the mock income of the owner's fleet.
func (h *Handler) GetEarnings(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	devices, err := h.store.DevicesByAccount(c.Request.Context(), s.AccountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve fleet"})
		return
	}

	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.DeviceID
	}
	earnings := h.generator.Income(ids, h.income)
	c.JSON(http.StatusOK, gin.H{
		"devices": earnings.Devices,
		"total":   earnings.Total,
		"monthly": h.generator.Monthly(earnings.Total, h.now()),
	})
}
