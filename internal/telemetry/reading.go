package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"puritygrid-backend/internal/parse"
)

// ErrMalformedReading is returned by ParseReading when a required field is
// missing, non-numeric or outside its domain.
var ErrMalformedReading = errors.New("malformed reading")

// FilterType is the purification technology of a device.
type FilterType string

const (
	FilterUV      FilterType = "UV"
	FilterUF      FilterType = "UF"
	FilterRO      FilterType = "RO"
	FilterUnknown FilterType = "unknown"
)

// ParseFilterType maps a raw filter type, case-insensitively. Anything
// unrecognised becomes FilterUnknown.
func ParseFilterType(raw string) FilterType {
	switch FilterType(strings.ToUpper(strings.TrimSpace(raw))) {
	case FilterUV:
		return FilterUV
	case FilterUF:
		return FilterUF
	case FilterRO:
		return FilterRO
	default:
		return FilterUnknown
	}
}

// Status is the operational state reported for a device. Rented devices use
// online/offline/maintenance, supplied devices use running/maintenance/available.
type Status string

const (
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusMaintenance Status = "maintenance"
	StatusRunning     Status = "running"
	StatusAvailable   Status = "available"
	StatusUnknown     Status = "unknown"
)

// RentalStatuses is the status vocabulary of the renter view.
var RentalStatuses = []Status{StatusOnline, StatusMaintenance, StatusOffline}

// SupplyStatuses is the status vocabulary of the owner-supply view.
var SupplyStatuses = []Status{StatusRunning, StatusMaintenance, StatusAvailable}

// ParseStatus maps a raw status case-insensitively; "Maintenance" and
// "maintenance" are the same status. Blank or unknown input is StatusUnknown.
func ParseStatus(raw string) Status {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusOnline, StatusOffline, StatusMaintenance, StatusRunning, StatusAvailable:
		return s
	default:
		return StatusUnknown
	}
}

// Reading is one purifier's latest telemetry snapshot.
type Reading struct {
	DeviceID             string     `json:"device_id"`
	PH                   float64    `json:"ph"`
	TDS                  int        `json:"tds"`
	Temperature          float64    `json:"temperature"`
	FilterHealth         float64    `json:"filter_health"`
	Flow                 float64    `json:"flow"`
	FilterType           FilterType `json:"filter_type"`
	Status               Status     `json:"status"`
	SubscriptionDaysLeft *int       `json:"subscription_days_left,omitempty"`
	Timestamp            time.Time  `json:"timestamp"`
}

// RawReading is the wire form of a reading. Numeric fields may be strings or
// numbers; the legacy "temprature" key is honoured when "temperature" is absent.
type RawReading struct {
	DeviceID             parse.Field `json:"device_id"`
	PH                   parse.Field `json:"ph"`
	TDS                  parse.Field `json:"tds"`
	Temperature          parse.Field `json:"temperature"`
	LegacyTemperature    parse.Field `json:"temprature"`
	FilterHealth         parse.Field `json:"filter_health"`
	Flow                 parse.Field `json:"flow"`
	FilterType           parse.Field `json:"filter_type"`
	Status               parse.Field `json:"status"`
	SubscriptionDaysLeft parse.Field `json:"subscription_days_left"`
	Timestamp            parse.Field `json:"timestamp"`
}

// ParseReading validates a raw record and builds a typed Reading. A missing
// timestamp is left zero for the caller to fill.
func ParseReading(raw RawReading) (Reading, error) {
	r := Reading{
		DeviceID:   strings.TrimSpace(string(raw.DeviceID)),
		FilterType: ParseFilterType(string(raw.FilterType)),
		Status:     ParseStatus(string(raw.Status)),
	}
	if r.DeviceID == "" {
		return Reading{}, malformed("device_id", parse.ErrEmpty)
	}

	var err error
	if r.PH, err = floatWithin("ph", raw.PH, 0, 14); err != nil {
		return Reading{}, err
	}
	if r.FilterHealth, err = floatWithin("filter_health", raw.FilterHealth, 0, 100); err != nil {
		return Reading{}, err
	}
	if r.Flow, err = floatWithin("flow", raw.Flow, 0, math.Inf(1)); err != nil {
		return Reading{}, err
	}

	temperature := raw.Temperature
	if temperature == "" {
		temperature = raw.LegacyTemperature
	}
	if r.Temperature, err = parse.Float(string(temperature)); err != nil {
		return Reading{}, malformed("temperature", err)
	}

	if r.TDS, err = parse.Int(string(raw.TDS)); err != nil {
		return Reading{}, malformed("tds", err)
	}
	if r.TDS < 0 {
		return Reading{}, malformed("tds", fmt.Errorf("negative value %d", r.TDS))
	}

	if r.SubscriptionDaysLeft, err = parse.OptionalInt(string(raw.SubscriptionDaysLeft)); err != nil {
		return Reading{}, malformed("subscription_days_left", err)
	}
	if r.SubscriptionDaysLeft != nil && *r.SubscriptionDaysLeft < 0 {
		return Reading{}, malformed("subscription_days_left", fmt.Errorf("negative value %d", *r.SubscriptionDaysLeft))
	}

	if ts := strings.TrimSpace(string(raw.Timestamp)); ts != "" {
		if r.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return Reading{}, malformed("timestamp", err)
		}
	}

	return r, nil
}

func floatWithin(field string, raw parse.Field, lo, hi float64) (float64, error) {
	v, err := parse.Float(string(raw))
	if err != nil {
		return 0, malformed(field, err)
	}
	if v < lo || v > hi {
		return 0, malformed(field, fmt.Errorf("%v outside [%v, %v]", v, lo, hi))
	}
	return v, nil
}

func malformed(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedReading, field, err)
}
