package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/telemetry"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Escalation reports a device that just became high severity.
type Escalation struct {
	DeviceID   string
	Severity   telemetry.Severity
	Alerts     []telemetry.AlertCode
	ObservedAt time.Time
}

// Message is the JSON payload pushed to the browser.
type Message struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	DeviceID string `json:"device_id"`
	Severity string `json:"severity"`
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Escalation
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     zerolog.Logger

	stopped  chan struct{}
	stopOnce sync.Once
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Escalation, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		log:     log.With().Str("component", "notification").Logger(),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		wp.stopOnce.Do(func() { close(wp.stopped) })
	}()
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case job := <-wp.jobs:
			wp.log.Debug().Int("worker", id).Str("device_id", job.DeviceID).Msg("processing escalation")
			wp.sendNotificationsForDevice(ctx, job)
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

// Dispatch sends a job to the worker pool. Once the pool's context is done
// the job is dropped instead of waiting on a buffer nobody drains.
func (wp *WorkerPool) Dispatch(job Escalation) {
	select {
	case <-wp.stopped:
		wp.log.Warn().Str("device_id", job.DeviceID).Msg("worker pool stopped, dropping escalation")
		return
	default:
	}
	select {
	case wp.jobs <- job:
	case <-wp.stopped:
		wp.log.Warn().Str("device_id", job.DeviceID).Msg("worker pool stopped, dropping escalation")
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Escalation {
	return wp.jobs
}

// sendNotificationsForDevice fetches the subscriptions watching the device and notifies each.
func (wp *WorkerPool) sendNotificationsForDevice(ctx context.Context, job Escalation) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_device_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sdm.device_device_id = ?", job.DeviceID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.Error().Err(err).Str("device_id", job.DeviceID).Msg("failed to fetch subscriptions")
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	wp.log.Info().Int("count", len(subscriptions)).Str("device_id", job.DeviceID).Msg("sending notifications")

	var device model.Device
	label := job.DeviceID
	if err := wp.db.WithContext(ctx).
		Select("location").
		Where("device_id = ?", job.DeviceID).
		First(&device).Error; err != nil {
		wp.log.Warn().Err(err).Str("device_id", job.DeviceID).Msg("failed to fetch device")
	} else if device.Location != "" {
		label = fmt.Sprintf("%s (%s)", job.DeviceID, device.Location)
	}

	payload, err := json.Marshal(NewMessage(label, job))
	if err != nil {
		wp.log.Error().Err(err).Msg("failed to encode notification")
		return
	}
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// NewMessage builds the push payload for an escalation of the device labelled label.
func NewMessage(label string, job Escalation) Message {
	labels := make([]string, 0, len(job.Alerts))
	for _, a := range job.Alerts {
		labels = append(labels, a.Label())
	}
	body := strings.Join(labels, ", ")
	if body == "" {
		body = job.Severity.Label()
	}
	return Message{
		Title:    fmt.Sprintf("Purifier %s needs attention", label),
		Body:     body,
		DeviceID: job.DeviceID,
		Severity: string(job.Severity),
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send notification")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.log.Info().Str("endpoint", sub.Endpoint).Msg("subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
