package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chargetracker-backend/internal/metrics"
	"chargetracker-backend/internal/model"
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

// WorkerPool sends "dock available" notifications to the subscribers of a
// station.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewWorkerPool creates a new worker pool with a job queue of queueSize.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options, m *metrics.Metrics, logger *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		metrics: m,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := wp.logger.With(zap.Int("worker", id))
	log.Debug("notification worker started")
	for {
		select {
		case stationID := <-wp.jobs:
			wp.sendNotificationsForStation(ctx, stationID)
		case <-ctx.Done():
			log.Debug("notification worker shutting down")
			return
		}
	}
}

// Dispatch queues a station without blocking. Jobs are dropped when the
// queue is full.
func (wp *WorkerPool) Dispatch(stationID string) {
	if wp == nil {
		return
	}
	select {
	case wp.jobs <- stationID:
	default:
		wp.metrics.Notification("dropped")
		wp.logger.Warn("notification queue full, dropping job", zap.String("station_id", stationID))
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) sendNotificationsForStation(ctx context.Context, stationID string) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_station_mapping ssm ON ssm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("ssm.station_id = ?", stationID).
		Find(&subscriptions).Error
	if err != nil {
		wp.logger.Error("failed to fetch subscriptions", zap.String("station_id", stationID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := stationID
	var station model.Station
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&station, "id = ?", stationID).Error; err != nil {
		wp.logger.Warn("failed to fetch station name", zap.String("station_id", stationID), zap.Error(err))
	} else if station.Name != "" {
		label = station.Name
	}

	wp.logger.Info("sending dock notifications",
		zap.String("station_id", stationID),
		zap.Int("subscriptions", len(subscriptions)),
	)
	message := fmt.Sprintf("A dock is now available at %s", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.metrics.Notification(metrics.ResultError)
		wp.logger.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		wp.metrics.Notification("expired")
		wp.logger.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.logger.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	case resp.StatusCode >= 300:
		wp.metrics.Notification(metrics.ResultError)
		wp.logger.Warn("push service rejected notification",
			zap.String("endpoint", sub.Endpoint),
			zap.Int("status", resp.StatusCode),
		)
	default:
		wp.metrics.Notification(metrics.ResultSuccess)
	}
}
