package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"mdm-registry-backend/internal/model"
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

// SubscriptionStore is where the pool looks up and prunes subscribers.
type SubscriptionStore interface {
	List(ctx context.Context) ([]model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

// Logger defines the logging interface used by the worker pool.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// queueFactor sizes the job buffer relative to the number of workers.
const queueFactor = 16

// Payload is the JSON body delivered to the browser.
type Payload struct {
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	AlertID  string         `json:"alertId"`
	DeviceID string         `json:"deviceId"`
	Severity model.Severity `json:"severity"`
}

// WorkerPool delivers alert notifications to push subscribers.
type WorkerPool struct {
	size    int
	jobs    chan model.Alert
	subs    SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	logger  Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs SubscriptionStore, webpushOptions *webpush.Options, logger Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.Alert, size*queueFactor),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
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
	wp.logger.Info("notification worker started", "worker", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.sendNotificationsForAlert(ctx, alert)
		case <-ctx.Done():
			wp.logger.Info("notification worker shutting down", "worker", id)
			return
		}
	}
}

// Notify queues a for delivery when its severity is high or critical.
// It never blocks; alerts are dropped when the queue is full.
func (wp *WorkerPool) Notify(a model.Alert) {
	if a.Severity != model.SeverityHigh && a.Severity != model.SeverityCritical {
		return
	}
	select {
	case wp.jobs <- a:
	default:
		wp.logger.Warn("notification queue full, dropping alert", "alert", a.ID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan model.Alert {
	return wp.jobs
}

func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, alert model.Alert) {
	subscriptions, err := wp.subs.List(ctx)
	if err != nil {
		wp.logger.Error("failed to list subscriptions", "alert", alert.ID, "error", err)
		return
	}

	payload, err := json.Marshal(payloadFor(alert))
	if err != nil {
		wp.logger.Error("failed to encode notification", "alert", alert.ID, "error", err)
		return
	}

	sent := 0
	for _, sub := range subscriptions {
		if !sub.Wants(alert.DeviceID) {
			continue
		}
		wp.sendNotification(ctx, sub, payload)
		sent++
	}
	if sent > 0 {
		wp.logger.Info("alert notifications sent", "alert", alert.ID, "subscribers", sent)
	}
}

func payloadFor(a model.Alert) Payload {
	return Payload{
		Title:    fmt.Sprintf("%s alert: %s", a.Severity, a.DeviceName),
		Body:     a.Message,
		AlertID:  a.ID,
		DeviceID: a.DeviceID,
		Severity: a.Severity,
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
		wp.logger.Warn("failed to send notification", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are pruned.
	if resp.StatusCode == http.StatusGone {
		wp.logger.Info("subscription expired, deleting", "endpoint", sub.Endpoint)
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			wp.logger.Error("failed to delete expired subscription", "endpoint", sub.Endpoint, "error", err)
		}
	}
}
