package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/notification"
	"mdm-registry-backend/internal/store"
	"mdm-registry-backend/internal/telemetry"
)

// Registry is the registry store surface exposed over HTTP.
type Registry interface {
	ListDevices(ctx context.Context, filter store.DeviceFilter) ([]model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	EnrollDevice(ctx context.Context, d model.Device) (*model.Device, error)
	UpdateDevice(ctx context.Context, id string, patch store.DevicePatch) (*model.Device, error)
	LockDevice(ctx context.Context, id string) (*model.Device, error)
	UnlockDevice(ctx context.Context, id string) (*model.Device, error)
	WipeDevice(ctx context.Context, id string) (*model.Device, error)
	UnenrollDevice(ctx context.Context, id string) error

	Policies(ctx context.Context) ([]model.Policy, error)
	AddPolicy(ctx context.Context, p model.Policy) (*model.Policy, error)

	AppRules(ctx context.Context) ([]model.AppRule, error)
	AddAppRule(ctx context.Context, r model.AppRule) (*model.AppRule, error)
	RemoveAppRule(ctx context.Context, id string) error

	Alerts(ctx context.Context, filter store.AlertFilter) ([]model.Alert, error)
	AddAlert(ctx context.Context, a model.Alert) (*model.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error

	Activities(ctx context.Context, limit int) ([]model.Activity, error)
	AddActivity(ctx context.Context, a model.Activity) (*model.Activity, error)

	Statistics(ctx context.Context) (store.Statistics, error)

	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, raw []byte) error
	Reset(ctx context.Context, reseed bool) error
}

// TelemetryService applies device reports.
type TelemetryService interface {
	Apply(ctx context.Context, r telemetry.Report) (*model.Device, error)
}

// SubscriptionStore persists browser push subscriptions.
type SubscriptionStore interface {
	Get(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	Put(ctx context.Context, sub model.PushSubscription) error
	Delete(ctx context.Context, endpoint string) error
}

// Logger defines the logging interface used by the handlers.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	registry      Registry
	telemetry     TelemetryService
	subscriptions SubscriptionStore
	webpush       *webpush.Options
	logger        Logger
}

// NewHandler creates a new API handler. telemetry, subscriptions and
// webpushOptions may be nil; their endpoints then answer 503.
func NewHandler(registry Registry, telemetry TelemetryService, subscriptions SubscriptionStore, webpushOptions *webpush.Options, logger Logger) *Handler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Handler{
		registry:      registry,
		telemetry:     telemetry,
		subscriptions: subscriptions,
		webpush:       webpushOptions,
		logger:        logger,
	}
}

// fail maps err to a status code and writes the JSON error body.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, notification.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrInvalidDocument), errors.Is(err, telemetry.ErrInvalidReport):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
