package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/parse"
	"mdm-registry-backend/internal/store"
)

const unknownAddress = "Unknown"

// Registry is the part of the registry store the telemetry service needs.
type Registry interface {
	FindDeviceByExternalID(ctx context.Context, hwID string) (*model.Device, error)
	UpdateDevice(ctx context.Context, id string, patch store.DevicePatch) (*model.Device, error)
	AddAlert(ctx context.Context, a model.Alert) (*model.Alert, error)
}

// SampleWriter receives every applied report for time-series storage.
type SampleWriter interface {
	WriteReport(deviceID string, r Report, at time.Time)
}

// Logger defines the logging interface used by the telemetry components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service applies device reports to the registry.
type Service struct {
	registry Registry
	samples  SampleWriter
	logger   Logger
	now      func() time.Time

	lowBattery      int
	criticalBattery int
}

// Option configures a Service.
type Option func(*Service)

// WithSampleWriter sets where applied reports are recorded.
func WithSampleWriter(w SampleWriter) Option {
	return func(s *Service) { s.samples = w }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a telemetry service with the battery thresholds from cfg.
func NewService(registry Registry, cfg config.TelemetryConfig, opts ...Option) *Service {
	s := &Service{
		registry:        registry,
		logger:          noopLogger{},
		now:             func() time.Time { return time.Now().UTC() },
		lowBattery:      cfg.LowBatteryPercent,
		criticalBattery: cfg.CriticalBatteryPercent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply updates the device identified by r and raises alerts for low
// battery and lost connectivity. Unknown devices yield store.ErrNotFound.
func (s *Service) Apply(ctx context.Context, r Report) (*model.Device, error) {
	hwID := strings.TrimSpace(r.UUID)
	if hwID == "" {
		return nil, ErrInvalidReport
	}

	dev, err := s.registry.FindDeviceByExternalID(ctx, hwID)
	if err != nil {
		return nil, fmt.Errorf("lookup device %q: %w", hwID, err)
	}

	now := s.now()
	updated, err := s.registry.UpdateDevice(ctx, dev.ID, s.patchFor(r, now))
	if err != nil {
		return nil, fmt.Errorf("update device %s: %w", dev.ID, err)
	}

	for _, a := range s.alertsFor(r) {
		a.DeviceID = updated.ID
		a.DeviceName = updated.Name
		a.Type = model.AlertTypeSecurity
		a.Timestamp = now
		if _, err := s.registry.AddAlert(ctx, a); err != nil {
			return nil, fmt.Errorf("raise alert for %s: %w", updated.ID, err)
		}
		s.logger.Info("telemetry alert raised", "device", updated.ID, "severity", a.Severity, "message", a.Message)
	}

	if s.samples != nil {
		s.samples.WriteReport(updated.ID, r, now)
	}
	return updated, nil
}

// HandleMessage decodes a report published on topic and applies it. When
// the payload carries no uuid the last topic segment is used.
func (s *Service) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	var r Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return fmt.Errorf("decode report on %s: %w", topic, err)
	}
	if r.UUID == "" {
		if i := strings.LastIndex(topic, "/"); i >= 0 {
			r.UUID = topic[i+1:]
		}
	}
	if _, err := s.Apply(ctx, r); err != nil {
		return err
	}
	s.logger.Debug("telemetry applied", "topic", topic, "uuid", r.UUID)
	return nil
}

func (s *Service) patchFor(r Report, now time.Time) store.DevicePatch {
	patch := store.DevicePatch{LastSeen: &now}
	if r.Model != "" {
		patch.Model = &r.Model
	}
	if r.Platform != "" {
		platform := parse.Platform(r.Platform)
		patch.OS = &platform
	}
	if r.Version != "" {
		patch.OSVersion = &r.Version
	}
	if r.Battery != nil {
		level := r.Battery.Level
		patch.Battery = &level
	}
	if r.Location != nil {
		patch.Location = &model.Location{Lat: r.Location.Lat, Lng: r.Location.Lng, Address: unknownAddress}
	}
	return patch
}

func (s *Service) alertsFor(r Report) []model.Alert {
	var alerts []model.Alert
	if b := r.Battery; b != nil {
		switch {
		case b.Level <= s.criticalBattery:
			alerts = append(alerts, model.Alert{Severity: model.SeverityCritical, Message: "Critical: Battery critically low"})
		case b.Level < s.lowBattery && !b.IsPlugged:
			alerts = append(alerts, model.Alert{Severity: model.SeverityMedium, Message: "Low battery warning"})
		}
	}
	if r.Offline() {
		alerts = append(alerts, model.Alert{Severity: model.SeverityHigh, Message: "Device went offline"})
	}
	return alerts
}
