// Package simulator drifts device telemetry for demo installs.
package simulator

import (
	"context"
	"math/rand/v2"
	"time"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/store"
)

const (
	maxBatteryDelta = 5
	tickTimeout     = 10 * time.Second
)

// Registry is the part of the registry store the simulator needs.
type Registry interface {
	ListDevices(ctx context.Context, filter store.DeviceFilter) ([]model.Device, error)
	UpdateDevice(ctx context.Context, id string, patch store.DevicePatch) (*model.Device, error)
}

// Logger defines the logging interface used by the simulator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Simulator periodically touches a random device: last seen moves to now
// and the battery level drifts by up to five points.
type Simulator struct {
	registry Registry
	interval time.Duration
	rng      *rand.Rand
	now      func() time.Time
	logger   Logger
}

// New creates a simulator ticking at cfg.Interval.
func New(registry Registry, cfg config.SimulatorConfig, logger Logger) *Simulator {
	if logger == nil {
		logger = noopLogger{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Simulator{
		registry: registry,
		interval: interval,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Start runs the simulator in the background until ctx is done.
func (s *Simulator) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	s.logger.Info("device simulator started", "interval", s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, tickTimeout)
				if _, err := s.Tick(tickCtx); err != nil {
					s.logger.Warn("device simulator tick failed", "error", err)
				}
				cancel()
			}
		}
	}()
}

// Tick updates one random device and returns it. It returns nil when the
// registry has no devices.
func (s *Simulator) Tick(ctx context.Context) (*model.Device, error) {
	devices, err := s.registry.ListDevices(ctx, store.DeviceFilter{})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, nil
	}

	d := devices[s.rng.IntN(len(devices))]
	battery := clamp(d.Battery+s.rng.IntN(2*maxBatteryDelta+1)-maxBatteryDelta, 0, 100)
	now := s.now()

	updated, err := s.registry.UpdateDevice(ctx, d.ID, store.DevicePatch{Battery: &battery, LastSeen: &now})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("device simulated", "id", updated.ID, "battery", battery)
	return updated, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
