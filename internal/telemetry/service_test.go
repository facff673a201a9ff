package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/blob"
	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const pixelIMEI = "352099001761483"

var testCfg = config.TelemetryConfig{LowBatteryPercent: 20, CriticalBatteryPercent: 5}

type recordingWriter struct {
	mu      sync.Mutex
	devices []string
}

func (w *recordingWriter) WriteReport(deviceID string, _ Report, _ time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.devices = append(w.devices, deviceID)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.Store) {
	t.Helper()
	clock := func() time.Time { return testNow }
	reg := store.New(blob.NewMemoryStore(), store.WithClock(clock))
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewService(reg, testCfg, opts...), reg
}

func TestService_ApplyUpdatesDevice(t *testing.T) {
	ctx := context.Background()
	samples := &recordingWriter{}
	svc, reg := newTestService(t, WithSampleWriter(samples))

	dev, err := svc.Apply(ctx, Report{
		UUID:     pixelIMEI,
		Model:    "Pixel 8",
		Platform: "android",
		Version:  "15",
		Battery:  &Battery{Level: 77, IsPlugged: true},
		Location: &Position{Lat: 48.85, Lng: 2.35},
		Network:  "wifi",
	})
	require.NoError(t, err)

	assert.Equal(t, "DEV003", dev.ID)
	assert.Equal(t, "Pixel 8", dev.Model)
	assert.Equal(t, "Android", dev.OS)
	assert.Equal(t, "15", dev.OSVersion)
	assert.Equal(t, 77, dev.Battery)
	assert.Equal(t, &model.Location{Lat: 48.85, Lng: 2.35, Address: "Unknown"}, dev.Location)
	assert.Equal(t, testNow, dev.LastSeen)
	assert.Equal(t, model.DeviceStatusLocked, dev.Status, "telemetry does not touch status")

	stored, err := reg.GetDevice(ctx, "DEV003")
	require.NoError(t, err)
	assert.Equal(t, dev, stored)
	assert.Equal(t, []string{"DEV003"}, samples.devices)
}

func TestService_ApplyKeepsFieldsNotReported(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	dev, err := svc.Apply(ctx, Report{UUID: pixelIMEI})
	require.NoError(t, err)
	assert.Equal(t, "Google Pixel 7", dev.Model)
	assert.Equal(t, 15, dev.Battery)
	assert.Equal(t, "New York, NY", dev.Location.Address)
}

func TestService_ApplyAlerts(t *testing.T) {
	testCases := []struct {
		name     string
		report   Report
		expected []model.Severity
		messages []string
	}{
		{
			name:     "low battery unplugged",
			report:   Report{Battery: &Battery{Level: 15}},
			expected: []model.Severity{model.SeverityMedium},
			messages: []string{"Low battery warning"},
		},
		{
			name:   "low battery while charging",
			report: Report{Battery: &Battery{Level: 15, IsPlugged: true}},
		},
		{
			name:     "critical battery",
			report:   Report{Battery: &Battery{Level: 5, IsPlugged: true}},
			expected: []model.Severity{model.SeverityCritical},
			messages: []string{"Critical: Battery critically low"},
		},
		{
			name:     "offline",
			report:   Report{Battery: &Battery{Level: 80}, Network: "none"},
			expected: []model.Severity{model.SeverityHigh},
			messages: []string{"Device went offline"},
		},
		{
			name:     "critical and offline",
			report:   Report{Battery: &Battery{Level: 2}, Network: "NONE"},
			expected: []model.Severity{model.SeverityCritical, model.SeverityHigh},
			messages: []string{"Critical: Battery critically low", "Device went offline"},
		},
		{
			name:   "healthy",
			report: Report{Battery: &Battery{Level: 90}, Network: "4g"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc, reg := newTestService(t)

			before, err := reg.Alerts(ctx, store.AlertFilter{})
			require.NoError(t, err)

			tc.report.UUID = pixelIMEI
			_, err = svc.Apply(ctx, tc.report)
			require.NoError(t, err)

			doc, err := reg.Load(ctx)
			require.NoError(t, err)
			added := doc.Alerts[:len(doc.Alerts)-len(before)]
			require.Len(t, added, len(tc.expected))

			// Newest alert sits at the front.
			for i, a := range added {
				j := len(added) - 1 - i
				assert.Equal(t, tc.expected[j], a.Severity)
				assert.Equal(t, tc.messages[j], a.Message)
				assert.Equal(t, model.AlertTypeSecurity, a.Type)
				assert.Equal(t, "DEV003", a.DeviceID)
				assert.Equal(t, "Mike's Pixel", a.DeviceName)
			}
		})
	}
}

func TestService_ApplyRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Apply(ctx, Report{UUID: "  "})
	assert.ErrorIs(t, err, ErrInvalidReport)

	_, err = svc.Apply(ctx, Report{UUID: "no-such-device"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_HandleMessage(t *testing.T) {
	ctx := context.Background()
	svc, reg := newTestService(t)

	err := svc.HandleMessage(ctx, "mdm/telemetry/"+pixelIMEI, []byte(`{"battery":{"level":64,"isPlugged":false}}`))
	require.NoError(t, err)

	dev, err := reg.GetDevice(ctx, "DEV003")
	require.NoError(t, err)
	assert.Equal(t, 64, dev.Battery)

	err = svc.HandleMessage(ctx, "mdm/telemetry/x", []byte(`{"uuid":"352099001761481","platform":"iPhone OS"}`))
	require.NoError(t, err)
	dev, err = reg.GetDevice(ctx, "DEV001")
	require.NoError(t, err)
	assert.Equal(t, "iOS", dev.OS)

	err = svc.HandleMessage(ctx, "mdm/telemetry/x", []byte(`not json`))
	assert.Error(t, err)
}
