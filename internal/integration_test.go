package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/api"
	"mdm-registry-backend/internal/blob"
	"mdm-registry-backend/internal/db"
	"mdm-registry-backend/internal/model"
	"mdm-registry-backend/internal/store"
	"mdm-registry-backend/internal/telemetry"
)

// TestTelemetryLifecycle feeds a report through the upstream poller into a
// sqlite-backed registry and verifies the result over HTTP and after a
// restart.
func TestTelemetryLifecycle(t *testing.T) {
	dbCfg := &config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "mdm.db")}
	gormDB, err := db.Init(dbCfg, "error")
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	var (
		mu     sync.Mutex
		raised []model.Alert
	)
	registry := store.New(blob.NewGormStore(gormDB), store.WithAlertHook(func(a model.Alert) {
		mu.Lock()
		defer mu.Unlock()
		raised = append(raised, a)
	}))

	svc := telemetry.NewService(registry, config.TelemetryConfig{LowBatteryPercent: 20, CriticalBatteryPercent: 5})

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Page int `json:"page"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		items := []map[string]any{}
		if req.Page == 1 {
			items = append(items,
				map[string]any{"uuid": "352099001761483", "battery": map[string]any{"level": 3}, "network": "none"},
				map[string]any{"uuid": "not-enrolled", "battery": map[string]any{"level": 50}},
			)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"page": req.Page, "pageSize": 10, "total": 2, "items": items},
		})
	}))
	defer upstream.Close()

	poller := telemetry.NewPoller(config.TelemetryPollConfig{Enabled: true, URL: upstream.URL, PageSize: 10}, svc, nil)
	applied := poller.PollOnce(context.Background())
	assert.Equal(t, 1, applied)

	router := api.NewRouter(api.NewHandler(registry, svc, nil, nil, nil), api.RouterDeps{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/devices/DEV003", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var device model.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &device))
	assert.Equal(t, 3, device.Battery)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/alerts?severity=critical", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []model.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 2)
	assert.Equal(t, "Critical: Battery critically low", alerts[0].Message)
	assert.Equal(t, "DEV003", alerts[0].DeviceID)

	mu.Lock()
	assert.Len(t, raised, 2, "critical battery and offline alerts reach the hook")
	mu.Unlock()

	// A fresh store over the same database sees the persisted state.
	reopened := store.New(blob.NewGormStore(gormDB))
	stats, err := reopened.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDevices)
	assert.Equal(t, 5, stats.UnacknowledgedAlertCount)

	got, err := reopened.GetDevice(context.Background(), "DEV003")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Battery)
	assert.WithinDuration(t, time.Now(), got.LastSeen, time.Minute)
}
