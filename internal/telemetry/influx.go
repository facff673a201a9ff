package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"mdm-registry-backend/config"
)

const (
	influxConnectTimeout = 10 * time.Second

	measurementBattery  = "device_battery"
	measurementLocation = "device_location"
	measurementNetwork  = "device_network"
)

// ErrInfluxDisabled is returned by ConnectInflux when the sink is turned off.
var ErrInfluxDisabled = errors.New("telemetry: influxdb is disabled")

// InfluxWriter records applied reports as InfluxDB points. Writes are
// batched and non-blocking.
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   Logger
}

// ConnectInflux opens the InfluxDB client and verifies the server is healthy.
func ConnectInflux(cfg config.InfluxDBConfig, logger Logger) (*InfluxWriter, error) {
	if !cfg.Enabled {
		return nil, ErrInfluxDisabled
	}
	if logger == nil {
		logger = noopLogger{}
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), influxConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb server not healthy")
	}

	w := &InfluxWriter{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger:   logger,
	}
	go w.drainErrors(w.writeAPI.Errors())
	return w, nil
}

func (w *InfluxWriter) drainErrors(errs <-chan error) {
	for err := range errs {
		w.logger.Warn("influxdb write failed", "error", err)
	}
}

// WriteReport queues the points derived from r.
func (w *InfluxWriter) WriteReport(deviceID string, r Report, at time.Time) {
	for _, p := range reportPoints(deviceID, r, at) {
		w.writeAPI.WritePoint(p)
	}
}

// Close flushes pending writes and closes the client.
func (w *InfluxWriter) Close() {
	w.writeAPI.Flush()
	w.client.Close()
}

func reportPoints(deviceID string, r Report, at time.Time) []*write.Point {
	tags := map[string]string{"device_id": deviceID}
	var points []*write.Point

	if r.Battery != nil {
		points = append(points, write.NewPoint(measurementBattery, tags, map[string]interface{}{
			"level":   int64(r.Battery.Level),
			"plugged": r.Battery.IsPlugged,
		}, at))
	}
	if r.Location != nil {
		points = append(points, write.NewPoint(measurementLocation, tags, map[string]interface{}{
			"lat": r.Location.Lat,
			"lng": r.Location.Lng,
		}, at))
	}
	if r.Network != "" {
		points = append(points, write.NewPoint(measurementNetwork, tags, map[string]interface{}{
			"type":   r.Network,
			"online": !r.Offline(),
		}, at))
	}
	return points
}
