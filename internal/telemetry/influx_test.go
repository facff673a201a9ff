package telemetry

import (
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-registry-backend/config"
)

func fieldsOf(p *write.Point) map[string]interface{} {
	out := map[string]interface{}{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagsOf(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, tag := range p.TagList() {
		out[tag.Key] = tag.Value
	}
	return out
}

func TestReportPoints(t *testing.T) {
	at := time.Unix(1700000000, 0)

	points := reportPoints("DEV001", Report{
		UUID:     "x",
		Battery:  &Battery{Level: 42},
		Location: &Position{Lat: 1.5, Lng: -2.25},
		Network:  "none",
	}, at)
	require.Len(t, points, 3)

	assert.Equal(t, "device_battery", points[0].Name())
	assert.Equal(t, map[string]string{"device_id": "DEV001"}, tagsOf(points[0]))
	assert.Equal(t, map[string]interface{}{"level": int64(42), "plugged": false}, fieldsOf(points[0]))
	assert.True(t, at.Equal(points[0].Time()))

	assert.Equal(t, "device_location", points[1].Name())
	assert.Equal(t, map[string]interface{}{"lat": 1.5, "lng": -2.25}, fieldsOf(points[1]))

	assert.Equal(t, "device_network", points[2].Name())
	assert.Equal(t, map[string]interface{}{"type": "none", "online": false}, fieldsOf(points[2]))
}

func TestReportPoints_Empty(t *testing.T) {
	assert.Empty(t, reportPoints("DEV001", Report{UUID: "x"}, time.Now()))
}

func TestConnectInflux_Disabled(t *testing.T) {
	_, err := ConnectInflux(config.InfluxDBConfig{Enabled: false}, nil)
	assert.ErrorIs(t, err, ErrInfluxDisabled)
}
