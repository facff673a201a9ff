package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-registry-backend/config"
)

func TestBuildClientOptions(t *testing.T) {
	testCases := []struct {
		name     string
		cfg      config.MQTTConfig
		expected string
	}{
		{
			name:     "plain tcp",
			cfg:      config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "broker", Port: 1883, ClientID: "mdmd-1"}},
			expected: "tcp://broker:1883",
		},
		{
			name:     "tls",
			cfg:      config.MQTTConfig{Broker: config.MQTTBrokerConfig{Host: "broker", Port: 8883, TLS: true, ClientID: "mdmd-1"}},
			expected: "ssl://broker:8883",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := buildClientOptions(tc.cfg)
			require.Len(t, opts.Servers, 1)
			assert.Equal(t, tc.expected, opts.Servers[0].String())
			assert.Equal(t, "mdmd-1", opts.ClientID)
			assert.True(t, opts.AutoReconnect)
		})
	}
}

func TestBuildClientOptions_Auth(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{Host: "broker", Port: 1883},
		Auth:   config.MQTTAuthConfig{Username: "mdm", Password: "pw"},
	})
	assert.Equal(t, "mdm", opts.Username)
	assert.Equal(t, "pw", opts.Password)
}

func TestClientID(t *testing.T) {
	assert.Equal(t, "fixed", clientID("fixed"))

	generated := clientID("")
	assert.True(t, strings.HasPrefix(generated, "mdmd-"))
	assert.Len(t, generated, len("mdmd-")+8)
	assert.NotEqual(t, generated, clientID(""))
}
