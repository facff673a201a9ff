package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"mdm-registry-backend/config"
)

const (
	mqttConnectTimeout    = 10 * time.Second
	mqttSubscribeTimeout  = 5 * time.Second
	mqttKeepAlive         = 60 * time.Second
	mqttDisconnectQuiesce = 1000 // milliseconds
)

// MessageHandler is called for every report received on the telemetry topic.
type MessageHandler func(ctx context.Context, topic string, payload []byte) error

// MQTTSource subscribes to the telemetry topic of an MQTT broker.
type MQTTSource struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	logger Logger
}

// ConnectMQTT connects to the broker and subscribes handler to the
// configured topic. Subscriptions are restored on reconnect.
func ConnectMQTT(ctx context.Context, cfg config.MQTTConfig, handler MessageHandler, logger Logger) (*MQTTSource, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	m := &MQTTSource{cfg: cfg, logger: logger}

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		token := c.Subscribe(cfg.Topic, byte(cfg.QoS), m.wrap(ctx, handler))
		if !token.WaitTimeout(mqttSubscribeTimeout) {
			logger.Error("mqtt subscribe timed out", "topic", cfg.Topic)
			return
		}
		if err := token.Error(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.Topic, "error", err)
			return
		}
		logger.Info("mqtt subscribed", "topic", cfg.Topic)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	m.client = pahomqtt.NewClient(opts)
	token := m.client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		m.client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect: timeout after %v", mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return m, nil
}

// Close disconnects from the broker.
func (m *MQTTSource) Close() {
	if m.client == nil {
		return
	}
	m.client.Unsubscribe(m.cfg.Topic).WaitTimeout(mqttSubscribeTimeout)
	m.client.Disconnect(mqttDisconnectQuiesce)
}

func (m *MQTTSource) wrap(ctx context.Context, handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		if err := handler(ctx, msg.Topic(), msg.Payload()); err != nil {
			m.logger.Warn("mqtt report rejected", "topic", msg.Topic(), "error", err)
		}
	}
}

func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(clientID(cfg.Broker.ClientID))

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetKeepAlive(mqttKeepAlive)
	return opts
}

// clientID returns the configured id, or a unique one so that several
// instances can share a broker.
func clientID(configured string) string {
	if configured != "" {
		return configured
	}
	return "mdmd-" + uuid.NewString()[:8]
}
