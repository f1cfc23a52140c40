// Package mqttbridge feeds sensor readings published over MQTT into the ingest pipeline.
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agrilink/agrilink/internal/config"
	ingestdomain "github.com/agrilink/agrilink/internal/ingest/domain"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	handleTimeout     = 10 * time.Second
	disconnectQuiesce = 250
)

var ErrMissingAPIKey = errors.New("missing_api_key")

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Ingest    ingestdomain.Service
}

// Bridge subscribes to the telemetry topic and submits each message as an ingest request.
type Bridge struct {
	cfg    config.MQTTConfig
	log    *zap.Logger
	ingest ingestdomain.Service
	client mqtt.Client
}

// New returns nil when no broker is configured.
func New(p Params) (*Bridge, error) {
	if !p.Config.MQTT.Enabled() {
		p.Log.Info("mqtt bridge disabled")
		return nil, nil
	}

	b := &Bridge{
		cfg:    p.Config.MQTT,
		log:    p.Log.Named("mqttbridge"),
		ingest: p.Ingest,
	}
	b.client = mqtt.NewClient(b.clientOptions())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			token := b.client.Connect()
			if !token.WaitTimeout(handleTimeout) {
				b.log.Warn("mqtt connect still pending, retrying in background", zap.String("broker", b.cfg.BrokerURL))
				return nil
			}
			if err := token.Error(); err != nil {
				return fmt.Errorf("connect mqtt broker: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			b.client.Disconnect(disconnectQuiesce)
			return nil
		},
	})
	return b, nil
}

func (b *Bridge) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.cfg.BrokerURL)
	opts.SetClientID(b.cfg.ClientID)
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
	}
	if b.cfg.Password != "" {
		opts.SetPassword(b.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetCleanSession(true)
	// subscriptions are dropped with a clean session, so resubscribe on every connect
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(b.cfg.Topic, b.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			b.onMessage(msg.Topic(), msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			b.log.Error("mqtt subscribe failed", zap.String("topic", b.cfg.Topic), zap.Error(token.Error()))
			return
		}
		b.log.Info("mqtt subscribed", zap.String("topic", b.cfg.Topic))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.log.Warn("mqtt connection lost", zap.Error(err))
	})
	return opts
}

func (b *Bridge) onMessage(topic string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	result, err := b.Handle(ctx, payload)
	if err != nil {
		b.log.Warn("mqtt reading rejected", zap.String("topic", topic), zap.Error(err))
		return
	}
	b.log.Debug("mqtt reading accepted", zap.String("topic", topic), zap.String("event_id", result.Event.ID.String()))
}

// Handle strips the apiKey field from payload and submits the rest as an ingest body.
func (b *Bridge) Handle(ctx context.Context, payload []byte) (*ingestdomain.Result, error) {
	apiKey, body, err := splitAPIKey(payload)
	if err != nil {
		return nil, err
	}
	return b.ingest.Submit(ctx, ingestdomain.SourceMQTT, apiKey, body)
}

func splitAPIKey(payload []byte) (string, []byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return "", nil, fmt.Errorf("decode mqtt payload: %w", err)
	}
	raw, ok := fields["apiKey"]
	if !ok {
		return "", nil, ErrMissingAPIKey
	}
	var apiKey string
	if err := json.Unmarshal(raw, &apiKey); err != nil || strings.TrimSpace(apiKey) == "" {
		return "", nil, ErrMissingAPIKey
	}
	delete(fields, "apiKey")

	body, err := json.Marshal(fields)
	if err != nil {
		return "", nil, err
	}
	return apiKey, body, nil
}
