package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	mqttQoS     = 1
	mqttTimeout = 10 * time.Second
)

// Bridge mirrors local changes to MQTT and forwards changes published by
// other instances to a local publisher.
type Bridge struct {
	client mqtt.Client
	prefix string
	origin string
	local  Publisher
}

// ChangeTopic returns the topic changes of table are published on.
func ChangeTopic(prefix, table string) string {
	return strings.TrimSuffix(prefix, "/") + "/changes/" + table
}

// NewBridge builds a bridge over client. Call Start to subscribe.
func NewBridge(client mqtt.Client, prefix string, local Publisher) *Bridge {
	if local == nil {
		local = Discard
	}
	return &Bridge{client: client, prefix: prefix, origin: uuid.NewString(), local: local}
}

// DialBridge connects to broker and returns a bridge that (re)subscribes on
// every connect.
func DialBridge(broker, prefix string, local Publisher) (*Bridge, error) {
	b := NewBridge(nil, prefix, local)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleetdash-" + b.origin[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout).
		SetOnConnectHandler(func(mqtt.Client) {
			if err := b.subscribe(); err != nil {
				log.WithError(err).Error("mqtt: subscribe failed")
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("mqtt: connection lost")
		})
	b.client = mqtt.NewClient(opts)

	tok := b.client.Connect()
	if !tok.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	log.WithFields(log.Fields{"broker": broker, "prefix": prefix}).Info("mqtt bridge connected")
	return b, nil
}

// Start subscribes to the change topics of every table.
func (b *Bridge) Start() error {
	return b.subscribe()
}

func (b *Bridge) subscribe() error {
	topic := ChangeTopic(b.prefix, "#")
	tok := b.client.Subscribe(topic, mqttQoS, func(_ mqtt.Client, msg mqtt.Message) {
		b.handle(msg.Payload())
	})
	if !tok.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt subscribe %s: timeout", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	return nil
}

// Publish sends c to the broker stamped with this bridge's origin. Changes
// that came from another instance are not sent back.
func (b *Bridge) Publish(c Change) {
	if c.Origin != "" && c.Origin != b.origin {
		return
	}
	c.Origin = b.origin
	payload, err := json.Marshal(c)
	if err != nil {
		log.WithError(err).Error("mqtt: marshal change")
		return
	}
	tok := b.client.Publish(ChangeTopic(b.prefix, c.Table), mqttQoS, false, payload)
	go func() {
		if tok.WaitTimeout(mqttTimeout) && tok.Error() != nil {
			log.WithError(tok.Error()).WithField("table", c.Table).Warn("mqtt: publish failed")
		}
	}()
}

func (b *Bridge) handle(payload []byte) {
	var c Change
	if err := json.Unmarshal(payload, &c); err != nil {
		log.WithError(err).Warn("mqtt: dropping malformed change")
		return
	}
	if c.Origin == b.origin || c.Table == "" {
		return
	}
	b.local.Publish(c)
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(250)
}
