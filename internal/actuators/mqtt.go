package actuators

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/opengrow-box/growd/internal/types"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes actuator commands to the device command bus over
// MQTT. Devices subscribe to their command topic and acknowledge out of
// band; growd does not assume a synchronous physical effect.
type MQTTPublisher struct {
	client mqtt.Client
	logger *zap.SugaredLogger
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(brokerURL, clientID string, logger *zap.SugaredLogger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", brokerURL, err)
	}

	return &MQTTPublisher{
		client: client,
		logger: logger.Named("mqtt-publisher"),
	}, nil
}

// commandPayload is the wire format devices consume.
type commandPayload struct {
	DeviceID      string   `json:"device_id"`
	Capability    string   `json:"capability"`
	Direction     string   `json:"direction"`
	Magnitude     float64  `json:"magnitude,omitempty"`
	AbsoluteValue *float64 `json:"absolute_value,omitempty"`
	IssuedAt      string   `json:"issued_at"`
}

// Publish sends one command to the device's command topic.
func (p *MQTTPublisher) Publish(ctx context.Context, cmd types.ActuatorCommand) error {
	topic := p.topicFor(cmd)
	payload, err := json.Marshal(commandPayload{
		DeviceID:      cmd.DeviceID,
		Capability:    string(cmd.Capability),
		Direction:     string(cmd.Direction),
		Magnitude:     cmd.Magnitude,
		AbsoluteValue: cmd.AbsoluteValue,
		IssuedAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding command for %s: %w", cmd.DeviceID, err)
	}

	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// topicFor derives the command topic, honoring a per-actuator override.
func (p *MQTTPublisher) topicFor(cmd types.ActuatorCommand) string {
	if cmd.Topic != "" {
		return cmd.Topic
	}
	return fmt.Sprintf("growd/%s/%s/set", cmd.Room, cmd.DeviceID)
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
