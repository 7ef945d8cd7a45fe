// Package mqttsub ingests sensor readings pushed over MQTT by room
// controllers and standalone sensor firmware.
package mqttsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/opengrow-box/growd/internal/sensors"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// wirePacket is the JSON payload sensor firmware publishes. SensorID and
// Type are mandatory; Context defaults to the source's configured context.
type wirePacket struct {
	SensorID  string   `json:"sensor_id"`
	Context   string   `json:"context,omitempty"`
	Type      string   `json:"type"`
	Value     *float64 `json:"value"`
	Timestamp string   `json:"timestamp,omitempty"` // RFC 3339, defaults to receipt time
}

// Source subscribes to one MQTT topic filter and forwards decoded readings.
type Source struct {
	ctx         context.Context
	cancel      context.CancelFunc
	wg          *sync.WaitGroup
	config      config.SensorData
	distributor chan types.SensorReading
	logger      *zap.SugaredLogger
	client      mqtt.Client
}

// NewSource creates an MQTT subscription sensor source.
func NewSource(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sourceName string, distributor chan types.SensorReading, logger *zap.SugaredLogger) sensors.SensorSource {
	sourceCtx, cancel := context.WithCancel(ctx)

	sensorConfig := sensors.LoadSourceConfig(configProvider, sourceName, logger)

	return &Source{
		ctx:         sourceCtx,
		cancel:      cancel,
		wg:          wg,
		config:      *sensorConfig,
		distributor: distributor,
		logger:      logger.Named("mqttsub").With("source", sourceName),
	}
}

// SourceName returns the name of this sensor source.
func (s *Source) SourceName() string {
	return s.config.Name
}

// StartSensorSource connects to the broker and subscribes.
func (s *Source) StartSensorSource() error {
	if s.config.Broker == "" {
		return fmt.Errorf("broker is required for an mqtt source")
	}
	topic := s.config.Topic
	if topic == "" {
		topic = fmt.Sprintf("growd/%s/sensors/#", s.config.Room)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(s.config.Broker).
		SetClientID(fmt.Sprintf("growd-%s", s.config.Name)).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			token := c.Subscribe(topic, 1, s.handleMessage)
			token.Wait()
			if err := token.Error(); err != nil {
				s.logger.Errorw("Failed to subscribe", "topic", topic, "error", err)
				return
			}
			s.logger.Infow("Subscribed to sensor topic", "topic", topic)
		})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", s.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to MQTT broker %s: %w", s.config.Broker, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-s.ctx.Done()
		s.logger.Info("Disconnecting MQTT source")
		s.client.Disconnect(250)
	}()
	return nil
}

func (s *Source) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	reading, err := s.decodePacket(msg.Payload())
	if err != nil {
		s.logger.Warnw("Dropping malformed sensor packet",
			"topic", msg.Topic(), "error", err)
		return
	}

	select {
	case s.distributor <- reading:
	case <-s.ctx.Done():
	}
}

func (s *Source) decodePacket(payload []byte) (types.SensorReading, error) {
	var pkt wirePacket
	if err := json.Unmarshal(payload, &pkt); err != nil {
		return types.SensorReading{}, fmt.Errorf("decoding packet: %w", err)
	}
	if pkt.SensorID == "" {
		return types.SensorReading{}, fmt.Errorf("packet missing sensor_id")
	}
	if pkt.Type == "" {
		return types.SensorReading{}, fmt.Errorf("packet missing type")
	}
	if pkt.Value == nil {
		return types.SensorReading{}, fmt.Errorf("packet missing value")
	}

	ts := time.Now()
	if pkt.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, pkt.Timestamp)
		if err != nil {
			return types.SensorReading{}, fmt.Errorf("parsing timestamp: %w", err)
		}
		ts = parsed
	}

	context := pkt.Context
	if context == "" {
		context = s.config.Context
	}
	if context == "" {
		context = string(types.ContextAir)
	}

	return types.SensorReading{
		SensorID:  pkt.SensorID,
		Room:      s.config.Room,
		Context:   types.SensorContext(context),
		Type:      types.MeasurementType(pkt.Type),
		RawValue:  *pkt.Value,
		Value:     *pkt.Value,
		Timestamp: ts,
	}, nil
}
