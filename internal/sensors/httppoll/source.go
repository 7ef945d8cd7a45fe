// Package httppoll polls LAN sensor nodes that expose their current
// measurements over a JSON HTTP endpoint.
package httppoll

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/sensors"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 60 * time.Second
	minPollInterval     = 10 * time.Second
)

// nodeResponse is the JSON document a grow-room sensor node serves at
// /measures/current. Pointer fields distinguish "absent" from zero.
type nodeResponse struct {
	Temperature  *float64 `json:"temperature"`   // °C
	Humidity     *float64 `json:"humidity"`      // %RH
	CO2          *float64 `json:"co2"`           // ppm
	PPFD         *float64 `json:"ppfd"`          // µmol/m²/s
	Lux          *float64 `json:"lux"`
	SoilMoisture *float64 `json:"soil_moisture"` // %
}

// Source polls one sensor node.
type Source struct {
	ctx          context.Context
	cancel       context.CancelFunc
	wg           *sync.WaitGroup
	config       config.SensorData
	distributor  chan types.SensorReading
	logger       *zap.SugaredLogger
	client       *http.Client
	pollInterval time.Duration
}

// NewSource creates an HTTP polling sensor source.
func NewSource(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sourceName string, distributor chan types.SensorReading, logger *zap.SugaredLogger) sensors.SensorSource {
	sourceCtx, cancel := context.WithCancel(ctx)

	sensorConfig := sensors.LoadSourceConfig(configProvider, sourceName, logger)
	if sensorConfig.Port == "" {
		sensorConfig.Port = "80"
	}

	pollInterval := defaultPollInterval
	if sensorConfig.PollInterval > 0 {
		pollInterval = time.Duration(sensorConfig.PollInterval) * time.Second
		if pollInterval < minPollInterval {
			pollInterval = minPollInterval
		}
	}

	return &Source{
		ctx:          sourceCtx,
		cancel:       cancel,
		wg:           wg,
		config:       *sensorConfig,
		distributor:  distributor,
		logger:       logger.Named("httppoll").With("source", sourceName),
		client:       &http.Client{Timeout: 10 * time.Second},
		pollInterval: pollInterval,
	}
}

// SourceName returns the name of this sensor source.
func (s *Source) SourceName() string {
	return s.config.Name
}

// StartSensorSource starts polling the sensor node.
func (s *Source) StartSensorSource() error {
	if s.config.Hostname == "" {
		return fmt.Errorf("hostname is required for an httppoll source")
	}

	s.logger.Infow("Starting HTTP polling source",
		"hostname", s.config.Hostname,
		"port", s.config.Port,
		"interval", s.pollInterval)

	s.wg.Add(1)
	go s.pollLoop()
	return nil
}

func (s *Source) pollLoop() {
	defer s.wg.Done()

	s.pollNode()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Poll loop stopped")
			return
		case <-ticker.C:
			s.pollNode()
		}
	}
}

func (s *Source) pollNode() {
	url := fmt.Sprintf("http://%s:%s/measures/current", s.config.Hostname, s.config.Port)

	resp, err := s.client.Get(url)
	if err != nil {
		s.logger.Errorw("Failed to fetch sensor node data", "error", err, "url", url)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Errorw("Unexpected status code from sensor node",
			"status", resp.StatusCode, "url", url)
		return
	}

	var data nodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		s.logger.Errorw("Failed to decode sensor node response", "error", err)
		return
	}

	for _, reading := range s.convertToReadings(data) {
		select {
		case s.distributor <- reading:
		case <-s.ctx.Done():
			return
		}
	}
}

// convertToReadings expands the node document into one reading per present
// measurement. Absent fields produce no reading; they never become zeros.
func (s *Source) convertToReadings(data nodeResponse) []types.SensorReading {
	now := time.Now()
	context := types.SensorContext(s.config.Context)
	if context == "" {
		context = types.ContextAir
	}

	mk := func(mt types.MeasurementType, ctx types.SensorContext, v float64) types.SensorReading {
		return types.SensorReading{
			SensorID:  fmt.Sprintf("%s.%s", s.config.Name, mt),
			Room:      s.config.Room,
			Context:   ctx,
			Type:      mt,
			RawValue:  v,
			Value:     v,
			Timestamp: now,
		}
	}

	var out []types.SensorReading
	if data.Temperature != nil {
		out = append(out, mk(types.MeasureTemperature, context, *data.Temperature))
	}
	if data.Humidity != nil {
		out = append(out, mk(types.MeasureHumidity, context, *data.Humidity))
	}
	if data.CO2 != nil {
		out = append(out, mk(types.MeasureCO2, context, *data.CO2))
	}
	if data.PPFD != nil {
		out = append(out, mk(types.MeasurePPFD, types.ContextLight, *data.PPFD))
	}
	if data.Lux != nil {
		out = append(out, mk(types.MeasureLux, types.ContextLight, *data.Lux))
	}
	if data.SoilMoisture != nil {
		out = append(out, mk(types.MeasureMoisture, types.ContextSoil, *data.SoilMoisture))
	}
	return out
}
