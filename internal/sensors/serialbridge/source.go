// Package serialbridge reads newline-delimited JSON sensor packets from a
// microcontroller bridge attached over serial or reachable over TCP.
package serialbridge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/sensors"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

const reconnectDelay = 5 * time.Second

// bridgePacket is one line emitted by the bridge firmware. Pointer fields
// distinguish absent measurements from zeros.
type bridgePacket struct {
	Temperature  *float64 `json:"temp_c,omitempty"`
	Humidity     *float64 `json:"rh,omitempty"`
	CO2          *float64 `json:"co2_ppm,omitempty"`
	PPFD         *float64 `json:"ppfd,omitempty"`
	SoilMoisture *float64 `json:"soil_pct,omitempty"`
	PH           *float64 `json:"ph,omitempty"`
	EC           *float64 `json:"ec,omitempty"`
}

// Source reads packets from one bridge.
type Source struct {
	ctx         context.Context
	cancel      context.CancelFunc
	wg          *sync.WaitGroup
	config      config.SensorData
	distributor chan types.SensorReading
	logger      *zap.SugaredLogger

	rwc          io.ReadWriteCloser
	connecting   bool
	connectingMu sync.Mutex
}

// NewSource creates a serial/TCP bridge sensor source.
func NewSource(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sourceName string, distributor chan types.SensorReading, logger *zap.SugaredLogger) sensors.SensorSource {
	sourceCtx, cancel := context.WithCancel(ctx)

	sensorConfig := sensors.LoadSourceConfig(configProvider, sourceName, logger)

	return &Source{
		ctx:         sourceCtx,
		cancel:      cancel,
		wg:          wg,
		config:      *sensorConfig,
		distributor: distributor,
		logger:      logger.Named("serialbridge").With("source", sourceName),
	}
}

// SourceName returns the name of this sensor source.
func (s *Source) SourceName() string {
	return s.config.Name
}

// StartSensorSource connects to the bridge and starts the read loop.
func (s *Source) StartSensorSource() error {
	if s.config.SerialDevice == "" && (s.config.Hostname == "" || s.config.Port == "") {
		return fmt.Errorf("source [%s] must define either a serial device or hostname+port", s.config.Name)
	}

	s.wg.Add(1)
	go s.readLoop()
	return nil
}

// connect opens the serial port or TCP session, retrying until it succeeds
// or the context is cancelled.
func (s *Source) connect() bool {
	s.connectingMu.Lock()
	if s.connecting {
		s.connectingMu.Unlock()
		return false
	}
	s.connecting = true
	s.connectingMu.Unlock()

	defer func() {
		s.connectingMu.Lock()
		s.connecting = false
		s.connectingMu.Unlock()
	}()

	for {
		if s.ctx.Err() != nil {
			return false
		}

		var err error
		if s.config.SerialDevice != "" {
			baud := s.config.Baud
			if baud == 0 {
				baud = 115200
			}
			s.logger.Infow("Connecting to serial bridge",
				"device", s.config.SerialDevice, "baud", baud)
			s.rwc, err = serial.OpenPort(&serial.Config{
				Name: s.config.SerialDevice,
				Baud: baud,
			})
		} else {
			console := net.JoinHostPort(s.config.Hostname, s.config.Port)
			s.logger.Infow("Connecting to network bridge", "address", console)
			var conn net.Conn
			conn, err = net.DialTimeout("tcp", console, 10*time.Second)
			s.rwc = conn
		}

		if err == nil {
			s.logger.Info("Bridge connected")
			return true
		}

		s.logger.Errorw("Bridge connection failed, retrying",
			"error", err, "retry_in", reconnectDelay)
		select {
		case <-s.ctx.Done():
			return false
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Source) readLoop() {
	defer s.wg.Done()
	defer func() {
		if s.rwc != nil {
			s.rwc.Close()
		}
	}()

	if !s.connect() {
		return
	}

	scanner := bufio.NewScanner(s.rwc)
	for {
		if s.ctx.Err() != nil {
			s.logger.Info("Read loop stopped")
			return
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				s.logger.Errorw("Bridge read error", "error", err)
			}
			s.logger.Info("Bridge disconnected, attempting to reconnect")
			if s.rwc != nil {
				s.rwc.Close()
			}
			if !s.connect() {
				return
			}
			scanner = bufio.NewScanner(s.rwc)
			continue
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var pkt bridgePacket
		if err := json.Unmarshal(line, &pkt); err != nil {
			s.logger.Warnw("Dropping malformed bridge packet", "error", err)
			continue
		}
		for _, reading := range s.convertToReadings(pkt) {
			select {
			case s.distributor <- reading:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func (s *Source) convertToReadings(pkt bridgePacket) []types.SensorReading {
	now := time.Now()
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
	if pkt.Temperature != nil {
		out = append(out, mk(types.MeasureTemperature, types.ContextAir, *pkt.Temperature))
	}
	if pkt.Humidity != nil {
		out = append(out, mk(types.MeasureHumidity, types.ContextAir, *pkt.Humidity))
	}
	if pkt.CO2 != nil {
		out = append(out, mk(types.MeasureCO2, types.ContextAir, *pkt.CO2))
	}
	if pkt.PPFD != nil {
		out = append(out, mk(types.MeasurePPFD, types.ContextLight, *pkt.PPFD))
	}
	if pkt.SoilMoisture != nil {
		out = append(out, mk(types.MeasureMoisture, types.ContextSoil, *pkt.SoilMoisture))
	}
	if pkt.PH != nil {
		out = append(out, mk(types.MeasurePH, types.ContextWater, *pkt.PH))
	}
	if pkt.EC != nil {
		out = append(out, mk(types.MeasureEC, types.ContextWater, *pkt.EC))
	}
	return out
}
