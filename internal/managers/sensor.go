// Package managers orchestrates growd's subsystems: sensor sources, room
// controllers, history storage, and API controllers.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/opengrow-box/growd/internal/log"
	"github.com/opengrow-box/growd/internal/sensors"
	"github.com/opengrow-box/growd/internal/sensors/httppoll"
	"github.com/opengrow-box/growd/internal/sensors/mqttsub"
	"github.com/opengrow-box/growd/internal/sensors/serialbridge"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// SensorManager owns all configured sensor sources and the reading
// distributor they feed.
type SensorManager struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	distributor    chan types.SensorReading
	logger         *zap.SugaredLogger
	sources        map[string]sensors.SensorSource
}

// NewSensorManager creates a SensorManager populated with all enabled sensor
// sources from configuration.
func NewSensorManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.SensorReading, logger *zap.SugaredLogger) (*SensorManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	sm := &SensorManager{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		distributor:    distributor,
		logger:         logger,
		sources:        make(map[string]sensors.SensorSource),
	}

	for _, sensorConfig := range cfgData.Sensors {
		if !sensorConfig.Enabled {
			logger.Infof("Skipping disabled sensor source [%s]", sensorConfig.Name)
			continue
		}
		source, err := createSourceFromConfig(ctx, wg, configProvider, sensorConfig, distributor, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating sensor source [%s]: %w", sensorConfig.Name, err)
		}
		sm.sources[sensorConfig.Name] = source
	}

	return sm, nil
}

// StartSensorSources starts every configured source.
func (sm *SensorManager) StartSensorSources() error {
	for name, source := range sm.sources {
		sm.logger.Infof("Starting sensor source [%v]...", name)
		if err := source.StartSensorSource(); err != nil {
			return fmt.Errorf("failed to start sensor source [%s]: %w", name, err)
		}
	}
	return nil
}

// createSourceFromConfig creates the appropriate source backend for a sensor
// configuration entry.
func createSourceFromConfig(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sensorConfig config.SensorData, distributor chan types.SensorReading, logger *zap.SugaredLogger) (sensors.SensorSource, error) {
	switch sensorConfig.Type {
	case "httppoll":
		log.Infof("Initializing HTTP polling source [%v]", sensorConfig.Name)
		return httppoll.NewSource(ctx, wg, configProvider, sensorConfig.Name, distributor, logger), nil
	case "mqtt":
		log.Infof("Initializing MQTT source [%v]", sensorConfig.Name)
		return mqttsub.NewSource(ctx, wg, configProvider, sensorConfig.Name, distributor, logger), nil
	case "serial":
		log.Infof("Initializing serial bridge source [%v]", sensorConfig.Name)
		return serialbridge.NewSource(ctx, wg, configProvider, sensorConfig.Name, distributor, logger), nil
	default:
		return nil, fmt.Errorf("unknown sensor source type: %s", sensorConfig.Type)
	}
}
