package sensors

import (
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// LoadSourceConfig loads configuration for a specific sensor source.
func LoadSourceConfig(configProvider config.ConfigProvider, sourceName string, logger *zap.SugaredLogger) *config.SensorData {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		logger.Fatalf("Source [%s] failed to load config: %v", sourceName, err)
	}

	for _, sensor := range cfgData.Sensors {
		if sensor.Name == sourceName {
			return &sensor
		}
	}

	logger.Fatalf("Source [%s] not found in configuration", sourceName)
	return nil
}
