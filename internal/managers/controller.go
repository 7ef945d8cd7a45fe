package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/opengrow-box/growd/internal/controllers/restserver"
	"github.com/opengrow-box/growd/internal/storage/timescaledb"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager starts the configured API controller backends.
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for controller
// backends.
type Controller interface {
	StartController() error
}

// NewControllerManager creates a controller manager from configuration.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, rooms *RoomManager, logger *zap.SugaredLogger) (ControllerManager, error) {
	controllerConfigs, err := configProvider.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("error loading controller configuration: %w", err)
	}

	cm := &controllerManager{
		logger:      logger,
		controllers: make([]Controller, 0, len(controllerConfigs)),
	}

	// The REST history endpoint reads the same TimescaleDB the storage
	// engine writes; open a read handle only when one is configured.
	var history *timescaledb.Storage
	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %w", err)
	}
	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		history, err = timescaledb.New(ctx, storageConfig.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("REST server could not connect to history storage: %w", err)
		}
	}

	for _, cc := range controllerConfigs {
		switch cc.Type {
		case "restserver", "rest":
			if cc.RESTServer == nil {
				return nil, fmt.Errorf("rest controller has no configuration")
			}
			controller, err := restserver.NewController(ctx, wg, *cc.RESTServer, rooms, history, logger)
			if err != nil {
				return nil, fmt.Errorf("error creating rest controller: %w", err)
			}
			cm.controllers = append(cm.controllers, controller)
		default:
			return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
		}
	}

	return cm, nil
}

type controllerManager struct {
	logger      *zap.SugaredLogger
	controllers []Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")
	for _, controller := range c.controllers {
		if err := controller.StartController(); err != nil {
			return fmt.Errorf("error starting controller: %w", err)
		}
	}
	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}
