// Package app wires growd's managers together and runs the daemon
// lifecycle.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/opengrow-box/growd/internal/log"
	"github.com/opengrow-box/growd/internal/managers"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application.
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance.
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// History storage first: rooms push snapshots into its distributor.
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.configProvider)
	if err != nil {
		return err
	}

	// Room controllers consume readings and drive actuators.
	distributor := make(chan types.SensorReading, 64)
	roomManager, err := managers.NewRoomManager(ctx, &wg, a.configProvider, distributor,
		storageManager.SnapshotDistributor, a.logger)
	if err != nil {
		return err
	}
	if err := roomManager.StartRooms(); err != nil {
		return err
	}

	// Sensor sources feed the distributor.
	sensorManager, err := managers.NewSensorManager(ctx, &wg, a.configProvider, distributor, a.logger)
	if err != nil {
		return err
	}
	if err := sensorManager.StartSensorSources(); err != nil {
		return err
	}

	// API controllers.
	controllerManager, err := managers.NewControllerManager(ctx, &wg, a.configProvider, roomManager, a.logger)
	if err != nil {
		return err
	}
	if err := controllerManager.StartControllers(); err != nil {
		return err
	}

	log.Info("growd started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	roomManager.Close()
	log.Info("shutdown complete")

	return nil
}
