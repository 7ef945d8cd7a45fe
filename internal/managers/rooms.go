package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/opengrow-box/growd/internal/actuators"
	"github.com/opengrow-box/growd/internal/calibration"
	"github.com/opengrow-box/growd/internal/events"
	"github.com/opengrow-box/growd/internal/room"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// RoomManager owns the per-room controllers, the shared command dispatcher,
// and the event emitter. It routes readings from the sensor distributor to
// the controller of the reading's room.
type RoomManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	logger      *zap.SugaredLogger
	distributor chan types.SensorReading
	health      chan types.DeviceHealthEvent

	emitter    *events.Emitter
	recent     *events.MemorySink
	dispatcher *actuators.Dispatcher
	publisher  actuators.CommandPublisher

	mu          sync.RWMutex
	controllers map[string]*room.Controller
}

// logPublisher stands in for the command bus when no broker is configured:
// commands are logged instead of sent, so a bench setup without devices
// still exercises the full control path.
type logPublisher struct {
	logger *zap.SugaredLogger
}

func (p *logPublisher) Publish(_ context.Context, cmd types.ActuatorCommand) error {
	p.logger.Infow("Command (no command bus configured)",
		"device", cmd.DeviceID,
		"capability", cmd.Capability,
		"direction", cmd.Direction,
		"magnitude", cmd.Magnitude)
	return nil
}

// NewRoomManager creates controllers for all enabled rooms and wires the
// shared dispatch and event infrastructure.
func NewRoomManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, distributor chan types.SensorReading, snapshots chan<- types.RoomSnapshot, logger *zap.SugaredLogger) (*RoomManager, error) {
	cfgData, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	rm := &RoomManager{
		ctx:         ctx,
		wg:          wg,
		logger:      logger,
		distributor: distributor,
		health:      make(chan types.DeviceHealthEvent, 16),
		controllers: make(map[string]*room.Controller),
	}

	// Event sinks: the log sink is always on, the memory sink backs the
	// REST recent-events endpoint, Kafka is optional.
	rm.recent = events.NewMemorySink(0)
	sinks := []events.Sink{events.NewLogSink(logger), rm.recent}
	if cfgData.Events.Kafka != nil {
		kafkaSink, err := events.NewKafkaSink(*cfgData.Events.Kafka)
		if err != nil {
			return nil, fmt.Errorf("could not create kafka event sink: %w", err)
		}
		logger.Infow("Kafka event sink enabled", "topic", cfgData.Events.Kafka.Topic)
		sinks = append(sinks, kafkaSink)
	}
	rm.emitter = events.NewEmitter(logger, sinks...)

	if cfgData.CommandBus.Broker != "" {
		clientID := cfgData.CommandBus.ClientID
		if clientID == "" {
			clientID = "growd-dispatcher"
		}
		publisher, err := actuators.NewMQTTPublisher(cfgData.CommandBus.Broker, clientID, logger)
		if err != nil {
			return nil, fmt.Errorf("could not connect to command bus: %w", err)
		}
		rm.publisher = publisher
	} else {
		logger.Warn("No command bus configured, actuator commands will only be logged")
		rm.publisher = &logPublisher{logger: logger.Named("dry-run")}
	}

	rm.dispatcher, err = actuators.NewDispatcher(rm.publisher, rm.health, logger)
	if err != nil {
		return nil, err
	}

	cal, err := calibration.NewStoreFromConfig(configProvider)
	if err != nil {
		return nil, fmt.Errorf("could not load calibration profiles: %w", err)
	}

	for _, roomConfig := range cfgData.Rooms {
		if !roomConfig.Enabled {
			logger.Infof("Skipping disabled room [%s]", roomConfig.Name)
			continue
		}
		actuatorConfigs, err := configProvider.GetActuators(roomConfig.Name)
		if err != nil {
			return nil, fmt.Errorf("could not load actuators for room %s: %w", roomConfig.Name, err)
		}
		var devices []actuators.Actuator
		for _, ac := range actuatorConfigs {
			if !ac.Enabled {
				continue
			}
			devices = append(devices, actuators.FromConfig(ac))
		}

		controller, err := room.NewController(roomConfig, devices, cal, rm.dispatcher, rm.emitter,
			[]chan<- types.RoomSnapshot{snapshots}, logger)
		if err != nil {
			return nil, fmt.Errorf("error creating room controller [%s]: %w", roomConfig.Name, err)
		}
		rm.controllers[roomConfig.Name] = controller
	}

	return rm, nil
}

// StartRooms launches every room controller, the reading router, and the
// device-health forwarder.
func (rm *RoomManager) StartRooms() error {
	for name, controller := range rm.controllers {
		rm.logger.Infof("Starting room controller [%v]...", name)
		controller.Start(rm.ctx, rm.wg)
	}

	rm.wg.Add(2)
	go rm.routeReadings()
	go rm.forwardHealthEvents()
	return nil
}

// routeReadings moves readings from the sensor distributor to the controller
// of the reading's room.
func (rm *RoomManager) routeReadings() {
	defer rm.wg.Done()
	for {
		select {
		case <-rm.ctx.Done():
			return
		case r := <-rm.distributor:
			controller := rm.GetController(r.Room)
			if controller == nil {
				rm.logger.Debugw("Dropping reading for unknown room",
					"room", r.Room, "sensor", r.SensorID)
				continue
			}
			select {
			case controller.ReadingChannel() <- r:
			case <-rm.ctx.Done():
				return
			}
		}
	}
}

// forwardHealthEvents relays dispatch-failure escalations to the event sinks.
func (rm *RoomManager) forwardHealthEvents() {
	defer rm.wg.Done()
	for {
		select {
		case <-rm.ctx.Done():
			return
		case event := <-rm.health:
			rm.emitter.EmitDeviceHealth(rm.ctx, event)
		}
	}
}

// GetController returns the controller for a room, or nil.
func (rm *RoomManager) GetController(name string) *room.Controller {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.controllers[name]
}

// Controllers returns all room controllers.
func (rm *RoomManager) Controllers() []*room.Controller {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]*room.Controller, 0, len(rm.controllers))
	for _, c := range rm.controllers {
		out = append(out, c)
	}
	return out
}

// RecentEvents exposes the in-memory event ring for the REST API.
func (rm *RoomManager) RecentEvents() *events.MemorySink {
	return rm.recent
}

// Close shuts down the dispatcher and event sinks after the control loops
// have stopped.
func (rm *RoomManager) Close() {
	rm.dispatcher.Close()
	if p, ok := rm.publisher.(*actuators.MQTTPublisher); ok {
		p.Close()
	}
	rm.emitter.Close()
}
