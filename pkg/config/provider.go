// Package config defines growd's configuration model and its providers.
// Configuration can come from a YAML file (read-only) or a SQLite database
// (read-write, used by the growctl calibration and stage workflows).
package config

import "time"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetRooms() ([]RoomData, error)
	GetRoom(name string) (*RoomData, error)
	GetSensors() ([]SensorData, error)
	GetActuators(room string) ([]ActuatorData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)

	// Calibration profiles are the one section the calibration workflow
	// writes back. Read-only providers reject the write.
	GetCalibrations() ([]CalibrationData, error)
	UpsertCalibration(cal CalibrationData) error

	// Room settings mutated by growctl (mode/stage changes)
	UpdateRoom(room RoomData) error

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Rooms        []RoomData        `json:"rooms" yaml:"rooms"`
	Sensors      []SensorData      `json:"sensors,omitempty" yaml:"sensors,omitempty"`
	Actuators    []ActuatorData    `json:"actuators,omitempty" yaml:"actuators,omitempty"`
	Calibrations []CalibrationData `json:"calibrations,omitempty" yaml:"calibrations,omitempty"`
	CommandBus   CommandBusData    `json:"command_bus,omitempty" yaml:"command_bus,omitempty"`
	Storage      StorageData       `json:"storage,omitempty" yaml:"storage,omitempty"`
	Controllers  []ControllerData  `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Events       EventsData        `json:"events,omitempty" yaml:"events,omitempty"`
}

// RoomData holds the per-room grow configuration. Rooms are fully
// independent; nothing in here is shared between rooms.
type RoomData struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`

	PlantType string `json:"plant_type,omitempty" yaml:"plant_type,omitempty"`
	Phase     string `json:"phase,omitempty" yaml:"phase,omitempty"` // photoperiod or autoflower

	// Reference dates for stage resolution and drying day index,
	// RFC 3339 date format (2026-03-01).
	GrowStart   string `json:"grow_start,omitempty" yaml:"grow_start,omitempty"`
	BloomSwitch string `json:"bloom_switch,omitempty" yaml:"bloom_switch,omitempty"`
	DryStart    string `json:"dry_start,omitempty" yaml:"dry_start,omitempty"`

	Mode             string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	TargetVPD        float64 `json:"target_vpd,omitempty" yaml:"target_vpd,omitempty"`
	TolerancePercent float64 `json:"tolerance_percent,omitempty" yaml:"tolerance_percent,omitempty"`
	LeafTempOffset   float64 `json:"leaf_temp_offset,omitempty" yaml:"leaf_temp_offset,omitempty"`

	// Dew-based drying controls toward this temperature/dew-point spread (°C).
	TargetDepression float64 `json:"target_depression,omitempty" yaml:"target_depression,omitempty"`

	// Axis weights for the dampening resolver. Zero means default (1.0).
	TempWeight     float64 `json:"temp_weight,omitempty" yaml:"temp_weight,omitempty"`
	HumidityWeight float64 `json:"humidity_weight,omitempty" yaml:"humidity_weight,omitempty"`

	// Hard safety bounds; crossing one activates the emergency override.
	EmergencyTempMin float64 `json:"emergency_temp_min,omitempty" yaml:"emergency_temp_min,omitempty"`
	EmergencyTempMax float64 `json:"emergency_temp_max,omitempty" yaml:"emergency_temp_max,omitempty"`

	Lights LightScheduleData `json:"lights,omitempty" yaml:"lights,omitempty"`
}

// LightScheduleData configures the room photoperiod and the sunrise/sunset
// ramp windows during which DLI stepping is suspended.
type LightScheduleData struct {
	On             string  `json:"on,omitempty" yaml:"on,omitempty"`  // "HH:MM" local
	Off            string  `json:"off,omitempty" yaml:"off,omitempty"` // "HH:MM" local
	SunriseMinutes int     `json:"sunrise_minutes,omitempty" yaml:"sunrise_minutes,omitempty"`
	SunsetMinutes  int     `json:"sunset_minutes,omitempty" yaml:"sunset_minutes,omitempty"`
	MinIntensity   float64 `json:"min_intensity,omitempty" yaml:"min_intensity,omitempty"` // percent, default 10
	MaxIntensity   float64 `json:"max_intensity,omitempty" yaml:"max_intensity,omitempty"` // percent, default 100
}

// SensorData holds configuration for one sensor source.
type SensorData struct {
	Name    string `json:"name" yaml:"name"`
	Room    string `json:"room" yaml:"room"`
	Type    string `json:"type" yaml:"type"` // httppoll, mqtt, serial
	Enabled bool   `json:"enabled" yaml:"enabled"`

	Context     string `json:"context,omitempty" yaml:"context,omitempty"`     // air, water, soil, light
	Measurement string `json:"measurement,omitempty" yaml:"measurement,omitempty"` // for single-metric sources

	Hostname     string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Port         string `json:"port,omitempty" yaml:"port,omitempty"`
	SerialDevice string `json:"serial_device,omitempty" yaml:"serial_device,omitempty"`
	Baud         int    `json:"baud,omitempty" yaml:"baud,omitempty"`
	Broker       string `json:"broker,omitempty" yaml:"broker,omitempty"`
	Topic        string `json:"topic,omitempty" yaml:"topic,omitempty"`

	// Poll interval in seconds for polling sources. Minimum 10, default 60.
	PollInterval int `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
}

// ActuatorData holds configuration for one controllable device.
type ActuatorData struct {
	Name     string `json:"name" yaml:"name"`
	Room     string `json:"room" yaml:"room"`
	DeviceID string `json:"device_id" yaml:"device_id"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`

	// CommandTopic is the MQTT topic device commands are published to.
	CommandTopic string `json:"command_topic,omitempty" yaml:"command_topic,omitempty"`

	Capabilities []CapabilityData `json:"capabilities" yaml:"capabilities"`
}

// CapabilityData describes one controllable dimension of an actuator.
type CapabilityData struct {
	Name            string  `json:"name" yaml:"name"` // canHeat, canCool, canHumidify, ...
	MinPercent      float64 `json:"min_percent,omitempty" yaml:"min_percent,omitempty"`
	MaxPercent      float64 `json:"max_percent,omitempty" yaml:"max_percent,omitempty"`
	CooldownSeconds int     `json:"cooldown_seconds,omitempty" yaml:"cooldown_seconds,omitempty"`
}

// CalibrationData is a per-sensor correction profile. Corrections apply as
// corrected = raw*multiplier + offset before aggregation.
type CalibrationData struct {
	SensorID         string    `json:"sensor_id" yaml:"sensor_id"`
	Measurement      string    `json:"measurement" yaml:"measurement"`
	Offset           float64   `json:"offset" yaml:"offset"`
	Multiplier       float64   `json:"multiplier" yaml:"multiplier"`
	ReferenceReading float64   `json:"reference_reading,omitempty" yaml:"reference_reading,omitempty"`
	LastCalibrated   time.Time `json:"last_calibrated,omitempty" yaml:"last_calibrated,omitempty"`
}

// StorageData holds the configuration for history storage backends
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// CommandBusData configures the MQTT broker actuator commands are published
// to. Devices subscribe to their per-room command topics on this broker.
type CommandBusData struct {
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
}

// EventsData configures cycle-event sinks beyond the always-on log sink.
type EventsData struct {
	Kafka *KafkaData `json:"kafka,omitempty" yaml:"kafka,omitempty"`
}

type KafkaData struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// ControllerData holds the configuration for controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty" yaml:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty" yaml:"rest,omitempty"`
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	EnableCORS bool   `json:"enable_cors,omitempty" yaml:"enable_cors,omitempty"`
}
