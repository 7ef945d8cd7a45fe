package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var cfg ConfigData
	if err := yaml.Unmarshal(cfgFile, &cfg); err != nil {
		return nil, err
	}

	y.config = &cfg
	return &cfg, nil
}

func (y *YAMLProvider) cached() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}
	return y.LoadConfig()
}

// GetRooms returns all configured rooms
func (y *YAMLProvider) GetRooms() ([]RoomData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return cfg.Rooms, nil
}

// GetRoom returns a single room by name
func (y *YAMLProvider) GetRoom(name string) (*RoomData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	for i := range cfg.Rooms {
		if cfg.Rooms[i].Name == name {
			return &cfg.Rooms[i], nil
		}
	}
	return nil, fmt.Errorf("room [%s] not found in configuration", name)
}

// GetSensors returns all configured sensor sources
func (y *YAMLProvider) GetSensors() ([]SensorData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return cfg.Sensors, nil
}

// GetActuators returns the actuators configured for a room. An empty room
// name returns all actuators.
func (y *YAMLProvider) GetActuators(room string) ([]ActuatorData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	if room == "" {
		return cfg.Actuators, nil
	}
	var out []ActuatorData
	for _, a := range cfg.Actuators {
		if a.Room == room {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetStorageConfig returns the history storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// GetControllers returns the controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return cfg.Controllers, nil
}

// GetCalibrations returns all calibration profiles
func (y *YAMLProvider) GetCalibrations() ([]CalibrationData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return cfg.Calibrations, nil
}

// UpsertCalibration is not supported for the read-only YAML backend
func (y *YAMLProvider) UpsertCalibration(cal CalibrationData) error {
	return fmt.Errorf("YAML configuration is read-only; use the SQLite backend for calibration")
}

// UpdateRoom is not supported for the read-only YAML backend
func (y *YAMLProvider) UpdateRoom(room RoomData) error {
	return fmt.Errorf("YAML configuration is read-only; use the SQLite backend for room updates")
}

// IsReadOnly returns true: YAML configs are never written by growd
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
