package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	p := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}

	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return p, nil
}

func (p *SQLiteProvider) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			name TEXT PRIMARY KEY,
			enabled INTEGER NOT NULL DEFAULT 1,
			plant_type TEXT NOT NULL DEFAULT '',
			phase TEXT NOT NULL DEFAULT 'photoperiod',
			grow_start TEXT NOT NULL DEFAULT '',
			bloom_switch TEXT NOT NULL DEFAULT '',
			dry_start TEXT NOT NULL DEFAULT '',
			mode TEXT NOT NULL DEFAULT 'disabled',
			target_vpd REAL NOT NULL DEFAULT 0,
			tolerance_percent REAL NOT NULL DEFAULT 0,
			leaf_temp_offset REAL NOT NULL DEFAULT 0,
			target_depression REAL NOT NULL DEFAULT 0,
			temp_weight REAL NOT NULL DEFAULT 0,
			humidity_weight REAL NOT NULL DEFAULT 0,
			emergency_temp_min REAL NOT NULL DEFAULT 0,
			emergency_temp_max REAL NOT NULL DEFAULT 0,
			lights TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS sensors (
			name TEXT PRIMARY KEY,
			room TEXT NOT NULL,
			type TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			context TEXT NOT NULL DEFAULT 'air',
			measurement TEXT NOT NULL DEFAULT '',
			hostname TEXT NOT NULL DEFAULT '',
			port TEXT NOT NULL DEFAULT '',
			serial_device TEXT NOT NULL DEFAULT '',
			baud INTEGER NOT NULL DEFAULT 0,
			broker TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL DEFAULT '',
			poll_interval INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS actuators (
			name TEXT PRIMARY KEY,
			room TEXT NOT NULL,
			device_id TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			command_topic TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS capabilities (
			actuator_name TEXT NOT NULL,
			name TEXT NOT NULL,
			min_percent REAL NOT NULL DEFAULT 0,
			max_percent REAL NOT NULL DEFAULT 0,
			cooldown_seconds INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (actuator_name, name)
		)`,
		`CREATE TABLE IF NOT EXISTS calibrations (
			sensor_id TEXT NOT NULL,
			measurement TEXT NOT NULL,
			cal_offset REAL NOT NULL DEFAULT 0,
			multiplier REAL NOT NULL DEFAULT 1,
			reference_reading REAL NOT NULL DEFAULT 0,
			last_calibrated TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (sensor_id, measurement)
		)`,
		`CREATE TABLE IF NOT EXISTS command_bus (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			broker TEXT NOT NULL,
			client_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS storage_timescaledb (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			connection_string TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events_kafka (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			brokers TEXT NOT NULL,
			topic TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS controllers (
			type TEXT PRIMARY KEY,
			listen_addr TEXT NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			cert TEXT NOT NULL DEFAULT '',
			key TEXT NOT NULL DEFAULT '',
			enable_cors INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range schema {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (p *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	rooms, err := p.GetRooms()
	if err != nil {
		return nil, err
	}
	sensors, err := p.GetSensors()
	if err != nil {
		return nil, err
	}
	actuators, err := p.GetActuators("")
	if err != nil {
		return nil, err
	}
	calibrations, err := p.GetCalibrations()
	if err != nil {
		return nil, err
	}
	storage, err := p.GetStorageConfig()
	if err != nil {
		return nil, err
	}
	controllers, err := p.GetControllers()
	if err != nil {
		return nil, err
	}
	events, err := p.getEventsConfig()
	if err != nil {
		return nil, err
	}
	commandBus, err := p.getCommandBusConfig()
	if err != nil {
		return nil, err
	}

	return &ConfigData{
		Rooms:        rooms,
		Sensors:      sensors,
		Actuators:    actuators,
		Calibrations: calibrations,
		CommandBus:   *commandBus,
		Storage:      *storage,
		Controllers:  controllers,
		Events:       *events,
	}, nil
}

// GetRooms returns all configured rooms
func (p *SQLiteProvider) GetRooms() ([]RoomData, error) {
	rows, err := p.db.Query(`SELECT name, enabled, plant_type, phase, grow_start,
		bloom_switch, dry_start, mode, target_vpd, tolerance_percent,
		leaf_temp_offset, target_depression, temp_weight, humidity_weight,
		emergency_temp_min, emergency_temp_max, lights FROM rooms`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []RoomData
	for rows.Next() {
		var r RoomData
		var enabled int
		var lightsJSON string
		err := rows.Scan(&r.Name, &enabled, &r.PlantType, &r.Phase, &r.GrowStart,
			&r.BloomSwitch, &r.DryStart, &r.Mode, &r.TargetVPD, &r.TolerancePercent,
			&r.LeafTempOffset, &r.TargetDepression, &r.TempWeight, &r.HumidityWeight,
			&r.EmergencyTempMin, &r.EmergencyTempMax, &lightsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		r.Enabled = enabled != 0
		if lightsJSON != "" && lightsJSON != "{}" {
			if err := json.Unmarshal([]byte(lightsJSON), &r.Lights); err != nil {
				return nil, fmt.Errorf("failed to decode lights config for room %s: %w", r.Name, err)
			}
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// GetRoom returns a single room by name
func (p *SQLiteProvider) GetRoom(name string) (*RoomData, error) {
	rooms, err := p.GetRooms()
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		if rooms[i].Name == name {
			return &rooms[i], nil
		}
	}
	return nil, fmt.Errorf("room [%s] not found in configuration", name)
}

// UpdateRoom inserts or replaces a room's configuration
func (p *SQLiteProvider) UpdateRoom(r RoomData) error {
	lightsJSON, err := json.Marshal(r.Lights)
	if err != nil {
		return fmt.Errorf("failed to encode lights config: %w", err)
	}
	enabled := 0
	if r.Enabled {
		enabled = 1
	}
	_, err = p.db.Exec(`INSERT INTO rooms (name, enabled, plant_type, phase,
		grow_start, bloom_switch, dry_start, mode, target_vpd, tolerance_percent,
		leaf_temp_offset, target_depression, temp_weight, humidity_weight,
		emergency_temp_min, emergency_temp_max, lights)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		enabled=excluded.enabled, plant_type=excluded.plant_type,
		phase=excluded.phase, grow_start=excluded.grow_start,
		bloom_switch=excluded.bloom_switch, dry_start=excluded.dry_start,
		mode=excluded.mode, target_vpd=excluded.target_vpd,
		tolerance_percent=excluded.tolerance_percent,
		leaf_temp_offset=excluded.leaf_temp_offset,
		target_depression=excluded.target_depression,
		temp_weight=excluded.temp_weight,
		humidity_weight=excluded.humidity_weight,
		emergency_temp_min=excluded.emergency_temp_min,
		emergency_temp_max=excluded.emergency_temp_max,
		lights=excluded.lights`,
		r.Name, enabled, r.PlantType, r.Phase, r.GrowStart, r.BloomSwitch,
		r.DryStart, r.Mode, r.TargetVPD, r.TolerancePercent, r.LeafTempOffset,
		r.TargetDepression, r.TempWeight, r.HumidityWeight,
		r.EmergencyTempMin, r.EmergencyTempMax, string(lightsJSON))
	if err != nil {
		return fmt.Errorf("failed to update room %s: %w", r.Name, err)
	}
	return nil
}

// GetSensors returns all configured sensor sources
func (p *SQLiteProvider) GetSensors() ([]SensorData, error) {
	rows, err := p.db.Query(`SELECT name, room, type, enabled, context,
		measurement, hostname, port, serial_device, baud, broker, topic,
		poll_interval FROM sensors`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	var sensors []SensorData
	for rows.Next() {
		var s SensorData
		var enabled int
		err := rows.Scan(&s.Name, &s.Room, &s.Type, &enabled, &s.Context,
			&s.Measurement, &s.Hostname, &s.Port, &s.SerialDevice, &s.Baud,
			&s.Broker, &s.Topic, &s.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor: %w", err)
		}
		s.Enabled = enabled != 0
		sensors = append(sensors, s)
	}
	return sensors, rows.Err()
}

// GetActuators returns actuators for a room, or all actuators when room is
// empty
func (p *SQLiteProvider) GetActuators(room string) ([]ActuatorData, error) {
	query := `SELECT name, room, device_id, enabled, command_topic FROM actuators`
	args := []any{}
	if room != "" {
		query += ` WHERE room = ?`
		args = append(args, room)
	}

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query actuators: %w", err)
	}
	defer rows.Close()

	var actuators []ActuatorData
	for rows.Next() {
		var a ActuatorData
		var enabled int
		if err := rows.Scan(&a.Name, &a.Room, &a.DeviceID, &enabled, &a.CommandTopic); err != nil {
			return nil, fmt.Errorf("failed to scan actuator: %w", err)
		}
		a.Enabled = enabled != 0
		actuators = append(actuators, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range actuators {
		caps, err := p.getCapabilities(actuators[i].Name)
		if err != nil {
			return nil, err
		}
		actuators[i].Capabilities = caps
	}
	return actuators, nil
}

func (p *SQLiteProvider) getCapabilities(actuatorName string) ([]CapabilityData, error) {
	rows, err := p.db.Query(`SELECT name, min_percent, max_percent,
		cooldown_seconds FROM capabilities WHERE actuator_name = ?`, actuatorName)
	if err != nil {
		return nil, fmt.Errorf("failed to query capabilities: %w", err)
	}
	defer rows.Close()

	var caps []CapabilityData
	for rows.Next() {
		var c CapabilityData
		if err := rows.Scan(&c.Name, &c.MinPercent, &c.MaxPercent, &c.CooldownSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan capability: %w", err)
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}

// GetCalibrations returns all calibration profiles
func (p *SQLiteProvider) GetCalibrations() ([]CalibrationData, error) {
	rows, err := p.db.Query(`SELECT sensor_id, measurement, cal_offset, multiplier,
		reference_reading, last_calibrated FROM calibrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibrations: %w", err)
	}
	defer rows.Close()

	var cals []CalibrationData
	for rows.Next() {
		var c CalibrationData
		var lastCal string
		if err := rows.Scan(&c.SensorID, &c.Measurement, &c.Offset, &c.Multiplier,
			&c.ReferenceReading, &lastCal); err != nil {
			return nil, fmt.Errorf("failed to scan calibration: %w", err)
		}
		if lastCal != "" {
			if t, err := time.Parse(time.RFC3339, lastCal); err == nil {
				c.LastCalibrated = t
			}
		}
		cals = append(cals, c)
	}
	return cals, rows.Err()
}

// UpsertCalibration writes a calibration profile. This is the only config
// section the daemon-side calibration workflow mutates.
func (p *SQLiteProvider) UpsertCalibration(c CalibrationData) error {
	lastCal := ""
	if !c.LastCalibrated.IsZero() {
		lastCal = c.LastCalibrated.Format(time.RFC3339)
	}
	_, err := p.db.Exec(`INSERT INTO calibrations (sensor_id, measurement,
		cal_offset, multiplier, reference_reading, last_calibrated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(sensor_id, measurement) DO UPDATE SET
		cal_offset=excluded.cal_offset, multiplier=excluded.multiplier,
		reference_reading=excluded.reference_reading,
		last_calibrated=excluded.last_calibrated`,
		c.SensorID, c.Measurement, c.Offset, c.Multiplier, c.ReferenceReading, lastCal)
	if err != nil {
		return fmt.Errorf("failed to upsert calibration for sensor %s: %w", c.SensorID, err)
	}
	return nil
}

// GetStorageConfig returns the history storage configuration
func (p *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	var sd StorageData

	var connStr string
	err := p.db.QueryRow(`SELECT connection_string FROM storage_timescaledb WHERE id = 1`).Scan(&connStr)
	switch {
	case err == sql.ErrNoRows:
		// no history backend configured
	case err != nil:
		return nil, fmt.Errorf("failed to query storage config: %w", err)
	default:
		sd.TimescaleDB = &TimescaleDBData{ConnectionString: connStr}
	}
	return &sd, nil
}

func (p *SQLiteProvider) getCommandBusConfig() (*CommandBusData, error) {
	var cb CommandBusData

	err := p.db.QueryRow(`SELECT broker, client_id FROM command_bus WHERE id = 1`).Scan(&cb.Broker, &cb.ClientID)
	switch {
	case err == sql.ErrNoRows:
		// no command bus configured; dispatch is disabled
	case err != nil:
		return nil, fmt.Errorf("failed to query command bus config: %w", err)
	}
	return &cb, nil
}

func (p *SQLiteProvider) getEventsConfig() (*EventsData, error) {
	var ed EventsData

	var brokersJSON, topic string
	err := p.db.QueryRow(`SELECT brokers, topic FROM events_kafka WHERE id = 1`).Scan(&brokersJSON, &topic)
	switch {
	case err == sql.ErrNoRows:
		// no kafka sink configured
	case err != nil:
		return nil, fmt.Errorf("failed to query events config: %w", err)
	default:
		var brokers []string
		if err := json.Unmarshal([]byte(brokersJSON), &brokers); err != nil {
			return nil, fmt.Errorf("failed to decode kafka brokers: %w", err)
		}
		ed.Kafka = &KafkaData{Brokers: brokers, Topic: topic}
	}
	return &ed, nil
}

// GetControllers returns the controller configurations
func (p *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := p.db.Query(`SELECT type, listen_addr, port, cert, key, enable_cors FROM controllers`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var cType, listenAddr, cert, key string
		var port, enableCORS int
		if err := rows.Scan(&cType, &listenAddr, &port, &cert, &key, &enableCORS); err != nil {
			return nil, fmt.Errorf("failed to scan controller: %w", err)
		}
		cd := ControllerData{Type: cType}
		if cType == "rest" {
			cd.RESTServer = &RESTServerData{
				ListenAddr: listenAddr,
				Port:       port,
				Cert:       cert,
				Key:        key,
				EnableCORS: enableCORS != 0,
			}
		}
		controllers = append(controllers, cd)
	}
	return controllers, rows.Err()
}

// ImportConfig writes a complete ConfigData into the database. Used by the
// growctl YAML→SQLite conversion.
func (p *SQLiteProvider) ImportConfig(cfg *ConfigData) error {
	for _, r := range cfg.Rooms {
		if err := p.UpdateRoom(r); err != nil {
			return err
		}
	}
	for _, s := range cfg.Sensors {
		enabled := 0
		if s.Enabled {
			enabled = 1
		}
		_, err := p.db.Exec(`INSERT OR REPLACE INTO sensors (name, room, type,
			enabled, context, measurement, hostname, port, serial_device, baud,
			broker, topic, poll_interval) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Name, s.Room, s.Type, enabled, s.Context, s.Measurement,
			s.Hostname, s.Port, s.SerialDevice, s.Baud, s.Broker, s.Topic, s.PollInterval)
		if err != nil {
			return fmt.Errorf("failed to import sensor %s: %w", s.Name, err)
		}
	}
	for _, a := range cfg.Actuators {
		enabled := 0
		if a.Enabled {
			enabled = 1
		}
		_, err := p.db.Exec(`INSERT OR REPLACE INTO actuators (name, room,
			device_id, enabled, command_topic) VALUES (?, ?, ?, ?, ?)`,
			a.Name, a.Room, a.DeviceID, enabled, a.CommandTopic)
		if err != nil {
			return fmt.Errorf("failed to import actuator %s: %w", a.Name, err)
		}
		for _, c := range a.Capabilities {
			_, err := p.db.Exec(`INSERT OR REPLACE INTO capabilities
				(actuator_name, name, min_percent, max_percent, cooldown_seconds)
				VALUES (?, ?, ?, ?, ?)`,
				a.Name, c.Name, c.MinPercent, c.MaxPercent, c.CooldownSeconds)
			if err != nil {
				return fmt.Errorf("failed to import capability %s/%s: %w", a.Name, c.Name, err)
			}
		}
	}
	for _, c := range cfg.Calibrations {
		if err := p.UpsertCalibration(c); err != nil {
			return err
		}
	}
	if cfg.CommandBus.Broker != "" {
		_, err := p.db.Exec(`INSERT OR REPLACE INTO command_bus (id, broker,
			client_id) VALUES (1, ?, ?)`, cfg.CommandBus.Broker, cfg.CommandBus.ClientID)
		if err != nil {
			return fmt.Errorf("failed to import command bus config: %w", err)
		}
	}
	if cfg.Storage.TimescaleDB != nil {
		_, err := p.db.Exec(`INSERT OR REPLACE INTO storage_timescaledb (id,
			connection_string) VALUES (1, ?)`, cfg.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return fmt.Errorf("failed to import storage config: %w", err)
		}
	}
	if cfg.Events.Kafka != nil {
		brokers, err := json.Marshal(cfg.Events.Kafka.Brokers)
		if err != nil {
			return fmt.Errorf("failed to encode kafka brokers: %w", err)
		}
		_, err = p.db.Exec(`INSERT OR REPLACE INTO events_kafka (id, brokers,
			topic) VALUES (1, ?, ?)`, string(brokers), cfg.Events.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("failed to import events config: %w", err)
		}
	}
	for _, cd := range cfg.Controllers {
		if cd.RESTServer == nil {
			continue
		}
		enableCORS := 0
		if cd.RESTServer.EnableCORS {
			enableCORS = 1
		}
		_, err := p.db.Exec(`INSERT OR REPLACE INTO controllers (type,
			listen_addr, port, cert, key, enable_cors) VALUES (?, ?, ?, ?, ?, ?)`,
			cd.Type, cd.RESTServer.ListenAddr, cd.RESTServer.Port,
			cd.RESTServer.Cert, cd.RESTServer.Key, enableCORS)
		if err != nil {
			return fmt.Errorf("failed to import controller %s: %w", cd.Type, err)
		}
	}
	return nil
}

// IsReadOnly returns false: the SQLite backend accepts writes
func (p *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}
