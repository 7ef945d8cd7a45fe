// Package types defines the core data types shared across growd: sensor
// readings, aggregated measurements, environmental state, control targets,
// and actuator intents/commands.
package types

import "time"

// SensorContext identifies the medium a sensor measures.
type SensorContext string

const (
	ContextAir   SensorContext = "air"
	ContextWater SensorContext = "water"
	ContextSoil  SensorContext = "soil"
	ContextLight SensorContext = "light"
)

// MeasurementType identifies what a sensor measures.
type MeasurementType string

const (
	MeasureTemperature MeasurementType = "temperature"
	MeasureHumidity    MeasurementType = "humidity"
	MeasureCO2         MeasurementType = "co2"
	MeasurePPFD        MeasurementType = "ppfd"
	MeasureLux         MeasurementType = "lux"
	MeasurePH          MeasurementType = "ph"
	MeasureEC          MeasurementType = "ec"
	MeasureMoisture    MeasurementType = "moisture"
)

// SensorReading is a single raw measurement from one sensor. Readings are
// immutable once captured; a newer reading from the same sensor supersedes
// the previous one.
type SensorReading struct {
	SensorID  string          `json:"sensor_id"`
	Room      string          `json:"room"`
	Context   SensorContext   `json:"context"`
	Type      MeasurementType `json:"type"`
	RawValue  float64         `json:"raw_value"`
	Value     float64         `json:"value"` // calibrated value
	Timestamp time.Time       `json:"timestamp"`
}

// AggregatedMeasurement is the equal-weight mean of all valid calibrated
// readings for one (context, measurement type) pair in a room. SampleCount
// of zero means the measurement is unavailable this cycle.
type AggregatedMeasurement struct {
	Type        MeasurementType `json:"type"`
	Context     SensorContext   `json:"context"`
	Value       float64         `json:"value"`
	SampleCount int             `json:"sample_count"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Unavailable reports whether the aggregation produced no usable value.
func (a AggregatedMeasurement) Unavailable() bool {
	return a.SampleCount == 0
}

// Metric is a measurement value that may be absent. Consumers must check
// Valid before using Value; an invalid metric means "skip", never "zero".
type Metric struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// MetricOf wraps a value in a valid Metric.
func MetricOf(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// EnvironmentalState is the derived per-room environment, recomputed every
// control cycle from aggregated measurements. VPD is always derived, never
// sensed directly.
type EnvironmentalState struct {
	Room         string    `json:"room"`
	Temperature  Metric    `json:"temperature"`   // °C
	Humidity     Metric    `json:"humidity"`      // %RH
	DewPoint     Metric    `json:"dew_point"`     // °C
	VPD          Metric    `json:"vpd"`           // kPa
	PPFD         Metric    `json:"ppfd"`          // µmol/m²/s
	DLI          Metric    `json:"dli"`           // mol/m²/day
	CO2          Metric    `json:"co2"`           // ppm
	SoilMoisture Metric    `json:"soil_moisture"` // %
	Timestamp    time.Time `json:"timestamp"`
}

// ControlMode selects how a room's targets are derived and which decision
// path the engine runs.
type ControlMode string

const (
	ModeVPDPerfection ControlMode = "vpd-perfection"
	ModeVPDTarget     ControlMode = "vpd-target"
	ModeDryElClassico ControlMode = "drying-elclassico"
	ModeDryDewBased   ControlMode = "drying-dewbased"
	ModeDryFiveDay    ControlMode = "drying-5day"
	ModeDisabled      ControlMode = "disabled"
)

// ControlTarget is the per-cycle target the decision engine compares the
// measured value against.
type ControlTarget struct {
	Mode   ControlMode `json:"mode"`
	Target float64     `json:"target"`
	Min    float64     `json:"min"`
	Max    float64     `json:"max"`
	Step   float64     `json:"step"`
}

// Direction is the decision engine's directional verdict for an axis or
// capability.
type Direction string

const (
	DirIncrease Direction = "increase"
	DirReduce   Direction = "reduce"
	DirFineTune Direction = "finetune"
	DirNone     Direction = "none"
)

// Capability names one controllable dimension of a physical device.
type Capability string

const (
	CanHeat       Capability = "canHeat"
	CanCool       Capability = "canCool"
	CanHumidify   Capability = "canHumidify"
	CanDehumidify Capability = "canDehumidify"
	CanExhaust    Capability = "canExhaust"
	CanIntake     Capability = "canIntake"
	CanCirculate  Capability = "canCirculate"
	CanLight      Capability = "canLight"
)

// IntentPriority orders intents when two of them contend for the same
// capability in one cycle. Higher wins.
type IntentPriority int

const (
	PriorityDerived IntentPriority = iota
	PriorityPrimary
	PriorityEmergency
)

// ControlAxis names the physical axis an intent acts on. The dampening
// resolver uses it to break ties between simultaneous demands on the same
// capability.
type ControlAxis string

const (
	AxisTemperature ControlAxis = "temperature"
	AxisHumidity    ControlAxis = "humidity"
	AxisVPD         ControlAxis = "vpd"
	AxisLight       ControlAxis = "light"
)

// ActionIntent is an ephemeral per-capability demand produced by the decision
// engine. Intents are filtered and merged by the dampening resolver, then
// discarded after dispatch.
type ActionIntent struct {
	Capability Capability     `json:"capability"`
	Direction  Direction      `json:"direction"`
	Axis       ControlAxis    `json:"axis"`
	Reason     string         `json:"reason"`
	Magnitude  float64        `json:"magnitude"`
	Priority   IntentPriority `json:"priority"`
}

// ActuatorCommand is a resolved command ready for dispatch to one device.
type ActuatorCommand struct {
	DeviceID   string     `json:"device_id"`
	Room       string     `json:"room"`
	Capability Capability `json:"capability"`
	Direction  Direction  `json:"direction"`
	Magnitude  float64    `json:"magnitude"`
	// AbsoluteValue, when set, carries an absolute setpoint (light intensity
	// percent) instead of a relative step.
	AbsoluteValue *float64 `json:"absolute_value,omitempty"`
	// Topic overrides the default command topic when the actuator
	// configured one.
	Topic string `json:"topic,omitempty"`
}

// CycleOutcome classifies how a control cycle ended.
type CycleOutcome string

const (
	OutcomeSynchronized CycleOutcome = "synchronized" // in range, nothing to do
	OutcomeDispatched   CycleOutcome = "dispatched"   // actions sent
	OutcomeSkipped      CycleOutcome = "skipped"      // missing data, no evaluation
	OutcomeBlocked      CycleOutcome = "blocked"      // intents existed, resolution yielded nothing
)

// CycleEvent is the semantic event growd emits once per control cycle for
// external logging and analytics consumers.
type CycleEvent struct {
	ID        string       `json:"id"`
	Room      string       `json:"room"`
	Outcome   CycleOutcome `json:"outcome"`
	Reason    string       `json:"reason,omitempty"`
	Actions   int          `json:"actions"`
	Timestamp time.Time    `json:"timestamp"`
}

// DeviceHealthEvent is emitted when command dispatch to a device keeps
// failing after bounded retries.
type DeviceHealthEvent struct {
	DeviceID  string    `json:"device_id"`
	Room      string    `json:"room"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}

// RoomSnapshot bundles the environmental state with the cycle outcome for
// history storage and the REST API.
type RoomSnapshot struct {
	State   EnvironmentalState `json:"state"`
	Target  ControlTarget      `json:"target"`
	Outcome CycleOutcome       `json:"outcome"`
	Actions []ActuatorCommand  `json:"actions,omitempty"`
}
