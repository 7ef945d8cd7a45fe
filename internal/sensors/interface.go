// Package sensors defines the interface sensor source backends implement and
// shared helpers for loading their configuration.
package sensors

// SensorSource is an interface that provides standard methods for the
// various sensor source backends.
type SensorSource interface {
	StartSensorSource() error
	SourceName() string
}
