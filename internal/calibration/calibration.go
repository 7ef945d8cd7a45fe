// Package calibration applies per-sensor correction profiles to raw readings
// before aggregation. Profiles are produced by the growctl calibration
// workflows and persisted through the config provider; the per-cycle hot path
// only ever reads them.
package calibration

import (
	"fmt"
	"sync"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
)

// Profile is one sensor's correction: corrected = raw*Multiplier + Offset.
type Profile struct {
	SensorID         string
	Measurement      types.MeasurementType
	Offset           float64
	Multiplier       float64
	ReferenceReading float64
	LastCalibrated   time.Time
}

// identity is the profile used for sensors without an explicit one.
var identity = Profile{Multiplier: 1, Offset: 0}

// Store holds the calibration profiles for one room's sensors. Safe for
// concurrent use: the REST/growctl side may reload while cycles read.
type Store struct {
	mu       sync.RWMutex
	profiles map[profileKey]Profile
}

type profileKey struct {
	sensorID    string
	measurement types.MeasurementType
}

// NewStore creates an empty calibration store.
func NewStore() *Store {
	return &Store{profiles: make(map[profileKey]Profile)}
}

// NewStoreFromConfig loads all profiles from the config provider.
func NewStoreFromConfig(provider config.ConfigProvider) (*Store, error) {
	s := NewStore()
	cals, err := provider.GetCalibrations()
	if err != nil {
		return nil, fmt.Errorf("loading calibration profiles: %w", err)
	}
	for _, c := range cals {
		s.Put(Profile{
			SensorID:         c.SensorID,
			Measurement:      types.MeasurementType(c.Measurement),
			Offset:           c.Offset,
			Multiplier:       c.Multiplier,
			ReferenceReading: c.ReferenceReading,
			LastCalibrated:   c.LastCalibrated,
		})
	}
	return s, nil
}

// Put stores or replaces a profile.
func (s *Store) Put(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profileKey{p.SensorID, p.Measurement}] = p
}

// Lookup returns the profile for a sensor, falling back to the identity
// profile when none exists.
func (s *Store) Lookup(sensorID string, measurement types.MeasurementType) Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[profileKey{sensorID, measurement}]; ok {
		return p
	}
	return identity
}

// Apply corrects a raw reading in place, filling Value from RawValue.
func (s *Store) Apply(r types.SensorReading) types.SensorReading {
	p := s.Lookup(r.SensorID, r.Type)
	r.Value = r.RawValue*p.Multiplier + p.Offset
	return r
}

// SinglePointOffset builds an offset-only profile from one reference
// measurement. Used for temperature and CO2 sensors.
func SinglePointOffset(sensorID string, measurement types.MeasurementType, raw, reference float64) Profile {
	return Profile{
		SensorID:         sensorID,
		Measurement:      measurement,
		Multiplier:       1,
		Offset:           reference - raw,
		ReferenceReading: reference,
		LastCalibrated:   time.Now(),
	}
}

// TwoPointLinear builds a linear profile from two (raw, reference) pairs.
// Used for humidity sensors calibrated against two salt solutions.
func TwoPointLinear(sensorID string, measurement types.MeasurementType, rawLow, refLow, rawHigh, refHigh float64) (Profile, error) {
	if rawHigh == rawLow {
		return Profile{}, fmt.Errorf("degenerate calibration points: raw values are equal (%.2f)", rawLow)
	}
	multiplier := (refHigh - refLow) / (rawHigh - rawLow)
	offset := refLow - rawLow*multiplier
	return Profile{
		SensorID:         sensorID,
		Measurement:      measurement,
		Multiplier:       multiplier,
		Offset:           offset,
		ReferenceReading: refHigh,
		LastCalibrated:   time.Now(),
	}, nil
}
