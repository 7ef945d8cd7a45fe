// Package lights implements the room photoperiod schedule: lights-on/off
// times and the sunrise/sunset ramp windows. During a ramp the engine's DLI
// stepping is suspended and the schedule itself drives intensity.
package lights

import (
	"fmt"
	"time"

	"github.com/opengrow-box/growd/pkg/config"
)

// Phase classifies the moment within the photoperiod.
type Phase string

const (
	PhaseDay     Phase = "day"
	PhaseNight   Phase = "night"
	PhaseSunrise Phase = "sunrise"
	PhaseSunset  Phase = "sunset"
)

// Schedule is one room's photoperiod. All times are minutes-of-day in the
// host's local timezone; schedules crossing midnight are supported.
type Schedule struct {
	onMin        int
	offMin       int
	sunrise      time.Duration
	sunset       time.Duration
	minIntensity float64
	maxIntensity float64
}

// NewSchedule parses a light schedule from configuration. An empty on/off
// pair yields a nil schedule, meaning the room runs lights-always-on (or has
// no dimmable light at all).
func NewSchedule(cfg config.LightScheduleData) (*Schedule, error) {
	if cfg.On == "" && cfg.Off == "" {
		return nil, nil
	}
	on, err := parseHHMM(cfg.On)
	if err != nil {
		return nil, fmt.Errorf("lights-on time: %w", err)
	}
	off, err := parseHHMM(cfg.Off)
	if err != nil {
		return nil, fmt.Errorf("lights-off time: %w", err)
	}
	if on == off {
		return nil, fmt.Errorf("lights-on and lights-off are both %s", cfg.On)
	}

	s := &Schedule{
		onMin:        on,
		offMin:       off,
		sunrise:      time.Duration(cfg.SunriseMinutes) * time.Minute,
		sunset:       time.Duration(cfg.SunsetMinutes) * time.Minute,
		minIntensity: cfg.MinIntensity,
		maxIntensity: cfg.MaxIntensity,
	}
	if s.minIntensity <= 0 {
		s.minIntensity = 10
	}
	if s.maxIntensity <= 0 || s.maxIntensity > 100 {
		s.maxIntensity = 100
	}
	return s, nil
}

func parseHHMM(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// minutesOfDay returns the local minutes-of-day with second resolution folded
// in, so ramps progress smoothly between cycle evaluations.
func minutesOfDay(now time.Time) float64 {
	return float64(now.Hour())*60 + float64(now.Minute()) + float64(now.Second())/60
}

// sinceOn returns minutes elapsed since lights-on, normalized for schedules
// that cross midnight.
func (s *Schedule) sinceOn(mod float64) float64 {
	d := mod - float64(s.onMin)
	if d < 0 {
		d += 24 * 60
	}
	return d
}

// dayLength returns the photoperiod length in minutes.
func (s *Schedule) dayLength() float64 {
	d := float64(s.offMin - s.onMin)
	if d < 0 {
		d += 24 * 60
	}
	return d
}

// PhaseAt classifies the given instant within the photoperiod.
func (s *Schedule) PhaseAt(now time.Time) Phase {
	elapsed := s.sinceOn(minutesOfDay(now))
	day := s.dayLength()
	switch {
	case elapsed >= day:
		return PhaseNight
	case elapsed < s.sunrise.Minutes():
		return PhaseSunrise
	case elapsed >= day-s.sunset.Minutes():
		return PhaseSunset
	default:
		return PhaseDay
	}
}

// ActiveTransition reports whether a sunrise or sunset ramp is in progress.
// The decision engine suspends DLI stepping while this is true.
func (s *Schedule) ActiveTransition(now time.Time) bool {
	if s == nil {
		return false
	}
	p := s.PhaseAt(now)
	return p == PhaseSunrise || p == PhaseSunset
}

// IntensityAt returns the scheduled intensity percent for the given instant:
// 0 at night, a linear ramp during sunrise and sunset, and the configured
// maximum across the plateau of the day. The engine's DLI stepping adjusts
// the plateau value between cycles; this function supplies the ramp envelope.
func (s *Schedule) IntensityAt(now time.Time) float64 {
	elapsed := s.sinceOn(minutesOfDay(now))
	day := s.dayLength()

	switch {
	case elapsed >= day:
		return 0
	case s.sunrise > 0 && elapsed < s.sunrise.Minutes():
		frac := elapsed / s.sunrise.Minutes()
		return s.minIntensity + frac*(s.maxIntensity-s.minIntensity)
	case s.sunset > 0 && elapsed >= day-s.sunset.Minutes():
		frac := (day - elapsed) / s.sunset.Minutes()
		return s.minIntensity + frac*(s.maxIntensity-s.minIntensity)
	default:
		return s.maxIntensity
	}
}

// PhotoperiodHours returns the configured daily light hours, used to convert
// the stage DLI target into a PPFD target.
func (s *Schedule) PhotoperiodHours() float64 {
	if s == nil {
		return 0
	}
	return s.dayLength() / 60
}

// Bounds returns the configured intensity limits.
func (s *Schedule) Bounds() (min, max float64) {
	return s.minIntensity, s.maxIntensity
}
