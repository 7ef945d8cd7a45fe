package lights

import (
	"math"
	"testing"
	"time"

	"github.com/opengrow-box/growd/pkg/config"
)

func mustSchedule(t *testing.T, cfg config.LightScheduleData) *Schedule {
	t.Helper()
	s, err := NewSchedule(cfg)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	return s
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.Local)
}

func TestPhaseAt(t *testing.T) {
	s := mustSchedule(t, config.LightScheduleData{
		On: "06:00", Off: "18:00",
		SunriseMinutes: 30, SunsetMinutes: 30,
	})

	tests := []struct {
		hour, min int
		want      Phase
	}{
		{5, 59, PhaseNight},
		{6, 0, PhaseSunrise},
		{6, 29, PhaseSunrise},
		{6, 30, PhaseDay},
		{12, 0, PhaseDay},
		{17, 29, PhaseDay},
		{17, 30, PhaseSunset},
		{17, 59, PhaseSunset},
		{18, 0, PhaseNight},
		{23, 0, PhaseNight},
	}
	for _, tc := range tests {
		if got := s.PhaseAt(at(tc.hour, tc.min)); got != tc.want {
			t.Errorf("PhaseAt(%02d:%02d) = %s, want %s", tc.hour, tc.min, got, tc.want)
		}
	}
}

func TestScheduleCrossesMidnight(t *testing.T) {
	s := mustSchedule(t, config.LightScheduleData{
		On: "18:00", Off: "06:00",
		SunriseMinutes: 15, SunsetMinutes: 15,
	})

	if got := s.PhaseAt(at(12, 0)); got != PhaseNight {
		t.Errorf("noon on an 18-06 schedule = %s, want night", got)
	}
	if got := s.PhaseAt(at(18, 5)); got != PhaseSunrise {
		t.Errorf("18:05 = %s, want sunrise", got)
	}
	if got := s.PhaseAt(at(23, 0)); got != PhaseDay {
		t.Errorf("23:00 = %s, want day", got)
	}
	if got := s.PhaseAt(at(2, 0)); got != PhaseDay {
		t.Errorf("02:00 = %s, want day", got)
	}
	if got := s.PhaseAt(at(5, 50)); got != PhaseSunset {
		t.Errorf("05:50 = %s, want sunset", got)
	}
	if h := s.PhotoperiodHours(); math.Abs(h-12) > 1e-9 {
		t.Errorf("PhotoperiodHours = %v, want 12", h)
	}
}

func TestIntensityRamp(t *testing.T) {
	s := mustSchedule(t, config.LightScheduleData{
		On: "06:00", Off: "18:00",
		SunriseMinutes: 30, SunsetMinutes: 30,
		MinIntensity: 10, MaxIntensity: 100,
	})

	if got := s.IntensityAt(at(3, 0)); got != 0 {
		t.Errorf("night intensity = %v, want 0", got)
	}
	// Halfway through the sunrise ramp: 10 + 0.5*(100-10) = 55.
	if got := s.IntensityAt(at(6, 15)); math.Abs(got-55) > 0.2 {
		t.Errorf("mid-sunrise intensity = %v, want ~55", got)
	}
	if got := s.IntensityAt(at(12, 0)); got != 100 {
		t.Errorf("midday intensity = %v, want 100", got)
	}
	// Halfway through the sunset ramp.
	if got := s.IntensityAt(at(17, 45)); math.Abs(got-55) > 0.2 {
		t.Errorf("mid-sunset intensity = %v, want ~55", got)
	}
}

func TestActiveTransition(t *testing.T) {
	s := mustSchedule(t, config.LightScheduleData{
		On: "06:00", Off: "18:00",
		SunriseMinutes: 30, SunsetMinutes: 30,
	})
	if !s.ActiveTransition(at(6, 10)) {
		t.Error("sunrise window should report an active transition")
	}
	if s.ActiveTransition(at(12, 0)) {
		t.Error("midday should not report a transition")
	}
	var nilSchedule *Schedule
	if nilSchedule.ActiveTransition(at(12, 0)) {
		t.Error("nil schedule never has a transition")
	}
}

func TestNewScheduleValidation(t *testing.T) {
	if s, err := NewSchedule(config.LightScheduleData{}); err != nil || s != nil {
		t.Errorf("empty schedule: got (%v, %v), want (nil, nil)", s, err)
	}
	if _, err := NewSchedule(config.LightScheduleData{On: "25:99", Off: "18:00"}); err == nil {
		t.Error("invalid on time should error")
	}
	if _, err := NewSchedule(config.LightScheduleData{On: "06:00", Off: "06:00"}); err == nil {
		t.Error("identical on/off should error")
	}
	s := mustSchedule(t, config.LightScheduleData{On: "06:00", Off: "18:00"})
	min, max := s.Bounds()
	if min != 10 || max != 100 {
		t.Errorf("default bounds = (%v, %v), want (10, 100)", min, max)
	}
}
