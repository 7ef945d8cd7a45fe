// Package envmath provides the environmental math used for grow-room climate
// control: saturation and actual vapor pressure, vapor pressure deficit,
// dew point, and PPFD/DLI conversions.
//
// All temperatures are °C, relative humidity is percent, vapor pressures are
// kPa, PPFD is µmol/m²/s and DLI is mol/m²/day.
package envmath

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMeasurement is returned when an input is outside its physically
// plausible domain.
var ErrInvalidMeasurement = errors.New("invalid measurement")

const (
	// absoluteZeroC is the lower bound for any Celsius temperature input.
	absoluteZeroC = -273.15

	// minVPD is the floor for computed VPD. VPD never goes to zero or
	// negative: condensing conditions are reported as this minimum.
	minVPD = 0.001
)

func checkTemp(tempC float64) error {
	if math.IsNaN(tempC) || tempC <= absoluteZeroC {
		return fmt.Errorf("temperature %.2f°C: %w", tempC, ErrInvalidMeasurement)
	}
	return nil
}

func checkHumidity(rh float64) error {
	if math.IsNaN(rh) || rh < 0 || rh > 100 {
		return fmt.Errorf("relative humidity %.2f%%: %w", rh, ErrInvalidMeasurement)
	}
	return nil
}

// SaturationVaporPressure computes the saturation vapor pressure in kPa for a
// temperature in °C using the Magnus-Tetens approximation.
func SaturationVaporPressure(tempC float64) (float64, error) {
	if err := checkTemp(tempC); err != nil {
		return 0, err
	}
	return 0.6108 * math.Exp((17.27*tempC)/(tempC+237.3)), nil
}

// ActualVaporPressure computes the actual vapor pressure in kPa from air
// temperature and relative humidity.
func ActualVaporPressure(tempC, rh float64) (float64, error) {
	if err := checkHumidity(rh); err != nil {
		return 0, err
	}
	svp, err := SaturationVaporPressure(tempC)
	if err != nil {
		return 0, err
	}
	return svp * rh / 100.0, nil
}

// VPD computes the vapor pressure deficit in kPa at leaf temperature.
// leafOffsetC is added to the air temperature for the saturation term,
// accounting for leaves running warmer or cooler than the surrounding air.
// The result is clamped to a minimum of 0.001 kPa.
func VPD(tempC, rh, leafOffsetC float64) (float64, error) {
	svpLeaf, err := SaturationVaporPressure(tempC + leafOffsetC)
	if err != nil {
		return 0, err
	}
	avp, err := ActualVaporPressure(tempC, rh)
	if err != nil {
		return 0, err
	}
	vpd := svpLeaf - avp
	if vpd < minVPD {
		vpd = minVPD
	}
	return vpd, nil
}

// DewPoint computes the dew point in °C via the inverted Magnus-Tetens
// formula. Relative humidity must be greater than zero.
func DewPoint(tempC, rh float64) (float64, error) {
	if err := checkTemp(tempC); err != nil {
		return 0, err
	}
	if err := checkHumidity(rh); err != nil {
		return 0, err
	}
	if rh == 0 {
		return 0, fmt.Errorf("relative humidity 0%% has no dew point: %w", ErrInvalidMeasurement)
	}
	gamma := math.Log(rh/100.0) + (17.27*tempC)/(tempC+237.3)
	return (237.3 * gamma) / (17.27 - gamma), nil
}

// DewPointDepression computes the spread between air temperature and dew
// point in °C. Drying modes control against this differential.
func DewPointDepression(tempC, rh float64) (float64, error) {
	dp, err := DewPoint(tempC, rh)
	if err != nil {
		return 0, err
	}
	return tempC - dp, nil
}

// DLIFromPPFD converts an instantaneous PPFD to the daily light integral for
// the given photoperiod length in hours.
func DLIFromPPFD(ppfd, lightHours float64) (float64, error) {
	if math.IsNaN(ppfd) || ppfd < 0 {
		return 0, fmt.Errorf("ppfd %.2f: %w", ppfd, ErrInvalidMeasurement)
	}
	if math.IsNaN(lightHours) || lightHours <= 0 || lightHours > 24 {
		return 0, fmt.Errorf("light hours %.2f: %w", lightHours, ErrInvalidMeasurement)
	}
	return ppfd * lightHours * 3600.0 / 1e6, nil
}

// PPFDFromDLI converts a daily light integral back to the PPFD required to
// reach it over the given photoperiod length in hours.
func PPFDFromDLI(dli, lightHours float64) (float64, error) {
	if math.IsNaN(dli) || dli < 0 {
		return 0, fmt.Errorf("dli %.2f: %w", dli, ErrInvalidMeasurement)
	}
	if math.IsNaN(lightHours) || lightHours <= 0 || lightHours > 24 {
		return 0, fmt.Errorf("light hours %.2f: %w", lightHours, ErrInvalidMeasurement)
	}
	return dli * 1e6 / (lightHours * 3600.0), nil
}
