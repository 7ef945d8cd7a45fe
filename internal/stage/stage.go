// Package stage resolves a room's plant type, phase kind, and elapsed grow
// time to the week's environmental targets.
package stage

import (
	"fmt"
	"strings"
	"time"

	"github.com/opengrow-box/growd/internal/types"
)

// CurrentWeek converts elapsed days since the grow reference date into a
// 1-based week index.
func CurrentWeek(elapsedDays int) int {
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return elapsedDays/7 + 1
}

// Resolve looks up the week targets for the given plant type and phase kind.
// Weeks past the end of the table reuse the last entry; the plateau applies
// to both the VPD range and the DLI target.
func Resolve(plantType, phase string, elapsedDays int) (WeekTarget, error) {
	phases, ok := profileTables[strings.ToLower(plantType)]
	if !ok {
		return WeekTarget{}, fmt.Errorf("no stage table for plant type %q: %w", plantType, types.ErrStageResolution)
	}
	table, ok := phases[strings.ToLower(phase)]
	if !ok || len(table) == 0 {
		return WeekTarget{}, fmt.Errorf("no stage table for plant type %q phase %q: %w", plantType, phase, types.ErrStageResolution)
	}

	week := CurrentWeek(elapsedDays)
	if week > len(table) {
		return table[len(table)-1], nil
	}
	return table[week-1], nil
}

// ResolveWithBloom resolves week targets for a photoperiod grow where the
// operator controls the flip to flower. While bloomDays is negative (no flip
// recorded yet) the week index is clamped to the last vegetative entry; after
// the flip it advances from the table's first flowering week. Autoflower
// tables ignore the flip and should use Resolve directly.
func ResolveWithBloom(plantType, phase string, growDays, bloomDays int) (WeekTarget, error) {
	phases, ok := profileTables[strings.ToLower(plantType)]
	if !ok {
		return WeekTarget{}, fmt.Errorf("no stage table for plant type %q: %w", plantType, types.ErrStageResolution)
	}
	table, ok := phases[strings.ToLower(phase)]
	if !ok || len(table) == 0 {
		return WeekTarget{}, fmt.Errorf("no stage table for plant type %q phase %q: %w", plantType, phase, types.ErrStageResolution)
	}

	flowerStart := flowerStartWeek(table)
	if flowerStart == 0 {
		// Table has no flowering section; plain elapsed-week lookup.
		return Resolve(plantType, phase, growDays)
	}

	var week int
	if bloomDays < 0 {
		week = CurrentWeek(growDays)
		if week >= flowerStart {
			week = flowerStart - 1
		}
	} else {
		week = flowerStart + bloomDays/7
	}
	if week > len(table) {
		week = len(table)
	}
	return table[week-1], nil
}

// flowerStartWeek returns the 1-based week a table enters its flowering (or
// fruiting) section, or 0 when it has none.
func flowerStartWeek(table []WeekTarget) int {
	for i, w := range table {
		s := strings.ToLower(w.Stage)
		if strings.Contains(s, "flower") || strings.Contains(s, "fruit") {
			return i + 1
		}
	}
	return 0
}

// ElapsedDays computes whole days between the grow reference date and now.
func ElapsedDays(start, now time.Time) int {
	return int(now.Sub(start).Hours() / 24)
}

// PerfectionTarget returns the VPD perfection point for a week: the middle
// of the stage's range.
func (w WeekTarget) PerfectionTarget() float64 {
	return (w.VPDMin + w.VPDMax) / 2
}

// VPDControlTarget builds the decision engine's target for VPD-Perfection
// mode from this week's range.
func (w WeekTarget) VPDControlTarget() types.ControlTarget {
	return types.ControlTarget{
		Mode:   types.ModeVPDPerfection,
		Target: w.PerfectionTarget(),
		Min:    w.VPDMin,
		Max:    w.VPDMax,
	}
}

// UserVPDControlTarget builds the decision engine's target for VPD-Target
// mode: a user-set target with a symmetric percentage tolerance band.
func UserVPDControlTarget(target, tolerancePercent float64) types.ControlTarget {
	band := target * tolerancePercent / 100.0
	return types.ControlTarget{
		Mode:   types.ModeVPDTarget,
		Target: target,
		Min:    target - band,
		Max:    target + band,
	}
}

// PlantTypes lists the plant types with built-in stage tables.
func PlantTypes() []string {
	out := make([]string, 0, len(profileTables))
	for k := range profileTables {
		out = append(out, k)
	}
	return out
}
