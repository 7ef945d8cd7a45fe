package dampening

import "github.com/opengrow-box/growd/internal/types"

// Intent magnitudes. Fine-tune nudges use half steps.
const (
	FullStep     = 1.0
	FineTuneStep = 0.5
)

func opposite(d types.Direction) types.Direction {
	switch d {
	case types.DirIncrease:
		return types.DirReduce
	case types.DirReduce:
		return types.DirIncrease
	default:
		return d
	}
}

// FanOutVPD expands a VPD-axis decision into per-capability intents.
// Raising VPD means drying and warming the air: exhaust up, humidifier
// down, dehumidifier up, heater up, intake and cooler down. Lowering VPD
// is the mirror image.
func FanOutVPD(dir types.Direction, magnitude float64, reason string) []types.ActionIntent {
	if dir != types.DirIncrease && dir != types.DirReduce {
		return nil
	}
	mk := func(c types.Capability, d types.Direction, prio types.IntentPriority) types.ActionIntent {
		return types.ActionIntent{
			Capability: c,
			Direction:  d,
			Axis:       types.AxisVPD,
			Reason:     reason,
			Magnitude:  magnitude,
			Priority:   prio,
		}
	}
	return []types.ActionIntent{
		mk(types.CanExhaust, dir, types.PriorityPrimary),
		mk(types.CanDehumidify, dir, types.PriorityPrimary),
		mk(types.CanHumidify, opposite(dir), types.PriorityPrimary),
		mk(types.CanHeat, dir, types.PriorityDerived),
		mk(types.CanCool, opposite(dir), types.PriorityDerived),
		mk(types.CanIntake, opposite(dir), types.PriorityDerived),
	}
}

// FanOutTemperature expands a temperature-axis decision (drying modes,
// emergency bounds) into capability intents.
func FanOutTemperature(dir types.Direction, prio types.IntentPriority, reason string) []types.ActionIntent {
	if dir != types.DirIncrease && dir != types.DirReduce {
		return nil
	}
	mk := func(c types.Capability, d types.Direction, p types.IntentPriority) types.ActionIntent {
		return types.ActionIntent{
			Capability: c,
			Direction:  d,
			Axis:       types.AxisTemperature,
			Reason:     reason,
			Magnitude:  FullStep,
			Priority:   p,
		}
	}
	return []types.ActionIntent{
		mk(types.CanHeat, dir, prio),
		mk(types.CanCool, opposite(dir), prio),
		// More exhaust sheds heat, so its direction opposes the
		// temperature demand.
		mk(types.CanExhaust, opposite(dir), types.PriorityDerived),
	}
}

// FanOutHumidity expands a humidity-axis decision into capability intents.
func FanOutHumidity(dir types.Direction, prio types.IntentPriority, reason string) []types.ActionIntent {
	if dir != types.DirIncrease && dir != types.DirReduce {
		return nil
	}
	mk := func(c types.Capability, d types.Direction, p types.IntentPriority) types.ActionIntent {
		return types.ActionIntent{
			Capability: c,
			Direction:  d,
			Axis:       types.AxisHumidity,
			Reason:     reason,
			Magnitude:  FullStep,
			Priority:   p,
		}
	}
	return []types.ActionIntent{
		mk(types.CanHumidify, dir, prio),
		mk(types.CanDehumidify, opposite(dir), prio),
		mk(types.CanExhaust, opposite(dir), types.PriorityDerived),
	}
}
