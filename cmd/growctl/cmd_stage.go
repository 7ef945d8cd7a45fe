package main

import (
	"fmt"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Manage growth-stage settings",
	Long: `Set the plant type, phase, and reference dates that drive a room's
week-by-week environmental targets.`,
}

var stageSetCmd = &cobra.Command{
	Use:   "set <room>",
	Short: "Update a room's growth-stage settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runStageSet,
}

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Manage room control modes",
}

var modeSetCmd = &cobra.Command{
	Use:   "set <room> <mode>",
	Short: "Switch a room's control mode",
	Long: `Switch a room's control mode. Valid modes:
  vpd-perfection     stage-derived VPD window
  vpd-target         fixed VPD target (requires --target-vpd)
  drying-elclassico  day-indexed temperature/humidity drying schedule
  drying-dewbased    dew-point depression drying
  drying-5day        fixed 5-day drying ramp
  disabled           emergency overrides only`,
	Args: cobra.ExactArgs(2),
	RunE: runModeSet,
}

var (
	stagePlantType   string
	stagePhase       string
	stageGrowStart   string
	stageBloomSwitch string
	stageDryStart    string

	modeTargetVPD float64
	modeTolerance float64
)

func init() {
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(modeCmd)
	stageCmd.AddCommand(stageSetCmd)
	modeCmd.AddCommand(modeSetCmd)

	stageSetCmd.Flags().StringVar(&stagePlantType, "plant-type", "", "Plant type (cannabis, tomato)")
	stageSetCmd.Flags().StringVar(&stagePhase, "phase", "", "Growth phase (photoperiod, autoflower)")
	stageSetCmd.Flags().StringVar(&stageGrowStart, "grow-start", "", "Grow start date (2026-03-01)")
	stageSetCmd.Flags().StringVar(&stageBloomSwitch, "bloom-switch", "", "Bloom switch date for photoperiod plants (2026-04-15)")
	stageSetCmd.Flags().StringVar(&stageDryStart, "dry-start", "", "Drying start date (2026-06-01)")

	modeSetCmd.Flags().Float64Var(&modeTargetVPD, "target-vpd", 0, "Target VPD in kPa for vpd-target mode")
	modeSetCmd.Flags().Float64Var(&modeTolerance, "tolerance", 0, "Tolerance band in percent for vpd-target mode")
}

func runStageSet(cmd *cobra.Command, args []string) error {
	provider, err := openWritableProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	room, err := provider.GetRoom(args[0])
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("unknown room: %s", args[0])
	}

	for _, d := range []string{stageGrowStart, stageBloomSwitch, stageDryStart} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", d)
		}
	}

	changed := false
	if stagePlantType != "" {
		room.PlantType = stagePlantType
		changed = true
	}
	if stagePhase != "" {
		if stagePhase != "photoperiod" && stagePhase != "autoflower" {
			return fmt.Errorf("invalid phase %q, expected photoperiod or autoflower", stagePhase)
		}
		room.Phase = stagePhase
		changed = true
	}
	if stageGrowStart != "" {
		room.GrowStart = stageGrowStart
		changed = true
	}
	if stageBloomSwitch != "" {
		room.BloomSwitch = stageBloomSwitch
		changed = true
	}
	if stageDryStart != "" {
		room.DryStart = stageDryStart
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to change; pass at least one of --plant-type, --phase, --grow-start, --bloom-switch, --dry-start")
	}

	if err := provider.UpdateRoom(*room); err != nil {
		return fmt.Errorf("error updating room: %w", err)
	}
	fmt.Printf("Updated stage settings for room %s\n", room.Name)
	return nil
}

var validModes = map[types.ControlMode]bool{
	types.ModeVPDPerfection: true,
	types.ModeVPDTarget:     true,
	types.ModeDryElClassico: true,
	types.ModeDryDewBased:   true,
	types.ModeDryFiveDay:    true,
	types.ModeDisabled:      true,
}

func runModeSet(cmd *cobra.Command, args []string) error {
	mode := types.ControlMode(args[1])
	if !validModes[mode] {
		return fmt.Errorf("invalid mode: %s", args[1])
	}
	if mode == types.ModeVPDTarget && modeTargetVPD <= 0 {
		return fmt.Errorf("vpd-target mode requires --target-vpd")
	}

	provider, err := openWritableProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	room, err := provider.GetRoom(args[0])
	if err != nil {
		return err
	}
	if room == nil {
		return fmt.Errorf("unknown room: %s", args[0])
	}

	room.Mode = string(mode)
	if modeTargetVPD > 0 {
		room.TargetVPD = modeTargetVPD
	}
	if modeTolerance > 0 {
		room.TolerancePercent = modeTolerance
	}

	if err := provider.UpdateRoom(*room); err != nil {
		return fmt.Errorf("error updating room: %w", err)
	}
	fmt.Printf("Room %s switched to mode %s\n", room.Name, mode)
	return nil
}
