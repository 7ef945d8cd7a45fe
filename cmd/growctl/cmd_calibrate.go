package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/opengrow-box/growd/internal/calibration"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/config"
	"github.com/spf13/cobra"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Manage sensor calibration profiles",
	Long: `Create and list per-sensor calibration profiles. Corrections apply as
corrected = raw*multiplier + offset before readings are aggregated.`,
}

var calibrateOffsetCmd = &cobra.Command{
	Use:   "offset <sensor-id> <measurement>",
	Short: "Single-point offset calibration",
	Long: `Derive an offset correction from one reading taken next to a trusted
reference instrument. The multiplier stays 1.`,
	Args: cobra.ExactArgs(2),
	RunE: runCalibrateOffset,
}

var calibrateLinearCmd = &cobra.Command{
	Use:   "linear <sensor-id> <measurement>",
	Short: "Two-point linear calibration",
	Long: `Derive a multiplier and offset from two readings taken at a low and a
high reference point. The two raw values must differ.`,
	Args: cobra.ExactArgs(2),
	RunE: runCalibrateLinear,
}

var calibrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored calibration profiles",
	RunE:  runCalibrateList,
}

var (
	calRaw       float64
	calReference float64
	calRawLow    float64
	calRefLow    float64
	calRawHigh   float64
	calRefHigh   float64
)

func init() {
	rootCmd.AddCommand(calibrateCmd)
	calibrateCmd.AddCommand(calibrateOffsetCmd)
	calibrateCmd.AddCommand(calibrateLinearCmd)
	calibrateCmd.AddCommand(calibrateListCmd)

	calibrateOffsetCmd.Flags().Float64Var(&calRaw, "raw", 0, "Raw sensor reading")
	calibrateOffsetCmd.Flags().Float64Var(&calReference, "reference", 0, "Reference instrument reading")
	calibrateOffsetCmd.MarkFlagRequired("raw")
	calibrateOffsetCmd.MarkFlagRequired("reference")

	calibrateLinearCmd.Flags().Float64Var(&calRawLow, "raw-low", 0, "Raw reading at the low reference point")
	calibrateLinearCmd.Flags().Float64Var(&calRefLow, "ref-low", 0, "Reference value at the low point")
	calibrateLinearCmd.Flags().Float64Var(&calRawHigh, "raw-high", 0, "Raw reading at the high reference point")
	calibrateLinearCmd.Flags().Float64Var(&calRefHigh, "ref-high", 0, "Reference value at the high point")
	calibrateLinearCmd.MarkFlagRequired("raw-low")
	calibrateLinearCmd.MarkFlagRequired("ref-low")
	calibrateLinearCmd.MarkFlagRequired("raw-high")
	calibrateLinearCmd.MarkFlagRequired("ref-high")
}

var validMeasurements = map[types.MeasurementType]bool{
	types.MeasureTemperature: true,
	types.MeasureHumidity:    true,
	types.MeasureCO2:         true,
	types.MeasurePPFD:        true,
	types.MeasureLux:         true,
	types.MeasurePH:          true,
	types.MeasureEC:          true,
	types.MeasureMoisture:    true,
}

func parseMeasurement(s string) (types.MeasurementType, error) {
	m := types.MeasurementType(s)
	if !validMeasurements[m] {
		return "", fmt.Errorf("invalid measurement type: %s", s)
	}
	return m, nil
}

func runCalibrateOffset(cmd *cobra.Command, args []string) error {
	measurement, err := parseMeasurement(args[1])
	if err != nil {
		return err
	}

	profile := calibration.SinglePointOffset(args[0], measurement, calRaw, calReference)
	if err := storeProfile(profile); err != nil {
		return err
	}
	fmt.Printf("Calibrated %s/%s: offset %+.3f\n", profile.SensorID, profile.Measurement, profile.Offset)
	return nil
}

func runCalibrateLinear(cmd *cobra.Command, args []string) error {
	measurement, err := parseMeasurement(args[1])
	if err != nil {
		return err
	}

	profile, err := calibration.TwoPointLinear(args[0], measurement, calRawLow, calRefLow, calRawHigh, calRefHigh)
	if err != nil {
		return err
	}
	if err := storeProfile(profile); err != nil {
		return err
	}
	fmt.Printf("Calibrated %s/%s: multiplier %.4f, offset %+.3f\n",
		profile.SensorID, profile.Measurement, profile.Multiplier, profile.Offset)
	return nil
}

func runCalibrateList(cmd *cobra.Command, args []string) error {
	provider, err := openProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	cals, err := provider.GetCalibrations()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SENSOR\tMEASUREMENT\tMULTIPLIER\tOFFSET\tCALIBRATED")
	for _, c := range cals {
		calibrated := "-"
		if !c.LastCalibrated.IsZero() {
			calibrated = c.LastCalibrated.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%+.3f\t%s\n",
			c.SensorID, c.Measurement, c.Multiplier, c.Offset, calibrated)
	}
	return w.Flush()
}

func storeProfile(p calibration.Profile) error {
	provider, err := openWritableProvider()
	if err != nil {
		return err
	}
	defer provider.Close()

	return provider.UpsertCalibration(config.CalibrationData{
		SensorID:         p.SensorID,
		Measurement:      string(p.Measurement),
		Offset:           p.Offset,
		Multiplier:       p.Multiplier,
		ReferenceReading: p.ReferenceReading,
		LastCalibrated:   p.LastCalibrated,
	})
}
