package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/opengrow-box/growd/internal/types"
	"github.com/spf13/cobra"
)

var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Inspect managed rooms",
	Long:  `List rooms and show per-room state from a running growd daemon.`,
}

var roomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all managed rooms",
	RunE:  runRoomList,
}

var roomStatusCmd = &cobra.Command{
	Use:   "status <room>",
	Short: "Show the latest cycle snapshot for a room",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomStatus,
}

var roomEventsCmd = &cobra.Command{
	Use:   "events <room>",
	Short: "Show recent control-cycle events for a room",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomEvents,
}

var eventLimit int

func init() {
	rootCmd.AddCommand(roomCmd)
	roomCmd.AddCommand(roomListCmd)
	roomCmd.AddCommand(roomStatusCmd)
	roomCmd.AddCommand(roomEventsCmd)
	roomEventsCmd.Flags().IntVar(&eventLimit, "limit", 20, "Maximum number of events to show")
}

// roomSummary mirrors the daemon's room list response.
type roomSummary struct {
	Name    string             `json:"name"`
	Mode    string             `json:"mode"`
	Outcome types.CycleOutcome `json:"last_outcome,omitempty"`
	Updated *time.Time         `json:"updated,omitempty"`
}

func runRoomList(cmd *cobra.Command, args []string) error {
	var rooms []roomSummary
	if err := apiGet("/rooms", &rooms); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ROOM\tMODE\tOUTCOME\tUPDATED")
	for _, r := range rooms {
		updated := "-"
		if r.Updated != nil {
			updated = r.Updated.Local().Format(time.RFC3339)
		}
		outcome := string(r.Outcome)
		if outcome == "" {
			outcome = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.Mode, outcome, updated)
	}
	return w.Flush()
}

func runRoomStatus(cmd *cobra.Command, args []string) error {
	var snap types.RoomSnapshot
	if err := apiGet("/rooms/"+args[0]+"/latest", &snap); err != nil {
		return err
	}

	fmt.Printf("Room:     %s\n", snap.State.Room)
	fmt.Printf("Outcome:  %s\n", snap.Outcome)
	fmt.Printf("Mode:     %s (target %.2f, range %.2f-%.2f)\n",
		snap.Target.Mode, snap.Target.Target, snap.Target.Min, snap.Target.Max)
	fmt.Printf("Updated:  %s\n\n", snap.State.Timestamp.Local().Format(time.RFC3339))

	printMetric("Temperature", snap.State.Temperature, "°C")
	printMetric("Humidity", snap.State.Humidity, "%RH")
	printMetric("VPD", snap.State.VPD, "kPa")
	printMetric("Dew point", snap.State.DewPoint, "°C")
	printMetric("PPFD", snap.State.PPFD, "µmol/m²/s")
	printMetric("DLI", snap.State.DLI, "mol/m²/d")
	printMetric("CO2", snap.State.CO2, "ppm")
	printMetric("Soil moisture", snap.State.SoilMoisture, "%")

	if len(snap.Actions) > 0 {
		fmt.Println("\nLast actions:")
		for _, a := range snap.Actions {
			if a.AbsoluteValue != nil {
				fmt.Printf("  %s %s -> %.0f%%\n", a.DeviceID, a.Capability, *a.AbsoluteValue)
				continue
			}
			fmt.Printf("  %s %s %s (step %.1f)\n", a.DeviceID, a.Capability, a.Direction, a.Magnitude)
		}
	}
	return nil
}

func runRoomEvents(cmd *cobra.Command, args []string) error {
	var events []types.CycleEvent
	if err := apiGet(fmt.Sprintf("/rooms/%s/events?limit=%d", args[0], eventLimit), &events); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOUTCOME\tACTIONS\tREASON")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Outcome, e.Actions, e.Reason)
	}
	return w.Flush()
}

func printMetric(label string, m types.Metric, unit string) {
	if !m.Valid {
		fmt.Printf("%-14s unavailable\n", label+":")
		return
	}
	fmt.Printf("%-14s %.2f %s\n", label+":", m.Value, unit)
}

// apiGet fetches a JSON document from the daemon's REST API.
func apiGet(path string, out any) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("could not reach growd at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("growd: %s", apiErr.Error)
		}
		return fmt.Errorf("growd returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
