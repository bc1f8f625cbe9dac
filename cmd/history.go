package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyplan/core/planlog"
)

var (
	histSince  string
	histUntil  string
	histStatus string
	histDevice string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past plans from the plan log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&histSince, "since", "", "only plans at or after this RFC3339 time")
	historyCmd.Flags().StringVar(&histUntil, "until", "", "only plans at or before this RFC3339 time")
	historyCmd.Flags().StringVar(&histStatus, "status", "", "filter on solver status")
	historyCmd.Flags().StringVar(&histDevice, "device", "", "filter on a registered device name")
	rootCmd.AddCommand(historyCmd)
}

func parseTime(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	q := planlog.Query{Status: histStatus, Device: histDevice}
	var err error
	if q.Start, err = parseTime("since", histSince); err != nil {
		return err
	}
	if q.End, err = parseTime("until", histUntil); err != nil {
		return err
	}

	svc, _, err := loadService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	recs, err := svc.History(ctx, q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tTIME\tSCENARIO\tHOURS\tSTATUS\tOBJECTIVE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%.2f\n",
			r.PlanID, r.Timestamp.Format(time.RFC3339), r.Scenario, r.Hours, r.Status, r.Objective)
	}
	return tw.Flush()
}
