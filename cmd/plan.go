package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyplan/infra/logger"
	"github.com/kilianp07/energyplan/pkg/export"
)

var (
	planFormat string
	planOut    string
	planServe  bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Solve the configured scenario and print the schedule",
	RunE:  runPlan,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, planCmd} {
		c.Flags().StringVarP(&planFormat, "format", "f", "table", "output format: table, csv, json, yaml or html")
		c.Flags().StringVarP(&planOut, "out", "o", "", "write the schedule to a file instead of stdout")
		c.Flags().BoolVar(&planServe, "serve", false, "keep serving /metrics after planning until interrupted")
	}
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	svc, _, err := loadService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	if planServe {
		go func() {
			if err := svc.ServeMetrics(ctx); err != nil {
				logger.New("main").Errorf("metrics server: %v", err)
			}
		}()
	}

	plan, err := svc.Plan(ctx)
	if err != nil {
		if plan.PlanID != "" {
			return fmt.Errorf("plan %s (%s): %w", plan.PlanID, plan.Status, err)
		}
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if planOut != "" {
		f, err := os.Create(planOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logger.New("main").Errorf("close output: %v", cerr)
			}
		}()
		w = f
	}
	if err := export.Write(w, planFormat, plan); err != nil {
		return err
	}

	if planServe {
		<-ctx.Done()
	}
	return nil
}
