package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and register every device without solving",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	svc, cfg, err := loadService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	sum, err := svc.Validate()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, err = fmt.Fprintf(out, "scenario %q: %d hours from %s, step %s\ndevices: %s\nvariables: %d\n",
		sum.Scenario, sum.Hours, cfg.Scenario.Start, cfg.Scenario.Step(),
		strings.Join(sum.Devices, ", "), sum.Variables)
	return err
}
