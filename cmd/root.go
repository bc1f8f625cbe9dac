package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyplan/app"
	"github.com/kilianp07/energyplan/config"
	"github.com/kilianp07/energyplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "energyplan",
	Short:         "Hourly energy planner",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPlan,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadService reads the configuration, applies the log level and builds the
// service.
func loadService() (*app.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}
