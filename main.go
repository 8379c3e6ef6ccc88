package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"trainload/internal/config"
	"trainload/internal/logging"
	"trainload/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "trainload",
		Short: "Cycling training load: fitness, fatigue and form from your rides",
		Long: `trainload tracks cycling training load from Strava and manually entered rides.

Run without a subcommand to open the terminal dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.trainload/config.json)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.AddCommand(
		newServeCmd(opts),
		newSyncCmd(opts),
		newReportCmd(opts),
		newSnapshotCmd(opts),
		newExportCmd(opts),
		newAuthCmd(opts),
	)
	return root
}

// loadConfig reads and validates the config, applying the --log-level override
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// setup loads the config and sends logs to stderr
func (o *rootOptions) setup() (*config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, os.Stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	out := cmd.OutOrStdout()

	cfg, err := opts.loadConfig()
	if errors.Is(err, config.ErrNoConfig) && opts.configPath == "" {
		fmt.Fprintln(out, "No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Fprintf(out, "\nPlease edit the config file at:\n  %s/config.json\n\n", configDir)
		fmt.Fprintln(out, "Add your Strava API credentials to sync rides.")
		fmt.Fprintln(out, "Get them from: https://www.strava.com/settings/api")
		return nil
	}
	if err != nil {
		return err
	}

	// the dashboard owns the terminal, so logs go to a file
	logDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	logFile, err := logging.SetupFile(cfg.Log.Level, logDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx := cmd.Context()
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	services := tui.Services{
		Load:      a.load,
		Rides:     a.rides,
		Snapshots: a.snapshots,
	}
	syncSvc, client, err := a.newSyncService(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Strava sync unavailable")
	} else {
		services.Sync = syncSvc
		services.Strava = client
	}

	p := tea.NewProgram(tui.NewApp(services, cfg.Display), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
