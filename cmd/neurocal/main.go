package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"neurocal/internal/bootstrap"
	"neurocal/internal/platform/config"
	"neurocal/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	backend    string
	logFile    string
	env        string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "neurocal",
		Short:         "EEG calibration sequences and live metric display",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "EEG backend base URL")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "log file for interactive commands")
	root.PersistentFlags().StringVar(&flags.env, "env", "", "environment: production|development")

	root.AddCommand(newCalibrationCmd(flags, bootstrap.PlanCogload, "Run the cognitive load calibration"))
	root.AddCommand(newCalibrationCmd(flags, bootstrap.PlanFocus, "Run the focus calibration"))
	root.AddCommand(newMonitorCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newPlanCmd(flags))
	root.AddCommand(newRunsCmd(flags))
	return root
}

// loadConfig resolves defaults, file, .env and environment, then applies flags.
func loadConfig(flags *globalFlags) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.backend != "" {
		cfg.BackendURL = flags.backend
	}
	if flags.logFile != "" {
		cfg.LogFile = flags.logFile
	}
	if flags.env != "" {
		cfg.Environment = flags.env
	}
	return cfg, cfg.Validate()
}

// fileLogger sends logs to the configured file; the terminal belongs to the UI.
func fileLogger(cfg config.Config) (zerolog.Logger, io.Closer, error) {
	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return logging.Setup(cfg.Environment, f), f, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newCalibrationCmd(flags *globalFlags, plan, short string) *cobra.Command {
	var launch bool
	cmd := &cobra.Command{
		Use:   plan,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("launch") {
				cfg.LaunchStimulus = launch
			}
			logger, closer, err := fileLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signalContext()
			defer stop()
			app, err := bootstrap.NewCalibration(ctx, cfg, plan, logger)
			if err != nil {
				return err
			}
			logger.Info().Str("plan", plan).Str("backend", cfg.BackendURL).Msg("calibration session opened")
			return bootstrap.RunCalibration(ctx, app)
		},
	}
	cmd.Flags().BoolVar(&launch, "launch", false, "open stimulus clips with the system player")
	return cmd
}

func newMonitorCmd(flags *globalFlags) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show a live, smoothed metric from the backend",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if metric != "" {
				cfg.SelectMetric(metric)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, closer, err := fileLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			app, err := bootstrap.NewMonitor(cfg, logger)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return bootstrap.RunMonitor(ctx, app)
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "", "metric to display: focus|cogload")
	return cmd
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr, videos, db string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference EEG backend",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if videos != "" {
				cfg.Serve.VideosDir = videos
			}
			if db != "" {
				cfg.Serve.DBPath = db
			}
			logger := logging.Setup(cfg.Environment, nil)

			app, err := bootstrap.NewBackend(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error().Err(err).Msg("close journal")
				}
			}()
			ctx, stop := signalContext()
			defer stop()
			return bootstrap.Serve(ctx, cfg.Serve.Addr, app, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&videos, "videos", "", "directory of stimulus clips")
	cmd.Flags().StringVar(&db, "db", "", "SQLite journal path")
	return cmd
}

func newPlanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "plan <cogload|focus>",
		Short:     "Print the resolved plan as an editable plan file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{bootstrap.PlanCogload, bootstrap.PlanFocus},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			plan, err := bootstrap.ResolvePlan(cmd.Context(), cfg, args[0])
			if err != nil {
				return err
			}
			out, err := bootstrap.RenderPlan(plan)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newRunsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List archived calibration runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			history, err := bootstrap.NewRunHistory(cmd.Context(), cfg, zerolog.Nop())
			if err != nil {
				return err
			}
			runs, err := history.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no runs")
				return nil
			}
			for _, r := range runs {
				status := "reported"
				if !r.Reported {
					status = "failed: " + r.ReportError
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\t%s\t%s\n",
					r.FinishedAt.Local().Format("2006-01-02 15:04:05"), r.RunID, r.Plan, r.Records+r.Timestamps, status, r.Path)
			}
			return nil
		},
	}
}
