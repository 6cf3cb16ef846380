package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/windward/internal/app"
	"github.com/okian/windward/internal/config"
	"github.com/okian/windward/pkg/logger"
)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	log := logger.Named("windward")

	var cfgPath string
	var outputDir string

	root := &cobra.Command{
		Use:     "windward",
		Short:   "Fuse race telemetry logs into leg reports and polar performance tables",
		Version: getVersion(),
		Example: "  windward run --config regatta.yaml\n" +
			"  windward merge --config regatta.yaml season.json worlds.json",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to regatta config (default: $WINDWARD_CONFIG)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Process the regatta's race logs and emit reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx, cfgPath)
			if err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			svc := service.New(cfg, service.WithLogger(log))
			result, err := svc.Run(ctx)
			if err != nil {
				return err
			}

			failed := 0
			for _, race := range result.Races {
				if race.Err != nil {
					failed++
					log.Error(ctx, "race failed",
						logger.String("race", race.Race),
						logger.Error(race.Err))
				}
			}
			if cfg.OutputDir != "" {
				if err := svc.Emit(ctx, cfg.OutputDir, result); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d races failed", failed, len(result.Races))
			}
			return nil
		},
	}
	run.Flags().StringVarP(&outputDir, "output", "o", "", "report directory (overrides config)")

	merge := &cobra.Command{
		Use:   "merge <table.json>...",
		Short: "Merge persisted polar tables across regattas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx, cfgPath)
			if err != nil {
				return err
			}
			if cfg.PolarPath == "" {
				return fmt.Errorf("merge requires polar_path in the config")
			}
			svc := service.New(cfg, service.WithLogger(log))
			table, err := svc.MergePolars(ctx, args)
			if err != nil {
				return err
			}
			if err := svc.SavePolars(ctx, cfg.PolarPath, table); err != nil {
				return err
			}
			log.Info(ctx, "tables merged",
				logger.Int("inputs", len(args)),
				logger.String("output", cfg.PolarPath))
			return nil
		},
	}

	root.AddCommand(run, merge)

	if err := root.Execute(); err != nil {
		log.Error(context.Background(), "windward", logger.Error(err))
		os.Exit(1)
	}
}
