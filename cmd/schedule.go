package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/timkosters/edge-city-finder/internal/pipeline"
)

var scheduleCron string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run discovery on a recurring schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		spec := scheduleCron
		if spec == "" {
			spec = cfg.Schedule.Cron
		}

		c := cron.New()
		_, err = c.AddFunc(spec, func() {
			result, err := env.Pipeline.Run(ctx, pipeline.Request{Verify: cfg.Schedule.Verify})
			if err != nil {
				// A run still in flight is not worth an error log.
				if errors.Is(err, pipeline.ErrRunInProgress) {
					zap.L().Warn("scheduled run skipped, previous run still in progress")
					return
				}
				zap.L().Error("scheduled run failed", zap.Error(err))
				return
			}
			zap.L().Info("scheduled run complete",
				zap.Int("discovered", result.Discovered),
				zap.Int("qualified", result.Qualified))
		})
		if err != nil {
			return eris.Wrapf(err, "invalid cron expression %q", spec)
		}

		zap.L().Info("scheduler started", zap.String("cron", spec))
		c.Start()
		<-ctx.Done()

		zap.L().Info("stopping scheduler")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (default from config)")
	rootCmd.AddCommand(scheduleCmd)
}
