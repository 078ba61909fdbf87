package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/swingdesk/internal/api"
	"github.com/newthinker/swingdesk/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var templatesDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SwingDesk server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&templatesDir, "templates", "", "load page templates from this directory instead of the embedded set")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	log := rt.log
	cfg := rt.cfg

	log.Info("starting SwingDesk server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	sched, err := scheduler.New(ctx, cfg.Schedule.Refresh, cfg.Schedule.Timezone, rt.app,
		scheduler.WithLogger(log.Named("scheduler")))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		TemplatesDir: templatesDir,
		APIKey:       cfg.Server.APIKey,
		MetricsPath:  cfg.Metrics.Path,
		JobTTL:       time.Duration(cfg.Server.JobTTLHours) * time.Hour,
		MaxJobs:      cfg.Server.MaxJobs,
	}, api.Dependencies{
		App:         rt.app,
		SignalStore: rt.signals,
		Metrics:     rt.metrics,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down SwingDesk server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
