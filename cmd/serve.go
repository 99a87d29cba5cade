package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/assetfin/api/projects"
	"github.com/kilianp07/assetfin/core/model"
	"github.com/kilianp07/assetfin/infra/logger"
	"github.com/kilianp07/assetfin/infra/portfolio"
	"github.com/kilianp07/assetfin/jobs/revalue"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the valuation API",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	log := logger.New("main")
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	svc.Start(ctx)
	cfg := svc.Config()

	if cfg.Jobs.Enabled {
		sched := revalue.NewScheduler(ctx, logger.New("jobs"))
		job := revalue.Portfolios{
			Files: cfg.Jobs.Portfolios,
			Load:  portfolio.Load,
			Value: func(ctx context.Context, p model.Portfolio) error {
				_, err := svc.Calculate(ctx, p, svc.Options())
				return err
			},
		}
		if err := sched.AddJob(cfg.Jobs.Schedule, job); err != nil {
			return fmt.Errorf("schedule revaluation: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := projects.NewServer(cfg.Server.Addr,
		projects.NewRouter(svc, logger.New("api"), cfg.Server.AllowedOrigins))
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Infof("shutting down")
	return srv.Shutdown(shutdownCtx)
}
