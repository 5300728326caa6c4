package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/imi/internal/api"
	"github.com/wonny/imi/internal/api/handlers"
	"github.com/wonny/imi/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작 (/api/imi/*, /api/forecast/*, /api/contact)
- 웹소켓 실시간 피드 (/ws/signals)
- --scheduler 또는 SCHEDULER_ENABLED=true 이면 스케줄러 동시 실행

Example:
  go run ./cmd/imi api
  go run ./cmd/imi api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값: PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== IMI API Server ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(api.Handlers{
		Signals:  handlers.NewSignalHandler(a.svc, a.importer, a.log),
		Users:    handlers.NewUserHandler(a.svc, a.log),
		Catalog:  handlers.NewCatalogHandler(a.svc, a.log),
		Forecast: handlers.NewForecastHandler(a.forecast, a.relay, a.log),
		Realtime: a.hub,
	}, a.cfg.CORSOrigin, a.log)

	server := api.New(a.cfg, a.log, router)

	var sched *scheduler.Scheduler
	if apiScheduler || a.cfg.SchedulerEnabled {
		if sched, err = a.newScheduler(); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s (store: %s)\n", a.cfg.Port, a.cfg.Store.Backend)
	if sched != nil {
		fmt.Printf("   Scheduler jobs: %v\n", sched.Jobs())
	}
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
