package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/internal/api"
	"github.com/wonny/demandprep/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                  - Health check
  GET  /metrics                 - Prometheus metrics (METRICS_ENABLED)
  POST /api/export-sales-data   - CSV 업로드 + 전처리 (multipart: file, metadata)
  POST /api/prepare-prediction  - 예측 요청 JSON → 피처

Example:
  go run ./cmd/demandprep api
  go run ./cmd/demandprep api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandprep API Server ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	handler := handlers.NewPreprocessHandler(a.orch, a.cfg.API.UploadDir, a.cfg.API.MaxUploadSize, log)
	router := api.NewRouter(handler, a.cfg.API, a.metrics, log)
	server := api.New(a.cfg, log, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	if a.metrics != nil {
		fmt.Println("  GET  /metrics")
	}
	fmt.Println("  POST /api/export-sales-data")
	fmt.Println("  POST /api/prepare-prediction")
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("api server: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
