package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/demandprep/pkg/config"
	"github.com/wonny/demandprep/pkg/database"
	"github.com/wonny/demandprep/pkg/redis"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "PostgreSQL / Redis 연결 테스트",
	Long: `데이터베이스 연결을 테스트하고 스키마를 준비합니다.

이 명령어는:
- config에서 DATABASE_URL 로드
- 데이터베이스 연결 생성 및 Health Check
- feature_mappings / processed_sales 테이블 생성 (없을 때)
- REDIS_ENABLED=true 이면 Redis Ping

Example:
  go run ./cmd/demandprep test-db
  go run ./cmd/demandprep test-db --env production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== demandprep Database Connection Test ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s, backend: %s)\n", cfg.Env, cfg.StoreBackend)
	if cfg.Database.URL == "" {
		return fmt.Errorf("❌ DATABASE_URL is not set")
	}
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Connecting to database...")
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	health, err := db.Check(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}
	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Response Time: %v\n", health.Latency)

	fmt.Println("Ensuring schema...")
	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("❌ Schema migration failed: %w", err)
	}
	fmt.Println("✅ feature_mappings, processed_sales ready")

	fmt.Println("\n📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", health.MaxConns)
	fmt.Printf("   Total Connections: %d\n", health.TotalConns)
	fmt.Printf("   Idle Connections: %d\n", health.IdleConns)

	if cfg.Redis.Enabled {
		fmt.Println("\nConnecting to Redis...")
		rdb, err := redis.New(cfg)
		if err != nil {
			return fmt.Errorf("❌ Redis connection failed: %w", err)
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			return fmt.Errorf("❌ Redis ping failed: %w", err)
		}
		fmt.Println("✅ Redis ping successful")
	}

	fmt.Println("\n✅ All tests passed!")
	return nil
}

// maskPassword hides the password part of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
