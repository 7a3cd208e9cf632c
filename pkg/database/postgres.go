package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/demandprep/pkg/config"
)

const pingTimeout = 5 * time.Second

// DB owns the pgx pool shared by the mapping and history stores
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New opens the pool and fails fast when the server is unreachable
func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	poolConfig, err := poolConfig(cfg.Database)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// poolConfig applies the configured limits; zero keeps the pgx default
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pc.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	return pc, nil
}

// Close closes the pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health is what the test-db command reports
type Health struct {
	Latency    time.Duration
	MaxConns   int32
	TotalConns int32
	IdleConns  int32
}

// Check pings the server and snapshots the pool counters
func (db *DB) Check(ctx context.Context) (Health, error) {
	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return Health{}, fmt.Errorf("ping database: %w", err)
	}

	stat := db.Pool.Stat()
	return Health{
		Latency:    time.Since(start),
		MaxConns:   stat.MaxConns(),
		TotalConns: stat.TotalConns(),
		IdleConns:  stat.IdleConns(),
	}, nil
}
