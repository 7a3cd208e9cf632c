package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Data layout
	Paths PathsConfig

	// StoreBackend selects where mappings and processed data live: file | postgres
	StoreBackend string

	// PipelineConfig is the YAML file with algorithm parameters (optional)
	PipelineConfig string

	// Database
	Database DatabaseConfig

	// Redis (mapping store locks)
	Redis RedisConfig

	// API
	API APIConfig

	// Scheduler
	ReprocessSchedule string
	ReprocessMode     string // weekly | daily

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// PathsConfig holds the file system layout of the data directories
type PathsConfig struct {
	RawDir       string
	ProcessedDir string
	BackupDir    string
	MappingsDir  string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	LockTTL  time.Duration
}

// APIConfig holds HTTP API throttling and upload limits
type APIConfig struct {
	RateLimit     float64 // requests per second
	RateBurst     int
	MaxUploadSize int64 // bytes
	UploadDir     string

	// a full reprocessing of an upload happens inside one request
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "5002"),
		Env:  getEnv("ENV", "development"),

		Paths: PathsConfig{
			RawDir:       getEnv("DATA_RAW_DIR", "./data/historical/raw"),
			ProcessedDir: getEnv("DATA_PROCESSED_DIR", "./data/historical/processed"),
			BackupDir:    getEnv("DATA_BACKUP_DIR", "./data/historical/backup"),
			MappingsDir:  getEnv("MAPPINGS_DIR", "./data/mappings"),
		},

		StoreBackend:   getEnv("STORE_BACKEND", "file"),
		PipelineConfig: getEnv("PIPELINE_CONFIG", ""),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			LockTTL:  getEnvAsDuration("REDIS_LOCK_TTL", "2m"),
		},

		API: APIConfig{
			RateLimit:     getEnvAsFloat("API_RATE_LIMIT", 2),
			RateBurst:     getEnvAsInt("API_RATE_BURST", 4),
			MaxUploadSize: int64(getEnvAsInt("API_MAX_UPLOAD_MB", 64)) << 20,
			UploadDir:     getEnv("API_UPLOAD_DIR", os.TempDir()),

			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", "5m"),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", "30s"),
		},

		ReprocessSchedule: getEnv("SCHEDULE_REPROCESS", "0 0 3 * * *"),
		ReprocessMode:     getEnv("REPROCESS_MODE", "weekly"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// UsesPostgres reports whether mappings and processed data live in PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.StoreBackend == "postgres"
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.StoreBackend {
	case "file":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: file, postgres (got %q)", c.StoreBackend)
	}

	if c.ReprocessMode != "weekly" && c.ReprocessMode != "daily" {
		return fmt.Errorf("REPROCESS_MODE must be one of: weekly, daily")
	}

	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		return fmt.Errorf("API_RATE_LIMIT and API_RATE_BURST must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
