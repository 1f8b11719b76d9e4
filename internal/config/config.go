package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the dashboard.
type Config struct {
	HTTPPort  string
	JWTSecret []byte
	Subnets   SubnetConfig
	Insights  InsightsConfig
	Pricing   PricingConfig
	Aliases   AliasConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Archive   ArchiveConfig
}

// SubnetConfig restricts read access to the usage endpoints
type SubnetConfig struct {
	Enabled bool
	CIDRs   []string
}

// InsightsConfig holds CloudWatch Logs Insights query settings
type InsightsConfig struct {
	LogGroup     string
	Region       string
	QueryTimeout time.Duration
	PollInterval time.Duration
	DefaultDays  int
	MaxDays      int
}

// PricingConfig holds pricing table settings
type PricingConfig struct {
	FilePath       string
	RegionPrefixes []string
}

// AliasConfig holds user alias settings
type AliasConfig struct {
	FilePath    string
	StripPrefix string
}

// CacheConfig holds query result cache settings
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	ResultTTL time.Duration
	KeyPrefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection settings. URL is optional:
// without it the dashboard runs from file-based pricing and aliases
// and the admin endpoints are disabled.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ArchiveConfig holds configuration for the S3-based snapshot archive
type ArchiveConfig struct {
	Enabled       bool          // Whether to archive usage snapshots to S3
	BufferSize    int           // In-memory queue size
	FlushSize     int           // Flush to S3 after this many records
	FlushInterval time.Duration // Flush to S3 after this duration
	S3Bucket      string        // S3 bucket name
	S3Region      string        // AWS region
	S3Prefix      string        // Prefix for S3 keys (e.g., "usage/")
	PodName       string        // Pod identifier for multi-pod deployments
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	port := getEnvString("HTTP_PORT", "8080")
	jwtSecret := []byte(getEnvString("JWT_SECRET", "supersecretkey"))

	cfg := &Config{
		HTTPPort:  port,
		JWTSecret: jwtSecret,
		Subnets: SubnetConfig{
			Enabled: getEnvString("SUBNETS_ONLY", "false") == "true",
			CIDRs:   getEnvStringSlice("ALLOWED_SUBNETS", nil),
		},
		Insights: InsightsConfig{
			LogGroup:     getEnvString("INSIGHTS_LOG_GROUP", "/aws/bedrock/modelinvocations"),
			Region:       getEnvString("INSIGHTS_REGION", "us-east-1"),
			QueryTimeout: getEnvDuration("INSIGHTS_QUERY_TIMEOUT", 60*time.Second),
			PollInterval: getEnvDuration("INSIGHTS_POLL_INTERVAL", 1*time.Second),
			DefaultDays:  getEnvInt("USAGE_DEFAULT_DAYS", 7),
			MaxDays:      getEnvInt("USAGE_MAX_DAYS", 90),
		},
		Pricing: PricingConfig{
			FilePath:       getEnvString("PRICING_FILE", ""),
			RegionPrefixes: getEnvStringSlice("MODEL_REGION_PREFIXES", []string{"us", "global", "eu", "ap"}),
		},
		Aliases: AliasConfig{
			FilePath:    getEnvString("ALIASES_FILE", ""),
			StripPrefix: getEnvString("USER_STRIP_PREFIX", "bedrock-"),
		},
		Cache: CacheConfig{
			Backend:   getEnvString("CACHE_BACKEND", "memory"),
			ResultTTL: getEnvDuration("CACHE_RESULT_TTL", 10*time.Minute),
			KeyPrefix: getEnvString("CACHE_KEY_PREFIX", "bedrock_usage"),
		},
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Archive: ArchiveConfig{
			Enabled:       getEnvString("ARCHIVE_ENABLED", "false") == "true",
			BufferSize:    getEnvInt("ARCHIVE_BUFFER_SIZE", 1000),
			FlushSize:     getEnvInt("ARCHIVE_FLUSH_SIZE", 100),
			FlushInterval: getEnvDuration("ARCHIVE_FLUSH_INTERVAL", 5*time.Minute),
			S3Bucket:      getEnvString("ARCHIVE_S3_BUCKET", ""),
			S3Region:      getEnvString("ARCHIVE_S3_REGION", "us-east-1"),
			S3Prefix:      getEnvString("ARCHIVE_S3_PREFIX", "usage/"),
			PodName:       getEnvString("POD_NAME", "dashboard-0"),
		},
	}

	if cfg.Insights.DefaultDays < 1 || cfg.Insights.DefaultDays > cfg.Insights.MaxDays {
		return nil, fmt.Errorf("USAGE_DEFAULT_DAYS must be between 1 and USAGE_MAX_DAYS")
	}

	return cfg, nil
}
