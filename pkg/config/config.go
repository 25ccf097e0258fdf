package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduler  SchedulerConfig
	Optimizer  OptimizerConfig
	Generation GenerationConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig holds the working window and the thresholds of the advisory quality pass.
type SchedulerConfig struct {
	WorkingStartHour     int
	WorkingEndHour       int
	WorkingDays          []string
	MaxGapMinutes        int
	MinBreakMinutes      int
	UnderusedUtilization float64
	OverloadUtilization  float64
}

// OptimizerConfig points at the external timetable optimizer.
type OptimizerConfig struct {
	Enabled bool
	URL     string
	APIKey  string
	Timeout time.Duration
}

// GenerationConfig sizes the asynchronous generation worker pool.
type GenerationConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// RateLimitConfig throttles generation requests per client.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// CacheConfig controls Redis snapshot lifetimes.
type CacheConfig struct {
	Prefix       string
	ReferenceTTL time.Duration
	ReportTTL    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		WorkingStartHour:     v.GetInt("SCHEDULER_WORKING_START_HOUR"),
		WorkingEndHour:       v.GetInt("SCHEDULER_WORKING_END_HOUR"),
		WorkingDays:          splitAndTrim(v.GetString("SCHEDULER_WORKING_DAYS")),
		MaxGapMinutes:        v.GetInt("SCHEDULER_MAX_GAP_MINUTES"),
		MinBreakMinutes:      v.GetInt("SCHEDULER_MIN_BREAK_MINUTES"),
		UnderusedUtilization: v.GetFloat64("SCHEDULER_UNDERUSED_UTILIZATION"),
		OverloadUtilization:  v.GetFloat64("SCHEDULER_OVERLOAD_UTILIZATION"),
	}

	cfg.Optimizer = OptimizerConfig{
		Enabled: v.GetBool("ENABLE_OPTIMIZER"),
		URL:     v.GetString("OPTIMIZER_URL"),
		APIKey:  v.GetString("OPTIMIZER_API_KEY"),
		Timeout: parseDuration(v.GetString("OPTIMIZER_TIMEOUT"), 5*time.Minute),
	}

	cfg.Generation = GenerationConfig{
		Workers:    v.GetInt("GENERATION_WORKERS"),
		QueueSize:  v.GetInt("GENERATION_QUEUE_SIZE"),
		JobTimeout: parseDuration(v.GetString("GENERATION_JOB_TIMEOUT"), time.Hour),
	}

	cfg.RateLimit = RateLimitConfig{
		Enabled:           v.GetBool("ENABLE_RATE_LIMIT"),
		RequestsPerMinute: v.GetInt("RATE_LIMIT_GENERATION_PER_MINUTE"),
		Burst:             v.GetInt("RATE_LIMIT_GENERATION_BURST"),
	}

	cfg.Cache = CacheConfig{
		Prefix:       v.GetString("CACHE_PREFIX"),
		ReferenceTTL: parseDuration(v.GetString("CACHE_REFERENCE_TTL"), 5*time.Minute),
		ReportTTL:    parseDuration(v.GetString("CACHE_REPORT_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_WORKING_START_HOUR", 7)
	v.SetDefault("SCHEDULER_WORKING_END_HOUR", 22)
	v.SetDefault("SCHEDULER_WORKING_DAYS", "MONDAY,TUESDAY,WEDNESDAY,THURSDAY,FRIDAY,SATURDAY,SUNDAY")
	v.SetDefault("SCHEDULER_MAX_GAP_MINUTES", 180)
	v.SetDefault("SCHEDULER_MIN_BREAK_MINUTES", 15)
	v.SetDefault("SCHEDULER_UNDERUSED_UTILIZATION", 0.3)
	v.SetDefault("SCHEDULER_OVERLOAD_UTILIZATION", 0.9)

	v.SetDefault("ENABLE_OPTIMIZER", false)
	v.SetDefault("OPTIMIZER_URL", "http://localhost:8000")
	v.SetDefault("OPTIMIZER_API_KEY", "")
	v.SetDefault("OPTIMIZER_TIMEOUT", "5m")

	v.SetDefault("GENERATION_WORKERS", 2)
	v.SetDefault("GENERATION_QUEUE_SIZE", 32)
	v.SetDefault("GENERATION_JOB_TIMEOUT", "1h")

	v.SetDefault("ENABLE_RATE_LIMIT", true)
	v.SetDefault("RATE_LIMIT_GENERATION_PER_MINUTE", 6)
	v.SetDefault("RATE_LIMIT_GENERATION_BURST", 2)

	v.SetDefault("CACHE_PREFIX", "timetable")
	v.SetDefault("CACHE_REFERENCE_TTL", "5m")
	v.SetDefault("CACHE_REPORT_TTL", "10m")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
