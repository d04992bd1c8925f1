// Package config defines all configuration structures for the reelgauge
// platform.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the analytics event-bus producer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	AnalyticsTopic  string        `mapstructure:"analytics_topic"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	AssetBucket     string        `mapstructure:"asset_bucket"`
	ReportBucket    string        `mapstructure:"report_bucket"`
	ArtifactBucket  string        `mapstructure:"artifact_bucket"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

// ContentAIConfig holds parameters for the multimodal content-understanding
// service (LLM-based feature evaluation and brand description).
type ContentAIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	FlashModel  string        `mapstructure:"flash_model"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// AnnotationConfig holds parameters for the structured video-annotation
// service.
type AnnotationConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// PaymentsConfig holds payment-processor parameters.
type PaymentsConfig struct {
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	CheckoutURL   string `mapstructure:"checkout_url"`
	SuccessPath   string `mapstructure:"success_path"`
	CancelPath    string `mapstructure:"cancel_path"`
}

// EvaluationConfig holds orchestrator tunables.  The fan-out caps and the
// wall-clock ceiling are deliberate calibration constants; change them only
// with new capacity data.
type EvaluationConfig struct {
	AnalysisConcurrency int           `mapstructure:"analysis_concurrency"`
	PostConcurrency     int           `mapstructure:"post_concurrency"`
	JobTimeout          time.Duration `mapstructure:"job_timeout"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries     int           `mapstructure:"cache_max_entries"`
	ReaperInterval      time.Duration `mapstructure:"reaper_interval"`
	NotifyWebhookURL    string        `mapstructure:"notify_webhook_url"`
}

// AuthConfig holds the static bearer-token table used by the API surface.
// Token resolution is intentionally simple; session mechanics live outside
// this system.
type AuthConfig struct {
	// Tokens maps bearer token → account id.
	Tokens map[string]string `mapstructure:"tokens"`
	// AdminAccounts lists account ids allowed to call admin endpoints.
	AdminAccounts []string `mapstructure:"admin_accounts"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level        string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format       string `mapstructure:"format"` // "json" | "console"
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	ContentAI  ContentAIConfig  `mapstructure:"content_ai"`
	Annotation AnnotationConfig `mapstructure:"annotation"`
	Payments   PaymentsConfig   `mapstructure:"payments"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.AnalyticsTopic == "" {
		return fmt.Errorf("config: kafka.analytics_topic is required")
	}

	if c.ContentAI.BaseURL == "" {
		return fmt.Errorf("config: content_ai.base_url is required")
	}
	if c.Annotation.BaseURL == "" {
		return fmt.Errorf("config: annotation.base_url is required")
	}

	if c.Evaluation.AnalysisConcurrency < 1 {
		return fmt.Errorf("config: evaluation.analysis_concurrency must be ≥ 1, got %d", c.Evaluation.AnalysisConcurrency)
	}
	if c.Evaluation.PostConcurrency < 1 {
		return fmt.Errorf("config: evaluation.post_concurrency must be ≥ 1, got %d", c.Evaluation.PostConcurrency)
	}
	if c.Evaluation.JobTimeout <= 0 {
		return fmt.Errorf("config: evaluation.job_timeout must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
