// Package config provides configuration loading, defaults, and validation for
// the reelgauge platform.
package config

import "time"

const (
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "reelgauge"
	DefaultDBSSLMode  = "disable"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "reelgauge:"
	DefaultRedisTTL       = time.Hour

	DefaultKafkaBroker    = "localhost:9092"
	DefaultAnalyticsTopic = "evaluation.analytics"

	DefaultMinIOEndpoint  = "localhost:9000"
	DefaultAssetBucket    = "assets"
	DefaultReportBucket   = "reports"
	DefaultArtifactBucket = "artifacts"
	DefaultPresignExpiry  = 15 * time.Minute

	DefaultContentAITimeout  = 90 * time.Second
	DefaultAnnotationTimeout = 60 * time.Second
	DefaultAIRetries         = 2

	// Fan-out caps: three analysis branches (one per check-set) and four
	// post-processing workers were observed to saturate the upstream quotas
	// without queueing.
	DefaultAnalysisConcurrency = 3
	DefaultPostConcurrency     = 4

	DefaultJobTimeout      = 5 * time.Minute
	DefaultCacheTTL        = 6 * time.Hour
	DefaultCacheMaxEntries = 512
	DefaultReaperInterval  = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.AnalyticsTopic == "" {
		cfg.Kafka.AnalyticsTopic = DefaultAnalyticsTopic
	}

	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.AssetBucket == "" {
		cfg.MinIO.AssetBucket = DefaultAssetBucket
	}
	if cfg.MinIO.ReportBucket == "" {
		cfg.MinIO.ReportBucket = DefaultReportBucket
	}
	if cfg.MinIO.ArtifactBucket == "" {
		cfg.MinIO.ArtifactBucket = DefaultArtifactBucket
	}
	if cfg.MinIO.PresignExpiry == 0 {
		cfg.MinIO.PresignExpiry = DefaultPresignExpiry
	}

	if cfg.ContentAI.CallTimeout == 0 {
		cfg.ContentAI.CallTimeout = DefaultContentAITimeout
	}
	if cfg.ContentAI.MaxRetries == 0 {
		cfg.ContentAI.MaxRetries = DefaultAIRetries
	}
	if cfg.Annotation.CallTimeout == 0 {
		cfg.Annotation.CallTimeout = DefaultAnnotationTimeout
	}
	if cfg.Annotation.MaxRetries == 0 {
		cfg.Annotation.MaxRetries = DefaultAIRetries
	}

	if cfg.Evaluation.AnalysisConcurrency == 0 {
		cfg.Evaluation.AnalysisConcurrency = DefaultAnalysisConcurrency
	}
	if cfg.Evaluation.PostConcurrency == 0 {
		cfg.Evaluation.PostConcurrency = DefaultPostConcurrency
	}
	if cfg.Evaluation.JobTimeout == 0 {
		cfg.Evaluation.JobTimeout = DefaultJobTimeout
	}
	if cfg.Evaluation.CacheTTL == 0 {
		cfg.Evaluation.CacheTTL = DefaultCacheTTL
	}
	if cfg.Evaluation.CacheMaxEntries == 0 {
		cfg.Evaluation.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Evaluation.ReaperInterval == 0 {
		cfg.Evaluation.ReaperInterval = DefaultReaperInterval
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
