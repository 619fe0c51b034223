package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Discord        DiscordConfig        `mapstructure:"discord"`
	Download       DownloadConfig       `mapstructure:"download"`
	Web            WebConfig            `mapstructure:"web"`
	Servers        ServersConfig        `mapstructure:"servers"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Bot            BotConfig            `mapstructure:"bot"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Startup        StartupConfig        `mapstructure:"startup"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DiscordConfig holds the bot credential. It is handed to the REST client
// and the gateway session at construction time.
type DiscordConfig struct {
	Token          string        `mapstructure:"token"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DownloadConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type WebConfig struct {
	URL            string   `mapstructure:"url"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ServersConfig struct {
	ListingURL string        `mapstructure:"listing_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	// URL selects the audit backend by scheme: sqlite:, postgres://, mongodb://.
	// Empty disables auditing.
	URL           string `mapstructure:"url"`
	MongoDatabase string `mapstructure:"mongo_database"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
	GroupID    string   `mapstructure:"group_id"`
	// Ingest makes the relay service persist audit events consumed from AuditTopic.
	Ingest bool `mapstructure:"ingest"`
}

type BotConfig struct {
	// ReplyFilter is a CEL expression deciding whether a detected capture gets a reply.
	ReplyFilter string        `mapstructure:"reply_filter"`
	DedupTTL    time.Duration `mapstructure:"dedup_ttl"`
}

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RPS             float64       `mapstructure:"rps"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxAge          time.Duration `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

// StartupConfig bounds the retries used while connecting to dependencies at boot.
type StartupConfig struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
