package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"pcaplink/pkg/cel"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Audit backends keyed by DATABASE_URL scheme.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongoDB  = "mongodb"
)

// DatabaseBackend returns the audit backend selected by a database URL,
// or "" when auditing is disabled.
func DatabaseBackend(rawURL string) (string, error) {
	switch {
	case rawURL == "":
		return "", nil
	case strings.HasPrefix(rawURL, "sqlite:"):
		return BackendSQLite, nil
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(rawURL, "mongodb://"), strings.HasPrefix(rawURL, "mongodb+srv://"):
		return BackendMongoDB, nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme (supported: sqlite:, postgres://, mongodb://)")
	}
}

func ValidateStatic(cfg *Config) error {
	var errs []error

	validators := []func(*Config) error{
		validateServer,
		validateDiscord,
		validateWeb,
		validateDatabase,
		validateBroker,
		validateBot,
		validateRateLimit,
		validateTracing,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func validateServer(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Server.Port),
		}
	}

	if cfg.Server.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.Server.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateDiscord(cfg *Config) error {
	if err := validateHTTPURL("discord.api_base", cfg.Discord.APIBase); err != nil {
		return err
	}

	if cfg.Discord.RequestTimeout <= 0 {
		return &ValidationError{
			Field:   "discord.request_timeout",
			Message: "request timeout must be positive",
		}
	}

	if cfg.Download.Timeout <= 0 {
		return &ValidationError{
			Field:   "download.timeout",
			Message: "download timeout must be positive",
		}
	}

	if err := validateHTTPURL("servers.listing_url", cfg.Servers.ListingURL); err != nil {
		return err
	}

	return nil
}

func validateWeb(cfg *Config) error {
	if err := validateHTTPURL("web.url", cfg.Web.URL); err != nil {
		return err
	}

	if len(cfg.Web.AllowedOrigins) == 0 {
		return &ValidationError{
			Field:   "web.allowed_origins",
			Message: "at least one origin is required (use \"*\" for any)",
		}
	}

	return nil
}

func validateDatabase(cfg *Config) error {
	backend, err := DatabaseBackend(cfg.Database.URL)
	if err != nil {
		return &ValidationError{
			Field:   "database.url",
			Message: err.Error(),
		}
	}

	if backend == BackendMongoDB && cfg.Database.MongoDatabase == "" {
		return &ValidationError{
			Field:   "database.mongo_database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateBroker(cfg *Config) error {
	switch cfg.Broker.Type {
	case "":
		if cfg.Broker.Kafka.Ingest {
			return &ValidationError{
				Field:   "broker.kafka.ingest",
				Message: "ingest requires broker.type kafka",
			}
		}
		return nil
	case "kafka":
		return validateKafka(cfg.Broker.Kafka)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Broker.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.AuditTopic == "" {
		return &ValidationError{
			Field:   "broker.kafka.audit_topic",
			Message: "audit topic is required",
		}
	}

	if cfg.Ingest && cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required for ingest",
		}
	}

	return nil
}

func validateBot(cfg *Config) error {
	if cfg.Bot.DedupTTL <= 0 {
		return &ValidationError{
			Field:   "bot.dedup_ttl",
			Message: "dedup TTL must be positive",
		}
	}

	if cfg.Bot.ReplyFilter == "" {
		return nil
	}
	eval, err := cel.NewEvaluator()
	if err != nil {
		return err
	}
	if err := eval.ValidateFilterExpression(cfg.Bot.ReplyFilter); err != nil {
		return &ValidationError{
			Field:   "bot.reply_filter",
			Message: err.Error(),
		}
	}
	return nil
}

func validateRateLimit(cfg *Config) error {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	if cfg.RateLimit.RPS <= 0 {
		return &ValidationError{
			Field:   "rate_limit.rps",
			Message: "rps must be positive",
		}
	}

	if cfg.RateLimit.Burst < 1 {
		return &ValidationError{
			Field:   "rate_limit.burst",
			Message: "burst must be at least 1",
		}
	}

	return nil
}

func validateTracing(cfg *Config) error {
	if cfg.Tracing.Enabled && cfg.Tracing.OTLP.Endpoint == "" {
		return &ValidationError{
			Field:   "tracing.otlp.endpoint",
			Message: "OTLP endpoint is required when tracing is enabled",
		}
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", raw),
		}
	}
	return nil
}
