package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"pcaplink/internal/constants"
)

// LoadConfig reads defaults, then the optional YAML file, then the environment.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvVariables(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(v, &cfg)
	applyDerivedDefaults(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", constants.DefaultPort)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("discord.token", "")
	v.SetDefault("discord.api_base", constants.DefaultDiscordAPIBase)
	v.SetDefault("discord.request_timeout", constants.DefaultHTTPTimeout)

	v.SetDefault("download.timeout", constants.DefaultDownloadTimeout)

	v.SetDefault("web.url", "")
	v.SetDefault("web.static_dir", constants.DefaultStaticDir)
	v.SetDefault("web.allowed_origins", []string{"*"})

	v.SetDefault("servers.listing_url", constants.DefaultServerListingURL)
	v.SetDefault("servers.timeout", constants.DefaultHTTPTimeout)

	v.SetDefault("database.url", constants.DefaultDatabaseURL)
	v.SetDefault("database.mongo_database", constants.DefaultMongoDBName)
	v.SetDefault("database.run_migrations", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("broker.type", "")
	v.SetDefault("broker.kafka.brokers", []string{})
	v.SetDefault("broker.kafka.audit_topic", constants.DefaultAuditTopic)
	v.SetDefault("broker.kafka.group_id", constants.DefaultAuditGroupID)
	v.SetDefault("broker.kafka.ingest", false)

	v.SetDefault("bot.reply_filter", "")
	v.SetDefault("bot.dedup_ttl", constants.DefaultDedupTTL)

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.cleanup_interval", "1m")
	v.SetDefault("rate_limit.max_age", "5m")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", "60s")
	v.SetDefault("circuit_breaker.timeout", "30s")
	v.SetDefault("circuit_breaker.failure_ratio", 0.6)
	v.SetDefault("circuit_breaker.min_requests", 5)

	v.SetDefault("startup.initial_interval", "500ms")
	v.SetDefault("startup.max_interval", "5s")
	v.SetDefault("startup.max_elapsed_time", "30s")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "")
	v.SetDefault("tracing.otlp.endpoint", "")
	v.SetDefault("tracing.otlp.insecure", true)
	v.SetDefault("tracing.sampler.type", "always_on")
	v.SetDefault("tracing.sampler.param", 1.0)
}

// bindEnvVariables maps the short variable names used by deployments onto
// config keys. Everything else is reachable through AutomaticEnv
// (e.g. BROKER_KAFKA_AUDIT_TOPIC).
func bindEnvVariables(v *viper.Viper) error {
	bindings := map[string][]string{
		"discord.token":         {"DISCORD_TOKEN", "DISCORD_OAUTH_TOKEN"},
		"server.port":           {"SERVER_PORT", "PORT"},
		"web.url":               {"WEB_URL"},
		"web.static_dir":        {"WEB_STATIC_DIR", "STATIC_DIR"},
		"database.url":          {"DATABASE_URL"},
		"redis.addr":            {"REDIS_ADDR", "REDIS_URL"},
		"logging.level":         {"LOGGING_LEVEL", "LOG_LEVEL"},
		"tracing.otlp.endpoint": {"TRACING_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(v *viper.Viper, cfg *Config) {
	if brokersEnv := v.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if originsEnv := v.GetString("WEB_ALLOWED_ORIGINS"); originsEnv != "" {
		origins := strings.Split(originsEnv, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Web.AllowedOrigins = origins
	}
}

func applyDerivedDefaults(cfg *Config) {
	if cfg.Web.URL == "" {
		cfg.Web.URL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Discord.APIBase = strings.TrimRight(cfg.Discord.APIBase, "/")
}
