package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pcaplink/internal/config"
	"pcaplink/internal/logger"
	"pcaplink/pkg/retry"
)

// DatabaseConnector opens backing stores, retrying with the startup policy.
type DatabaseConnector struct {
	Logger logger.Logger
	policy retry.Policy
}

func NewDatabaseConnector(cfg config.StartupConfig, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Logger: log,
		policy: StartupPolicy(cfg),
	}
}

// InitRedis returns nil when no address is configured.
func (dc *DatabaseConnector) InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	err = connectWithRetry(ctx, dc.policy, dc.Logger, "redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, err
	}

	dc.Logger.Infow("Redis connected successfully", "addr", opts.Addr)
	return rdb, nil
}

// redisOptions accepts either host:port or a redis:// URL in cfg.Addr.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if isRedisURL(cfg.Addr) {
		opts, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func isRedisURL(addr string) bool {
	for _, prefix := range []string{"redis://", "rediss://", "unix://"} {
		if len(addr) >= len(prefix) && addr[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// OpenSQL opens and pings a database/sql handle for driverName.
func (dc *DatabaseConnector) OpenSQL(ctx context.Context, driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = connectWithRetry(ctx, dc.policy, dc.Logger, driverName, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	dc.Logger.Infow("Database connected successfully", "driver", driverName)
	return db, nil
}

func (dc *DatabaseConnector) InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	err = connectWithRetry(ctx, dc.policy, dc.Logger, "mongodb", func(ctx context.Context) error {
		return mongoClient.Ping(ctx, nil)
	})
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, err
	}

	dc.Logger.Infow("MongoDB connected successfully")
	return mongoClient, nil
}
