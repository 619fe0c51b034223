package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"pcaplink/internal/config"
	"pcaplink/internal/logger"
	"pcaplink/pkg/bootstrap"
)

const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

// Open connects to the audit backend selected by cfg.URL and prepares its
// schema. An empty URL yields a NopStore.
func Open(ctx context.Context, cfg config.DatabaseConfig, connector *bootstrap.DatabaseConnector, log logger.Logger) (Store, error) {
	backend, err := config.DatabaseBackend(cfg.URL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case "":
		log.Infow("Audit logging disabled")
		return NopStore{}, nil

	case config.BackendSQLite:
		dsn, err := SQLiteDSN(cfg.URL)
		if err != nil {
			return nil, err
		}
		db, err := connector.OpenSQL(ctx, "sqlite", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return finishSQL(db, backend, cfg.RunMigrations, NewSQLiteStore(db), log)

	case config.BackendPostgres:
		db, err := connector.OpenSQL(ctx, "postgres", cfg.URL)
		if err != nil {
			return nil, err
		}
		return finishSQL(db, backend, cfg.RunMigrations, NewPostgresStore(db), log)

	case config.BackendMongoDB:
		client, err := connector.InitMongoDB(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		store := NewMongoStore(client, cfg.MongoDatabase)
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to prepare command log collection: %w", err)
		}
		log.Infow("Audit store ready", "backend", backend)
		return store, nil
	}

	return nil, fmt.Errorf("unsupported audit backend %q", backend)
}

func finishSQL(db *sql.DB, backend string, runMigrations bool, store *SQLStore, log logger.Logger) (Store, error) {
	if runMigrations {
		if err := Migrate(db, backend); err != nil {
			db.Close()
			return nil, err
		}
		log.Infow("Database migrations completed successfully", "backend", backend)
	}
	log.Infow("Audit store ready", "backend", backend)
	return store, nil
}

// SQLiteDSN turns a sqlite: URL into a modernc.org/sqlite DSN, creating the
// parent directory of a file database.
func SQLiteDSN(rawURL string) (string, error) {
	path := strings.TrimPrefix(rawURL, "sqlite:")
	path = strings.TrimPrefix(path, "//")
	if path == "" {
		return "", fmt.Errorf("sqlite URL %q has no path", rawURL)
	}

	query := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	if query == "" {
		query = sqlitePragmas
	} else {
		query += "&" + sqlitePragmas
	}
	return path + "?" + query, nil
}
