package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pcaplink/internal/config"
	"pcaplink/pkg/metrics"
)

const secondsPerDay = 86400

type dialect struct {
	backend string
	// dayExpr renders the unix timestamp column as a UTC YYYY-MM-DD string.
	dayExpr string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var (
	sqliteDialect = dialect{
		backend: config.BackendSQLite,
		dayExpr: "date(timestamp, 'unixepoch')",
	}
	postgresDialect = dialect{
		backend:  config.BackendPostgres,
		dayExpr:  "to_char(to_timestamp(timestamp) AT TIME ZONE 'UTC', 'YYYY-MM-DD')",
		numbered: true,
	}
)

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// SQLStore keeps command logs in a command_logs table on SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d, now: time.Now}
}

// NewSQLiteStore wraps an open SQLite handle. The schema must already be migrated.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return newSQLStore(db, sqliteDialect)
}

// NewPostgresStore wraps an open PostgreSQL handle. The schema must already be migrated.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return newSQLStore(db, postgresDialect)
}

func (s *SQLStore) Backend() string {
	return s.dialect.backend
}

func (s *SQLStore) observe(operation string, start time.Time) {
	metrics.ObserveAuditQuery(s.dialect.backend, operation, time.Since(start))
}

// LogCommand inserts entry. Re-logging an id that already exists is a no-op.
func (s *SQLStore) LogCommand(ctx context.Context, entry CommandLog) error {
	defer s.observe("log_command", time.Now())
	entry.Normalize()

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO command_logs
			(id, command_name, user_id, user_name, channel_id, guild_id, message_id, success, error_message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		entry.ID,
		entry.CommandName,
		entry.UserID,
		entry.UserName,
		entry.ChannelID,
		entry.GuildID,
		entry.MessageID,
		entry.Success,
		entry.ErrorMessage,
		entry.Timestamp.Unix(),
	)
	if err != nil {
		metrics.IncAuditWrite(s.dialect.backend, "error")
		return fmt.Errorf("failed to log command: %w", err)
	}
	metrics.IncAuditWrite(s.dialect.backend, "success")
	return nil
}

func (s *SQLStore) CommandStats(ctx context.Context) ([]CommandCount, error) {
	defer s.observe("command_stats", time.Now())

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT command_name, COUNT(*) AS count
		FROM command_logs
		WHERE success = ?
		GROUP BY command_name
		ORDER BY count DESC, command_name ASC`), true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch command stats: %w", err)
	}
	return scanCommandCounts(rows)
}

func (s *SQLStore) RecentLogs(ctx context.Context, limit int) ([]RecentLog, error) {
	defer s.observe("recent_logs", time.Now())

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT command_name, user_name, timestamp, success
		FROM command_logs
		ORDER BY timestamp DESC
		LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent logs: %w", err)
	}
	defer rows.Close()

	logs := make([]RecentLog, 0)
	for rows.Next() {
		var l RecentLog
		if err := rows.Scan(&l.CommandName, &l.UserName, &l.Timestamp, &l.Success); err != nil {
			return nil, fmt.Errorf("failed to scan recent log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent logs: %w", err)
	}
	return logs, nil
}

func (s *SQLStore) TotalUses(ctx context.Context) (int64, error) {
	defer s.observe("total_uses", time.Now())

	var count int64
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT COUNT(*) FROM command_logs WHERE success = ?`), true).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch total uses: %w", err)
	}
	return count, nil
}

func (s *SQLStore) UserCommandCount(ctx context.Context, userID string) (int64, error) {
	defer s.observe("user_command_count", time.Now())

	var count int64
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT COUNT(*) FROM command_logs WHERE user_id = ? AND success = ?`), userID, true).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch user command count: %w", err)
	}
	return count, nil
}

// UserStats counts only successful commands, while first and last use span
// every logged interaction of the user.
func (s *SQLStore) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	total, err := s.UserCommandCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer s.observe("user_stats", time.Now())

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT command_name, COUNT(*) AS count
		FROM command_logs
		WHERE user_id = ? AND success = ?
		GROUP BY command_name
		ORDER BY count DESC, command_name ASC`), userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user command breakdown: %w", err)
	}
	breakdown, err := scanCommandCounts(rows)
	if err != nil {
		return nil, err
	}

	var first, last sql.NullInt64
	err = s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT MIN(timestamp), MAX(timestamp)
		FROM command_logs
		WHERE user_id = ?`), userID).Scan(&first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user timestamps: %w", err)
	}

	stats := &UserStats{
		UserID:           userID,
		TotalCount:       total,
		CommandBreakdown: breakdown,
	}
	if first.Valid {
		stats.FirstUse = &first.Int64
	}
	if last.Valid {
		stats.LastUse = &last.Int64
	}
	return stats, nil
}

// UsageOverTime returns successful commands per UTC day over the last days
// days, newest first.
func (s *SQLStore) UsageOverTime(ctx context.Context, days int) ([]DailyUsage, error) {
	defer s.observe("usage_over_time", time.Now())

	cutoff := s.now().Unix() - int64(days)*secondsPerDay
	query := fmt.Sprintf(`
		SELECT %s AS day, COUNT(*) AS count
		FROM command_logs
		WHERE success = ? AND timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`, s.dialect.dayExpr)

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), true, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage over time: %w", err)
	}
	defer rows.Close()

	usage := make([]DailyUsage, 0)
	for rows.Next() {
		var d DailyUsage
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		usage = append(usage, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily usage: %w", err)
	}
	return usage, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func scanCommandCounts(rows *sql.Rows) ([]CommandCount, error) {
	defer rows.Close()

	counts := make([]CommandCount, 0)
	for rows.Next() {
		var c CommandCount
		if err := rows.Scan(&c.CommandName, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan command count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate command counts: %w", err)
	}
	return counts, nil
}
