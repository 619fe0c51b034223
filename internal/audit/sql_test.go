package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/internal/config"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(db, config.BackendSQLite))

	store := NewSQLiteStore(db)
	store.now = func() time.Time { return testNow }
	return store
}

func entry(command, userID string, success bool, at time.Time) CommandLog {
	e := CommandLog{
		CommandName: command,
		UserID:      userID,
		UserName:    "user-" + userID,
		ChannelID:   "222222222222222222",
		MessageID:   "333333333333333333",
		Success:     success,
		Timestamp:   at,
	}
	if !success {
		msg := "Failed to send reply"
		e.ErrorMessage = &msg
	}
	return e
}

func seed(t *testing.T, store Store, entries ...CommandLog) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, store.LogCommand(context.Background(), e))
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	require.NoError(t, Migrate(db, config.BackendSQLite))
	require.NoError(t, Migrate(db, config.BackendSQLite))

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'command_logs'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_UnknownBackend(t *testing.T) {
	assert.Error(t, Migrate(nil, config.BackendMongoDB))
}

func TestSQLStore_LogCommandAndRecentLogs(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	guild := "444444444444444444"
	first := entry("status", "1", true, testNow.Add(-3*time.Minute))
	first.GuildID = &guild
	seed(t, store,
		first,
		entry("server", "1", true, testNow.Add(-2*time.Minute)),
		entry("pcap_detect", "2", false, testNow.Add(-1*time.Minute)),
	)

	logs, err := store.RecentLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "pcap_detect", logs[0].CommandName)
	assert.False(t, logs[0].Success)
	assert.Equal(t, testNow.Add(-time.Minute).Unix(), logs[0].Timestamp)
	assert.Equal(t, "server", logs[1].CommandName)
	assert.Equal(t, "status", logs[2].CommandName)
	assert.Equal(t, "user-1", logs[2].UserName)

	limited, err := store.RecentLogs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLStore_DuplicateIDIsIgnored(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	e := entry("status", "1", true, testNow)
	e.ID = "0b7f9f6a-3d55-4bd4-9a43-2e36f3d1c001"
	require.NoError(t, store.LogCommand(ctx, e))
	require.NoError(t, store.LogCommand(ctx, e))

	total, err := store.TotalUses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSQLStore_CommandStatsAndTotals(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seed(t, store,
		entry("pcap_detect", "1", true, testNow),
		entry("pcap_detect", "2", true, testNow),
		entry("pcap_detect", "2", true, testNow),
		entry("pcap_detect", "3", false, testNow),
		entry("server", "1", true, testNow),
		entry("server", "3", true, testNow),
		entry("status", "1", true, testNow),
	)

	stats, err := store.CommandStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CommandCount{
		{CommandName: "pcap_detect", Count: 3},
		{CommandName: "server", Count: 2},
		{CommandName: "status", Count: 1},
	}, stats)

	total, err := store.TotalUses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	count, err := store.UserCommandCount(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLStore_UserStats(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seed(t, store,
		entry("server", "1", false, testNow.Add(-48*time.Hour)),
		entry("server", "1", true, testNow.Add(-24*time.Hour)),
		entry("server", "1", true, testNow.Add(-2*time.Hour)),
		entry("status", "1", true, testNow.Add(-time.Hour)),
		entry("status", "2", true, testNow),
	)

	stats, err := store.UserStats(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", stats.UserID)
	assert.Equal(t, int64(3), stats.TotalCount)
	assert.Equal(t, []CommandCount{
		{CommandName: "server", Count: 2},
		{CommandName: "status", Count: 1},
	}, stats.CommandBreakdown)
	require.NotNil(t, stats.FirstUse)
	require.NotNil(t, stats.LastUse)
	assert.Equal(t, testNow.Add(-48*time.Hour).Unix(), *stats.FirstUse)
	assert.Equal(t, testNow.Add(-time.Hour).Unix(), *stats.LastUse)
}

func TestSQLStore_UserStatsUnknownUser(t *testing.T) {
	store := newTestSQLiteStore(t)

	stats, err := store.UserStats(context.Background(), "999")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCount)
	assert.Empty(t, stats.CommandBreakdown)
	assert.Nil(t, stats.FirstUse)
	assert.Nil(t, stats.LastUse)
}

func TestSQLStore_UsageOverTime(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seed(t, store,
		entry("status", "1", true, testNow.Add(-time.Hour)),
		entry("server", "2", true, testNow.Add(-2*time.Hour)),
		entry("server", "2", false, testNow.Add(-3*time.Hour)),
		entry("status", "1", true, testNow.Add(-24*time.Hour)),
		entry("status", "1", true, testNow.Add(-40*24*time.Hour)),
	)

	usage, err := store.UsageOverTime(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, []DailyUsage{
		{Date: "2026-10-15", Count: 2},
		{Date: "2026-10-14", Count: 1},
	}, usage)

	usage, err = store.UsageOverTime(ctx, 60)
	require.NoError(t, err)
	assert.Len(t, usage, 3)
}

func TestSQLStore_EmptyResultsAreNotNil(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	stats, err := store.CommandStats(ctx)
	require.NoError(t, err)
	assert.NotNil(t, stats)

	logs, err := store.RecentLogs(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, logs)

	usage, err := store.UsageOverTime(ctx, 7)
	require.NoError(t, err)
	assert.NotNil(t, usage)

	assert.NoError(t, store.Ping(ctx))
}

func TestDialectRebind(t *testing.T) {
	q := `SELECT * FROM command_logs WHERE user_id = ? AND success = ? LIMIT ?`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t,
		`SELECT * FROM command_logs WHERE user_id = $1 AND success = $2 LIMIT $3`,
		postgresDialect.rebind(q))
}
