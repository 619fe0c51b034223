package audit

import (
	"context"
)

// Store persists command logs and answers the usage queries served by the stats API.
type Store interface {
	LogCommand(ctx context.Context, entry CommandLog) error
	CommandStats(ctx context.Context) ([]CommandCount, error)
	RecentLogs(ctx context.Context, limit int) ([]RecentLog, error)
	TotalUses(ctx context.Context) (int64, error)
	UserCommandCount(ctx context.Context, userID string) (int64, error)
	UserStats(ctx context.Context, userID string) (*UserStats, error)
	UsageOverTime(ctx context.Context, days int) ([]DailyUsage, error)
	Ping(ctx context.Context) error
	Close() error
}

// NopStore drops every entry. It backs the services when auditing is disabled.
type NopStore struct{}

func (NopStore) LogCommand(context.Context, CommandLog) error { return nil }

func (NopStore) CommandStats(context.Context) ([]CommandCount, error) {
	return []CommandCount{}, nil
}

func (NopStore) RecentLogs(context.Context, int) ([]RecentLog, error) {
	return []RecentLog{}, nil
}

func (NopStore) TotalUses(context.Context) (int64, error) { return 0, nil }

func (NopStore) UserCommandCount(context.Context, string) (int64, error) { return 0, nil }

func (NopStore) UserStats(_ context.Context, userID string) (*UserStats, error) {
	return &UserStats{UserID: userID, CommandBreakdown: []CommandCount{}}, nil
}

func (NopStore) UsageOverTime(context.Context, int) ([]DailyUsage, error) {
	return []DailyUsage{}, nil
}

func (NopStore) Ping(context.Context) error { return nil }

func (NopStore) Close() error { return nil }
