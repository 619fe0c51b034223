package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pcaplink/internal/config"
	"pcaplink/internal/constants"
	"pcaplink/pkg/metrics"
	"pcaplink/pkg/migrations"
)

// MongoStore keeps command logs as documents. Timestamps are stored as BSON
// dates and reported as unix seconds.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStore takes ownership of client; Close disconnects it.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(constants.CommandLogCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the collection and its query indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	return migrations.EnsureMongoCollection(ctx, s.collection.Database(), s.collection.Name(), migrations.CommandLogIndexes())
}

func (s *MongoStore) observe(operation string, start time.Time) {
	metrics.ObserveAuditQuery(config.BackendMongoDB, operation, time.Since(start))
}

func (s *MongoStore) LogCommand(ctx context.Context, entry CommandLog) error {
	defer s.observe("log_command", time.Now())
	entry.Normalize()

	_, err := s.collection.InsertOne(ctx, entry)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		metrics.IncAuditWrite(config.BackendMongoDB, "error")
		return fmt.Errorf("failed to log command: %w", err)
	}
	metrics.IncAuditWrite(config.BackendMongoDB, "success")
	return nil
}

func (s *MongoStore) CommandStats(ctx context.Context) ([]CommandCount, error) {
	defer s.observe("command_stats", time.Now())

	counts, err := s.commandCounts(ctx, bson.M{"success": true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch command stats: %w", err)
	}
	return counts, nil
}

func (s *MongoStore) commandCounts(ctx context.Context, match bson.M) ([]CommandCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$command_name", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	counts := make([]CommandCount, 0)
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *MongoStore) RecentLogs(ctx context.Context, limit int) ([]RecentLog, error) {
	defer s.observe("recent_logs", time.Now())

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent logs: %w", err)
	}

	var entries []CommandLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode recent logs: %w", err)
	}

	logs := make([]RecentLog, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, RecentLog{
			CommandName: e.CommandName,
			UserName:    e.UserName,
			Timestamp:   e.Timestamp.Unix(),
			Success:     e.Success,
		})
	}
	return logs, nil
}

func (s *MongoStore) TotalUses(ctx context.Context) (int64, error) {
	defer s.observe("total_uses", time.Now())

	count, err := s.collection.CountDocuments(ctx, bson.M{"success": true})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch total uses: %w", err)
	}
	return count, nil
}

func (s *MongoStore) UserCommandCount(ctx context.Context, userID string) (int64, error) {
	defer s.observe("user_command_count", time.Now())

	count, err := s.collection.CountDocuments(ctx, bson.M{"user_id": userID, "success": true})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch user command count: %w", err)
	}
	return count, nil
}

func (s *MongoStore) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	total, err := s.UserCommandCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	defer s.observe("user_stats", time.Now())

	breakdown, err := s.commandCounts(ctx, bson.M{"user_id": userID, "success": true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user command breakdown: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"first": bson.M{"$min": "$timestamp"},
			"last":  bson.M{"$max": "$timestamp"},
		}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user timestamps: %w", err)
	}
	var bounds []struct {
		First time.Time `bson:"first"`
		Last  time.Time `bson:"last"`
	}
	if err := cursor.All(ctx, &bounds); err != nil {
		return nil, fmt.Errorf("failed to decode user timestamps: %w", err)
	}

	stats := &UserStats{
		UserID:           userID,
		TotalCount:       total,
		CommandBreakdown: breakdown,
	}
	if len(bounds) == 1 {
		first, last := bounds[0].First.Unix(), bounds[0].Last.Unix()
		stats.FirstUse = &first
		stats.LastUse = &last
	}
	return stats, nil
}

func (s *MongoStore) UsageOverTime(ctx context.Context, days int) ([]DailyUsage, error) {
	defer s.observe("usage_over_time", time.Now())

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"success":   true,
			"timestamp": bson.M{"$gte": cutoff},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m-%d",
				"date":     "$timestamp",
				"timezone": "UTC",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch usage over time: %w", err)
	}

	usage := make([]DailyUsage, 0)
	if err := cursor.All(ctx, &usage); err != nil {
		return nil, fmt.Errorf("failed to decode usage over time: %w", err)
	}
	return usage, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
