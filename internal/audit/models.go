package audit

import (
	"time"

	"github.com/google/uuid"
)

// CommandLog is one audited bot interaction.
type CommandLog struct {
	ID           string    `json:"id" bson:"_id"`
	CommandName  string    `json:"command_name" bson:"command_name"`
	UserID       string    `json:"user_id" bson:"user_id"`
	UserName     string    `json:"user_name" bson:"user_name"`
	ChannelID    string    `json:"channel_id" bson:"channel_id"`
	GuildID      *string   `json:"guild_id,omitempty" bson:"guild_id,omitempty"`
	MessageID    string    `json:"message_id" bson:"message_id"`
	Success      bool      `json:"success" bson:"success"`
	ErrorMessage *string   `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

// Normalize assigns an id and timestamp when they are missing.
func (l *CommandLog) Normalize() {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	l.Timestamp = l.Timestamp.UTC().Truncate(time.Second)
}

type RecentLog struct {
	CommandName string `json:"command_name" bson:"command_name"`
	UserName    string `json:"user_name" bson:"user_name"`
	Timestamp   int64  `json:"timestamp" bson:"timestamp"`
	Success     bool   `json:"success" bson:"success"`
}

type CommandCount struct {
	CommandName string `json:"command_name" bson:"_id"`
	Count       int64  `json:"count" bson:"count"`
}

type UserStats struct {
	UserID           string         `json:"user_id"`
	TotalCount       int64          `json:"total_count"`
	CommandBreakdown []CommandCount `json:"command_breakdown"`
	FirstUse         *int64         `json:"first_use,omitempty"`
	LastUse          *int64         `json:"last_use,omitempty"`
}

// DailyUsage counts successful commands on a UTC day (YYYY-MM-DD).
type DailyUsage struct {
	Date  string `json:"date" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
