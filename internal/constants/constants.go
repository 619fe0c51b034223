package constants

import "time"

// Version is the build revision, set with
// -ldflags "-X pcaplink/internal/constants.Version=$(git rev-parse --short HEAD)".
var Version = "unknown"

const (
	// MaxAttachmentSize is the hard ceiling for a downloaded capture (100 MiB).
	MaxAttachmentSize int64 = 100 * 1024 * 1024
)

const (
	DefaultDiscordAPIBase   = "https://discord.com/api/v9"
	DefaultServerListingURL = "https://treestats.net/servers.json"
	DiscordTokenPrefix      = "Bot "
	DiscordMessageLimit     = 2000
)

const (
	DefaultHTTPTimeout     = 10 * time.Second
	DefaultDownloadTimeout = 60 * time.Second
	ShutdownTimeout        = 5 * time.Second
	ReadHeaderTimeout      = 10 * time.Second
)

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultPort          = 3000
	DefaultStaticDir     = "dist"
	DefaultDatabaseURL   = "sqlite:./bot.db"
	DefaultMongoDBName   = "pcaplink"
	DefaultAuditTopic    = "command_logs"
	DefaultAuditGroupID  = "pcaplink-audit-ingest"
	CacheKeyPrefixDedup  = "pcaplink:seen:"
	DefaultDedupTTL      = 10 * time.Minute
	CommandLogCollection = "command_logs"
)

const (
	DefaultLimit     = 50
	MaxLimit         = 1000
	DefaultUsageDays = 30
	MaxUsageDays     = 366
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	CommandStatus     = "status"
	CommandServer     = "server"
	CommandPcapDetect = "pcap_detect"
)
