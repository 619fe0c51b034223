package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"pcaplink/internal/audit"
	"pcaplink/internal/logger"
	"pcaplink/internal/servers"
	"pcaplink/pkg/cel"
	apperrors "pcaplink/pkg/errors"
)

const handlerTimeout = 30 * time.Second

// Session is the part of *discordgo.Session the handlers talk to.
type Session interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

// Deduper reports whether a gateway message id is new.
type Deduper interface {
	FirstSeen(ctx context.Context, id string) bool
}

type Config struct {
	// WebURL is the web client base the capture reply links to.
	WebURL string
	Filter *cel.Filter
}

type Bot struct {
	session  Session
	lister   servers.Lister
	resolver *servers.Resolver
	store    audit.Store
	dedup    Deduper
	filter   *cel.Filter
	webURL   string
	logger   logger.Logger
}

func New(session Session, lister servers.Lister, resolver *servers.Resolver, store audit.Store, dedup Deduper, cfg Config, log logger.Logger) *Bot {
	if store == nil {
		store = audit.NopStore{}
	}
	if resolver == nil {
		resolver = servers.NewResolver()
	}
	return &Bot{
		session:  session,
		lister:   lister,
		resolver: resolver,
		store:    store,
		dedup:    dedup,
		filter:   cfg.Filter,
		webURL:   cfg.WebURL,
		logger:   log,
	}
}

func (b *Bot) recover(ctx context.Context, event string) {
	if r := recover(); r != nil {
		err := apperrors.RecoverPanic(r)
		b.logger.ErrorwCtx(ctx, "Panic in gateway handler", "event", event, "error", err)
	}
}

func (b *Bot) audit(ctx context.Context, entry audit.CommandLog) {
	if err := b.store.LogCommand(ctx, entry); err != nil {
		b.logger.ErrorwCtx(ctx, "Failed to log command", "command", entry.CommandName, "error", err)
	}
}

// truncate cuts s to Discord's message limit, counted in runes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	const ellipsis = "..."
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
