package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"

	"pcaplink/internal/audit"
	"pcaplink/internal/constants"
	"pcaplink/internal/servers"
	"pcaplink/pkg/logging"
	"pcaplink/pkg/metrics"
)

const (
	statusReply        = "Okay"
	unknownCommandText = "Unknown command"
	respondFailedText  = "Failed to send response"
	serverOptionName   = "name"
)

// Commands are the global application commands registered on Ready.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        constants.CommandStatus,
			Description: "Check bot status",
		},
		{
			Name:        constants.CommandServer,
			Description: "Get connection info for an AC server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        serverOptionName,
					Description: "Server name (supports fuzzy matching)",
					Required:    true,
				},
			},
		},
	}
}

func (b *Bot) HandleReady(ctx context.Context, r *discordgo.Ready) {
	defer b.recover(ctx, "ready")
	if r == nil || r.User == nil {
		return
	}

	b.logger.InfowCtx(ctx, "Bot connected", "user", r.User.Username)

	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	for _, cmd := range Commands() {
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			b.logger.ErrorwCtx(ctx, "Failed to create command", "command", cmd.Name, "error", err)
		}
	}
}

func (b *Bot) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	defer b.recover(ctx, "interaction_create")
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	user := interactionUser(i)
	if user != nil {
		ctx = logging.WithUserID(ctx, user.ID)
	}
	b.logger.InfowCtx(ctx, "Received command", "command", data.Name)

	content := b.commandReply(ctx, data)

	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: truncate(content, constants.DiscordMessageLimit),
		},
	})

	entry := audit.CommandLog{
		CommandName: data.Name,
		ChannelID:   i.ChannelID,
		GuildID:     optionalString(i.GuildID),
		MessageID:   i.ID,
		Success:     err == nil,
	}
	if user != nil {
		entry.UserID = user.ID
		entry.UserName = user.Username
	}
	if err != nil {
		b.logger.ErrorwCtx(ctx, "Failed to respond to command", "command", data.Name, "error", err)
		entry.ErrorMessage = optionalString(respondFailedText)
		metrics.IncBotEvent(data.Name, "error")
	} else {
		metrics.IncBotEvent(data.Name, "ok")
	}
	b.audit(ctx, entry)
}

func (b *Bot) commandReply(ctx context.Context, data discordgo.ApplicationCommandInteractionData) string {
	switch data.Name {
	case constants.CommandStatus:
		return statusReply
	case constants.CommandServer:
		return b.serverReply(ctx, stringOption(data.Options, serverOptionName))
	default:
		return unknownCommandText
	}
}

func (b *Bot) serverReply(ctx context.Context, query string) string {
	list, err := b.lister.List(ctx)
	if err != nil {
		b.logger.ErrorwCtx(ctx, "Failed to fetch servers", "error", err)
		metrics.IncServerLookup("listing_error")
		return servers.ListingFailedMessage
	}

	match := b.resolver.Resolve(query, list)
	if match == nil {
		metrics.IncServerLookup("none")
		return servers.NotFoundMessage(query)
	}

	if match.Exact {
		metrics.IncServerLookup("exact")
	} else {
		metrics.IncServerLookup("fuzzy")
	}
	b.logger.DebugwCtx(ctx, "Resolved server", "query", query, "server", match.Record.Name, "score", match.Score)
	return servers.Describe(match.Record)
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt != nil && strings.EqualFold(opt.Name, name) && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// interactionUser is the member's user in guilds and the plain user in DMs.
func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
