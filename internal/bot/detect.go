package bot

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bwmarrin/discordgo"

	"pcaplink/internal/audit"
	"pcaplink/internal/constants"
	"pcaplink/internal/discord"
	"pcaplink/pkg/cel"
	"pcaplink/pkg/logging"
	"pcaplink/pkg/metrics"
)

const replyFailedText = "Failed to send reply"

// HandleMessage replies with a web link when a human posts a capture file.
func (b *Bot) HandleMessage(ctx context.Context, m *discordgo.Message) {
	defer b.recover(ctx, "message_create")
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}

	attachment := firstCapture(m.Attachments)
	if attachment == nil {
		return
	}

	ctx = logging.WithDiscordMessage(ctx, m.ChannelID, m.ID)
	ctx = logging.WithUserID(ctx, m.Author.ID)

	if b.dedup != nil && !b.dedup.FirstSeen(ctx, m.ID) {
		b.logger.DebugwCtx(ctx, "Skipping already handled message")
		metrics.IncBotEvent(constants.CommandPcapDetect, "duplicate")
		return
	}

	allowed, err := b.filter.Allow(ctx, cel.Subject{
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
		Filename:  attachment.Filename,
		IsDM:      m.GuildID == "",
	})
	if err != nil {
		b.logger.WarnwCtx(ctx, "Reply filter failed, not replying", "filter", b.filter.String(), "error", err)
		metrics.IncBotEvent(constants.CommandPcapDetect, "filter_error")
		return
	}
	if !allowed {
		b.logger.DebugwCtx(ctx, "Reply filtered out", "filter", b.filter.String())
		metrics.IncBotEvent(constants.CommandPcapDetect, "filtered")
		return
	}

	b.logger.InfowCtx(ctx, "Capture attachment detected", "filename", attachment.Filename)

	reply := truncate(captureReply(b.webURL, m.ChannelID, m.ID), constants.DiscordMessageLimit)
	_, err = b.session.ChannelMessageSendReply(m.ChannelID, reply, &discordgo.MessageReference{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
	})

	entry := audit.CommandLog{
		CommandName: constants.CommandPcapDetect,
		UserID:      m.Author.ID,
		UserName:    m.Author.Username,
		ChannelID:   m.ChannelID,
		GuildID:     optionalString(m.GuildID),
		MessageID:   m.ID,
		Success:     err == nil,
	}
	if err != nil {
		b.logger.ErrorwCtx(ctx, "Failed to send reply", "error", err)
		entry.ErrorMessage = optionalString(replyFailedText)
		metrics.IncBotEvent(constants.CommandPcapDetect, "error")
	} else {
		metrics.IncBotEvent(constants.CommandPcapDetect, "ok")
	}
	b.audit(ctx, entry)
}

func firstCapture(attachments []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, a := range attachments {
		if a != nil && discord.LooksLikeCapture(a.Filename) {
			return a
		}
	}
	return nil
}

func captureReply(webURL, channelID, messageID string) string {
	q := url.Values{}
	q.Set("channel", channelID)
	q.Set("msg", messageID)
	return fmt.Sprintf("You can view your PCAP [here](%s?%s)", webURL, q.Encode())
}
