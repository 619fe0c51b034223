package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/internal/constants"
)

func TestHandleMessage_RepliesWithLink(t *testing.T) {
	h := newHarness(t, "")

	h.bot.HandleMessage(context.Background(), captureMessage("notes.txt", "Trace.PCAPNG", "other.pcap"))

	require.Len(t, h.session.replies, 1)
	reply := h.session.replies[0]
	assert.Equal(t, testChannel, reply.channelID)
	assert.Equal(t, "You can view your PCAP [here](https://pcap.example.org?channel=123456789012345678&msg=876543210987654321)", reply.content)
	require.NotNil(t, reply.reference)
	assert.Equal(t, testMessage, reply.reference.MessageID)
	assert.Equal(t, testChannel, reply.reference.ChannelID)

	require.Len(t, h.store.entries, 1)
	entry := h.store.entries[0]
	assert.Equal(t, constants.CommandPcapDetect, entry.CommandName)
	assert.Equal(t, testUser, entry.UserID)
	assert.Equal(t, "wireshark_fan", entry.UserName)
	assert.Equal(t, testChannel, entry.ChannelID)
	require.NotNil(t, entry.GuildID)
	assert.Equal(t, testGuild, *entry.GuildID)
	assert.Equal(t, testMessage, entry.MessageID)
	assert.True(t, entry.Success)
	assert.Nil(t, entry.ErrorMessage)
}

func TestHandleMessage_Ignored(t *testing.T) {
	t.Run("bot author", func(t *testing.T) {
		h := newHarness(t, "")
		m := captureMessage("a.pcap")
		m.Author.Bot = true
		h.bot.HandleMessage(context.Background(), m)
		assert.Empty(t, h.session.replies)
		assert.Empty(t, h.store.entries)
	})

	t.Run("no capture attachment", func(t *testing.T) {
		h := newHarness(t, "")
		h.bot.HandleMessage(context.Background(), captureMessage("notes.txt", "image.png"))
		assert.Empty(t, h.session.replies)
		assert.Empty(t, h.store.entries)
	})

	t.Run("nil message", func(t *testing.T) {
		h := newHarness(t, "")
		h.bot.HandleMessage(context.Background(), nil)
		assert.Empty(t, h.session.replies)
	})
}

func TestHandleMessage_DuplicateDelivery(t *testing.T) {
	h := newHarness(t, "")

	h.bot.HandleMessage(context.Background(), captureMessage("a.pcap"))
	h.bot.HandleMessage(context.Background(), captureMessage("a.pcap"))

	assert.Len(t, h.session.replies, 1)
	assert.Len(t, h.store.entries, 1)
}

func TestHandleMessage_ReplyFilter(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		h := newHarness(t, `is_dm || guild_id != "`+testGuild+`"`)
		h.bot.HandleMessage(context.Background(), captureMessage("a.pcap"))
		assert.Empty(t, h.session.replies)
		assert.Empty(t, h.store.entries)
	})

	t.Run("accepted", func(t *testing.T) {
		h := newHarness(t, `filename.endsWith(".pcap") && !is_dm`)
		h.bot.HandleMessage(context.Background(), captureMessage("a.pcap"))
		assert.Len(t, h.session.replies, 1)
	})

	t.Run("direct message", func(t *testing.T) {
		h := newHarness(t, `is_dm`)
		m := captureMessage("a.pcap")
		m.GuildID = ""
		h.bot.HandleMessage(context.Background(), m)
		require.Len(t, h.session.replies, 1)
		require.Len(t, h.store.entries, 1)
		assert.Nil(t, h.store.entries[0].GuildID)
	})
}

func TestHandleMessage_ReplyFails(t *testing.T) {
	h := newHarness(t, "")
	h.session.replyErr = errDiscordDown

	h.bot.HandleMessage(context.Background(), captureMessage("a.pcap"))

	require.Len(t, h.store.entries, 1)
	entry := h.store.entries[0]
	assert.False(t, entry.Success)
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "Failed to send reply", *entry.ErrorMessage)
}

func TestHandleMessage_AuditFailureDoesNotPanic(t *testing.T) {
	h := newHarness(t, "")
	h.store.err = errDiscordDown

	assert.NotPanics(t, func() {
		h.bot.HandleMessage(context.Background(), captureMessage("a.pcap"))
	})
	assert.Len(t, h.session.replies, 1)
}
