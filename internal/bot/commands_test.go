package bot

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcaplink/internal/servers"
)

func commandInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "333333333333333333",
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: testChannel,
		GuildID:   testGuild,
		Member:    &discordgo.Member{User: &discordgo.User{ID: testUser, Username: "wireshark_fan"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}
}

func serverInteraction(query string) *discordgo.Interaction {
	return commandInteraction("server", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "name",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: query,
	})
}

func strPtr(s string) *string { return &s }

func listing() []servers.Record {
	return []servers.Record{
		{
			Name:       "Levistras",
			Host:       "play.levistras.com",
			Port:       "9000",
			DiscordURL: strPtr("https://discord.gg/levistras"),
			Players:    &servers.Players{Count: 42, Age: "5 minutes ago"},
		},
		{
			Name: "Coldeve",
			Host: "coldeve.example.net",
			Port: "9050",
		},
	}
}

func onlyResponse(t *testing.T, s *fakeSession) string {
	t.Helper()
	require.Len(t, s.responses, 1)
	resp := s.responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	require.NotNil(t, resp.Data)
	return resp.Data.Content
}

func TestCommands_Definitions(t *testing.T) {
	cmds := Commands()
	require.Len(t, cmds, 2)

	assert.Equal(t, "status", cmds[0].Name)
	assert.Equal(t, "Check bot status", cmds[0].Description)

	assert.Equal(t, "server", cmds[1].Name)
	assert.Equal(t, "Get connection info for an AC server", cmds[1].Description)
	require.Len(t, cmds[1].Options, 1)
	opt := cmds[1].Options[0]
	assert.Equal(t, "name", opt.Name)
	assert.Equal(t, "Server name (supports fuzzy matching)", opt.Description)
	assert.Equal(t, discordgo.ApplicationCommandOptionString, opt.Type)
	assert.True(t, opt.Required)
}

func TestHandleReady_RegistersGlobalCommands(t *testing.T) {
	t.Run("uses application id", func(t *testing.T) {
		h := newHarness(t, "")
		h.bot.HandleReady(context.Background(), &discordgo.Ready{
			User:        &discordgo.User{ID: "444444444444444444", Username: "pcaplink"},
			Application: &discordgo.Application{ID: "555555555555555555"},
		})

		require.Len(t, h.session.commands, 2)
		assert.Equal(t, []string{"555555555555555555", "555555555555555555"}, h.session.appIDs)
	})

	t.Run("falls back to user id and keeps going after a failure", func(t *testing.T) {
		h := newHarness(t, "")
		h.session.commandErr = errDiscordDown
		h.bot.HandleReady(context.Background(), &discordgo.Ready{
			User: &discordgo.User{ID: "444444444444444444", Username: "pcaplink"},
		})

		assert.Equal(t, []string{"444444444444444444", "444444444444444444"}, h.session.appIDs)
	})
}

func TestHandleInteraction_Status(t *testing.T) {
	h := newHarness(t, "")

	h.bot.HandleInteraction(context.Background(), commandInteraction("status"))

	assert.Equal(t, "Okay", onlyResponse(t, h.session))
	assert.Zero(t, h.lister.calls)

	require.Len(t, h.store.entries, 1)
	entry := h.store.entries[0]
	assert.Equal(t, "status", entry.CommandName)
	assert.Equal(t, testUser, entry.UserID)
	assert.Equal(t, "wireshark_fan", entry.UserName)
	assert.Equal(t, "333333333333333333", entry.MessageID)
	assert.True(t, entry.Success)
}

func TestHandleInteraction_Server(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		records []servers.Record
		err     error
		want    string
	}{
		{
			name:    "exact match",
			query:   "levistras",
			records: listing(),
			want: "You can connect to Levistras at `play.levistras.com:9000`. Levistras's Discord is " +
				"https://discord.gg/levistras. As of 5 minutes ago, 42 characters were in the game world.",
		},
		{
			name:    "fuzzy match",
			query:   "levistrs",
			records: listing(),
			want: "You can connect to Levistras at `play.levistras.com:9000`. Levistras's Discord is " +
				"https://discord.gg/levistras. As of 5 minutes ago, 42 characters were in the game world.",
		},
		{
			name:    "no discord no players",
			query:   "Coldeve",
			records: listing(),
			want: "You can connect to Coldeve at `coldeve.example.net:9050`. Coldeve doesn't have a Discord and " +
				"I don't seem to have any information on player counts. They must not use TreeStats :(",
		},
		{
			name:    "not found",
			query:   "zzzzz",
			records: listing(),
			want:    "Server 'zzzzz' not found. Please check the name and try again.",
		},
		{
			name:  "listing failure",
			query: "levistras",
			err:   errDiscordDown,
			want:  "Failed to fetch server list. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			h.lister.records = tt.records
			h.lister.err = tt.err

			h.bot.HandleInteraction(context.Background(), serverInteraction(tt.query))

			assert.Equal(t, tt.want, onlyResponse(t, h.session))
			assert.Equal(t, 1, h.lister.calls)
			require.Len(t, h.store.entries, 1)
			assert.Equal(t, "server", h.store.entries[0].CommandName)
		})
	}
}

func TestHandleInteraction_UnknownCommand(t *testing.T) {
	h := newHarness(t, "")
	h.bot.HandleInteraction(context.Background(), commandInteraction("dance"))
	assert.Equal(t, "Unknown command", onlyResponse(t, h.session))
}

func TestHandleInteraction_DirectMessageUser(t *testing.T) {
	h := newHarness(t, "")
	i := commandInteraction("status")
	i.Member = nil
	i.GuildID = ""
	i.User = &discordgo.User{ID: "666666666666666666", Username: "dm_user"}

	h.bot.HandleInteraction(context.Background(), i)

	require.Len(t, h.store.entries, 1)
	assert.Equal(t, "666666666666666666", h.store.entries[0].UserID)
	assert.Nil(t, h.store.entries[0].GuildID)
}

func TestHandleInteraction_RespondFails(t *testing.T) {
	h := newHarness(t, "")
	h.session.respondErr = errDiscordDown

	h.bot.HandleInteraction(context.Background(), commandInteraction("status"))

	require.Len(t, h.store.entries, 1)
	assert.False(t, h.store.entries[0].Success)
	require.NotNil(t, h.store.entries[0].ErrorMessage)
	assert.Equal(t, "Failed to send response", *h.store.entries[0].ErrorMessage)
}

func TestHandleInteraction_IgnoresOtherTypes(t *testing.T) {
	h := newHarness(t, "")
	i := commandInteraction("status")
	i.Type = discordgo.InteractionPing

	h.bot.HandleInteraction(context.Background(), i)

	assert.Empty(t, h.session.responses)
	assert.Empty(t, h.store.entries)
}
