package cel

// ReplyFilterExamples are sample bot.reply_filter expressions.
var ReplyFilterExamples = map[string]string{
	"guilds_only":        `!is_dm`,
	"single_channel":     `channel_id == "123456789012345678"`,
	"channel_allowlist":  `channel_id in ["123456789012345678", "223456789012345678"]`,
	"pcapng_only":        `filename.endsWith(".pcapng")`,
	"skip_user":          `user_id != "323456789012345678"`,
	"named_captures":     `filename.matches("^capture-[0-9]+\\.pcap(ng)?$")`,
	"guild_and_dm_rules": `is_dm || guild_id == "423456789012345678"`,
}
