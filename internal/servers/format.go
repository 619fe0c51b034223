package servers

import (
	"fmt"
	"strings"
)

const (
	ListingFailedMessage = "Failed to fetch server list. Please try again later."
	noPlayerInfo         = "I don't seem to have any information on player counts. They must not use TreeStats :("
)

func NotFoundMessage(query string) string {
	return fmt.Sprintf("Server '%s' not found. Please check the name and try again.", query)
}

// Describe renders the connection details reply for a resolved record.
func Describe(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You can connect to %s at `%s:%s`.", r.Name, r.Host, r.Port)

	hasDiscord := r.DiscordURL != nil
	switch {
	case hasDiscord && r.Players != nil:
		fmt.Fprintf(&b, " %s's Discord is %s. %s", r.Name, *r.DiscordURL, playerSentence(r.Players))
	case r.Players != nil:
		fmt.Fprintf(&b, " %s doesn't have a Discord. %s", r.Name, playerSentence(r.Players))
	case hasDiscord:
		fmt.Fprintf(&b, " %s's Discord is %s. %s", r.Name, *r.DiscordURL, noPlayerInfo)
	default:
		fmt.Fprintf(&b, " %s doesn't have a Discord and %s", r.Name, noPlayerInfo)
	}
	return b.String()
}

func playerSentence(p *Players) string {
	noun, verb := "characters", "were"
	if p.Count == 1 {
		noun, verb = "character", "was"
	}
	return fmt.Sprintf("As of %s, %d %s %s in the game world.", p.Age, p.Count, noun, verb)
}
