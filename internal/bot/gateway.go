package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"pcaplink/internal/constants"
	"pcaplink/internal/logger"
)

// Intents requests guild and DM messages plus their content, which is
// needed to see attachments.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

// Gateway owns the websocket session and forwards its events to a Bot.
type Gateway struct {
	session *discordgo.Session
	logger  logger.Logger
	removes []func()
}

func NewGateway(token string, log logger.Logger) (*Gateway, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New(constants.DiscordTokenPrefix + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = Intents

	return &Gateway{session: session, logger: log}, nil
}

// Session exposes the REST side of the gateway session to the Bot.
func (g *Gateway) Session() Session {
	return g.session
}

// Attach routes gateway events to b. Handlers stop doing work once ctx is done.
func (g *Gateway) Attach(ctx context.Context, b *Bot) {
	g.removes = append(g.removes,
		g.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			b.HandleReady(hctx, r)
		}),
		g.session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
			if ctx.Err() != nil {
				return
			}
			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			b.HandleInteraction(hctx, i.Interaction)
		}),
		g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			if ctx.Err() != nil {
				return
			}
			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			b.HandleMessage(hctx, m.Message)
		}),
	)
}

func (g *Gateway) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	g.logger.InfowCtx(ctx, "Discord gateway connected")
	return nil
}

// Run blocks until ctx is done, then closes the session.
func (g *Gateway) Run(ctx context.Context) error {
	<-ctx.Done()
	return g.Close()
}

func (g *Gateway) Close() error {
	for _, remove := range g.removes {
		remove()
	}
	g.removes = nil
	if err := g.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord gateway: %w", err)
	}
	return nil
}
