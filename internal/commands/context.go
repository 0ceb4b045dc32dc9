// /internal/commands/context.go
package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"spotmirror/internal/catalog"
	"spotmirror/internal/relay"
	"spotmirror/internal/storage"
	"spotmirror/internal/syncer"
)

// ackTimeout bounds the initial acknowledgement of an interaction. The
// heavy work is decoupled from it and may run much longer.
const ackTimeout = 3 * time.Second

// Deps are the collaborators handed to every command handler.
type Deps struct {
	Storage *storage.Storage
	Catalog *catalog.Client
	Syncer  *syncer.Syncer
	Relay   *relay.Relay
	Acks    *AckRegistry
	Log     zerolog.Logger
}

type SlashContext struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Deps        *Deps

	acked bool
}

// Acked reports whether an initial response or deferral was already
// sent, which decides edit-vs-reply for failure messages.
func (c *SlashContext) Acked() bool { return c.acked }

// Respond sends the one-and-only initial response. Duplicate attempts
// for the same interaction are logged no-ops.
func (c *SlashContext) Respond(content string) {
	c.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func (c *SlashContext) RespondEphemeral(content string) {
	c.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// DeferEphemeral acknowledges the interaction within the transport's
// response window so the actual work can take its time.
func (c *SlashContext) DeferEphemeral() error {
	tctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()

	err := c.Deps.Acks.Respond(c.Session, c.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(tctx))
	if err != nil {
		return err
	}
	c.acked = true
	return nil
}

// Edit replaces the deferred response with the final content.
func (c *SlashContext) Edit(content string) {
	_, err := c.Session.InteractionResponseEdit(c.Interaction.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		c.Deps.Log.Error().Err(err).Str("command", c.commandName()).Msg("failed to edit deferred response")
	}
}

// Async runs heavy work off the event goroutine. Anything escaping the
// work — panic included — collapses to one generic user-visible
// failure, edited into the deferred response or sent fresh depending on
// acknowledgement state.
func (c *SlashContext) Async(work func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				c.Deps.Log.Error().
					Interface("panic", rec).
					Str("command", c.commandName()).
					Msg("command work panicked")
				c.Fail()
			}
		}()
		work()
	}()
}

// Fail delivers the generic failure message.
func (c *SlashContext) Fail() {
	if c.acked {
		c.Edit(genericFailure)
		return
	}
	c.RespondEphemeral(genericFailure)
}

func (c *SlashContext) respond(resp *discordgo.InteractionResponse) {
	if err := c.Deps.Acks.Respond(c.Session, c.Interaction, resp); err != nil {
		c.Deps.Log.Error().Err(err).Str("command", c.commandName()).Msg("failed to respond to interaction")
		return
	}
	c.acked = true
}

func (c *SlashContext) commandName() string {
	if c.Interaction.Type == discordgo.InteractionApplicationCommand ||
		c.Interaction.Type == discordgo.InteractionApplicationCommandAutocomplete {
		return c.Interaction.ApplicationCommandData().Name
	}
	return ""
}
