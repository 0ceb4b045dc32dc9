package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
)

func init() {
	Register(&Command{
		Sort:         40,
		Name:         "relay",
		Description:  "Forward a message to the configured outbound webhook",
		Category:     "Utilities",
		RequireAdmin: true,
		SlashOptions: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Text to forward",
				Required:    true,
			},
		},
		DCSlashHandler: relaySlashHandler,
	})
}

func relaySlashHandler(ctx *SlashContext) {
	i := ctx.Interaction

	if !ctx.Deps.Relay.Configured() {
		ctx.RespondEphemeral("No outbound webhook is configured (`RELAY_WEBHOOK_URL`).")
		return
	}

	message := optionMap(i)["message"].StringValue()

	tctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ctx.Deps.Relay.Forward(tctx, map[string]any{
		"content":  message,
		"username": i.Member.User.Username,
	}); err != nil {
		ctx.Deps.Log.Error().Err(err).Msg("relay failed")
		ctx.RespondEphemeral("Forwarding failed — the webhook did not accept the message.")
		return
	}

	ctx.RespondEphemeral("Message relayed.")
}
