package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"spotmirror/internal/catalog"
)

const maxAutocompleteChoices = 25

func init() {
	Register(&Command{
		Sort:         10,
		Name:         "spots",
		Description:  "Post the spots of a map into this channel",
		Category:     "Spots",
		RequireAdmin: true,
		SlashOptions: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "server",
				Description: "Game server",
				Required:    true,
				Choices:     serverChoices(catalog.KnownServers),
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "map",
				Description:  "Map to post spots for",
				Required:     true,
				Autocomplete: true,
			},
		},
		DCSlashHandler:        spotsSlashHandler,
		DCAutocompleteHandler: mapAutocompleteHandler,
	})
}

// spotsSlashHandler is the initial-population flow: render the dataset
// into the current channel without clearing it, and remember the
// binding.
func spotsSlashHandler(ctx *SlashContext) {
	i := ctx.Interaction
	opts := optionMap(i)

	server := opts["server"].StringValue()
	mapName := opts["map"].StringValue()

	if !catalog.ValidServer(server) {
		ctx.RespondEphemeral(fmt.Sprintf("Unknown server `%s`.", server))
		return
	}

	bg := context.Background()
	if !containsFold(ctx.Deps.Catalog.MapsForServer(bg, server), mapName) {
		ctx.RespondEphemeral(fmt.Sprintf("Unknown map `%s` for server `%s`.", mapName, server))
		return
	}

	if err := ctx.DeferEphemeral(); err != nil {
		return
	}

	ctx.Async(func() {
		outcome := ctx.Deps.Syncer.PostDataset(bg, i.GuildID, i.ChannelID, server, mapName)
		switch {
		case outcome.Err != nil:
			ctx.Deps.Log.Error().Err(outcome.Err).
				Str("channel", i.ChannelID).
				Str("server", server).
				Str("map", mapName).
				Msg("spots command failed")
			ctx.Fail()
		case outcome.NoData:
			ctx.Edit(fmt.Sprintf("No spots found for map `%s` on `%s`.", mapName, server))
		default:
			ctx.Edit(fmt.Sprintf("Posted `%s` spots for `%s` — %d messages.", mapName, server, outcome.MessagesSent))
		}
	})
}

// mapAutocompleteHandler answers map-name autocomplete with a
// case-insensitive substring filter over the server's known maps. The
// ack registry guarantees at most one response per request.
func mapAutocompleteHandler(ctx *SlashContext) {
	i := ctx.Interaction
	opts := optionMap(i)

	server := catalog.KnownServers[0]
	if opt, ok := opts["server"]; ok && opt.StringValue() != "" {
		server = opt.StringValue()
	}

	var typed string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			typed = opt.StringValue()
			break
		}
	}

	tctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, m := range ctx.Deps.Catalog.MapsForServer(tctx, server) {
		if typed != "" && !strings.Contains(strings.ToLower(m), strings.ToLower(typed)) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: m, Value: m})
		if len(choices) == maxAutocompleteChoices {
			break
		}
	}

	err := ctx.Deps.Acks.Respond(ctx.Session, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}, discordgo.WithContext(tctx))
	if err != nil {
		ctx.Deps.Log.Warn().Err(err).Msg("autocomplete response failed")
	}
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
