package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"spotmirror/internal/catalog"
	"spotmirror/internal/syncer"
)

func init() {
	Register(&Command{
		Sort:         20,
		Name:         "update",
		Description:  "Re-sync spots in this channel, or in every bound channel",
		Category:     "Spots",
		RequireAdmin: true,
		SlashOptions: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "scope",
				Description: "What to update",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "This channel (default)", Value: "here"},
					{Name: "All bound channels", Value: "all"},
				},
			},
		},
		DCSlashHandler: updateSlashHandler,
	})
}

func updateSlashHandler(ctx *SlashContext) {
	s, i := ctx.Session, ctx.Interaction

	scope := "here"
	if opt, ok := optionMap(i)["scope"]; ok {
		scope = opt.StringValue()
	}

	if scope == "here" && !checkBotPermissions(s, i.ChannelID) {
		ctx.RespondEphemeral(missingBotPerms)
		return
	}

	if err := ctx.DeferEphemeral(); err != nil {
		return
	}

	bg := context.Background()

	if scope == "all" {
		ctx.Async(func() {
			sum := ctx.Deps.Syncer.SyncAll(bg, i.GuildID)
			if sum.Synced == 0 && sum.Failed == 0 {
				ctx.Edit("No channels are bound to a dataset in this guild yet. Run `/spots` somewhere first.")
				return
			}
			ctx.Edit(fmt.Sprintf("Guild update finished: %d channels synced, %d failed.", sum.Synced, sum.Failed))
		})
		return
	}

	ctx.Async(func() {
		outcome := ctx.Deps.Syncer.SyncChannel(bg, syncer.Request{
			GuildID:   i.GuildID,
			ChannelID: i.ChannelID,
		})
		ctx.Edit(updateMessage(outcome))
	})
}

// updateMessage maps a sync outcome to the user-visible result,
// keeping internal detail in the logs only.
func updateMessage(o syncer.Outcome) string {
	if o.Err == nil {
		if o.NoData {
			return fmt.Sprintf("Channel cleared — no spots currently exist for map `%s`.", o.Map)
		}
		return fmt.Sprintf("Updated `%s` spots for `%s` — %d messages posted.", o.Map, o.Server, o.MessagesSent)
	}

	var stateErr *syncer.StateError
	var clearErr *syncer.ClearError
	var upstreamErr *catalog.UpstreamError
	switch {
	case errors.Is(o.Err, syncer.ErrNothingToUpdate):
		return "Nothing to update here: this channel has no stored dataset and no recognizable spots header. Run `/spots` first."
	case errors.As(o.Err, &stateErr):
		return "This channel cannot be updated: " + stateErr.Reason + "."
	case errors.As(o.Err, &clearErr):
		return "Could not clear the previous content, so nothing was re-posted. Check my permissions and try again."
	case errors.As(o.Err, &upstreamErr):
		return genericFailure
	default:
		return genericFailure
	}
}
