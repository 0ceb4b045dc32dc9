package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"spotmirror/internal/catalog"
)

func init() {
	Register(&Command{
		Sort:         30,
		Name:         "populate",
		Description:  "Create one forum post per map of a server, filled with its spots",
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
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "forum",
				Description:  "Forum channel to populate",
				Required:     true,
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildForum},
			},
		},
		DCSlashHandler: populateSlashHandler,
	})
}

func populateSlashHandler(ctx *SlashContext) {
	i := ctx.Interaction
	opts := optionMap(i)

	server := opts["server"].StringValue()
	forum := opts["forum"].ChannelValue(ctx.Session)
	if forum == nil || forum.Type != discordgo.ChannelTypeGuildForum {
		ctx.RespondEphemeral("Pick a forum channel — maps are posted as forum threads.")
		return
	}

	if err := ctx.DeferEphemeral(); err != nil {
		return
	}

	ctx.Async(func() {
		sum := ctx.Deps.Syncer.Populate(context.Background(), i.GuildID, server, forum.ID)
		if sum.Synced == 0 && sum.Failed == 0 {
			ctx.Edit(fmt.Sprintf("No map of `%s` has any spots right now — nothing was created.", server))
			return
		}
		ctx.Edit(fmt.Sprintf("Populate finished for `%s`: %d map threads created, %d failed.", server, sum.Synced, sum.Failed))
	})
}
