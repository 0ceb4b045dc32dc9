package commands

import (
	"github.com/bwmarrin/discordgo"
)

const genericFailure = "Something went wrong while talking to the spots catalog. Try again in a moment."

// missingBotPerms names the capability the bot itself lacks — the user
// can act on this, unlike a generic failure.
const missingBotPerms = "I need the **Manage Messages** permission in this channel to rewrite it."

// optionMap flattens interaction options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// checkBotPermissions verifies the bot can manage messages in the
// channel it is about to rewrite.
func checkBotPermissions(s *discordgo.Session, channelID string) bool {
	botID := s.State.User.ID
	perms, err := s.UserChannelPermissions(botID, channelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionManageMessages != 0
}

// serverChoices builds the slash choice list from the known servers.
func serverChoices(servers []string) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(servers))
	for _, s := range servers {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: s, Value: s})
	}
	return choices
}
