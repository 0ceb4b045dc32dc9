package commands

import (
	"fmt"

	"spotmirror/internal/version"
)

func init() {
	Register(&Command{
		Sort:           91,
		Name:           "about",
		Description:    "What this bot does",
		Category:       "Information",
		DCSlashHandler: aboutSlashHandler,
	})
}

func aboutSlashHandler(ctx *SlashContext) {
	ctx.RespondEphemeral(fmt.Sprintf(
		"**%s** v%s\nMirrors the spots catalog into channels. `/spots` posts a map, `/update` re-syncs, `/populate` fills a forum.",
		version.AppName, version.Version,
	))
}
