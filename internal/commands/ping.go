package commands

import (
	"context"
	"fmt"
)

func init() {
	Register(&Command{
		Sort:           90,
		Name:           "ping",
		Description:    "Check bot and catalog reachability",
		Category:       "Information",
		DCSlashHandler: pingSlashHandler,
	})
}

func pingSlashHandler(ctx *SlashContext) {
	tctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()

	catalogState := "unreachable ❌"
	if ctx.Deps.Catalog.Reachable(tctx) {
		catalogState = "reachable ✅"
	}

	latency := ctx.Session.HeartbeatLatency().Milliseconds()
	ctx.RespondEphemeral(fmt.Sprintf("Pong — gateway %dms, catalog %s.", latency, catalogState))
}
