// Package discord wires the bot to the gateway: session lifecycle,
// slash-command registration and interaction dispatch.
package discord

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"spotmirror/internal/catalog"
	"spotmirror/internal/commands"
	"spotmirror/internal/config"
	"spotmirror/internal/relay"
	"spotmirror/internal/render"
	"spotmirror/internal/storage"
	"spotmirror/internal/syncer"
	"spotmirror/internal/version"
)

// Bot is the Discord side of the spot mirror.
type Bot struct {
	dg   *discordgo.Session
	cfg  *config.Config
	deps *commands.Deps
	log  zerolog.Logger
}

// StartBot connects and blocks until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, cat *catalog.Client, rel *relay.Relay, logger zerolog.Logger) error {
	b := &Bot{
		cfg: cfg,
		log: logger.With().Str("component", "discord").Logger(),
	}
	if err := b.run(ctx, cfg, store, cat, rel, logger); err != nil {
		return fmt.Errorf("bot run error: %w", err)
	}
	return nil
}

func (b *Bot) run(ctx context.Context, cfg *config.Config, store *storage.Storage, cat *catalog.Client, rel *relay.Relay, logger zerolog.Logger) error {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	renderer := &render.Renderer{
		Fetcher:       cat,
		PublicBaseURL: cfg.PublicStorageURL,
	}
	b.deps = &commands.Deps{
		Storage: store,
		Catalog: cat,
		Syncer:  syncer.New(dg, cat, store, renderer, syncer.DefaultConfig(), logger),
		Relay:   rel,
		Acks:    commands.NewAckRegistry(logger),
		Log:     logger,
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onGuildCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if b.cfg.InitSlashCommands {
		for _, g := range r.Guilds {
			if err := b.registerCommands(g.ID); err != nil {
				b.log.Error().Err(err).Str("guild", g.ID).Msg("slash command registration failed")
			}
		}
	} else {
		b.log.Info().Msg("slash command registration skipped")
	}

	b.log.Info().
		Str("bot", s.State.User.Username).
		Int("guilds", len(r.Guilds)).
		Msgf("%s is running", version.AppName)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild", g.Guild.ID).Str("name", g.Guild.Name).Msg("joined guild")
	if err := b.registerCommands(g.Guild.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.Guild.ID).Msg("slash command registration failed")
	}
}

// registerCommands bulk-overwrites the guild's slash commands with the
// registry's current definitions.
func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	cmds := commands.All()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Sort < cmds[j].Sort })

	defs := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		defs = append(defs, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.SlashOptions,
		})
	}

	_, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, defs)
	return err
}

// onInteractionCreate routes interactions to the registry. Every
// handler runs behind the admin gate and a recover barrier so no
// failure escapes to the transport's unhandled path.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchSlash(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.dispatchAutocomplete(s, i)
	default:
		b.log.Debug().Int("type", int(i.Type)).Msg("unhandled interaction type")
	}
}

func (b *Bot) dispatchSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	cmd, ok := commands.Get(name)
	if !ok || cmd.DCSlashHandler == nil {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	ctx := &commands.SlashContext{Session: s, Interaction: i, Deps: b.deps}

	if i.GuildID == "" {
		ctx.RespondEphemeral("This command only works inside a server.")
		return
	}

	if cmd.RequireAdmin && !b.isAdmin(s, i) {
		ctx.RespondEphemeral("You need the **Administrator** permission to use this command.")
		return
	}

	b.logCommand(i, name)

	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().Interface("panic", rec).Str("command", name).Msg("command handler panicked")
			ctx.Fail()
		}
	}()
	cmd.DCSlashHandler(ctx)
}

func (b *Bot) dispatchAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	cmd, ok := commands.Get(name)
	if !ok || cmd.DCAutocompleteHandler == nil {
		return
	}

	ctx := &commands.SlashContext{Session: s, Interaction: i, Deps: b.deps}

	defer func() {
		if rec := recover(); rec != nil {
			b.log.Error().Interface("panic", rec).Str("command", name).Msg("autocomplete handler panicked")
		}
	}()
	cmd.DCAutocompleteHandler(ctx)
}

func (b *Bot) isAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if guild, err := s.State.Guild(i.GuildID); err == nil && guild != nil {
		if i.Member.User.ID == guild.OwnerID {
			return true
		}
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// logCommand records the invocation in the guild's command history.
func (b *Bot) logCommand(i *discordgo.InteractionCreate, name string) {
	var param string
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		if opts[0].Type == discordgo.ApplicationCommandOptionString {
			param = opts[0].StringValue()
		}
	}

	entry := storage.CommandHistoryRecord{
		ChannelID: i.ChannelID,
		UserID:    i.Member.User.ID,
		Username:  i.Member.User.Username,
		Command:   name,
		Param:     param,
	}
	if err := b.deps.Storage.AppendCommandToHistory(i.GuildID, entry); err != nil {
		b.log.Warn().Err(err).Str("command", name).Msg("failed to record command history")
	}
}
