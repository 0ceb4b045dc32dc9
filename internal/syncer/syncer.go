// Package syncer keeps Discord channels synchronized with the spots
// catalog: it resolves which dataset a channel mirrors, clears prior
// content within platform limits, and re-renders the dataset into an
// ordered message sequence — for one channel or fanned out across every
// bound channel in a guild.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"spotmirror/internal/catalog"
	"spotmirror/internal/render"
	"spotmirror/internal/storage"
)

// Transport is the slice of the Discord session the syncer needs.
// *discordgo.Session satisfies it.
type Transport interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesBulkDelete(channelID string, messages []string, options ...discordgo.RequestOption) error
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ForumThreadStartComplex(channelID string, threadData *discordgo.ThreadStart, messageData *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Catalog is the slice of the catalog client the syncer needs.
type Catalog interface {
	Spots(ctx context.Context, server, mapName, category string) ([]catalog.Spot, error)
	MapsForServer(ctx context.Context, server string) []string
}

// BindingStore persists channel→dataset bindings.
type BindingStore interface {
	SetBinding(guildID, channelID string, b storage.Binding) error
	GetBinding(guildID, channelID string) *storage.Binding
	AllBindings(guildID string) map[string]storage.Binding
}

// Config tunes the synchronizer's batch sizes and throttles.
type Config struct {
	// BatchSize is how many messages one clear iteration fetches and
	// deletes. Discord caps both the fetch and the bulk delete at 100.
	BatchSize int

	// MaxBulkAge is the platform's bulk-deletion age ceiling. Older
	// messages cannot be bulk-removed and are left in place.
	MaxBulkAge time.Duration

	// ClearInterval throttles consecutive clear batches.
	ClearInterval time.Duration

	// ChannelInterval throttles consecutive channels in a fan-out.
	ChannelInterval time.Duration

	// HistoryWindow bounds how many recent messages are scanned when
	// resolving a dataset from channel history.
	HistoryWindow int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		BatchSize:       100,
		MaxBulkAge:      14 * 24 * time.Hour,
		ClearInterval:   time.Second,
		ChannelInterval: 2 * time.Second,
		HistoryWindow:   100,
	}
}

// Syncer orchestrates channel synchronization.
type Syncer struct {
	transport Transport
	catalog   Catalog
	store     BindingStore
	renderer  *render.Renderer
	cfg       Config
	log       zerolog.Logger
}

func New(transport Transport, cat Catalog, store BindingStore, renderer *render.Renderer, cfg Config, logger zerolog.Logger) *Syncer {
	if cfg.BatchSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Syncer{
		transport: transport,
		catalog:   cat,
		store:     store,
		renderer:  renderer,
		cfg:       cfg,
		log:       logger.With().Str("component", "syncer").Logger(),
	}
}

// Request names the channel to synchronize. Server and Map are
// optional: when both are set they take precedence over any stored or
// recovered binding and are persisted as the channel's new binding.
type Request struct {
	GuildID   string
	ChannelID string
	Server    string
	Map       string
}

// Outcome is the per-channel result of one synchronization pass.
type Outcome struct {
	ChannelID    string
	Server       string
	Map          string
	MessagesSent int
	NoData       bool
	Err          error
}

// Success reports whether the pass completed without error.
func (o Outcome) Success() bool { return o.Err == nil }

// Summary aggregates a multi-channel fan-out.
type Summary struct {
	Synced int
	Failed int
}

// state is the explicit position of a synchronization pass. Every
// transition's guard lives in the step method returning the next state;
// stateFailed is reachable from any step.
type state int

const (
	stateResolve state = iota
	stateClear
	stateFetch
	stateRender
	stateEmit
	stateReport
	stateFailed
)

// channelRun carries one pass through the state machine.
type channelRun struct {
	s   *Syncer
	req Request

	clearFirst bool

	binding  storage.Binding
	spots    []catalog.Spot
	messages []render.Message
	sent     int
	noData   bool
	err      error
}

// SyncChannel runs the full flow for one channel: resolve → clear →
// fetch → render → emit → report.
func (s *Syncer) SyncChannel(ctx context.Context, req Request) Outcome {
	run := &channelRun{s: s, req: req, clearFirst: true}
	return run.run(ctx, stateResolve)
}

// PostDataset is the initial-population flow: bind the channel to the
// dataset and post the rendering without clearing anything first.
func (s *Syncer) PostDataset(ctx context.Context, guildID, channelID, server, mapName string) Outcome {
	run := &channelRun{
		s:          s,
		req:        Request{GuildID: guildID, ChannelID: channelID, Server: server, Map: mapName},
		clearFirst: false,
	}
	return run.run(ctx, stateResolve)
}

// syncBound runs steps 2–4 for a channel whose binding is already
// known, used by the fan-out flows.
func (s *Syncer) syncBound(ctx context.Context, guildID, channelID string, b storage.Binding) Outcome {
	run := &channelRun{
		s:          s,
		req:        Request{GuildID: guildID, ChannelID: channelID},
		clearFirst: true,
		binding:    b,
	}
	return run.run(ctx, stateClear)
}

func (r *channelRun) run(ctx context.Context, start state) Outcome {
	r.s.log.Debug().
		Str("guild", r.req.GuildID).
		Str("channel", r.req.ChannelID).
		Msg("sync pass starting")

	st := start
	for {
		switch st {
		case stateResolve:
			st = r.resolve(ctx)
		case stateClear:
			if !r.clearFirst {
				st = stateFetch
				continue
			}
			st = r.clear(ctx)
		case stateFetch:
			st = r.fetch(ctx)
		case stateRender:
			st = r.render(ctx)
		case stateEmit:
			st = r.emit(ctx)
		case stateReport, stateFailed:
			return r.outcome()
		}
	}
}

func (r *channelRun) outcome() Outcome {
	return Outcome{
		ChannelID:    r.req.ChannelID,
		Server:       r.binding.Server,
		Map:          r.binding.Map,
		MessagesSent: r.sent,
		NoData:       r.noData,
		Err:          r.err,
	}
}

func (r *channelRun) fail(err error) state {
	r.err = err
	return stateFailed
}

// resolve determines the channel's dataset: explicit request, stored
// binding, or a header recovered from recent channel history — in that
// order. A successful resolution is persisted so the next update can
// skip the scan.
func (r *channelRun) resolve(ctx context.Context) state {
	if r.req.Server != "" && r.req.Map != "" {
		r.binding = storage.Binding{Server: r.req.Server, Map: r.req.Map}
		if err := r.s.store.SetBinding(r.req.GuildID, r.req.ChannelID, r.binding); err != nil {
			r.s.log.Error().Err(err).Str("channel", r.req.ChannelID).Msg("failed to store binding")
		}
		return stateClear
	}

	if b := r.s.store.GetBinding(r.req.GuildID, r.req.ChannelID); b != nil {
		r.binding = *b
		return stateClear
	}

	b, ok := r.resolveFromHistory(ctx)
	if !ok {
		return r.fail(ErrNothingToUpdate)
	}
	r.binding = b
	if err := r.s.store.SetBinding(r.req.GuildID, r.req.ChannelID, r.binding); err != nil {
		r.s.log.Error().Err(err).Str("channel", r.req.ChannelID).Msg("failed to store recovered binding")
	}
	return stateClear
}

// resolveFromHistory scans the most recent messages (newest first, the
// platform's default order) for a dataset header and validates it
// against the known server and map sets. First match wins.
func (r *channelRun) resolveFromHistory(ctx context.Context) (storage.Binding, bool) {
	msgs, err := r.s.transport.ChannelMessages(r.req.ChannelID, r.s.cfg.HistoryWindow, "", "", "")
	if err != nil {
		r.s.log.Warn().Err(err).Str("channel", r.req.ChannelID).Msg("history scan failed")
		return storage.Binding{}, false
	}

	for _, m := range msgs {
		server, mapName, ok := parseDatasetHeader(m.Content)
		if !ok {
			continue
		}
		if !catalog.ValidServer(server) {
			continue
		}
		if !containsString(r.s.catalog.MapsForServer(ctx, server), mapName) {
			continue
		}
		return storage.Binding{Server: server, Map: mapName}, true
	}
	return storage.Binding{}, false
}

func (r *channelRun) fetch(ctx context.Context) state {
	spots, err := r.s.catalog.Spots(ctx, r.binding.Server, r.binding.Map, "")
	if err != nil {
		return r.fail(fmt.Errorf("fetching spots for %s/%s: %w", r.binding.Server, r.binding.Map, err))
	}

	if len(spots) == 0 {
		// Valid empty dataset. The channel still gets its header and a
		// note, so a later history scan can re-learn the binding.
		r.noData = true
		if err := r.sendText(DatasetHeader(r.binding.Server, r.binding.Map)); err != nil {
			return r.fail(err)
		}
		if err := r.sendText(fmt.Sprintf("No spots found for map `%s`.", r.binding.Map)); err != nil {
			return r.fail(err)
		}
		return stateReport
	}

	r.spots = spots
	return stateRender
}

func (r *channelRun) render(ctx context.Context) state {
	r.messages = r.s.renderer.Render(ctx, r.spots)
	return stateEmit
}

// emit posts the dataset header followed by every rendered message, in
// order. Ordering is a hard contract: category headers, bodies,
// attachments and separators are meaningless out of sequence.
func (r *channelRun) emit(ctx context.Context) state {
	if err := r.sendText(DatasetHeader(r.binding.Server, r.binding.Map)); err != nil {
		return r.fail(err)
	}

	for _, msg := range r.messages {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}
		if err := r.sendRendered(msg); err != nil {
			return r.fail(fmt.Errorf("sending message %d of %d: %w", r.sent+1, len(r.messages), err))
		}
	}
	return stateReport
}

// sendRendered posts one rendered message, attaching its file when
// present.
func (r *channelRun) sendRendered(msg render.Message) error {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.File != nil {
		send.Files = []*discordgo.File{{
			Name:        msg.File.Name,
			ContentType: videoContentType(msg.File.Name),
			Reader:      bytes.NewReader(msg.File.Data),
		}}
	}
	if _, err := r.s.transport.ChannelMessageSendComplex(r.req.ChannelID, send); err != nil {
		return err
	}
	r.sent++
	return nil
}

func (r *channelRun) sendText(content string) error {
	_, err := r.s.transport.ChannelMessageSendComplex(r.req.ChannelID, &discordgo.MessageSend{Content: content})
	if err != nil {
		return err
	}
	r.sent++
	return nil
}

func videoContentType(name string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".webm"):
		return "video/webm"
	case strings.HasSuffix(strings.ToLower(name), ".mov"):
		return "video/quicktime"
	default:
		return "video/mp4"
	}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// newThrottle builds a fixed-rate limiter used between clear batches
// and between channels of a fan-out.
func newThrottle(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
