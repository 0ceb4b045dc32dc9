package syncer

import (
	"context"
	"sort"

	"github.com/bwmarrin/discordgo"

	"spotmirror/internal/storage"
)

// SyncAll re-synchronizes every bound channel of a guild. Channels are
// processed sequentially with a fixed throttle between them; a failure
// on one channel never aborts the rest. Per-channel detail goes to the
// logs, the caller only gets aggregate counts.
func (s *Syncer) SyncAll(ctx context.Context, guildID string) Summary {
	bindings := s.store.AllBindings(guildID)

	channelIDs := make([]string, 0, len(bindings))
	for id := range bindings {
		channelIDs = append(channelIDs, id)
	}
	sort.Strings(channelIDs)

	lim := newThrottle(s.cfg.ChannelInterval)
	var sum Summary

	for _, channelID := range channelIDs {
		if err := lim.Wait(ctx); err != nil {
			s.log.Warn().Err(err).Str("guild", guildID).Msg("guild sync interrupted")
			sum.Failed += len(channelIDs) - sum.Synced - sum.Failed
			return sum
		}

		if err := s.checkSyncable(channelID); err != nil {
			s.log.Warn().Err(err).
				Str("guild", guildID).
				Str("channel", channelID).
				Msg("skipping unsyncable channel")
			sum.Failed++
			continue
		}

		outcome := s.syncBound(ctx, guildID, channelID, bindings[channelID])
		if outcome.Err != nil {
			s.log.Error().Err(outcome.Err).
				Str("guild", guildID).
				Str("channel", channelID).
				Str("server", bindings[channelID].Server).
				Str("map", bindings[channelID].Map).
				Msg("channel sync failed")
			sum.Failed++
			continue
		}

		s.log.Info().
			Str("guild", guildID).
			Str("channel", channelID).
			Int("messages", outcome.MessagesSent).
			Msg("channel synced")
		sum.Synced++
	}

	return sum
}

// Populate creates one forum thread per map of a server that has spots,
// renders each dataset into its thread, and binds the thread like any
// other synchronized channel. Maps without records are skipped.
func (s *Syncer) Populate(ctx context.Context, guildID, server, forumID string) Summary {
	maps := s.catalog.MapsForServer(ctx, server)
	lim := newThrottle(s.cfg.ChannelInterval)
	var sum Summary

	for _, mapName := range maps {
		if err := lim.Wait(ctx); err != nil {
			s.log.Warn().Err(err).Str("guild", guildID).Msg("populate interrupted")
			return sum
		}

		spots, err := s.catalog.Spots(ctx, server, mapName, "")
		if err != nil {
			s.log.Error().Err(err).
				Str("server", server).
				Str("map", mapName).
				Msg("populate: fetch failed")
			sum.Failed++
			continue
		}
		if len(spots) == 0 {
			continue
		}

		thread, err := s.transport.ForumThreadStartComplex(forumID,
			&discordgo.ThreadStart{
				Name:                mapName,
				AutoArchiveDuration: 10080, // one week, the forum maximum
			},
			&discordgo.MessageSend{Content: DatasetHeader(server, mapName)},
		)
		if err != nil {
			s.log.Error().Err(err).
				Str("forum", forumID).
				Str("map", mapName).
				Msg("populate: thread creation failed")
			sum.Failed++
			continue
		}

		run := &channelRun{
			s:       s,
			req:     Request{GuildID: guildID, ChannelID: thread.ID},
			binding: storage.Binding{Server: server, Map: mapName},
			spots:   spots,
			// Header already posted with the thread.
			sent: 1,
		}
		if st := run.render(ctx); st == stateEmit {
			for _, msg := range run.messages {
				if err := ctx.Err(); err != nil {
					run.err = err
					break
				}
				if err := run.sendRendered(msg); err != nil {
					run.err = err
					break
				}
			}
		}
		if run.err != nil {
			s.log.Error().Err(run.err).
				Str("thread", thread.ID).
				Str("map", mapName).
				Msg("populate: emit failed")
			sum.Failed++
			continue
		}

		if err := s.store.SetBinding(guildID, thread.ID, run.binding); err != nil {
			s.log.Error().Err(err).Str("thread", thread.ID).Msg("populate: failed to store binding")
		}
		sum.Synced++
	}

	return sum
}

// checkSyncable verifies the channel still exists and is a kind we can
// write a dataset into.
func (s *Syncer) checkSyncable(channelID string) error {
	ch, err := s.transport.Channel(channelID)
	if err != nil {
		return &StateError{Reason: "channel no longer exists"}
	}

	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildNewsThread:
	default:
		return &StateError{Reason: "unsupported channel kind"}
	}

	if ch.ThreadMetadata != nil && (ch.ThreadMetadata.Archived || ch.ThreadMetadata.Locked) {
		return &StateError{Reason: "thread is archived or locked"}
	}
	return nil
}
