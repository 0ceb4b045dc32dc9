package storage

// SetBinding binds a channel to a (server, map) dataset. Within a
// guild at most one channel may be bound to a given pair: any other
// channel currently holding the same pair is evicted before the write.
// The store is persisted write-through; persistence failures are logged
// and the operation still reports success (best-effort durability).
func (s *Storage) SetBinding(guildID, channelID string, b Binding) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	for ch, existing := range record.Bindings {
		if ch != channelID && existing.Server == b.Server && existing.Map == b.Map {
			s.log.Info().
				Str("guild", guildID).
				Str("evicted_channel", ch).
				Str("server", b.Server).
				Str("map", b.Map).
				Msg("evicting older binding for dataset")
			delete(record.Bindings, ch)
		}
	}

	record.Bindings[channelID] = b
	s.ds.Add(guildID, record)
	s.persist()
	return nil
}

// GetBinding returns the binding of a channel, or nil when the channel
// is not bound. Read failures collapse to "not bound" after logging.
func (s *Storage) GetBinding(guildID, channelID string) *Binding {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		s.log.Error().Err(err).Str("guild", guildID).Msg("failed to read guild record")
		return nil
	}

	b, ok := record.Bindings[channelID]
	if !ok {
		return nil
	}
	return &b
}

// AllBindings returns every channel binding of a guild. Read failures
// collapse to an empty map after logging.
func (s *Storage) AllBindings(guildID string) map[string]Binding {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		s.log.Error().Err(err).Str("guild", guildID).Msg("failed to read guild record")
		return map[string]Binding{}
	}
	return record.Bindings
}

// RemoveBinding deletes the binding of a channel, if any.
func (s *Storage) RemoveBinding(guildID, channelID string) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	if _, ok := record.Bindings[channelID]; !ok {
		return nil
	}
	delete(record.Bindings, channelID)
	s.ds.Add(guildID, record)
	s.persist()
	return nil
}
