// /internal/storage/storage.go
package storage

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/keshon/datastore"
	"github.com/rs/zerolog"
)

const commandHistoryLimit int = 20

// Storage is the durable per-guild state of the bot, backed by a flat
// JSON datastore keyed by guild id.
type Storage struct {
	ds  *datastore.DataStore
	log zerolog.Logger
}

// Binding associates a channel with the (server, map) dataset it
// mirrors.
type Binding struct {
	Server string `json:"server"`
	Map    string `json:"map"`
}

type CommandHistoryRecord struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Command   string `json:"command"`
	Param     string `json:"param"`
}

// Record is everything stored for one guild.
type Record struct {
	Bindings            map[string]Binding     `json:"bindings"` // key = channelID
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
}

func New(filePath string, logger zerolog.Logger) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds, log: logger.With().Str("component", "storage").Logger()}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateGuildRecord returns the Record for a guild, creating an
// empty one when the guild has no entry yet.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		newRecord := &Record{
			Bindings: map[string]Binding{},
		}
		s.ds.Add(guildID, newRecord)
		return newRecord, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	err = json.Unmarshal(jsonData, &record)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if record.Bindings == nil {
		record.Bindings = map[string]Binding{}
	}

	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}

	return &record, nil
}

// persist forces the in-memory state to disk. A failed write means the
// last change is not durable yet; the triggering operation still counts
// as successful, so the failure is only logged.
func (s *Storage) persist() {
	if err := s.ds.SaveToFile(); err != nil {
		s.log.Error().Err(err).Msg("failed to persist datastore")
	}
}

// AppendCommandToHistory appends a command history record for a guild.
func (s *Storage) AppendCommandToHistory(guildID string, entry CommandHistoryRecord) error {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistoryList = append(record.CommandsHistoryList, entry)
	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}
	s.ds.Add(guildID, record)
	return nil
}

// CommandHistory returns the recorded command invocations for a guild.
func (s *Storage) CommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}
