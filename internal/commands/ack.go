package commands

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// ackCapacity bounds how many interaction ids the registry remembers.
// Interactions expire on the transport side within minutes, so evicting
// the oldest quarter on overflow is safe.
const ackCapacity = 4096

// InteractionResponder is the slice of the session the registry needs;
// *discordgo.Session satisfies it.
type InteractionResponder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// AckRegistry enforces the exactly-once acknowledgement contract: an
// inbound interaction gets at most one initial response, a second
// attempt is a logged no-op. Autocomplete requests go through the same
// gate.
type AckRegistry struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	log   zerolog.Logger
}

func NewAckRegistry(logger zerolog.Logger) *AckRegistry {
	return &AckRegistry{
		seen: make(map[string]struct{}),
		log:  logger.With().Str("component", "ack").Logger(),
	}
}

// Respond sends the initial response for an interaction unless one was
// already sent.
func (a *AckRegistry) Respond(s InteractionResponder, i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	if !a.first(i.ID) {
		a.log.Debug().Str("interaction", i.ID).Msg("duplicate response suppressed")
		return nil
	}
	return s.InteractionRespond(i.Interaction, resp, options...)
}

// first reports whether this is the first response attempt for the
// interaction id.
func (a *AckRegistry) first(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.seen[id]; ok {
		return false
	}

	if len(a.order) >= ackCapacity {
		drop := a.order[:ackCapacity/4]
		for _, old := range drop {
			delete(a.seen, old)
		}
		a.order = a.order[ackCapacity/4:]
	}

	a.seen[id] = struct{}{}
	a.order = append(a.order, id)
	return true
}
