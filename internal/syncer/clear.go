package syncer

import (
	"context"
	"fmt"
	"time"
)

// clear removes the channel's prior content so the fresh rendering is
// not appended to a stale one. Messages are fetched and bulk-deleted in
// batches; anything older than the platform's bulk-deletion age ceiling
// is left in place. A failure here is terminal for the channel — a
// partially cleared channel must not be silently overwritten with a
// duplicate render.
func (r *channelRun) clear(ctx context.Context) state {
	lim := newThrottle(r.s.cfg.ClearInterval)
	batch := r.s.cfg.BatchSize
	cutoff := time.Now().Add(-r.s.cfg.MaxBulkAge)

	for {
		if err := lim.Wait(ctx); err != nil {
			return r.fail(err)
		}

		msgs, err := r.s.transport.ChannelMessages(r.req.ChannelID, batch, "", "", "")
		if err != nil {
			return r.fail(&ClearError{Err: fmt.Errorf("fetching messages: %w", err)})
		}
		if len(msgs) == 0 {
			return stateFetch
		}

		ids := make([]string, 0, len(msgs))
		for _, m := range msgs {
			if m.Timestamp.After(cutoff) {
				ids = append(ids, m.ID)
			}
		}
		if len(ids) == 0 {
			// Everything left is beyond the bulk-deletion ceiling.
			return stateFetch
		}

		if len(ids) == 1 {
			// Bulk deletion requires at least two messages.
			err = r.s.transport.ChannelMessageDelete(r.req.ChannelID, ids[0])
		} else {
			err = r.s.transport.ChannelMessagesBulkDelete(r.req.ChannelID, ids)
		}
		if err != nil {
			return r.fail(&ClearError{Err: err})
		}

		// A short batch means the channel is exhausted.
		if len(msgs) < batch {
			return stateFetch
		}
	}
}
