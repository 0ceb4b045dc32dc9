// Package relay forwards messages to an outbound webhook as an opaque
// JSON POST.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type Relay struct {
	webhookURL string
	httpClient *http.Client
	log        zerolog.Logger
}

func New(webhookURL string, logger zerolog.Logger) *Relay {
	return &Relay{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With().Str("component", "relay").Logger(),
	}
}

// Configured reports whether an outbound webhook URL is set.
func (r *Relay) Configured() bool { return r.webhookURL != "" }

// Forward posts the payload to the configured webhook. The payload is
// passed through untouched.
func (r *Relay) Forward(ctx context.Context, payload map[string]any) error {
	if !r.Configured() {
		return fmt.Errorf("relay: no webhook URL configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("relay: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay: webhook returned status %d", resp.StatusCode)
	}

	r.log.Debug().Int("bytes", len(body)).Msg("payload relayed")
	return nil
}
