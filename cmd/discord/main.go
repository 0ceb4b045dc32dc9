// cmd/discord/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "spotmirror/internal/commands"

	"spotmirror/internal/catalog"
	"spotmirror/internal/config"
	"spotmirror/internal/discord"
	"spotmirror/internal/logging"
	"spotmirror/internal/relay"
	"spotmirror/internal/storage"
	v "spotmirror/internal/version"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFile)
	logger.Info().Str("version", v.Version).Msgf("starting %s", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open datastore")
	}
	defer store.Close()

	cat := catalog.New(cfg.CatalogBaseURL, cfg.CatalogAPIKey, logger)
	rel := relay.New(cfg.RelayWebhookURL, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := discord.StartBot(ctx, cfg, store, cat, rel, logger); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	case <-ctx.Done():
	}

	logger.Info().Msg("discord bot exited cleanly")
}
