package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-hub/auth"
	"chat-hub/httpapi"
	"chat-hub/internal"
	"chat-hub/invite"
	"chat-hub/moderation"
	"chat-hub/observability"
	"chat-hub/presence"
	"chat-hub/repositories"
	"chat-hub/rooms"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Keeping the logic out of main ensures
// all defers execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censorRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Core components
	monitor := observability.NewMonitor()
	hub := transport.NewHub(log, monitor)

	store := repositories.NewMessageRepository(db, log, config.LimitMessages)
	search := repositories.NewSearchRepository(indexWriter, log)

	moderator, err := moderation.NewModerator(config.CensoredWordList(), censorRune)
	if err != nil {
		return fmt.Errorf("moderator setup failed: %w", err)
	}
	guard := moderation.NewGuard(log, hub)

	registry := presence.NewRegistry(log, hub)
	directory := rooms.NewDirectory(log, hub, store, guard)
	invites := invite.NewCoordinator(log, hub, registry, directory)

	router := runtime.NewRouter(log, hub, store, search, guard, &moderator, monitor)
	coordinator := runtime.NewCoordinator(log, hub, registry, directory, invites, guard, router, monitor)

	var verifier *auth.Verifier
	if config.AuthRequired {
		verifier = auth.NewVerifier(config.AuthSecret)
	}
	ws := transport.NewServer(log, hub, coordinator, verifier)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewTelemetryWorker(log, monitor, config.TelemetryInterval))
	go sup.Run(ctx)
	defer sup.Stop()

	// 6. HTTP surface
	api := httpapi.NewAPI(log, ws, store, search, monitor)
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	if err := api.Serve(ctx, addr); err != nil {
		return fmt.Errorf("http server error: %w", err)
	}

	log.Info("Program stopped cleanly")
	return nil
}
