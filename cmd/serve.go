package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pdf-rag/internal/memory"
	"pdf-rag/internal/server"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API and page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		embedder, err := newEmbedder(ctx, cfg)
		if err != nil {
			return err
		}
		store, err := openStore(ctx, cfg, embedder)
		if err != nil {
			return err
		}
		defer store.Close()

		if n, err := store.Count(ctx); err == nil {
			if n == 0 {
				log.Warn().Msg("Vector index is empty, run ingest first")
			} else {
				log.Info().Int("entries", n).Msg("Vector index ready")
			}
		}

		orch, err := newOrchestrator(ctx, cfg, embedder, store)
		if err != nil {
			return err
		}
		sessions := memory.NewStore()
		srv := server.NewServer(orch, sessions, cfg)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Stop(shutdownCtx)
		})
		g.Go(func() error {
			sweepSessions(gctx, sessions, cfg.Server.SessionTTL)
			return nil
		})
		return g.Wait()
	},
}

// sweepSessions evicts idle sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *memory.Store, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(ttl); n > 0 {
				log.Debug().Int("evicted", n).Int("active", sessions.Len()).Msg("Swept idle sessions")
			}
		}
	}
}
