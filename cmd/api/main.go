package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/iroha-ai/backend/internal/config"
	"github.com/iroha-ai/backend/internal/handler"
	"github.com/iroha-ai/backend/internal/history"
	"github.com/iroha-ai/backend/internal/logging"
	"github.com/iroha-ai/backend/internal/model/persona"
	"github.com/iroha-ai/backend/internal/service/ai"
	chatstore "github.com/iroha-ai/backend/internal/service/chat"
	voiceservice "github.com/iroha-ai/backend/internal/service/voice"
	"github.com/iroha-ai/backend/internal/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLog := logging.New("info", true)

	if err := godotenv.Load(); err != nil {
		bootLog.Warn().Err(err).Msg("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		// A missing credential is the one fatal condition: the process
		// must not start serving without it.
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Dev)

	personas := persona.NewRegistry(persona.Seed())

	counter, err := token.NewTiktokenCounter(cfg.AI.TokenEncoding)
	var builder *history.Builder
	if err != nil {
		log.Warn().Err(err).Msg("tiktoken encoding unavailable, falling back to estimate counter")
		builder = history.NewBuilder(token.EstimateCounter{}, cfg.AI.MaxContextTokens)
	} else {
		builder = history.NewBuilder(counter, cfg.AI.MaxContextTokens)
	}

	store, err := chatstore.NewStore(cfg.Database.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer store.Close()

	aiSvc := ai.NewService(personas, store, builder, ai.NewGroqClient(cfg.AI), log)
	voiceSvc := voiceservice.NewService(cfg.AI, cfg.Voice, log)

	router := handler.NewRouter(personas, store, aiSvc, voiceSvc, log)

	startServer(ctx, cfg.Server, router, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("Iroha backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
