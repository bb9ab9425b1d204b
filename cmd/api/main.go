package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voicerelay/backend/internal/config"
	"github.com/voicerelay/backend/internal/handler"
	"github.com/voicerelay/backend/internal/service/ai"
	"github.com/voicerelay/backend/internal/service/session"
	"github.com/voicerelay/backend/internal/service/speech"
	"github.com/voicerelay/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	conversationStore, err := store.NewFileStore(cfg.Storage.ConversationDir, cfg.Storage.AudioDir)
	if err != nil {
		log.Fatalf("failed to initialize conversation store: %v", err)
	}

	registry := buildRegistry(ctx, cfg, conversationStore)
	router := handler.NewRouter(registry, conversationStore)

	startServer(ctx, cfg.Server, router)
}

// buildRegistry wires the three gateways into a session registry, or returns
// nil when any gateway credential is missing so the voice endpoint degrades
// to 503 while the read API keeps serving.
func buildRegistry(ctx context.Context, cfg *config.Config, st store.Store) *session.Registry {
	if !cfg.STT.Enabled() {
		log.Println("AssemblyAI credentials not configured, voice pipeline disabled")
		return nil
	}
	if !cfg.TTS.Enabled() {
		log.Println("OpenAI TTS credentials not configured, voice pipeline disabled")
		return nil
	}
	if !cfg.AI.Enabled() {
		log.Println("Ark credentials not configured, voice pipeline disabled")
		return nil
	}

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Printf("warning: failed to initialize AI service: %v", err)
		log.Println("voice pipeline disabled, check the Ark model environment variables")
		return nil
	}
	log.Println("AI service initialized successfully")

	sttClient := speech.NewAssemblyAIClient(cfg.STT)
	ttsClient := speech.NewOpenAITTSClient(cfg.TTS)

	return session.NewRegistry(st, sttClient, aiService, ttsClient)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("voice relay backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
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
