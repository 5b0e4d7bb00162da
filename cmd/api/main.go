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

	"github.com/quantquest/chatbot/internal/config"
	"github.com/quantquest/chatbot/internal/handler"
	"github.com/quantquest/chatbot/internal/logger"
	"github.com/quantquest/chatbot/internal/model/topic"
	"github.com/quantquest/chatbot/internal/service/ai"
	"github.com/quantquest/chatbot/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.Log.Infof("no .env file loaded (%v), continuing with system environment variables only", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level)

	topicStore := topic.NewMemoryStore(topic.Seed())
	responder := ai.NewResponder(ctx, cfg.Chatbot, topicStore)
	chatService := chat.NewService(responder, chat.Config{
		RateLimit: cfg.Chatbot.RateLimit,
		Timeout:   cfg.Chatbot.Timeout,
	})

	router := handler.NewRouter(topicStore, chatService, cfg.Server.AllowedOrigins)

	if err := startServer(ctx, cfg.Server, router); err != nil {
		logger.Log.Errorf("server error: %v", err)
		os.Exit(1)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Log.Infof("QuantQuest chatbot listening on %s", serverCfg.Addr)
	return runServer(ctx, srv)
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
