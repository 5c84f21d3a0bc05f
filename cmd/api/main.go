// Package main is the entry point for the site functions server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/zyora-ai/site/internal/config"
	"github.com/zyora-ai/site/internal/handler"
	"github.com/zyora-ai/site/internal/llm"
	"github.com/zyora-ai/site/internal/mailer"
	natsclient "github.com/zyora-ai/site/internal/nats"
	"github.com/zyora-ai/site/internal/prompt"
	"github.com/zyora-ai/site/internal/service"
	"github.com/zyora-ai/site/pkg/logger"
	"github.com/zyora-ai/site/pkg/tracing"
)

func main() {
	cfg := config.Load()

	var log *logger.Logger
	var err error
	if os.Getenv("ENV") == "development" {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting site functions server")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "zyora-site", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Lead stream is optional; without it leads are only emailed.
	var natsClient *natsclient.Client
	var leadStore service.LeadStore
	if cfg.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err = natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancel()
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		leadStore = streamManager
	} else {
		log.Info("NATS_URL not set, lead stream disabled")
	}

	provider := llm.Provider(cfg.LLMProvider)
	llmOpts := llm.Options{APIKey: cfg.LLMAPIKey, BaseURL: cfg.LLMGatewayURL, Model: cfg.LLMModel}
	if provider == llm.ProviderAnthropic {
		llmOpts = llm.Options{APIKey: cfg.AnthropicAPIKey, Model: cfg.LLMModel}
	}
	llmClient, err := llm.NewClient(provider, llmOpts)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}

	var sender mailer.Sender
	if cfg.ResendAPIKey != "" {
		sender, err = mailer.NewResendSenderFromKey(cfg.ResendAPIKey)
		if err != nil {
			log.Fatal("failed to create mail sender", zap.Error(err))
		}
	} else {
		log.Warn("RESEND_API_KEY not set, lead emails will only be logged")
		sender = mailer.NewLogSender(log)
	}

	systemPrompt, err := prompt.Render(prompt.Data{ContactEmail: cfg.MailTo})
	if err != nil {
		log.Fatal("failed to render system prompt", zap.Error(err))
	}

	chatSvc := service.NewChatService(llmClient, systemPrompt, cfg.LLMMaxTokens, log)
	leadSvc := service.NewLeadService(mailer.NewLeadMailer(sender, cfg.MailFrom, cfg.MailTo), leadStore, log)

	router := newRouter(cfg, handlers{
		health:  handler.NewHealthHandler(natsClient),
		chat:    handler.NewChatHandler(chatSvc, log),
		contact: handler.NewContactHandler(leadSvc, log),
		leads:   handler.NewLeadsHandler(leadSvc, log),
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening",
			zap.String("port", cfg.ServerPort),
			zap.String("llm_provider", llmClient.Name()),
			zap.String("llm_model", llmClient.DefaultModel()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
