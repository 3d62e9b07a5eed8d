package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"aura-chat/handler"
	"aura-chat/internal/config"
	"aura-chat/internal/integrations/gemini"
	"aura-chat/internal/safety"
	"aura-chat/internal/secrets"
	"aura-chat/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// ---- Secrets ----
	var store secrets.ParameterGetter
	if cfg.APIKeyParam != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Error("failed to load AWS config", "err", err)
			os.Exit(1)
		}
		ps, err := secrets.NewParameterStore(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			logger.Error("failed to create parameter store", "err", err)
			os.Exit(1)
		}
		store = ps
	}

	keys, err := secrets.NewResolver(store, cfg.APIKeyParam, cfg.APIKey, secrets.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create api key resolver", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	geminiClient, err := gemini.NewClient(keys,
		gemini.WithBaseURL(cfg.BaseURL),
		gemini.WithHTTPClient(&http.Client{Timeout: cfg.ProviderTimeout}),
		gemini.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create Gemini client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(geminiClient, logger, cfg.Model)
	if err != nil {
		logger.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(chatService,
		handler.WithLogger(logger),
		handler.WithAllowOrigin(cfg.AllowOrigin),
	)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	logger.Info("chat function ready",
		"model", chatService.Model(),
		"key_param", cfg.APIKeyParam != "",
		"crisis_keywords", safety.CrisisKeywords(),
	)
	lambda.Start(h.Handle)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
