package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/ai/llm"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/api"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/convstore"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/database"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/generator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/indicator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/logging"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/queue"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/secrets"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/template"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Msg("starting template engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Provider API keys come from Vault when enabled, otherwise from the
	// environment configuration as loaded.
	if cfg.VaultConfig.Enabled {
		vault, err := secrets.NewClient(cfg.VaultConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create vault client")
		}
		keys, err := vault.LoadProviderKeys(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load provider API keys from vault")
		}
		if key := keys.KeyFor(cfg.AIConfig.Extraction.Provider); key != "" {
			cfg.AIConfig.Extraction.APIKey = key
		}
		if key := keys.KeyFor(cfg.AIConfig.Generation.Provider); key != "" {
			cfg.AIConfig.Generation.APIKey = key
		}
		logger.Info().Msg("provider API keys loaded from vault")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	indicatorStore := indicator.NewStore(pool)
	if err := indicatorStore.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate indicator catalog")
	}

	templates := template.NewRepository(pool)
	if err := templates.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate templates")
	}

	catalog := indicator.NewCatalog(indicatorStore, cfg.CatalogConfig.CacheSize, cfg.CatalogConfig.CacheTTL, logger)
	resolver := indicator.NewResolver(catalog, logger)

	extractionModel, err := llm.NewClient(cfg.AIConfig.Extraction)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create extraction model client")
	}
	generationModel, err := llm.NewClient(cfg.AIConfig.Generation)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create generation model client")
	}

	extractor := indicator.NewExtractor(extractionModel, logger)
	pipeline := generator.NewPipeline(extractor, resolver, catalog, generationModel, cfg.AIConfig.Generation, logger)
	service := generator.NewService(pipeline, templates, logger)

	var conversations *convstore.Store
	if cfg.RedisConfig.Enabled {
		conversations, err = convstore.NewStore(cfg.RedisConfig, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to conversation store")
		}
		defer conversations.Close()
	}

	var producer *queue.Producer
	if cfg.KafkaConfig.Enabled {
		producer = queue.NewProducer(cfg.KafkaConfig)
		defer producer.Close()

		var loader queue.ConversationLoader
		if conversations != nil {
			loader = conversations
		}
		consumer := queue.NewConsumer(cfg.KafkaConfig, service, loader, templates, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("generation consumer stopped")
			}
		}()
	}

	handler := api.NewHandler(templates, catalog, producer, logger)
	router := api.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.ServerConfig.Host, cfg.ServerConfig.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerConfig.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("template engine stopped")
}
