package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockbot/api"
	"stockbot/common"
	"stockbot/config"
	"stockbot/deduplication"
	"stockbot/events"
	"stockbot/llm"
	"stockbot/logging"
	"stockbot/market"
	"stockbot/orchestrator"
	"stockbot/source"
	"stockbot/state"
	"stockbot/storage"
	"stockbot/workflow"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := config.Load()
	cronSchedule := flag.String("cron", cfg.CronSchedule, "Cron schedule for the scheduled tick (empty disables it)")
	flag.Parse()

	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var (
		db    *sql.DB
		store storage.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("failed to connect to postgres", err)
		}
		if err := storage.Migrate(ctx, db); err != nil {
			fatal("failed to migrate schema", err)
		}
		store = storage.NewPostgresStore(db)
		slog.Info("using postgres store")
	} else {
		store = storage.NewMemory().Store()
		slog.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Redis: ledger fast path and quote cache
	var (
		bloom      *deduplication.RedisBloom
		quoteCache market.QuoteCache
	)
	if cfg.RedisURL != "" {
		var err error
		bloom, err = deduplication.NewRedisBloom(ctx, deduplication.BloomConfig{URL: cfg.RedisURL, Key: cfg.BloomKey})
		if err != nil {
			slog.Warn("redis unavailable, bloom filter and quote cache disabled", "error", err)
		} else {
			store.Ledger = deduplication.NewBloomLedger(store.Ledger, bloom)
			quoteCache = market.NewRedisQuoteCache(bloom.Client(), cfg.QuoteCacheTTL)
		}
	}

	// Text model
	completer, err := llm.NewCompleter(cfg.LLMProvider, llmKey(cfg), cfg.LLMModel)
	if err != nil {
		fatal("failed to create LLM client", err)
	}
	slog.Info("llm configured", "provider", cfg.LLMProvider, "model", completer.ModelName())

	deps := orchestrator.Dependencies{
		Source:    source.NewFeedSource(cfg.FeedBaseURL),
		Extractor: llm.NewAdapter(completer),
		Store:     store,
	}

	// Market data
	if cfg.FinnhubAPIKey != "" {
		deps.Quotes = market.NewGate(market.NewFinnhubQuoter(cfg.FinnhubAPIKey), market.GateConfig{
			Limiter: market.NewLimiter(cfg.QuoteSpacing),
			Cache:   quoteCache,
		})
	} else {
		slog.Warn("FINNHUB_API_KEY not set, companies will have no price data")
	}

	// Kafka
	var producer *events.CatalystProducer
	var consumer *events.Consumer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewCatalystProducer(cfg.KafkaBrokers, cfg.KafkaCatalystTopic)
		if err != nil {
			slog.Warn("failed to create kafka producer, catalysts will not be published", "error", err)
		} else {
			deps.Publisher = producer
		}
	} else {
		slog.Warn("KAFKA_BOOTSTRAP_SERVERS not set, kafka disabled")
	}

	pipeline := orchestrator.New(deps, orchestrator.Config{
		SourceTimeout:     cfg.SourceTimeout,
		ExtractionTimeout: cfg.ExtractionTimeout,
		BackfillPacer:     market.NewPause(cfg.BackfillPacing),
	})

	// Archive
	opts := workflow.Options{Handle: cfg.MonitorHandle, MaxItems: cfg.MaxPostsPerPass}
	if cfg.S3Bucket != "" {
		s3Client, err := common.NewS3(ctx, common.S3Config{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			slog.Warn("S3 init failed, archiving disabled", "error", err)
		} else {
			opts.Archiver = common.NewArchiver(s3Client)
			slog.Info("archiving enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		}
	}

	stateManager := state.NewManager()
	runner := workflow.NewRunner(pipeline, stateManager, opts)

	if len(cfg.KafkaBrokers) > 0 {
		consumer, err = events.NewConsumer(events.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTriggerTopic,
			GroupID: cfg.KafkaGroupID,
			Handler: events.NewTriggerHandler(runner),
		})
		if err != nil {
			slog.Warn("failed to create kafka consumer", "error", err)
		} else {
			go func() {
				if err := consumer.Start(ctx); err != nil {
					slog.Warn("kafka consumer did not start", "error", err)
				}
			}()
		}
	}

	server := api.NewServer(runner, stateManager, store, api.Options{Port: cfg.Port, CronSecret: cfg.CronSecret})
	server.Start()

	if *cronSchedule != "" {
		if err := server.StartCron(*cronSchedule); err != nil {
			fatal("failed to start cron", err)
		}
	}

	fmt.Printf("📈 Stockbot\n")
	fmt.Printf("   API:            http://0.0.0.0:%s\n", cfg.Port)
	fmt.Printf("   Monitoring:     @%s\n", cfg.MonitorHandle)
	fmt.Printf("   Cron Schedule:  %s\n", *cronSchedule)
	fmt.Println("\nPress Ctrl+C to shutdown")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	cancel()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			slog.Error("kafka consumer close error", "error", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			slog.Error("kafka producer close error", "error", err)
		}
	}
	if bloom != nil {
		_ = bloom.Close()
	}
	if db != nil {
		_ = db.Close()
	}

	slog.Info("server stopped")
}

func llmKey(cfg config.Config) string {
	switch cfg.LLMProvider {
	case "openai":
		return cfg.OpenAIAPIKey
	case "cohere":
		return cfg.CohereAPIKey
	default:
		return cfg.AnthropicAPIKey
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
