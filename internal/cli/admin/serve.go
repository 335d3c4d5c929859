package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openaigo "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/doculens-ai/doculens/internal/api/handlers"
	"github.com/doculens-ai/doculens/internal/config"
	"github.com/doculens-ai/doculens/internal/jobs"
	"github.com/doculens-ai/doculens/internal/openai"
	"github.com/doculens-ai/doculens/internal/repository"
	"github.com/doculens-ai/doculens/internal/server"
	"github.com/doculens-ai/doculens/internal/service"
	"github.com/doculens-ai/doculens/internal/storage"
	"github.com/doculens-ai/doculens/internal/telemetry"
	"github.com/doculens-ai/doculens/internal/vectorstore"
)

// ingestPollInterval is how often the worker polls for pending jobs.
const ingestPollInterval = 10 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the doculens API server and the background ingest worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background ingest worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	conn, err := vectorstore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	deps, err := buildPipeline(ctx, cfg, conn)
	if err != nil {
		return err
	}

	jobRepo := repository.NewIngestJobRepository(conn.Pool())
	chatLogRepo := repository.NewChatLogRepository(conn.Pool())

	var ingestWorker *jobs.Worker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if !noWorker {
		processor := jobs.NewIngestWorker(jobRepo, deps.ingest)
		ingestWorker = jobs.NewWorker("ingest", processor, ingestPollInterval)
		go ingestWorker.Start(ctx)
		log.Println("ingest worker started")
	}

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:     handlers.NewChatHandler(deps.agent, chatLogRepo),
		IngestHandler:   handlers.NewIngestHandler(jobRepo, cfg.Collection),
		ValidateHandler: handlers.NewValidateHandler(deps.validation),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// pipeline bundles the wired services shared by serve and the one-shot
// ingest command.
type pipeline struct {
	ingest     *service.IngestService
	agent      *service.AgentService
	validation *service.ValidationService
}

func buildPipeline(ctx context.Context, cfg *config.Config, conn *vectorstore.Connection) (*pipeline, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	client := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      openaigo.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.ChatModel,
	})

	archive, err := buildSnapshotArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embeddingSvc := service.NewEmbeddingService(client)
	crawler := service.NewCrawler()
	cleaner := service.NewTextCleaner()
	chunker := service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	ingestSvc := service.NewIngestService(crawler, cleaner, chunker, embeddingSvc, conn, archive)
	retrievalSvc := service.NewRetrievalService(conn, embeddingSvc, cfg.Collection)
	agentSvc := service.NewAgentService(retrievalSvc, client)
	validationSvc := service.NewValidationService(retrievalSvc, cfg.ValidationThreshold)

	return &pipeline{
		ingest:     ingestSvc,
		agent:      agentSvc,
		validation: validationSvc,
	}, nil
}

// buildSnapshotArchive wires the optional S3 snapshot store. Without S3
// credentials ingestion runs with archiving disabled.
func buildSnapshotArchive(ctx context.Context, cfg *config.Config) (service.SnapshotArchiver, error) {
	if !cfg.HasS3() {
		return nil, nil
	}

	store, err := storage.NewSnapshotStore(ctx, storage.SnapshotStoreConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot store: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure snapshot bucket: %w", err)
	}
	log.Printf("snapshot bucket '%s' ready", cfg.S3Bucket)
	return store, nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://db/migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
