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
	"github.com/spf13/cobra"

	"github.com/relayworks/cortex/internal/api/handlers"
	"github.com/relayworks/cortex/internal/config"
	"github.com/relayworks/cortex/internal/database"
	"github.com/relayworks/cortex/internal/domain"
	"github.com/relayworks/cortex/internal/extract"
	"github.com/relayworks/cortex/internal/jobs"
	"github.com/relayworks/cortex/internal/openai"
	"github.com/relayworks/cortex/internal/repository"
	"github.com/relayworks/cortex/internal/server"
	"github.com/relayworks/cortex/internal/service"
	"github.com/relayworks/cortex/internal/storage"
	"github.com/relayworks/cortex/internal/telemetry"
)

// reconcileInterval paces the index drift sweep. Drift is rare and repair
// is idempotent, so a slow cadence is fine.
const reconcileInterval = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the cortex API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("CORTEX_OPENAI_API_KEY is required: embedding and generation back the knowledge index")
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
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

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	articleRepo := repository.NewArticleRepository(pool)
	vectorRepo := repository.NewVectorRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)

	// S3 is optional: without it sources are not archived and download
	// URLs report the source as unavailable.
	var archiver service.SourceArchiver
	var signer service.URLSigner
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
		signer = s3Client
	}

	aiClient := openai.NewClient(cfg.OpenAIAPIKey)
	uuidGen := &service.DefaultUUIDGenerator{}

	embeddingSvc := service.NewEmbeddingService(aiClient, cfg.EmbedCharBudget)
	indexSvc := service.NewIndexService(articleRepo, vectorRepo, embeddingSvc)
	contextSvc := service.NewContextService(indexSvc, &snapshotAdapter{projects: projectRepo, members: memberRepo}, service.ContextConfig{
		MaxContextChars:  cfg.MaxContextChars,
		SearchTopK:       cfg.SearchTopK,
		SnapshotProjects: cfg.SnapshotProjects,
		SnapshotMembers:  cfg.SnapshotMembers,
	})
	answerSvc := service.NewAnswerService(contextSvc, aiClient, cfg.GenerationModels)

	var deckConverter extract.DeckConverter
	if cfg.DeckConverterCommand != "" {
		deckConverter = &extract.ExecDeckConverter{Command: cfg.DeckConverterCommand}
	}
	extractor := extract.NewExtractor(deckConverter)

	ingestSvc := service.NewIngestService(extractor, indexSvc, aiClient, archiver,
		uuidGen, cfg.GenerationModels[0], cfg.IngestConcurrency)
	articleSvc := service.NewArticleService(articleRepo, indexSvc, signer, uuidGen)

	reconciler := jobs.NewReconcileWorker(articleRepo, indexSvc)
	reconcileWorker := jobs.NewWorker(reconciler, reconcileInterval)
	go reconcileWorker.Start(ctx)
	log.Println("reconcile worker started")

	router := server.NewRouter(server.RouterConfig{
		ArticleHandler:  handlers.NewArticleHandler(articleSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc),
		AskHandler:      handlers.NewAskHandler(answerSvc, indexSvc),
		ProjectHandler:  handlers.NewProjectHandler(projectRepo),
		MemberHandler:   handlers.NewMemberHandler(memberRepo),
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

	reconcileWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// snapshotAdapter joins the project and member repositories into the single
// snapshot surface context assembly consumes.
type snapshotAdapter struct {
	projects *repository.ProjectRepository
	members  *repository.MemberRepository
}

func (s *snapshotAdapter) ActiveProjects(ctx context.Context, limit int) ([]*domain.Project, error) {
	return s.projects.ListActive(ctx, limit)
}

func (s *snapshotAdapter) ActiveMembers(ctx context.Context, limit int) ([]*domain.Member, error) {
	return s.members.ListActive(ctx, limit)
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
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
		"file://migrations",
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
