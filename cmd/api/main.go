package main

import (
	"context"
	"fmt"

	openaiadapter "medvault-api/internal/adapter/openai"
	"medvault-api/internal/adapter/repository/postgres"
	"medvault-api/internal/adapter/storage"
	"medvault-api/internal/delivery/http/handler"
	"medvault-api/internal/delivery/http/middleware"
	"medvault-api/internal/usecase/agent"
	"medvault-api/internal/usecase/auth"
	"medvault-api/internal/usecase/chat"
	"medvault-api/internal/usecase/document"
	"medvault-api/pkg/config"
	"medvault-api/pkg/database"
	"medvault-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, false)

	// connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	if err := database.Migrate(db, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// object storage for raw documents
	blobStore, err := storage.NewMinioStore(context.Background(), storage.MinioConfig{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect object storage")
	}

	// llm and embedding clients
	completionClient := openaiadapter.NewCompletionClient(cfg.OpenAIKey, cfg.OpenAIChatModel, cfg.LLMMaxRetries, cfg.LLMRetryBackoff)
	embeddingClient := openaiadapter.NewEmbeddingClient(cfg.OpenAIKey, cfg.OpenAIEmbeddingModel)

	// repositories
	userRepo := postgres.NewUserRepository(db)
	docRepo := postgres.NewDocumentRepository(db)
	chunkRepo := postgres.NewChunkRepository(db)
	chatRepo := postgres.NewChatRepository(db)

	// agents and pipeline
	classifier := agent.NewClassifier(completionClient, cfg.ClassifyMaxLen)
	extractor := agent.NewExtractor(completionClient, cfg.ClassifyMaxLen)
	compliance := agent.NewComplianceChecker(completionClient, cfg.ClassifyMaxLen)
	pipeline := agent.NewIngestPipeline(classifier, extractor, compliance, cfg.StageTimeout, log)
	assistant := agent.NewDoctorAssistant(completionClient)

	// usecases
	chunker := document.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	indexer := document.NewIndexer(chunkRepo, embeddingClient, chunker, cfg.SimilarityThreshold)
	authUsecase := auth.NewAuthUsecase(userRepo, cfg.JWTSecret, cfg.JWTExpiration)
	docUsecase := document.NewDocumentUsecase(docRepo, blobStore, pipeline, indexer, log)
	chatUsecase := chat.NewChatUsecase(chatRepo, indexer, assistant, cfg.TopKResults, log)

	// handlers
	authHandler := handler.NewAuthHandler(authUsecase)
	docHandler := handler.NewDocumentHandler(docUsecase)
	chatHandler := handler.NewChatHandler(chatUsecase)

	app := fiber.New(fiber.Config{BodyLimit: 32 * 1024 * 1024})
	app.Use(fiberlogger.New())

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	// public routes
	api := app.Group("/api")
	api.Post("/users", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	// protected routes
	protected := api.Group("", middleware.JWTAuth(cfg.JWTSecret))
	protected.Get("/users/me", authHandler.Me)
	protected.Put("/users/me", authHandler.UpdateMe)
	protected.Delete("/users/me", authHandler.DeleteMe)
	protected.Get("/users", authHandler.ListUsers)

	// document routes
	protected.Post("/documents/upload", docHandler.Upload)
	protected.Get("/documents/search", docHandler.Search)
	protected.Get("/documents/patient/:id", docHandler.GetByPatient)
	protected.Get("/documents/:id/process", docHandler.Process)
	protected.Get("/documents/:id", docHandler.GetByID)

	// chat routes
	protected.Post("/chat/sessions", chatHandler.CreateSession)
	protected.Get("/chat/sessions/:doctorId", chatHandler.GetDoctorSessions)
	protected.Get("/chat/session/:id", chatHandler.GetSession)
	protected.Post("/chat/session/:id/message", chatHandler.SendMessage)

	log.Info().Int("port", cfg.Port).Msg("server starting")
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
