package bootstrap

import (
	"context"
	"log"
	"time"

	"video-intel-be/internal/config"
	"video-intel-be/internal/controller"
	"video-intel-be/internal/pkg/logger"
	"video-intel-be/internal/repository/implementation"
	"video-intel-be/internal/repository/memory"
	"video-intel-be/internal/repository/unitofwork"
	"video-intel-be/internal/service"
	"video-intel-be/internal/websocket"
	"video-intel-be/pkg/embedding"
	"video-intel-be/pkg/llm/factory"
	"video-intel-be/pkg/rag/decision"
	"video-intel-be/pkg/rag/executor"
	"video-intel-be/pkg/rag/history"
	"video-intel-be/pkg/rag/prompt"
	"video-intel-be/pkg/rag/retrieval"
	"video-intel-be/pkg/transcription"

	pktNats "video-intel-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController  controller.IAuthController
	VideoController controller.IVideoController
	ChatController  controller.IChatController

	// Background Services (Exposed for main.go to run)
	IngestConsumerService service.IIngestConsumerService
	EventAuditService     service.IEventAuditService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	transcriber := transcription.NewWhisperProvider(
		cfg.Ai.TranscriberBaseURL,
		cfg.Keys.OpenAI,
		cfg.Ai.TranscriberModel,
	)

	// 4. In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 5. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	var natsSub *pktNats.Subscriber
	if natsPub != nil {
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	wsLogger := logger.NewIsolatedLogger("logs/ingestion.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. RAG Turn Pipeline
	retrievalClient := retrieval.NewClient(
		embeddingProvider,
		implementation.NewTranscriptChunkRepository(db),
		retrieval.Config{
			TopK:    cfg.Switching.TopK,
			Timeout: time.Duration(cfg.Ai.RetrievalTimeoutSec) * time.Second,
		},
	)

	turnExecutor := executor.NewTurnExecutor(
		retrievalClient,
		llmProvider,
		prompt.NewBuilder(cfg.Switching.MinEvidence),
		history.NewLoader(uowFactory, 0),
		sessionRepo,
		decision.Config{
			StickyWindow: cfg.Switching.StickyWindow,
			Margin:       cfg.Switching.Margin,
		},
		time.Duration(cfg.Ai.GenerateTimeoutSec)*time.Second,
		sysLogger,
	)

	// 7. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.IngestTopic)
	ingestConsumerService := service.NewIngestConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		uowFactory,
		transcriber,
		embeddingProvider,
		wsHub,
		natsPub,
		cfg.App.UploadDir,
	)

	eventAuditService := service.NewEventAuditService(natsSub, wsLogger)

	authService := service.NewAuthService(uowFactory)
	videoService := service.NewVideoService(uowFactory, publisherService, cfg.App.UploadDir)
	chatService := service.NewChatService(uowFactory, turnExecutor, sessionRepo)

	// 8. Controllers
	return &Container{
		AuthController:  controller.NewAuthController(authService),
		VideoController: controller.NewVideoController(videoService),
		ChatController:  controller.NewChatController(chatService),

		IngestConsumerService: ingestConsumerService,
		EventAuditService:     eventAuditService,
		WebSocketHub:          wsHub,
	}
}
