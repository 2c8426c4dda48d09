package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"touchline_server/config"
	"touchline_server/controllers"
	"touchline_server/routes"
	"touchline_server/services"
	"touchline_server/socket"
	"touchline_server/utils"
)

const shutdownTimeout = 15 * time.Second

// backends holds the stores selected by storage.backend.
type backends struct {
	matches       services.MatchRepository
	conversations services.ConversationStore
	messages      services.MessageStore
}

func newBackends(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backends, error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Info("Using in-memory storage")
		return &backends{
			matches:       services.NewMemoryMatchRepository(),
			conversations: services.NewMemoryConversationStore(),
			messages:      services.NewMemoryMessageStore(),
		}, nil
	}

	logger.Info("Initializing DynamoDB client...", zap.String("region", cfg.AWSRegion))
	client, err := services.InitializeDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		return nil, err
	}
	dynamo := &services.DynamoService{Client: client, Logger: logger}
	logger.Info("DynamoDB client initialized.")

	return &backends{
		matches:       &services.DynamoMatchRepository{Dynamo: dynamo, TableName: cfg.MatchesTable},
		conversations: &services.DynamoConversationStore{Dynamo: dynamo, TableName: cfg.ConversationsTable},
		messages:      &services.DynamoMessageStore{Dynamo: dynamo, TableName: cfg.MessagesTable},
	}, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := services.NewMetrics(registry)
	if err != nil {
		return err
	}

	stores, err := newBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}

	verifier := utils.TokenVerifier{Secret: []byte(cfg.JWTSecret)}
	refresh := socket.NewRefreshServer(stores.conversations, verifier.Verify, logger)

	notifier := &services.MultiNotifier{
		Sinks:   []services.Notifier{services.LogNotifier{Logger: logger}, refresh},
		Logger:  logger,
		Metrics: metrics,
	}

	if cfg.AMQPURL != "" {
		publisher, err := services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifier.Sinks = append(notifier.Sinks, services.AMQPNotifier{Publisher: publisher})
		logger.Info("Publishing match events", zap.String("exchange", cfg.AMQPExchange))
	}

	var archive *services.ArchiveService
	if cfg.ArchiveBucket != "" {
		s3Client, err := services.InitializeS3Client(ctx, cfg.AWSRegion)
		if err != nil {
			return err
		}
		archive = &services.ArchiveService{
			Client:    s3Client,
			Presigner: s3.NewPresignClient(s3Client),
			Bucket:    cfg.ArchiveBucket,
		}
		notifier.Sinks = append(notifier.Sinks, archive)
		logger.Info("Archiving finished matches", zap.String("bucket", cfg.ArchiveBucket))
	}

	conversationService := &services.ConversationService{
		Store:          stores.conversations,
		Logger:         logger,
		Metrics:        metrics,
		MirrorMaxTries: cfg.MirrorMaxTries,
	}
	matchService := services.NewMatchService(stores.matches, conversationService, notifier, logger, metrics)
	chatService := &services.ChatService{Messages: stores.messages, Conversations: stores.conversations, Logger: logger}

	r := mux.NewRouter()
	routes.RegisterBaseRoutes(r, registry)
	routes.RegisterMatchRoutes(r, controllers.NewMatchController(matchService, conversationService, archive, logger), verifier)
	routes.RegisterChatRoutes(r, controllers.NewChatController(chatService, logger), verifier)
	routes.RegisterSocketRoutes(r, refresh.Server())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := refresh.Serve(); err != nil {
			logger.Warn("socket.io server stopped", zap.Error(err))
		}
		return nil
	})
	if cfg.ReconcileInterval > 0 {
		reconciler := &services.Reconciler{Matches: stores.matches, Conversations: stores.conversations, Logger: logger, Metrics: metrics}
		g.Go(func() error {
			reconciler.RunEvery(gctx, cfg.ReconcileInterval)
			return nil
		})
	}
	g.Go(func() error {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		_ = refresh.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runReconcile(ctx context.Context, cfg *config.Config) error {
	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stores, err := newBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}

	reconciler := &services.Reconciler{Matches: stores.matches, Conversations: stores.conversations, Logger: logger}
	report, err := reconciler.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("Reconcile finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("repaired", report.Repaired),
		zap.Int("orphaned", report.Orphaned),
		zap.Int("failed", report.Failed))
	return nil
}
