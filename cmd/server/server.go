package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/config"
	"carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/domain/conversation"
	"carebridge/chat-api/internal/domain/escalation"
	"carebridge/chat-api/internal/infrastructure/aiengine"
	"carebridge/chat-api/internal/infrastructure/auth"
	"carebridge/chat-api/internal/infrastructure/database"
	"carebridge/chat-api/internal/infrastructure/logger"
	"carebridge/chat-api/internal/infrastructure/observability"
	"carebridge/chat-api/internal/infrastructure/phi"
	agentrepo "carebridge/chat-api/internal/infrastructure/repository/agent"
	conversationrepo "carebridge/chat-api/internal/infrastructure/repository/conversation"
	ticketrepo "carebridge/chat-api/internal/infrastructure/repository/ticket"
	"carebridge/chat-api/internal/infrastructure/teamchat"
	"carebridge/chat-api/internal/interfaces/httpserver"
	"carebridge/chat-api/internal/worker"
)

// @title Chat API
// @version 1.0
// @description Healthcare conversation service with AI assistance, PHI redaction and human escalation.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewPostgresRepository(db)
	ticketRepository := ticketrepo.NewPostgresRepository(db)
	agentRepository := agentrepo.NewPostgresRepository(db)

	registry := agent.NewRegistry(agentRepository, log)
	if err := registry.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("restore agent registry")
	}

	chatClient := teamchat.New(cfg, log)
	redactor := phi.NewRedactor(cfg.PHIRedactionEnabled, log)
	responder := aiengine.New(cfg, log)

	escalationService := escalation.NewService(cfg, registry, ticketRepository, chatClient, log)
	conversationService := conversation.NewService(
		cfg,
		conversation.LexiconClassifier{},
		conversation.KeywordLanguageDetector{Default: cfg.DefaultLanguage},
		redactor,
		responder,
		escalationService,
		conversationRepository,
		log,
	)
	escalationService.SetHooks(conversationService)

	presencePoller := worker.NewPresencePoller(registry, escalationService, chatClient, log)

	supervisor := worker.NewSupervisor([]worker.Job{
		{Name: "escalation-matching", Interval: cfg.MatchingInterval, Run: escalationService.MatchingPass},
		{Name: "sla-monitor", Interval: cfg.SLAMonitorInterval, Run: escalationService.SweepSLA},
		{Name: "escalation-timeout", Interval: cfg.TimeoutSweepInterval, Run: conversationService.SweepEscalationTimeouts},
		{Name: "abandoned-conversations", Interval: cfg.AbandonSweepInterval, Run: conversationService.SweepAbandoned},
		{Name: "agent-presence", Interval: cfg.PresencePollInterval, Run: presencePoller.Poll},
	}, log)

	if err := supervisor.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start worker supervisor")
	}
	defer func() {
		log.Info().Msg("stopping worker supervisor")
		supervisor.Stop()
	}()

	httpServer := httpserver.New(cfg, log, conversationService, registry, escalationService, authValidator)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
