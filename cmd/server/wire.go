//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"carebridge/chat-api/internal/config"
	"carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/domain/conversation"
	"carebridge/chat-api/internal/domain/escalation"
	"carebridge/chat-api/internal/infrastructure/aiengine"
	"carebridge/chat-api/internal/infrastructure/auth"
	"carebridge/chat-api/internal/infrastructure/database"
	"carebridge/chat-api/internal/infrastructure/logger"
	"carebridge/chat-api/internal/infrastructure/phi"
	agentrepo "carebridge/chat-api/internal/infrastructure/repository/agent"
	conversationrepo "carebridge/chat-api/internal/infrastructure/repository/conversation"
	ticketrepo "carebridge/chat-api/internal/infrastructure/repository/ticket"
	"carebridge/chat-api/internal/infrastructure/teamchat"
	"carebridge/chat-api/internal/interfaces/httpserver"
	"carebridge/chat-api/internal/interfaces/httpserver/handlers"
)

var domainSet = wire.NewSet(
	conversationrepo.NewPostgresRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.PostgresRepository)),
	ticketrepo.NewPostgresRepository,
	wire.Bind(new(escalation.Repository), new(*ticketrepo.PostgresRepository)),
	agentrepo.NewPostgresRepository,
	wire.Bind(new(agent.Repository), new(*agentrepo.PostgresRepository)),
	newRegistry,
	teamchat.New,
	wire.Bind(new(escalation.Notifier), new(*teamchat.Client)),
	newRedactor,
	wire.Bind(new(conversation.Redactor), new(*phi.Redactor)),
	aiengine.New,
	wire.Bind(new(conversation.Responder), new(*aiengine.Client)),
	escalation.NewService,
	wire.Bind(new(conversation.Escalator), new(*escalation.Service)),
	newConversationService,
	wire.Bind(new(handlers.ConversationService), new(*conversation.Service)),
	wire.Bind(new(handlers.AgentDirectory), new(*agent.Registry)),
	wire.Bind(new(handlers.AgentStatusUpdater), new(*escalation.Service)),
)

// BuildApplication demonstrates how to assemble the chat service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newGormDB,
		newAuthValidator,
		domainSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newGormDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newRegistry(ctx context.Context, repo agent.Repository, log zerolog.Logger) (*agent.Registry, error) {
	registry := agent.NewRegistry(repo, log)
	if err := registry.Restore(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

func newRedactor(cfg *config.Config, log zerolog.Logger) *phi.Redactor {
	return phi.NewRedactor(cfg.PHIRedactionEnabled, log)
}

func newConversationService(
	cfg *config.Config,
	redactor conversation.Redactor,
	responder conversation.Responder,
	escalator *escalation.Service,
	repo conversation.Repository,
	log zerolog.Logger,
) *conversation.Service {
	service := conversation.NewService(
		cfg,
		conversation.LexiconClassifier{},
		conversation.KeywordLanguageDetector{Default: cfg.DefaultLanguage},
		redactor,
		responder,
		escalator,
		repo,
		log,
	)
	escalator.SetHooks(service)
	return service
}
