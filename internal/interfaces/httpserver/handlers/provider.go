package handlers

import (
	"github.com/rs/zerolog"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Conversation *ConversationHandler
	Agent        *AgentHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	conversationService ConversationService,
	directory AgentDirectory,
	updater AgentStatusUpdater,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Conversation: NewConversationHandler(conversationService, log),
		Agent:        NewAgentHandler(directory, updater, log),
	}
}
