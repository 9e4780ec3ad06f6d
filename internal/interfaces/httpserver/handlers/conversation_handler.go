package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/domain/conversation"
	"carebridge/chat-api/internal/domain/escalation"
	"carebridge/chat-api/internal/infrastructure/observability"
	"carebridge/chat-api/internal/interfaces/httpserver/requests"
	"carebridge/chat-api/internal/interfaces/httpserver/responses"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// ConversationService is the slice of the conversation domain the HTTP
// layer drives.
type ConversationService interface {
	StartConversation(ctx context.Context, userID string, channel conversation.Channel, text string, metadata map[string]string) (*conversation.Conversation, error)
	ProcessMessage(ctx context.Context, conversationID, text string, msgType conversation.MessageType, userID string) (*conversation.Message, error)
	Escalate(ctx context.Context, conversationID, reason string, priority escalation.Priority) (bool, error)
	TransferToAgent(ctx context.Context, conversationID, agentID string) (bool, error)
	Complete(ctx context.Context, conversationID string, satisfaction *int) (bool, error)
	Get(ctx context.Context, conversationID string) (*conversation.Conversation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*conversation.Conversation, error)
	EscalationStatus(ctx context.Context, conversationID string) (*escalation.TicketStatus, error)
}

// ConversationHandler exposes HTTP entrypoints for conversations.
type ConversationHandler struct {
	service ConversationService
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service ConversationService, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// Start handles POST /v1/conversations
// @Summary Start a conversation
// @Description Opens a conversation and processes the initial message
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body requests.StartConversationRequest true "Conversation request"
// @Success 201 {object} responses.ConversationPayload
// @Failure 400 {object} responses.ErrorResponse
// @Router /v1/conversations [post]
func (h *ConversationHandler) Start(c *gin.Context) {
	var req requests.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	channel := conversation.Channel(req.Channel)
	if req.Channel == "" {
		channel = conversation.ChannelWeb
	}

	conv, err := h.service.StartConversation(c.Request.Context(), req.UserID, channel, req.Message, req.Metadata)
	if err != nil {
		responses.HandleError(c, err, "failed to start conversation")
		return
	}

	c.JSON(http.StatusCreated, responses.MapConversation(conv, true))
}

// Get handles GET /v1/conversations/:conversation_id
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} responses.ConversationPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.service.Get(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}
	c.JSON(http.StatusOK, responses.MapConversation(conv, true))
}

// List handles GET /v1/conversations?user_id=
// @Summary List a user's conversations
// @Tags Conversations
// @Produce json
// @Param user_id query string true "User ID"
// @Param limit query int false "Max results"
// @Success 200 {array} responses.ConversationPayload
// @Router /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "user_id query parameter is required", "")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	convs, err := h.service.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	payloads := make([]responses.ConversationPayload, len(convs))
	for i, conv := range convs {
		payloads[i] = responses.MapConversation(conv, false)
	}
	c.JSON(http.StatusOK, payloads)
}

// ProcessMessage handles POST /v1/conversations/:conversation_id/messages
// @Summary Send a message
// @Description Appends a message and returns the produced reply
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body requests.ProcessMessageRequest true "Message"
// @Success 200 {object} responses.MessagePayload
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/messages [post]
func (h *ConversationHandler) ProcessMessage(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.ProcessMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	msgType := conversation.MessageType(req.Type)
	if req.Type == "" {
		msgType = conversation.MessageTypeUser
	}

	ctx, span := observability.StartMessageSpan(c.Request.Context(), conversationID, req.UserID, "http")
	defer span.End()

	msg, err := h.service.ProcessMessage(ctx, conversationID, req.Message, msgType, req.UserID)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to process message")
		return
	}

	c.JSON(http.StatusOK, responses.MapMessage(msg))
}

// Escalate handles POST /v1/conversations/:conversation_id/escalate
// @Summary Escalate a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body requests.EscalateRequest true "Escalation"
// @Success 200 {object} map[string]bool
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/escalate [post]
func (h *ConversationHandler) Escalate(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	ctx, span := observability.StartEscalationSpan(c.Request.Context(), conversationID, req.Reason, req.Priority)
	defer span.End()

	escalated, err := h.service.Escalate(ctx, conversationID, req.Reason, escalation.Priority(req.Priority))
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to escalate conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"escalated": escalated})
}

// Transfer handles POST /v1/conversations/:conversation_id/transfer
// @Summary Transfer a conversation to a specific agent
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body requests.TransferRequest true "Transfer"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/transfer [post]
func (h *ConversationHandler) Transfer(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	transferred, err := h.service.TransferToAgent(c.Request.Context(), conversationID, req.AgentID)
	if err != nil {
		responses.HandleError(c, err, "failed to transfer conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transferred": transferred})
}

// Complete handles POST /v1/conversations/:conversation_id/complete
// @Summary Complete a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body requests.CompleteRequest false "Completion"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/complete [post]
func (h *ConversationHandler) Complete(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req requests.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	completed, err := h.service.Complete(c.Request.Context(), conversationID, req.Satisfaction)
	if err != nil {
		responses.HandleError(c, err, "failed to complete conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"completed": completed})
}

// EscalationStatus handles GET /v1/conversations/:conversation_id/escalation
// @Summary Get escalation status
// @Tags Conversations
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} responses.EscalationStatusPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/escalation [get]
func (h *ConversationHandler) EscalationStatus(c *gin.Context) {
	status, err := h.service.EscalationStatus(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get escalation status")
		return
	}
	c.JSON(http.StatusOK, responses.MapEscalationStatus(status))
}
