package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/interfaces/httpserver/requests"
	"carebridge/chat-api/internal/interfaces/httpserver/responses"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// AgentDirectory is the registry surface the HTTP layer reads and writes.
type AgentDirectory interface {
	Register(ctx context.Context, a *agent.Agent) (*agent.Agent, error)
	Get(ctx context.Context, id string) (*agent.Agent, error)
	List(ctx context.Context) []*agent.Agent
}

// AgentStatusUpdater routes status changes through the escalation service
// so reassignment side effects apply.
type AgentStatusUpdater interface {
	UpdateAgentStatus(ctx context.Context, agentID string, status agent.Status) error
}

// AgentHandler exposes HTTP entrypoints for the agent directory.
type AgentHandler struct {
	directory AgentDirectory
	updater   AgentStatusUpdater
	log       zerolog.Logger
}

// NewAgentHandler constructs the handler.
func NewAgentHandler(directory AgentDirectory, updater AgentStatusUpdater, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		directory: directory,
		updater:   updater,
		log:       log.With().Str("handler", "agent").Logger(),
	}
}

// Register handles POST /v1/agents
// @Summary Register an agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body requests.RegisterAgentRequest true "Agent"
// @Success 201 {object} responses.AgentPayload
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/agents [post]
func (h *AgentHandler) Register(c *gin.Context) {
	var req requests.RegisterAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	registered, err := h.directory.Register(c.Request.Context(), &agent.Agent{
		Name:           req.Name,
		Email:          req.Email,
		TeamChatUserID: req.TeamChatUserID,
		Languages:      req.Languages,
		Specialties:    req.Specialties,
		MaxConcurrent:  req.MaxConcurrent,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to register agent")
		return
	}

	c.JSON(http.StatusCreated, responses.MapAgent(registered))
}

// Get handles GET /v1/agents/:agent_id
// @Summary Get an agent
// @Tags Agents
// @Produce json
// @Param agent_id path string true "Agent ID"
// @Success 200 {object} responses.AgentPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/agents/{agent_id} [get]
func (h *AgentHandler) Get(c *gin.Context) {
	a, err := h.directory.Get(c.Request.Context(), c.Param("agent_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get agent")
		return
	}
	c.JSON(http.StatusOK, responses.MapAgent(a))
}

// List handles GET /v1/agents
// @Summary List agents
// @Tags Agents
// @Produce json
// @Success 200 {array} responses.AgentPayload
// @Router /v1/agents [get]
func (h *AgentHandler) List(c *gin.Context) {
	agents := h.directory.List(c.Request.Context())
	payloads := make([]responses.AgentPayload, len(agents))
	for i, a := range agents {
		payloads[i] = responses.MapAgent(a)
	}
	c.JSON(http.StatusOK, payloads)
}

// UpdateStatus handles PUT /v1/agents/:agent_id/status
// @Summary Update agent availability
// @Description Going offline releases the agent's assigned tickets back to the queue
// @Tags Agents
// @Accept json
// @Produce json
// @Param agent_id path string true "Agent ID"
// @Param request body requests.UpdateAgentStatusRequest true "Status"
// @Success 200 {object} map[string]string
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/agents/{agent_id}/status [put]
func (h *AgentHandler) UpdateStatus(c *gin.Context) {
	agentID := c.Param("agent_id")

	var req requests.UpdateAgentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "")
		return
	}

	if err := h.updater.UpdateAgentStatus(c.Request.Context(), agentID, agent.Status(req.Status)); err != nil {
		responses.HandleError(c, err, "failed to update agent status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"agent_id": agentID, "status": req.Status})
}
