package responses

import (
	"time"

	"carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/domain/conversation"
	"carebridge/chat-api/internal/domain/escalation"
)

// ConversationPayload is returned to clients.
type ConversationPayload struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Channel         string            `json:"channel"`
	State           string            `json:"state"`
	Language        string            `json:"language"`
	AssignedAgentID string            `json:"assigned_agent_id,omitempty"`
	Messages        []MessagePayload  `json:"messages,omitempty"`
	EscalatedAt     *time.Time        `json:"escalated_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Satisfaction    *int              `json:"satisfaction,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// MessagePayload is one conversation message as returned to clients.
// Content carries the redacted text whenever PHI was detected.
type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	PHIDetected    bool      `json:"phi_detected"`
	AgentID        string    `json:"agent_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EscalationStatusPayload mirrors the ticket projection.
type EscalationStatusPayload struct {
	TicketID                    string  `json:"ticket_id"`
	Status                      string  `json:"status"`
	Priority                    string  `json:"priority"`
	QueuePosition               int     `json:"queue_position,omitempty"`
	AssignedAgentID             string  `json:"assigned_agent_id,omitempty"`
	WaitTimeMinutes             float64 `json:"wait_time_minutes"`
	ResponseSLARemainingMinutes float64 `json:"response_sla_remaining_minutes"`
	EstimatedWaitMinutes        int     `json:"estimated_wait_minutes"`
}

// AgentPayload is returned to clients.
type AgentPayload struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Email              string   `json:"email,omitempty"`
	Status             string   `json:"status"`
	Languages          []string `json:"languages"`
	Specialties        []string `json:"specialties"`
	MaxConcurrent      int      `json:"max_concurrent"`
	CurrentLoad        int      `json:"current_load"`
	Satisfaction       float64  `json:"satisfaction"`
	TotalConversations int      `json:"total_conversations"`
}

// MapConversation converts the domain model to the response payload.
func MapConversation(c *conversation.Conversation, includeMessages bool) ConversationPayload {
	payload := ConversationPayload{
		ID:              c.ID,
		UserID:          c.UserID,
		Channel:         string(c.Channel),
		State:           string(c.State),
		Language:        c.Language,
		AssignedAgentID: c.AssignedAgentID,
		EscalatedAt:     c.EscalatedAt,
		CompletedAt:     c.CompletedAt,
		Satisfaction:    c.Satisfaction,
		Metadata:        c.Metadata,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if includeMessages {
		payload.Messages = make([]MessagePayload, len(c.Messages))
		for i := range c.Messages {
			payload.Messages[i] = MapMessage(&c.Messages[i])
		}
	}
	return payload
}

// MapMessage converts a message, substituting redacted content.
func MapMessage(m *conversation.Message) MessagePayload {
	content := m.Content
	if m.PHIDetected && m.RedactedContent != "" {
		content = m.RedactedContent
	}
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Type:           string(m.Type),
		Content:        content,
		PHIDetected:    m.PHIDetected,
		AgentID:        m.AgentID,
		CreatedAt:      m.CreatedAt,
	}
}

// MapEscalationStatus converts the ticket projection.
func MapEscalationStatus(s *escalation.TicketStatus) EscalationStatusPayload {
	return EscalationStatusPayload{
		TicketID:                    s.TicketID,
		Status:                      string(s.Status),
		Priority:                    string(s.Priority),
		QueuePosition:               s.QueuePosition,
		AssignedAgentID:             s.AssignedAgentID,
		WaitTimeMinutes:             s.WaitTimeMinutes,
		ResponseSLARemainingMinutes: s.ResponseSLARemainingMinutes,
		EstimatedWaitMinutes:        s.EstimatedWaitMinutes,
	}
}

// MapAgent converts the domain model to the response payload.
func MapAgent(a *agent.Agent) AgentPayload {
	return AgentPayload{
		ID:                 a.ID,
		Name:               a.Name,
		Email:              a.Email,
		Status:             string(a.Status),
		Languages:          a.Languages,
		Specialties:        a.Specialties,
		MaxConcurrent:      a.MaxConcurrent,
		CurrentLoad:        a.CurrentLoad,
		Satisfaction:       a.Satisfaction,
		TotalConversations: a.TotalConversations,
	}
}
