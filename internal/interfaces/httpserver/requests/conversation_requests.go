package requests

// StartConversationRequest opens a new conversation with its first message.
type StartConversationRequest struct {
	UserID   string            `json:"user_id" binding:"required"`
	Channel  string            `json:"channel"`
	Message  string            `json:"message" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

// ProcessMessageRequest appends one message to a conversation.
type ProcessMessageRequest struct {
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
	UserID  string `json:"user_id"`
}

// EscalateRequest asks for a hand-off to a human agent.
type EscalateRequest struct {
	Reason   string `json:"reason"`
	Priority string `json:"priority"`
}

// TransferRequest assigns the conversation to a specific agent.
type TransferRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

// CompleteRequest closes a conversation with an optional satisfaction score.
type CompleteRequest struct {
	Satisfaction *int `json:"satisfaction" binding:"omitempty,min=1,max=5"`
}
