package requests

// RegisterAgentRequest adds an agent to the registry.
type RegisterAgentRequest struct {
	Name           string   `json:"name" binding:"required"`
	Email          string   `json:"email"`
	TeamChatUserID string   `json:"team_chat_user_id"`
	Languages      []string `json:"languages"`
	Specialties    []string `json:"specialties"`
	MaxConcurrent  int      `json:"max_concurrent"`
}

// UpdateAgentStatusRequest changes an agent's availability.
type UpdateAgentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=available busy away offline"`
}
