package entities

import (
	"time"

	"carebridge/chat-api/internal/domain/agent"
)

// Agent represents the database schema for support agents
type Agent struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string       `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name           string       `gorm:"type:varchar(128);not null"`
	Email          string       `gorm:"type:varchar(128)"`
	TeamChatUserID string       `gorm:"type:varchar(64)"`
	Status         agent.Status `gorm:"type:varchar(20);not null;default:'offline'"`
	LastActivity   time.Time
	Languages      StringArray `gorm:"type:jsonb"`
	Specialties    StringArray `gorm:"type:jsonb"`
	MaxConcurrent  int         `gorm:"not null;default:3"`
	Sequence       int         `gorm:"not null;default:0"`

	AvgResponseMinutes float64
	ResolutionRate     float64
	Satisfaction       float64
	TotalConversations int
}

// TableName specifies the table name for Agent.
func (Agent) TableName() string {
	return "agents"
}

// EtoD converts database entity to domain model
func (a *Agent) EtoD() *agent.Agent {
	return &agent.Agent{
		ID:                 a.PublicID,
		Name:               a.Name,
		Email:              a.Email,
		TeamChatUserID:     a.TeamChatUserID,
		Status:             a.Status,
		LastActivity:       a.LastActivity,
		Languages:          a.Languages,
		Specialties:        a.Specialties,
		MaxConcurrent:      a.MaxConcurrent,
		Sequence:           a.Sequence,
		AvgResponseMinutes: a.AvgResponseMinutes,
		ResolutionRate:     a.ResolutionRate,
		Satisfaction:       a.Satisfaction,
		TotalConversations: a.TotalConversations,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// NewSchemaAgent creates a database entity from domain model
func NewSchemaAgent(a *agent.Agent) *Agent {
	return &Agent{
		PublicID:           a.ID,
		Name:               a.Name,
		Email:              a.Email,
		TeamChatUserID:     a.TeamChatUserID,
		Status:             a.Status,
		LastActivity:       a.LastActivity,
		Languages:          a.Languages,
		Specialties:        a.Specialties,
		MaxConcurrent:      a.MaxConcurrent,
		Sequence:           a.Sequence,
		AvgResponseMinutes: a.AvgResponseMinutes,
		ResolutionRate:     a.ResolutionRate,
		Satisfaction:       a.Satisfaction,
		TotalConversations: a.TotalConversations,
	}
}
