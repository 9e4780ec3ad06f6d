package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"carebridge/chat-api/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID        string             `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID          string             `gorm:"type:varchar(64);index:idx_conversation_user_state;not null"`
	Channel         string             `gorm:"type:varchar(20);not null;default:'web'"`
	State           conversation.State `gorm:"type:varchar(20);index:idx_conversation_user_state;not null;default:'active'"`
	Language        string             `gorm:"type:varchar(8);not null;default:'en'"`
	AssignedAgentID *string            `gorm:"type:varchar(50);index"`
	EscalatedAt     *time.Time
	CompletedAt     *time.Time
	Satisfaction    *int
	Context         ContextBlob `gorm:"type:jsonb"`
	Metadata        JSONMap     `gorm:"type:jsonb"`

	Messages []ConversationMessage `gorm:"foreignKey:ConversationPublicID;references:PublicID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMessage represents one entry in a conversation's message log.
// Rows are append-only.
type ConversationMessage struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID             string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationPublicID string  `gorm:"type:varchar(50);index;not null"`
	Type                 string  `gorm:"type:varchar(20);not null"`
	Content              string  `gorm:"type:text;not null"`
	RedactedContent      *string `gorm:"type:text"`
	PHIDetected          bool    `gorm:"not null;default:false"`
	UserID               *string `gorm:"type:varchar(64)"`
	AgentID              *string `gorm:"type:varchar(50)"`
	Metadata             JSONMap `gorm:"type:jsonb"`
	SentAt               time.Time
}

// TableName specifies the table name for ConversationMessage.
func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// ContextBlob stores the accumulated conversation context as JSON.
type ContextBlob conversation.Context

func (c ContextBlob) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ContextBlob) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	messages := make([]conversation.Message, len(c.Messages))
	for i := range c.Messages {
		messages[i] = *c.Messages[i].EtoD()
	}

	ctx := conversation.Context(c.Context)

	assignedAgent := ""
	if c.AssignedAgentID != nil {
		assignedAgent = *c.AssignedAgentID
	}

	return &conversation.Conversation{
		ID:              c.PublicID,
		UserID:          c.UserID,
		Channel:         conversation.Channel(c.Channel),
		State:           c.State,
		Language:        c.Language,
		Messages:        messages,
		Context:         &ctx,
		AssignedAgentID: assignedAgent,
		EscalatedAt:     c.EscalatedAt,
		CompletedAt:     c.CompletedAt,
		Satisfaction:    c.Satisfaction,
		Metadata:        c.Metadata,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// EtoD converts database entity to domain model
func (m *ConversationMessage) EtoD() *conversation.Message {
	redacted := ""
	if m.RedactedContent != nil {
		redacted = *m.RedactedContent
	}
	userID := ""
	if m.UserID != nil {
		userID = *m.UserID
	}
	agentID := ""
	if m.AgentID != nil {
		agentID = *m.AgentID
	}
	return &conversation.Message{
		ID:              m.PublicID,
		ConversationID:  m.ConversationPublicID,
		Type:            conversation.MessageType(m.Type),
		Content:         m.Content,
		RedactedContent: redacted,
		PHIDetected:     m.PHIDetected,
		UserID:          userID,
		AgentID:         agentID,
		Metadata:        m.Metadata,
		CreatedAt:       m.SentAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	var assignedAgent *string
	if c.AssignedAgentID != "" {
		assignedAgent = &c.AssignedAgentID
	}
	var ctx ContextBlob
	if c.Context != nil {
		ctx = ContextBlob(*c.Context)
	}
	return &Conversation{
		PublicID:        c.ID,
		UserID:          c.UserID,
		Channel:         string(c.Channel),
		State:           c.State,
		Language:        c.Language,
		AssignedAgentID: assignedAgent,
		EscalatedAt:     c.EscalatedAt,
		CompletedAt:     c.CompletedAt,
		Satisfaction:    c.Satisfaction,
		Context:         ctx,
		Metadata:        c.Metadata,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *conversation.Message) *ConversationMessage {
	var redacted, userID, agentID *string
	if m.RedactedContent != "" {
		redacted = &m.RedactedContent
	}
	if m.UserID != "" {
		userID = &m.UserID
	}
	if m.AgentID != "" {
		agentID = &m.AgentID
	}
	return &ConversationMessage{
		PublicID:             m.ID,
		ConversationPublicID: m.ConversationID,
		Type:                 string(m.Type),
		Content:              m.Content,
		RedactedContent:      redacted,
		PHIDetected:          m.PHIDetected,
		UserID:               userID,
		AgentID:              agentID,
		Metadata:             m.Metadata,
		SentAt:               m.CreatedAt,
	}
}
