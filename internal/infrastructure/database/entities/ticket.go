package entities

import (
	"time"

	"carebridge/chat-api/internal/domain/escalation"
)

// EscalationTicket represents the database schema for escalation tickets
type EscalationTicket struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID             string              `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationPublicID string              `gorm:"type:varchar(50);index;not null"`
	UserID               string              `gorm:"type:varchar(64);not null"`
	Priority             escalation.Priority `gorm:"type:varchar(10);not null;default:'normal'"`
	Reason               string              `gorm:"type:varchar(128)"`
	Category             string              `gorm:"type:varchar(32);index"`
	Description          string              `gorm:"type:text"`
	Channel              string              `gorm:"type:varchar(20)"`
	Language             string              `gorm:"type:varchar(8)"`
	Status               escalation.Status   `gorm:"type:varchar(20);index;not null;default:'pending'"`

	QueuePosition   int
	AssignedAgentID *string `gorm:"type:varchar(50);index"`
	AssignedAt      *time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time

	ResponseSLAMinutes   int
	ResolutionSLAMinutes int
	SLABaseline          time.Time

	ContextSummary JSONAny `gorm:"type:jsonb"`
	TicketCreated  time.Time
}

// TableName specifies the table name for EscalationTicket.
func (EscalationTicket) TableName() string {
	return "escalation_tickets"
}

// EtoD converts database entity to domain model
func (t *EscalationTicket) EtoD() *escalation.Ticket {
	assignedAgent := ""
	if t.AssignedAgentID != nil {
		assignedAgent = *t.AssignedAgentID
	}
	return &escalation.Ticket{
		ID:                   t.PublicID,
		ConversationID:       t.ConversationPublicID,
		UserID:               t.UserID,
		Priority:             t.Priority,
		Reason:               t.Reason,
		Category:             t.Category,
		Description:          t.Description,
		Channel:              t.Channel,
		Language:             t.Language,
		Status:               t.Status,
		QueuePosition:        t.QueuePosition,
		AssignedAgentID:      assignedAgent,
		AssignedAt:           t.AssignedAt,
		FirstResponseAt:      t.FirstResponseAt,
		ResolvedAt:           t.ResolvedAt,
		ResponseSLAMinutes:   t.ResponseSLAMinutes,
		ResolutionSLAMinutes: t.ResolutionSLAMinutes,
		SLABaseline:          t.SLABaseline,
		ContextSummary:       t.ContextSummary,
		CreatedAt:            t.TicketCreated,
		UpdatedAt:            t.UpdatedAt,
	}
}

// NewSchemaTicket creates a database entity from domain model
func NewSchemaTicket(t *escalation.Ticket) *EscalationTicket {
	var assignedAgent *string
	if t.AssignedAgentID != "" {
		assignedAgent = &t.AssignedAgentID
	}
	return &EscalationTicket{
		PublicID:             t.ID,
		ConversationPublicID: t.ConversationID,
		UserID:               t.UserID,
		Priority:             t.Priority,
		Reason:               t.Reason,
		Category:             t.Category,
		Description:          t.Description,
		Channel:              t.Channel,
		Language:             t.Language,
		Status:               t.Status,
		QueuePosition:        t.QueuePosition,
		AssignedAgentID:      assignedAgent,
		AssignedAt:           t.AssignedAt,
		FirstResponseAt:      t.FirstResponseAt,
		ResolvedAt:           t.ResolvedAt,
		ResponseSLAMinutes:   t.ResponseSLAMinutes,
		ResolutionSLAMinutes: t.ResolutionSLAMinutes,
		SLABaseline:          t.SLABaseline,
		ContextSummary:       t.ContextSummary,
		TicketCreated:        t.CreatedAt,
	}
}
