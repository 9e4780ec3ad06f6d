package escalation

import (
	"strings"
	"time"
)

// Priority orders tickets in the queue. Urgent sorts first.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

// Rank returns the sort rank, lower is more urgent. Unknown priorities
// rank with normal.
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return priorityRank[PriorityNormal]
}

// IsValid reports whether the value is a known priority.
func (p Priority) IsValid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Bump raises the priority one level. Urgent stays urgent.
func (p Priority) Bump() Priority {
	switch p {
	case PriorityLow:
		return PriorityNormal
	case PriorityNormal:
		return PriorityHigh
	case PriorityHigh, PriorityUrgent:
		return PriorityUrgent
	default:
		return PriorityHigh
	}
}

// Status tracks a ticket through its life. It moves forward only; the
// priority-bump path changes priority and deadlines, never status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusEscalated  Status = "escalated"
)

// IsLive reports whether the ticket still occupies agent attention.
func (s Status) IsLive() bool {
	return s == StatusPending || s == StatusAssigned || s == StatusInProgress
}

// Ticket is one escalation request for a conversation.
type Ticket struct {
	ID             string
	ConversationID string
	UserID         string
	Priority       Priority
	Reason         string
	Category       string
	Description    string
	Channel        string
	Language       string
	Status         Status

	QueuePosition   int
	AssignedAgentID string
	AssignedAt      *time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time

	ResponseSLAMinutes   int
	ResolutionSLAMinutes int
	// SLABaseline anchors SLA deadlines. Reset on priority bump.
	SLABaseline time.Time

	// ContextSummary is denormalized from the conversation at creation
	// time; the conversation may leave the active set before the ticket
	// resolves.
	ContextSummary map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResponseDeadline is the moment the first agent response is due.
func (t *Ticket) ResponseDeadline() time.Time {
	return t.SLABaseline.Add(time.Duration(t.ResponseSLAMinutes) * time.Minute)
}

// ResolutionDeadline is the moment the ticket must be resolved by.
func (t *Ticket) ResolutionDeadline() time.Time {
	return t.SLABaseline.Add(time.Duration(t.ResolutionSLAMinutes) * time.Minute)
}

// Request carries everything the matcher needs to open a ticket.
type Request struct {
	ConversationID string
	UserID         string
	Reason         string
	Priority       Priority
	Channel        string
	Language       string
	Description    string
	ContextSummary map[string]any
}

var categoryLexicon = []struct {
	category string
	keywords []string
}{
	{"billing", []string{"billing", "payment", "insurance", "cost"}},
	{"clinical", []string{"medical", "doctor", "diagnosis", "treatment"}},
	{"pharmacy", []string{"prescription", "medication", "drug", "pharmacy"}},
	{"technical", []string{"not working", "error", "bug", "broken"}},
	{"complaint", []string{"complaint", "frustrated", "angry", "dissatisfied"}},
}

// Categorize maps an escalation reason to an agent specialty bucket.
func Categorize(reason string) string {
	lower := strings.ToLower(reason)
	for _, entry := range categoryLexicon {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return "general"
}

// TicketStatus is the read-only projection returned to callers asking
// about an escalation.
type TicketStatus struct {
	TicketID                    string   `json:"ticket_id"`
	Status                      Status   `json:"status"`
	Priority                    Priority `json:"priority"`
	QueuePosition               int      `json:"queue_position,omitempty"`
	AssignedAgentID             string   `json:"assigned_agent_id,omitempty"`
	WaitTimeMinutes             float64  `json:"wait_time_minutes"`
	ResponseSLARemainingMinutes float64  `json:"response_sla_remaining_minutes"`
	EstimatedWaitMinutes        int      `json:"estimated_wait_minutes"`
}
