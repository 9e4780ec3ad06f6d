package agent

import (
	"time"
)

// Status represents an agent's availability state.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusAway      Status = "away"
	StatusOffline   Status = "offline"
)

// IsAcceptingWork reports whether an agent in this status can take new conversations.
func (s Status) IsAcceptingWork() bool {
	return s == StatusAvailable
}

// Agent represents a human support agent.
type Agent struct {
	ID             string
	Name           string
	Email          string
	TeamChatUserID string
	Status         Status
	LastActivity   time.Time
	Languages      []string
	Specialties    []string
	MaxConcurrent  int
	CurrentLoad    int
	Sequence       int

	// Rolling performance aggregates.
	AvgResponseMinutes float64
	ResolutionRate     float64
	Satisfaction       float64
	TotalConversations int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SpeaksLanguage reports whether the agent handles the given language.
func (a *Agent) SpeaksLanguage(language string) bool {
	if language == "" {
		return true
	}
	for _, l := range a.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// HasSpecialty reports whether the agent carries the given specialty.
func (a *Agent) HasSpecialty(specialty string) bool {
	for _, s := range a.Specialties {
		if s == specialty {
			return true
		}
	}
	return false
}

// HasCapacity reports whether the agent can take one more conversation.
func (a *Agent) HasCapacity() bool {
	return a.CurrentLoad < a.MaxConcurrent
}

func (a *Agent) clone() *Agent {
	cp := *a
	cp.Languages = append([]string(nil), a.Languages...)
	cp.Specialties = append([]string(nil), a.Specialties...)
	return &cp
}
