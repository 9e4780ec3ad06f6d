package worker

import (
	"context"

	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/domain/agent"
)

// PresenceFeed reads agent presence from the team-chat server.
type PresenceFeed interface {
	UserStatus(ctx context.Context, teamChatUserID string) (string, error)
	Enabled() bool
}

// StatusUpdater applies presence-driven availability changes, including
// the offline requeue path.
type StatusUpdater interface {
	UpdateAgentStatus(ctx context.Context, agentID string, status agent.Status) error
}

// AgentLister enumerates registered agents.
type AgentLister interface {
	List(ctx context.Context) []*agent.Agent
}

// PresencePoller mirrors team-chat presence onto agent availability.
type PresencePoller struct {
	agents  AgentLister
	updater StatusUpdater
	feed    PresenceFeed
	log     zerolog.Logger
}

// NewPresencePoller creates the poller.
func NewPresencePoller(agents AgentLister, updater StatusUpdater, feed PresenceFeed, log zerolog.Logger) *PresencePoller {
	return &PresencePoller{
		agents:  agents,
		updater: updater,
		feed:    feed,
		log:     log.With().Str("component", "presence-poller").Logger(),
	}
}

// Poll reads presence for every agent with a team-chat identity and
// applies the mapped availability.
func (p *PresencePoller) Poll(ctx context.Context) {
	if !p.feed.Enabled() {
		return
	}
	for _, a := range p.agents.List(ctx) {
		if a.TeamChatUserID == "" {
			continue
		}
		presence, err := p.feed.UserStatus(ctx, a.TeamChatUserID)
		if err != nil {
			p.log.Warn().Err(err).Str("agent_id", a.ID).Msg("presence lookup failed")
			continue
		}
		status := mapPresence(presence)
		if status == a.Status {
			continue
		}
		if err := p.updater.UpdateAgentStatus(ctx, a.ID, status); err != nil {
			p.log.Error().Err(err).Str("agent_id", a.ID).Msg("presence status update failed")
		}
	}
}

func mapPresence(presence string) agent.Status {
	switch presence {
	case "online":
		return agent.StatusAvailable
	case "away":
		return agent.StatusAway
	case "dnd":
		return agent.StatusBusy
	default:
		return agent.StatusOffline
	}
}
