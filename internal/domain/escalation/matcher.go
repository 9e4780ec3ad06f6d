package escalation

import (
	"carebridge/chat-api/internal/domain/agent"
)

// Score rates how well an agent fits a ticket. Candidates are assumed to
// be pre-filtered for availability, capacity and language.
func Score(a *agent.Agent, t *Ticket) float64 {
	score := 0.0
	if a.HasSpecialty(t.Category) {
		score += 10
	}
	score += float64(a.MaxConcurrent-a.CurrentLoad) * 2
	score += a.Satisfaction * 5
	return score
}

// Match picks the best candidate for the ticket. Ties break toward the
// lower current load, then toward earlier registration. Returns nil when
// no candidate fits.
func Match(candidates []*agent.Agent, t *Ticket) *agent.Agent {
	var best *agent.Agent
	bestScore := 0.0
	for _, c := range candidates {
		s := Score(c, t)
		if best == nil || s > bestScore {
			best, bestScore = c, s
			continue
		}
		if s == bestScore {
			if c.CurrentLoad < best.CurrentLoad ||
				(c.CurrentLoad == best.CurrentLoad && c.Sequence < best.Sequence) {
				best = c
			}
		}
	}
	return best
}
