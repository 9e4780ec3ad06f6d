package escalation

import (
	"testing"

	"carebridge/chat-api/internal/domain/agent"
)

func matchAgent(id string, seq, load, max int, satisfaction float64, specialties ...string) *agent.Agent {
	return &agent.Agent{
		ID:            id,
		Sequence:      seq,
		CurrentLoad:   load,
		MaxConcurrent: max,
		Satisfaction:  satisfaction,
		Specialties:   specialties,
		Status:        agent.StatusAvailable,
	}
}

func TestScore(t *testing.T) {
	ticket := &Ticket{Category: "billing"}

	specialist := matchAgent("a", 1, 0, 3, 4.0, "billing")
	// 10 (specialty) + 2*3 (headroom) + 5*4.0 (satisfaction)
	if got := Score(specialist, ticket); got != 36 {
		t.Errorf("Score = %v, want 36", got)
	}

	generalist := matchAgent("b", 2, 2, 3, 0, "clinical")
	// 0 + 2*1 + 0
	if got := Score(generalist, ticket); got != 2 {
		t.Errorf("Score = %v, want 2", got)
	}
}

func TestMatchScoring(t *testing.T) {
	ticket := &Ticket{Category: "clinical"}

	// Specialty alone does not force the choice; the total score decides.
	// billing-pro: 0 + 6 + 25 = 31 beats clinician: 10 + 4 + 15 = 29.
	candidates := []*agent.Agent{
		matchAgent("billing-pro", 1, 0, 3, 5.0, "billing"),
		matchAgent("clinician", 2, 1, 3, 3.0, "clinical"),
	}
	if best := Match(candidates, ticket); best == nil || best.ID != "billing-pro" {
		t.Errorf("Match picked %v, want billing-pro on raw score", best)
	}

	// With equal satisfaction the specialty bonus tips it.
	// billing-pro: 0 + 6 + 15 = 21; clinician: 10 + 4 + 15 = 29.
	candidates[0].Satisfaction = 3.0
	if best := Match(candidates, ticket); best == nil || best.ID != "clinician" {
		t.Errorf("Match picked %v, want clinician", best)
	}
}

func TestMatchTieBreaksOnLoadThenSequence(t *testing.T) {
	ticket := &Ticket{Category: "general"}

	// Both score 2*3=6; the lighter load wins the tie.
	byLoad := []*agent.Agent{
		{ID: "heavy", Sequence: 1, CurrentLoad: 2, MaxConcurrent: 5, Status: agent.StatusAvailable},
		{ID: "light", Sequence: 2, CurrentLoad: 1, MaxConcurrent: 4, Status: agent.StatusAvailable},
	}
	if best := Match(byLoad, ticket); best == nil || best.ID != "light" {
		t.Errorf("Match picked %v, want light", best)
	}

	// Full tie: earlier registration wins.
	bySeq := []*agent.Agent{
		{ID: "second", Sequence: 2, CurrentLoad: 1, MaxConcurrent: 3, Status: agent.StatusAvailable},
		{ID: "first", Sequence: 1, CurrentLoad: 1, MaxConcurrent: 3, Status: agent.StatusAvailable},
	}
	if best := Match(bySeq, ticket); best == nil || best.ID != "first" {
		t.Errorf("Match picked %v, want first", best)
	}
}

func TestMatchEmpty(t *testing.T) {
	if Match(nil, &Ticket{}) != nil {
		t.Error("Match with no candidates should return nil")
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"question about billing statement", "billing"},
		{"needs a doctor consult", "clinical"},
		{"prescription refill stuck", "pharmacy"},
		{"the portal is not working", "technical"},
		{"user is frustrated with support", "complaint"},
		{"trigger_keyword_match", "general"},
		{"", "general"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.reason); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestPriorityBump(t *testing.T) {
	tests := []struct {
		in   Priority
		want Priority
	}{
		{PriorityLow, PriorityNormal},
		{PriorityNormal, PriorityHigh},
		{PriorityHigh, PriorityUrgent},
		{PriorityUrgent, PriorityUrgent},
	}
	for _, tt := range tests {
		if got := tt.in.Bump(); got != tt.want {
			t.Errorf("Bump(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	if !(PriorityUrgent.Rank() < PriorityHigh.Rank() &&
		PriorityHigh.Rank() < PriorityNormal.Rank() &&
		PriorityNormal.Rank() < PriorityLow.Rank()) {
		t.Error("priority ranks out of order")
	}
	if Priority("bogus").Rank() != PriorityNormal.Rank() {
		t.Error("unknown priority should rank with normal")
	}
}
