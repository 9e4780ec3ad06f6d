package agent

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/utils/chatid"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// Repository persists agent records.
type Repository interface {
	Save(ctx context.Context, a *Agent) error
	List(ctx context.Context) ([]*Agent, error)
}

// Registry is the in-memory source of truth for agent state and load.
// All load mutation goes through it so the load invariant holds under
// concurrent assignment.
type Registry struct {
	mu     sync.Mutex
	agents map[string]*Agent
	seq    int
	repo   Repository
	log    zerolog.Logger
}

// NewRegistry creates an empty agent registry.
func NewRegistry(repo Repository, log zerolog.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
		repo:   repo,
		log:    log.With().Str("component", "agent-registry").Logger(),
	}
}

// Restore loads previously persisted agents into the registry.
// Loads are zeroed: assignments do not survive a restart.
func (r *Registry) Restore(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}
	agents, err := r.repo.List(ctx)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "restore agents")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range agents {
		a.CurrentLoad = 0
		if a.Sequence > r.seq {
			r.seq = a.Sequence
		}
		r.agents[a.ID] = a
	}
	r.log.Info().Int("agents", len(agents)).Msg("agent registry restored")
	return nil
}

// Register adds an agent and assigns its arrival sequence.
func (r *Registry) Register(ctx context.Context, a *Agent) (*Agent, error) {
	if a.Name == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "agent name is required", nil, "")
	}
	if a.MaxConcurrent <= 0 {
		a.MaxConcurrent = 3
	}

	r.mu.Lock()
	if a.ID == "" {
		a.ID = chatid.New(chatid.KindAgent)
	}
	if _, exists := r.agents[a.ID]; exists {
		r.mu.Unlock()
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "agent already registered", nil, "")
	}
	r.seq++
	a.Sequence = r.seq
	a.CurrentLoad = 0
	if a.Status == "" {
		a.Status = StatusOffline
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.LastActivity = now
	r.agents[a.ID] = a
	snapshot := a.clone()
	r.mu.Unlock()

	r.persist(snapshot)
	r.log.Info().Str("agent_id", a.ID).Str("name", a.Name).Msg("agent registered")
	return snapshot, nil
}

// Get returns a copy of the agent.
func (r *Registry) Get(ctx context.Context, id string) (*Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "agent not found", nil, "")
	}
	return a.clone(), nil
}

// List returns copies of all registered agents ordered by arrival.
func (r *Registry) List(_ context.Context) []*Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// UpdateStatus changes an agent's availability. It returns the previous
// status and whether anything changed.
func (r *Registry) UpdateStatus(ctx context.Context, id string, status Status) (Status, bool, error) {
	r.mu.Lock()
	a, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return "", false, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "agent not found", nil, "")
	}
	previous := a.Status
	if previous == status {
		r.mu.Unlock()
		return previous, false, nil
	}
	a.Status = status
	a.LastActivity = time.Now().UTC()
	a.UpdatedAt = a.LastActivity
	snapshot := a.clone()
	r.mu.Unlock()

	r.persist(snapshot)
	return previous, true, nil
}

// IncrementLoad reserves one conversation slot on the agent. The capacity
// check and the increment are a single critical section.
func (r *Registry) IncrementLoad(ctx context.Context, id string) error {
	r.mu.Lock()
	a, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "agent not found", nil, "")
	}
	if a.CurrentLoad >= a.MaxConcurrent {
		r.mu.Unlock()
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeCapacity, "agent at max concurrent conversations", nil, "")
	}
	a.CurrentLoad++
	a.UpdatedAt = time.Now().UTC()
	snapshot := a.clone()
	r.mu.Unlock()

	r.persist(snapshot)
	return nil
}

// DecrementLoad releases one conversation slot, clamped at zero.
func (r *Registry) DecrementLoad(_ context.Context, id string) {
	r.mu.Lock()
	a, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	if a.CurrentLoad > 0 {
		a.CurrentLoad--
	}
	a.UpdatedAt = time.Now().UTC()
	snapshot := a.clone()
	r.mu.Unlock()

	r.persist(snapshot)
}

// ResetLoad zeroes the agent's load. Used when an agent goes offline and
// their conversations are re-queued.
func (r *Registry) ResetLoad(_ context.Context, id string) {
	r.mu.Lock()
	a, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	a.CurrentLoad = 0
	a.UpdatedAt = time.Now().UTC()
	snapshot := a.clone()
	r.mu.Unlock()

	r.persist(snapshot)
}

// Available returns copies of agents that are available, below capacity
// and able to handle the given language.
func (r *Registry) Available(_ context.Context, language string) []*Agent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Agent, 0)
	for _, a := range r.agents {
		if !a.Status.IsAcceptingWork() || !a.HasCapacity() {
			continue
		}
		if !a.SpeaksLanguage(language) {
			continue
		}
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

// RecordOutcome folds a finished conversation into the agent's rolling
// aggregates. Satisfaction is optional.
func (r *Registry) RecordOutcome(_ context.Context, id string, satisfaction *int) {
	r.mu.Lock()
	a, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	a.TotalConversations++
	if satisfaction != nil {
		n := float64(a.TotalConversations)
		a.Satisfaction = (a.Satisfaction*(n-1) + float64(*satisfaction)) / n
	}
	a.UpdatedAt = time.Now().UTC()
	snapshot := a.clone()
	r.mu.Unlock()

	r.persist(snapshot)
}

func (r *Registry) persist(a *Agent) {
	if r.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.repo.Save(ctx, a); err != nil {
			r.log.Error().Err(err).Str("agent_id", a.ID).Msg("failed to persist agent")
		}
	}()
}
