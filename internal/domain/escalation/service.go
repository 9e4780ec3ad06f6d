package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/config"
	"carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/infrastructure/metrics"
	"carebridge/chat-api/internal/utils/chatid"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// Repository persists ticket records.
type Repository interface {
	Save(ctx context.Context, t *Ticket) error
}

// Notifier delivers escalation events to the support team chat.
// Implementations are best effort; failures are logged, never propagated.
type Notifier interface {
	NotifyTeam(ctx context.Context, text string) error
	NotifyAgent(ctx context.Context, teamChatUserID string, text string) error
}

// ConversationHooks lets the matcher report assignment outcomes back to
// the conversation layer without a package cycle.
type ConversationHooks interface {
	OnAgentAssigned(ctx context.Context, conversationID, agentID string)
}

// Service owns the escalation queue, the live ticket set and the matcher.
// One mutex guards all three so queue renumbering, agent load checks and
// ticket status changes stay atomic with each other.
type Service struct {
	mu      sync.Mutex
	queue   *Queue
	tickets map[string]*Ticket
	byConv  map[string]string

	registry *agent.Registry
	repo     Repository
	notifier Notifier
	hooks    ConversationHooks
	cfg      *config.Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates the escalation service.
func NewService(
	cfg *config.Config,
	registry *agent.Registry,
	repo Repository,
	notifier Notifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		queue:    NewQueue(cfg.QueueMaxSize),
		tickets:  make(map[string]*Ticket),
		byConv:   make(map[string]string),
		registry: registry,
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With().Str("component", "escalation-service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetHooks wires the conversation-layer callbacks. Called once at startup.
func (s *Service) SetHooks(h ConversationHooks) {
	s.hooks = h
}

// RequestAgent opens a ticket for the conversation and either assigns an
// agent immediately (high/urgent) or queues the ticket. The returned bool
// reports whether an agent was assigned synchronously.
func (s *Service) RequestAgent(ctx context.Context, req Request) (bool, *Ticket, error) {
	if !req.Priority.IsValid() {
		req.Priority = PriorityNormal
	}

	now := s.now()
	ticket := &Ticket{
		ID:                   chatid.New(chatid.KindTicket),
		ConversationID:       req.ConversationID,
		UserID:               req.UserID,
		Priority:             req.Priority,
		Reason:               req.Reason,
		Category:             Categorize(req.Reason),
		Description:          req.Description,
		Channel:              req.Channel,
		Language:             req.Language,
		Status:               StatusPending,
		ResponseSLAMinutes:   s.cfg.ResponseSLAMinutes(string(req.Priority)),
		ResolutionSLAMinutes: s.cfg.ResolutionSLAMinutes(string(req.Priority)),
		SLABaseline:          now,
		ContextSummary:       req.ContextSummary,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if ticket.Description == "" {
		ticket.Description = "Escalation requested: " + req.Reason
	}

	var after []func()

	s.mu.Lock()
	if existing, ok := s.byConv[req.ConversationID]; ok {
		s.mu.Unlock()
		return false, nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "conversation already has a live ticket", nil, "",
			map[string]any{"conversation_id": req.ConversationID, "ticket_id": existing})
	}

	assigned := false
	if ticket.Priority == PriorityHigh || ticket.Priority == PriorityUrgent {
		assigned = s.assignLocked(ctx, ticket, &after)
	}

	if !assigned {
		dropped, ok := s.queue.Insert(ticket)
		if !ok {
			s.mu.Unlock()
			return false, nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeCapacity, "escalation queue is full", nil, "",
				map[string]any{"conversation_id": req.ConversationID, "queue_size": s.cfg.QueueMaxSize})
		}
		if dropped != nil {
			delete(s.tickets, dropped.ID)
			delete(s.byConv, dropped.ConversationID)
			metrics.QueueDrops.Inc()
			s.log.Warn().
				Str("ticket_id", dropped.ID).
				Str("conversation_id", dropped.ConversationID).
				Str("priority", string(dropped.Priority)).
				Msg("escalation queue full, dropped oldest low-priority ticket")
			s.persist(dropped)
		}
	}

	s.tickets[ticket.ID] = ticket
	s.byConv[ticket.ConversationID] = ticket.ID
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	snapshot := *ticket
	s.mu.Unlock()

	for _, fn := range after {
		fn()
	}
	s.persist(&snapshot)
	if !assigned {
		s.notifyTeam(newTicketMessage(&snapshot))
	}
	metrics.RecordEscalation(req.Reason)

	s.log.Info().
		Str("ticket_id", ticket.ID).
		Str("conversation_id", req.ConversationID).
		Str("priority", string(ticket.Priority)).
		Str("reason", req.Reason).
		Bool("assigned", assigned).
		Msg("agent requested")

	return assigned, &snapshot, nil
}

// MatchingPass walks the queue in priority order and assigns every ticket
// that has a fitting agent. Run periodically by the worker supervisor.
func (s *Service) MatchingPass(ctx context.Context) {
	var after []func()

	s.mu.Lock()
	for _, ticket := range s.queue.Items() {
		if s.assignLocked(ctx, ticket, &after) {
			s.queue.Remove(ticket.ID)
			s.persist(snapshotOf(ticket))
		}
	}
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	s.mu.Unlock()

	for _, fn := range after {
		fn()
	}
}

// SweepSLA bumps the priority of every live ticket whose response SLA has
// elapsed without a first response, recomputes its deadlines from the
// bump time and emits a breach notification.
func (s *Service) SweepSLA(ctx context.Context) {
	now := s.now()
	var breached []Ticket

	s.mu.Lock()
	for _, ticket := range s.tickets {
		if !ticket.Status.IsLive() || ticket.FirstResponseAt != nil {
			continue
		}
		if now.Before(ticket.ResponseDeadline()) {
			continue
		}
		s.bumpLocked(ticket, now)
		breached = append(breached, *ticket)
	}
	s.mu.Unlock()

	for i := range breached {
		t := breached[i]
		metrics.RecordSLABreach(string(t.Priority))
		s.persist(&t)
		s.notifyTeam(slaBreachMessage(&t, now))
		s.log.Warn().
			Str("ticket_id", t.ID).
			Str("conversation_id", t.ConversationID).
			Str("priority", string(t.Priority)).
			Msg("response SLA breached, priority bumped")
	}
}

// HandleTimeout is invoked when a conversation has sat escalated past the
// escalation window. It bumps the ticket priority and retries assignment.
func (s *Service) HandleTimeout(ctx context.Context, conversationID string) error {
	now := s.now()
	var after []func()

	s.mu.Lock()
	ticket, ok := s.liveTicketLocked(conversationID)
	if !ok {
		s.mu.Unlock()
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "no live ticket for conversation", nil, "",
			map[string]any{"conversation_id": conversationID})
	}
	s.bumpLocked(ticket, now)
	if ticket.AssignedAgentID == "" {
		if s.assignLocked(ctx, ticket, &after) {
			s.queue.Remove(ticket.ID)
		}
	}
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	snapshot := *ticket
	s.mu.Unlock()

	for _, fn := range after {
		fn()
	}
	s.persist(&snapshot)
	s.notifyTeam(timeoutMessage(&snapshot, now))

	s.log.Warn().
		Str("ticket_id", snapshot.ID).
		Str("conversation_id", conversationID).
		Str("new_priority", string(snapshot.Priority)).
		Msg("escalation timeout handled")
	return nil
}

// UpdateAgentStatus changes an agent's availability. When an agent goes
// offline their live tickets return to pending at their current priority,
// re-enter the queue, and the agent's load is zeroed.
func (s *Service) UpdateAgentStatus(ctx context.Context, agentID string, status agent.Status) error {
	previous, changed, err := s.registry.UpdateStatus(ctx, agentID, status)
	if err != nil {
		return err
	}
	if !changed || status != agent.StatusOffline {
		return nil
	}

	var requeued []Ticket

	s.mu.Lock()
	for _, ticket := range s.tickets {
		if ticket.AssignedAgentID != agentID || !ticket.Status.IsLive() {
			continue
		}
		ticket.AssignedAgentID = ""
		ticket.AssignedAt = nil
		ticket.Status = StatusPending
		ticket.UpdatedAt = s.now()
		if dropped, ok := s.queue.Insert(ticket); ok {
			if dropped != nil {
				delete(s.tickets, dropped.ID)
				delete(s.byConv, dropped.ConversationID)
				metrics.QueueDrops.Inc()
				s.log.Warn().Str("ticket_id", dropped.ID).Msg("queue full during requeue, dropped ticket")
				s.persist(dropped)
			}
		} else {
			s.log.Warn().Str("ticket_id", ticket.ID).Msg("queue full, requeued ticket rejected")
		}
		requeued = append(requeued, *ticket)
	}
	s.registry.ResetLoad(ctx, agentID)
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	s.mu.Unlock()

	for i := range requeued {
		s.persist(&requeued[i])
	}
	if len(requeued) > 0 {
		s.log.Info().
			Str("agent_id", agentID).
			Str("previous_status", string(previous)).
			Int("requeued", len(requeued)).
			Msg("agent went offline, tickets requeued")
	}
	return nil
}

// AssignToAgent assigns the conversation's ticket to a specific agent,
// bypassing the matcher. Used for manual transfer. Creates a ticket when
// the conversation has none.
func (s *Service) AssignToAgent(ctx context.Context, conversationID, agentID string) error {
	target, err := s.registry.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if !target.Status.IsAcceptingWork() {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidState, "agent is not available", nil, "",
			map[string]any{"agent_id": agentID, "status": string(target.Status)})
	}

	var after []func()

	s.mu.Lock()
	ticket, ok := s.liveTicketLocked(conversationID)
	if !ok {
		s.mu.Unlock()
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "no live ticket for conversation", nil, "",
			map[string]any{"conversation_id": conversationID})
	}
	if ticket.AssignedAgentID != "" {
		s.mu.Unlock()
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidState, "ticket already assigned", nil, "",
			map[string]any{"ticket_id": ticket.ID, "agent_id": ticket.AssignedAgentID})
	}
	if err := s.registry.IncrementLoad(ctx, agentID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.completeAssignmentLocked(ctx, ticket, target, &after)
	s.queue.Remove(ticket.ID)
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	snapshot := *ticket
	s.mu.Unlock()

	for _, fn := range after {
		fn()
	}
	s.persist(&snapshot)
	return nil
}

// MarkFirstResponse records the agent's first reply on the ticket and
// moves it to in_progress. Idempotent.
func (s *Service) MarkFirstResponse(ctx context.Context, conversationID string) {
	now := s.now()

	s.mu.Lock()
	ticket, ok := s.liveTicketLocked(conversationID)
	if !ok || ticket.FirstResponseAt != nil {
		s.mu.Unlock()
		return
	}
	ticket.FirstResponseAt = &now
	if ticket.Status == StatusAssigned {
		ticket.Status = StatusInProgress
	}
	ticket.UpdatedAt = now
	snapshot := *ticket
	s.mu.Unlock()

	s.persist(&snapshot)
}

// Resolve closes the conversation's live ticket, releasing the agent slot
// and folding the outcome into the agent's aggregates. Missing tickets
// are tolerated so conversation completion stays idempotent.
func (s *Service) Resolve(ctx context.Context, conversationID string, satisfaction *int) {
	now := s.now()

	s.mu.Lock()
	ticket, ok := s.liveTicketLocked(conversationID)
	if !ok {
		s.mu.Unlock()
		return
	}
	ticket.Status = StatusResolved
	ticket.ResolvedAt = &now
	if ticket.FirstResponseAt == nil {
		ticket.FirstResponseAt = &now
	}
	ticket.UpdatedAt = now
	agentID := ticket.AssignedAgentID
	s.queue.Remove(ticket.ID)
	delete(s.byConv, conversationID)
	delete(s.tickets, ticket.ID)
	metrics.QueueDepth.Set(float64(s.queue.Len()))
	snapshot := *ticket
	s.mu.Unlock()

	if agentID != "" {
		s.registry.DecrementLoad(ctx, agentID)
		s.registry.RecordOutcome(ctx, agentID, satisfaction)
	}
	s.persist(&snapshot)

	s.log.Info().
		Str("ticket_id", snapshot.ID).
		Str("conversation_id", conversationID).
		Str("agent_id", agentID).
		Msg("ticket resolved")
}

// Status returns the escalation projection for a conversation.
func (s *Service) Status(ctx context.Context, conversationID string) (*TicketStatus, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.liveTicketLocked(conversationID)
	if !ok {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "no live ticket for conversation", nil, "",
			map[string]any{"conversation_id": conversationID})
	}

	wait := now.Sub(ticket.CreatedAt).Minutes()
	remaining := now.Sub(ticket.SLABaseline).Minutes()
	slaRemaining := float64(ticket.ResponseSLAMinutes) - remaining
	if slaRemaining < 0 {
		slaRemaining = 0
	}

	estimated := 0
	if ticket.AssignedAgentID == "" {
		position := ticket.QueuePosition
		if position == 0 {
			position = s.queue.Len()
		}
		estimated = position * int(s.cfg.AvgHandleTimeEstimate.Minutes())
	}

	return &TicketStatus{
		TicketID:                    ticket.ID,
		Status:                      ticket.Status,
		Priority:                    ticket.Priority,
		QueuePosition:               ticket.QueuePosition,
		AssignedAgentID:             ticket.AssignedAgentID,
		WaitTimeMinutes:             round1(wait),
		ResponseSLARemainingMinutes: round1(slaRemaining),
		EstimatedWaitMinutes:        estimated,
	}, nil
}

// QueueDepth reports how many tickets are waiting.
func (s *Service) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// assignLocked runs the matcher for the ticket and completes assignment
// when a candidate fits. Caller holds s.mu; the load reservation and the
// ticket status change happen inside the same critical section.
func (s *Service) assignLocked(ctx context.Context, ticket *Ticket, after *[]func()) bool {
	candidates := s.registry.Available(ctx, ticket.Language)
	best := Match(candidates, ticket)
	if best == nil {
		return false
	}
	if err := s.registry.IncrementLoad(ctx, best.ID); err != nil {
		s.log.Warn().Err(err).Str("agent_id", best.ID).Msg("load reservation failed during matching")
		return false
	}
	s.completeAssignmentLocked(ctx, ticket, best, after)
	return true
}

func (s *Service) completeAssignmentLocked(ctx context.Context, ticket *Ticket, a *agent.Agent, after *[]func()) {
	now := s.now()
	ticket.AssignedAgentID = a.ID
	ticket.AssignedAt = &now
	ticket.Status = StatusAssigned
	ticket.QueuePosition = 0
	ticket.UpdatedAt = now
	metrics.Assignments.Inc()

	snapshot := *ticket
	agentRef := *a
	*after = append(*after, func() {
		if s.hooks != nil {
			s.hooks.OnAgentAssigned(ctx, snapshot.ConversationID, agentRef.ID)
		}
		if agentRef.TeamChatUserID != "" {
			s.notifyAgent(agentRef.TeamChatUserID, assignmentMessage(&snapshot, s.now()))
		}
		s.log.Info().
			Str("ticket_id", snapshot.ID).
			Str("agent_id", agentRef.ID).
			Str("conversation_id", snapshot.ConversationID).
			Msg("ticket assigned to agent")
	})
}

// bumpLocked raises priority one level and re-anchors SLA deadlines at
// now. Queued tickets are re-inserted so their position tracks the new
// priority. Caller holds s.mu.
func (s *Service) bumpLocked(ticket *Ticket, now time.Time) {
	ticket.Priority = ticket.Priority.Bump()
	ticket.ResponseSLAMinutes = s.cfg.ResponseSLAMinutes(string(ticket.Priority))
	ticket.ResolutionSLAMinutes = s.cfg.ResolutionSLAMinutes(string(ticket.Priority))
	ticket.SLABaseline = now
	ticket.UpdatedAt = now
	if ticket.QueuePosition > 0 {
		s.queue.Remove(ticket.ID)
		s.queue.Insert(ticket)
	}
}

func (s *Service) liveTicketLocked(conversationID string) (*Ticket, bool) {
	id, ok := s.byConv[conversationID]
	if !ok {
		return nil, false
	}
	ticket, ok := s.tickets[id]
	return ticket, ok
}

func (s *Service) persist(t *Ticket) {
	if s.repo == nil {
		return
	}
	cp := *t
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.Save(ctx, &cp); err != nil {
			s.log.Error().Err(err).Str("ticket_id", cp.ID).Msg("failed to persist ticket")
		}
	}()
}

func (s *Service) notifyTeam(text string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyTeam(ctx, text); err != nil {
			s.log.Error().Err(err).Msg("team notification failed")
		}
	}()
}

func (s *Service) notifyAgent(teamChatUserID, text string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyAgent(ctx, teamChatUserID, text); err != nil {
			s.log.Error().Err(err).Str("teamchat_user_id", teamChatUserID).Msg("agent notification failed")
		}
	}()
}

func newTicketMessage(t *Ticket) string {
	return fmt.Sprintf(
		":rotating_light: **New Escalation Ticket**\n- **ID**: %s\n- **Priority**: %s\n- **Category**: %s\n- **Channel**: %s\n- **Language**: %s\n- **Reason**: %s\n- **Queue Position**: #%d",
		shortID(t.ID), t.Priority, t.Category, t.Channel, t.Language, t.Reason, t.QueuePosition,
	)
}

func assignmentMessage(t *Ticket, now time.Time) string {
	return fmt.Sprintf(
		":wave: **New Conversation Assigned**\n- **Ticket**: %s\n- **Priority**: %s\n- **Channel**: %s\n- **Wait time**: %.1f minutes\n\nConversation: %s",
		shortID(t.ID), t.Priority, t.Channel, now.Sub(t.CreatedAt).Minutes(), t.ConversationID,
	)
}

func timeoutMessage(t *Ticket, now time.Time) string {
	return fmt.Sprintf(
		":alarm_clock: **Escalation Timeout**\n- **Ticket**: %s\n- **Priority upgraded to**: %s\n- **Wait time**: %.1f minutes\n\nImmediate attention required.",
		shortID(t.ID), t.Priority, now.Sub(t.CreatedAt).Minutes(),
	)
}

func slaBreachMessage(t *Ticket, now time.Time) string {
	return fmt.Sprintf(
		":rotating_light: **SLA Breach**\n- **Ticket**: %s\n- **Priority**: %s\n- **Time elapsed**: %.1f minutes",
		shortID(t.ID), t.Priority, now.Sub(t.CreatedAt).Minutes(),
	)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func snapshotOf(t *Ticket) *Ticket {
	cp := *t
	return &cp
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
