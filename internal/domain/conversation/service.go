package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/config"
	"carebridge/chat-api/internal/domain/escalation"
	"carebridge/chat-api/internal/infrastructure/metrics"
	"carebridge/chat-api/internal/utils/chatid"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// FallbackResponse is returned when the AI responder fails.
const FallbackResponse = "I apologize, but I'm experiencing technical difficulties. Please try again or contact our support team."

// Repository persists conversations with their message logs.
type Repository interface {
	Save(ctx context.Context, c *Conversation) error
	Load(ctx context.Context, id string) (*Conversation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*Conversation, error)
}

// Redactor detects and masks PHI in message content. It never fails
// fatally; on internal trouble it returns the input unchanged.
type Redactor interface {
	DetectAndRedact(text string) (detected bool, redacted string)
}

// Responder generates assistant replies. Failures degrade to
// FallbackResponse and are never surfaced to the user.
type Responder interface {
	Generate(ctx context.Context, conv *Conversation, latest string, summary Summary) (string, error)
}

// Escalator is the slice of the escalation service the conversation
// layer drives.
type Escalator interface {
	RequestAgent(ctx context.Context, req escalation.Request) (bool, *escalation.Ticket, error)
	HandleTimeout(ctx context.Context, conversationID string) error
	AssignToAgent(ctx context.Context, conversationID, agentID string) error
	MarkFirstResponse(ctx context.Context, conversationID string)
	Resolve(ctx context.Context, conversationID string, satisfaction *int)
	Status(ctx context.Context, conversationID string) (*escalation.TicketStatus, error)
}

// Service owns the active conversation set and drives each conversation's
// state machine. Messages within one conversation are totally ordered by
// a per-conversation lock; different conversations proceed in parallel.
type Service struct {
	mu     sync.Mutex
	active map[string]*entry

	cfg        *config.Config
	classifier Classifier
	detector   LanguageDetector
	redactor   Redactor
	responder  Responder
	escalator  Escalator
	repo       Repository
	triggers   TriggerPolicy
	log        zerolog.Logger
	now        func() time.Time
}

type entry struct {
	mu   sync.Mutex
	conv *Conversation
}

// NewService creates the conversation service.
func NewService(
	cfg *config.Config,
	classifier Classifier,
	detector LanguageDetector,
	redactor Redactor,
	responder Responder,
	escalator Escalator,
	repo Repository,
	log zerolog.Logger,
) *Service {
	return &Service{
		active:     make(map[string]*entry),
		cfg:        cfg,
		classifier: classifier,
		detector:   detector,
		redactor:   redactor,
		responder:  responder,
		escalator:  escalator,
		repo:       repo,
		triggers: TriggerPolicy{
			MaxMessages:  cfg.MaxAIMessages,
			LoopWindow:   cfg.LoopDetectionWindow,
			LoopDistinct: cfg.LoopDistinctLimit,
		},
		log: log.With().Str("component", "conversation-service").Logger(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// StartConversation creates a conversation, registers it in the active
// set and processes the initial message.
func (s *Service) StartConversation(ctx context.Context, userID string, channel Channel, text string, metadata map[string]string) (*Conversation, error) {
	if userID == "" || text == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "user id and initial message are required", nil, "")
	}

	now := s.now()
	conv := &Conversation{
		ID:        chatid.New(chatid.KindConversation),
		UserID:    userID,
		Channel:   channel,
		State:     StateActive,
		Language:  s.detector.Detect(text),
		Context:   NewContext(now),
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	e := &entry{conv: conv}
	s.mu.Lock()
	s.active[conv.ID] = e
	metrics.ActiveConversations.Set(float64(len(s.active)))
	s.mu.Unlock()

	s.log.Info().
		Str("conversation_id", conv.ID).
		Str("user_id", userID).
		Str("channel", string(channel)).
		Str("language", conv.Language).
		Msg("conversation started")

	if _, err := s.ProcessMessage(ctx, conv.ID, text, MessageTypeUser, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, conv.ID)
}

// ProcessMessage appends one inbound message, updates context, evaluates
// escalation triggers and produces the reply. User messages in a terminal
// or unexpected state are rejected with an invalid-state error.
func (s *Service) ProcessMessage(ctx context.Context, conversationID, text string, msgType MessageType, userID string) (*Message, error) {
	start := time.Now()
	e, err := s.lookup(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	conv := e.conv

	if conv.State.IsTerminal() {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidState, "conversation is closed", nil, "",
			map[string]any{"conversation_id": conversationID, "state": string(conv.State)})
	}

	now := s.now()
	detected, redacted := s.redact(text)
	msg := Message{
		ID:             chatid.New(chatid.KindMessage),
		ConversationID: conversationID,
		Type:           msgType,
		Content:        text,
		PHIDetected:    detected,
		CreatedAt:      now,
	}
	if msgType == MessageTypeUser {
		msg.UserID = userID
	} else {
		msg.AgentID = userID
	}
	if detected {
		msg.RedactedContent = redacted
		metrics.PHIDetections.Inc()
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = now

	switch msgType {
	case MessageTypeUser:
		conv.Context.ObserveUserMessage(s.classifier, text, now)
	default:
		conv.Context.ObserveMessage(now)
	}
	metrics.RecordMessageProcessed(string(msgType), start)

	// Agent replies on escalated conversations stamp the ticket's first
	// response; they produce no AI turn.
	if conv.State == StateEscalated {
		if msg.AgentID != "" || msgType == MessageTypeSystem {
			s.escalator.MarkFirstResponse(ctx, conversationID)
		}
		s.persist(conv)
		return &msg, nil
	}

	if msgType != MessageTypeUser {
		s.persist(conv)
		return &msg, nil
	}

	if should, reason := s.triggers.Evaluate(conv, text); should {
		escMsg, escErr := s.escalateLocked(ctx, conv, reason, escalation.PriorityNormal)
		if escErr == nil {
			s.persist(conv)
			return escMsg, nil
		}
		// No ticket could be opened. The conversation stays with the AI
		// and the trigger retries on the next message.
		s.log.Warn().Err(escErr).Str("conversation_id", conv.ID).Msg("escalation rejected, AI keeps handling")
	}

	reply := s.generateReply(ctx, conv, text, now)
	conv.Messages = append(conv.Messages, *reply)
	if next, err := conv.State.TransitionTo(StateWaitingForUser); err == nil {
		conv.State = next
	}
	conv.UpdatedAt = s.now()
	s.persist(conv)
	return reply, nil
}

// Escalate hands the conversation to a human agent. Returns false when
// the conversation is already escalated or closed, or with the
// escalation error when no ticket could be opened.
func (s *Service) Escalate(ctx context.Context, conversationID, reason string, priority escalation.Priority) (bool, error) {
	e, err := s.lookup(ctx, conversationID)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	conv := e.conv

	if !conv.State.CanTransitionTo(StateEscalated) {
		return false, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidState, "conversation cannot be escalated", nil, "",
			map[string]any{"conversation_id": conversationID, "state": string(conv.State)})
	}
	if reason == "" {
		reason = ReasonUserRequested
	}
	if _, err := s.escalateLocked(ctx, conv, reason, priority); err != nil {
		return false, err
	}
	s.persist(conv)
	return true, nil
}

// TransferToAgent escalates (when needed) and assigns the conversation
// directly to the named agent.
func (s *Service) TransferToAgent(ctx context.Context, conversationID, agentID string) (bool, error) {
	e, err := s.lookup(ctx, conversationID)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	conv := e.conv

	if conv.State != StateEscalated {
		if !conv.State.CanTransitionTo(StateEscalated) {
			return false, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeInvalidState, "conversation cannot be transferred", nil, "",
				map[string]any{"conversation_id": conversationID, "state": string(conv.State)})
		}
		if _, err := s.escalateLocked(ctx, conv, ReasonUserRequested, escalation.PriorityNormal); err != nil {
			return false, err
		}
	}
	if err := s.escalator.AssignToAgent(ctx, conversationID, agentID); err != nil {
		return false, err
	}
	s.persist(conv)
	return true, nil
}

// Complete closes the conversation. Idempotent: completing a conversation
// that is already terminal returns false without error.
func (s *Service) Complete(ctx context.Context, conversationID string, satisfaction *int) (bool, error) {
	e, err := s.lookup(ctx, conversationID)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	conv := e.conv
	if conv.State.IsTerminal() {
		e.mu.Unlock()
		return false, nil
	}

	now := s.now()
	conv.State = StateCompleted
	conv.CompletedAt = &now
	conv.Satisfaction = satisfaction
	conv.UpdatedAt = now
	s.persist(conv)
	e.mu.Unlock()

	s.escalator.Resolve(ctx, conversationID, satisfaction)
	s.removeFromActive(conversationID)

	s.log.Info().Str("conversation_id", conversationID).Msg("conversation completed")
	return true, nil
}

// Get returns a copy of the conversation, falling back to storage when it
// is no longer in the active set.
func (s *Service) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	s.mu.Lock()
	e, ok := s.active[conversationID]
	s.mu.Unlock()
	if ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		return cloneConversation(e.conv), nil
	}
	if s.repo != nil {
		conv, err := s.repo.Load(ctx, conversationID)
		if err == nil {
			return conv, nil
		}
		if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, err
		}
	}
	return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
		platformerrors.ErrorTypeNotFound, "conversation not found", nil, "",
		map[string]any{"conversation_id": conversationID})
}

// ListByUser returns the user's conversations from storage.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]*Conversation, error) {
	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// EscalationStatus proxies the ticket projection for a conversation.
func (s *Service) EscalationStatus(ctx context.Context, conversationID string) (*escalation.TicketStatus, error) {
	if _, err := s.lookup(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.escalator.Status(ctx, conversationID)
}

// OnAgentAssigned records the assigned agent on the conversation. Called
// by the escalation service when the matcher lands an assignment.
func (s *Service) OnAgentAssigned(ctx context.Context, conversationID, agentID string) {
	s.mu.Lock()
	e, ok := s.active[conversationID]
	s.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	conv := e.conv
	now := s.now()
	conv.AssignedAgentID = agentID
	conv.Messages = append(conv.Messages, Message{
		ID:             chatid.New(chatid.KindMessage),
		ConversationID: conversationID,
		Type:           MessageTypeSystem,
		Content:        "You are now connected with a support agent.",
		AgentID:        agentID,
		CreatedAt:      now,
	})
	conv.UpdatedAt = now
	s.persist(conv)
}

// SweepAbandoned marks idle conversations abandoned and drops them from
// the active set. Run periodically by the worker supervisor.
func (s *Service) SweepAbandoned(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ConversationTimeout)
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		conv := e.conv
		if conv.State.IsTerminal() || conv.UpdatedAt.After(cutoff) {
			e.mu.Unlock()
			continue
		}
		conv.State = StateAbandoned
		conv.UpdatedAt = s.now()
		s.persist(conv)
		id := conv.ID
		e.mu.Unlock()

		s.escalator.Resolve(ctx, id, nil)
		s.removeFromActive(id)
		s.log.Info().Str("conversation_id", id).Msg("conversation abandoned")
	}
}

// SweepEscalationTimeouts finds conversations stuck in escalated state
// past the escalation window and drives the ticket timeout path.
func (s *Service) SweepEscalationTimeouts(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.EscalationTimeout)
	for _, e := range s.snapshotEntries() {
		e.mu.Lock()
		conv := e.conv
		timedOut := conv.State == StateEscalated &&
			conv.AssignedAgentID == "" &&
			conv.EscalatedAt != nil &&
			conv.EscalatedAt.Before(cutoff)
		id := conv.ID
		e.mu.Unlock()

		if !timedOut {
			continue
		}
		if err := s.escalator.HandleTimeout(ctx, id); err != nil {
			s.log.Error().Err(err).Str("conversation_id", id).Msg("escalation timeout handling failed")
		}
	}
}

// escalateLocked transitions the conversation, opens the ticket and
// appends the hand-off message. When the ticket cannot be opened the
// state change is rolled back and the error returned, so the
// conversation never sits in escalated without a live ticket. Caller
// holds the conversation lock.
func (s *Service) escalateLocked(ctx context.Context, conv *Conversation, reason string, priority escalation.Priority) (*Message, error) {
	prevState := conv.State
	prevEscalatedAt := conv.EscalatedAt
	now := s.now()
	conv.State = StateEscalated
	conv.EscalatedAt = &now
	conv.Context.EscalationReasons = append(conv.Context.EscalationReasons, reason)

	summary := conv.Context.Summarize(now)
	assigned, _, err := s.escalator.RequestAgent(ctx, escalation.Request{
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Reason:         reason,
		Priority:       priority,
		Channel:        string(conv.Channel),
		Language:       conv.Language,
		ContextSummary: summaryToMap(summary),
	})
	if err != nil {
		conv.State = prevState
		conv.EscalatedAt = prevEscalatedAt
		conv.Context.EscalationReasons = conv.Context.EscalationReasons[:len(conv.Context.EscalationReasons)-1]
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("agent request failed")
		return nil, err
	}

	content := "I'm connecting you with a human agent who can better assist you. Please hold on."
	if assigned {
		content = "I'm connecting you with a human agent now."
	}
	msg := Message{
		ID:             chatid.New(chatid.KindMessage),
		ConversationID: conv.ID,
		Type:           MessageTypeEscalation,
		Content:        content,
		CreatedAt:      s.now(),
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.CreatedAt

	s.log.Info().
		Str("conversation_id", conv.ID).
		Str("reason", reason).
		Str("priority", string(priority)).
		Bool("assigned", assigned).
		Msg("conversation escalated")
	return &msg, nil
}

func (s *Service) generateReply(ctx context.Context, conv *Conversation, latest string, now time.Time) *Message {
	summary := conv.Context.Summarize(now)
	content, err := s.responder.Generate(ctx, conv, latest, summary)
	msgType := MessageTypeAssistant
	if err != nil {
		metrics.AIFallbacks.Inc()
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Msg("AI generation failed, using fallback")
		content = FallbackResponse
		msgType = MessageTypeSystem
	} else if detected, redacted := s.redact(content); detected {
		content = redacted
	}
	return &Message{
		ID:             chatid.New(chatid.KindMessage),
		ConversationID: conv.ID,
		Type:           msgType,
		Content:        content,
		CreatedAt:      s.now(),
	}
}

func (s *Service) redact(text string) (bool, string) {
	if s.redactor == nil || !s.cfg.PHIRedactionEnabled {
		return false, text
	}
	return s.redactor.DetectAndRedact(text)
}

func (s *Service) lookup(ctx context.Context, conversationID string) (*entry, error) {
	s.mu.Lock()
	e, ok := s.active[conversationID]
	s.mu.Unlock()
	if !ok {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "conversation not found", nil, "",
			map[string]any{"conversation_id": conversationID})
	}
	return e, nil
}

func (s *Service) snapshotEntries() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entry, 0, len(s.active))
	for _, e := range s.active {
		out = append(out, e)
	}
	return out
}

func (s *Service) removeFromActive(conversationID string) {
	s.mu.Lock()
	delete(s.active, conversationID)
	metrics.ActiveConversations.Set(float64(len(s.active)))
	s.mu.Unlock()
}

// persist writes the conversation off the hot path. Durability failures
// are logged, never propagated.
func (s *Service) persist(conv *Conversation) {
	if s.repo == nil {
		return
	}
	cp := cloneConversation(conv)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.Save(ctx, cp); err != nil {
			s.log.Error().Err(err).Str("conversation_id", cp.ID).Msg("failed to persist conversation")
		}
	}()
}

func cloneConversation(c *Conversation) *Conversation {
	cp := *c
	cp.Messages = append([]Message(nil), c.Messages...)
	if c.Context != nil {
		ctxCopy := *c.Context
		ctxCopy.IntentHistory = append([]string(nil), c.Context.IntentHistory...)
		ctxCopy.MentionedSymptoms = append([]string(nil), c.Context.MentionedSymptoms...)
		ctxCopy.MentionedConditions = append([]string(nil), c.Context.MentionedConditions...)
		ctxCopy.SentimentScores = append([]float64(nil), c.Context.SentimentScores...)
		ctxCopy.EscalationReasons = append([]string(nil), c.Context.EscalationReasons...)
		cp.Context = &ctxCopy
	}
	if c.Metadata != nil {
		m := make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			m[k] = v
		}
		cp.Metadata = m
	}
	return &cp
}

func summaryToMap(s Summary) map[string]any {
	return map[string]any{
		"duration_minutes": s.DurationMinutes,
		"message_count":    s.MessageCount,
		"intent_history":   s.IntentHistory,
		"urgency_level":    string(s.UrgencyLevel),
		"key_conditions":   s.KeyConditions,
		"key_symptoms":     s.KeySymptoms,
		"avg_sentiment":    s.AvgSentiment,
	}
}
