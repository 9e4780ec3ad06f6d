package conversation

import "time"

// Context accumulates signals across a conversation. It is owned by the
// conversation service and mutated only under the conversation's lock.
type Context struct {
	CurrentTopic        string
	IntentHistory       []string
	MentionedSymptoms   []string
	MentionedConditions []string
	SentimentScores     []float64
	UrgencyLevel        Urgency
	EscalationReasons   []string
	MessageCount        int
	SessionStart        time.Time
	LastActivity        time.Time
}

// NewContext creates an empty accumulator for a conversation starting now.
func NewContext(now time.Time) *Context {
	return &Context{
		UrgencyLevel: UrgencyNormal,
		SessionStart: now,
		LastActivity: now,
	}
}

// ObserveUserMessage folds one user message into the accumulator.
func (c *Context) ObserveUserMessage(cls Classifier, text string, now time.Time) {
	c.MessageCount++
	c.LastActivity = now

	if intent := cls.ClassifyIntent(text); intent != "" {
		c.IntentHistory = append(c.IntentHistory, intent)
		c.CurrentTopic = intent
	}

	symptoms, conditions := cls.ExtractEntities(text)
	for _, s := range symptoms {
		c.MentionedSymptoms = appendIfAbsent(c.MentionedSymptoms, s)
	}
	for _, cond := range conditions {
		c.MentionedConditions = appendIfAbsent(c.MentionedConditions, cond)
	}

	c.SentimentScores = append(c.SentimentScores, cls.ScoreSentiment(text))

	// Urgency only ratchets upward during a conversation.
	if urgency := cls.DetectUrgency(text); urgency.Outranks(c.UrgencyLevel) {
		c.UrgencyLevel = urgency
	}
}

// ObserveMessage records a non-user message for activity tracking.
func (c *Context) ObserveMessage(now time.Time) {
	c.MessageCount++
	c.LastActivity = now
}

// ResetUrgency lowers urgency back to normal. Explicit operator action,
// never triggered by message content.
func (c *Context) ResetUrgency() {
	c.UrgencyLevel = UrgencyNormal
}

// AverageSentiment returns the mean of observed scores, 0.5 when empty.
func (c *Context) AverageSentiment() float64 {
	if len(c.SentimentScores) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, s := range c.SentimentScores {
		sum += s
	}
	return sum / float64(len(c.SentimentScores))
}

// Summary is a read-only projection handed to the AI responder and to
// escalation tickets.
type Summary struct {
	DurationMinutes float64  `json:"duration_minutes"`
	MessageCount    int      `json:"message_count"`
	IntentHistory   []string `json:"intent_history"`
	UrgencyLevel    Urgency  `json:"urgency_level"`
	KeyConditions   []string `json:"key_conditions"`
	KeySymptoms     []string `json:"key_symptoms"`
	AvgSentiment    float64  `json:"avg_sentiment"`
}

// Summarize builds the projection. Intent history is capped to the last 5.
func (c *Context) Summarize(now time.Time) Summary {
	intents := c.IntentHistory
	if len(intents) > 5 {
		intents = intents[len(intents)-5:]
	}
	return Summary{
		DurationMinutes: now.Sub(c.SessionStart).Minutes(),
		MessageCount:    c.MessageCount,
		IntentHistory:   append([]string(nil), intents...),
		UrgencyLevel:    c.UrgencyLevel,
		KeyConditions:   append([]string(nil), c.MentionedConditions...),
		KeySymptoms:     append([]string(nil), c.MentionedSymptoms...),
		AvgSentiment:    c.AverageSentiment(),
	}
}

func appendIfAbsent(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
