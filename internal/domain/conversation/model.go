package conversation

import "time"

// Channel identifies where a conversation originates.
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelSMS      Channel = "sms"
	ChannelVoice    Channel = "voice"
	ChannelTeamChat Channel = "teamchat"
)

// MessageType distinguishes who produced a message.
type MessageType string

const (
	MessageTypeUser       MessageType = "user"
	MessageTypeAssistant  MessageType = "assistant"
	MessageTypeSystem     MessageType = "system"
	MessageTypeEscalation MessageType = "escalation"
)

// Message is one immutable entry in a conversation's log.
type Message struct {
	ID              string
	ConversationID  string
	Type            MessageType
	Content         string
	RedactedContent string
	PHIDetected     bool
	UserID          string
	AgentID         string
	Metadata        map[string]string
	CreatedAt       time.Time
}

// Conversation is the aggregate for one user session.
type Conversation struct {
	ID              string
	UserID          string
	Channel         Channel
	State           State
	Language        string
	Messages        []Message
	Context         *Context
	AssignedAgentID string
	EscalatedAt     *time.Time
	CompletedAt     *time.Time
	Satisfaction    *int
	Metadata        map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserMessageCount counts messages produced by the user.
func (c *Conversation) UserMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Type == MessageTypeUser {
			n++
		}
	}
	return n
}

// LastUserMessages returns up to limit of the most recent user messages,
// oldest first.
func (c *Conversation) LastUserMessages(limit int) []Message {
	out := make([]Message, 0, limit)
	for i := len(c.Messages) - 1; i >= 0 && len(out) < limit; i-- {
		if c.Messages[i].Type == MessageTypeUser {
			out = append(out, c.Messages[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
