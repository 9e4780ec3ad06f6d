package conversation

import "strings"

// Escalation trigger reasons. The reason records which rule fired and
// feeds ticket categorization.
const (
	ReasonKeywordMatch   = "trigger_keyword_match"
	ReasonMessageCeiling = "message_count_exceeded"
	ReasonLoopDetected   = "conversation_loop_detected"
	ReasonUserRequested  = "user_requested"
	ReasonTimeout        = "escalation_timeout"
)

var escalationKeywords = []string{
	"emergency", "urgent", "complaint", "speak to human",
	"talk to person", "this isn't working", "frustrated",
	"angry", "lawsuit", "sue", "terrible service",
}

// TriggerPolicy evaluates whether an inbound user message should force a
// hand-off to a human agent.
type TriggerPolicy struct {
	MaxMessages  int
	LoopWindow   int
	LoopDistinct int
}

// Evaluate returns whether to escalate and the reason that fired.
// Rules are checked in order: keyword, message ceiling, loop detection.
func (p TriggerPolicy) Evaluate(conv *Conversation, text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, kw := range escalationKeywords {
		if strings.Contains(lower, kw) {
			return true, ReasonKeywordMatch
		}
	}

	if p.MaxMessages > 0 && conv.UserMessageCount() > p.MaxMessages {
		return true, ReasonMessageCeiling
	}

	if p.LoopWindow > 0 {
		recent := conv.LastUserMessages(p.LoopWindow)
		if len(recent) >= p.LoopWindow {
			distinct := make(map[string]struct{}, len(recent))
			for _, m := range recent {
				distinct[m.Content] = struct{}{}
			}
			if len(distinct) <= p.LoopDistinct {
				return true, ReasonLoopDetected
			}
		}
	}

	return false, ""
}
