package conversation

import (
	"fmt"
	"testing"
	"time"
)

func newTestPolicy() TriggerPolicy {
	return TriggerPolicy{MaxMessages: 20, LoopWindow: 6, LoopDistinct: 2}
}

func convWithUserMessages(contents ...string) *Conversation {
	conv := &Conversation{ID: "conv_test", State: StateActive, Context: NewContext(time.Now())}
	for _, content := range contents {
		conv.Messages = append(conv.Messages, Message{Type: MessageTypeUser, Content: content})
	}
	return conv
}

func TestTriggerKeywords(t *testing.T) {
	policy := newTestPolicy()
	conv := convWithUserMessages()

	tests := []struct {
		text   string
		should bool
	}{
		{"I need to speak to human support", true},
		{"this is an EMERGENCY", true},
		{"I'm so frustrated with this", true},
		{"I will sue you", true},
		{"terrible service honestly", true},
		{"can I book an appointment tomorrow", false},
		{"what are your opening hours", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			should, reason := policy.Evaluate(conv, tt.text)
			if should != tt.should {
				t.Fatalf("Evaluate(%q) = %v, want %v", tt.text, should, tt.should)
			}
			if should && reason != ReasonKeywordMatch {
				t.Errorf("reason = %q, want %q", reason, ReasonKeywordMatch)
			}
		})
	}
}

func TestTriggerMessageCeiling(t *testing.T) {
	policy := newTestPolicy()
	conv := convWithUserMessages()
	for i := 0; i < policy.MaxMessages+1; i++ {
		conv.Messages = append(conv.Messages, Message{Type: MessageTypeUser, Content: fmt.Sprintf("message number %d", i)})
	}

	should, reason := policy.Evaluate(conv, "still need help with my bill today")
	if !should {
		t.Fatal("expected escalation past the message ceiling")
	}
	if reason != ReasonMessageCeiling {
		t.Errorf("reason = %q, want %q", reason, ReasonMessageCeiling)
	}

	// Assistant replies do not count toward the ceiling.
	mixed := convWithUserMessages("just one question")
	for i := 0; i < policy.MaxMessages+1; i++ {
		mixed.Messages = append(mixed.Messages, Message{Type: MessageTypeAssistant, Content: fmt.Sprintf("reply %d", i)})
	}
	if should, _ := policy.Evaluate(mixed, "thanks, one more thing"); should {
		t.Error("assistant messages must not trigger the ceiling")
	}
}

func TestTriggerLoopDetection(t *testing.T) {
	policy := newTestPolicy()

	// Six user messages cycling between two distinct texts is a loop.
	loop := convWithUserMessages(
		"how do I refill",
		"it does not work",
		"how do I refill",
		"it does not work",
		"how do I refill",
		"it does not work",
	)
	should, reason := policy.Evaluate(loop, "checking on my refill")
	if !should {
		t.Fatal("expected loop detection to fire")
	}
	if reason != ReasonLoopDetected {
		t.Errorf("reason = %q, want %q", reason, ReasonLoopDetected)
	}

	// Varied messages are not a loop.
	varied := convWithUserMessages(
		"first question about billing",
		"second question about results",
		"third question about refills",
		"fourth question about appointments",
		"fifth question about insurance",
		"sixth question about records",
	)
	if should, _ := policy.Evaluate(varied, "one more thing"); should {
		t.Error("varied conversation should not trigger loop detection")
	}

	// Too few user messages to judge.
	short := convWithUserMessages("hello", "hello")
	if should, _ := policy.Evaluate(short, "hello again"); should {
		t.Error("short conversation should not trigger loop detection")
	}
}
