package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "carebridge/chat-api"

// GetTracer returns the tracer for the chat service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// ConversationAttributes returns common attributes for conversation spans.
func ConversationAttributes(conversationID, userID, channel string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("conversation.id", conversationID),
		attribute.String("conversation.user_id", userID),
		attribute.String("conversation.channel", channel),
	}
}

// TicketAttributes returns common attributes for escalation spans.
func TicketAttributes(ticketID, conversationID, priority string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ticket.id", ticketID),
		attribute.String("ticket.conversation_id", conversationID),
		attribute.String("ticket.priority", priority),
	}
}

// StartMessageSpan starts a span for inbound message processing.
func StartMessageSpan(ctx context.Context, conversationID, userID, channel string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "conversation.process_message",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(ConversationAttributes(conversationID, userID, channel)...),
	)
	return ctx, span
}

// StartEscalationSpan starts a span for an escalation request.
func StartEscalationSpan(ctx context.Context, conversationID, reason, priority string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "escalation.request_agent",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("escalation.reason", reason),
			attribute.String("escalation.priority", priority),
		),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddStateTransition adds a conversation state transition event to a span.
func AddStateTransition(span trace.Span, fromState, toState string) {
	span.AddEvent("state.transition",
		trace.WithAttributes(
			attribute.String("state.from", fromState),
			attribute.String("state.to", toState),
		),
	)
}
