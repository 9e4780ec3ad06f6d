package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/domain/conversation"
	"carebridge/chat-api/internal/domain/escalation"
	"carebridge/chat-api/internal/interfaces/httpserver/handlers"
	"carebridge/chat-api/internal/utils/platformerrors"
)

// MockConversationService is a mock implementation of the handler-facing
// conversation surface. Only the methods a test exercises need a Func.
type MockConversationService struct {
	StartConversationFunc func(ctx context.Context, userID string, channel conversation.Channel, text string, metadata map[string]string) (*conversation.Conversation, error)
	ProcessMessageFunc    func(ctx context.Context, conversationID, text string, msgType conversation.MessageType, userID string) (*conversation.Message, error)
	EscalateFunc          func(ctx context.Context, conversationID, reason string, priority escalation.Priority) (bool, error)
	TransferToAgentFunc   func(ctx context.Context, conversationID, agentID string) (bool, error)
	CompleteFunc          func(ctx context.Context, conversationID string, satisfaction *int) (bool, error)
	GetFunc               func(ctx context.Context, conversationID string) (*conversation.Conversation, error)
	ListByUserFunc        func(ctx context.Context, userID string, limit int) ([]*conversation.Conversation, error)
	EscalationStatusFunc  func(ctx context.Context, conversationID string) (*escalation.TicketStatus, error)
}

func (m *MockConversationService) StartConversation(ctx context.Context, userID string, channel conversation.Channel, text string, metadata map[string]string) (*conversation.Conversation, error) {
	if m.StartConversationFunc != nil {
		return m.StartConversationFunc(ctx, userID, channel, text, metadata)
	}
	return nil, nil
}

func (m *MockConversationService) ProcessMessage(ctx context.Context, conversationID, text string, msgType conversation.MessageType, userID string) (*conversation.Message, error) {
	if m.ProcessMessageFunc != nil {
		return m.ProcessMessageFunc(ctx, conversationID, text, msgType, userID)
	}
	return nil, nil
}

func (m *MockConversationService) Escalate(ctx context.Context, conversationID, reason string, priority escalation.Priority) (bool, error) {
	if m.EscalateFunc != nil {
		return m.EscalateFunc(ctx, conversationID, reason, priority)
	}
	return false, nil
}

func (m *MockConversationService) TransferToAgent(ctx context.Context, conversationID, agentID string) (bool, error) {
	if m.TransferToAgentFunc != nil {
		return m.TransferToAgentFunc(ctx, conversationID, agentID)
	}
	return false, nil
}

func (m *MockConversationService) Complete(ctx context.Context, conversationID string, satisfaction *int) (bool, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, conversationID, satisfaction)
	}
	return false, nil
}

func (m *MockConversationService) Get(ctx context.Context, conversationID string) (*conversation.Conversation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *MockConversationService) ListByUser(ctx context.Context, userID string, limit int) ([]*conversation.Conversation, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *MockConversationService) EscalationStatus(ctx context.Context, conversationID string) (*escalation.TicketStatus, error) {
	if m.EscalationStatusFunc != nil {
		return m.EscalationStatusFunc(ctx, conversationID)
	}
	return nil, nil
}

func setupConversationTestRouter(handler *handlers.ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/v1")
	{
		v1.POST("/conversations", handler.Start)
		v1.GET("/conversations", handler.List)
		v1.GET("/conversations/:conversation_id", handler.Get)
		v1.POST("/conversations/:conversation_id/messages", handler.ProcessMessage)
		v1.POST("/conversations/:conversation_id/escalate", handler.Escalate)
		v1.GET("/conversations/:conversation_id/escalation", handler.EscalationStatus)
	}
	return r
}

func sampleConversation(id string) *conversation.Conversation {
	now := time.Now().UTC()
	return &conversation.Conversation{
		ID:        id,
		UserID:    "user-1",
		Channel:   conversation.ChannelWeb,
		State:     conversation.StateWaitingForUser,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestConversationHandler_Start(t *testing.T) {
	mockService := &MockConversationService{
		StartConversationFunc: func(ctx context.Context, userID string, channel conversation.Channel, text string, metadata map[string]string) (*conversation.Conversation, error) {
			if userID != "user-1" || text != "hello" {
				t.Errorf("unexpected args: %s / %s", userID, text)
			}
			return sampleConversation("conv_123"), nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"user_id": "user-1", "message": "hello"})
	req, _ := http.NewRequest("POST", "/v1/conversations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["id"] != "conv_123" {
		t.Errorf("id = %v, want conv_123", payload["id"])
	}
}

func TestConversationHandler_StartValidation(t *testing.T) {
	handler := handlers.NewConversationHandler(&MockConversationService{}, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	// Missing required message field.
	body, _ := json.Marshal(map[string]string{"user_id": "user-1"})
	req, _ := http.NewRequest("POST", "/v1/conversations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestConversationHandler_GetNotFound(t *testing.T) {
	mockService := &MockConversationService{
		GetFunc: func(ctx context.Context, conversationID string) (*conversation.Conversation, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConversationHandler_ProcessMessage(t *testing.T) {
	mockService := &MockConversationService{
		ProcessMessageFunc: func(ctx context.Context, conversationID, text string, msgType conversation.MessageType, userID string) (*conversation.Message, error) {
			if msgType != conversation.MessageTypeUser {
				t.Errorf("type = %s, want user default", msgType)
			}
			return &conversation.Message{
				ID:             "msg_1",
				ConversationID: conversationID,
				Type:           conversation.MessageTypeAssistant,
				Content:        "sure, happy to help",
				CreatedAt:      time.Now().UTC(),
			}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"message": "hi", "user_id": "user-1"})
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_123/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["type"] != "assistant" {
		t.Errorf("type = %v, want assistant", payload["type"])
	}
}

func TestConversationHandler_ProcessMessageClosed(t *testing.T) {
	mockService := &MockConversationService{
		ProcessMessageFunc: func(ctx context.Context, conversationID, text string, msgType conversation.MessageType, userID string) (*conversation.Message, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeInvalidState, "conversation is closed", nil, "")
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"message": "hi"})
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_123/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestConversationHandler_Escalate(t *testing.T) {
	mockService := &MockConversationService{
		EscalateFunc: func(ctx context.Context, conversationID, reason string, priority escalation.Priority) (bool, error) {
			if priority != escalation.PriorityHigh {
				t.Errorf("priority = %s, want high", priority)
			}
			return true, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"reason": "user asked", "priority": "high"})
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_123/escalate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var payload map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !payload["escalated"] {
		t.Error("escalated = false, want true")
	}
}

func TestConversationHandler_EscalationStatus(t *testing.T) {
	mockService := &MockConversationService{
		EscalationStatusFunc: func(ctx context.Context, conversationID string) (*escalation.TicketStatus, error) {
			return &escalation.TicketStatus{
				TicketID:             "tkt_1",
				Status:               escalation.StatusPending,
				Priority:             escalation.PriorityNormal,
				QueuePosition:        2,
				EstimatedWaitMinutes: 20,
			}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_123/escalation", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["ticket_id"] != "tkt_1" {
		t.Errorf("ticket_id = %v, want tkt_1", payload["ticket_id"])
	}
	if payload["estimated_wait_minutes"] != float64(20) {
		t.Errorf("estimated_wait_minutes = %v, want 20", payload["estimated_wait_minutes"])
	}
}

func TestConversationHandler_ListRequiresUser(t *testing.T) {
	handler := handlers.NewConversationHandler(&MockConversationService{}, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
