package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"carebridge/chat-api/internal/domain/agent"
	"carebridge/chat-api/internal/interfaces/httpserver/handlers"
	"carebridge/chat-api/internal/utils/platformerrors"
)

type MockAgentDirectory struct {
	RegisterFunc func(ctx context.Context, a *agent.Agent) (*agent.Agent, error)
	GetFunc      func(ctx context.Context, id string) (*agent.Agent, error)
	ListFunc     func(ctx context.Context) []*agent.Agent
}

func (m *MockAgentDirectory) Register(ctx context.Context, a *agent.Agent) (*agent.Agent, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, a)
	}
	return nil, nil
}

func (m *MockAgentDirectory) Get(ctx context.Context, id string) (*agent.Agent, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAgentDirectory) List(ctx context.Context) []*agent.Agent {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil
}

type MockAgentStatusUpdater struct {
	UpdateAgentStatusFunc func(ctx context.Context, agentID string, status agent.Status) error
}

func (m *MockAgentStatusUpdater) UpdateAgentStatus(ctx context.Context, agentID string, status agent.Status) error {
	if m.UpdateAgentStatusFunc != nil {
		return m.UpdateAgentStatusFunc(ctx, agentID, status)
	}
	return nil
}

func setupAgentTestRouter(handler *handlers.AgentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/v1")
	{
		v1.POST("/agents", handler.Register)
		v1.GET("/agents", handler.List)
		v1.GET("/agents/:agent_id", handler.Get)
		v1.PUT("/agents/:agent_id/status", handler.UpdateStatus)
	}
	return r
}

func TestAgentHandler_Register(t *testing.T) {
	mockDirectory := &MockAgentDirectory{
		RegisterFunc: func(ctx context.Context, a *agent.Agent) (*agent.Agent, error) {
			if a.Name != "Sam" || len(a.Specialties) != 1 {
				t.Errorf("unexpected agent payload: %+v", a)
			}
			registered := *a
			registered.ID = "agt_1"
			registered.Status = agent.StatusOffline
			registered.MaxConcurrent = 3
			return &registered, nil
		},
	}

	handler := handlers.NewAgentHandler(mockDirectory, &MockAgentStatusUpdater{}, zerolog.Nop())
	router := setupAgentTestRouter(handler)

	body, _ := json.Marshal(map[string]any{
		"name":        "Sam",
		"languages":   []string{"en", "es"},
		"specialties": []string{"billing"},
	})
	req, _ := http.NewRequest("POST", "/v1/agents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["id"] != "agt_1" {
		t.Errorf("id = %v, want agt_1", payload["id"])
	}
	if payload["max_concurrent"] != float64(3) {
		t.Errorf("max_concurrent = %v, want 3", payload["max_concurrent"])
	}
}

func TestAgentHandler_RegisterValidation(t *testing.T) {
	handler := handlers.NewAgentHandler(&MockAgentDirectory{}, &MockAgentStatusUpdater{}, zerolog.Nop())
	router := setupAgentTestRouter(handler)

	body, _ := json.Marshal(map[string]any{"languages": []string{"en"}})
	req, _ := http.NewRequest("POST", "/v1/agents", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestAgentHandler_GetNotFound(t *testing.T) {
	mockDirectory := &MockAgentDirectory{
		GetFunc: func(ctx context.Context, id string) (*agent.Agent, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeNotFound, "agent not found", nil, "")
		},
	}

	handler := handlers.NewAgentHandler(mockDirectory, &MockAgentStatusUpdater{}, zerolog.Nop())
	router := setupAgentTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/agents/agt_missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAgentHandler_List(t *testing.T) {
	mockDirectory := &MockAgentDirectory{
		ListFunc: func(ctx context.Context) []*agent.Agent {
			return []*agent.Agent{
				{ID: "agt_1", Name: "Sam", Status: agent.StatusAvailable},
				{ID: "agt_2", Name: "Alex", Status: agent.StatusAway},
			}
		},
	}

	handler := handlers.NewAgentHandler(mockDirectory, &MockAgentStatusUpdater{}, zerolog.Nop())
	router := setupAgentTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/agents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var payload []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(payload) != 2 {
		t.Fatalf("len = %d, want 2", len(payload))
	}
	if payload[1]["status"] != "away" {
		t.Errorf("status = %v, want away", payload[1]["status"])
	}
}

func TestAgentHandler_UpdateStatus(t *testing.T) {
	called := false
	mockUpdater := &MockAgentStatusUpdater{
		UpdateAgentStatusFunc: func(ctx context.Context, agentID string, status agent.Status) error {
			called = true
			if agentID != "agt_1" || status != agent.StatusAvailable {
				t.Errorf("unexpected args: %s / %s", agentID, status)
			}
			return nil
		},
	}

	handler := handlers.NewAgentHandler(&MockAgentDirectory{}, mockUpdater, zerolog.Nop())
	router := setupAgentTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"status": "available"})
	req, _ := http.NewRequest("PUT", "/v1/agents/agt_1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !called {
		t.Error("expected the status updater to be called")
	}
}

func TestAgentHandler_UpdateStatusRejectsUnknown(t *testing.T) {
	handler := handlers.NewAgentHandler(&MockAgentDirectory{}, &MockAgentStatusUpdater{}, zerolog.Nop())
	router := setupAgentTestRouter(handler)

	body, _ := json.Marshal(map[string]string{"status": "vacation"})
	req, _ := http.NewRequest("PUT", "/v1/agents/agt_1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
