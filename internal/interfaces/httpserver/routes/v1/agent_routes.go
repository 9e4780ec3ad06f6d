package v1

import (
	"github.com/gin-gonic/gin"

	"carebridge/chat-api/internal/interfaces/httpserver/handlers"
)

func registerAgentRoutes(router gin.IRoutes, handler *handlers.AgentHandler) {
	router.POST("/agents", handler.Register)
	router.GET("/agents", handler.List)
	router.GET("/agents/:agent_id", handler.Get)
	router.PUT("/agents/:agent_id/status", handler.UpdateStatus)
}
