package v1

import (
	"github.com/gin-gonic/gin"

	"carebridge/chat-api/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.POST("/conversations", handler.Start)
	router.GET("/conversations", handler.List)
	router.GET("/conversations/:conversation_id", handler.Get)
	router.POST("/conversations/:conversation_id/messages", handler.ProcessMessage)
	router.POST("/conversations/:conversation_id/escalate", handler.Escalate)
	router.POST("/conversations/:conversation_id/transfer", handler.Transfer)
	router.POST("/conversations/:conversation_id/complete", handler.Complete)
	router.GET("/conversations/:conversation_id/escalation", handler.EscalationStatus)
}
