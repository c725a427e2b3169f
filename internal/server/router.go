package server

import (
	"github.com/gin-gonic/gin"
	"github.com/learnloop/coursechat/internal/handlers"
	"github.com/learnloop/coursechat/internal/middleware"
	pkgauth "github.com/learnloop/coursechat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *pkgauth.JWTManager,
	blacklist pkgauth.TokenBlacklist,
	authH *handlers.AuthHandler,
	userH *handlers.UserHandler,
	courseH *handlers.CourseHandler,
	chatH *handlers.ChatHandler,
	wsH *handlers.WebSocketHandler,
	assistantH *handlers.AssistantHandler,
) {
	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", middleware.AuthMiddleware(jwtMgr, blacklist), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api", middleware.AuthMiddleware(jwtMgr, blacklist))
	{
		api.GET("/users/me", userH.GetMe)
		api.PUT("/users/me", userH.UpdateMe)

		api.GET("/courses", courseH.GetCourses)
		api.POST("/courses", courseH.CreateCourse)
		api.GET("/courses/:id", courseH.GetCourse)
		api.POST("/courses/:id/enroll", courseH.Enroll)

		api.GET("/chat/messages", chatH.GetMessages)
		api.POST("/chat/messages", chatH.SendMessage)
		api.POST("/chat/messages/read", chatH.MarkRead)

		api.POST("/assistant/sessions/:id/turns", assistantH.AppendTurn)
		api.GET("/assistant/sessions/:id/transcript", assistantH.GetTranscript)
		api.PUT("/assistant/sessions/:id/document", assistantH.SetDocument)
		api.GET("/assistant/sessions/:id/document", assistantH.GetDocument)
		api.DELETE("/assistant/sessions/:id", assistantH.DeleteSession)
	}

	// WebSocket endpoint; query-token auth for browser clients
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, blacklist), wsH.HandleWebSocket)
}
